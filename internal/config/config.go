package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tphummel/machine_states/internal/charts"
	"github.com/tphummel/machine_states/internal/models"
)

// Settings are the dashboard settings, optionally read from a YAML file.
type Settings struct {
	// TimestampLayout is the Go time layout for Start Time / End Time.
	TimestampLayout string
	// Colors maps state labels to display colors.
	Colors map[string]string
	// FallbackColor is used for states missing from Colors.
	FallbackColor string
	// StrictColors makes an unmapped state a chart error instead.
	StrictColors bool
	// DefaultWindow is the initial visible span of the timeline.
	DefaultWindow time.Duration
}

type fileSettings struct {
	TimestampLayout string            `yaml:"timestamp_layout"`
	Colors          map[string]string `yaml:"colors"`
	FallbackColor   string            `yaml:"fallback_color"`
	StrictColors    bool              `yaml:"strict_colors"`
	DefaultWindow   string            `yaml:"default_window"`
}

// Defaults returns the settings used when no file is configured.
func Defaults() *Settings {
	colors := make(map[string]string, len(models.StateColors))
	for k, v := range models.StateColors {
		colors[k] = v
	}
	return &Settings{
		Colors:        colors,
		FallbackColor: charts.DefaultFallbackColor,
		DefaultWindow: time.Hour,
	}
}

// Load reads the YAML file at path on top of Defaults. An empty path returns
// the defaults.
func Load(path string) (*Settings, error) {
	s := Defaults()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file fileSettings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if file.TimestampLayout != "" {
		s.TimestampLayout = file.TimestampLayout
	}
	for state, color := range file.Colors {
		s.Colors[state] = color
	}
	if file.FallbackColor != "" {
		s.FallbackColor = file.FallbackColor
	}
	s.StrictColors = file.StrictColors
	if file.DefaultWindow != "" {
		d, err := time.ParseDuration(file.DefaultWindow)
		if err != nil {
			return nil, fmt.Errorf("default_window: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("default_window must be positive, got %s", d)
		}
		s.DefaultWindow = d
	}
	return s, nil
}
