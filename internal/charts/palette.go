package charts

import (
	"fmt"
	"maps"

	"github.com/tphummel/machine_states/internal/models"
)

// DefaultFallbackColor is used for states without an assigned color.
const DefaultFallbackColor = "gray"

// ConfigError is returned by a strict Palette for a state with no color.
type ConfigError struct {
	State string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("no color configured for state %q", e.State)
}

// Palette maps state labels to display colors.
type Palette struct {
	colors   map[string]string
	fallback string
	strict   bool
}

// NewPalette returns a Palette over a copy of colors. Unmapped states get
// fallback, or a *ConfigError when strict is set.
func NewPalette(colors map[string]string, fallback string, strict bool) Palette {
	if fallback == "" {
		fallback = DefaultFallbackColor
	}
	return Palette{colors: maps.Clone(colors), fallback: fallback, strict: strict}
}

// DefaultPalette uses models.StateColors with the gray fallback.
func DefaultPalette() Palette {
	return NewPalette(models.StateColors, DefaultFallbackColor, false)
}

// Color returns the display color for state.
func (p Palette) Color(state string) (string, error) {
	if c, ok := p.colors[state]; ok {
		return c, nil
	}
	if p.strict {
		return "", &ConfigError{State: state}
	}
	return p.fallback, nil
}

// Colors returns a copy of the configured mapping.
func (p Palette) Colors() map[string]string {
	return maps.Clone(p.colors)
}
