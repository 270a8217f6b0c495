package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/tphummel/machine_states/internal/charts"
	"github.com/tphummel/machine_states/internal/dashboard"
	"github.com/tphummel/machine_states/internal/models"
	"github.com/tphummel/machine_states/internal/render"
)

// Pinger is implemented by record sources that hold a live connection.
type Pinger interface {
	Ping() error
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	Engine *dashboard.Engine
	// Source is the SQLite record source, nil when the dataset came from CSV.
	Source  Pinger
	Version string
	Commit  string
	// Debug pretty-prints JSON and disables client caching.
	Debug bool
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) respond(w http.ResponseWriter, status int, v any) {
	if !h.Debug {
		writeJSON(w, status, v)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeBuildError maps engine and builder failures to status codes.
func writeBuildError(w http.ResponseWriter, err error) {
	var cfgErr *charts.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		writeError(w, http.StatusUnprocessableEntity, cfgErr.Error())
	case errors.Is(err, dashboard.ErrUnknownEvent):
		writeError(w, http.StatusBadRequest, "unknown event")
	case errors.Is(err, dashboard.ErrUnknownChart):
		writeError(w, http.StatusNotFound, "chart not found")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		slog.Error("chart build failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build charts")
	}
}

// Health handles GET /healthz.
// Returns 503 if the SQLite record source is unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Source != nil {
		if err := h.Source.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	data := h.Engine.Dataset()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"version":  h.Version,
		"commit":   h.Commit,
		"records":  humanize.Comma(int64(data.Len())),
		"machines": humanize.Comma(int64(len(data.Machines()))),
	})
}

// Options handles GET /api/v1/options: the values for both selection
// controls, which are also their defaults, and the state colors.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	data := h.Engine.Dataset()
	h.respond(w, http.StatusOK, map[string]any{
		"machines": data.Machines(),
		"states":   data.States(),
		"colors":   h.Engine.Palette().Colors(),
	})
}

// chartsRequest is the body of POST /api/v1/charts. A missing or null list
// selects every value; an empty list selects none.
type chartsRequest struct {
	Event    dashboard.Event `json:"event"`
	Machines *[]string       `json:"machines"`
	States   *[]string       `json:"states"`
}

// Charts handles POST /api/v1/charts: recompute every chart the event
// dispatches to, for one selection.
func (h *Handler) Charts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
	var req chartsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Event == "" {
		req.Event = dashboard.EventInitial
	}

	all := h.Engine.Dataset().All()
	sel := models.Selection{Machines: all.Machines, States: all.States}
	if req.Machines != nil {
		sel.Machines = *req.Machines
	}
	if req.States != nil {
		sel.States = *req.States
	}

	snap, err := h.Engine.Handle(r.Context(), req.Event, sel)
	if err != nil {
		writeBuildError(w, err)
		return
	}
	h.respond(w, http.StatusOK, snap)
}

// selectionFromQuery reads repeated ?machine= and ?state= parameters. A
// missing key selects every value; a key whose only values are empty
// selects none.
func (h *Handler) selectionFromQuery(r *http.Request) models.Selection {
	all := h.Engine.Dataset().All()
	q := r.URL.Query()
	pick := func(key string, fallback []string) []string {
		vals, ok := q[key]
		if !ok {
			return fallback
		}
		out := []string{}
		for _, v := range vals {
			if v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	return models.Selection{
		Machines: pick("machine", all.Machines),
		States:   pick("state", all.States),
	}
}

// Chart handles GET /api/v1/charts/{chart}.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	id := dashboard.ChartID(r.PathValue("chart"))
	fig, err := h.Engine.Build(id, h.selectionFromQuery(r))
	if err != nil {
		writeBuildError(w, err)
		return
	}
	h.respond(w, http.StatusOK, fig)
}

// ChartImage handles GET /api/v1/charts/{chart}/image?format=png|svg.
func (h *Handler) ChartImage(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "png"
	}
	contentType, err := render.ContentType(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, "format must be png or svg")
		return
	}

	id := dashboard.ChartID(r.PathValue("chart"))
	fig, err := h.Engine.Build(id, h.selectionFromQuery(r))
	if err != nil {
		writeBuildError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := render.Figure(&buf, fig, format); err != nil {
		if errors.Is(err, render.ErrEmptyFigure) {
			writeError(w, http.StatusUnprocessableEntity, "no data for the current selection")
			return
		}
		slog.Error("chart render failed", "chart", string(id), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", contentType)
	if h.Debug {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}
