package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"worktimer/internal/capture"
	"worktimer/internal/models"
	"worktimer/internal/tracker"
	"worktimer/pkg/utils"
)

// Controller is the running state machine as seen by the API.
type Controller interface {
	Snapshot() *tracker.Snapshot
	RequestBind(slot models.SlotKey) error
	CancelBind(slot models.SlotKey) error
	ResetTimer() error
	ResumePreviousTime() error
}

// HistoryReporter builds history reports
type HistoryReporter interface {
	GenerateReport(periodType string) (*models.Report, error)
}

type Handler struct {
	tracker  Controller
	reporter HistoryReporter
	logger   zerolog.Logger
}

// NewHandler wires the API. reporter may be nil when history is disabled.
func NewHandler(ctrl Controller, reporter HistoryReporter, logger zerolog.Logger) *Handler {
	return &Handler{
		tracker:  ctrl,
		reporter: reporter,
		logger:   logger.With().Str("component", "web").Logger(),
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/history", h.handleHistory)

	mux.HandleFunc("/api/bind", h.handleBind)
	mux.HandleFunc("/api/cancel", h.handleCancel)
	mux.HandleFunc("/api/reset", h.command(func() error { return h.tracker.ResetTimer() }))
	mux.HandleFunc("/api/resume", h.command(func() error { return h.tracker.ResumePreviousTime() }))

	mux.HandleFunc("/health", h.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/", h.handleIndex)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := h.tracker.Snapshot()
	if snap == nil {
		http.Error(w, "Tracker not ready", http.StatusServiceUnavailable)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		h.respondStatusHTML(w, snap)
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

func (h *Handler) respondStatusHTML(w http.ResponseWriter, snap *tracker.Snapshot) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var b strings.Builder
	fmt.Fprintf(&b, `<div class="clock %s">%s</div><div class="slots">`, snap.State, snap.Elapsed)
	for _, slot := range snap.Slots {
		name := slot.DisplayName
		if slot.Listening {
			name = "waiting for next window..."
		}
		fmt.Fprintf(&b, `<div class="slot"><span class="slot-key">%s</span><span class="slot-name">%s</span></div>`,
			slot.Name, html.EscapeString(name))
	}
	b.WriteString(`</div>`)

	w.Write([]byte(b.String()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.reporter == nil {
		http.Error(w, "History is disabled", http.StatusServiceUnavailable)
		return
	}

	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "day"
	}
	switch periodType {
	case "day", "today", "week", "month":
	default:
		http.Error(w, fmt.Sprintf("invalid period type: %s", periodType), http.StatusBadRequest)
		return
	}

	report, err := h.reporter.GenerateReport(periodType)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate report: %v", err), http.StatusInternalServerError)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<div class="total">%s in %d sessions</div>`,
			utils.FormatRoundedUnit(report.TotalSeconds), report.SpanCount)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) handleBind(w http.ResponseWriter, r *http.Request) {
	h.slotCommand(w, r, h.tracker.RequestBind)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.slotCommand(w, r, h.tracker.CancelBind)
}

func (h *Handler) slotCommand(w http.ResponseWriter, r *http.Request, fn func(models.SlotKey) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	slot, err := models.ParseSlotKey(r.URL.Query().Get("slot"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.respondCommand(w, fn(slot))
}

func (h *Handler) command(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.respondCommand(w, fn())
	}
}

func (h *Handler) respondCommand(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	case errors.Is(err, capture.ErrUnknownSlot):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, tracker.ErrStopped):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		h.logger.Error().Err(err).Msg("Command failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if snap := h.tracker.Snapshot(); snap == nil || !snap.Running {
		status = "stopped"
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Work Timer</title>
    <script src="https://unpkg.com/htmx.org@1.9.10"></script>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: #f5f5f5;
            padding: 20px;
            color: #333;
        }
        .clock {
            font-size: 3rem;
            font-weight: 600;
            padding: 12px 20px;
            border-radius: 8px;
            display: inline-block;
        }
        .clock.active { background: #B0FFFF; }
        .clock.inactive { background: #F07070; }
        .slot { padding: 8px 0; border-bottom: 1px solid #eee; }
        .slot-key { font-weight: 600; margin-right: 12px; }
        .controls button { margin: 12px 6px 12px 0; }
        .total { margin-top: 20px; font-weight: 600; }
    </style>
</head>
<body>
    <div hx-get="/api/status" hx-trigger="load, every 1s" hx-swap="innerHTML">Loading...</div>
    <div class="controls">
        <button hx-post="/api/bind?slot=1" hx-swap="none">Bind 1</button>
        <button hx-post="/api/bind?slot=2" hx-swap="none">Bind 2</button>
        <button hx-post="/api/bind?slot=3" hx-swap="none">Bind 3</button>
        <button hx-post="/api/reset" hx-swap="none">Reset</button>
        <button hx-post="/api/resume" hx-swap="none">Resume previous time</button>
    </div>
    <div hx-get="/api/history?period=today" hx-trigger="load, every 30s" hx-swap="innerHTML"></div>
</body>
</html>`

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
