package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"costboard/internal/core"
	"costboard/internal/log"
)

const (
	viewTimeout   = 10 * time.Second
	ticketTimeout = 5 * time.Second
	maxTicketBody = 16 << 10
	readyTimeout  = 3 * time.Second
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks templates and the storage backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"templates": "ok", "backend": "ok"}
	if s.templates == nil {
		checks["templates"] = "not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["backend"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		}
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (core.Dashboard, bool) {
	if !allowMethod(w, r, http.MethodGet) {
		return core.Dashboard{}, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), viewTimeout)
	defer cancel()

	d, err := s.dashboard.Snapshot(ctx)
	if err != nil {
		log.FromContext(ctx).LogError(ctx, "Dashboard load failed", err, "snapshot")
		writeError(w, http.StatusInternalServerError, "failed to load cost data")
		return core.Dashboard{}, false
	}
	return d, true
}

func (s *Server) handleDailyTotals(w http.ResponseWriter, r *http.Request) {
	d, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dailyTotalsResponse{DailyTotals: d.DailyTotals, Skipped: d.Raw.Skipped})
}

func (s *Server) handlePivot(w http.ResponseWriter, r *http.Request) {
	d, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pivotResponse{ServicePivot: d.Pivot, Skipped: d.Raw.Skipped})
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	d, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, d.Raw)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	d, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", newDashboardView(d, s.now())); err != nil {
		log.FromContext(r.Context()).LogError(r.Context(), "Dashboard template execution failed", err, "render")
	}
}

// handleCreateTicket accepts {"message": "..."}. An empty body or a missing
// message gets the default text.
func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), ticketTimeout)
	defer cancel()

	var req ticketRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTicketBody)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t, err := s.tickets.Submit(ctx, sanitizeInput(req.Message))
	if err != nil {
		if errors.Is(err, core.ErrMessageLength) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.FromContext(ctx).LogError(ctx, "Ticket submission failed", err, "submit_ticket")
		writeError(w, http.StatusInternalServerError, "failed to store ticket")
		return
	}
	writeJSON(w, http.StatusOK, ticketResponse{TicketID: t.ID.String(), Message: t.Message})
}
