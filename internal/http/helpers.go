package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"costboard/internal/core"
)

type (
	dailyTotalsResponse struct {
		DailyTotals []core.DailyTotal `json:"daily_totals"`
		Skipped     int               `json:"skipped"`
	}

	pivotResponse struct {
		core.ServicePivot
		Skipped int `json:"skipped"`
	}

	ticketRequest struct {
		Message string `json:"message"`
	}

	ticketResponse struct {
		TicketID string `json:"ticket_id"`
		Message  string `json:"message"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// allowMethod answers 405 with an Allow header when r.Method is not method.
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method || (method == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// sanitizeInput drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
