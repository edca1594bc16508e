package ingest

import (
	"context"
	"encoding/json"

	"costboard/internal/core"
)

// Response is the body returned at the invocation boundary. Exactly one of
// Message and Error is set.
type Response struct {
	Message        string             `json:"message,omitempty"`
	Error          string             `json:"error,omitempty"`
	Status         core.OutcomeStatus `json:"status"`
	RecordsWritten int                `json:"records_written"`
	Source         core.DataSource    `json:"source,omitempty"`
}

// Runner is satisfied by *Coordinator.
type Runner interface {
	Run(ctx context.Context) core.Outcome
}

// Handler adapts a run to a status code and JSON body.
type Handler struct {
	runner Runner
}

func NewHandler(r Runner) *Handler {
	return &Handler{runner: r}
}

func (h *Handler) Invoke(ctx context.Context) (int, []byte) {
	return Render(h.runner.Run(ctx))
}

// Render converts an outcome into its status code and body.
func Render(o core.Outcome) (int, []byte) {
	resp := Response{Status: o.Status, RecordsWritten: o.RecordsWritten, Source: o.Source}
	if o.Failed() {
		resp.Error = o.Detail
	} else {
		resp.Message = o.Detail
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return 500, []byte(`{"error":"encode response"}`)
	}
	return o.StatusCode(), body
}
