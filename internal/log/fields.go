package log

import (
	"sort"

	"costboard/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldWindowStart    = "window_start"
	FieldWindowEnd      = "window_end"
	FieldRecords        = "records"
	FieldRecordsWritten = "records_written"
	FieldSource         = "source"
	FieldStatus         = "status"
	FieldSkipped        = "skipped"
	FieldBatchOffset    = "batch_offset"
	FieldBatchSize      = "batch_size"
	FieldTrigger        = "trigger"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentBilling   = "billing"
	ComponentFallback  = "fallback"
	ComponentIngest    = "ingest"
	ComponentReport    = "report"
	ComponentTickets   = "tickets"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
	ComponentTemplate  = "template"
)

// Operations defines standard operation names
const (
	OpFetch    = "fetch"
	OpGenerate = "generate"
	OpWrite    = "write"
	OpScan     = "scan"
	OpIngest   = "ingest"
	OpPublish  = "publish"
	OpExport   = "export"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithError adds the error text; a nil error adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithWindow(w core.Window) LogFields {
	f[FieldWindowStart] = w.Start.String()
	f[FieldWindowEnd] = w.End.String()
	return f
}

// WithOutcome adds the fields of an ingestion outcome.
func (f LogFields) WithOutcome(o core.Outcome) LogFields {
	f[FieldStatus] = string(o.Status)
	f[FieldRecordsWritten] = o.RecordsWritten
	if o.Source != "" {
		f[FieldSource] = string(o.Source)
	}
	return f
}

func (f LogFields) WithBatch(offset, size int) LogFields {
	f[FieldBatchOffset] = offset
	f[FieldBatchSize] = size
	return f
}

func (f LogFields) WithHTTPResponse(method, path string, statusCode int, durationMs int64) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	return f
}

// ToSlice converts LogFields to key/value pairs for slog, in key order.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
