package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day text form used by the billing API and the stores.
const DateLayout = "2006-01-02"

const (
	StatusSuccess OutcomeStatus = "success"
	StatusError   OutcomeStatus = "error"

	SourceReal      DataSource = "real"
	SourceSynthetic DataSource = "synthetic"
)

type (
	OutcomeStatus string
	DataSource    string

	// Date is a calendar day, always held at UTC midnight.
	Date struct {
		time.Time
	}

	// CostRecord is one day of spend for one service. (Date, Service) is the natural key.
	CostRecord struct {
		Date    Date            `json:"date"`
		Service string          `json:"service"`
		Cost    decimal.Decimal `json:"cost"`
	}

	// Window is the half-open range [Start, End).
	Window struct {
		Start Date `json:"start"`
		End   Date `json:"end"`
	}

	// Outcome is returned once per ingestion run and never persisted.
	Outcome struct {
		Status         OutcomeStatus `json:"status"`
		RecordsWritten int           `json:"records_written"`
		Source         DataSource    `json:"source,omitempty"`
		Detail         string        `json:"detail"`
	}

	// Ticket is a support request captured by the intake endpoint.
	Ticket struct {
		ID        uuid.UUID `json:"ticket_id"`
		Message   string    `json:"message"`
		Timestamp time.Time `json:"timestamp"`
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyService  = errors.New("empty service")
	ErrInvalidCost   = errors.New("invalid cost")
	ErrInvalidWindow = errors.New("invalid window")
	ErrMessageLength = errors.New("message too long")
	ErrInvalidDays   = errors.New("invalid day count")
	ErrEmptyCatalog  = errors.New("empty service catalog")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// String returns the YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days later (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON overrides the promoted time.Time encoding so dates stay "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	return d.UnmarshalText([]byte(strings.Trim(string(b), `"`)))
}

// Key returns the composite store key, e.g. "2024-01-02#Amazon S3".
func (r CostRecord) Key() string {
	return r.Date.String() + "#" + r.Service
}

// Validate checks the fixed schema. Negative costs are credits or refunds and pass.
func (r CostRecord) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Service) == "" {
		return ErrEmptyService
	}
	return nil
}

// Yesterday returns the one-day window ending at the start of today.
func Yesterday(now time.Time) Window {
	today := DateOf(now)
	return Window{Start: today.AddDays(-1), End: today}
}

// LastDays returns the window covering the last n calendar days including today.
func LastDays(now time.Time, n int) Window {
	today := DateOf(now)
	return Window{Start: today.AddDays(-(n - 1)), End: today.AddDays(1)}
}

func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: zero bound", ErrInvalidWindow)
	}
	if !w.Start.Before(w.End) {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

// Days lists every calendar day in the window, oldest first.
func (w Window) Days() []Date {
	var days []Date
	for d := w.Start; d.Before(w.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

func (w Window) String() string {
	return "[" + w.Start.String() + ", " + w.End.String() + ")"
}

// StatusCode maps the outcome onto the HTTP-like code the invoking framework expects.
func (o Outcome) StatusCode() int {
	if o.Status == StatusSuccess {
		return 200
	}
	return 500
}

func (o Outcome) Failed() bool {
	return o.Status != StatusSuccess
}
