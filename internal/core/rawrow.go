package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Attribute names shared by every record store.
const (
	AttrDate    = "date"
	AttrService = "service"
	AttrCost    = "cost"
)

// RawRow is an untyped row as it comes back from a store scan.
type RawRow map[string]string

// Key returns a best-effort identifier for log lines, empty if nothing identifies the row.
func (r RawRow) Key() string {
	d, s := r[AttrDate], r[AttrService]
	if d == "" && s == "" {
		return ""
	}
	return d + "#" + s
}

// ToRawRow renders a record with the shared attribute names.
func ToRawRow(rec CostRecord) RawRow {
	return RawRow{
		AttrDate:    rec.Date.String(),
		AttrService: rec.Service,
		AttrCost:    rec.Cost.String(),
	}
}

// ParseRawRow converts a scanned row into a CostRecord, or a *MalformedRecordError.
func ParseRawRow(row RawRow) (CostRecord, error) {
	rawDate, ok := row[AttrDate]
	if !ok || strings.TrimSpace(rawDate) == "" {
		return CostRecord{}, &MalformedRecordError{Row: row, Field: AttrDate, Reason: "is missing"}
	}
	date, err := ParseDate(rawDate)
	if err != nil {
		return CostRecord{}, &MalformedRecordError{Row: row, Field: AttrDate, Reason: "is not a calendar day"}
	}

	service := strings.TrimSpace(row[AttrService])
	if service == "" {
		return CostRecord{}, &MalformedRecordError{Row: row, Field: AttrService, Reason: "is missing"}
	}

	rawCost, ok := row[AttrCost]
	if !ok || strings.TrimSpace(rawCost) == "" {
		return CostRecord{}, &MalformedRecordError{Row: row, Field: AttrCost, Reason: "is missing"}
	}
	cost, err := decimal.NewFromString(strings.TrimSpace(rawCost))
	if err != nil {
		return CostRecord{}, &MalformedRecordError{Row: row, Field: AttrCost, Reason: "is not a decimal number"}
	}

	return CostRecord{Date: date, Service: service, Cost: cost}, nil
}
