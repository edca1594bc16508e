// Package sheets exports dashboard views as plain grids, one tab per view.
package sheets

import (
	"context"
	"fmt"

	"costboard/internal/core"
)

// Tab suffixes appended to the configured base name.
const (
	TabRaw    = "Raw"
	TabTotals = "Daily Totals"
	TabPivot  = "By Service"
)

type Exporter struct {
	source SnapshotSource
	writer GridWriter
	base   string
}

func NewExporter(source SnapshotSource, writer GridWriter, baseName string) *Exporter {
	if baseName == "" {
		baseName = "Costs"
	}
	return &Exporter{source: source, writer: writer, base: baseName}
}

// TabName returns the full tab title for a suffix, e.g. "Costs Raw".
func (e *Exporter) TabName(suffix string) string {
	return e.base + " " + suffix
}

// ExportResult reports how many data rows went to each tab.
type ExportResult struct {
	RawRows   int
	TotalRows int
	PivotRows int
}

// Export takes one snapshot and writes the three tabs.
func (e *Exporter) Export(ctx context.Context) (ExportResult, error) {
	d, err := e.source.Snapshot(ctx)
	if err != nil {
		return ExportResult{}, fmt.Errorf("load snapshot: %w", err)
	}

	grids := []struct {
		tab  string
		rows [][]any
	}{
		{e.TabName(TabRaw), RawGrid(d.Raw)},
		{e.TabName(TabTotals), TotalsGrid(d.DailyTotals)},
		{e.TabName(TabPivot), PivotGrid(d.Pivot)},
	}
	for _, g := range grids {
		if err := e.writer.ReplaceGrid(ctx, g.tab, g.rows); err != nil {
			return ExportResult{}, fmt.Errorf("write %s: %w", g.tab, err)
		}
	}

	return ExportResult{
		RawRows:   len(d.Raw.Records),
		TotalRows: len(d.DailyTotals),
		PivotRows: len(d.Pivot.Dates),
	}, nil
}

// RawGrid renders the raw table with a header row. Costs stay exact strings.
func RawGrid(t core.RawTable) [][]any {
	rows := make([][]any, 0, len(t.Records)+1)
	rows = append(rows, []any{"Date", "Service", "Cost"})
	for _, r := range t.Records {
		rows = append(rows, []any{r.Date.String(), r.Service, r.Cost.String()})
	}
	return rows
}

func TotalsGrid(totals []core.DailyTotal) [][]any {
	rows := make([][]any, 0, len(totals)+1)
	rows = append(rows, []any{"Date", "Total"})
	for _, t := range totals {
		rows = append(rows, []any{t.Date.String(), t.Total.String()})
	}
	return rows
}

// PivotGrid renders one row per date and one column per service.
func PivotGrid(p core.ServicePivot) [][]any {
	header := make([]any, 0, len(p.Services)+1)
	header = append(header, "Date")
	for _, s := range p.Services {
		header = append(header, s)
	}

	rows := make([][]any, 0, len(p.Dates)+1)
	rows = append(rows, header)
	for _, d := range p.Dates {
		row := make([]any, 0, len(p.Services)+1)
		row = append(row, d.String())
		for _, s := range p.Services {
			row = append(row, p.Cell(d, s).String())
		}
		rows = append(rows, row)
	}
	return rows
}
