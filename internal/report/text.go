package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"costboard/internal/core"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numStyle    = cellStyle.Align(lipgloss.Right)
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	noteStyle   = lipgloss.NewStyle().Faint(true)
)

// newTable right-aligns the columns listed in numeric.
func newTable(headers []string, rows [][]string, numeric ...int) *table.Table {
	isNum := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		isNum[c] = true
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case isNum[col]:
				return numStyle
			default:
				return cellStyle
			}
		})
}

// RecordsTable renders records in the order given.
func RecordsTable(records []core.CostRecord) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Date.String(), r.Service, core.FormatUSD(r.Cost)})
	}
	return newTable([]string{"Date", "Service", "Cost"}, rows, 2).String()
}

// TotalsTable renders one row per day plus a grand total.
func TotalsTable(totals []core.DailyTotal) string {
	rows := make([][]string, 0, len(totals)+1)
	grand := core.DailyTotal{}
	for _, t := range totals {
		rows = append(rows, []string{t.Date.String(), core.FormatUSD(t.Total)})
		grand.Total = grand.Total.Add(t.Total)
	}
	rows = append(rows, []string{"Total", core.FormatUSD(grand.Total)})
	return newTable([]string{"Date", "Total"}, rows, 1).String()
}

// PivotTable renders dates down and services across.
func PivotTable(p core.ServicePivot) string {
	headers := append([]string{"Date"}, p.Services...)
	numeric := make([]int, 0, len(p.Services))
	for i := range p.Services {
		numeric = append(numeric, i+1)
	}
	rows := make([][]string, 0, len(p.Dates))
	for _, d := range p.Dates {
		row := []string{d.String()}
		for _, s := range p.Services {
			row = append(row, core.FormatUSD(p.Cell(d, s)))
		}
		rows = append(rows, row)
	}
	return newTable(headers, rows, numeric...).String()
}

// WriteText prints the daily totals, the per-service pivot and the raw table.
func WriteText(w io.Writer, d core.Dashboard) error {
	if len(d.Raw.Records) == 0 {
		_, err := fmt.Fprintln(w, noteStyle.Render("No cost data. Run an ingestion first."))
		return err
	}

	sections := []struct {
		title string
		body  string
	}{
		{"Total Daily Cost", TotalsTable(d.DailyTotals)},
		{"Daily Cost per Service", PivotTable(d.Pivot)},
		{"Raw Data", RecordsTable(d.Raw.Records)},
	}
	for _, s := range sections {
		if _, err := fmt.Fprintf(w, "%s\n%s\n\n", titleStyle.Render(s.title), s.body); err != nil {
			return err
		}
	}
	if d.Raw.Skipped > 0 {
		if _, err := fmt.Fprintln(w, noteStyle.Render(fmt.Sprintf("%d malformed record(s) skipped", d.Raw.Skipped))); err != nil {
			return err
		}
	}
	return nil
}
