package core

import "github.com/shopspring/decimal"

// DailyTotal is the spend of all services on one day.
type DailyTotal struct {
	Date  Date            `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// ServicePivot is a dense date×service matrix. Every (date, service) cell is present.
type ServicePivot struct {
	Dates    []Date                              `json:"dates"`
	Services []string                            `json:"services"`
	Cells    map[Date]map[string]decimal.Decimal `json:"cells"`
}

// Cell returns the cost for (d, service), zero when the pair is absent.
func (p ServicePivot) Cell(d Date, service string) decimal.Decimal {
	if row, ok := p.Cells[d]; ok {
		if v, ok := row[service]; ok {
			return v
		}
	}
	return decimal.Zero
}

// RowSum adds up every service for one date.
func (p ServicePivot) RowSum(d Date) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range p.Cells[d] {
		sum = sum.Add(v)
	}
	return sum
}

// RawTable is the full scan of the record store, sorted for display.
type RawTable struct {
	Records []CostRecord `json:"records"`
	Skipped int          `json:"skipped"`
}

// Dashboard bundles every view derived from one load.
type Dashboard struct {
	Raw         RawTable     `json:"raw"`
	DailyTotals []DailyTotal `json:"daily_totals"`
	Pivot       ServicePivot `json:"pivot"`
}
