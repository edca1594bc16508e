package report

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"costboard/internal/core"
)

// SortRaw orders records in place: newest date first, then highest cost,
// then service name ascending.
func SortRaw(records []core.CostRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date)
		}
		if c := a.Cost.Cmp(b.Cost); c != 0 {
			return c > 0
		}
		return a.Service < b.Service
	})
}

// DailyTotals sums every service per date, dates ascending.
func DailyTotals(table core.RawTable) []core.DailyTotal {
	sums := map[core.Date]decimal.Decimal{}
	for _, r := range table.Records {
		sums[r.Date] = sums[r.Date].Add(r.Cost)
	}

	totals := make([]core.DailyTotal, 0, len(sums))
	for d, total := range sums {
		totals = append(totals, core.DailyTotal{Date: d, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date.Before(totals[j].Date) })
	return totals
}

// ServicePivot builds the dense date×service matrix. Pairs with no record are zero.
func ServicePivot(table core.RawTable) core.ServicePivot {
	dateSet := map[core.Date]struct{}{}
	serviceSet := map[string]struct{}{}
	for _, r := range table.Records {
		dateSet[r.Date] = struct{}{}
		serviceSet[r.Service] = struct{}{}
	}

	p := core.ServicePivot{
		Dates:    make([]core.Date, 0, len(dateSet)),
		Services: make([]string, 0, len(serviceSet)),
		Cells:    make(map[core.Date]map[string]decimal.Decimal, len(dateSet)),
	}
	for d := range dateSet {
		p.Dates = append(p.Dates, d)
	}
	for s := range serviceSet {
		p.Services = append(p.Services, s)
	}
	sort.Slice(p.Dates, func(i, j int) bool { return p.Dates[i].Before(p.Dates[j]) })
	sort.Strings(p.Services)

	for _, d := range p.Dates {
		row := make(map[string]decimal.Decimal, len(p.Services))
		for _, s := range p.Services {
			row[s] = decimal.Zero
		}
		p.Cells[d] = row
	}
	// Stores hold one record per pair; adding keeps the sum exact even if a scan repeats one.
	for _, r := range table.Records {
		p.Cells[r.Date][r.Service] = p.Cells[r.Date][r.Service].Add(r.Cost)
	}
	return p
}

// CheckConsistency verifies that every pivot row adds up to its daily total.
func CheckConsistency(totals []core.DailyTotal, pivot core.ServicePivot) error {
	if len(totals) != len(pivot.Dates) {
		return fmt.Errorf("daily totals cover %d dates, pivot covers %d", len(totals), len(pivot.Dates))
	}
	for _, t := range totals {
		if sum := pivot.RowSum(t.Date); !sum.Equal(t.Total) {
			return fmt.Errorf("date %s: pivot sums to %s, daily total is %s", t.Date, sum, t.Total)
		}
	}
	return nil
}
