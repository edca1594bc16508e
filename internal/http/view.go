package http

import (
	"html/template"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"costboard/internal/core"
)

// Chart geometry in SVG user units.
const (
	chartWidth  = 720
	chartHeight = 240
	padLeft     = 64
	padRight    = 16
	padTop      = 16
	padBottom   = 32
	plotWidth   = chartWidth - padLeft - padRight
	plotHeight  = chartHeight - padTop - padBottom
	gridSteps   = 4
	maxXLabels  = 7
)

var palette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2",
	"#59a14f", "#edc948", "#b07aa1", "#ff9da7",
	"#9c755f", "#bab0ac",
}

var templateFuncs = template.FuncMap{"coord": coord}

// coord renders an SVG coordinate with one decimal.
func coord(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}

type (
	dashboardView struct {
		GeneratedAt  string
		RecordCount  int
		Skipped      int
		DayCount     int
		ServiceCount int
		GrandTotal   string
		Line         lineChart
		Bars         barChart
		Legend       []legendEntry
		Rows         []rawRowView
	}

	chartFrame struct {
		Width   int
		Height  int
		Left    float64
		Right   float64
		Bottom  float64
		Grid    []gridLine
		XLabels []axisLabel
	}

	gridLine struct {
		Y     float64
		Label string
	}

	axisLabel struct {
		X    float64
		Text string
	}

	lineChart struct {
		Frame  chartFrame
		Points string
		Dots   []point
	}

	point struct {
		X, Y  float64
		Title string
	}

	barChart struct {
		Frame chartFrame
		Bars  []barSegment
	}

	barSegment struct {
		X, Y, W, H float64
		Fill       string
		Title      string
	}

	legendEntry struct {
		Service string
		Fill    string
	}

	rawRowView struct {
		Date    string
		Service string
		Cost    string
	}
)

func newDashboardView(d core.Dashboard, now time.Time) dashboardView {
	grand := decimal.Zero
	for _, t := range d.DailyTotals {
		grand = grand.Add(t.Total)
	}

	v := dashboardView{
		GeneratedAt:  now.UTC().Format("2006-01-02 15:04 MST"),
		RecordCount:  len(d.Raw.Records),
		Skipped:      d.Raw.Skipped,
		DayCount:     len(d.DailyTotals),
		ServiceCount: len(d.Pivot.Services),
		GrandTotal:   core.FormatUSD(grand),
		Line:         buildLineChart(d.DailyTotals),
		Bars:         buildBarChart(d.Pivot),
		Rows:         make([]rawRowView, 0, len(d.Raw.Records)),
	}
	for i, s := range d.Pivot.Services {
		v.Legend = append(v.Legend, legendEntry{Service: s, Fill: palette[i%len(palette)]})
	}
	for _, r := range d.Raw.Records {
		v.Rows = append(v.Rows, rawRowView{Date: r.Date.String(), Service: r.Service, Cost: core.FormatUSD(r.Cost)})
	}
	return v
}

// scale maps a value range onto the plot height. The range always includes zero.
type scale struct {
	lo, hi decimal.Decimal
}

func newScale(values []decimal.Decimal) scale {
	s := scale{lo: decimal.Zero, hi: decimal.Zero}
	for _, v := range values {
		s.lo = decimal.Min(s.lo, v)
		s.hi = decimal.Max(s.hi, v)
	}
	if s.hi.Equal(s.lo) {
		s.hi = s.lo.Add(decimal.NewFromInt(1))
	}
	return s
}

func (s scale) y(v decimal.Decimal) float64 {
	frac := core.Float(v.Sub(s.lo).Div(s.hi.Sub(s.lo)))
	return padTop + plotHeight*(1-frac)
}

func (s scale) grid() []gridLine {
	span := s.hi.Sub(s.lo)
	lines := make([]gridLine, 0, gridSteps+1)
	for k := 0; k <= gridSteps; k++ {
		v := s.lo.Add(span.Mul(decimal.NewFromInt(int64(k))).Div(decimal.NewFromInt(gridSteps)))
		lines = append(lines, gridLine{Y: s.y(v), Label: core.FormatUSD(v)})
	}
	return lines
}

func newFrame(sc scale, dates []core.Date, xOf func(int) float64) chartFrame {
	f := chartFrame{
		Width:  chartWidth,
		Height: chartHeight,
		Left:   padLeft,
		Right:  chartWidth - padRight,
		Bottom: padTop + plotHeight,
		Grid:   sc.grid(),
	}
	step := (len(dates) + maxXLabels - 1) / maxXLabels
	if step < 1 {
		step = 1
	}
	for i := 0; i < len(dates); i += step {
		f.XLabels = append(f.XLabels, axisLabel{X: xOf(i), Text: dates[i].Format("Jan 2")})
	}
	return f
}

// buildLineChart plots the total daily cost, dates ascending.
func buildLineChart(totals []core.DailyTotal) lineChart {
	values := make([]decimal.Decimal, len(totals))
	dates := make([]core.Date, len(totals))
	for i, t := range totals {
		values[i], dates[i] = t.Total, t.Date
	}
	sc := newScale(values)

	xOf := func(i int) float64 {
		if len(totals) < 2 {
			return padLeft + plotWidth/2
		}
		return padLeft + plotWidth*float64(i)/float64(len(totals)-1)
	}

	c := lineChart{Frame: newFrame(sc, dates, xOf)}
	for i, t := range totals {
		p := point{X: xOf(i), Y: sc.y(t.Total), Title: t.Date.String() + ": " + core.FormatUSD(t.Total)}
		c.Dots = append(c.Dots, p)
		if i > 0 {
			c.Points += " "
		}
		c.Points += coord(p.X) + "," + coord(p.Y)
	}
	return c
}

// buildBarChart stacks each service's cost per date. Credits are not drawn.
func buildBarChart(p core.ServicePivot) barChart {
	stacks := make([]decimal.Decimal, len(p.Dates))
	for i, d := range p.Dates {
		sum := decimal.Zero
		for _, s := range p.Services {
			if v := p.Cell(d, s); v.IsPositive() {
				sum = sum.Add(v)
			}
		}
		stacks[i] = sum
	}
	sc := newScale(stacks)

	slot := float64(plotWidth)
	if len(p.Dates) > 0 {
		slot /= float64(len(p.Dates))
	}
	barW := slot * 0.7
	xOf := func(i int) float64 { return padLeft + slot*float64(i) + slot/2 }

	c := barChart{Frame: newFrame(sc, p.Dates, xOf)}
	for i, d := range p.Dates {
		base := decimal.Zero
		for j, s := range p.Services {
			v := p.Cell(d, s)
			if !v.IsPositive() {
				continue
			}
			top := base.Add(v)
			yTop, yBase := sc.y(top), sc.y(base)
			c.Bars = append(c.Bars, barSegment{
				X:     xOf(i) - barW/2,
				Y:     yTop,
				W:     barW,
				H:     yBase - yTop,
				Fill:  palette[j%len(palette)],
				Title: d.String() + " " + s + ": " + core.FormatUSD(v),
			})
			base = top
		}
	}
	return c
}
