package report

import (
	"bytes"
	"strings"
	"testing"

	"costboard/internal/core"
)

func TestWriteText(t *testing.T) {
	table := core.RawTable{Records: []core.CostRecord{
		rec(1, 2, "B", "9"),
		rec(1, 2, "A", "5"),
		rec(1, 1, "A", "3"),
	}, Skipped: 1}
	d := core.Dashboard{Raw: table, DailyTotals: DailyTotals(table), Pivot: ServicePivot(table)}

	var buf bytes.Buffer
	if err := WriteText(&buf, d); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Total Daily Cost", "Daily Cost per Service", "Raw Data", "$14.00", "$17.00", "$0.00", "1 malformed record(s) skipped"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestWriteTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, core.Dashboard{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No cost data") {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestRecordsTableKeepsOrder(t *testing.T) {
	out := RecordsTable([]core.CostRecord{rec(1, 2, "Zeta", "1"), rec(1, 1, "Alpha", "2")})
	if strings.Index(out, "Zeta") > strings.Index(out, "Alpha") {
		t.Fatalf("rows reordered:\n%s", out)
	}
}
