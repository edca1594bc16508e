package memory

import (
	"context"
	"sort"
	"sync"

	"costboard/internal/sheets"
)

var _ sheets.GridWriter = (*Writer)(nil)

// Writer keeps exported grids in memory, for dry runs and tests.
type Writer struct {
	mu    sync.Mutex
	grids map[string][][]any
}

func New() *Writer {
	return &Writer{grids: map[string][][]any{}}
}

func (w *Writer) ReplaceGrid(_ context.Context, tab string, rows [][]any) error {
	cp := make([][]any, len(rows))
	for i, r := range rows {
		cp[i] = append([]any(nil), r...)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.grids[tab] = cp
	return nil
}

// Grid returns the rows last written to tab.
func (w *Writer) Grid(tab string) [][]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.grids[tab]
}

// Tabs lists written tabs in name order.
func (w *Writer) Tabs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.grids))
	for k := range w.grids {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
