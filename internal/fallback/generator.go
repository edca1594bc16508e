// Package fallback synthesizes plausible cost records when the billing API
// has nothing for the requested window, so the dashboard is never empty.
package fallback

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"costboard/internal/core"
)

// Synthetic costs are drawn in cents from this inclusive range.
const (
	MinCents = 10
	MaxCents = 500
)

type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

type Option func(*Generator)

// WithRand replaces the random source, e.g. a seeded PCG in tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rng: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns one record per (day, service) for the last days calendar
// days ending today, oldest day first.
func (g *Generator) Generate(days int, services []string) ([]core.CostRecord, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidDays, days)
	}
	catalog := dedupe(services)
	if len(catalog) == 0 {
		return nil, core.ErrEmptyCatalog
	}

	window := core.LastDays(g.now().UTC(), days)
	records := make([]core.CostRecord, 0, days*len(catalog))
	for _, d := range window.Days() {
		for _, svc := range catalog {
			cents := MinCents + g.rng.IntN(MaxCents-MinCents+1)
			records = append(records, core.CostRecord{
				Date:    d,
				Service: svc,
				Cost:    decimal.New(int64(cents), -2),
			})
		}
	}
	return records, nil
}

// dedupe trims names, drops blanks and keeps the first occurrence of each.
func dedupe(services []string) []string {
	seen := make(map[string]struct{}, len(services))
	out := make([]string, 0, len(services))
	for _, s := range services {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
