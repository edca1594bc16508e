// Package billing reads daily per-service spend from AWS Cost Explorer.
package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/shopspring/decimal"

	"costboard/internal/core"
	"costboard/internal/log"
)

// DefaultMetric is the Cost Explorer metric read when none is configured.
const DefaultMetric = "UnblendedCost"

// FetchKind tags a fetch result so callers never infer emptiness themselves.
type FetchKind int

const (
	FetchEmpty FetchKind = iota
	FetchReal
)

func (k FetchKind) String() string {
	switch k {
	case FetchEmpty:
		return "empty"
	case FetchReal:
		return "real"
	}
	return fmt.Sprintf("FetchKind(%d)", int(k))
}

// FetchResult is the outcome of one successful fetch.
type FetchResult struct {
	Kind    FetchKind
	Records []core.CostRecord
}

// OpParse is the UpstreamError op for a response that could not be read.
const OpParse = "ParseCostAndUsage"

// CostExplorerAPI is the one Cost Explorer call the fetcher needs.
type CostExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, in *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

type Fetcher struct {
	client CostExplorerAPI
	metric string
	now    func() time.Time
	logger *log.Logger
}

type Option func(*Fetcher)

// WithMetric selects the Cost Explorer metric, e.g. "BlendedCost".
func WithMetric(metric string) Option {
	return func(f *Fetcher) {
		if metric != "" {
			f.metric = metric
		}
	}
}

// WithClock overrides time.Now for window computation.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

func NewFetcher(client CostExplorerAPI, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: client,
		metric: DefaultMetric,
		now:    time.Now,
		logger: log.Default(log.ComponentBilling),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DefaultWindow is yesterday relative to the fetcher's clock, in UTC.
func (f *Fetcher) DefaultWindow() core.Window {
	return core.Yesterday(f.now().UTC())
}

// FetchRecent fetches the default window.
func (f *Fetcher) FetchRecent(ctx context.Context) (FetchResult, error) {
	return f.Fetch(ctx, f.DefaultWindow())
}

// Fetch pages through GetCostAndUsage for the window. Any API failure or
// malformed group is returned as a *core.UpstreamError and no partial result
// is kept. Kind is FetchEmpty only when every group parsed and none carried
// positive spend.
func (f *Fetcher) Fetch(ctx context.Context, w core.Window) (FetchResult, error) {
	if err := w.Validate(); err != nil {
		return FetchResult{}, err
	}

	in := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &types.DateInterval{
			Start: aws.String(w.Start.String()),
			End:   aws.String(w.End.String()),
		},
		Granularity: types.GranularityDaily,
		Metrics:     []string{f.metric},
		GroupBy: []types.GroupDefinition{
			{
				Type: types.GroupDefinitionTypeDimension,
				Key:  aws.String("SERVICE"),
			},
		},
	}

	var result FetchResult
	pages := 0
	for {
		out, err := f.client.GetCostAndUsage(ctx, in)
		if err != nil {
			return FetchResult{}, &core.UpstreamError{Op: "GetCostAndUsage", Err: err}
		}
		pages++
		for _, byTime := range out.ResultsByTime {
			if err := f.collect(byTime, &result); err != nil {
				f.logger.WarnContext(ctx, "Malformed Cost Explorer response",
					log.NewFields().WithWindow(w).WithOperation(log.OpFetch).WithError(err).ToSlice()...)
				return FetchResult{}, &core.UpstreamError{Op: OpParse, Err: err}
			}
		}
		if out.NextPageToken == nil || *out.NextPageToken == "" {
			break
		}
		in.NextPageToken = out.NextPageToken
	}

	if len(result.Records) > 0 {
		result.Kind = FetchReal
	}
	f.logger.InfoContext(ctx, "Cost Explorer fetch completed",
		append(log.NewFields().WithWindow(w).WithOperation(log.OpFetch).ToSlice(),
			"pages", pages,
			log.FieldRecords, len(result.Records),
			"kind", result.Kind.String())...)
	return result, nil
}

func (f *Fetcher) collect(byTime types.ResultByTime, result *FetchResult) error {
	if byTime.TimePeriod == nil || byTime.TimePeriod.Start == nil {
		if len(byTime.Groups) == 0 {
			return nil
		}
		return fmt.Errorf("%d groups without a time period", len(byTime.Groups))
	}
	date, err := core.ParseDate(*byTime.TimePeriod.Start)
	if err != nil {
		return fmt.Errorf("time period start %q: %w", *byTime.TimePeriod.Start, err)
	}

	for _, g := range byTime.Groups {
		rec, ok, err := f.toRecord(date, g)
		if err != nil {
			return fmt.Errorf("%s: %w", date, err)
		}
		if ok {
			result.Records = append(result.Records, rec)
		}
	}
	return nil
}

// toRecord returns ok=false for groups that are well formed but carry no spend.
func (f *Fetcher) toRecord(date core.Date, g types.Group) (core.CostRecord, bool, error) {
	if len(g.Keys) == 0 || strings.TrimSpace(g.Keys[0]) == "" {
		return core.CostRecord{}, false, fmt.Errorf("group has no service key")
	}
	service := g.Keys[0]

	m, ok := g.Metrics[f.metric]
	if !ok || m.Amount == nil {
		return core.CostRecord{}, false, fmt.Errorf("service %q has no %s amount", service, f.metric)
	}
	cost, err := decimal.NewFromString(*m.Amount)
	if err != nil {
		return core.CostRecord{}, false, fmt.Errorf("service %q amount %q: %w", service, *m.Amount, core.ErrInvalidCost)
	}
	if !cost.IsPositive() {
		return core.CostRecord{}, false, nil
	}
	return core.CostRecord{Date: date, Service: service, Cost: cost}, true, nil
}
