package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/shopspring/decimal"

	"costboard/internal/billing"
	"costboard/internal/core"
	"costboard/internal/fallback"
	"costboard/internal/log"
	"costboard/internal/store/memory"
)

type fakeFetcher struct {
	res billing.FetchResult
	err error
}

func (f fakeFetcher) FetchRecent(context.Context) (billing.FetchResult, error) {
	return f.res, f.err
}

// flakyStore fails PutBatch for the listed call numbers (1-based).
type flakyStore struct {
	*memory.Store
	failOn map[int]bool
	calls  int
	sizes  []int
}

func (s *flakyStore) PutBatch(ctx context.Context, recs []core.CostRecord) error {
	s.calls++
	s.sizes = append(s.sizes, len(recs))
	if s.failOn[s.calls] {
		return errors.New("throttled")
	}
	return s.Store.PutBatch(ctx, recs)
}

type recordingPublisher struct {
	got []core.Outcome
	err error
}

func (p *recordingPublisher) PublishOutcome(_ context.Context, o core.Outcome) error {
	p.got = append(p.got, o)
	return p.err
}

func testGenerator() *fallback.Generator {
	return fallback.NewGenerator(
		fallback.WithRand(rand.New(rand.NewPCG(7, 7))),
		fallback.WithClock(func() time.Time { return time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC) }),
	)
}

func realRecords(n int) []core.CostRecord {
	services := []string{"Amazon S3", "AWS Lambda", "Amazon EC2", "Amazon SNS"}
	recs := make([]core.CostRecord, n)
	for i := range recs {
		recs[i] = core.CostRecord{Date: core.NewDate(2024, 1, 19), Service: services[i%len(services)], Cost: decimal.NewFromInt(int64(i + 1))}
	}
	return recs
}

func TestRunSyntheticWhenEmpty(t *testing.T) {
	st := memory.New()
	c := NewCoordinator(fakeFetcher{res: billing.FetchResult{Kind: billing.FetchEmpty}}, testGenerator(), st, DefaultConfig(), WithLogger(log.Discard()))

	out := c.Run(context.Background())
	want := DefaultFallbackDays * len(core.Catalog())
	if out.Status != core.StatusSuccess || out.Source != core.SourceSynthetic || out.RecordsWritten != want {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if st.Len() != want {
		t.Fatalf("expected %d stored rows, got %d", want, st.Len())
	}
	if out.Detail != "112 dummy items inserted" {
		t.Fatalf("unexpected detail %q", out.Detail)
	}
}

func TestRunRealRecords(t *testing.T) {
	st := memory.New()
	recs := realRecords(3)
	c := NewCoordinator(fakeFetcher{res: billing.FetchResult{Kind: billing.FetchReal, Records: recs}}, testGenerator(), st, DefaultConfig(), WithLogger(log.Discard()))

	out := c.Run(context.Background())
	if out.Status != core.StatusSuccess || out.Source != core.SourceReal || out.RecordsWritten != 3 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if st.Len() != 3 {
		t.Fatalf("expected exactly the 3 fetched records, got %d", st.Len())
	}
	if out.Detail != "3 real AWS items inserted" {
		t.Fatalf("unexpected detail %q", out.Detail)
	}
}

func TestRunUpstreamErrorWritesNothing(t *testing.T) {
	st := memory.New()
	st.PutRaw("existing", core.RawRow{"date": "2024-01-01", "service": "Amazon S3", "cost": "1"})
	pub := &recordingPublisher{}
	fetchErr := &core.UpstreamError{Op: "GetCostAndUsage", Err: errors.New("AccessDenied")}
	c := NewCoordinator(fakeFetcher{err: fetchErr}, testGenerator(), st, DefaultConfig(), WithPublisher(pub), WithLogger(log.Discard()))

	out := c.Run(context.Background())
	if out.Status != core.StatusError || out.RecordsWritten != 0 || out.Source != "" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.StatusCode() != 500 {
		t.Fatalf("expected 500, got %d", out.StatusCode())
	}
	if st.Len() != 1 {
		t.Fatalf("store must be unchanged, has %d rows", st.Len())
	}
	if len(pub.got) != 1 || pub.got[0].Status != core.StatusError {
		t.Fatalf("expected error outcome to be published, got %+v", pub.got)
	}
}

// staticCostExplorer answers every GetCostAndUsage call with the same page.
type staticCostExplorer struct {
	out *costexplorer.GetCostAndUsageOutput
}

func (s staticCostExplorer) GetCostAndUsage(context.Context, *costexplorer.GetCostAndUsageInput, ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
	return s.out, nil
}

func TestRunMalformedBillingResponseWritesNothing(t *testing.T) {
	tests := []struct {
		name   string
		groups []types.Group
	}{
		{"comma decimal", []types.Group{{
			Keys:    []string{"Amazon EC2"},
			Metrics: map[string]types.MetricValue{billing.DefaultMetric: {Amount: aws.String("12,50"), Unit: aws.String("USD")}},
		}}},
		{"every group unparsable", []types.Group{
			{Keys: []string{"Amazon S3"}, Metrics: map[string]types.MetricValue{billing.DefaultMetric: {Amount: aws.String("n/a")}}},
			{Keys: []string{"AWS Lambda"}},
			{Metrics: map[string]types.MetricValue{billing.DefaultMetric: {Amount: aws.String("1")}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := staticCostExplorer{out: &costexplorer.GetCostAndUsageOutput{
				ResultsByTime: []types.ResultByTime{{
					TimePeriod: &types.DateInterval{Start: aws.String("2024-01-19"), End: aws.String("2024-01-20")},
					Groups:     tt.groups,
				}},
			}}
			fetcher := billing.NewFetcher(client,
				billing.WithClock(func() time.Time { return time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC) }),
				billing.WithLogger(log.Discard()))
			st := memory.New()
			pub := &recordingPublisher{}
			c := NewCoordinator(fetcher, testGenerator(), st, DefaultConfig(), WithPublisher(pub), WithLogger(log.Discard()))

			out := c.Run(context.Background())
			if out.Status != core.StatusError || out.RecordsWritten != 0 || out.Source != "" {
				t.Fatalf("unexpected outcome %+v", out)
			}
			if out.StatusCode() != 500 {
				t.Fatalf("expected 500, got %d", out.StatusCode())
			}
			if st.Len() != 0 {
				t.Fatalf("nothing may be written, store has %d rows", st.Len())
			}
			if len(pub.got) != 1 || pub.got[0].Status != core.StatusError {
				t.Fatalf("expected error outcome to be published, got %+v", pub.got)
			}
		})
	}
}

func TestRunUnknownFetchKindWritesNothing(t *testing.T) {
	st := memory.New()
	c := NewCoordinator(fakeFetcher{res: billing.FetchResult{Kind: billing.FetchKind(9)}}, testGenerator(), st, DefaultConfig(), WithLogger(log.Discard()))

	out := c.Run(context.Background())
	if out.Status != core.StatusError || st.Len() != 0 {
		t.Fatalf("unexpected outcome %+v with %d rows", out, st.Len())
	}
}

// panickingStore commits the first chunk and panics on the second.
type panickingStore struct {
	*memory.Store
	calls int
}

func (s *panickingStore) PutBatch(ctx context.Context, recs []core.CostRecord) error {
	s.calls++
	if s.calls > 1 {
		panic("driver bug")
	}
	return s.Store.PutBatch(ctx, recs)
}

func TestRunPanicReportsCommittedRecords(t *testing.T) {
	st := &panickingStore{Store: memory.New()}
	pub := &recordingPublisher{}
	c := NewCoordinator(fakeFetcher{res: billing.FetchResult{Kind: billing.FetchReal, Records: uniqueRecords(40)}}, testGenerator(), st, DefaultConfig(), WithPublisher(pub), WithLogger(log.Discard()))

	out := c.Run(context.Background())
	if out.Status != core.StatusError {
		t.Fatalf("expected error outcome, got %+v", out)
	}
	if out.RecordsWritten != 25 || out.Source != core.SourceReal {
		t.Fatalf("expected 25 committed real records, got %+v", out)
	}
	if st.Len() != 25 {
		t.Fatalf("expected 25 stored rows, got %d", st.Len())
	}
	if len(pub.got) != 1 || pub.got[0].RecordsWritten != 25 {
		t.Fatalf("published outcome should carry the committed count, got %+v", pub.got)
	}
}

func TestRunChunksAndRetries(t *testing.T) {
	tests := []struct {
		name        string
		records     int
		batchSize   int
		retries     int
		failOn      map[int]bool
		wantStatus  core.OutcomeStatus
		wantWritten int
		wantCalls   int
		wantOffset  int
	}{
		{name: "all chunks succeed", records: 60, batchSize: 25, retries: 1, wantStatus: core.StatusSuccess, wantWritten: 60, wantCalls: 3},
		{name: "retry recovers", records: 60, batchSize: 25, retries: 1, failOn: map[int]bool{2: true}, wantStatus: core.StatusSuccess, wantWritten: 60, wantCalls: 4},
		{name: "second chunk fails twice", records: 60, batchSize: 25, retries: 1, failOn: map[int]bool{2: true, 3: true}, wantStatus: core.StatusError, wantWritten: 25, wantCalls: 3, wantOffset: 25},
		{name: "no retry configured", records: 60, batchSize: 25, retries: 0, failOn: map[int]bool{1: true}, wantStatus: core.StatusError, wantWritten: 0, wantCalls: 1, wantOffset: 0},
		{name: "batch size capped by store", records: 30, batchSize: 100, retries: 1, wantStatus: core.StatusSuccess, wantWritten: 30, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &flakyStore{Store: memory.New(), failOn: tt.failOn}
			cfg := DefaultConfig()
			cfg.BatchSize = tt.batchSize
			cfg.BatchRetries = tt.retries

			c := NewCoordinator(fakeFetcher{res: billing.FetchResult{Kind: billing.FetchReal, Records: uniqueRecords(tt.records)}}, testGenerator(), st, cfg, WithLogger(log.Discard()))
			out := c.Run(context.Background())

			if out.Status != tt.wantStatus || out.RecordsWritten != tt.wantWritten {
				t.Fatalf("unexpected outcome %+v", out)
			}
			if st.calls != tt.wantCalls {
				t.Fatalf("expected %d PutBatch calls, got %d", tt.wantCalls, st.calls)
			}
			for _, n := range st.sizes {
				if n > memory.DefaultMaxBatchSize {
					t.Fatalf("chunk of %d exceeds store max", n)
				}
			}
			if st.Len() != tt.wantWritten {
				t.Fatalf("expected %d committed rows, got %d", tt.wantWritten, st.Len())
			}
			if tt.wantStatus == core.StatusError && out.Source != core.SourceReal {
				t.Fatalf("failed write should still report the source, got %q", out.Source)
			}
		})
	}
}

func TestWriteReturnsStoreWriteError(t *testing.T) {
	st := &flakyStore{Store: memory.New(), failOn: map[int]bool{2: true, 3: true}}
	c := NewCoordinator(fakeFetcher{}, testGenerator(), st, DefaultConfig(), WithLogger(log.Discard()))

	var n int
	err := c.write(context.Background(), uniqueRecords(40), &n)
	var swe *core.StoreWriteError
	if !errors.As(err, &swe) {
		t.Fatalf("expected StoreWriteError, got %v", err)
	}
	if n != 25 || swe.Offset != 25 || swe.Size != 15 || swe.Committed != 25 {
		t.Fatalf("unexpected failure details n=%d %+v", n, swe)
	}
}

func TestRunPublishFailureDoesNotChangeOutcome(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	c := NewCoordinator(fakeFetcher{res: billing.FetchResult{Kind: billing.FetchReal, Records: realRecords(2)}}, testGenerator(), memory.New(), DefaultConfig(), WithPublisher(pub), WithLogger(log.Discard()))

	out := c.Run(context.Background())
	if out.Status != core.StatusSuccess || out.RecordsWritten != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

type failingGenerator struct{}

func (failingGenerator) Generate(int, []string) ([]core.CostRecord, error) {
	return nil, core.ErrEmptyCatalog
}

func TestRunGeneratorFailure(t *testing.T) {
	c := NewCoordinator(fakeFetcher{}, failingGenerator{}, memory.New(), DefaultConfig(), WithLogger(log.Discard()))
	if out := c.Run(context.Background()); out.Status != core.StatusError {
		t.Fatalf("expected error outcome, got %+v", out)
	}
}

func TestHandlerInvoke(t *testing.T) {
	tests := []struct {
		name     string
		fetcher  fakeFetcher
		wantCode int
		wantKey  string
		wantText string
	}{
		{
			name:     "real",
			fetcher:  fakeFetcher{res: billing.FetchResult{Kind: billing.FetchReal, Records: realRecords(3)}},
			wantCode: 200,
			wantKey:  "message",
			wantText: "3 real AWS items inserted",
		},
		{
			name:     "synthetic",
			fetcher:  fakeFetcher{res: billing.FetchResult{Kind: billing.FetchEmpty}},
			wantCode: 200,
			wantKey:  "message",
			wantText: "112 dummy items inserted",
		},
		{
			name:     "upstream",
			fetcher:  fakeFetcher{err: &core.UpstreamError{Op: "GetCostAndUsage", Err: errors.New("denied")}},
			wantCode: 500,
			wantKey:  "error",
			wantText: "upstream GetCostAndUsage: denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCoordinator(tt.fetcher, testGenerator(), memory.New(), DefaultConfig(), WithLogger(log.Discard()))
			code, body := NewHandler(c).Invoke(context.Background())
			if code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, code)
			}
			var got map[string]any
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("decode body %s: %v", body, err)
			}
			if got[tt.wantKey] != tt.wantText {
				t.Fatalf("expected %s=%q, got %s", tt.wantKey, tt.wantText, body)
			}
		})
	}
}

func uniqueRecords(n int) []core.CostRecord {
	recs := make([]core.CostRecord, n)
	start := core.NewDate(2024, 1, 1)
	for i := range recs {
		recs[i] = core.CostRecord{Date: start.AddDays(i / 4), Service: []string{"A", "B", "C", "D"}[i%4], Cost: decimal.NewFromInt(1)}
	}
	return recs
}
