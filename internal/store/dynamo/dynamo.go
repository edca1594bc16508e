// Package dynamo stores cost records and support tickets in DynamoDB.
//
// The cost table is keyed by date (HASH) and service (RANGE), so a PutItem
// on an existing pair overwrites it.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"costboard/internal/core"
	"costboard/internal/store"
)

// MaxBatchSize is the BatchWriteItem item limit.
const MaxBatchSize = 25

// ErrUnprocessed means DynamoDB kept returning unprocessed items after the resubmission.
var ErrUnprocessed = errors.New("dynamodb left items unprocessed")

// API is the subset of the DynamoDB client the store uses.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var (
	_ store.RecordStore  = (*Store)(nil)
	_ store.TicketWriter = (*Store)(nil)
)

type Store struct {
	client      API
	costTable   string
	ticketTable string
}

func New(client API, costTable, ticketTable string) *Store {
	return &Store{client: client, costTable: costTable, ticketTable: ticketTable}
}

func (s *Store) MaxBatchSize() int { return MaxBatchSize }

func (s *Store) Close() error { return nil }

func (s *Store) Put(ctx context.Context, rec core.CostRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.costTable),
		Item:      costItem(rec),
	})
	if err != nil {
		return fmt.Errorf("put item %s: %w", rec.Key(), err)
	}
	return nil
}

// PutBatch writes up to MaxBatchSize records. Unprocessed items are resubmitted once.
func (s *Store) PutBatch(ctx context.Context, recs []core.CostRecord) error {
	if len(recs) == 0 {
		return nil
	}
	if len(recs) > MaxBatchSize {
		return fmt.Errorf("batch of %d exceeds max %d", len(recs), MaxBatchSize)
	}

	// Duplicate keys in one request are rejected by DynamoDB; keep the last value.
	idx := make(map[string]int, len(recs))
	var requests []types.WriteRequest
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			return err
		}
		req := types.WriteRequest{PutRequest: &types.PutRequest{Item: costItem(rec)}}
		if i, ok := idx[rec.Key()]; ok {
			requests[i] = req
			continue
		}
		idx[rec.Key()] = len(requests)
		requests = append(requests, req)
	}

	pending := map[string][]types.WriteRequest{s.costTable: requests}
	for attempt := 0; attempt < 2; attempt++ {
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("batch write item: %w", err)
		}
		if len(out.UnprocessedItems[s.costTable]) == 0 {
			return nil
		}
		pending = out.UnprocessedItems
		slog.WarnContext(ctx, "DynamoDB returned unprocessed items",
			"table", s.costTable,
			"unprocessed", len(pending[s.costTable]),
			"attempt", attempt+1)
	}
	return fmt.Errorf("%w: %d of %d", ErrUnprocessed, len(pending[s.costTable]), len(requests))
}

// ScanAll reads the whole cost table. Only string and number attributes are kept.
func (s *Store) ScanAll(ctx context.Context) ([]core.RawRow, error) {
	var (
		rows     []core.RawRow
		startKey map[string]types.AttributeValue
	)
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.costTable),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.costTable, err)
		}
		for _, item := range out.Items {
			rows = append(rows, rawRow(item))
		}
		if len(out.LastEvaluatedKey) == 0 {
			return rows, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

type ticketItem struct {
	TicketID  string `dynamodbav:"ticket_id"`
	Message   string `dynamodbav:"message"`
	Timestamp string `dynamodbav:"timestamp"`
}

func (s *Store) SaveTicket(ctx context.Context, t core.Ticket) error {
	item, err := attributevalue.MarshalMap(ticketItem{
		TicketID:  t.ID.String(),
		Message:   t.Message,
		Timestamp: t.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal ticket: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.ticketTable),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put ticket: %w", err)
	}
	slog.InfoContext(ctx, "Ticket saved to DynamoDB", "ticket_id", t.ID, "table", s.ticketTable)
	return nil
}

func costItem(rec core.CostRecord) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		core.AttrDate:    &types.AttributeValueMemberS{Value: rec.Date.String()},
		core.AttrService: &types.AttributeValueMemberS{Value: rec.Service},
		core.AttrCost:    &types.AttributeValueMemberN{Value: rec.Cost.String()},
	}
}

func rawRow(item map[string]types.AttributeValue) core.RawRow {
	row := make(core.RawRow, len(item))
	for name, v := range item {
		switch av := v.(type) {
		case *types.AttributeValueMemberS:
			row[name] = av.Value
		case *types.AttributeValueMemberN:
			row[name] = av.Value
		}
	}
	return row
}
