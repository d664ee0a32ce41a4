/*
Package typedtable – parallel request executor.

ParallelExecutor splits entity lists into DynamoDB batch requests and runs the
batches concurrently. Items the service leaves unprocessed are resubmitted.
*/
package typedtable

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/cloudxsgmbh/dynamodb-typedtable-go/internal/uid"
)

const (
	maxBatchWrite = 25
	maxBatchGet   = 100

	defaultConcurrency = 4
	defaultMaxRetries  = 3
	defaultRetryDelay  = 50 * time.Millisecond
)

// DynamoClient is the subset of the DynamoDB client the executor calls.
// *dynamodb.Client satisfies it.
type DynamoClient interface {
	BatchGetItem(ctx context.Context, params *ddb.BatchGetItemInput, optFns ...func(*ddb.Options)) (*ddb.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, params *ddb.BatchWriteItemInput, optFns ...func(*ddb.Options)) (*ddb.BatchWriteItemOutput, error)
}

// ExecutorParams configures a ParallelExecutor.
type ExecutorParams struct {
	TableName      string
	Concurrency    int           // batches in flight; 0 → 4
	MaxRetries     int           // resubmissions of unprocessed items; 0 → 3, <0 → none
	RetryDelay     time.Duration // first backoff, doubled per attempt; 0 → 50ms
	ConsistentRead bool
	Logger         Logger // nil → default (info+error only)
	Verbose        bool   // true → also log trace/data
}

// ParallelExecutor issues batched requests for entities of type T.
type ParallelExecutor[T any] struct {
	client    DynamoClient
	converter *EntityConverter[T]
	table     string
	log       Logger

	concurrency    int
	maxRetries     int
	retryDelay     time.Duration
	consistentRead bool
}

// NewParallelExecutor validates its collaborators up front: a nil client or
// converter fails with ErrMissingArgument before any request is made.
func NewParallelExecutor[T any](client DynamoClient, converter *EntityConverter[T], params ExecutorParams) (*ParallelExecutor[T], error) {
	if client == nil {
		return nil, missingArgument("client")
	}
	if converter == nil {
		return nil, missingArgument("converter")
	}
	if params.TableName == "" {
		return nil, argumentError("Missing \"TableName\" property")
	}
	x := &ParallelExecutor[T]{
		client:         client,
		converter:      converter,
		table:          params.TableName,
		log:            pickLogger(params.Logger, params.Verbose),
		concurrency:    params.Concurrency,
		maxRetries:     params.MaxRetries,
		retryDelay:     params.RetryDelay,
		consistentRead: params.ConsistentRead,
	}
	if x.concurrency <= 0 {
		x.concurrency = defaultConcurrency
	}
	switch {
	case x.maxRetries == 0:
		x.maxRetries = defaultMaxRetries
	case x.maxRetries < 0:
		x.maxRetries = 0
	}
	if x.retryDelay <= 0 {
		x.retryDelay = defaultRetryDelay
	}
	return x, nil
}

// Put writes entities with BatchWriteItem put requests.
func (x *ParallelExecutor[T]) Put(ctx context.Context, entities []*T) error {
	reqs := make([]types.WriteRequest, 0, len(entities))
	for i, e := range entities {
		if e == nil {
			return argumentError(fmt.Sprintf("Nil entity at index %d", i))
		}
		item, err := x.converter.Marshal(e)
		if err != nil {
			return err
		}
		reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	return x.write(ctx, "put", reqs)
}

// Delete removes entities by key with BatchWriteItem delete requests.
func (x *ParallelExecutor[T]) Delete(ctx context.Context, entities []*T) error {
	reqs := make([]types.WriteRequest, 0, len(entities))
	for i, e := range entities {
		if e == nil {
			return argumentError(fmt.Sprintf("Nil entity at index %d", i))
		}
		key, err := x.converter.Key(e)
		if err != nil {
			return err
		}
		reqs = append(reqs, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}})
	}
	return x.write(ctx, "delete", reqs)
}

// Get loads the entities whose keys are set on the given values. Missing
// items are skipped and the result order is not defined.
func (x *ParallelExecutor[T]) Get(ctx context.Context, keys []*T) ([]*T, error) {
	encoded := make([]map[string]types.AttributeValue, 0, len(keys))
	for i, k := range keys {
		if k == nil {
			return nil, argumentError(fmt.Sprintf("Nil key at index %d", i))
		}
		key, err := x.converter.Key(k)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, key)
	}

	reqID := uid.New()
	var (
		mu  sync.Mutex
		out = make([]*T, 0, len(keys))
	)
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(x.concurrency)
	for start := 0; start < len(encoded); start += maxBatchGet {
		chunk := encoded[start:min(start+maxBatchGet, len(encoded))]
		eg.Go(func() error {
			items, err := x.getChunk(egctx, reqID, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			out = append(out, items...)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		x.log.Error("Batch get failed", map[string]any{"request": reqID, "table": x.table, "error": err.Error()})
		return nil, err
	}
	return out, nil
}

func (x *ParallelExecutor[T]) write(ctx context.Context, op string, reqs []types.WriteRequest) error {
	reqID := uid.New()
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(x.concurrency)
	for start := 0; start < len(reqs); start += maxBatchWrite {
		chunk := reqs[start:min(start+maxBatchWrite, len(reqs))]
		eg.Go(func() error { return x.writeChunk(egctx, reqID, op, chunk) })
	}
	if err := eg.Wait(); err != nil {
		x.log.Error("Batch "+op+" failed", map[string]any{"request": reqID, "table": x.table, "error": err.Error()})
		return err
	}
	return nil
}

func (x *ParallelExecutor[T]) writeChunk(ctx context.Context, reqID, op string, pending []types.WriteRequest) error {
	for attempt := 0; ; attempt++ {
		x.log.Trace("Batch write", map[string]any{
			"request": reqID, "table": x.table, "op": op, "items": len(pending), "attempt": attempt,
		})
		res, err := x.client.BatchWriteItem(ctx, &ddb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{x.table: pending},
		})
		if err != nil {
			return NewError("BatchWriteItem failed", WithCode(CodeRuntime), WithCause(err),
				WithContext(map[string]any{"request": reqID, "table": x.table}))
		}
		pending = res.UnprocessedItems[x.table]
		if len(pending) == 0 {
			return nil
		}
		if attempt >= x.maxRetries {
			return unprocessed(reqID, x.table, len(pending))
		}
		x.log.Info("Retrying unprocessed items", map[string]any{
			"request": reqID, "table": x.table, "items": len(pending), "attempt": attempt + 1,
		})
		if err := x.backoff(ctx, attempt); err != nil {
			return err
		}
	}
}

func (x *ParallelExecutor[T]) getChunk(ctx context.Context, reqID string, keys []map[string]types.AttributeValue) ([]*T, error) {
	var out []*T
	for attempt := 0; ; attempt++ {
		x.log.Trace("Batch get", map[string]any{
			"request": reqID, "table": x.table, "items": len(keys), "attempt": attempt,
		})
		res, err := x.client.BatchGetItem(ctx, &ddb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				x.table: {Keys: keys, ConsistentRead: aws.Bool(x.consistentRead)},
			},
		})
		if err != nil {
			return nil, NewError("BatchGetItem failed", WithCode(CodeRuntime), WithCause(err),
				WithContext(map[string]any{"request": reqID, "table": x.table}))
		}
		for _, item := range res.Responses[x.table] {
			e, err := x.converter.Unmarshal(item)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		keys = res.UnprocessedKeys[x.table].Keys
		if len(keys) == 0 {
			return out, nil
		}
		if attempt >= x.maxRetries {
			return nil, unprocessed(reqID, x.table, len(keys))
		}
		x.log.Info("Retrying unprocessed keys", map[string]any{
			"request": reqID, "table": x.table, "items": len(keys), "attempt": attempt + 1,
		})
		if err := x.backoff(ctx, attempt); err != nil {
			return nil, err
		}
	}
}

func (x *ParallelExecutor[T]) backoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(x.retryDelay << attempt)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func unprocessed(reqID, table string, n int) *Error {
	return NewError(fmt.Sprintf("%d items left unprocessed", n), WithCode(CodeUnprocessed),
		WithContext(map[string]any{"request": reqID, "table": table, "items": n}))
}
