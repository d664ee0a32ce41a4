package typedtable_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	tt "github.com/cloudxsgmbh/dynamodb-typedtable-go"
)

// ─── sample entities ─────────────────────────────────────────────────────────

type Color int32

const (
	Red Color = iota
	Green
	Blue
)

type Level int

type Tiny int8

type Flags uint32

type Blob []byte

// Sample carries one field per supported shape.
type Sample struct {
	Name    string
	Count   int32
	Total   int64
	N       int
	Ratio   float64
	OK      bool
	ID      uuid.UUID
	Data    []byte
	Raw     Blob
	When    time.Time
	At      tt.DateTimeOffset
	Color   Color
	Level   Level
	MCount  *int32
	MColor  *Color
	MWhen   *time.Time
	MName   *string
	MRatio  *float64
	MAt     *tt.DateTimeOffset
	MID     *uuid.UUID
	MData   *[]byte
	MLevel  *Level
	MOK     *bool
	MTotal  *int64
	Ignored string `table:"-"`
}

type Country struct {
	Continent       string  `table:",hash"`
	Name            string  `table:",range"`
	Area            float64 `table:"area"`
	Population      int64
	Founded         *time.Time
	IsExists        bool
	PresidentsCount int32
	Flag            Color
	Code            uuid.UUID
	Emblem          []byte
	Note            string `table:"-"`
}

func countryConverter(t *testing.T) *tt.EntityConverter[Country] {
	t.Helper()
	conv, err := tt.NewEntityConverter[Country](tt.ConverterParams{Logger: tt.NopLogger{}})
	require.NoError(t, err)
	return conv
}

func ptr[V any](v V) *V { return &v }

func bg() context.Context { return context.Background() }

// ─── in-memory DynamoDB ──────────────────────────────────────────────────────

// memClient stores items per key and answers batch requests. For the first
// stall calls of each kind the last request entry is returned unprocessed.
type memClient struct {
	mu       sync.Mutex
	keyAttrs []string
	items    map[string]map[string]types.AttributeValue

	stall      int
	writeCalls int
	getCalls   int
	batchSizes []int
	err        error
}

var _ tt.DynamoClient = (*memClient)(nil)

func newMemClient(keyAttrs ...string) *memClient {
	return &memClient{keyAttrs: keyAttrs, items: map[string]map[string]types.AttributeValue{}}
}

func (c *memClient) keyOf(item map[string]types.AttributeValue) string {
	parts := make([]string, 0, len(c.keyAttrs))
	for _, a := range c.keyAttrs {
		switch v := item[a].(type) {
		case *types.AttributeValueMemberS:
			parts = append(parts, v.Value)
		case *types.AttributeValueMemberN:
			parts = append(parts, v.Value)
		default:
			parts = append(parts, "?")
		}
	}
	return strings.Join(parts, "#")
}

func (c *memClient) BatchWriteItem(_ context.Context, in *ddb.BatchWriteItemInput, _ ...func(*ddb.Options)) (*ddb.BatchWriteItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeCalls++
	if c.err != nil {
		return nil, c.err
	}
	out := &ddb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for table, reqs := range in.RequestItems {
		c.batchSizes = append(c.batchSizes, len(reqs))
		if c.stall > 0 && len(reqs) > 0 {
			c.stall--
			out.UnprocessedItems[table] = reqs[len(reqs)-1:]
			reqs = reqs[:len(reqs)-1]
		}
		for _, r := range reqs {
			switch {
			case r.PutRequest != nil:
				c.items[c.keyOf(r.PutRequest.Item)] = r.PutRequest.Item
			case r.DeleteRequest != nil:
				delete(c.items, c.keyOf(r.DeleteRequest.Key))
			}
		}
	}
	return out, nil
}

func (c *memClient) BatchGetItem(_ context.Context, in *ddb.BatchGetItemInput, _ ...func(*ddb.Options)) (*ddb.BatchGetItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getCalls++
	if c.err != nil {
		return nil, c.err
	}
	out := &ddb.BatchGetItemOutput{
		Responses:       map[string][]map[string]types.AttributeValue{},
		UnprocessedKeys: map[string]types.KeysAndAttributes{},
	}
	for table, ka := range in.RequestItems {
		keys := ka.Keys
		if c.stall > 0 && len(keys) > 0 {
			c.stall--
			out.UnprocessedKeys[table] = types.KeysAndAttributes{Keys: keys[len(keys)-1:]}
			keys = keys[:len(keys)-1]
		}
		for _, k := range keys {
			if item, ok := c.items[c.keyOf(k)]; ok {
				out.Responses[table] = append(out.Responses[table], item)
			}
		}
	}
	return out, nil
}

func (c *memClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func sortedNames(cs []*Country) []string {
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}
