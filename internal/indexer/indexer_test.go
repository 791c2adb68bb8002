package indexer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/ecommerce-api/internal/model"
	"github.com/thep200/ecommerce-api/pkg/log"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type call struct {
	action string
	ids    []uint
}

type recordingIndexer struct {
	mu    sync.Mutex
	calls []call
	ctxOK []bool
}

func (r *recordingIndexer) record(ctx context.Context, action string, ids []uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{action, append([]uint(nil), ids...)})
	r.ctxOK = append(r.ctxOK, ctx.Err() == nil)
	return nil
}

func (r *recordingIndexer) IndexProducts(ctx context.Context, ids []uint) error {
	return r.record(ctx, model.ProductActionUpsert, ids)
}

func (r *recordingIndexer) DeleteProducts(ctx context.Context, ids []uint) error {
	return r.record(ctx, model.ProductActionDelete, ids)
}

func (r *recordingIndexer) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

type recordingProducer struct {
	keys   []string
	values []interface{}
}

func (p *recordingProducer) Publish(_ context.Context, key string, value interface{}) error {
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
	return nil
}

func testLogger(t *testing.T) log.Logger {
	t.Helper()
	logger, err := log.NewCslLogger()
	require.NoError(t, err)
	return logger
}

func TestKafkaPublisher(t *testing.T) {
	producer := &recordingProducer{}
	pub := NewKafkaPublisher(producer)
	ctx := context.Background()

	require.NoError(t, pub.PublishProduct(ctx, model.ProductMessage{ID: 3, Action: model.ProductActionDelete}))
	assert.Equal(t, []string{"delete"}, producer.keys)
	assert.Equal(t, model.ProductMessage{ID: 3, Action: "delete"}, producer.values[0])

	assert.Error(t, pub.PublishProduct(ctx, model.ProductMessage{ID: 3, Action: "archive"}))
	assert.Len(t, producer.keys, 1)
}

func TestDirectPublisher(t *testing.T) {
	idx := &recordingIndexer{}
	pub := NewDirectPublisher(idx)
	ctx := context.Background()

	require.NoError(t, pub.PublishProduct(ctx, model.ProductMessage{ID: 1, Action: model.ProductActionUpsert}))
	require.NoError(t, pub.PublishProduct(ctx, model.ProductMessage{ID: 2, Action: model.ProductActionDelete}))
	assert.Error(t, pub.PublishProduct(ctx, model.ProductMessage{ID: 2, Action: ""}))

	assert.Equal(t, []call{{"upsert", []uint{1}}, {"delete", []uint{2}}}, idx.snapshot())
}

func TestBatcher_FlushOnSize(t *testing.T) {
	idx := &recordingIndexer{}
	b := NewBatcher(testLogger(t), idx, 3, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	require.NoError(t, b.Add(ctx, model.ProductMessage{ID: 2, Action: model.ProductActionUpsert}))
	require.NoError(t, b.Add(ctx, model.ProductMessage{ID: 1, Action: model.ProductActionUpsert}))
	require.NoError(t, b.Add(ctx, model.ProductMessage{ID: 2, Action: model.ProductActionDelete}))

	assert.Eventually(t, func() bool { return len(idx.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []call{{"upsert", []uint{1, 2}}}, idx.snapshot())

	cancel()
	<-done
}

func TestBatcher_FlushOnTimeout(t *testing.T) {
	idx := &recordingIndexer{}
	b := NewBatcher(testLogger(t), idx, 100, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	require.NoError(t, b.Add(ctx, model.ProductMessage{ID: 7, Action: model.ProductActionUpsert}))
	assert.Eventually(t, func() bool { return len(idx.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []call{{"upsert", []uint{7}}}, idx.snapshot())

	cancel()
	<-done
}

func TestBatcher_FlushOnShutdown(t *testing.T) {
	idx := &recordingIndexer{}
	b := NewBatcher(testLogger(t), idx, 100, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	// queued before Run starts, so they are drained on shutdown
	require.NoError(t, b.Add(ctx, model.ProductMessage{ID: 4, Action: model.ProductActionDelete}))
	require.NoError(t, b.Add(ctx, model.ProductMessage{ID: 5, Action: model.ProductActionUpsert}))
	cancel()
	b.Run(ctx)

	calls := idx.snapshot()
	require.NotEmpty(t, calls)
	var ids []uint
	for _, c := range calls {
		ids = append(ids, c.ids...)
	}
	assert.ElementsMatch(t, []uint{4, 5}, ids)
	for _, ok := range idx.ctxOK {
		assert.True(t, ok, "flush on shutdown must use a live context")
	}
}

func TestBatcher_AddRejectsUnknownAction(t *testing.T) {
	b := NewBatcher(testLogger(t), &recordingIndexer{}, 1, time.Second)
	assert.Error(t, b.Add(context.Background(), model.ProductMessage{ID: 1, Action: "noop"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	full := NewBatcher(testLogger(t), &recordingIndexer{}, 1, time.Second)
	require.NoError(t, full.Add(context.Background(), model.ProductMessage{ID: 1, Action: model.ProductActionUpsert}))
	require.NoError(t, full.Add(context.Background(), model.ProductMessage{ID: 2, Action: model.ProductActionUpsert}))
	assert.ErrorIs(t, full.Add(ctx, model.ProductMessage{ID: 3, Action: model.ProductActionUpsert}), context.Canceled)
}

// catalogIndexer mirrors search.Indexer: IndexProducts reloads state from the
// database and removes inactive products, DeleteProducts removes blindly.
type catalogIndexer struct {
	mu      sync.Mutex
	active  map[uint]bool
	indexed map[uint]bool
}

func (c *catalogIndexer) IndexProducts(_ context.Context, ids []uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if c.active[id] {
			c.indexed[id] = true
		} else {
			delete(c.indexed, id)
		}
	}
	return nil
}

func (c *catalogIndexer) DeleteProducts(_ context.Context, ids []uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.indexed, id)
	}
	return nil
}

func (c *catalogIndexer) isIndexed(id uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexed[id]
}

func TestBatcher_DatabaseStateWins(t *testing.T) {
	tests := []struct {
		name    string
		active  bool
		events  []string
		indexed bool
	}{
		{"stale delete after reactivation", true, []string{"upsert", "delete"}, true},
		{"stale upsert after deactivation", false, []string{"delete", "upsert"}, false},
		{"delete only", false, []string{"delete"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := &catalogIndexer{active: map[uint]bool{5: tt.active}, indexed: map[uint]bool{5: true}}
			b := NewBatcher(testLogger(t), idx, len(tt.events), time.Hour)
			ctx, cancel := context.WithCancel(context.Background())
			for _, action := range tt.events {
				require.NoError(t, b.Add(ctx, model.ProductMessage{ID: 5, Action: action}))
			}
			cancel()
			b.Run(ctx)
			assert.Equal(t, tt.indexed, idx.isIndexed(5))
		})
	}
}
