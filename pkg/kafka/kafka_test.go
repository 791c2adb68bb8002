package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/pkg/log"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		msg := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) Close() error { return nil }

func testConfig(t *testing.T) (*cfg.Config, log.Logger) {
	t.Helper()
	loader, err := cfg.NewMockLoader()
	require.NoError(t, err)
	config, err := loader.Load()
	require.NoError(t, err)
	logger, err := log.NewCslLogger()
	require.NoError(t, err)
	return config, logger
}

func TestNewProducer_Validation(t *testing.T) {
	config, logger := testConfig(t)

	config.Kafka.Brokers = nil
	_, err := NewProducer(config, logger, "topic")
	assert.ErrorIs(t, err, ErrNoBrokers)

	config.Kafka.Brokers = []string{"localhost:9092"}
	_, err = NewProducer(config, logger, "")
	assert.Error(t, err)

	p, err := NewProducer(config, logger, "topic")
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestProducer_Publish(t *testing.T) {
	config, logger := testConfig(t)
	w := &fakeWriter{}
	p := &Producer{Config: config, Logger: logger, writer: w}

	require.NoError(t, p.Publish(context.Background(), "upsert", map[string]int{"id": 7}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "upsert", string(w.msgs[0].Key))
	assert.JSONEq(t, `{"id":7}`, string(w.msgs[0].Value))

	w.err = errors.New("broker down")
	assert.ErrorContains(t, p.Publish(context.Background(), "upsert", 1), "broker down")
	assert.Error(t, p.Publish(context.Background(), "upsert", make(chan int)))
}

func TestConsumer_DispatchesByKey(t *testing.T) {
	config, logger := testConfig(t)
	r := &fakeReader{msgs: []kafka.Message{
		{Key: []byte("upsert"), Value: []byte(`{"id":1}`)},
		{Key: []byte("unknown"), Value: []byte(`{}`)},
		{Key: []byte("upsert"), Value: []byte(`{"id":2}`)},
	}}
	c := &Consumer{Config: config, Logger: logger, topic: "t", reader: r, handlers: map[string]Handler{}}

	ctx, cancel := context.WithCancel(context.Background())
	var got []int
	c.RegisterHandler("upsert", func(_ context.Context, value []byte) error {
		var payload struct{ ID int }
		if err := json.Unmarshal(value, &payload); err != nil {
			return err
		}
		got = append(got, payload.ID)
		if len(got) == 2 {
			cancel()
		}
		return nil
	})

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, []int{1, 2}, got)
}
