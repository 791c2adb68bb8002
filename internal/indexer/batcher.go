package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/thep200/ecommerce-api/internal/model"
	"github.com/thep200/ecommerce-api/pkg/kafka"
	"github.com/thep200/ecommerce-api/pkg/log"
)

const flushTimeout = 30 * time.Second

// Batcher gom sự kiện sản phẩm và đồng bộ chỉ mục khi đủ batchSize,
// khi hết batchTimeout, hoặc khi ctx bị huỷ
type Batcher struct {
	Logger       log.Logger
	indexer      ProductIndexer
	batchSize    int
	batchTimeout time.Duration
	messages     chan model.ProductMessage
}

func NewBatcher(logger log.Logger, indexer ProductIndexer, batchSize int, batchTimeout time.Duration) *Batcher {
	if batchSize <= 0 {
		batchSize = 100
	}
	if batchTimeout <= 0 {
		batchTimeout = 5 * time.Second
	}
	return &Batcher{
		Logger:       logger,
		indexer:      indexer,
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
		messages:     make(chan model.ProductMessage, batchSize*2),
	}
}

func (b *Batcher) Add(ctx context.Context, msg model.ProductMessage) error {
	if err := validAction(msg.Action); err != nil {
		return err
	}
	select {
	case b.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register nối consumer Kafka với batcher cho cả hai action
func (b *Batcher) Register(consumer *kafka.Consumer) {
	handler := func(ctx context.Context, data []byte) error {
		var msg model.ProductMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal product message: %w", err)
		}
		return b.Add(ctx, msg)
	}
	consumer.RegisterHandler(model.ProductActionUpsert, handler)
	consumer.RegisterHandler(model.ProductActionDelete, handler)
}

// Run chặn tới khi ctx bị huỷ; các message còn lại được flush trước khi trả về
func (b *Batcher) Run(ctx context.Context) {
	var batch []model.ProductMessage
	timer := time.NewTimer(b.batchTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
		drain:
			for {
				select {
				case msg := <-b.messages:
					batch = append(batch, msg)
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
				b.flush(flushCtx, batch)
				cancel()
			}
			return

		case msg := <-b.messages:
			batch = append(batch, msg)
			if len(batch) >= b.batchSize {
				b.flush(ctx, batch)
				batch = nil
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(b.batchTimeout)
			}

		case <-timer.C:
			if len(batch) > 0 {
				b.flush(ctx, batch)
				batch = nil
			}
			timer.Reset(b.batchTimeout)
		}
	}
}

// flush nạp lại mọi sản phẩm trong batch từ DB. Upsert và delete nằm ở các
// partition khác nhau nên thứ tự giữa chúng không tin được; IndexProducts
// tự xoá khỏi index những sản phẩm đã ẩn hoặc không còn.
func (b *Batcher) flush(ctx context.Context, batch []model.ProductMessage) {
	seen := make(map[uint]bool, len(batch))
	ids := make([]uint, 0, len(batch))
	deletes := 0
	for _, msg := range batch {
		if msg.Action == model.ProductActionDelete {
			deletes++
		}
		if !seen[msg.ID] {
			seen[msg.ID] = true
			ids = append(ids, msg.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	b.Logger.Info(ctx, "Processing batch of %d product events (%d products, %d deletes)", len(batch), len(ids), deletes)
	if err := b.indexer.IndexProducts(ctx, ids); err != nil {
		b.Logger.Error(ctx, "Failed to sync products %v: %v", ids, err)
	}
}
