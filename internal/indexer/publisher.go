// Package indexer đưa sự kiện thay đổi sản phẩm tới chỉ mục tìm kiếm,
// qua Kafka hoặc trực tiếp khi Kafka bị tắt
package indexer

import (
	"context"
	"fmt"

	"github.com/thep200/ecommerce-api/internal/model"
)

// ProductIndexer is implemented by search.Indexer.
type ProductIndexer interface {
	IndexProducts(ctx context.Context, ids []uint) error
	DeleteProducts(ctx context.Context, ids []uint) error
}

type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// KafkaPublisher ghi ProductMessage lên topic sản phẩm, key là action
type KafkaPublisher struct {
	producer MessagePublisher
}

func NewKafkaPublisher(producer MessagePublisher) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) PublishProduct(ctx context.Context, msg model.ProductMessage) error {
	if err := validAction(msg.Action); err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg.Action, msg)
}

// DirectPublisher cập nhật chỉ mục ngay trong request
type DirectPublisher struct {
	indexer ProductIndexer
}

func NewDirectPublisher(indexer ProductIndexer) *DirectPublisher {
	return &DirectPublisher{indexer: indexer}
}

func (p *DirectPublisher) PublishProduct(ctx context.Context, msg model.ProductMessage) error {
	switch msg.Action {
	case model.ProductActionUpsert:
		return p.indexer.IndexProducts(ctx, []uint{msg.ID})
	case model.ProductActionDelete:
		return p.indexer.DeleteProducts(ctx, []uint{msg.ID})
	default:
		return validAction(msg.Action)
	}
}

func validAction(action string) error {
	switch action {
	case model.ProductActionUpsert, model.ProductActionDelete:
		return nil
	default:
		return fmt.Errorf("unknown product action %q", action)
	}
}
