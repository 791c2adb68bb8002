package search

import (
	"context"
	"fmt"
	"time"

	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/internal/metrics"
	"github.com/thep200/ecommerce-api/internal/model"
	"github.com/thep200/ecommerce-api/pkg/db"
	"github.com/thep200/ecommerce-api/pkg/elastic"
	"github.com/thep200/ecommerce-api/pkg/log"
)

const reindexPageSize = 100

// ReindexStats mô tả lần reindex gần nhất
type ReindexStats struct {
	IsRunning bool      `json:"isRunning"`
	StartTime time.Time `json:"startTime"`
	Duration  string    `json:"duration"`
	Indexed   int       `json:"indexed"`
	LastError string    `json:"lastError"`
}

// Indexer đồng bộ sản phẩm từ database sang index Elasticsearch
type Indexer struct {
	Config   *cfg.Config
	Logger   log.Logger
	engine   Engine
	products *model.Product
	metrics  *metrics.Metrics
	index    string
}

func NewIndexer(config *cfg.Config, logger log.Logger, mysql *db.Mysql, engine Engine, m *metrics.Metrics) (*Indexer, error) {
	if engine == nil {
		return nil, fmt.Errorf("search engine is required")
	}
	products, err := model.NewProduct(config, logger, mysql)
	if err != nil {
		return nil, err
	}
	index := config.Elasticsearch.Index
	if index == "" {
		index = "products"
	}
	return &Indexer{
		Config:   config,
		Logger:   logger,
		engine:   engine,
		products: products,
		metrics:  m,
		index:    index,
	}, nil
}

func (i *Indexer) EnsureIndex(ctx context.Context) error {
	created, err := i.engine.EnsureIndex(ctx, i.index, []byte(IndexMapping))
	if err != nil {
		return fmt.Errorf("failed to ensure index %s: %w", i.index, err)
	}
	if created {
		i.Logger.Info(ctx, "Created products index %s", i.index)
	}
	return nil
}

func (i *Indexer) bulkIndex(ctx context.Context, products []model.Product) (int, error) {
	docs := make([]elastic.BulkDoc, 0, len(products))
	for idx := range products {
		docs = append(docs, elastic.BulkDoc{ID: docID(products[idx].ID), Body: NewDocument(&products[idx])})
	}
	res, err := i.engine.Bulk(ctx, i.index, "index", docs)
	i.metrics.Indexed(model.ProductActionUpsert, int(res.Succeeded))
	return int(res.Succeeded), err
}

// IndexProducts nạp lại các sản phẩm theo ids; sản phẩm không còn hoặc đã ẩn bị xoá khỏi index
func (i *Indexer) IndexProducts(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	products, err := i.products.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}

	active := make([]model.Product, 0, len(products))
	found := make(map[uint]bool, len(products))
	for _, p := range products {
		if p.IsActive {
			active = append(active, p)
			found[p.ID] = true
		}
	}
	var gone []uint
	for _, id := range ids {
		if !found[id] {
			gone = append(gone, id)
		}
	}

	if len(active) > 0 {
		if _, err := i.bulkIndex(ctx, active); err != nil {
			return err
		}
	}
	if err := i.DeleteProducts(ctx, gone); err != nil {
		return err
	}
	i.Logger.Debug(ctx, "Indexed %d products, removed %d", len(active), len(gone))
	return nil
}

func (i *Indexer) DeleteProducts(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	docs := make([]elastic.BulkDoc, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, elastic.BulkDoc{ID: docID(id)})
	}
	res, err := i.engine.Bulk(ctx, i.index, "delete", docs)
	i.metrics.Indexed(model.ProductActionDelete, int(res.Succeeded))
	return err
}

// ReindexAll đánh chỉ mục toàn bộ sản phẩm đang hoạt động theo từng trang 100 bản ghi
func (i *Indexer) ReindexAll(ctx context.Context) (int, error) {
	if err := i.EnsureIndex(ctx); err != nil {
		return 0, err
	}

	var (
		afterID uint
		total   int
	)
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		page, err := i.products.FindPage(ctx, afterID, reindexPageSize)
		if err != nil {
			return total, err
		}
		if len(page) == 0 {
			break
		}
		afterID = page[len(page)-1].ID

		active := make([]model.Product, 0, len(page))
		var inactive []uint
		for _, p := range page {
			if p.IsActive {
				active = append(active, p)
			} else {
				inactive = append(inactive, p.ID)
			}
		}
		n, err := i.bulkIndex(ctx, active)
		total += n
		if err != nil {
			return total, err
		}
		if err := i.DeleteProducts(ctx, inactive); err != nil {
			return total, err
		}
		if len(page) < reindexPageSize {
			break
		}
	}

	i.Logger.Info(ctx, "Reindexed %d products", total)
	return total, nil
}
