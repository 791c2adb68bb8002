package search

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/internal/catalog"
	"github.com/thep200/ecommerce-api/internal/metrics"
	"github.com/thep200/ecommerce-api/internal/model"
	"github.com/thep200/ecommerce-api/pkg/db"
	"github.com/thep200/ecommerce-api/pkg/log"
)

const (
	EngineElasticsearch = "elasticsearch"
	EngineDatabase      = "database"

	DefaultSuggestLimit = 5
	MaxSuggestLimit     = 20
	minSuggestLen       = 2
)

type ProductHit struct {
	model.Product
	SearchScore *float64            `json:"searchScore,omitempty"`
	Highlights  map[string][]string `json:"highlights,omitempty"`
}

type Info struct {
	Query      string `json:"query"`
	Total      int64  `json:"total"`
	Engine     string `json:"engine"`
	SearchTime int64  `json:"searchTime"`
}

type Result struct {
	Products   []ProductHit       `json:"products"`
	Pagination catalog.Pagination `json:"pagination"`
	SearchInfo Info               `json:"searchInfo"`
}

type Suggestion struct {
	Text   string      `json:"text"`
	Source interface{} `json:"source,omitempty"`
}

type suggestSource struct {
	ID        uint     `json:"id"`
	Name      string   `json:"name"`
	Slug      string   `json:"slug"`
	Price     float64  `json:"price"`
	SalePrice *float64 `json:"salePrice"`
}

// Service tìm kiếm qua Elasticsearch, lỗi hoặc engine tắt thì chuyển sang LIKE trên database
type Service struct {
	Config   *cfg.Config
	Logger   log.Logger
	engine   Engine
	catalog  *catalog.Service
	products *model.Product
	metrics  *metrics.Metrics
	index    string
	enabled  atomic.Bool
}

func NewService(config *cfg.Config, logger log.Logger, mysql *db.Mysql, engine Engine, catalogSvc *catalog.Service, m *metrics.Metrics) (*Service, error) {
	products, err := model.NewProduct(config, logger, mysql)
	if err != nil {
		return nil, err
	}
	index := config.Elasticsearch.Index
	if index == "" {
		index = "products"
	}
	s := &Service{
		Config:   config,
		Logger:   logger,
		engine:   engine,
		catalog:  catalogSvc,
		products: products,
		metrics:  m,
		index:    index,
	}
	s.enabled.Store(config.Elasticsearch.Enabled && engine != nil)
	return s, nil
}

// SetEnabled bật/tắt Elasticsearch lúc chạy; không có engine thì luôn tắt
func (s *Service) SetEnabled(enabled bool) {
	s.enabled.Store(enabled && s.engine != nil)
}

func (s *Service) Enabled() bool {
	return s.enabled.Load()
}

// WatchConfig follows elasticsearch.enabled across config reloads.
func (s *Service) WatchConfig(watcher cfg.Watcher) {
	watcher.RegisterConfigChangeCallback(func(config *cfg.Config) {
		before := s.Enabled()
		s.SetEnabled(config.Elasticsearch.Enabled)
		if after := s.Enabled(); after != before {
			s.Logger.Notice(context.Background(), "Elasticsearch search enabled=%v", after)
		}
	})
}

// Ping reports engine connectivity; a disabled engine is not an error.
func (s *Service) Ping(ctx context.Context) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	if err := s.engine.Ping(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) Search(ctx context.Context, f catalog.ProductFilter) (*Result, error) {
	start := time.Now()
	if f.Query == "" {
		list, err := s.catalog.ListProducts(ctx, f)
		if err != nil {
			return nil, err
		}
		return s.fromList(list, f, start), nil
	}

	if s.Enabled() {
		result, err := s.searchEngine(ctx, f, start)
		if err == nil {
			s.metrics.SearchServed(EngineElasticsearch)
			return result, nil
		}
		s.Logger.Warn(ctx, "Elasticsearch search failed, falling back to database: %v", err)
	}

	list, err := s.catalog.SearchLike(ctx, f)
	if err != nil {
		return nil, err
	}
	s.metrics.SearchServed(EngineDatabase)
	return s.fromList(list, f, start), nil
}

func (s *Service) fromList(list *catalog.ProductList, f catalog.ProductFilter, start time.Time) *Result {
	hits := make([]ProductHit, 0, len(list.Products))
	for _, p := range list.Products {
		hits = append(hits, ProductHit{Product: p})
	}
	return &Result{
		Products:   hits,
		Pagination: list.Pagination,
		SearchInfo: Info{
			Query:      f.Query,
			Total:      list.Pagination.TotalItems,
			Engine:     EngineDatabase,
			SearchTime: time.Since(start).Milliseconds(),
		},
	}
}

func (s *Service) searchEngine(ctx context.Context, f catalog.ProductFilter, start time.Time) (*Result, error) {
	res, err := s.engine.Search(ctx, s.index, BuildQuery(f))
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		id, err := strconv.ParseUint(hit.ID, 10, 64)
		if err != nil {
			s.Logger.Warn(ctx, "Skipping search hit with non numeric id %q", hit.ID)
			continue
		}
		ids = append(ids, uint(id))
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Product, len(products))
	for _, p := range products {
		if p.IsActive {
			byID[p.ID] = p
		}
	}

	hits := make([]ProductHit, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		id, err := strconv.ParseUint(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		product, ok := byID[uint(id)]
		if !ok {
			continue
		}
		hits = append(hits, ProductHit{Product: product, SearchScore: hit.Score, Highlights: hit.Highlight})
	}

	total := res.Hits.Total.Value
	return &Result{
		Products:   hits,
		Pagination: catalog.NewPagination(f.Page, f.Limit, total),
		SearchInfo: Info{
			Query:      f.Query,
			Total:      total,
			Engine:     EngineElasticsearch,
			SearchTime: time.Since(start).Milliseconds(),
		},
	}, nil
}

// Suggest gợi ý tên sản phẩm theo tiền tố q
func (s *Service) Suggest(ctx context.Context, q string, limit int) ([]Suggestion, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < minSuggestLen {
		return []Suggestion{}, nil
	}
	if limit < 1 || limit > MaxSuggestLimit {
		limit = DefaultSuggestLimit
	}

	if s.Enabled() {
		res, err := s.engine.Search(ctx, s.index, BuildSuggest(q, limit))
		if err == nil {
			out := []Suggestion{}
			for _, entry := range res.Suggest[suggestName] {
				for _, opt := range entry.Options {
					suggestion := Suggestion{Text: opt.Text}
					if len(opt.Source) > 0 {
						suggestion.Source = opt.Source
					}
					out = append(out, suggestion)
				}
			}
			return out, nil
		}
		s.Logger.Warn(ctx, "Elasticsearch suggest failed, falling back to database: %v", err)
	}

	products, err := s.products.FindNamesByPrefix(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Suggestion, 0, len(products))
	for _, p := range products {
		out = append(out, Suggestion{Text: p.Name, Source: suggestSource{
			ID: p.ID, Name: p.Name, Slug: p.Slug, Price: p.Price, SalePrice: p.SalePrice,
		}})
	}
	return out, nil
}
