// Package api khởi tạo và nối các thành phần của dịch vụ, dùng chung cho mọi binary
package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/internal/apperr"
	"github.com/thep200/ecommerce-api/internal/auth"
	"github.com/thep200/ecommerce-api/internal/catalog"
	"github.com/thep200/ecommerce-api/internal/httpapi"
	"github.com/thep200/ecommerce-api/internal/indexer"
	"github.com/thep200/ecommerce-api/internal/metrics"
	"github.com/thep200/ecommerce-api/internal/model"
	"github.com/thep200/ecommerce-api/internal/search"
	"github.com/thep200/ecommerce-api/pkg/db"
	"github.com/thep200/ecommerce-api/pkg/elastic"
	"github.com/thep200/ecommerce-api/pkg/kafka"
	"github.com/thep200/ecommerce-api/pkg/log"
	"github.com/thep200/ecommerce-api/pkg/mail"
)

var (
	ErrNotInitialized   = errors.New("shop api is not initialized")
	ErrNoSearchEngine   = errors.New("search engine is not configured")
	ErrReindexRunning   = apperr.Conflict("Reindex is already in progress")
	defaultConfigFolder = "cfg/yaml"
)

type Option func(*ShopAPI)

// WithLoader thay loader mặc định (viper đọc cfg/yaml)
func WithLoader(loader cfg.Loader) Option {
	return func(a *ShopAPI) { a.loader = loader }
}

func WithConfigDir(dir string) Option {
	return func(a *ShopAPI) { a.configDir = dir }
}

// WithMysql dùng một handle có sẵn thay vì mở MySQL theo config.
func WithMysql(mysql *db.Mysql) Option {
	return func(a *ShopAPI) { a.mysql = mysql }
}

func WithLogger(logger log.Logger) Option {
	return func(a *ShopAPI) { a.logger = logger }
}

// ShopAPI giữ các service đã được nối với nhau
type ShopAPI struct {
	ctx       context.Context
	loader    cfg.Loader
	configDir string
	config    *cfg.Config
	logger    log.Logger
	mysql     *db.Mysql

	Metrics  *metrics.Metrics
	Tokens   *auth.TokenManager
	Mailer   mail.Mailer
	Engine   *elastic.Client
	Producer *kafka.Producer
	Auth     *auth.Service
	Catalog  *catalog.Service
	Search   *search.Service
	Indexer  *search.Indexer

	reindexing     bool
	reindexStatsMu sync.RWMutex
	reindexStats   *search.ReindexStats
}

func NewShopAPI(opts ...Option) *ShopAPI {
	a := &ShopAPI{
		configDir:    defaultConfigFolder,
		reindexStats: &search.ReindexStats{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *ShopAPI) Config() *cfg.Config { return a.config }
func (a *ShopAPI) Logger() log.Logger  { return a.logger }
func (a *ShopAPI) Mysql() *db.Mysql    { return a.mysql }

// Initialize khởi tạo các thành phần cần thiết cho dịch vụ
func (a *ShopAPI) Initialize(ctx context.Context) error {
	a.ctx = ctx

	var err error

	// Load configuration
	if a.loader == nil {
		a.loader, err = cfg.NewDefaultLoader(a.configDir)
		if err != nil {
			return fmt.Errorf("failed to create config loader: %w", err)
		}
	}
	a.config, err = a.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Set up logger
	if a.logger == nil {
		a.logger, err = log.NewLogger(a.config.App.LogDriver, a.config.App.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
	}

	// Set up database
	if a.mysql == nil {
		a.mysql, err = db.NewMysql(a.config)
		if err != nil {
			return fmt.Errorf("failed to create database handle: %w", err)
		}
	}

	a.Metrics = metrics.New()

	a.Tokens, err = auth.NewTokenManager(a.config)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}

	a.Mailer, err = mail.NewMailer(a.config, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create mailer: %w", err)
	}

	a.Auth, err = auth.NewService(a.config, a.logger, a.mysql, a.Tokens, a.Mailer)
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	// Elasticsearch client không kết nối ngay, chỉ cần có địa chỉ
	var engine search.Engine
	if len(a.config.Elasticsearch.Addresses) > 0 {
		a.Engine, err = elastic.NewClient(a.config, a.logger)
		if err != nil {
			return err
		}
		engine = a.Engine
		a.Indexer, err = search.NewIndexer(a.config, a.logger, a.mysql, engine, a.Metrics)
		if err != nil {
			return fmt.Errorf("failed to create search indexer: %w", err)
		}
	}

	publisher, err := a.newPublisher()
	if err != nil {
		return err
	}

	a.Catalog, err = catalog.NewService(a.config, a.logger, a.mysql, publisher)
	if err != nil {
		return fmt.Errorf("failed to create catalog service: %w", err)
	}

	a.Search, err = search.NewService(a.config, a.logger, a.mysql, engine, a.Catalog, a.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create search service: %w", err)
	}
	if watcher, ok := a.loader.(cfg.Watcher); ok {
		a.Search.WatchConfig(watcher)
	}

	a.logger.Info(ctx, "Initialized %s %s (search enabled=%v, kafka enabled=%v)",
		a.config.App.Name, a.config.App.Version, a.Search.Enabled(), a.config.Kafka.Enabled)
	return nil
}

// newPublisher chọn Kafka khi bật, nếu không thì cập nhật chỉ mục trực tiếp
func (a *ShopAPI) newPublisher() (catalog.EventPublisher, error) {
	if a.config.Kafka.Enabled {
		producer, err := kafka.NewProducer(a.config, a.logger, a.config.Kafka.TopicProduct)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka producer: %w", err)
		}
		a.Producer = producer
		return indexer.NewKafkaPublisher(producer), nil
	}
	if a.Indexer == nil {
		return nil, nil
	}
	return &searchGate{next: indexer.NewDirectPublisher(a.Indexer), api: a}, nil
}

// searchGate bỏ qua sự kiện khi search đang tắt
type searchGate struct {
	next catalog.EventPublisher
	api  *ShopAPI
}

func (g *searchGate) PublishProduct(ctx context.Context, msg model.ProductMessage) error {
	if g.api.Search == nil || !g.api.Search.Enabled() {
		return nil
	}
	return g.next.PublishProduct(ctx, msg)
}

// Migrate đảm bảo các bảng cần thiết tồn tại
func (a *ShopAPI) Migrate() error {
	if a.mysql == nil {
		return ErrNotInitialized
	}
	if err := a.mysql.Migrate(model.Tables()...); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	return nil
}

func (a *ShopAPI) Services() httpapi.Services {
	services := httpapi.Services{
		Auth:     a.Auth,
		Catalog:  a.Catalog,
		Search:   a.Search,
		Database: a.mysql,
		Metrics:  a.Metrics,
	}
	if a.Indexer != nil {
		services.Reindexer = a
	}
	return services
}

// NewServer dựng HTTP server; port <= 0 dùng http.port trong config
func (a *ShopAPI) NewServer(port int) (*httpapi.Server, error) {
	if a.config == nil {
		return nil, ErrNotInitialized
	}
	return httpapi.NewServer(a.logger, a.config, a.Services(), port)
}

// ReindexAll chạy đồng bộ; chỉ một lần reindex được chạy tại một thời điểm
func (a *ShopAPI) ReindexAll(ctx context.Context) (int, error) {
	if a.Indexer == nil {
		return 0, ErrNoSearchEngine
	}

	a.reindexStatsMu.Lock()
	if a.reindexing {
		a.reindexStatsMu.Unlock()
		return 0, ErrReindexRunning
	}
	a.reindexing = true
	a.reindexStats = &search.ReindexStats{IsRunning: true, StartTime: time.Now()}
	a.reindexStatsMu.Unlock()

	n, err := a.Indexer.ReindexAll(ctx)

	a.updateReindexStats(func(stats *search.ReindexStats) {
		stats.IsRunning = false
		stats.Indexed = n
		stats.Duration = time.Since(stats.StartTime).String()
		if err != nil {
			stats.LastError = err.Error()
		}
	})
	a.reindexStatsMu.Lock()
	a.reindexing = false
	a.reindexStatsMu.Unlock()

	if err != nil {
		a.logger.Error(ctx, "Reindex failed after %d products: %v", n, err)
		return n, err
	}
	a.logger.Info(ctx, "Reindexed %d products", n)
	return n, nil
}

// StartReindex chạy ReindexAll trong goroutine sau khoảng delay, trả về channel đóng khi xong
func (a *ShopAPI) StartReindex(ctx context.Context, delay time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}
		if a.Search == nil || !a.Search.Enabled() {
			a.logger.Info(ctx, "Search disabled, skipping startup reindex")
			return
		}
		_, _ = a.ReindexAll(ctx)
	}()
	return done
}

// ReindexStatus trả về thống kê của lần reindex gần nhất
func (a *ShopAPI) ReindexStatus() search.ReindexStats {
	a.reindexStatsMu.RLock()
	defer a.reindexStatsMu.RUnlock()

	stats := *a.reindexStats
	if stats.IsRunning {
		stats.Duration = time.Since(stats.StartTime).String()
	}
	return stats
}

func (a *ShopAPI) updateReindexStats(updateFn func(*search.ReindexStats)) {
	a.reindexStatsMu.Lock()
	defer a.reindexStatsMu.Unlock()

	if a.reindexStats == nil {
		a.reindexStats = &search.ReindexStats{}
	}

	updateFn(a.reindexStats)
}

// GetDatabaseStatus kiểm tra trạng thái kết nối cơ sở dữ liệu
func (a *ShopAPI) GetDatabaseStatus(ctx context.Context) (string, error) {
	if a.mysql == nil {
		return "Database not initialized", nil
	}
	if err := a.mysql.Ping(ctx); err != nil {
		return "Database not connected: " + err.Error(), err
	}
	return "Database connected", nil
}

// GetSearchStatus kiểm tra Elasticsearch; search tắt không phải lỗi
func (a *ShopAPI) GetSearchStatus(ctx context.Context) (string, error) {
	if a.Search == nil {
		return "Search not initialized", nil
	}
	ok, err := a.Search.Ping(ctx)
	switch {
	case err != nil:
		return "Elasticsearch not connected: " + err.Error(), err
	case !ok:
		return "Elasticsearch disabled, using database search", nil
	default:
		return "Elasticsearch connected", nil
	}
}

// Close giải phóng producer và connection pool
func (a *ShopAPI) Close() error {
	var errs []error
	if a.Producer != nil {
		errs = append(errs, a.Producer.Close())
	}
	if a.mysql != nil {
		errs = append(errs, a.mysql.Close())
	}
	return errors.Join(errs...)
}
