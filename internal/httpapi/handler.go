package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/internal/apperr"
	"github.com/thep200/ecommerce-api/internal/auth"
	"github.com/thep200/ecommerce-api/internal/catalog"
	"github.com/thep200/ecommerce-api/internal/limiter"
	"github.com/thep200/ecommerce-api/internal/metrics"
	"github.com/thep200/ecommerce-api/internal/respond"
	"github.com/thep200/ecommerce-api/internal/search"
	"github.com/thep200/ecommerce-api/pkg/log"
)

const (
	MsgRouteNotFound    = "Route not found"
	MsgAuthTooMany      = "Too many authentication attempts, please try again later"
	MsgSearchNotEnabled = "Search engine is not enabled"

	defaultMaxBody = 10 << 20
)

// Pinger is the database health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Reindexer rebuilds the search index from the database.
type Reindexer interface {
	ReindexAll(ctx context.Context) (int, error)
	ReindexStatus() search.ReindexStats
}

// Services gom các dependency mà handler cần, do app khởi tạo
type Services struct {
	Auth      *auth.Service
	Catalog   *catalog.Service
	Search    *search.Service
	Reindexer Reindexer
	Database  Pinger
	Metrics   *metrics.Metrics
}

type Handler struct {
	Logger  log.Logger
	Config  *cfg.Config
	svc     Services
	general *limiter.RateLimiter
	strict  *limiter.RateLimiter
	now     func() time.Time
}

func NewHandler(logger log.Logger, config *cfg.Config, svc Services) (*Handler, error) {
	if svc.Auth == nil || svc.Catalog == nil || svc.Search == nil {
		return nil, errors.New("auth, catalog and search services are required")
	}
	if svc.Metrics == nil {
		svc.Metrics = metrics.New()
	}
	window := time.Duration(config.RateLimit.WindowMinutes) * time.Minute
	return &Handler{
		Logger:  logger,
		Config:  config,
		svc:     svc,
		general: limiter.NewRateLimiter(config.RateLimit.GeneralMax, window),
		strict:  limiter.NewRateLimiter(config.RateLimit.AuthMax, window),
		now:     time.Now,
	}, nil
}

// Router dựng toàn bộ route và chuỗi middleware
func (h *Handler) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(captureRoute)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Fail(w, http.StatusNotFound, MsgRouteNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Fail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.HandleFunc("/health", h.health).Methods(http.MethodGet).Name("health")
	router.HandleFunc("/", h.root).Methods(http.MethodGet).Name("root")
	router.Handle("/metrics", promhttp.HandlerFor(h.svc.Metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet).Name("metrics")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(limiter.Middleware(h.general, limiter.MsgTooManyRequests))
	h.authRoutes(api.PathPrefix("/auth").Subrouter())
	h.userRoutes(api.PathPrefix("/users").Subrouter())
	h.productRoutes(api.PathPrefix("/products").Subrouter())
	h.adminRoutes(api.PathPrefix("/admin").Subrouter())

	return chain(router,
		recovery(h.Logger),
		requestID,
		accessLog(h.Logger),
		instrument(h.svc.Metrics),
		cors(h.Config.Http.AllowedOrigins),
		handlers.CompressHandler,
		delay(time.Duration(h.Config.Http.ResponseDelayMs)*time.Millisecond),
	)
}

func (h *Handler) authRoutes(r *mux.Router) {
	strict := limiter.Middleware(h.strict, MsgAuthTooMany)
	r.HandleFunc("/register", h.register).Methods(http.MethodPost)
	r.Handle("/login", strict(http.HandlerFunc(h.login))).Methods(http.MethodPost)
	r.HandleFunc("/refresh-token", h.refreshToken).Methods(http.MethodPost)
	r.Handle("/forgot-password", strict(http.HandlerFunc(h.forgotPassword))).Methods(http.MethodPost)
	r.Handle("/reset-password", strict(http.HandlerFunc(h.resetPassword))).Methods(http.MethodPost)
	r.Handle("/profile", h.svc.Auth.Required(http.HandlerFunc(h.authProfile))).Methods(http.MethodGet)
}

func (h *Handler) userRoutes(r *mux.Router) {
	r.Handle("/profile", h.svc.Auth.Required(http.HandlerFunc(h.getProfile))).Methods(http.MethodGet)
	r.Handle("/profile", h.svc.Auth.Required(http.HandlerFunc(h.updateProfile))).Methods(http.MethodPut)
	r.Handle("", h.admin(h.listUsers)).Methods(http.MethodGet)
}

func (h *Handler) productRoutes(r *mux.Router) {
	r.HandleFunc("/categories", h.categories).Methods(http.MethodGet)
	r.HandleFunc("/featured", h.featured).Methods(http.MethodGet)
	r.Handle("/search", h.svc.Auth.Optional(http.HandlerFunc(h.searchProducts))).Methods(http.MethodGet)
	r.HandleFunc("/suggestions", h.suggestions).Methods(http.MethodGet)
	r.Handle("/category/{categorySlug}", h.svc.Auth.Optional(http.HandlerFunc(h.productsByCategory))).Methods(http.MethodGet)
	r.Handle("", h.svc.Auth.Optional(http.HandlerFunc(h.listProducts))).Methods(http.MethodGet)
	r.Handle("/", h.svc.Auth.Optional(http.HandlerFunc(h.listProducts))).Methods(http.MethodGet)
	r.Handle("", h.admin(h.createProduct)).Methods(http.MethodPost)
	r.Handle("/{id:[0-9]+}", h.admin(h.updateProduct)).Methods(http.MethodPut)
	r.Handle("/{id:[0-9]+}", h.admin(h.deleteProduct)).Methods(http.MethodDelete)
	r.Handle("/{slug}", h.svc.Auth.Optional(http.HandlerFunc(h.productBySlug))).Methods(http.MethodGet)
}

func (h *Handler) adminRoutes(r *mux.Router) {
	r.Handle("/reindex", h.admin(h.reindex)).Methods(http.MethodPost)
	r.Handle("/reindex/status", h.admin(h.reindexStatus)).Methods(http.MethodGet)
}

func (h *Handler) admin(fn http.HandlerFunc) http.Handler {
	return h.svc.Auth.Required(h.svc.Auth.AdminOnly(fn))
}

// decodeJSON đọc body có giới hạn kích thước; body rỗng coi như object rỗng
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	limit := h.Config.Http.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBody
	}
	body := http.MaxBytesReader(w, r.Body, limit)
	err := json.NewDecoder(body).Decode(dst)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("Request body too large")
		}
		return apperr.Validation("Invalid JSON body")
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	respond.Error(w, r, h.Logger, err)
}

// queryInt trả def khi tham số thiếu hoặc không hợp lệ
func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}
