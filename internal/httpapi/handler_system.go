package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/thep200/ecommerce-api/internal/respond"
)

const healthTimeout = 2 * time.Second

type healthResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Timestamp     string `json:"timestamp"`
	Database      string `json:"database"`
	Elasticsearch string `json:"elasticsearch"`
}

// health luôn trả 200 khi process còn sống; trạng thái db/search chỉ để tham khảo
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	res := healthResponse{
		Success:       true,
		Message:       "Server is running",
		Timestamp:     h.now().UTC().Format(time.RFC3339Nano),
		Database:      "unknown",
		Elasticsearch: "disabled",
	}
	if h.svc.Database != nil {
		res.Database = "connected"
		if err := h.svc.Database.Ping(ctx); err != nil {
			h.Logger.Warn(ctx, "Database health check failed: %v", err)
			res.Database = "disconnected"
		}
	}
	if h.svc.Search.Enabled() {
		res.Elasticsearch = "connected"
		if _, err := h.svc.Search.Ping(ctx); err != nil {
			h.Logger.Warn(ctx, "Elasticsearch health check failed: %v", err)
			res.Elasticsearch = "disconnected"
		}
	}
	respond.JSON(w, http.StatusOK, res)
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "E-commerce API Server",
		"version": h.Config.App.Version,
		"endpoints": map[string]string{
			"auth":     "/api/auth",
			"products": "/api/products",
			"users":    "/api/users",
			"admin":    "/api/admin",
			"health":   "/health",
			"metrics":  "/metrics",
		},
	})
}
