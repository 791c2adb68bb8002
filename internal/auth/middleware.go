package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/thep200/ecommerce-api/internal/apperr"
	"github.com/thep200/ecommerce-api/internal/model"
	"github.com/thep200/ecommerce-api/internal/respond"
)

type ctxKey struct{}

func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFrom returns the authenticated user, or nil on anonymous requests.
func UserFrom(ctx context.Context) *model.User {
	user, _ := ctx.Value(ctxKey{}).(*model.User)
	return user
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", apperr.Unauthorized("Authorization header required")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", apperr.Unauthorized("Token required")
	}
	return strings.TrimSpace(token), nil
}

// Required từ chối request không có access token hợp lệ của user đang hoạt động
func (s *Service) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			respond.Error(w, r, s.Logger, err)
			return
		}
		user, err := s.Authenticate(r.Context(), token)
		if err != nil {
			respond.Error(w, r, s.Logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// Optional gắn user nếu token hợp lệ, không bao giờ từ chối request
func (s *Service) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, err := bearerToken(r); err == nil {
			if user, err := s.Authenticate(r.Context(), token); err == nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// AdminOnly must run after Required.
func (s *Service) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFrom(r.Context())
		if user == nil {
			respond.Error(w, r, s.Logger, apperr.Unauthorized("Authorization header required"))
			return
		}
		if user.Role != model.RoleAdmin {
			respond.Error(w, r, s.Logger, apperr.Forbidden("Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
