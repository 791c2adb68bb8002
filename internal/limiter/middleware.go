package limiter

import (
	"net"
	"net/http"
	"strconv"

	"github.com/thep200/ecommerce-api/internal/respond"
)

const MsgTooManyRequests = "Too many requests, please try again later"

// ClientIP lấy địa chỉ client từ RemoteAddr (proxy tin cậy đã ghi đè qua handlers.ProxyHeaders)
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware trả 429 với message (mặc định MsgTooManyRequests) khi client vượt giới hạn của l
func Middleware(l *RateLimiter, message string) func(http.Handler) http.Handler {
	if message == "" {
		message = MsgTooManyRequests
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining := l.Allow(ClientIP(r))
			w.Header().Set("RateLimit-Limit", strconv.Itoa(l.Max()))
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(l.Window().Seconds())))
				respond.Fail(w, http.StatusTooManyRequests, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
