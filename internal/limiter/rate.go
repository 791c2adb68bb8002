package limiter

import (
	"sync"
	"time"
)

// Giới hạn số request của mỗi key (địa chỉ client) trong một cửa sổ trượt
type RateLimiter struct {
	requestTimes map[string][]time.Time
	maxRequests  int
	window       time.Duration
	lastPrune    time.Time
	now          func() time.Time
	mu           sync.Mutex
}

func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requestTimes: make(map[string][]time.Time),
		maxRequests:  maxRequests,
		window:       window,
		now:          time.Now,
	}
}

func (r *RateLimiter) Max() int {
	return r.maxRequests
}

func (r *RateLimiter) Window() time.Duration {
	return r.window
}

// Allow kiểm tra key có được thực hiện request mới hay không, trả thêm số lượt còn lại
func (r *RateLimiter) Allow(key string) (bool, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	windowStart := now.Add(-r.window)

	// Xóa các request cũ hơn cửa sổ
	times := r.requestTimes[key]
	validTimes := times[:0]
	for _, t := range times {
		if t.After(windowStart) {
			validTimes = append(validTimes, t)
		}
	}

	// Nếu số lượng request trong cửa sổ nhỏ hơn giới hạn thì add request mới và cho phép thực hiện
	allowed := len(validTimes) < r.maxRequests
	if allowed {
		validTimes = append(validTimes, now)
	}
	r.requestTimes[key] = validTimes

	if now.Sub(r.lastPrune) > r.window {
		r.prune(windowStart)
		r.lastPrune = now
	}

	return allowed, r.maxRequests - len(validTimes)
}

// prune bỏ các key không còn request nào trong cửa sổ
func (r *RateLimiter) prune(windowStart time.Time) {
	for key, times := range r.requestTimes {
		if len(times) == 0 || !times[len(times)-1].After(windowStart) {
			delete(r.requestTimes, key)
		}
	}
}

func (r *RateLimiter) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requestTimes)
}
