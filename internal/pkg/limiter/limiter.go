/*
Package limiter provides keyed token-bucket rate limiting.

The chat session keys it by identity to cap outbound messages; the local viewer
keys it by client IP to protect the download proxy. Idle limiters are swept by a
background goroutine that stops on Close.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"chatterbox/internal/pkg/errs"
	"chatterbox/internal/pkg/logx"
	"chatterbox/internal/pkg/resp"
)

const sweepInterval = 3 * time.Minute

// Keyed holds one *rate.Limiter per key.
type Keyed struct {
	// mu protects limits.
	mu sync.RWMutex

	// limits maps a key to its limiter.
	limits map[string]*rate.Limiter

	// r is the refill rate in events per second.
	r rate.Limit

	// b is the bucket size.
	b int

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Keyed limiter allowing r events per second with burst b
// and starts its sweeper.
func New(r rate.Limit, b int) *Keyed {
	k := &Keyed{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
		done:   make(chan struct{}),
	}

	go k.sweep()

	return k
}

// GetLimiter returns the limiter for key, creating it on first use.
func (k *Keyed) GetLimiter(key string) *rate.Limiter {
	k.mu.RLock()
	limiter, exists := k.limits[key]
	k.mu.RUnlock()

	if !exists {
		k.mu.Lock()
		limiter, exists = k.limits[key]
		if !exists {
			limiter = rate.NewLimiter(k.r, k.b)
			k.limits[key] = limiter
		}
		k.mu.Unlock()
	}

	return limiter
}

// Allow reports whether one event for key may happen now.
func (k *Keyed) Allow(key string) bool {
	return k.GetLimiter(key).Allow()
}

// Len returns the number of tracked keys.
func (k *Keyed) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.limits)
}

// Close stops the sweeper. It is safe to call more than once.
func (k *Keyed) Close() {
	k.closeOnce.Do(func() { close(k.done) })
}

// sweep periodically drops limiters whose bucket is full again.
func (k *Keyed) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-k.done:
			return
		case now := <-ticker.C:
			removed := k.sweepAt(now)
			logx.Debug("Rate limiter sweep finished", "removed", removed, "remaining", k.Len())
		}
	}
}

func (k *Keyed) sweepAt(now time.Time) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	count := 0
	for key, limiter := range k.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(k.limits, key)
			count++
		}
	}
	return count
}

// Middleware rate limits requests by client IP and answers 429 when exceeded.
func (k *Keyed) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !k.Allow(ip) {
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
