package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestKeyed_AllowRespectsBurst(t *testing.T) {
	k := New(rate.Limit(0.001), 2)
	defer k.Close()

	assert.True(t, k.Allow("Brave Curie"))
	assert.True(t, k.Allow("Brave Curie"))
	assert.False(t, k.Allow("Brave Curie"))

	assert.True(t, k.Allow("Jolly Knuth"), "keys must not share a bucket")
}

func TestKeyed_GetLimiterReusesInstance(t *testing.T) {
	k := New(rate.Limit(1), 1)
	defer k.Close()

	assert.Same(t, k.GetLimiter("a"), k.GetLimiter("a"))
	assert.Equal(t, 1, k.Len())
}

func TestKeyed_SweepDropsIdleLimiters(t *testing.T) {
	k := New(rate.Limit(1), 1)
	defer k.Close()

	k.GetLimiter("idle")
	k.Allow("busy")

	removed := k.sweepAt(time.Now())

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, k.Len())
}

func TestKeyed_CloseIsIdempotent(t *testing.T) {
	k := New(rate.Limit(1), 1)
	k.Close()
	assert.NotPanics(t, k.Close)
}

func TestKeyed_Middleware(t *testing.T) {
	k := New(rate.Limit(0.001), 1)
	defer k.Close()

	h := k.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/download?file=a", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
