package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newLimitedHandler wraps a trivial ops handler with rate limiting
// backed by a fresh miniredis. Callers own the returned redis client;
// miniredis itself is cleaned up with the test.
func newLimitedHandler(t *testing.T, limit int) (http.Handler, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            time.Second,
		KeyPrefix:         "ratelimit:ops",
	}

	handler := RateLimitMiddleware(client, cfg, zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)
	return handler, client
}

func statsRequest(remoteAddr string) *http.Request {
	req := httptest.NewRequest("GET", "/api/catalog/stats", nil)
	req.RemoteAddr = remoteAddr
	return req
}

// Property: within one window a client gets exactly the configured
// number of requests through; everything beyond that is a 429.
func TestProperty_RateLimitBlocksExcessRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("excess requests are blocked with 429", prop.ForAll(
		func(limit int, excess int) bool {
			// Fresh fixture per iteration, closed eagerly so a long
			// gopter run does not pile up listeners
			mr, err := miniredis.Run()
			require.NoError(t, err)
			defer mr.Close()

			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			defer client.Close()

			handler := RateLimitMiddleware(client, RateLimitConfig{
				RequestsPerWindow: limit,
				Window:            time.Second,
				KeyPrefix:         "ratelimit:ops",
			}, zap.NewNop())(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				}),
			)

			allowed := 0
			blocked := 0
			for i := 0; i < limit+excess; i++ {
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, statsRequest("10.0.0.1:5000"))

				switch w.Code {
				case http.StatusOK:
					allowed++
				case http.StatusTooManyRequests:
					blocked++
				}
			}

			return allowed == limit && blocked == excess
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimitTracksClientsIndependently(t *testing.T) {
	handler, _ := newLimitedHandler(t, 1)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, statsRequest("10.0.0.1:5000"))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, statsRequest("10.0.0.1:5000"))
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	// A different client still has its full budget
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, statsRequest("10.0.0.2:5000"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitHeaders(t *testing.T) {
	handler, _ := newLimitedHandler(t, 2)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, statsRequest("10.0.0.1:5000"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, statsRequest("10.0.0.1:5000"))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, statsRequest("10.0.0.1:5000"))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
}

// Redis going away must not take the ops API down with it
func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	handler, client := newLimitedHandler(t, 1)
	require.NoError(t, client.Close())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, statsRequest("10.0.0.1:5000"))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
