package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"parts-bot/internal/cart"
	"parts-bot/internal/catalog"
	"parts-bot/internal/service"
	"parts-bot/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticFeed []byte

func (f staticFeed) Fetch(context.Context) ([]byte, error) {
	return f, nil
}

func newTestRouter(t *testing.T) (chi.Router, *cart.Store) {
	t.Helper()

	payload := staticFeed(`[
		{"article": "A-1", "name": "Drive belt", "wholesale": "1 000", "retail": "1 200", "photo": "", "stock": "5", "model": "Alpha"},
		{"article": "B-2", "name": "Brake pad", "wholesale": "500", "retail": "600", "photo": "", "stock": "3", "model": "Beta"}
	]`)

	logger := zap.NewNop()
	cat := catalog.New(payload, time.Hour, logger)
	store := cart.NewStore()
	sessions := session.NewRegistry(cat, store)
	bot := service.NewBotService(
		cat, store, sessions,
		NewLogPresenter(logger, service.NewMediaCache()), JSONExporter{}, UnconfiguredTranscriber{},
		"admin", 5, logger,
	)

	router := chi.NewRouter()
	NewOpsHandler(cat, bot, logger).RegisterRoutes(router)
	return router, store
}

func TestStatsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	// Warm the cache through the models endpoint first
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/catalog/models", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/catalog/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats catalog.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.ProductCount)
	assert.False(t, stats.Empty)
}

func TestModelsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/catalog/models", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Models []string `json:"models"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"Alpha", "Beta"}, body.Models)
}

func TestRefreshEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/catalog/refresh", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"refreshed":true`)
}

func TestImportEndpoint(t *testing.T) {
	router, store := newTestRouter(t)

	body := `{"rows": [
		{"code": "A-1", "quantity": 2},
		{"code": "NOPE", "quantity": 1},
		{"code": "B-2", "quantity": 99}
	]}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/users/u1/import", strings.NewReader(body))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var report service.ImportReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Added)
	assert.Len(t, report.Failures, 2)

	assert.Equal(t, 2, store.Quantity("u1", "A-1"))
}

func TestImportEndpointKeepsBatchOnBadRow(t *testing.T) {
	router, store := newTestRouter(t)

	body := `{"rows": [
		{"code": "A-1", "quantity": 2},
		{"code": "B-2", "quantity": 0}
	]}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/users/u1/import", strings.NewReader(body))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var report service.ImportReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Added)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "B-2", report.Failures[0].Code)
	assert.Equal(t, service.ReasonInvalidQuantity, report.Failures[0].Reason)

	assert.Equal(t, 2, store.Quantity("u1", "A-1"))
}

func TestImportEndpointRejectsEmptyPayload(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/users/u1/import", strings.NewReader(`{"rows": []}`))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/users/u1/import", strings.NewReader(`not json`))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
