package catalog

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"parts-bot/internal/domain"
	"parts-bot/internal/feed"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshInterval bounds how often the upstream feed is hit
const DefaultRefreshInterval = 60 * time.Second

// snapshotState pairs an immutable snapshot with its lookup index.
// Built once per refresh, never mutated afterwards.
type snapshotState struct {
	snapshot domain.Snapshot
	byCode   map[string]int
}

// Cache owns the authoritative product list, refreshed from the feed
// no more than once per refresh interval. All lookups read one fully
// formed snapshot; replacement is an atomic pointer swap.
type Cache struct {
	fetcher         feed.Fetcher
	refreshInterval time.Duration
	logger          *zap.Logger

	state atomic.Pointer[snapshotState]
	sfg   singleflight.Group
}

// Stats describes the current snapshot for the operational API
type Stats struct {
	ProductCount int           `json:"product_count"`
	LoadedAt     time.Time     `json:"loaded_at"`
	Age          time.Duration `json:"age"`
	Empty        bool          `json:"empty"`
}

// New creates a catalog cache. A non-positive interval falls back to
// the default 60s bound.
func New(fetcher feed.Fetcher, refreshInterval time.Duration, logger *zap.Logger) *Cache {
	if refreshInterval <= 0 {
		refreshInterval = DefaultRefreshInterval
	}
	return &Cache{
		fetcher:         fetcher,
		refreshInterval: refreshInterval,
		logger:          logger,
	}
}

// Current returns the freshest available snapshot, refreshing from the
// feed if the held one is older than the refresh interval. A failed
// refresh is logged and the stale snapshot is served; callers always
// get a best-effort snapshot, possibly empty on first-ever failure.
func (c *Cache) Current(ctx context.Context) *domain.Snapshot {
	state := c.state.Load()
	if state != nil && time.Since(state.snapshot.LoadedAt) <= c.refreshInterval {
		return &state.snapshot
	}

	// Concurrent stale readers collapse into one upstream fetch.
	c.sfg.Do("refresh", func() (interface{}, error) {
		// Re-check under the flight: another caller may have just
		// finished a refresh while we waited to enter.
		cur := c.state.Load()
		if cur != nil && time.Since(cur.snapshot.LoadedAt) <= c.refreshInterval {
			return nil, nil
		}
		c.refresh(ctx)
		return nil, nil
	})

	state = c.state.Load()
	if state == nil {
		return &domain.Snapshot{}
	}
	return &state.snapshot
}

// ForceRefresh bypasses the staleness check and reloads the feed now.
// It runs under its own flight key: joining a staleness-triggered
// refresh already in progress would skip the forced reload entirely.
// Used by the operational API.
func (c *Cache) ForceRefresh(ctx context.Context) error {
	_, err, _ := c.sfg.Do("force-refresh", func() (interface{}, error) {
		return nil, c.refresh(ctx)
	})
	return err
}

func (c *Cache) refresh(ctx context.Context) error {
	raw, err := c.fetcher.Fetch(ctx)
	if err != nil {
		c.logFailure("feed fetch failed", err)
		return err
	}

	products, err := feed.Parse(raw)
	if err != nil {
		c.logFailure("feed parse failed", err)
		return err
	}

	// Duplicate codes in one load: last row wins, silently. The index
	// is built forward so a later row overwrites an earlier one.
	byCode := make(map[string]int, len(products))
	for i, p := range products {
		byCode[normalizeCode(p.Code)] = i
	}

	c.state.Store(&snapshotState{
		snapshot: domain.Snapshot{
			Products: products,
			LoadedAt: time.Now(),
		},
		byCode: byCode,
	})

	c.logger.Info("catalog refreshed", zap.Int("products", len(products)))
	return nil
}

// logFailure distinguishes the one hard operational fault (no catalog
// at all) from an ordinary stale-feed condition.
func (c *Cache) logFailure(msg string, err error) {
	if c.state.Load() == nil {
		c.logger.Error(msg+", catalog is empty", zap.Error(err))
		return
	}
	c.logger.Warn(msg+", serving stale snapshot", zap.Error(err))
}

// FindByCode returns the product whose code matches the query,
// case-insensitive and whitespace-trimmed. The second result is false
// when no such product exists in the current snapshot.
func (c *Cache) FindByCode(ctx context.Context, code string) (domain.Product, bool) {
	c.Current(ctx)

	state := c.state.Load()
	if state == nil {
		return domain.Product{}, false
	}

	i, ok := state.byCode[normalizeCode(code)]
	if !ok {
		return domain.Product{}, false
	}
	return state.snapshot.Products[i], true
}

// FindByModel returns every product tagged with the given model,
// case-insensitive exact match, in snapshot order.
func (c *Cache) FindByModel(ctx context.Context, model string) []domain.Product {
	snap := c.Current(ctx)

	want := strings.ToLower(strings.TrimSpace(model))
	var result []domain.Product
	for _, p := range snap.Products {
		if strings.ToLower(p.Model) == want {
			result = append(result, p)
		}
	}
	return result
}

// SearchByName returns products whose display name contains the query,
// case-insensitive. An empty query yields no results, not all records.
func (c *Cache) SearchByName(ctx context.Context, query string) []domain.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	snap := c.Current(ctx)

	var result []domain.Product
	for _, p := range snap.Products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			result = append(result, p)
		}
	}
	return result
}

// ModelTags returns the distinct non-empty model tags of the current
// snapshot, lexicographically sorted.
func (c *Cache) ModelTags(ctx context.Context) []string {
	snap := c.Current(ctx)

	seen := make(map[string]struct{})
	var tags []string
	for _, p := range snap.Products {
		if p.Model == "" {
			continue
		}
		if _, ok := seen[p.Model]; ok {
			continue
		}
		seen[p.Model] = struct{}{}
		tags = append(tags, p.Model)
	}

	sort.Strings(tags)
	return tags
}

// Stats reports the state of the current snapshot without refreshing
func (c *Cache) Stats() Stats {
	state := c.state.Load()
	if state == nil {
		return Stats{Empty: true}
	}
	return Stats{
		ProductCount: len(state.snapshot.Products),
		LoadedAt:     state.snapshot.LoadedAt,
		Age:          time.Since(state.snapshot.LoadedAt),
		Empty:        len(state.snapshot.Products) == 0,
	}
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
