package services

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"bloom-portal/internal/config"
	"bloom-portal/internal/logger"

	"github.com/benbjohnson/clock"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

// QueryKey identifies a cached read: entity type, optional id, optional
// sub-resource.
type QueryKey []string

func (k QueryKey) String() string {
	return strings.Join(k, "/")
}

// HasPrefix reports whether prefix matches the leading elements of k.
func (k QueryKey) HasPrefix(prefix QueryKey) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Query keys shared by the portal
var (
	TenantsKey  = QueryKey{"tenants"}
	DomainsKey  = QueryKey{"domains"}
	ServicesKey = QueryKey{"services"}
	CatalogKey  = QueryKey{"catalog"}
)

// TenantKey is the key of a single tenant
func TenantKey(id string) QueryKey { return QueryKey{"tenants", id} }

// ServiceKey is the key of a single service
func ServiceKey(id string) QueryKey { return QueryKey{"services", id} }

// ServiceTablesKey is the key of a service's configured tables
func ServiceTablesKey(id string) QueryKey { return QueryKey{"services", id, "tables"} }

// ServiceConfigurationKey is the key of a service's published configuration
func ServiceConfigurationKey(id string) QueryKey {
	return QueryKey{"services", id, "configuration"}
}

type cacheEntry struct {
	key       QueryKey
	value     interface{}
	fetchedAt time.Time

	// set once a background refresh of this entry has started
	refreshing atomic.Bool
}

// QueryClient caches reads with per-query stale windows, shares concurrent
// fetches of the same key and invalidates by key prefix after mutations.
type QueryClient struct {
	entries *gocache.Cache
	flight  singleflight.Group
	clock   clock.Clock
	logger  *logger.Logger

	// generation per key string, bumped when the key is invalidated
	mu          sync.Mutex
	generations map[string]uint64
	keys        map[string]QueryKey

	refreshes sync.WaitGroup

	requests      *prometheus.CounterVec
	invalidations prometheus.Counter
	fetchErrors   prometheus.Counter
}

// NewQueryClient creates a query client. Entries not touched within the
// retention window are dropped.
func NewQueryClient(cfg *config.Config, clk clock.Clock, log *logger.Logger, registerer prometheus.Registerer) *QueryClient {
	retention := time.Duration(cfg.Cache.Retention) * time.Second
	if retention <= 0 {
		retention = 30 * time.Minute
	}

	factory := promauto.With(registerer)
	return &QueryClient{
		entries:     gocache.New(retention, retention/2),
		clock:       clk,
		logger:      log,
		generations: make(map[string]uint64),
		keys:        make(map[string]QueryKey),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_query_cache_requests_total",
			Help: "Query cache lookups by result (hit, stale, miss)",
		}, []string{"result"}),
		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Name: "portal_query_cache_invalidations_total",
			Help: "Cache entries removed by invalidation",
		}),
		fetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "portal_query_cache_fetch_errors_total",
			Help: "Fetches that returned an error",
		}),
	}
}

// Query returns the cached value for key, fetching it when absent. A value
// older than staleTime is returned as is while one background refetch
// replaces it.
func Query[T any](ctx context.Context, q *QueryClient, key QueryKey, staleTime time.Duration, fetch func(ctx context.Context) (T, error)) (T, error) {
	load := func(ctx context.Context) (interface{}, error) {
		return fetch(ctx)
	}

	if cached, ok := q.entries.Get(key.String()); ok {
		entry := cached.(*cacheEntry)
		if value, ok := entry.value.(T); ok {
			if q.clock.Since(entry.fetchedAt) < staleTime {
				q.requests.WithLabelValues("hit").Inc()
				return value, nil
			}
			q.requests.WithLabelValues("stale").Inc()
			if entry.refreshing.CompareAndSwap(false, true) {
				q.refresh(ctx, entry, load)
			}
			return value, nil
		}
	}

	q.requests.WithLabelValues("miss").Inc()
	var zero T
	value, err := q.load(ctx, key, load)
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("cached value for %s has type %T", key, value)
	}
	return typed, nil
}

// load runs or joins the shared fetch for key and waits for it unless ctx
// ends first. The fetch itself is detached from ctx.
func (q *QueryClient) load(ctx context.Context, key QueryKey, fetch func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := q.start(ctx, key, fetch)
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// refresh replaces a stale entry in the background. A failed refresh lets
// the next stale read try again.
func (q *QueryClient) refresh(ctx context.Context, entry *cacheEntry, fetch func(context.Context) (interface{}, error)) {
	ch := q.start(ctx, entry.key, fetch)
	q.refreshes.Add(1)
	go func() {
		defer q.refreshes.Done()
		if res := <-ch; res.Err != nil {
			entry.refreshing.Store(false)
			q.logger.WithField("query_key", entry.key.String()).WithError(res.Err).Warn("Background refresh failed")
		}
	}()
}

func (q *QueryClient) start(ctx context.Context, key QueryKey, fetch func(context.Context) (interface{}, error)) <-chan singleflight.Result {
	generation := q.generationOf(key)
	flightKey := fmt.Sprintf("%s#%d", key, generation)
	detached := context.WithoutCancel(ctx)

	return q.flight.DoChan(flightKey, func() (interface{}, error) {
		value, err := fetch(detached)
		if err != nil {
			q.fetchErrors.Inc()
			return nil, err
		}
		q.store(key, value, generation)
		return value, nil
	})
}

// store writes value unless an invalidation happened since the fetch began.
// A nil pointer means the entity was not found and is never cached, so the
// next read fetches again.
func (q *QueryClient) store(key QueryKey, value interface{}, generation uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if generation != q.generations[key.String()] {
		return
	}
	if isNilPointer(value) {
		q.entries.Delete(key.String())
		return
	}
	q.entries.SetDefault(key.String(), &cacheEntry{key: key, value: value, fetchedAt: q.clock.Now()})
}

func isNilPointer(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

func (q *QueryClient) generationOf(key QueryKey) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	k := key.String()
	if _, ok := q.keys[k]; !ok {
		q.keys[k] = key
	}
	return q.generations[k]
}

// Invalidate drops every entry whose key starts with one of prefixes.
// In-flight fetches will not write their results back.
func (q *QueryClient) Invalidate(prefixes ...QueryKey) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for k, key := range q.keys {
		for _, prefix := range prefixes {
			if key.HasPrefix(prefix) {
				q.generations[k]++
				if _, ok := q.entries.Get(k); ok {
					q.entries.Delete(k)
					q.invalidations.Inc()
				}
				break
			}
		}
	}
}

// Mutate runs fn and invalidates prefixes only if it succeeds. fn is not
// canceled when ctx ends.
func (q *QueryClient) Mutate(ctx context.Context, fn func(ctx context.Context) error, prefixes ...QueryKey) error {
	if err := fn(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	q.Invalidate(prefixes...)
	return nil
}

// Peek returns the cached value for key without fetching.
func (q *QueryClient) Peek(key QueryKey) (interface{}, bool) {
	cached, ok := q.entries.Get(key.String())
	if !ok {
		return nil, false
	}
	return cached.(*cacheEntry).value, true
}

// Wait blocks until background refreshes finish.
func (q *QueryClient) Wait() {
	q.refreshes.Wait()
}
