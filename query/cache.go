package query

import (
	"container/list"
	"log/slog"
	"sync"

	"github.com/darshanpandit/tidyfaf/reader"
)

// DataLoader is the external collaborator that reads a dataset with
// optional column projection and predicate pushdown. Satisfied by
// *reader.Loader; tests substitute in-memory stubs.
type DataLoader interface {
	Load(ds reader.Dataset, columns []string, predicates []reader.Predicate) ([]map[string]interface{}, error)
}

// Cache is the two-level query cache.
//
// The dataset store keeps whole loaded tables keyed by dataset
// identity; entries live until ClearAll and are never evicted by
// policy. The result store keeps finished query results keyed by
// Result Signature under a true LRU discipline: both reads and writes
// move an entry to most-recently-used, and inserting at capacity
// evicts the least-recently-used entry.
//
// Every table that crosses the cache boundary is deep-copied in both
// directions, so callers can never mutate cached state. A single
// mutex guards both stores; the reposition/evict/insert sequences are
// read-modify-write and must not interleave.
type Cache struct {
	mu         sync.Mutex
	loader     DataLoader
	logger     *slog.Logger
	maxResults int

	datasets map[reader.Dataset][]map[string]interface{}
	results  map[string]*list.Element
	order    *list.List // front = most recently used
}

type resultEntry struct {
	sig string
	res *Result
}

// DefaultMaxResults is the result-store capacity used when no option
// overrides it.
const DefaultMaxResults = 100

// CacheOption configures cache construction.
type CacheOption func(*Cache)

// WithMaxResults bounds the result store to n entries.
func WithMaxResults(n int) CacheOption {
	return func(c *Cache) { c.maxResults = n }
}

// WithDataDir points the default parquet loader at a data directory.
func WithDataDir(dir string) CacheOption {
	return func(c *Cache) { c.loader = reader.NewLoader(dir) }
}

// WithLoader replaces the data loader.
func WithLoader(l DataLoader) CacheOption {
	return func(c *Cache) { c.loader = l }
}

// WithLogger sets the logger for dataset loads and warnings.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) { c.logger = logger }
}

// NewCache creates a cache reading through the given loader.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		maxResults: DefaultMaxResults,
		datasets:   make(map[reader.Dataset][]map[string]interface{}),
		results:    make(map[string]*list.Element),
		order:      list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.loader == nil {
		c.loader = reader.NewLoader("")
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

var (
	defaultCache     *Cache
	defaultCacheOnce sync.Once
)

// DefaultCache returns the process-wide cache, creating it on first
// use with default options. Builders constructed without WithCache use
// it.
func DefaultCache() *Cache {
	defaultCacheOnce.Do(func() {
		defaultCache = NewCache()
	})
	return defaultCache
}

// Raw returns the full table for a dataset, loading and caching it on
// first access.
func (c *Cache) Raw(ds reader.Dataset) ([]map[string]interface{}, error) {
	c.mu.Lock()
	rows, ok := c.datasets[ds]
	c.mu.Unlock()
	if ok {
		return rows, nil
	}

	c.logger.Info("loading dataset", "dataset", string(ds))
	rows, err := c.loader.Load(ds, nil, nil)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.datasets[ds] = rows
	c.mu.Unlock()
	return rows, nil
}

// Dataset returns a dataset table honoring the read plan. If the full
// table is already resident, column projection is applied in memory
// and row predicates are left to the caller's in-memory filter stage;
// otherwise the loader is invoked with both so pruning happens before
// the table materializes. The result is not retained.
func (c *Cache) Dataset(ds reader.Dataset, columns []string, predicates []reader.Predicate) ([]map[string]interface{}, error) {
	c.mu.Lock()
	resident, ok := c.datasets[ds]
	c.mu.Unlock()

	if ok {
		if columns == nil {
			return resident, nil
		}
		keep := make(map[string]bool, len(columns))
		for _, col := range columns {
			keep[col] = true
		}
		out := make([]map[string]interface{}, len(resident))
		for i, row := range resident {
			projected := make(map[string]interface{}, len(columns))
			for col, v := range row {
				if keep[col] {
					projected[col] = v
				}
			}
			out[i] = projected
		}
		return out, nil
	}

	c.logger.Info("loading dataset", "dataset", string(ds), "columns", len(columns), "predicates", len(predicates))
	return c.loader.Load(ds, columns, predicates)
}

// GetResult returns a deep copy of the cached result for a signature,
// repositioning the entry to most-recently-used.
func (c *Cache) GetResult(sig string) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.results[sig]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*resultEntry).res.clone(), true
}

// PutResult stores a deep copy of a result under a signature, evicting
// the least-recently-used entry when at capacity.
func (c *Cache) PutResult(sig string, res *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.results[sig]; ok {
		elem.Value.(*resultEntry).res = res.clone()
		c.order.MoveToFront(elem)
		return
	}
	if c.maxResults > 0 && len(c.results) >= c.maxResults {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.results, oldest.Value.(*resultEntry).sig)
		}
	}
	c.results[sig] = c.order.PushFront(&resultEntry{sig: sig, res: res.clone()})
}

// Preload pulls a full table into the dataset store ahead of queries
// that will need it.
func (c *Cache) Preload(ds reader.Dataset) error {
	_, err := c.Raw(ds)
	return err
}

// ResultCount returns the number of cached results.
func (c *Cache) ResultCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

// Clear empties the result store, keeping resident datasets. A no-op
// when already empty.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = make(map[string]*list.Element)
	c.order.Init()
}

// ClearAll empties both stores. A no-op when already empty.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.datasets = make(map[reader.Dataset][]map[string]interface{})
	c.results = make(map[string]*list.Element)
	c.order.Init()
}
