package rowstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

var _ Store = (*CachedStore)(nil)

const defaultCacheSize = 10 * 1024 * 1024

// CachedStore wraps a Store and caches ReadAll results of selected tables.
// Any append or EnsureTable on a cached table drops its entry.
type CachedStore struct {
	Store
	cache      *freecache.Cache
	ttlSeconds int
	tables     map[string]bool
}

func NewCachedStore(inner Store, ttl time.Duration, tables ...string) *CachedStore {
	cached := make(map[string]bool, len(tables))
	for _, t := range tables {
		cached[t] = true
	}

	return &CachedStore{
		Store:      inner,
		cache:      freecache.NewCache(defaultCacheSize),
		ttlSeconds: int(ttl.Seconds()),
		tables:     cached,
	}
}

func cacheKey(table string) []byte {
	return []byte("table::" + table)
}

func (s *CachedStore) ReadAll(ctx context.Context, table string) ([]Record, error) {
	if !s.tables[table] {
		return s.Store.ReadAll(ctx, table)
	}

	if raw, err := s.cache.Get(cacheKey(table)); err == nil {
		var records []Record
		if err := json.Unmarshal(raw, &records); err == nil {
			log.Tracef("row store cache hit for %s", table)
			return records, nil
		} else {
			log.Errorf("failed to unmarshal cached table %s: %s", table, err)
		}
	}

	records, err := s.Store.ReadAll(ctx, table)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(records)
	if err != nil {
		log.Errorf("failed to marshal table %s for cache: %s", table, err)
		return records, nil
	}
	if err := s.cache.Set(cacheKey(table), raw, s.ttlSeconds); err != nil {
		log.Errorf("failed to cache table %s: %s", table, err)
	}

	return records, nil
}

func (s *CachedStore) AppendRow(ctx context.Context, table string, row Row) error {
	return s.AppendRows(ctx, table, []Row{row})
}

func (s *CachedStore) AppendRows(ctx context.Context, table string, rows []Row) error {
	defer s.invalidate(table)
	return s.Store.AppendRows(ctx, table, rows)
}

func (s *CachedStore) DistinctValues(ctx context.Context, table, column string) ([]string, error) {
	return distinctValues(ctx, s, table, column)
}

func (s *CachedStore) EnsureTable(ctx context.Context, table string, header []string) error {
	defer s.invalidate(table)
	return s.Store.EnsureTable(ctx, table, header)
}

func (s *CachedStore) invalidate(table string) {
	if s.tables[table] {
		s.cache.Del(cacheKey(table))
	}
}
