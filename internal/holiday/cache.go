package holiday

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tOgg1/autostamp/internal/db"
	"github.com/tOgg1/autostamp/internal/models"
)

// Store persists holiday decisions. db.HolidayRepository implements it.
type Store interface {
	Get(ctx context.Context, date string) (*models.HolidayRecord, error)
	Put(ctx context.Context, record *models.HolidayRecord) error
}

// Cache keeps decisions per date in memory, backed by an optional Store.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Result
	store   Store
}

// NewCache creates a cache. store may be nil.
func NewCache(store Store) *Cache {
	return &Cache{
		entries: make(map[string]Result),
		store:   store,
	}
}

// Get returns the cached decision for date. Memory is checked before the
// store; store hits are promoted into memory.
func (c *Cache) Get(ctx context.Context, date string) (Result, bool, error) {
	c.mu.RLock()
	result, ok := c.entries[date]
	c.mu.RUnlock()
	if ok {
		return result, true, nil
	}
	if c.store == nil {
		return Result{}, false, nil
	}

	record, err := c.store.Get(ctx, date)
	if errors.Is(err, db.ErrHolidayNotFound) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}

	result = Result{Holiday: record.Holiday, Reason: record.Reason, Source: Source(record.Source)}
	c.mu.Lock()
	c.entries[date] = result
	c.mu.Unlock()
	return result, true, nil
}

// Put stores the decision in memory and, when configured, in the store.
// The memory entry is kept even if the store write fails.
func (c *Cache) Put(ctx context.Context, date string, result Result) error {
	c.mu.Lock()
	c.entries[date] = result
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.Put(ctx, &models.HolidayRecord{
		Date:      date,
		Holiday:   result.Holiday,
		Reason:    result.Reason,
		Source:    string(result.Source),
		CheckedAt: time.Now().UTC(),
	})
}

// Len returns the number of in-memory entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
