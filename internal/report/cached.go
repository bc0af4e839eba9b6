package report

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Cached serves reports from an LRU cache keyed by owner. Concurrent misses
// for the same key share one store read. Any change by an owner drops all of
// that owner's entries. A load that was in flight when the owner changed
// returns its result but does not store it.
type Cached struct {
	next   Reporter
	today  func() core.Date
	cache  cache.Cache[[]core.Transaction]
	group  singleflight.Group
	logger *log.Logger

	mu   sync.Mutex
	gens map[core.UserID]uint64 // bumped on every change of the owner
}

var (
	_ Reporter        = (*Cached)(nil)
	_ core.ChangeSink = (*Cached)(nil)
)

// NewCached wraps next. today must agree with the wrapped engine's clock.
func NewCached(next Reporter, today func() core.Date, c cache.Cache[[]core.Transaction], logger *log.Logger) *Cached {
	if logger == nil {
		logger = log.Default()
	}
	return &Cached{
		next:   next,
		today:  today,
		cache:  c,
		logger: logger.WithComponent(log.ComponentCache),
		gens:   make(map[core.UserID]uint64),
	}
}

func ownerPrefix(identity core.UserID) string {
	return strconv.FormatInt(int64(identity), 10) + ":"
}

func (c *Cached) Report(ctx context.Context, identity core.UserID, w Window) ([]core.Transaction, error) {
	key := fmt.Sprintf("%s%s:%s", ownerPrefix(identity), w, c.today())
	return c.load(ctx, identity, key, func() ([]core.Transaction, error) {
		return c.next.Report(ctx, identity, w)
	})
}

func (c *Cached) ByCategory(ctx context.Context, identity core.UserID, categoryID int64) ([]core.Transaction, error) {
	key := fmt.Sprintf("%scategory:%d", ownerPrefix(identity), categoryID)
	return c.load(ctx, identity, key, func() ([]core.Transaction, error) {
		return c.next.ByCategory(ctx, identity, categoryID)
	})
}

func (c *Cached) generation(owner core.UserID) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[owner]
}

func (c *Cached) load(ctx context.Context, owner core.UserID, key string, fetch func() ([]core.Transaction, error)) ([]core.Transaction, error) {
	if txs, ok := c.cache.Get(key); ok {
		c.logger.DebugContext(ctx, "Report cache hit", "key", key)
		return slices.Clone(txs), nil
	}

	// Callers arriving after a change never join a load started before it.
	gen := c.generation(owner)
	v, err, _ := c.group.Do(key+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		txs, err := fetch()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gens[owner] == gen {
			c.cache.Set(key, txs)
		}
		c.mu.Unlock()
		return txs, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]core.Transaction)), nil
}

// Notify drops every cached report of the change's owner.
func (c *Cached) Notify(ctx context.Context, ch core.Change) error {
	c.mu.Lock()
	c.gens[ch.Owner]++
	n := c.cache.DeletePrefix(ownerPrefix(ch.Owner))
	c.mu.Unlock()
	if n > 0 {
		c.logger.DebugContext(ctx, "Report cache invalidated", log.FieldChangeKind, ch.Kind, log.FieldCount, n)
	}
	return nil
}
