package callhandler

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dbfsio/dbfs/internal/savedb"
)

// dbCache is the call handler's lazy, bounded directory→SaveDB map. A
// directory's SaveDB is created on first reference and kept open for as
// long as any handle references it (the "active" set); once the last such
// handle closes, the SaveDB moves to a bounded LRU of idle instances kept
// around for reuse, and only idle instances are ever evicted-and-closed.
// Eviction can never violate the invariant that a handle's directory has a
// live SaveDB, because an entry with open handles is never in the idle set
// to begin with.
type dbCache struct {
	mu            sync.Mutex
	active        map[string]*cacheEntry
	idle          *lru.Cache[string, *cacheEntry]
	reapEmptyDirs bool
	onOpen        func(dir string)
}

type cacheEntry struct {
	db   *savedb.SaveDB
	refs int
}

func newDBCache(capacity int, reapEmptyDirs bool) *dbCache {
	if capacity <= 0 {
		capacity = 1
	}
	c := &dbCache{active: make(map[string]*cacheEntry), reapEmptyDirs: reapEmptyDirs}
	idle, _ := lru.NewWithEvict[string, *cacheEntry](capacity, func(_ string, e *cacheEntry) {
		// An entry taken back into use by Acquire already has refs > 0 when
		// its removal from the idle set fires this callback; keep it open.
		if e.refs > 0 {
			return
		}
		e.db.Close()
	})
	c.idle = idle
	return c
}

// SetOnOpen registers a hook called the first time a directory's SaveDB is
// opened fresh (never on a cache hit), used to start watching the
// directory for external removal.
func (c *dbCache) SetOnOpen(fn func(dir string)) {
	c.onOpen = fn
}

// Acquire returns the SaveDB for dir, creating it if this is the first
// reference, and increments its refcount. Callers must pair every Acquire
// with a Release once the handle that prompted it closes.
func (c *dbCache) Acquire(dir string) (*savedb.SaveDB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.active[dir]; ok {
		e.refs++
		return e.db, nil
	}

	if e, ok := c.idle.Get(dir); ok {
		e.refs = 1
		c.idle.Remove(dir)
		c.active[dir] = e
		return e.db, nil
	}

	db, err := savedb.Open(dir, c.reapEmptyDirs)
	if err != nil {
		return nil, fmt.Errorf("callhandler: acquire savedb for %s: %w", dir, err)
	}
	e := &cacheEntry{db: db, refs: 1}
	c.active[dir] = e
	if c.onOpen != nil {
		c.onOpen(dir)
	}
	return db, nil
}

// Peek returns the SaveDB already active for dir without adjusting its
// refcount. It's for calls against a handle whose prior Open already holds
// the reference, so they don't need (and must not take) a second one.
func (c *dbCache) Peek(dir string) (*savedb.SaveDB, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.active[dir]
	if !ok {
		return nil, false
	}
	return e.db, true
}

// Release decrements dir's refcount; at zero, the SaveDB moves from the
// active set into the bounded idle LRU, where it may eventually be evicted
// and closed to bound total open connections.
func (c *dbCache) Release(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.active[dir]
	if !ok {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	delete(c.active, dir)
	c.idle.Add(dir, e)
}

// Evict removes dir from both the active and idle sets and closes its
// SaveDB unconditionally, regardless of refcount. dirwatch calls this when
// the containing directory has vanished out from under the process.
func (c *dbCache) Evict(dir string) {
	c.mu.Lock()
	e, active := c.active[dir]
	if active {
		delete(c.active, dir)
	}
	c.mu.Unlock()

	if active {
		e.db.Close()
		return
	}
	c.idle.Remove(dir) // triggers the onEvict close, if present
}

// CloseAll closes every SaveDB the cache currently holds, active or idle.
func (c *dbCache) CloseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for dir, e := range c.active {
		e.db.Close()
		delete(c.active, dir)
	}
	c.idle.Purge()
}
