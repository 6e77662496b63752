package impersonate

import (
	"context"
	"errors"
	"sync"

	"github.com/hashicorp/golang-lru/simplelru"
	utls "github.com/refraction-networking/utls"
	"golang.org/x/sync/singleflight"
)

// DefaultSessionCacheCapacity bounds the number of resumable sessions a
// connector wrapper keeps.
const DefaultSessionCacheCapacity = 8

// SessionCache is a bounded store of resumable TLS sessions shared by every
// connection made through one TLSConnector. Every operation, lookups
// included, takes the exclusive lock because a lookup also refreshes the
// entry's recency. When full, the least recently used session is evicted.
type SessionCache struct {
	mu       sync.Mutex
	lru      *simplelru.LRU
	capacity int
}

var _ utls.ClientSessionCache = (*SessionCache)(nil)

// NewSessionCache creates a cache holding at most capacity sessions.
func NewSessionCache(capacity int) (*SessionCache, error) {
	lru, err := simplelru.NewLRU(capacity, nil)
	if err != nil {
		return nil, err
	}
	return &SessionCache{lru: lru, capacity: capacity}, nil
}

// Get implements utls.ClientSessionCache.
func (c *SessionCache) Get(sessionKey string) (*utls.ClientSessionState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(sessionKey)
	if !ok {
		return nil, false
	}
	return v.(*utls.ClientSessionState), true
}

// Put implements utls.ClientSessionCache. A nil state removes the entry.
func (c *SessionCache) Put(sessionKey string, cs *utls.ClientSessionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cs == nil {
		c.lru.Remove(sessionKey)
		return
	}
	c.lru.Add(sessionKey, cs)
}

// Len returns the number of cached sessions.
func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Capacity returns the configured bound.
func (c *SessionCache) Capacity() int { return c.capacity }

// lazyCache creates the wrapper's SessionCache on first need. Concurrent
// first callers share a single initialisation and all observe its result.
// A failed initialisation is not stored, so a later call starts over.
type lazyCache struct {
	mu    sync.Mutex
	cache *SessionCache
	group singleflight.Group

	capacity int
	newCache func(capacity int) (*SessionCache, error)
	onCreate func()
}

func newLazyCache(capacity int) *lazyCache {
	return &lazyCache{capacity: capacity, newCache: NewSessionCache}
}

func (l *lazyCache) load() *SessionCache {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cache
}

// getOrCreate returns the shared cache, initialising it if needed. If ctx
// ends while waiting, getOrCreate returns ctx.Err() and the initialisation
// continues for the other callers.
func (l *lazyCache) getOrCreate(ctx context.Context) (*SessionCache, error) {
	if c := l.load(); c != nil {
		return c, nil
	}
	ch := l.group.DoChan("cache", func() (interface{}, error) {
		if c := l.load(); c != nil {
			return c, nil
		}
		c, err := l.newCache(l.capacity)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, errors.New("session cache constructor returned nil")
		}
		l.mu.Lock()
		l.cache = c
		l.mu.Unlock()
		if l.onCreate != nil {
			l.onCreate()
		}
		return c, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*SessionCache), nil
	}
}
