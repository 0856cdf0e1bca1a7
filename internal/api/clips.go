package api

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/MrWong99/lingoxa/internal/observe"
	"github.com/MrWong99/lingoxa/pkg/audio"
)

// DefaultClipCapacity is the number of clips a [ClipCache] keeps when no
// capacity is configured.
const DefaultClipCapacity = 64

// ClipCache holds synthesised clips until the client downloads them. It
// keeps at most capacity clips and evicts the oldest first. Clips stay
// available after download so the client can replay them.
type ClipCache struct {
	mu       sync.Mutex
	capacity int
	order    []string
	clips    map[string]audio.Clip
	metrics  *observe.Metrics
}

// NewClipCache returns a cache for capacity clips. Values below 1 select
// [DefaultClipCapacity]. A nil m records on [observe.DefaultMetrics].
func NewClipCache(capacity int, m *observe.Metrics) *ClipCache {
	if capacity < 1 {
		capacity = DefaultClipCapacity
	}
	if m == nil {
		m = observe.DefaultMetrics()
	}
	return &ClipCache{
		capacity: capacity,
		clips:    make(map[string]audio.Clip, capacity),
		metrics:  m,
	}
}

// Put stores c and returns its id.
func (cc *ClipCache) Put(ctx context.Context, c audio.Clip) string {
	id := ulid.Make().String()

	cc.mu.Lock()
	defer cc.mu.Unlock()
	evicted := 0
	for len(cc.order) >= cc.capacity {
		delete(cc.clips, cc.order[0])
		cc.order = cc.order[1:]
		evicted++
	}
	cc.order = append(cc.order, id)
	cc.clips[id] = c
	cc.metrics.CachedClips.Add(ctx, int64(1-evicted))
	return id
}

// Get returns the clip stored under id.
func (cc *ClipCache) Get(id string) (audio.Clip, bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	c, ok := cc.clips[id]
	return c, ok
}

// Len returns the number of cached clips.
func (cc *ClipCache) Len() int {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return len(cc.order)
}
