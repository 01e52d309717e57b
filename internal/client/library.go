package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrStale marks a refresh whose response arrived after a newer refresh was
// issued. The stale result is discarded; the cached list is whatever the
// newest completed refresh produced.
var ErrStale = errors.New("stale response discarded")

// Library caches the fetched episode list and guards concurrent refreshes
// with a monotonic request generation: last-issued wins, stale completions
// are dropped instead of clobbering newer data.
type Library struct {
	client *Client

	gen      atomic.Uint64
	mu       sync.Mutex
	episodes []Episode
	loaded   bool
}

func NewLibrary(c *Client) *Library {
	return &Library{client: c}
}

// Refresh fetches the episode list. If another Refresh was issued while
// this one was in flight, the result is discarded and ErrStale returned.
func (l *Library) Refresh(ctx context.Context) ([]Episode, error) {
	gen := l.gen.Add(1)

	episodes, err := l.client.ListEpisodes(ctx)

	if l.gen.Load() != gen {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Re-check under the lock so two completions cannot interleave.
	if l.gen.Load() != gen {
		return nil, ErrStale
	}
	l.episodes = episodes
	l.loaded = true
	return episodes, nil
}

// Episodes returns the cached list from the newest completed refresh.
func (l *Library) Episodes() ([]Episode, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.episodes, l.loaded
}

// Latest returns up to n newest episodes for a landing view. The full list
// order is unaffected.
func (l *Library) Latest(n int) []Episode {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.episodes) {
		n = len(l.episodes)
	}
	out := make([]Episode, n)
	copy(out, l.episodes[:n])
	return out
}
