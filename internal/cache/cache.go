package cache

import (
	"log/slog"
	"time"
)

// Cache is the read/write surface the dashboard caches expose.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Purge()
	Size() int
}

// Cleaner is implemented by caches whose expired entries can be swept.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps registered caches on a fixed interval so entries past
// their TTL do not linger until the next read touches them.
type Manager struct {
	cleaners []Cleaner
	stop     chan struct{}
	done     chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Register adds a cache to the sweep rotation. Not safe to call after
// StartCleanup.
func (m *Manager) Register(c Cleaner) {
	m.cleaners = append(m.cleaners, c)
}

// StartCleanup launches the sweep loop.
func (m *Manager) StartCleanup(interval time.Duration) {
	go func() {
		defer close(m.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				swept := 0
				for _, c := range m.cleaners {
					swept += c.CleanExpired()
				}
				if swept > 0 {
					slog.Debug("Cache sweep removed expired entries", "count", swept)
				}
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends the sweep loop and waits for it to exit.
func (m *Manager) Stop() {
	close(m.stop)
	<-m.done
}
