package mutex

import (
	"sync"
	"sync/atomic"
	"time"
)

// KeyedMutex provides per-key mutex locking to prevent duplicate concurrent
// work for the same key (e.g. metadata lookups for the same mint)
type KeyedMutex struct {
	mutexes    map[string]*mutexEntry
	mapMutex   sync.RWMutex
	cleanupTTL time.Duration
	stopCh     chan struct{}
	stopped    bool
	stopMutex  sync.Mutex
}

// mutexEntry holds a mutex and its last access time for cleanup. The
// access time is atomic because readers touch it under the map's read lock.
type mutexEntry struct {
	mutex      *sync.Mutex
	lastAccess atomic.Int64
}

func (e *mutexEntry) touch() {
	e.lastAccess.Store(time.Now().UnixNano())
}

// New creates a new KeyedMutex instance with automatic cleanup
func New(cleanupTTL time.Duration) *KeyedMutex {
	km := &KeyedMutex{
		mutexes:    make(map[string]*mutexEntry),
		cleanupTTL: cleanupTTL,
		stopCh:     make(chan struct{}),
	}

	// Start cleanup goroutine
	go km.cleanup()

	return km
}

// GetMutex returns a mutex for the given key, creating one if it doesn't exist
func (km *KeyedMutex) GetMutex(key string) *sync.Mutex {
	km.mapMutex.RLock()
	entry, exists := km.mutexes[key]
	if exists {
		entry.touch()
		km.mapMutex.RUnlock()
		return entry.mutex
	}
	km.mapMutex.RUnlock()

	km.mapMutex.Lock()
	defer km.mapMutex.Unlock()

	// Double-check in case another goroutine created it
	if entry, exists := km.mutexes[key]; exists {
		entry.touch()
		return entry.mutex
	}

	newEntry := &mutexEntry{mutex: &sync.Mutex{}}
	newEntry.touch()
	km.mutexes[key] = newEntry

	return newEntry.mutex
}

// Lock locks the mutex for the given key
func (km *KeyedMutex) Lock(key string) {
	km.GetMutex(key).Lock()
}

// Unlock unlocks the mutex for the given key
func (km *KeyedMutex) Unlock(key string) {
	km.mapMutex.RLock()
	entry, exists := km.mutexes[key]
	km.mapMutex.RUnlock()

	if exists {
		entry.mutex.Unlock()
	}
}

// Size returns the number of mutexes currently stored
func (km *KeyedMutex) Size() int {
	km.mapMutex.RLock()
	defer km.mapMutex.RUnlock()
	return len(km.mutexes)
}

// cleanup runs periodically to remove unused mutexes to prevent memory leaks
func (km *KeyedMutex) cleanup() {
	ticker := time.NewTicker(km.cleanupTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			km.removeUnused()
		case <-km.stopCh:
			return
		}
	}
}

// removeUnused removes mutexes that haven't been accessed recently
func (km *KeyedMutex) removeUnused() {
	km.mapMutex.Lock()
	defer km.mapMutex.Unlock()

	now := time.Now()
	for key, entry := range km.mutexes {
		if now.Sub(time.Unix(0, entry.lastAccess.Load())) > km.cleanupTTL {
			// Only remove if the mutex is not currently held
			if entry.mutex.TryLock() {
				entry.mutex.Unlock()
				delete(km.mutexes, key)
			}
		}
	}
}

// Stop stops the cleanup goroutine
func (km *KeyedMutex) Stop() {
	km.stopMutex.Lock()
	defer km.stopMutex.Unlock()

	if !km.stopped {
		km.stopped = true
		close(km.stopCh)
	}
}
