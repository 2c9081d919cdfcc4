package network

import (
	"sync"
	"time"

	"github.com/zeebo/blake3"
)

// cleanupInterval is the interval between cleanup runs.
const cleanupInterval = time.Second

// Cooldown limits how often one peer may open a session. Peers are keyed by
// the BLAKE3 hash of their transport key; entries expire after ttl.
type Cooldown struct {
	seen map[[32]byte]int64 // seen maps peer hash to last accepted time (unix nano)
	mu   sync.Mutex         // mu protects seen
	ttl  int64              // ttl in nanoseconds
	stop chan struct{}      // stop signals the cleanup goroutine to stop
	wg   sync.WaitGroup     // wg waits for the cleanup goroutine
}

// NewCooldown creates a cooldown tracker. A zero ttl accepts everything.
func NewCooldown(ttl time.Duration) *Cooldown {
	c := &Cooldown{
		seen: make(map[[32]byte]int64),
		ttl:  int64(ttl),
		stop: make(chan struct{}),
	}

	if ttl > 0 {
		c.startCleanup()
	}

	return c
}

// Allow reports whether peer may start a session now, and records the
// attempt when it may.
func (c *Cooldown) Allow(peer []byte) bool {
	if c.ttl <= 0 {
		return true
	}

	hash := blake3.Sum256(peer)
	now := time.Now().UnixNano()

	c.mu.Lock()
	defer c.mu.Unlock()

	if ts, ok := c.seen[hash]; ok && now-ts < c.ttl {
		return false
	}

	c.seen[hash] = now

	return true
}

// Close stops the cleanup goroutine.
func (c *Cooldown) Close() {
	select {
	case <-c.stop:
		return
	default:
	}

	close(c.stop)
	c.wg.Wait()
}

func (c *Cooldown) startCleanup() {
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.cleanup()
			case <-c.stop:
				return
			}
		}
	}()
}

// cleanup removes expired entries.
func (c *Cooldown) cleanup() {
	now := time.Now().UnixNano()

	c.mu.Lock()
	for hash, ts := range c.seen {
		if now-ts >= c.ttl {
			delete(c.seen, hash)
		}
	}
	c.mu.Unlock()
}
