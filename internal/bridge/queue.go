// Package bridge queues origin blocks for relay to an upstream bridge.
package bridge

import (
	"log/slog"
	"sort"
	"sync"

	"XyoCore/internal/hashing"
	"XyoCore/internal/logger"
)

const (
	// DefaultSendLimit is the most blocks handed out per job.
	DefaultSendLimit = 10

	// DefaultRemoveWeight is the weight at which a block leaves the queue.
	DefaultRemoveWeight = 3
)

// Item is a queued block hash with the number of times it was relayed.
type Item struct {
	Hash   hashing.Hash
	Weight int
}

// Queue holds blocks pending relay, sorted ascending by weight. It is safe
// for concurrent use.
type Queue struct {
	mu           sync.Mutex
	items        []Item
	removed      []hashing.Hash // removed are evicted hashes not yet drained
	sendLimit    int
	removeWeight int
	log          *slog.Logger
}

// NewQueue creates an empty queue. Non-positive limits take the defaults.
func NewQueue(sendLimit, removeWeight int) *Queue {
	if sendLimit <= 0 {
		sendLimit = DefaultSendLimit
	}
	if removeWeight <= 0 {
		removeWeight = DefaultRemoveWeight
	}

	return &Queue{
		sendLimit:    sendLimit,
		removeWeight: removeWeight,
		log:          logger.Component("bqu"),
	}
}

// SendLimit returns the maximum job size.
func (q *Queue) SendLimit() int {
	return q.sendLimit
}

// RemoveWeight returns the eviction threshold.
func (q *Queue) RemoveWeight() int {
	return q.removeWeight
}

// AddBlock queues hash with weight. A hash already queued is left as is.
func (q *Queue) AddBlock(hash hashing.Hash, weight int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.indexOf(hash) >= 0 {
		return
	}

	q.items = append(q.items, Item{Hash: hash, Weight: weight})
	q.sort()
}

// PurgeQueue removes every item with weight >= mask. The removed hashes are
// reported by ToRemove.
func (q *Queue) PurgeQueue(mask int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	for _, it := range q.items {
		if it.Weight >= mask {
			q.removed = append(q.removed, it.Hash)
			continue
		}
		kept = append(kept, it)
	}

	q.items = kept
}

// GetBlocksToBridge returns a job with up to SendLimit lowest-weight items.
// The queue is not modified until the job succeeds.
func (q *Queue) GetBlocksToBridge() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := min(q.sendLimit, len(q.items))
	hashes := make([]hashing.Hash, n)
	for i := range n {
		hashes[i] = q.items[i].Hash
	}

	q.log.Debug("bridging blocks", "count", n, "queued", len(q.items))

	return &Job{queue: q, hashes: hashes}
}

// ToRemove drains the hashes evicted since the last call.
func (q *Queue) ToRemove() []hashing.Hash {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.removed
	q.removed = nil
	return out
}

// Blocks returns the queued hashes in queue order.
func (q *Queue) Blocks() []hashing.Hash {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]hashing.Hash, len(q.items))
	for i, it := range q.items {
		out[i] = it.Hash
	}
	return out
}

// Weights returns the weights aligned with Blocks.
func (q *Queue) Weights() []int {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]int, len(q.items))
	for i, it := range q.items {
		out[i] = it.Weight
	}
	return out
}

// Items returns a copy of the queue.
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	return append([]Item(nil), q.items...)
}

// SetQueue replaces the queue content.
func (q *Queue) SetQueue(items []Item) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append([]Item(nil), items...)
	q.sort()
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

func (q *Queue) sort() {
	sort.SliceStable(q.items, func(i, j int) bool {
		return q.items[i].Weight < q.items[j].Weight
	})
}

func (q *Queue) indexOf(hash hashing.Hash) int {
	for i, it := range q.items {
		if it.Hash.Equal(hash) {
			return i
		}
	}
	return -1
}

// Job is a batch of blocks handed to a relay attempt.
type Job struct {
	queue  *Queue
	hashes []hashing.Hash
}

// Blocks returns the hashes in the job.
func (j *Job) Blocks() []hashing.Hash {
	return j.hashes
}

// Empty reports whether the job carries nothing.
func (j *Job) Empty() bool {
	return len(j.hashes) == 0
}

// OnSucceed records a successful relay: every item still queued gains one
// weight and leaves the queue once it reaches the remove weight.
func (j *Job) OnSucceed() {
	q := j.queue

	q.mu.Lock()
	defer q.mu.Unlock()

	for _, h := range j.hashes {
		i := q.indexOf(h)
		if i < 0 {
			continue
		}

		q.items[i].Weight++

		if q.items[i].Weight >= q.removeWeight {
			q.removed = append(q.removed, h)
			q.items = append(q.items[:i], q.items[i+1:]...)
		}
	}

	q.sort()
}
