package bridge

import (
	"XyoCore/internal/boundwitness"
	"XyoCore/internal/hashing"
	"XyoCore/internal/origin"
)

// Listener queues every block the manager discovers.
type Listener struct {
	origin.ListenerFuncs

	queue  *Queue
	hasher hashing.Provider
}

// NewListener creates a listener feeding queue.
func NewListener(queue *Queue, hasher hashing.Provider) *Listener {
	return &Listener{queue: queue, hasher: hasher}
}

// OnBoundWitnessDiscovered queues the block hash.
func (l *Listener) OnBoundWitnessDiscovered(bw *boundwitness.BoundWitness) {
	h, err := bw.Hash(l.hasher)
	if err != nil {
		l.queue.log.Warn("hash discovered block", "error", err)
		return
	}

	l.queue.AddBlock(h, 0)
}
