package bridge

import (
	"context"
	"fmt"
	"sync"

	"XyoCore/internal/boundwitness"
	"XyoCore/internal/hashing"
	"XyoCore/internal/object"
	"XyoCore/internal/origin"
)

// BlockSource loads stored blocks by hash.
type BlockSource interface {
	GetOriginBlock(ctx context.Context, hash hashing.Hash) (*boundwitness.BoundWitness, error)
}

// Option offers queued blocks to the peer when it asks for our origin chain.
// The hashes are signed and the blocks travel unsigned.
type Option struct {
	queue  *Queue
	blocks BlockSource

	mu  sync.Mutex
	job *Job // job is the batch offered in the running session
}

// NewOption creates a bridging option over queue.
func NewOption(queue *Queue, blocks BlockSource) *Option {
	return &Option{queue: queue, blocks: blocks}
}

// Flag selects the option when the peer takes origin chains.
func (o *Option) Flag() []byte {
	return []byte{boundwitness.FlagGiveOriginChain}
}

// Payload returns BRIDGE_HASH_SET as signed data and BRIDGE_BLOCK_SET as
// unsigned data. Hashes whose block is missing are skipped.
func (o *Option) Payload(ctx context.Context) (origin.OptionPayload, error) {
	job := o.queue.GetBlocksToBridge()

	var hashes, blocks []object.Object
	for _, h := range job.Blocks() {
		bw, err := o.blocks.GetOriginBlock(ctx, h)
		if err != nil {
			return origin.OptionPayload{}, fmt.Errorf("load block %s:\n%w", h, err)
		}
		if bw == nil {
			continue
		}

		hashes = append(hashes, h.Object())
		blocks = append(blocks, bw.Object())
	}

	o.mu.Lock()
	o.job = job
	o.mu.Unlock()

	if len(blocks) == 0 {
		return origin.OptionPayload{}, nil
	}

	hashSet, err := object.NewArray(object.BridgeHashSet, hashes...)
	if err != nil {
		return origin.OptionPayload{}, fmt.Errorf("bridge hash set:\n%w", err)
	}

	blockSet, err := object.NewArray(object.BridgeBlockSet, blocks...)
	if err != nil {
		return origin.OptionPayload{}, fmt.Errorf("bridge block set:\n%w", err)
	}

	return origin.OptionPayload{
		Signed:   []object.Object{hashSet},
		Unsigned: []object.Object{blockSet},
	}, nil
}

// OnCompleted confirms the pending job when the witness completed.
func (o *Option) OnCompleted(bw *boundwitness.BoundWitness) {
	o.mu.Lock()
	job := o.job
	o.job = nil
	o.mu.Unlock()

	if job != nil && bw != nil && bw.Completed() {
		job.OnSucceed()
	}
}
