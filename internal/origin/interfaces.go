package origin

import (
	"context"

	"XyoCore/internal/boundwitness"
	"XyoCore/internal/hashing"
	"XyoCore/internal/object"
	"XyoCore/internal/signing"
)

// BlockRepository stores origin blocks by hash.
type BlockRepository interface {
	// ContainsOriginBlock reports whether a block with hash is stored.
	ContainsOriginBlock(ctx context.Context, hash hashing.Hash) (bool, error)

	// AddBoundWitness stores a block under its hash. It returns once the
	// block is durable.
	AddBoundWitness(ctx context.Context, bw *boundwitness.BoundWitness) error

	// GetOriginBlock returns the block with hash, nil when absent.
	GetOriginBlock(ctx context.Context, hash hashing.Hash) (*boundwitness.BoundWitness, error)

	// OriginBlocksByPublicKey returns the hashes of every block signed by key.
	OriginBlocksByPublicKey(ctx context.Context, key object.Object) ([]hashing.Hash, error)
}

// StateRepository holds the origin chain state. Puts are staged until
// Commit, which returns once the state is durable. Rollback drops the puts
// staged since the last successful Commit.
type StateRepository interface {
	Index() uint64
	PutIndex(index uint64)
	PreviousHash() (hashing.Hash, bool)
	PutPreviousHash(hash hashing.Hash)
	Signers() []signing.Signer
	PutSigner(signer signing.Signer)
	RemoveOldestSigner()
	Commit(ctx context.Context) error
	Rollback()
}

// HeuristicGetter contributes one signed item to each block. ok is false
// when no value is available right now.
type HeuristicGetter interface {
	Heuristic(ctx context.Context) (item object.Object, ok bool)
}

// HeuristicFunc adapts a function to HeuristicGetter.
type HeuristicFunc func(ctx context.Context) (object.Object, bool)

// Heuristic calls f.
func (f HeuristicFunc) Heuristic(ctx context.Context) (object.Object, bool) {
	return f(ctx)
}

// OptionPayload is what an option adds to this party's payload.
type OptionPayload struct {
	Signed   []object.Object
	Unsigned []object.Object
}

// Option is a bound witness feature selected through the catalogue.
type Option interface {
	// Flag returns the catalogue bits that select the option.
	Flag() []byte

	// Payload returns the items the option adds to the bound witness.
	Payload(ctx context.Context) (OptionPayload, error)

	// OnCompleted is called after every session the option took part in,
	// with the witness when it completed and nil otherwise.
	OnCompleted(bw *boundwitness.BoundWitness)
}

// Listener observes bound witness creation.
type Listener interface {
	OnBoundWitnessStart()
	OnBoundWitnessEndSuccess(bw *boundwitness.BoundWitness)
	OnBoundWitnessEndFailure(err error)
	OnBoundWitnessDiscovered(bw *boundwitness.BoundWitness)
}

// ListenerFuncs implements Listener with optional callbacks.
type ListenerFuncs struct {
	Start      func()
	Success    func(bw *boundwitness.BoundWitness)
	Failure    func(err error)
	Discovered func(bw *boundwitness.BoundWitness)
}

func (l ListenerFuncs) OnBoundWitnessStart() {
	if l.Start != nil {
		l.Start()
	}
}

func (l ListenerFuncs) OnBoundWitnessEndSuccess(bw *boundwitness.BoundWitness) {
	if l.Success != nil {
		l.Success(bw)
	}
}

func (l ListenerFuncs) OnBoundWitnessEndFailure(err error) {
	if l.Failure != nil {
		l.Failure(err)
	}
}

func (l ListenerFuncs) OnBoundWitnessDiscovered(bw *boundwitness.BoundWitness) {
	if l.Discovered != nil {
		l.Discovered(bw)
	}
}

// HeuristicPipe is implemented by pipes that know something about the link
// itself, such as signal strength.
type HeuristicPipe interface {
	NetworkHeuristics() []object.Object
}
