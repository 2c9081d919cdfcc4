package repository

import (
	"bytes"
	"context"
	"fmt"

	"XyoCore/internal/boundwitness"
	"XyoCore/internal/fault"
	"XyoCore/internal/hashing"
	"XyoCore/internal/object"
	"XyoCore/internal/storage"
)

// BlockStore keeps zstd-compressed blocks keyed by hash, plus an index from
// each signer public key to the blocks it signed.
type BlockStore struct {
	db    *storage.Storage
	codec Codec
	zstd  *compressor
}

// NewBlockStore creates a block store over db.
func NewBlockStore(db *storage.Storage, codec Codec) (*BlockStore, error) {
	if err := codec.validate(); err != nil {
		return nil, err
	}

	c, err := newCompressor()
	if err != nil {
		return nil, err
	}

	return &BlockStore{db: db, codec: codec, zstd: c}, nil
}

// Close releases the compressor. The storage is owned by the caller.
func (s *BlockStore) Close() {
	s.zstd.close()
}

// ContainsOriginBlock reports whether hash is stored.
func (s *BlockStore) ContainsOriginBlock(_ context.Context, hash hashing.Hash) (bool, error) {
	return s.db.Has(blockKey(hash))
}

// AddBoundWitness stores bw and indexes it by every signer key in one synced
// batch.
func (s *BlockStore) AddBoundWitness(_ context.Context, bw *boundwitness.BoundWitness) error {
	hash, err := bw.Hash(s.codec.Hasher)
	if err != nil {
		return fmt.Errorf("hash block:\n%w", err)
	}

	ops := []storage.Op{{Key: blockKey(hash), Value: s.zstd.compress(bw.Bytes())}}
	for _, key := range publicKeys(bw) {
		ops = append(ops, storage.Op{Key: indexKey(key, hash), Value: hash.Bytes()})
	}

	return s.db.Apply(ops, true)
}

// GetOriginBlock loads the block with hash, nil when absent.
func (s *BlockStore) GetOriginBlock(_ context.Context, hash hashing.Hash) (*boundwitness.BoundWitness, error) {
	raw, err := s.db.Get(blockKey(hash))
	if err != nil || raw == nil {
		return nil, err
	}

	data, err := s.zstd.decompress(raw)
	if err != nil {
		return nil, fault.Storage(fmt.Errorf("decompress block %s:\n%w", hash, err))
	}

	bw, err := boundwitness.Parse(s.codec.Objects, s.codec.Verifier, data)
	if err != nil {
		return nil, fault.Storage(fmt.Errorf("parse block %s:\n%w", hash, err))
	}

	return bw, nil
}

// OriginBlocksByPublicKey returns the hashes of blocks signed by key.
func (s *BlockStore) OriginBlocksByPublicKey(_ context.Context, key object.Object) ([]hashing.Hash, error) {
	var out []hashing.Hash

	err := s.db.IteratePrefix(keyPrefix(key), func(_, value []byte) error {
		h, err := s.codec.decodeHash(value)
		if err != nil {
			return fault.Storage(err)
		}
		out = append(out, h)
		return nil
	})

	return out, err
}

// RemoveOriginBlock deletes a block and its index entries. Missing blocks
// are ignored.
func (s *BlockStore) RemoveOriginBlock(ctx context.Context, hash hashing.Hash) error {
	bw, err := s.GetOriginBlock(ctx, hash)
	if err != nil || bw == nil {
		return err
	}

	ops := []storage.Op{{Key: blockKey(hash)}}
	for _, key := range publicKeys(bw) {
		ops = append(ops, storage.Op{Key: indexKey(key, hash)})
	}

	return s.db.Apply(ops, true)
}

// Count returns the number of stored blocks.
func (s *BlockStore) Count() (int, error) {
	n := 0
	err := s.db.IteratePrefix(prefixBlock, func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

// publicKeys returns every distinct key in every key set of bw.
func publicKeys(bw *boundwitness.BoundWitness) []object.Object {
	var out []object.Object

	for i := range bw.Parties() {
		for _, k := range bw.KeySet(i) {
			dup := false
			for _, seen := range out {
				if bytes.Equal(seen.Bytes(), k.Bytes()) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, k)
			}
		}
	}

	return out
}
