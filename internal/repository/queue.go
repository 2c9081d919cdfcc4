package repository

import (
	"context"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"XyoCore/internal/bridge"
	"XyoCore/internal/fault"
	"XyoCore/internal/storage"
	"XyoCore/internal/types"
)

// QueueStore persists the bridge queue as a BridgeQueue FlatBuffer.
type QueueStore struct {
	db    *storage.Storage
	codec Codec
}

// NewQueueStore creates a queue store over db.
func NewQueueStore(db *storage.Storage, codec Codec) (*QueueStore, error) {
	if err := codec.validate(); err != nil {
		return nil, err
	}
	return &QueueStore{db: db, codec: codec}, nil
}

// LoadQueue returns the saved items, empty when nothing was saved.
func (s *QueueStore) LoadQueue(_ context.Context) ([]bridge.Item, error) {
	raw, err := s.db.Get(keyQueue)
	if err != nil || raw == nil {
		return nil, err
	}

	rec := types.GetRootAsBridgeQueue(raw, 0)
	items := make([]bridge.Item, 0, rec.ItemsLength())

	var it types.BridgeItem
	for i := range rec.ItemsLength() {
		if !rec.Items(&it, i) {
			continue
		}

		h, err := s.codec.decodeHash(it.HashBytes())
		if err != nil {
			return nil, fault.Storage(fmt.Errorf("queue item %d:\n%w", i, err))
		}

		items = append(items, bridge.Item{Hash: h, Weight: int(it.Weight())})
	}

	return items, nil
}

// SaveQueue replaces the saved queue.
func (s *QueueStore) SaveQueue(_ context.Context, items []bridge.Item) error {
	builder := flatbuffers.NewBuilder(256)

	offsets := make([]flatbuffers.UOffsetT, len(items))
	for i, item := range items {
		hash := builder.CreateByteVector(item.Hash.Bytes())

		types.BridgeItemStart(builder)
		types.BridgeItemAddHash(builder, hash)
		types.BridgeItemAddWeight(builder, uint32(item.Weight))
		offsets[i] = types.BridgeItemEnd(builder)
	}

	types.BridgeQueueStartItemsVector(builder, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	vec := builder.EndVector(len(offsets))

	types.BridgeQueueStart(builder)
	types.BridgeQueueAddItems(builder, vec)
	types.FinishBridgeQueueBuffer(builder, types.BridgeQueueEnd(builder))

	return s.db.Apply([]storage.Op{{Key: keyQueue, Value: builder.FinishedBytes()}}, false)
}
