// Package heuristics provides the getters that put measurements into each
// block: time, signal strength, fixed values, and values computed by WASM
// modules.
package heuristics

import (
	"context"
	"time"

	"XyoCore/internal/object"
	"XyoCore/internal/origin"
)

// UnixTime signs the current time in milliseconds. A nil clock uses time.Now.
func UnixTime(clock func() time.Time) origin.HeuristicGetter {
	if clock == nil {
		clock = time.Now
	}

	return origin.HeuristicFunc(func(context.Context) (object.Object, bool) {
		ms := clock().UnixMilli()
		if ms < 0 {
			return object.Object{}, false
		}
		return object.NewUint64(object.UnixTime, uint64(ms)), true
	})
}

// RSSI signs the signal strength reported by read, skipped when read has
// no value.
func RSSI(read func() (int8, bool)) origin.HeuristicGetter {
	return origin.HeuristicFunc(func(context.Context) (object.Object, bool) {
		v, ok := read()
		if !ok {
			return object.Object{}, false
		}
		return object.NewInt8(object.Rssi, v), true
	})
}

// Static signs item in every block.
func Static(item object.Object) origin.HeuristicGetter {
	return origin.HeuristicFunc(func(context.Context) (object.Object, bool) {
		return item, !item.IsZero()
	})
}
