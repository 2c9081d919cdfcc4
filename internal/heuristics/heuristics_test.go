package heuristics

import (
	"context"
	"errors"
	"testing"
	"time"

	"XyoCore/internal/object"
)

// rssiModule exports "heuristic" returning the i32 -34.
var rssiModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x0d, 0x01, 0x09, 'h', 'e', 'u', 'r', 'i', 's', 't', 'i', 'c', 0x00, 0x00,
	0x0a, 0x06, 0x01, 0x04, 0x00, 0x41, 0x5e, 0x0b,
}

func TestUnixTime(t *testing.T) {
	at := time.UnixMilli(1700000000123)

	o, ok := UnixTime(func() time.Time { return at }).Heuristic(context.Background())
	if !ok {
		t.Fatal("no value")
	}

	v, err := o.Uint64()
	if err != nil || v != 1700000000123 {
		t.Errorf("unix time = %d (%v), want 1700000000123", v, err)
	}
}

func TestRSSI(t *testing.T) {
	o, ok := RSSI(func() (int8, bool) { return -60, true }).Heuristic(context.Background())
	if !ok || o.Schema() != object.Rssi {
		t.Fatalf("rssi = %v, %v", o, ok)
	}

	if _, ok := RSSI(func() (int8, bool) { return 0, false }).Heuristic(context.Background()); ok {
		t.Error("rssi without reading produced a value")
	}
}

func TestStatic(t *testing.T) {
	item := object.NewUint64(object.Index, 5)

	o, ok := Static(item).Heuristic(context.Background())
	if !ok || !o.Equal(item) {
		t.Errorf("static = %v, %v", o, ok)
	}

	if _, ok := Static(object.Object{}).Heuristic(context.Background()); ok {
		t.Error("zero static produced a value")
	}
}

func TestWASMHeuristic(t *testing.T) {
	ctx := context.Background()
	pool := NewPool(ctx)
	defer pool.Close(ctx)

	h, err := NewWASM(ctx, pool, rssiModule, object.Rssi, object.NewXyoRegistry())
	if err != nil {
		t.Fatalf("NewWASM: %v", err)
	}

	o, ok := h.Heuristic(ctx)
	if !ok {
		t.Fatal("no value")
	}

	v, err := o.Int8()
	if err != nil || v != -34 {
		t.Errorf("rssi = %d (%v), want -34", v, err)
	}

	// Running twice reuses the compiled module.
	if _, ok := h.Heuristic(ctx); !ok {
		t.Error("second run produced no value")
	}
}

func TestWASMNegativeUnsigned(t *testing.T) {
	ctx := context.Background()
	pool := NewPool(ctx)
	defer pool.Close(ctx)

	h, err := NewWASM(ctx, pool, rssiModule, object.UnixTime, object.NewXyoRegistry())
	if err != nil {
		t.Fatalf("NewWASM: %v", err)
	}

	if _, ok := h.Heuristic(ctx); ok {
		t.Error("negative value encoded as unix time")
	}
}

func TestPoolErrors(t *testing.T) {
	ctx := context.Background()
	pool := NewPool(ctx)
	defer pool.Close(ctx)

	if _, err := pool.Load(ctx, []byte("not wasm")); err == nil {
		t.Error("expected compile error")
	}

	if _, err := pool.Execute(ctx, [32]byte{1}, nil); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("Execute unknown = %v, want ErrModuleNotFound", err)
	}

	id, err := pool.Load(ctx, rssiModule)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	again, _ := pool.Load(ctx, rssiModule)
	if again != id {
		t.Error("same module loaded under two ids")
	}

	pool.Unload(ctx, id)
	if _, err := pool.Execute(ctx, id, nil); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("Execute after Unload = %v", err)
	}
}
