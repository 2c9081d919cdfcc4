package heuristics

import (
	"context"
	"log/slog"
	"math"
	"time"

	"XyoCore/internal/logger"
	"XyoCore/internal/object"
)

// defaultWASMTimeout bounds one heuristic run.
const defaultWASMTimeout = 200 * time.Millisecond

// WASM is a heuristic computed by a module in a Pool. A number returned by
// "heuristic" is encoded with Schema; bytes written by "execute" must be an
// encoded object of Schema.
type WASM struct {
	pool    *Pool
	id      [32]byte
	schema  object.Schema
	objects *object.Registry
	input   []byte
	timeout time.Duration
	log     *slog.Logger
}

// NewWASM loads module into pool and returns a getter for it.
func NewWASM(ctx context.Context, pool *Pool, module []byte, schema object.Schema, objects *object.Registry) (*WASM, error) {
	id, err := pool.Load(ctx, module)
	if err != nil {
		return nil, err
	}

	return &WASM{
		pool:    pool,
		id:      id,
		schema:  schema,
		objects: objects,
		timeout: defaultWASMTimeout,
		log:     logger.Component("heuristics"),
	}, nil
}

// SetInput sets the bytes the module reads with read_input.
func (w *WASM) SetInput(input []byte) {
	w.input = append([]byte(nil), input...)
}

// Heuristic runs the module. Failures are logged and skip the heuristic.
func (w *WASM) Heuristic(ctx context.Context) (object.Object, bool) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	res, err := w.pool.Execute(ctx, w.id, w.input)
	if err != nil {
		w.log.Warn("wasm heuristic failed", "schema", w.schema, "error", err)
		return object.Object{}, false
	}

	if len(res.Output) > 0 {
		o, err := object.DecodeAs(w.objects, w.schema, res.Output)
		if err != nil {
			w.log.Warn("wasm heuristic output rejected", "schema", w.schema, "error", err)
			return object.Object{}, false
		}
		return o, true
	}

	return w.encode(res.Value)
}

func (w *WASM) encode(v int64) (object.Object, bool) {
	if w.schema == object.Rssi {
		if v < math.MinInt8 || v > math.MaxInt8 {
			return object.Object{}, false
		}
		return object.NewInt8(w.schema, int8(v)), true
	}

	if v < 0 {
		return object.Object{}, false
	}

	return object.NewUint64(w.schema, uint64(v)), true
}
