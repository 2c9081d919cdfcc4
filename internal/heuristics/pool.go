package heuristics

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/zeebo/blake3"
)

// ErrModuleNotFound is returned when a module id is not loaded.
var ErrModuleNotFound = errors.New("module not found")

// Result is what one module run produced. A module either returns a number
// from "heuristic" or writes an encoded object from "execute".
type Result struct {
	Value  int64  // Value is the return value of "heuristic"
	Output []byte // Output is what "execute" passed to write_output
}

// Pool keeps compiled WASM modules. Modules are compiled once and
// instantiated per run; runs are serialized.
type Pool struct {
	runtime wazero.Runtime                     // runtime is the wazero runtime instance
	modules map[[32]byte]wazero.CompiledModule // modules maps blake3 hash to compiled module
	mu      sync.RWMutex                       // mu protects modules map
	run     sync.Mutex                         // run serializes executions
}

// NewPool creates a pool. Runs stop when their context is done.
func NewPool(ctx context.Context) *Pool {
	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)

	return &Pool{
		runtime: wazero.NewRuntimeWithConfig(ctx, cfg),
		modules: make(map[[32]byte]wazero.CompiledModule),
	}
}

// Load compiles a module and returns its blake3 id. Loading the same bytes
// twice is a no-op.
func (p *Pool) Load(ctx context.Context, wasm []byte) ([32]byte, error) {
	id := blake3.Sum256(wasm)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.modules[id]; exists {
		return id, nil
	}

	compiled, err := p.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return [32]byte{}, fmt.Errorf("compile module:\n%w", err)
	}

	p.modules[id] = compiled

	return id, nil
}

// Execute runs module id once with input available through read_input.
func (p *Pool) Execute(ctx context.Context, id [32]byte, input []byte) (Result, error) {
	p.mu.RLock()
	compiled, exists := p.modules[id]
	p.mu.RUnlock()

	if !exists {
		return Result{}, ErrModuleNotFound
	}

	p.run.Lock()
	defer p.run.Unlock()

	execCtx := &execContext{input: input}

	host, err := p.buildHostModule(ctx, execCtx)
	if err != nil {
		return Result{}, fmt.Errorf("build host module:\n%w", err)
	}
	defer host.Close(ctx)

	instance, err := p.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		return Result{}, fmt.Errorf("instantiate module:\n%w", err)
	}
	defer instance.Close(ctx)

	execCtx.memory = instance.Memory()

	return p.call(ctx, instance, execCtx)
}

func (p *Pool) call(ctx context.Context, instance api.Module, execCtx *execContext) (Result, error) {
	if fn := instance.ExportedFunction("execute"); fn != nil {
		if _, err := fn.Call(ctx); err != nil {
			return Result{}, fmt.Errorf("execute:\n%w", err)
		}
		return Result{Output: execCtx.output}, nil
	}

	fn := instance.ExportedFunction("heuristic")
	if fn == nil {
		return Result{}, fmt.Errorf("module exports neither execute nor heuristic")
	}

	results, err := fn.Call(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("heuristic:\n%w", err)
	}

	if len(results) != 1 {
		return Result{}, fmt.Errorf("heuristic returned %d values", len(results))
	}

	var value int64
	switch fn.Definition().ResultTypes()[0] {
	case api.ValueTypeI32:
		value = int64(api.DecodeI32(results[0]))
	default:
		value = int64(results[0])
	}

	return Result{Value: value}, nil
}

// Unload removes a module from the pool.
func (p *Pool) Unload(ctx context.Context, id [32]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if compiled, exists := p.modules[id]; exists {
		compiled.Close(ctx)
		delete(p.modules, id)
	}
}

// Close releases every module and the runtime.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, compiled := range p.modules {
		compiled.Close(ctx)
		delete(p.modules, id)
	}

	return p.runtime.Close(ctx)
}
