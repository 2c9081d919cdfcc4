package heuristics

import (
	"context"

	"github.com/tetratelabs/wazero/api"
)

// execContext holds the state of one module run.
type execContext struct {
	input  []byte     // input is readable through read_input
	output []byte     // output is what the module wrote
	memory api.Memory // memory is the guest linear memory
}

// buildHostModule creates the "env" module the guest may import.
func (p *Pool) buildHostModule(ctx context.Context, execCtx *execContext) (api.Module, error) {
	return p.runtime.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context) uint32 {
			return uint32(len(execCtx.input))
		}).
		Export("input_len").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, ptr uint32) {
			hostReadInput(execCtx, ptr)
		}).
		Export("read_input").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, ptr, length uint32) {
			hostWriteOutput(execCtx, ptr, length)
		}).
		Export("write_output").
		Instantiate(ctx)
}

func hostReadInput(execCtx *execContext, ptr uint32) {
	if execCtx.memory == nil || len(execCtx.input) == 0 {
		return
	}

	execCtx.memory.Write(ptr, execCtx.input)
}

func hostWriteOutput(execCtx *execContext, ptr, length uint32) {
	if execCtx.memory == nil || length == 0 {
		return
	}

	data, ok := execCtx.memory.Read(ptr, length)
	if !ok {
		return
	}

	execCtx.output = append([]byte(nil), data...)
}
