package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"XyoCore/internal/bridge"
	"XyoCore/internal/hashing"
	"XyoCore/internal/heuristics"
	"XyoCore/internal/network"
	"XyoCore/internal/object"
	"XyoCore/internal/origin"
	"XyoCore/internal/repository"
	"XyoCore/internal/storage"
)

// initStorage initializes the Pebble storage.
func (n *Node) initStorage() error {
	if err := os.MkdirAll(n.cfg.DataPath, 0755); err != nil {
		return fmt.Errorf("create data directory:\n%w", err)
	}

	db, err := storage.New(filepath.Join(n.cfg.DataPath, "db"))
	if err != nil {
		return fmt.Errorf("init storage:\n%w", err)
	}

	n.storage = db

	return nil
}

// initRepositories opens the block, state and queue repositories.
func (n *Node) initRepositories() error {
	hasher, err := hashing.NewRegistry().ByName(n.cfg.HashAlgorithm)
	if err != nil {
		return err
	}
	n.codec = repository.DefaultCodec(hasher)

	if n.blocks, err = repository.NewBlockStore(n.storage, n.codec); err != nil {
		return fmt.Errorf("init block store:\n%w", err)
	}

	if n.state, err = repository.NewStateStore(n.storage, n.codec); err != nil {
		return fmt.Errorf("init state store:\n%w", err)
	}

	if n.queueStore, err = repository.NewQueueStore(n.storage, n.codec); err != nil {
		return fmt.Errorf("init queue store:\n%w", err)
	}

	return nil
}

// initSigners generates the first signer of a fresh chain.
func (n *Node) initSigners(ctx context.Context) error {
	if len(n.state.Signers()) > 0 {
		return nil
	}

	alg, err := n.codec.Verifier.ByName(n.cfg.SignerAlgorithm)
	if err != nil {
		return err
	}

	signer, err := alg.Generate()
	if err != nil {
		return fmt.Errorf("generate %s signer:\n%w", alg.Name, err)
	}

	n.state.PutSigner(signer)

	if err := n.state.Commit(ctx); err != nil {
		return fmt.Errorf("save signer:\n%w", err)
	}

	return nil
}

// initBridge restores the bridge queue.
func (n *Node) initBridge(ctx context.Context) error {
	n.queue = bridge.NewQueue(n.cfg.SendLimit, n.cfg.RemoveWeight)

	items, err := n.queueStore.LoadQueue(ctx)
	if err != nil {
		return fmt.Errorf("load bridge queue:\n%w", err)
	}
	n.queue.SetQueue(items)

	return nil
}

// initManager creates the origin chain manager and registers heuristics,
// options and listeners.
func (n *Node) initManager(ctx context.Context) error {
	mgr, err := origin.NewManager(origin.Config{
		Blocks:   n.blocks,
		State:    n.state,
		Hasher:   n.codec.Hasher,
		Objects:  n.codec.Objects,
		Verifier: n.codec.Verifier,
	})
	if err != nil {
		return err
	}

	mgr.AddHeuristic("time", heuristics.UnixTime(nil))
	mgr.AddOption("bridge", bridge.NewOption(n.queue, n.blocks))
	mgr.AddListener("bridge", bridge.NewListener(n.queue, n.codec.Hasher))
	mgr.AddListener("node", origin.ListenerFuncs{Success: n.onSuccess})

	n.manager = mgr

	return n.initWasmHeuristic(ctx)
}

// initWasmHeuristic loads the optional WASM heuristic module.
func (n *Node) initWasmHeuristic(ctx context.Context) error {
	if n.cfg.HeuristicWasm == "" {
		return nil
	}

	module, err := os.ReadFile(n.cfg.HeuristicWasm)
	if err != nil {
		return fmt.Errorf("read heuristic wasm:\n%w", err)
	}

	schema := object.Rssi
	if n.cfg.HeuristicSchema == "unix_time" {
		schema = object.UnixTime
	}

	n.wasm = heuristics.NewPool(ctx)

	h, err := heuristics.NewWASM(ctx, n.wasm, module, schema, n.codec.Objects)
	if err != nil {
		return fmt.Errorf("load heuristic wasm:\n%w", err)
	}

	n.manager.AddHeuristic("wasm", h)

	return nil
}

// initNetwork initializes the QUIC transport.
func (n *Node) initNetwork() error {
	node, err := network.NewNode(network.Config{
		PrivateKey: n.cfg.PrivateKey,
		ListenAddr: n.cfg.QUICAddress,
		Cooldown:   n.cfg.Cooldown,
	})
	if err != nil {
		return fmt.Errorf("init network:\n%w", err)
	}

	n.network = node

	return nil
}
