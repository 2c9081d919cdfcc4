package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"XyoCore/internal/api"
	"XyoCore/internal/bridge"
	"XyoCore/internal/heuristics"
	"XyoCore/internal/logger"
	"XyoCore/internal/network"
	"XyoCore/internal/origin"
	"XyoCore/internal/repository"
	"XyoCore/internal/storage"
)

// Node represents a running XYO node.
type Node struct {
	cfg        *Config
	catalogue  []byte
	storage    *storage.Storage
	codec      repository.Codec
	blocks     *repository.BlockStore
	state      *repository.StateStore
	queueStore *repository.QueueStore
	queue      *bridge.Queue
	manager    *origin.Manager
	wasm       *heuristics.Pool
	network    *network.Node
	api        *api.Server

	ctx    context.Context    // ctx is cancelled on shutdown
	cancel context.CancelFunc // cancel stops the session loops
	wg     sync.WaitGroup     // wg waits for the session loops
}

// NewNode creates and initializes a new node.
func NewNode(cfg *Config) (*Node, error) {
	catalogue, err := cfg.catalogue()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &Node{cfg: cfg, catalogue: catalogue, ctx: ctx, cancel: cancel}

	steps := []func() error{
		n.initStorage,
		n.initRepositories,
		func() error { return n.initSigners(ctx) },
		func() error { return n.initBridge(ctx) },
		func() error { return n.initManager(ctx) },
		n.initNetwork,
	}

	for _, step := range steps {
		if err := step(); err != nil {
			n.Close()
			return nil, err
		}
	}

	return n, nil
}

// Run starts the node and blocks until shutdown signal.
func (n *Node) Run() error {
	if n.manager.State().IndexValue() == 0 {
		if _, err := n.manager.SelfSign(n.ctx); err != nil {
			return fmt.Errorf("create genesis block:\n%w", err)
		}
	}

	n.network.OnPipe(n.handlePipe)

	if err := n.network.Start(); err != nil {
		return fmt.Errorf("start network:\n%w", err)
	}

	if n.cfg.HTTPAddress != "" {
		n.api = api.New(n.cfg.HTTPAddress, n.blocks, n, n.codec.Objects, n.codec.Hashes)
		if err := n.api.Start(); err != nil {
			return fmt.Errorf("start api:\n%w", err)
		}
	}

	if n.cfg.PeerAddress != "" {
		n.wg.Add(1)
		go n.initiateLoop()
	}

	return n.waitForShutdown()
}

// Status implements api.StatusProvider.
func (n *Node) Status() api.Status {
	state := n.manager.State()

	s := api.Status{
		Index:  state.IndexValue(),
		Active: n.manager.Active(),
		Queued: n.queue.Len(),
	}

	if h, ok := state.LastHash(); ok {
		s.PreviousHash = hex.EncodeToString(h.Bytes())
	}

	for _, signer := range state.Signers() {
		s.PublicKeys = append(s.PublicKeys, hex.EncodeToString(signer.PublicKey().Bytes()))
	}

	if count, err := n.blocks.Count(); err == nil {
		s.Blocks = count
	}

	return s
}

// waitForShutdown blocks until SIGINT or SIGTERM is received.
func (n *Node) waitForShutdown() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	return n.Close()
}

// Close shuts down all node components gracefully.
func (n *Node) Close() error {
	n.cancel()

	if n.api != nil {
		n.api.Stop()
	}

	if n.network != nil {
		n.network.Close()
	}

	n.wg.Wait()

	if n.queue != nil && n.queueStore != nil {
		if err := n.queueStore.SaveQueue(context.Background(), n.queue.Items()); err != nil {
			logger.Warn("save bridge queue", "error", err)
		}
	}

	if n.wasm != nil {
		n.wasm.Close(context.Background())
	}

	if n.blocks != nil {
		n.blocks.Close()
	}

	if n.storage != nil {
		n.storage.Close()
	}

	return nil
}
