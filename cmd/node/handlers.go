package main

import (
	"context"
	"time"

	"XyoCore/internal/boundwitness"
	"XyoCore/internal/fault"
	"XyoCore/internal/logger"
	"XyoCore/internal/network"
)

// sessionTimeout bounds one bound witness from dial to close.
const sessionTimeout = 20 * time.Second

// handlePipe answers a session opened by a peer.
func (n *Node) handlePipe(ctx context.Context, pipe *network.Pipe) {
	ctx, cancel := context.WithTimeout(ctx, sessionTimeout)
	defer cancel()

	if _, err := n.manager.BoundWitness(ctx, pipe, n.catalogue); err != nil {
		logger.Debug("incoming session failed", "peer", pipe.RemoteAddr(), "kind", fault.Kind(err))
	}
}

// initiateLoop opens a session with the configured peer every interval.
func (n *Node) initiateLoop() {
	defer n.wg.Done()

	ticker := time.NewTicker(n.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.initiate()
		}
	}
}

// initiate runs one session with the configured peer.
func (n *Node) initiate() {
	if n.manager.Active() {
		return
	}

	ctx, cancel := context.WithTimeout(n.ctx, sessionTimeout)
	defer cancel()

	pipe, err := n.network.Dial(ctx, n.cfg.PeerAddress)
	if err != nil {
		logger.Warn("dial peer", "addr", n.cfg.PeerAddress, "error", err)
		return
	}
	defer pipe.Close()

	if _, err := n.manager.BoundWitness(ctx, pipe, n.catalogue); err != nil {
		logger.Debug("outgoing session failed", "peer", n.cfg.PeerAddress, "kind", fault.Kind(err))
	}
}

// onSuccess prunes blocks that left the bridge queue and saves the queue.
func (n *Node) onSuccess(*boundwitness.BoundWitness) {
	ctx := context.Background()

	for _, h := range n.queue.ToRemove() {
		if !n.cfg.PruneBridged {
			continue
		}

		if err := n.blocks.RemoveOriginBlock(ctx, h); err != nil {
			logger.Warn("prune bridged block", "hash", h, "error", err)
		}
	}

	if err := n.queueStore.SaveQueue(ctx, n.queue.Items()); err != nil {
		logger.Warn("save bridge queue", "error", err)
	}
}
