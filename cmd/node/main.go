package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"XyoCore/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main entry point with error handling.
func run(args []string) error {
	cfg, err := parseFlags(args)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.Init(level)

	cfg.PrivateKey, err = loadOrGenerateKey(cfg.KeyPath)
	if err != nil {
		return fmt.Errorf("load key:\n%w", err)
	}

	node, err := NewNode(cfg)
	if err != nil {
		return fmt.Errorf("create node:\n%w", err)
	}

	printStartupInfo(node)

	return node.Run()
}

// printStartupInfo displays node configuration at startup.
func printStartupInfo(n *Node) {
	keys := make([]string, 0)
	for _, s := range n.manager.State().Signers() {
		keys = append(keys, hex.EncodeToString(s.PublicKey().Bytes()))
	}

	logger.Info("starting xyo node",
		"role", n.cfg.Role,
		"transport", hex.EncodeToString(n.network.PublicKey()),
		"signers", keys,
		"index", n.manager.State().IndexValue(),
		"http", n.cfg.HTTPAddress,
		"quic", n.cfg.QUICAddress,
		"peer", n.cfg.PeerAddress,
		"data", n.cfg.DataPath,
	)
}
