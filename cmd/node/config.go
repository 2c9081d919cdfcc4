package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"XyoCore/internal/boundwitness"
)

// Config holds the node configuration. Values come from an optional YAML
// file; flags given on the command line override it.
type Config struct {
	// DataPath is the directory for persistent storage.
	DataPath string `yaml:"data"`

	// HTTPAddress is the HTTP API listen address, empty to disable.
	HTTPAddress string `yaml:"http"`

	// QUICAddress is the QUIC listen address for incoming sessions.
	QUICAddress string `yaml:"quic"`

	// PeerAddress is dialed every Interval to create a bound witness.
	PeerAddress string `yaml:"peer"`

	// Interval is the delay between initiated sessions.
	Interval time.Duration `yaml:"interval"`

	// Cooldown is the minimum delay between sessions accepted from one peer.
	Cooldown time.Duration `yaml:"cooldown"`

	// KeyPath is the path to the Ed25519 transport key file.
	KeyPath string `yaml:"key"`

	// PrivateKey is the node's Ed25519 transport key.
	PrivateKey ed25519.PrivateKey `yaml:"-"`

	// HashAlgorithm names the chain hash provider.
	HashAlgorithm string `yaml:"hash"`

	// SignerAlgorithm names the algorithm of generated signers.
	SignerAlgorithm string `yaml:"signer"`

	// Role is "sentinel" (gives its chain) or "bridge" (also takes chains).
	Role string `yaml:"role"`

	// SendLimit and RemoveWeight tune the bridge queue.
	SendLimit    int `yaml:"sendLimit"`
	RemoveWeight int `yaml:"removeWeight"`

	// PruneBridged deletes blocks once they were relayed RemoveWeight times.
	PruneBridged bool `yaml:"pruneBridged"`

	// HeuristicWasm is an optional WASM module computing one heuristic.
	HeuristicWasm string `yaml:"heuristicWasm"`

	// HeuristicSchema is the item the WASM heuristic produces: rssi or unix_time.
	HeuristicSchema string `yaml:"heuristicSchema"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"logLevel"`
}

// defaultConfig returns the configuration used when nothing is set.
func defaultConfig() *Config {
	return &Config{
		DataPath:        "./data",
		HTTPAddress:     ":8080",
		QUICAddress:     ":9000",
		Interval:        30 * time.Second,
		Cooldown:        5 * time.Second,
		HashAlgorithm:   "sha256",
		SignerAlgorithm: "secp256k1",
		Role:            "sentinel",
		HeuristicSchema: "rssi",
		LogLevel:        "info",
	}
}

// parseFlags parses command-line flags into Config.
func parseFlags(args []string) (*Config, error) {
	cfg := defaultConfig()
	fs := flag.NewFlagSet("node", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "YAML configuration file")
	fs.StringVar(&cfg.DataPath, "data", cfg.DataPath, "Data directory path")
	fs.StringVar(&cfg.HTTPAddress, "http", cfg.HTTPAddress, "HTTP API address (empty disables)")
	fs.StringVar(&cfg.QUICAddress, "quic", cfg.QUICAddress, "QUIC listen address")
	fs.StringVar(&cfg.PeerAddress, "peer", cfg.PeerAddress, "Peer QUIC address to bound witness with")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "Delay between initiated sessions")
	fs.DurationVar(&cfg.Cooldown, "cooldown", cfg.Cooldown, "Minimum delay between sessions from one peer")
	fs.StringVar(&cfg.KeyPath, "key", cfg.KeyPath, "Ed25519 transport key path (generates new if missing)")
	fs.StringVar(&cfg.HashAlgorithm, "hash", cfg.HashAlgorithm, "Chain hash algorithm (sha256, sha1, sha384, sha3, blake3)")
	fs.StringVar(&cfg.SignerAlgorithm, "signer", cfg.SignerAlgorithm, "Signer algorithm (secp256k1, rsa, bls)")
	fs.StringVar(&cfg.Role, "role", cfg.Role, "Node role (sentinel, bridge)")
	fs.IntVar(&cfg.SendLimit, "send-limit", cfg.SendLimit, "Blocks bridged per session (0 = default)")
	fs.IntVar(&cfg.RemoveWeight, "remove-weight", cfg.RemoveWeight, "Relays before a block leaves the queue (0 = default)")
	fs.BoolVar(&cfg.PruneBridged, "prune-bridged", cfg.PruneBridged, "Delete blocks that left the bridge queue")
	fs.StringVar(&cfg.HeuristicWasm, "heuristic-wasm", cfg.HeuristicWasm, "WASM module computing a heuristic")
	fs.StringVar(&cfg.HeuristicSchema, "heuristic-schema", cfg.HeuristicSchema, "Item produced by the WASM heuristic (rssi, unix_time)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := cfg.applyFile(configPath, fs); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFile loads path over the defaults, then re-applies the flags that
// were set explicitly.
func (c *Config) applyFile(path string, fs *flag.FlagSet) error {
	explicit := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		if f.Name != "config" {
			explicit[f.Name] = f.Value.String()
		}
	})

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config:\n%w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s:\n%w", path, err)
	}

	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("flag -%s:\n%w", name, err)
		}
	}

	return nil
}

func (c *Config) validate() error {
	if c.DataPath == "" {
		return fmt.Errorf("data path is required")
	}

	if c.QUICAddress == "" {
		return fmt.Errorf("quic address is required")
	}

	if c.PeerAddress != "" && c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}

	if _, err := c.catalogue(); err != nil {
		return err
	}

	switch c.HeuristicSchema {
	case "rssi", "unix_time":
	default:
		return fmt.Errorf("unknown heuristic schema %q", c.HeuristicSchema)
	}

	return nil
}

// catalogue returns the flags this node offers.
func (c *Config) catalogue() ([]byte, error) {
	switch c.Role {
	case "sentinel":
		return []byte{boundwitness.FlagBoundWitness | boundwitness.FlagGiveOriginChain}, nil
	case "bridge":
		return []byte{boundwitness.FlagBoundWitness | boundwitness.FlagTakeOriginChain | boundwitness.FlagGiveOriginChain}, nil
	}

	return nil, fmt.Errorf("unknown role %q", c.Role)
}

// loadOrGenerateKey loads the private key from file or generates a new one.
func loadOrGenerateKey(keyPath string) (ed25519.PrivateKey, error) {
	if keyPath == "" {
		return generateNewKey()
	}

	data, err := os.ReadFile(keyPath)
	if os.IsNotExist(err) {
		return generateAndSaveKey(keyPath)
	}

	if err != nil {
		return nil, fmt.Errorf("read key file:\n%w", err)
	}

	if len(data) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid key size: got %d, want %d", len(data), ed25519.PrivateKeySize)
	}

	return ed25519.PrivateKey(data), nil
}

// generateNewKey creates a new Ed25519 private key.
func generateNewKey() (ed25519.PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key:\n%w", err)
	}

	return priv, nil
}

// generateAndSaveKey creates a new key and saves it to the given path.
func generateAndSaveKey(path string) (ed25519.PrivateKey, error) {
	priv, err := generateNewKey()
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, priv, 0600); err != nil {
		return nil, fmt.Errorf("save key to %s:\n%w", path, err)
	}

	return priv, nil
}
