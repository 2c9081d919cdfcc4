// Package network carries bound witness sessions between devices. Each
// session runs over its own QUIC connection and a single bidirectional
// stream of length-prefixed frames.
package network

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"XyoCore/internal/logger"
)

const (
	// alpnProtocol is the ALPN protocol identifier.
	alpnProtocol = "xyo-bw/1"

	// defaultIdleTimeout closes connections of stalled peers.
	defaultIdleTimeout = 30 * time.Second

	// defaultAcceptTimeout bounds the wait for the opening packet.
	defaultAcceptTimeout = 10 * time.Second
)

// Config holds the configuration for a Node.
type Config struct {
	PrivateKey  ed25519.PrivateKey // PrivateKey is the transport key, generated when nil
	ListenAddr  string             // ListenAddr is the address to listen on (e.g., ":9000")
	IdleTimeout time.Duration      // IdleTimeout closes silent connections
	Cooldown    time.Duration      // Cooldown is the minimum delay between sessions from one peer
}

// Handler runs the responder side of a session. The node closes the pipe
// when the handler returns.
type Handler func(ctx context.Context, pipe *Pipe)

// Node accepts and opens bound witness pipes over QUIC.
type Node struct {
	privateKey ed25519.PrivateKey // privateKey is the transport private key
	publicKey  ed25519.PublicKey  // publicKey is the transport public key
	listenAddr string             // listenAddr is the address to listen on
	tlsConfig  *tls.Config        // tlsConfig is the TLS configuration
	quicConfig *quic.Config       // quicConfig is the QUIC configuration

	listener *quic.Listener // listener is the QUIC listener
	cooldown *Cooldown      // cooldown throttles repeated sessions from one peer

	handler   Handler      // handler serves incoming pipes
	handlerMu sync.RWMutex // handlerMu protects handler

	log    *slog.Logger
	ctx    context.Context    // ctx is the node's context
	cancel context.CancelFunc // cancel cancels the node's context
	wg     sync.WaitGroup     // wg waits for goroutines to finish
}

// NewNode creates a new network node.
func NewNode(cfg Config) (*Node, error) {
	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("listen address is required")
	}

	privateKey := cfg.PrivateKey
	if privateKey == nil {
		var err error
		if _, privateKey, err = ed25519.GenerateKey(rand.Reader); err != nil {
			return nil, fmt.Errorf("generate transport key:\n%w", err)
		}
	}

	idle := cfg.IdleTimeout
	if idle == 0 {
		idle = defaultIdleTimeout
	}

	cert, err := transportCertificate(privateKey)
	if err != nil {
		return nil, fmt.Errorf("generate certificate:\n%w", err)
	}

	tlsConfig := &tls.Config{
		Certificates:       []tls.Certificate{cert},
		ClientAuth:         tls.RequireAnyClientCert,
		InsecureSkipVerify: true, // peers are identified by their bound witness keys
		NextProtos:         []string{alpnProtocol},
	}

	quicConfig := &quic.Config{
		MaxIdleTimeout:  idle,
		KeepAlivePeriod: idle / 3,
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Node{
		privateKey: privateKey,
		publicKey:  privateKey.Public().(ed25519.PublicKey),
		listenAddr: cfg.ListenAddr,
		tlsConfig:  tlsConfig,
		quicConfig: quicConfig,
		cooldown:   NewCooldown(cfg.Cooldown),
		log:        logger.Component("net"),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// PublicKey returns the node's transport key.
func (n *Node) PublicKey() ed25519.PublicKey {
	return n.publicKey
}

// Addr returns the listener's address. Returns empty string if not started.
func (n *Node) Addr() string {
	if n.listener == nil {
		return ""
	}

	return n.listener.Addr().String()
}

// OnPipe sets the handler for incoming sessions.
func (n *Node) OnPipe(fn Handler) {
	n.handlerMu.Lock()
	n.handler = fn
	n.handlerMu.Unlock()
}

// Start starts listening for incoming sessions.
func (n *Node) Start() error {
	listener, err := quic.ListenAddr(n.listenAddr, n.tlsConfig, n.quicConfig)
	if err != nil {
		return fmt.Errorf("listen:\n%w", err)
	}

	n.listener = listener

	n.wg.Add(1)
	go n.acceptLoop()

	n.log.Info("listening", "addr", n.Addr(), "key", hex.EncodeToString(n.publicKey[:8]))

	return nil
}

// Dial opens a pipe to addr. The caller initiates the session and closes
// the pipe.
func (n *Node) Dial(ctx context.Context, addr string) (*Pipe, error) {
	conn, err := quic.DialAddr(ctx, addr, n.tlsConfig, n.quicConfig)
	if err != nil {
		return nil, fmt.Errorf("dial %s:\n%w", addr, err)
	}

	peer, err := remoteKey(conn)
	if err != nil {
		conn.CloseWithError(1, "bad certificate")
		return nil, fmt.Errorf("dial %s:\n%w", addr, err)
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(1, "open stream failed")
		return nil, fmt.Errorf("open stream:\n%w", err)
	}

	return newPipe(conn, stream, nil, peer), nil
}

// Close stops the node and waits for running handlers.
func (n *Node) Close() error {
	n.cancel()

	if n.listener != nil {
		n.listener.Close()
	}

	n.wg.Wait()
	n.cooldown.Close()

	return nil
}

// acceptLoop accepts incoming connections.
func (n *Node) acceptLoop() {
	defer n.wg.Done()

	for {
		conn, err := n.listener.Accept(n.ctx)
		if err != nil {
			return // Listener closed
		}

		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.handleIncoming(conn)
		}()
	}
}

// handleIncoming reads the opening packet and hands the pipe to the handler.
func (n *Node) handleIncoming(conn *quic.Conn) {
	peer, err := remoteKey(conn)
	if err != nil {
		conn.CloseWithError(1, "bad certificate")
		return
	}

	if !n.cooldown.Allow(peer) {
		n.log.Debug("peer in cooldown", "peer", conn.RemoteAddr().String())
		conn.CloseWithError(2, "cooldown")
		return
	}

	ctx, cancel := context.WithTimeout(n.ctx, defaultAcceptTimeout)
	stream, err := conn.AcceptStream(ctx)
	cancel()

	if err != nil {
		conn.CloseWithError(1, "no stream")
		return
	}

	stream.SetReadDeadline(time.Now().Add(defaultAcceptTimeout))
	initiation, err := readFrame(stream)
	if err != nil || initiation == nil {
		n.log.Debug("no opening packet", "peer", conn.RemoteAddr().String(), "error", err)
		conn.CloseWithError(1, "no opening packet")
		return
	}
	stream.SetReadDeadline(time.Time{})

	pipe := newPipe(conn, stream, initiation, peer)
	defer pipe.Close()

	n.handlerMu.RLock()
	fn := n.handler
	n.handlerMu.RUnlock()

	if fn == nil {
		n.log.Warn("incoming session without handler", "peer", conn.RemoteAddr().String())
		return
	}

	fn(n.ctx, pipe)
}
