package network

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"

	"XyoCore/internal/fault"
)

const (
	// defaultRequestTimeout bounds a send-and-receive without a context deadline.
	defaultRequestTimeout = 30 * time.Second

	// lingerTimeout bounds the wait for the peer to finish on close.
	lingerTimeout = 5 * time.Second

	// maxFrameSize bounds one frame (16 MB).
	maxFrameSize = 16 << 20
)

// Pipe is one bound witness session over a QUIC stream.
type Pipe struct {
	conn       *quic.Conn        // conn is the session's connection
	stream     *quic.Stream      // stream carries the frames
	initiation []byte            // initiation is the peer's opening packet, nil when dialed
	peer       ed25519.PublicKey // peer is the remote transport key
	closed     atomic.Bool       // closed indicates the pipe was closed
	mu         sync.Mutex        // mu serializes sends
}

func newPipe(conn *quic.Conn, stream *quic.Stream, initiation []byte, peer ed25519.PublicKey) *Pipe {
	return &Pipe{conn: conn, stream: stream, initiation: initiation, peer: peer}
}

// Peer returns the remote transport key.
func (p *Pipe) Peer() ed25519.PublicKey {
	return p.peer
}

// RemoteAddr returns the remote network address.
func (p *Pipe) RemoteAddr() string {
	return p.conn.RemoteAddr().String()
}

// InitiationData returns the opening packet received from the peer.
func (p *Pipe) InitiationData() []byte {
	return p.initiation
}

// Send writes one frame and, when expectResponse is set, reads the next
// frame. A peer that finishes its side without answering yields nil.
func (p *Pipe) Send(ctx context.Context, data []byte, expectResponse bool) ([]byte, error) {
	if p.closed.Load() {
		return nil, fmt.Errorf("pipe is closed")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultRequestTimeout)
	}
	p.stream.SetDeadline(deadline)

	if err := writeFrame(p.stream, data); err != nil {
		return nil, err
	}

	if !expectResponse {
		return nil, nil
	}

	return readFrame(p.stream)
}

// Close finishes the send side, waits briefly for the peer to finish, and
// closes the connection.
func (p *Pipe) Close() error {
	if p.closed.Swap(true) {
		return nil // Already closed
	}

	p.stream.Close()

	p.stream.SetReadDeadline(time.Now().Add(lingerTimeout))
	io.Copy(io.Discard, p.stream)

	return p.conn.CloseWithError(0, "done")
}

// writeFrame writes data behind a 4-byte big-endian length in one write.
func writeFrame(w io.Writer, data []byte) error {
	if len(data) > maxFrameSize {
		return fault.Protocolf("frame of %d bytes exceeds %d", len(data), maxFrameSize)
	}

	frame := make([]byte, 4, 4+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	frame = append(frame, data...)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame:\n%w", err)
	}
	return nil
}

// readFrame reads one frame. A stream that ends before the next frame yields
// a nil frame: the peer finished without answering. A stream that ends
// inside a frame is an error. An empty frame is returned as a non-nil empty
// slice.
func readFrame(r io.Reader) ([]byte, error) {
	var prefix [4]byte

	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read frame length:\n%w", err)
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size > maxFrameSize {
		return nil, fault.Protocolf("frame of %d bytes exceeds %d", size, maxFrameSize)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read frame:\n%w", err)
	}

	return data, nil
}
