package boundwitness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"XyoCore/internal/fault"
	"XyoCore/internal/logger"
)

// MaxRounds bounds the rounds of one session.
const MaxRounds = 8

// Pipe is a duplex connection to the peer of one session.
type Pipe interface {
	// Send writes data to the peer. When expectResponse is set it blocks for
	// the peer's reply; a nil reply means the peer sent nothing.
	Send(ctx context.Context, data []byte, expectResponse bool) ([]byte, error)

	// Close tears down the connection.
	Close() error

	// InitiationData returns the packet the peer opened with, or nil when
	// this side initiates.
	InitiationData() []byte
}

// State is the phase of a session.
type State int

const (
	StateInit State = iota
	StateExchanging
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateExchanging:
		return "exchanging"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Negotiate settles the choice for a session. A responder reads the peer's
// catalogue from the pipe's initiation data and answers later with its
// choice. An initiator sends its catalogue and receives the choice together
// with the responder's first transfer.
func Negotiate(ctx context.Context, pipe Pipe, catalogue []byte) (choice, transfer []byte, err error) {
	if initiation := pipe.InitiationData(); initiation != nil {
		peer, _, err := ParseCataloguePacket(initiation)
		if err != nil {
			return nil, nil, err
		}

		choice := Choose(catalogue, peer)
		if !selectsBoundWitness(choice) {
			return nil, nil, fault.Creationf("catalogues %x and %x share no bound witness flag", catalogue, peer)
		}

		return choice, nil, nil
	}

	packet, err := CataloguePacket(catalogue)
	if err != nil {
		return nil, nil, err
	}

	resp, err := pipe.Send(ctx, packet, true)
	if err != nil {
		return nil, nil, fault.Creation(fmt.Errorf("send catalogue:\n%w", err))
	}

	if resp == nil {
		return nil, nil, fault.Creationf("no answer to catalogue")
	}

	choice, transfer, err = ParseChoicePacket(resp)
	if err != nil {
		return nil, nil, err
	}

	if !selectsBoundWitness(choice) {
		return nil, nil, fault.Creationf("choice %x does not select a bound witness", choice)
	}

	if len(transfer) == 0 {
		return nil, nil, fault.Protocolf("choice packet without transfer")
	}

	return choice, transfer, nil
}

func selectsBoundWitness(choice []byte) bool {
	return Matches([]byte{FlagBoundWitness}, choice)
}

// Session runs the round loop of one bound witness over a pipe.
type Session struct {
	id     uuid.UUID
	pipe   Pipe
	zigzag *ZigZag
	choice []byte
	state  State
	round  int
	log    *slog.Logger
}

// NewSession creates a session. choice is sent in the responder's first
// packet and ignored on the initiator.
func NewSession(pipe Pipe, zigzag *ZigZag, choice []byte) *Session {
	id := uuid.New()

	return &Session{
		id:     id,
		pipe:   pipe,
		zigzag: zigzag,
		choice: choice,
		state:  StateInit,
		log:    logger.Component("bws").With("session", id.String()),
	}
}

// ID returns the session id used in logs.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the current phase.
func (s *Session) State() State {
	return s.state
}

// Rounds returns the number of completed rounds.
func (s *Session) Rounds() int {
	return s.round
}

// BoundWitness returns the witness built by the session.
func (s *Session) BoundWitness() *BoundWitness {
	return s.zigzag.BoundWitness()
}

// Run exchanges rounds until the witness completes. transfer is the
// responder's first transfer on the initiator and nil on the responder.
// The pipe is not closed here; the owner of the pipe closes it.
func (s *Session) Run(ctx context.Context, transfer []byte) error {
	if s.state != StateInit {
		return fault.Creationf("session %s already %s", s.id, s.state)
	}

	start := time.Now()
	s.state = StateExchanging

	if err := s.loop(ctx, transfer); err != nil {
		s.state = StateFailed
		s.log.Warn("bound witness failed", "round", s.round, "kind", fault.Kind(err), "error", err)
		return err
	}

	s.state = StateCompleted
	s.log.Debug("bound witness completed", "rounds", s.round, "parties", s.BoundWitness().Parties(), logger.Timed(start))

	return nil
}

func (s *Session) loop(ctx context.Context, transfer []byte) error {
	initiator := transfer != nil

	for !s.zigzag.Completed() {
		if s.round >= MaxRounds {
			return fault.Protocolf("no completion after %d rounds", s.round)
		}

		if err := ctx.Err(); err != nil {
			return fault.Creation(err)
		}

		if s.round > 0 && transfer == nil {
			return fault.Creationf("peer sent nothing in round %d", s.round)
		}

		out, err := s.zigzag.IncomingData(transfer, s.round == 0 && initiator)
		if err != nil {
			return fmt.Errorf("round %d:\n%w", s.round, err)
		}

		resp, err := s.send(ctx, out, initiator)
		if err != nil {
			return err
		}

		if s.round == 0 && initiator {
			if _, err := s.zigzag.IncomingData(resp, false); err != nil {
				return fmt.Errorf("final round:\n%w", err)
			}
			s.round++
			break
		}

		transfer = resp
		s.round++
	}

	if !s.zigzag.Completed() {
		return fault.Protocolf("exchange ended with an incomplete bound witness")
	}

	return nil
}

// send writes one round. Round 0 always expects an answer: the responder
// prefixes its choice, the initiator waits for the closing signatures.
func (s *Session) send(ctx context.Context, out []byte, initiator bool) ([]byte, error) {
	first := s.round == 0

	if first && !initiator {
		packet, err := ChoicePacket(s.choice, out)
		if err != nil {
			return nil, err
		}
		out = packet
	}

	resp, err := s.pipe.Send(ctx, out, first)
	if err != nil {
		return nil, fault.Creation(fmt.Errorf("send round %d:\n%w", s.round, err))
	}

	if first && resp == nil {
		return nil, fault.Creationf("response is nil in round %d", s.round)
	}

	return resp, nil
}
