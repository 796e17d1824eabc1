package dashboard

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

var (
	// ErrStale is returned when an update belongs to a superseded discovery run.
	ErrStale = errors.New("stale update")
	// ErrClosed is returned after the store is closed.
	ErrClosed = errors.New("store closed")
)

type request struct {
	update Update // nil for a read
	reply  chan result
}

type result struct {
	state State
	err   error
}

// Store serializes every state change through a single goroutine.
type Store struct {
	requests chan request
	onChange func(State)
	state    State

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewStore starts a store. onChange, if set, receives a copy of every new
// state on the store goroutine in application order.
func NewStore(onChange func(State)) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		requests: make(chan request),
		onChange: onChange,
		state:    NewState(),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Store) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case req := <-s.requests:
			req.reply <- s.handle(req.update)
		}
	}
}

func (s *Store) handle(u Update) result {
	if u == nil {
		return result{state: s.state.Clone()}
	}

	if g, ok := u.(generational); ok && g.generation() < s.state.Generation {
		zlog.Debug().Msgf("dropping stale update: %T gen=%d current=%d", u, g.generation(), s.state.Generation)
		return result{state: s.state.Clone(), err: ErrStale}
	}

	u.apply(&s.state)
	s.state.Version++

	snapshot := s.state.Clone()
	if s.onChange != nil {
		s.onChange(snapshot.Clone())
	}
	return result{state: snapshot}
}

// Dispatch applies u and returns the resulting state. A stale update is
// dropped and reported with ErrStale alongside the unchanged state.
func (s *Store) Dispatch(ctx context.Context, u Update) (State, error) {
	if u == nil {
		return State{}, errors.New("update is required")
	}
	return s.do(ctx, u)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot(ctx context.Context) (State, error) {
	return s.do(ctx, nil)
}

func (s *Store) do(ctx context.Context, u Update) (State, error) {
	req := request{update: u, reply: make(chan result, 1)}

	select {
	case s.requests <- req:
	case <-ctx.Done():
		return State{}, ctx.Err()
	case <-s.ctx.Done():
		return State{}, ErrClosed
	}

	res := <-req.reply
	return res.state, res.err
}

// Close stops the store goroutine.
func (s *Store) Close() {
	s.cancel()
	<-s.done
}
