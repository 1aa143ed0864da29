package camara

import (
	"context"
	"fmt"
	"sync"

	"github.com/aussiebroadwan/vonage/pkg/errx"
)

// State is a step of a network API call.
type State int

const (
	StateIdle State = iota
	StateAuthorizing
	StateExchanging
	StateInvoking
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateAuthorizing:
		return "AUTHORIZING"
	case StateExchanging:
		return "EXCHANGING"
	case StateInvoking:
		return "INVOKING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// Invoker performs the resource call with the token the flow obtained.
type Invoker func(ctx context.Context, token *Token) error

// Flow drives one backchannel network API call: authorize, exchange the
// ticket, invoke the resource. Steps run in order and the first failure
// ends the flow in StateFailed. A Flow runs once.
type Flow struct {
	auth   *NetworkAuth
	number string
	scope  string

	mu      sync.Mutex
	state   State
	err     error
	history []State
}

// NewFlow prepares a flow for number under scope. Nothing happens until Run.
func (a *NetworkAuth) NewFlow(number, scope string) *Flow {
	return &Flow{
		auth:    a,
		number:  number,
		scope:   scope,
		history: []State{StateIdle},
	}
}

// Run executes the flow. It fails with KindValidation when called a second time.
func (f *Flow) Run(ctx context.Context, invoke Invoker) error {
	if invoke == nil {
		return errx.New(errx.KindValidation, "invoker is required")
	}
	if !f.advance(StateIdle, StateAuthorizing) {
		return errx.Newf(errx.KindValidation, "flow already ran, state %s", f.State())
	}

	ticket, err := f.auth.BackchannelAuthorize(ctx, f.number, f.scope)
	if err != nil {
		return f.fail(err)
	}

	f.advance(StateAuthorizing, StateExchanging)
	token, err := f.auth.ExchangeTicket(ctx, ticket)
	if err != nil {
		return f.fail(err)
	}

	f.advance(StateExchanging, StateInvoking)
	if err := invoke(ctx, token); err != nil {
		return f.fail(err)
	}

	f.advance(StateInvoking, StateDone)
	return nil
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the error the flow failed with, if any.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// History returns the states visited so far, starting with StateIdle.
func (f *Flow) History() []State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]State(nil), f.history...)
}

func (f *Flow) advance(from, to State) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != from {
		return false
	}
	f.state = to
	f.history = append(f.history, to)
	f.auth.client.Logger().Debug("camara flow transition",
		"from", from.String(),
		"to", to.String(),
		"scope", f.scope,
	)
	return true
}

func (f *Flow) fail(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	from := f.state
	f.state = StateFailed
	f.err = err
	f.history = append(f.history, StateFailed)
	f.auth.client.Logger().Debug("camara flow failed",
		"from", from.String(),
		"kind", errx.KindOf(err).String(),
	)
	return err
}
