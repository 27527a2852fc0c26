package connection

import (
	"fmt"
	"sync"

	"github.com/YasiruR/didcomm-envelope/domain"
)

type State int

const (
	Idle State = iota
	InvitationCreated
	AwaitingExchangeRequest
	ExchangeResponseSent
	InvitationReceived
	ExchangeRequestSent
	AwaitingExchangeResponse
	ExchangeResponseVerified
	ConnectionEstablished
	Failed
)

var stateNames = map[State]string{
	Idle:                     `idle`,
	InvitationCreated:        `invitation-created`,
	AwaitingExchangeRequest:  `awaiting-exchange-request`,
	ExchangeResponseSent:     `exchange-response-sent`,
	InvitationReceived:       `invitation-received`,
	ExchangeRequestSent:      `exchange-request-sent`,
	AwaitingExchangeResponse: `awaiting-exchange-response`,
	ExchangeResponseVerified: `exchange-response-verified`,
	ConnectionEstablished:    `connection-established`,
	Failed:                   `failed`,
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf(`state(%d)`, int(s))
}

func (s State) Terminal() bool {
	return s == ConnectionEstablished || s == Failed
}

// transitions of the inviter path followed by the invitee path
var transitions = map[State][]State{
	Idle:                     {InvitationCreated, InvitationReceived},
	InvitationCreated:        {AwaitingExchangeRequest},
	AwaitingExchangeRequest:  {ExchangeResponseSent},
	ExchangeResponseSent:     {ConnectionEstablished},
	InvitationReceived:       {ExchangeRequestSent},
	ExchangeRequestSent:      {AwaitingExchangeResponse},
	AwaitingExchangeResponse: {ExchangeResponseVerified},
	ExchangeResponseVerified: {ConnectionEstablished},
}

// CanTransitionTo reports whether the handshake may move to next. Any
// non-terminal state may fail.
func (s State) CanTransitionTo(next State) bool {
	if s.Terminal() {
		return false
	}

	if next == Failed {
		return true
	}

	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// tracker holds the state of a single handshake
type tracker struct {
	state State
	err   error
	*sync.RWMutex
}

func newTracker() *tracker {
	return &tracker{state: Idle, RWMutex: &sync.RWMutex{}}
}

func (t *tracker) transition(next State) error {
	t.Lock()
	defer t.Unlock()
	if !t.state.CanTransitionTo(next) {
		return fmt.Errorf(`%w - %s to %s`, domain.ErrInvalidTransition, t.state, next)
	}
	t.state = next
	return nil
}

// fail moves to the failed state unless the handshake already terminated,
// returning err for convenience
func (t *tracker) fail(err error) error {
	t.Lock()
	defer t.Unlock()
	if !t.state.Terminal() {
		t.state, t.err = Failed, err
	}
	return err
}

func (t *tracker) current() (State, error) {
	t.RLock()
	defer t.RUnlock()
	return t.state, t.err
}
