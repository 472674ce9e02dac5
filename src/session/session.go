package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/shioaji-mcp/src/broker"
	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateAuthenticated State = "authenticated"
	StateTerminated    State = "terminated"
)

// BrokerFactory returns the backend handle to authenticate. It may hand back
// the same handle on every call.
type BrokerFactory func() (broker.IBroker, error)

type Status struct {
	State      State                 `json:"state"`
	Simulation bool                  `json:"simulation"`
	Accounts   []eventmodels.Account `json:"accounts"`
}

// Session owns the single backend connection shared by every tool. Login and
// Logout are serialized against each other; backend calls made through the
// handle returned by Broker are not.
type Session struct {
	newBroker  BrokerFactory
	dispatcher *Dispatcher
	simulation bool

	lifecycle sync.Mutex

	mu       sync.RWMutex
	handle   broker.IBroker
	bound    broker.IBroker
	state    State
	accounts []eventmodels.Account
	epoch    uint64
}

func New(factory BrokerFactory, dispatcher *Dispatcher, simulation bool) *Session {
	if dispatcher == nil {
		dispatcher = NewDispatcher()
	}

	return &Session{
		newBroker:  factory,
		dispatcher: dispatcher,
		simulation: simulation,
		state:      StateUninitialized,
	}
}

func (s *Session) Dispatcher() *Dispatcher {
	return s.dispatcher
}

func (s *Session) Simulation() bool {
	return s.simulation
}

// Login authenticates a fresh backend handle, replacing any live one. When
// creds.FetchContract is set the contract directory is downloaded afterwards;
// a failed download is logged but does not fail the login.
func (s *Session) Login(ctx context.Context, creds eventmodels.Credentials) ([]eventmodels.Account, error) {
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("Session.Login: %w", err)
	}

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.State().State == StateAuthenticated {
		log.Info("session: logging out previous session before login")
		s.logout(ctx)
	}

	handle, err := s.newBroker()
	if err != nil {
		return nil, fmt.Errorf("Session.Login: failed to create broker: %v: %w", err, eventmodels.ErrConnection)
	}

	backendCreds := creds
	backendCreds.FetchContract = false

	accounts, err := handle.Login(ctx, backendCreds, s.simulation)
	if err != nil {
		if errors.Is(err, eventmodels.ErrConnection) {
			return nil, fmt.Errorf("Session.Login: %w", err)
		}

		return nil, fmt.Errorf("Session.Login: %v: %w", err, eventmodels.ErrConnection)
	}

	s.mu.Lock()
	if s.bound != handle {
		s.dispatcher.Bind(handle)
		s.bound = handle
	}
	s.handle = handle
	s.state = StateAuthenticated
	s.accounts = accounts
	s.epoch++
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"simulation": s.simulation,
		"accounts":   len(accounts),
		"creds":      creds.String(),
	}).Info("session: logged in")

	if creds.FetchContract {
		if err := handle.FetchContracts(ctx); err != nil {
			log.Warnf("session: contract fetch failed: %v", err)
		}
	}

	return accounts, nil
}

// Logout is best effort and idempotent: a backend error is logged and the
// session is still considered terminated.
func (s *Session) Logout(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.logout(ctx)
	return nil
}

func (s *Session) logout(ctx context.Context) {
	s.mu.Lock()
	handle := s.handle
	if s.state != StateAuthenticated || handle == nil {
		s.mu.Unlock()
		return
	}

	s.handle = nil
	s.accounts = nil
	s.state = StateTerminated
	s.epoch++
	s.mu.Unlock()

	if err := handle.Logout(ctx); err != nil {
		log.Warnf("session: logout failed: %v", err)
		return
	}

	log.Info("session: logged out")
}

// Broker returns the live backend handle or ErrNotLoggedIn.
func (s *Session) Broker() (broker.IBroker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != StateAuthenticated || s.handle == nil {
		return nil, eventmodels.ErrNotLoggedIn
	}

	return s.handle, nil
}

// Epoch changes every time a session starts or ends. State keyed to one
// session, such as trade handles, is stale once the epoch moves.
func (s *Session) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *Session) State() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		State:      s.state,
		Simulation: s.simulation,
		Accounts:   append([]eventmodels.Account(nil), s.accounts...),
	}
}
