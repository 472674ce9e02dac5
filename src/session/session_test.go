package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/shioaji-mcp/src/broker"
	"github.com/jiaming2012/shioaji-mcp/src/broker/mock"
	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

var testCreds = eventmodels.Credentials{APIKey: "key", SecretKey: "secret"}

func newTestSession(b *mock.Broker) *Session {
	return New(func() (broker.IBroker, error) { return b, nil }, nil, true)
}

func TestSessionLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("not logged in", func(t *testing.T) {
		s := newTestSession(mock.New())

		_, err := s.Broker()
		assert.ErrorIs(t, err, eventmodels.ErrConnection)
		assert.Equal(t, StateUninitialized, s.State().State)
	})

	t.Run("empty credentials", func(t *testing.T) {
		b := mock.New()
		s := newTestSession(b)

		_, err := s.Login(ctx, eventmodels.Credentials{APIKey: "key"})
		assert.ErrorIs(t, err, eventmodels.ErrConnection)
		assert.Empty(t, b.Calls("Login"))
	})

	t.Run("backend rejection is a connection error", func(t *testing.T) {
		b := mock.New()
		b.LoginFunc = func(context.Context, eventmodels.Credentials, bool) ([]eventmodels.Account, error) {
			return nil, fmt.Errorf("Sign data is timeout")
		}
		s := newTestSession(b)

		_, err := s.Login(ctx, testCreds)
		require.ErrorIs(t, err, eventmodels.ErrConnection)
		assert.Contains(t, err.Error(), "Sign data is timeout")
		assert.Equal(t, StateUninitialized, s.State().State)
	})

	t.Run("factory failure", func(t *testing.T) {
		s := New(func() (broker.IBroker, error) { return nil, fmt.Errorf("bridge unreachable") }, nil, false)

		_, err := s.Login(ctx, testCreds)
		assert.ErrorIs(t, err, eventmodels.ErrConnection)
	})

	t.Run("success binds callbacks and fetches contracts", func(t *testing.T) {
		b := mock.New()
		b.Accounts = []eventmodels.Account{{AccountID: "0506112", Signed: true}}
		s := newTestSession(b)

		creds := testCreds
		creds.FetchContract = true
		accounts, err := s.Login(ctx, creds)
		require.NoError(t, err)
		assert.Equal(t, b.Accounts, accounts)

		handle, err := s.Broker()
		require.NoError(t, err)
		assert.Same(t, b, handle)

		status := s.State()
		assert.Equal(t, StateAuthenticated, status.State)
		assert.True(t, status.Simulation)

		assert.Len(t, b.Calls("FetchContracts"), 1)
		assert.Len(t, b.Calls("SetOnTick"), 1)
		assert.Len(t, b.Calls("SetOnOrder"), 1)

		loginCall := b.Calls("Login")[0]
		assert.Equal(t, true, loginCall.Args[1])
	})

	t.Run("re-login logs out first and binds once per handle", func(t *testing.T) {
		b := mock.New()
		s := newTestSession(b)

		_, err := s.Login(ctx, testCreds)
		require.NoError(t, err)
		_, err = s.Login(ctx, testCreds)
		require.NoError(t, err)

		assert.Len(t, b.Calls("Logout"), 1)
		assert.Len(t, b.Calls("Login"), 2)
		assert.Len(t, b.Calls("SetOnTick"), 1)
	})
}

func TestSessionLogout(t *testing.T) {
	ctx := context.Background()
	b := mock.New()
	s := newTestSession(b)

	require.NoError(t, s.Logout(ctx), "logout before login is a no-op")
	assert.Equal(t, uint64(0), s.Epoch())

	_, err := s.Login(ctx, testCreds)
	require.NoError(t, err)
	loggedIn := s.Epoch()
	assert.NotEqual(t, uint64(0), loggedIn)

	require.NoError(t, s.Logout(ctx))
	loggedOut := s.Epoch()
	assert.NotEqual(t, loggedIn, loggedOut)

	require.NoError(t, s.Logout(ctx))
	assert.Equal(t, loggedOut, s.Epoch(), "a repeated logout does not end another session")

	assert.Len(t, b.Calls("Logout"), 1)
	assert.Equal(t, StateTerminated, s.State().State)

	_, err = s.Broker()
	assert.ErrorIs(t, err, eventmodels.ErrNotLoggedIn)
}

func TestSessionDispatchAfterLogin(t *testing.T) {
	ctx := context.Background()
	b := mock.New()
	s := newTestSession(b)

	_, err := s.Login(ctx, testCreds)
	require.NoError(t, err)

	var codes []eventmodels.StockCode
	s.Dispatcher().OnBidAsk(func(_ eventmodels.Exchange, bidask *eventmodels.BidAsk) {
		codes = append(codes, bidask.Code)
	})

	b.Emit(eventmodels.ExchangeTSE, &eventmodels.BidAsk{Code: "2330"})
	assert.Equal(t, []eventmodels.StockCode{"2330"}, codes)
}
