package mcptools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/shioaji-mcp/src/broker"
	"github.com/jiaming2012/shioaji-mcp/src/broker/mock"
	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
	"github.com/jiaming2012/shioaji-mcp/src/session"
)

var taipei = time.FixedZone("CST", 8*60*60)

func newTestServer(t *testing.T) (*Server, *mock.Broker) {
	t.Helper()

	b := mock.New()
	b.Accounts = []eventmodels.Account{{AccountType: eventmodels.AccountTypeStock, PersonID: "A123456789", BrokerID: "9A95", AccountID: "1234567", Signed: true}}
	b.AddContract(eventmodels.Contract{
		Code:      "2330",
		Name:      "台積電",
		Exchange:  eventmodels.ExchangeTSE,
		Reference: decimal.NewFromInt(1035),
		LimitUp:   decimal.NewFromInt(1135),
		LimitDown: decimal.NewFromInt(932),
	})

	sess := session.New(func() (broker.IBroker, error) { return b, nil }, nil, true)
	srv := NewServer(sess, Options{
		Version:     "test",
		Location:    taipei,
		Credentials: eventmodels.Credentials{APIKey: "env-key", SecretKey: "env-secret"},
	})

	return srv, b
}

func call(t *testing.T, srv *Server, name string, args map[string]interface{}) (string, bool) {
	t.Helper()

	res, err := srv.Call(context.Background(), name, args)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)

	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text, res.IsError
	case *mcp.TextContent:
		return c.Text, res.IsError
	default:
		t.Fatalf("unexpected content %T", res.Content[0])
		return "", true
	}
}

func login(t *testing.T, srv *Server) {
	t.Helper()

	text, isErr := call(t, srv, "login", map[string]interface{}{"fetch_contract": false})
	require.False(t, isErr, text)
}

func TestToolsRegistered(t *testing.T) {
	srv, _ := newTestServer(t)

	var names []string
	for _, tool := range srv.Tools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
	}

	assert.Equal(t, []string{
		"login", "list_accounts", "list_products", "stock_tick", "stock_bidask", "stock_quote",
		"place_order", "update_order_price", "update_order_quantity", "cancel_order", "list_trades",
		"list_positions", "list_profit_loss", "account_balance", "technical_indicators",
		"market_snapshot", "logout",
	}, names)

	_, err := srv.Call(context.Background(), "level2", nil)
	assert.ErrorIs(t, err, eventmodels.ErrLookup)
}

func TestToolsRequireLogin(t *testing.T) {
	srv, b := newTestServer(t)

	for _, name := range []string{"list_accounts", "list_trades", "account_balance"} {
		text, isErr := call(t, srv, name, nil)
		assert.True(t, isErr, name)
		assert.Contains(t, text, "not logged in", name)
	}

	text, isErr := call(t, srv, "stock_tick", map[string]interface{}{"stock_id": "2330"})
	assert.True(t, isErr)
	assert.Contains(t, text, "not logged in")
	assert.Empty(t, b.Calls("Subscribe"))
}

func TestLoginTool(t *testing.T) {
	t.Run("configured credentials", func(t *testing.T) {
		srv, b := newTestServer(t)

		text, isErr := call(t, srv, "login", nil)
		require.False(t, isErr, text)
		assert.Contains(t, text, "1234567")

		calls := b.Calls("Login")
		require.Len(t, calls, 1)
		creds := calls[0].Args[0].(eventmodels.Credentials)
		assert.Equal(t, "env-key", creds.APIKey)
		assert.Equal(t, true, calls[0].Args[1])
		assert.Len(t, b.Calls("FetchContracts"), 1)
	})

	t.Run("explicit credentials and ca", func(t *testing.T) {
		srv, b := newTestServer(t)

		text, isErr := call(t, srv, "login", map[string]interface{}{
			"api_key":        "k",
			"secret_key":     "s",
			"fetch_contract": false,
			"ca_path":        "/tmp/Sinopac.pfx",
			"person_id":      "A123456789",
		})
		require.False(t, isErr, text)

		creds := b.Calls("Login")[0].Args[0].(eventmodels.Credentials)
		assert.Equal(t, "k", creds.APIKey)
		require.NotNil(t, creds.CA)
		assert.Equal(t, "A123456789", creds.CA.PersonID)
		assert.Empty(t, b.Calls("FetchContracts"))
	})

	t.Run("half a credential pair", func(t *testing.T) {
		srv, b := newTestServer(t)

		text, isErr := call(t, srv, "login", map[string]interface{}{"api_key": "k"})
		assert.True(t, isErr)
		assert.Contains(t, text, "connection error")
		assert.Empty(t, b.Calls("Login"))
	})
}

func TestSubscribeTools(t *testing.T) {
	srv, b := newTestServer(t)
	login(t, srv)

	text, isErr := call(t, srv, "stock_tick", map[string]interface{}{"stock_id": float64(2330), "intraday_odd": true})
	require.False(t, isErr, text)
	assert.Equal(t, "subscribed tick 2330 on TSE (intraday_odd=true)", text)

	text, isErr = call(t, srv, "stock_quote", map[string]interface{}{"stock_id": "2330", "intraday_odd": true})
	require.False(t, isErr, text)
	assert.Contains(t, text, "intraday_odd=false")

	calls := b.Calls("Subscribe")
	require.Len(t, calls, 2)
	assert.True(t, calls[0].Args[0].(broker.SubscribeRequest).IntradayOdd)
	assert.False(t, calls[1].Args[0].(broker.SubscribeRequest).IntradayOdd)

	text, isErr = call(t, srv, "stock_bidask", map[string]interface{}{"stock_id": "9999"})
	assert.True(t, isErr)
	assert.Contains(t, text, "lookup error")

	text, isErr = call(t, srv, "stock_bidask", nil)
	assert.True(t, isErr)
	assert.Contains(t, text, "stock_id")
	assert.Len(t, b.Calls("Subscribe"), 2)
}

func TestOrderTools(t *testing.T) {
	srv, b := newTestServer(t)
	login(t, srv)

	text, isErr := call(t, srv, "place_order", map[string]interface{}{
		"stock_id": "2330",
		"price":    1000.5,
		"quantity": float64(2),
		"action":   "sell",
	})
	require.False(t, isErr, text)

	var trade eventmodels.Trade
	require.NoError(t, json.Unmarshal([]byte(text), &trade))
	assert.Equal(t, "t1", trade.Order.ID)
	assert.Equal(t, eventmodels.ActionSell, trade.Order.Action)
	assert.Equal(t, eventmodels.OrderTypeROD, trade.Order.OrderType)
	assert.True(t, decimal.RequireFromString("1000.5").Equal(trade.Order.Price))
	assert.Equal(t, eventmodels.OrderStatusSubmitted, trade.Status.Status)

	text, isErr = call(t, srv, "update_order_price", map[string]interface{}{"trade_id": "t1", "price": "1001"})
	require.False(t, isErr, text)
	assert.True(t, decimal.NewFromInt(1001).Equal(b.Trades[0].Order.Price))

	text, isErr = call(t, srv, "update_order_quantity", map[string]interface{}{"trade_id": "t1", "quantity": 1})
	require.False(t, isErr, text)
	assert.Equal(t, int64(1), b.Trades[0].Status.CancelQuantity)

	text, isErr = call(t, srv, "cancel_order", map[string]interface{}{"trade_id": "t1"})
	require.False(t, isErr, text)
	assert.Contains(t, text, string(eventmodels.OrderStatusCancelled))

	text, isErr = call(t, srv, "cancel_order", map[string]interface{}{"trade_id": "nope"})
	assert.True(t, isErr)
	assert.Contains(t, text, "unknown trade reference")

	text, isErr = call(t, srv, "update_order_price", map[string]interface{}{"trade_id": "t1"})
	assert.True(t, isErr)
	assert.Contains(t, text, "price")
}

func TestPlaceOrderValidation(t *testing.T) {
	srv, b := newTestServer(t)
	login(t, srv)

	cases := map[string]map[string]interface{}{
		"zero quantity":      {"stock_id": "2330", "price": 1000, "quantity": 0},
		"fractional qty":     {"stock_id": "2330", "price": 1000, "quantity": 1.5},
		"missing limit":      {"stock_id": "2330", "quantity": 1},
		"bad action":         {"stock_id": "2330", "price": 1000, "quantity": 1, "action": "hold"},
		"market rest of day": {"stock_id": "2330", "quantity": 1, "price_type": "MKT"},
		"fractional code":    {"stock_id": 2330.5, "price": 1000, "quantity": 1},
	}

	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			text, isErr := call(t, srv, "place_order", args)
			assert.True(t, isErr)
			assert.Contains(t, text, "validation error")
		})
	}

	assert.Empty(t, b.Calls("PlaceOrder"))
}

func TestReportingTools(t *testing.T) {
	srv, b := newTestServer(t)
	login(t, srv)

	b.Positions = []eventmodels.Position{{ID: 0, Code: "2330", Direction: eventmodels.ActionBuy, Quantity: 2, Price: decimal.NewFromInt(1035), LastPrice: decimal.NewFromInt(1040), PNL: decimal.NewFromInt(10000), Cond: eventmodels.StockOrderCondCash}}
	b.Balance = eventmodels.AccountBalance{AccountID: "1234567", Balance: decimal.NewFromInt(7930000)}

	text, isErr := call(t, srv, "list_positions", map[string]interface{}{"unit": "share", "format": "csv"})
	require.False(t, isErr, text)
	assert.True(t, strings.HasPrefix(text, "id,code,direction"))
	assert.Equal(t, eventmodels.UnitShare, b.Calls("ListPositions")[0].Args[0])

	text, isErr = call(t, srv, "account_balance", map[string]interface{}{"format": "table"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "7,930,000")

	text, isErr = call(t, srv, "list_profit_loss", map[string]interface{}{"begin_date": "2024-13-01"})
	assert.True(t, isErr)
	assert.Contains(t, text, "validation error")

	text, isErr = call(t, srv, "list_profit_loss", nil)
	require.False(t, isErr, text)
	window := b.Calls("ListProfitLoss")
	require.Len(t, window, 1)
	begin, end := window[0].Args[0].(time.Time), window[0].Args[1].(time.Time)
	assert.Equal(t, 30*24*time.Hour, end.Sub(begin))

	text, isErr = call(t, srv, "market_snapshot", map[string]interface{}{"stock_ids": "2330, 2330"})
	require.False(t, isErr, text)
	var snapshots []eventmodels.Snapshot
	require.NoError(t, json.Unmarshal([]byte(text), &snapshots))
	require.Len(t, snapshots, 2)
	assert.Equal(t, 1035.0, snapshots[0].Close)

	text, isErr = call(t, srv, "list_products", map[string]interface{}{"exchange": "NYSE"})
	assert.True(t, isErr)
	assert.Contains(t, text, "exchange")

	text, isErr = call(t, srv, "list_accounts", map[string]interface{}{"format": "xml"})
	assert.True(t, isErr)
	assert.Contains(t, text, "invalid format")

	text, isErr = call(t, srv, "list_trades", map[string]interface{}{"format": "csv"})
	require.False(t, isErr, text)
	assert.True(t, strings.HasPrefix(text, "id,seqno,ordno,code,"), text)
}

func TestLogoutTool(t *testing.T) {
	srv, b := newTestServer(t)
	login(t, srv)

	text, isErr := call(t, srv, "logout", nil)
	require.False(t, isErr, text)
	text, isErr = call(t, srv, "logout", nil)
	require.False(t, isErr, text)
	assert.Len(t, b.Calls("Logout"), 1)

	text, isErr = call(t, srv, "list_accounts", nil)
	assert.True(t, isErr)
	assert.Contains(t, text, "not logged in")
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []map[string]any
}

func (n *recordingNotifier) SendNotificationToAllClients(method string, params map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if method == notificationMethod {
		n.sent = append(n.sent, params)
	}
}

func (n *recordingNotifier) messages() []map[string]any {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]map[string]any(nil), n.sent...)
}

func TestDefaultHandlersForwardEvents(t *testing.T) {
	srv, b := newTestServer(t)
	notifier := &recordingNotifier{}
	InstallDefaultHandlers(srv.Session().Dispatcher(), notifier)
	login(t, srv)

	b.Emit(eventmodels.ExchangeTSE, &eventmodels.Tick{Code: "2330", Close: decimal.NewFromInt(1035)})
	b.Emit(eventmodels.ExchangeTSE, &eventmodels.BidAsk{Code: "2330"})
	b.EmitOrder(&eventmodels.Trade{Order: eventmodels.Order{ID: "t9"}, Status: eventmodels.OrderState{Status: eventmodels.OrderStatusFilled}})

	sent := notifier.messages()
	require.Len(t, sent, 3)
	assert.Equal(t, "tick", sent[0]["logger"])
	assert.Equal(t, "bidask", sent[1]["logger"])
	assert.Equal(t, "order", sent[2]["logger"])

	data := sent[0]["data"].(map[string]any)
	assert.Equal(t, eventmodels.ExchangeTSE, data["exchange"])
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(NewHTTPHandler(srv, "http://localhost"))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, string(session.StateUninitialized), body.Session)
	assert.True(t, body.Simulation)
}
