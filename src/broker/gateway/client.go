package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/shioaji-mcp/src/broker"
	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

type Config struct {
	BaseURL        string
	Timeout        time.Duration
	ReconnectPause time.Duration
}

// Client talks to a bridge process that hosts the brokerage SDK. Requests go
// over REST; pushed quotes and order updates arrive on a websocket stream
// opened at login.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	dialer         *websocket.Dialer
	reconnectPause time.Duration

	mu           sync.Mutex
	token        string
	stopStream   context.CancelFunc
	streamClosed chan struct{}

	cbMu     sync.RWMutex
	onTick   broker.TickCallback
	onBidAsk broker.BidAskCallback
	onQuote  broker.QuoteCallback
	onOrder  broker.OrderCallback
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("NewClient: base url is required")
	}

	u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("NewClient: invalid base url %q: %w", cfg.BaseURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("NewClient: unsupported scheme %q", u.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	pause := cfg.ReconnectPause
	if pause <= 0 {
		pause = 2 * time.Second
	}

	return &Client{
		baseURL:        u,
		http:           &http.Client{Timeout: timeout},
		dialer:         &websocket.Dialer{HandshakeTimeout: timeout},
		reconnectPause: pause,
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	return u.String()
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// do issues one request and decodes a JSON reply into out when out is non-nil.
// Non-2xx replies are mapped onto the error taxonomy by status code.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: failed to marshal request: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("%s %s: failed to create request: %w", method, path, err)
	}

	req.Header.Add("Accept", "application/json")
	if body != nil {
		req.Header.Add("Content-Type", "application/json")
	}

	if token := c.bearer(); token != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, eventmodels.ErrConnection)
	}

	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response body: %v: %w", method, path, err, eventmodels.ErrConnection)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := res.Status
		var errResp errorResponseDTO
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}

		return fmt.Errorf("%s %s: %s: %w", method, path, msg, statusError(res.StatusCode))
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to parse response: %w", method, path, err)
	}

	return nil
}

func statusError(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return eventmodels.ErrConnection
	case status == http.StatusNotFound:
		return eventmodels.ErrLookup
	case status == http.StatusBadRequest:
		return eventmodels.ErrValidation
	case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return eventmodels.ErrSubmission
	default:
		return eventmodels.ErrConnection
	}
}

func (c *Client) Login(ctx context.Context, creds eventmodels.Credentials, simulation bool) ([]eventmodels.Account, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	reqDTO := loginRequestDTO{
		APIKey:        creds.APIKey,
		SecretKey:     creds.SecretKey,
		FetchContract: creds.FetchContract,
		Simulation:    simulation,
	}

	if creds.CA != nil {
		reqDTO.CA = &caRequestDTO{
			Path:     creds.CA.Path,
			Password: creds.CA.Password,
			PersonID: creds.CA.PersonID,
		}
	}

	var resp loginResponseDTO
	if err := c.do(ctx, http.MethodPost, "/login", nil, reqDTO, &resp); err != nil {
		return nil, fmt.Errorf("gateway.Login: %w", err)
	}

	if resp.Token == "" {
		return nil, fmt.Errorf("gateway.Login: bridge returned no session token: %w", eventmodels.ErrConnection)
	}

	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()

	c.startStream()

	log.WithField("accounts", len(resp.Accounts)).Info("gateway: logged in")

	return resp.Accounts, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if c.bearer() == "" {
		return nil
	}

	err := c.do(ctx, http.MethodPost, "/logout", nil, nil, nil)

	c.stopStreaming()

	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("gateway.Logout: %w", err)
	}

	return nil
}

func (c *Client) FetchContracts(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/contracts/fetch", nil, nil, nil); err != nil {
		return fmt.Errorf("gateway.FetchContracts: %w", err)
	}

	return nil
}

func (c *Client) ListAccounts(ctx context.Context) ([]eventmodels.Account, error) {
	var accounts []eventmodels.Account
	if err := c.do(ctx, http.MethodGet, "/accounts", nil, nil, &accounts); err != nil {
		return nil, fmt.Errorf("gateway.ListAccounts: %w", err)
	}

	return accounts, nil
}

func (c *Client) Contract(ctx context.Context, code eventmodels.StockCode) (eventmodels.Contract, error) {
	var contract eventmodels.Contract
	if err := c.do(ctx, http.MethodGet, "/contracts/"+url.PathEscape(string(code)), nil, nil, &contract); err != nil {
		return eventmodels.Contract{}, fmt.Errorf("gateway.Contract: %w", err)
	}

	return contract, nil
}

func (c *Client) ListContracts(ctx context.Context, filter eventmodels.ContractFilter) ([]eventmodels.Contract, error) {
	query := url.Values{}
	if filter.Exchange != "" {
		query.Set("exchange", string(filter.Exchange))
	}

	if filter.Category != "" {
		query.Set("category", filter.Category)
	}

	if filter.Keyword != "" {
		query.Set("keyword", filter.Keyword)
	}

	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var contracts []eventmodels.Contract
	if err := c.do(ctx, http.MethodGet, "/contracts", query, nil, &contracts); err != nil {
		return nil, fmt.Errorf("gateway.ListContracts: %w", err)
	}

	return contracts, nil
}

func (c *Client) Subscribe(ctx context.Context, req broker.SubscribeRequest) error {
	reqDTO := subscribeRequestDTO{
		Code:        req.Contract.Code,
		Exchange:    req.Contract.Exchange,
		QuoteType:   req.QuoteType,
		IntradayOdd: req.IntradayOdd,
	}

	if err := c.do(ctx, http.MethodPost, "/subscribe", nil, reqDTO, nil); err != nil {
		return fmt.Errorf("gateway.Subscribe: %w", err)
	}

	return nil
}

func (c *Client) SetOnTick(cb broker.TickCallback) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onTick = cb
}

func (c *Client) SetOnBidAsk(cb broker.BidAskCallback) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onBidAsk = cb
}

func (c *Client) SetOnQuote(cb broker.QuoteCallback) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onQuote = cb
}

func (c *Client) SetOnOrder(cb broker.OrderCallback) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onOrder = cb
}

func (c *Client) PlaceOrder(ctx context.Context, contract eventmodels.Contract, req eventmodels.OrderRequest) (*eventmodels.Trade, error) {
	reqDTO := placeOrderRequestDTO{
		Code:      contract.Code,
		Exchange:  contract.Exchange,
		Price:     req.Price,
		Quantity:  req.Quantity,
		Action:    req.Action,
		PriceType: req.PriceType,
		OrderType: req.OrderType,
		OrderLot:  req.OrderLot,
		OrderCond: req.OrderCond,
		AccountID: req.AccountID,
	}

	var trade eventmodels.Trade
	if err := c.do(ctx, http.MethodPost, "/orders", nil, reqDTO, &trade); err != nil {
		return nil, fmt.Errorf("gateway.PlaceOrder: %w", err)
	}

	return &trade, nil
}

func (c *Client) UpdateOrder(ctx context.Context, trade *eventmodels.Trade, req broker.UpdateOrderRequest) (*eventmodels.Trade, error) {
	if trade == nil {
		return nil, fmt.Errorf("gateway.UpdateOrder: %w", eventmodels.ErrUnknownTrade)
	}

	reqDTO := updateOrderRequestDTO{Price: req.Price, Quantity: req.Quantity}

	var updated eventmodels.Trade
	if err := c.do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(trade.Order.ID), nil, reqDTO, &updated); err != nil {
		return nil, fmt.Errorf("gateway.UpdateOrder: %w", err)
	}

	return &updated, nil
}

func (c *Client) CancelOrder(ctx context.Context, trade *eventmodels.Trade) (*eventmodels.Trade, error) {
	if trade == nil {
		return nil, fmt.Errorf("gateway.CancelOrder: %w", eventmodels.ErrUnknownTrade)
	}

	var cancelled eventmodels.Trade
	if err := c.do(ctx, http.MethodDelete, "/orders/"+url.PathEscape(trade.Order.ID), nil, nil, &cancelled); err != nil {
		return nil, fmt.Errorf("gateway.CancelOrder: %w", err)
	}

	return &cancelled, nil
}

func (c *Client) UpdateStatus(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/orders/status", nil, nil, nil); err != nil {
		return fmt.Errorf("gateway.UpdateStatus: %w", err)
	}

	return nil
}

func (c *Client) ListTrades(ctx context.Context) ([]*eventmodels.Trade, error) {
	var trades []*eventmodels.Trade
	if err := c.do(ctx, http.MethodGet, "/trades", nil, nil, &trades); err != nil {
		return nil, fmt.Errorf("gateway.ListTrades: %w", err)
	}

	return trades, nil
}

func (c *Client) ListPositions(ctx context.Context, unit eventmodels.Unit) ([]eventmodels.Position, error) {
	query := url.Values{}
	query.Set("unit", string(unit))

	var positions []eventmodels.Position
	if err := c.do(ctx, http.MethodGet, "/positions", query, nil, &positions); err != nil {
		return nil, fmt.Errorf("gateway.ListPositions: %w", err)
	}

	return positions, nil
}

func (c *Client) ListProfitLoss(ctx context.Context, begin, end time.Time) ([]eventmodels.ProfitLoss, error) {
	query := url.Values{}
	query.Set("begin_date", begin.Format("2006-01-02"))
	query.Set("end_date", end.Format("2006-01-02"))

	var pnl []eventmodels.ProfitLoss
	if err := c.do(ctx, http.MethodGet, "/profit_loss", query, nil, &pnl); err != nil {
		return nil, fmt.Errorf("gateway.ListProfitLoss: %w", err)
	}

	return pnl, nil
}

func (c *Client) AccountBalance(ctx context.Context) (eventmodels.AccountBalance, error) {
	var balance eventmodels.AccountBalance
	if err := c.do(ctx, http.MethodGet, "/balance", nil, nil, &balance); err != nil {
		return eventmodels.AccountBalance{}, fmt.Errorf("gateway.AccountBalance: %w", err)
	}

	return balance, nil
}

func (c *Client) Kbars(ctx context.Context, contract eventmodels.Contract, start, end time.Time) ([]eventmodels.Kbar, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("gateway.Kbars: end before start: %w", eventmodels.ErrValidation)
	}

	query := url.Values{}
	query.Set("code", string(contract.Code))
	query.Set("start", start.Format("2006-01-02"))
	query.Set("end", end.Format("2006-01-02"))

	var bars []eventmodels.Kbar
	if err := c.do(ctx, http.MethodGet, "/kbars", query, nil, &bars); err != nil {
		return nil, fmt.Errorf("gateway.Kbars: %w", err)
	}

	return bars, nil
}

func (c *Client) Snapshots(ctx context.Context, contracts []eventmodels.Contract) ([]eventmodels.Snapshot, error) {
	reqDTO := snapshotsRequestDTO{Codes: make([]eventmodels.StockCode, 0, len(contracts))}
	for _, contract := range contracts {
		reqDTO.Codes = append(reqDTO.Codes, contract.Code)
	}

	var snapshots []eventmodels.Snapshot
	if err := c.do(ctx, http.MethodPost, "/snapshots", nil, reqDTO, &snapshots); err != nil {
		return nil, fmt.Errorf("gateway.Snapshots: %w", err)
	}

	return snapshots, nil
}

var _ broker.IBroker = (*Client)(nil)
