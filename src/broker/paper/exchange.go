package paper

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/shioaji-mcp/src/broker"
	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
	"github.com/jiaming2012/shioaji-mcp/src/eventpubsub"
)

var taipei = eventmodels.MarketLocation

type Config struct {
	// APIKey and SecretKey, when set, must match the login credentials.
	APIKey    string
	SecretKey string

	// QuoteInterval paces the quote pump. Zero disables it; events can still
	// be injected with Push.
	QuoteInterval time.Duration

	StartingBalance decimal.Decimal
	Catalogue       []byte
	Seed            int64
	Now             func() time.Time
}

type listing struct {
	contract    eventmodels.Contract
	last        decimal.Decimal
	open        decimal.Decimal
	high        decimal.Decimal
	low         decimal.Decimal
	totalVolume int64
	totalAmount decimal.Decimal
}

type subscriptionKey struct {
	code        eventmodels.StockCode
	quoteType   eventmodels.QuoteType
	intradayOdd bool
}

// Exchange is an in-process stand-in for the brokerage SDK. It keeps a
// contract directory, a quote pump, an order book per trade and a cash
// account, enough to exercise every tool without a live connection.
type Exchange struct {
	cfg   Config
	now   func() time.Time
	bus   *eventpubsub.Bus
	codes []eventmodels.StockCode

	mu             sync.Mutex
	listings       map[eventmodels.StockCode]*listing
	loggedIn       bool
	simulation     bool
	contractsReady bool
	accounts       []eventmodels.Account
	subscriptions  map[subscriptionKey]struct{}
	trades         map[string]*eventmodels.Trade
	tradeIDs       []string
	seqno          int
	positions      map[eventmodels.StockCode]*holding
	realized       []eventmodels.ProfitLoss
	balance        decimal.Decimal
	rnd            *rand.Rand
	stopPump       context.CancelFunc

	cbMu     sync.RWMutex
	onTick   broker.TickCallback
	onBidAsk broker.BidAskCallback
	onQuote  broker.QuoteCallback
	onOrder  broker.OrderCallback
}

func NewExchange(cfg Config) (*Exchange, error) {
	data := cfg.Catalogue
	if len(data) == 0 {
		data = defaultCatalogue
	}

	contracts, err := LoadCatalogue(data)
	if err != nil {
		return nil, fmt.Errorf("NewExchange: %w", err)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	balance := cfg.StartingBalance
	if balance.IsZero() {
		balance = decimal.NewFromInt(10_000_000)
	}

	e := &Exchange{
		cfg:           cfg,
		now:           now,
		bus:           eventpubsub.New("paper-exchange"),
		listings:      make(map[eventmodels.StockCode]*listing, len(contracts)),
		subscriptions: make(map[subscriptionKey]struct{}),
		trades:        make(map[string]*eventmodels.Trade),
		positions:     make(map[eventmodels.StockCode]*holding),
		balance:       balance,
		rnd:           rand.New(rand.NewSource(cfg.Seed)),
	}

	for _, c := range contracts {
		c.UpdateDate = now().In(taipei).Format("2006/01/02")
		e.listings[c.Code] = &listing{
			contract: c,
			last:     c.Reference,
			open:     c.Reference,
			high:     c.Reference,
			low:      c.Reference,
		}
		e.codes = append(e.codes, c.Code)
	}

	sort.Slice(e.codes, func(i, j int) bool { return e.codes[i] < e.codes[j] })

	if err := e.bindBus(); err != nil {
		return nil, fmt.Errorf("NewExchange: %w", err)
	}

	return e, nil
}

func (e *Exchange) bindBus() error {
	if err := e.bus.Subscribe("paper", eventpubsub.TickEvent, e.deliverTick); err != nil {
		return err
	}

	if err := e.bus.Subscribe("paper", eventpubsub.BidAskEvent, e.deliverBidAsk); err != nil {
		return err
	}

	if err := e.bus.Subscribe("paper", eventpubsub.QuoteEvent, e.deliverQuote); err != nil {
		return err
	}

	return e.bus.Subscribe("paper", eventpubsub.OrderEvent, e.deliverOrder)
}

func (e *Exchange) Login(ctx context.Context, creds eventmodels.Credentials, simulation bool) ([]eventmodels.Account, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	if e.cfg.APIKey != "" && (creds.APIKey != e.cfg.APIKey || creds.SecretKey != e.cfg.SecretKey) {
		return nil, fmt.Errorf("paper.Login: invalid api key or secret key: %w", eventmodels.ErrConnection)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	personID := "A123456789"
	if creds.CA != nil && creds.CA.PersonID != "" {
		personID = creds.CA.PersonID
	}

	e.accounts = []eventmodels.Account{
		{
			AccountType: eventmodels.AccountTypeStock,
			PersonID:    personID,
			BrokerID:    "9A95",
			AccountID:   "0506112",
			Signed:      simulation || creds.CA != nil,
			Username:    "paper",
		},
	}
	e.loggedIn = true
	e.simulation = simulation
	e.contractsReady = false

	if creds.FetchContract {
		e.contractsReady = true
	}

	if e.cfg.QuoteInterval > 0 && e.stopPump == nil {
		pumpCtx, cancel := context.WithCancel(context.Background())
		e.stopPump = cancel
		go e.runPump(pumpCtx, e.cfg.QuoteInterval)
	}

	log.WithField("simulation", simulation).Info("paper: logged in")

	out := make([]eventmodels.Account, len(e.accounts))
	copy(out, e.accounts)
	return out, nil
}

func (e *Exchange) Logout(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopPump != nil {
		e.stopPump()
		e.stopPump = nil
	}

	e.loggedIn = false
	e.subscriptions = make(map[subscriptionKey]struct{})
	return nil
}

func (e *Exchange) FetchContracts(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loggedIn {
		return fmt.Errorf("paper.FetchContracts: %w", eventmodels.ErrNotLoggedIn)
	}

	e.contractsReady = true
	return nil
}

func (e *Exchange) ListAccounts(ctx context.Context) ([]eventmodels.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loggedIn {
		return nil, fmt.Errorf("paper.ListAccounts: %w", eventmodels.ErrNotLoggedIn)
	}

	out := make([]eventmodels.Account, len(e.accounts))
	copy(out, e.accounts)
	return out, nil
}

func (e *Exchange) Contract(ctx context.Context, code eventmodels.StockCode) (eventmodels.Contract, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, err := e.lookup(code)
	if err != nil {
		return eventmodels.Contract{}, err
	}

	return l.contract, nil
}

func (e *Exchange) ListContracts(ctx context.Context, filter eventmodels.ContractFilter) ([]eventmodels.Contract, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loggedIn {
		return nil, fmt.Errorf("paper.ListContracts: %w", eventmodels.ErrNotLoggedIn)
	}

	keyword := strings.ToLower(strings.TrimSpace(filter.Keyword))

	var out []eventmodels.Contract
	for _, code := range e.codes {
		c := e.listings[code].contract
		if filter.Exchange != "" && c.Exchange != filter.Exchange {
			continue
		}

		if filter.Category != "" && c.Category != filter.Category {
			continue
		}

		if keyword != "" && !strings.Contains(strings.ToLower(string(c.Code)), keyword) && !strings.Contains(strings.ToLower(c.Name), keyword) {
			continue
		}

		out = append(out, c)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}

	return out, nil
}

// lookup must be called with mu held.
func (e *Exchange) lookup(code eventmodels.StockCode) (*listing, error) {
	if !e.loggedIn {
		return nil, fmt.Errorf("paper: %w", eventmodels.ErrNotLoggedIn)
	}

	l, found := e.listings[code]
	if !found {
		return nil, fmt.Errorf("paper: contract %s not found: %w", code, eventmodels.ErrLookup)
	}

	return l, nil
}

func (e *Exchange) SetOnTick(cb broker.TickCallback) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.onTick = cb
}

func (e *Exchange) SetOnBidAsk(cb broker.BidAskCallback) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.onBidAsk = cb
}

func (e *Exchange) SetOnQuote(cb broker.QuoteCallback) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.onQuote = cb
}

func (e *Exchange) SetOnOrder(cb broker.OrderCallback) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.onOrder = cb
}

// Flush waits until every published event has reached its callback.
func (e *Exchange) Flush() {
	e.bus.Wait()
}

func codeSeed(code eventmodels.StockCode) int64 {
	h := fnv.New64a()
	h.Write([]byte(code))
	return int64(h.Sum64() >> 1)
}

var _ broker.IBroker = (*Exchange)(nil)
