package reporting

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/shioaji-mcp/src/broker"
	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
	"github.com/jiaming2012/shioaji-mcp/src/indicators"
)

const (
	dateLayout            = "2006-01-02"
	defaultProfitLossDays = 30
	defaultIndicatorDays  = 90
)

type BrokerProvider interface {
	Broker() (broker.IBroker, error)
}

// Service answers read-only account and market queries. Every call resolves
// the backend handle afresh, so it fails with ErrNotLoggedIn after logout.
type Service struct {
	session BrokerProvider
	now     func() time.Time
	loc     *time.Location
}

func NewService(session BrokerProvider, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}

	return &Service{session: session, now: time.Now, loc: loc}
}

func (s *Service) today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

func (s *Service) Accounts(ctx context.Context) ([]eventmodels.Account, error) {
	b, err := s.session.Broker()
	if err != nil {
		return nil, fmt.Errorf("Service.Accounts: %w", err)
	}

	accounts, err := b.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("Service.Accounts: %w", err)
	}

	return accounts, nil
}

func (s *Service) Products(ctx context.Context, filter eventmodels.ContractFilter) ([]eventmodels.Contract, error) {
	if filter.Exchange != "" {
		if err := filter.Exchange.Validate(); err != nil {
			return nil, fmt.Errorf("Service.Products: %w", err)
		}
	}

	b, err := s.session.Broker()
	if err != nil {
		return nil, fmt.Errorf("Service.Products: %w", err)
	}

	contracts, err := b.ListContracts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("Service.Products: %w", err)
	}

	return contracts, nil
}

// Positions lists open positions, in lots by default or in shares.
func (s *Service) Positions(ctx context.Context, unit eventmodels.Unit) ([]eventmodels.Position, error) {
	if unit == "" {
		unit = eventmodels.UnitCommon
	}

	if err := unit.Validate(); err != nil {
		return nil, fmt.Errorf("Service.Positions: %w", err)
	}

	b, err := s.session.Broker()
	if err != nil {
		return nil, fmt.Errorf("Service.Positions: %w", err)
	}

	positions, err := b.ListPositions(ctx, unit)
	if err != nil {
		return nil, fmt.Errorf("Service.Positions: %w", err)
	}

	return positions, nil
}

// ResolveDateRange parses an inclusive YYYY-MM-DD range. An empty end means
// today and an empty begin means lookbackDays before end. Unparseable dates
// and inverted ranges are rejected rather than replaced.
func ResolveDateRange(begin, end string, today time.Time, lookbackDays int) (time.Time, time.Time, error) {
	loc := today.Location()

	to := today
	if end != "" {
		t, err := time.ParseInLocation(dateLayout, end, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q, want YYYY-MM-DD: %w", end, eventmodels.ErrValidation)
		}
		to = t
	}

	from := to.AddDate(0, 0, -lookbackDays)
	if begin != "" {
		t, err := time.ParseInLocation(dateLayout, begin, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid begin date %q, want YYYY-MM-DD: %w", begin, eventmodels.ErrValidation)
		}
		from = t
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("begin date %s is after end date %s: %w", from.Format(dateLayout), to.Format(dateLayout), eventmodels.ErrValidation)
	}

	return from, to, nil
}

func (s *Service) ProfitLoss(ctx context.Context, begin, end string) ([]eventmodels.ProfitLoss, error) {
	from, to, err := ResolveDateRange(begin, end, s.today(), defaultProfitLossDays)
	if err != nil {
		return nil, fmt.Errorf("Service.ProfitLoss: %w", err)
	}

	b, err := s.session.Broker()
	if err != nil {
		return nil, fmt.Errorf("Service.ProfitLoss: %w", err)
	}

	pnl, err := b.ListProfitLoss(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("Service.ProfitLoss: %w", err)
	}

	log.Debugf("reporting: %d profit/loss rows between %s and %s", len(pnl), from.Format(dateLayout), to.Format(dateLayout))

	return pnl, nil
}

func (s *Service) Balance(ctx context.Context) (eventmodels.AccountBalance, error) {
	b, err := s.session.Broker()
	if err != nil {
		return eventmodels.AccountBalance{}, fmt.Errorf("Service.Balance: %w", err)
	}

	balance, err := b.AccountBalance(ctx)
	if err != nil {
		return eventmodels.AccountBalance{}, fmt.Errorf("Service.Balance: %w", err)
	}

	return balance, nil
}

// Snapshots resolves every id before asking the backend, so one unknown code
// fails the whole request.
func (s *Service) Snapshots(ctx context.Context, ids []interface{}) ([]eventmodels.Snapshot, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("Service.Snapshots: at least one code is required: %w", eventmodels.ErrValidation)
	}

	codes, err := eventmodels.NewStockCodes(ids)
	if err != nil {
		return nil, fmt.Errorf("Service.Snapshots: %w", err)
	}

	b, err := s.session.Broker()
	if err != nil {
		return nil, fmt.Errorf("Service.Snapshots: %w", err)
	}

	contracts := make([]eventmodels.Contract, 0, len(codes))
	for _, code := range codes {
		contract, err := b.Contract(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("Service.Snapshots: %w", err)
		}
		contracts = append(contracts, contract)
	}

	snapshots, err := b.Snapshots(ctx, contracts)
	if err != nil {
		return nil, fmt.Errorf("Service.Snapshots: %w", err)
	}

	return snapshots, nil
}

type IndicatorReport struct {
	Code     eventmodels.StockCode `json:"code"`
	Name     string                `json:"name"`
	Start    string                `json:"start"`
	End      string                `json:"end"`
	Bars     int                   `json:"bars"`
	Snapshot indicators.Snapshot   `json:"indicators"`
}

// Indicators fetches one-minute bars for the range, folds them into daily
// candles and computes the indicator snapshot. The default range is the 90
// days ending today.
func (s *Service) Indicators(ctx context.Context, id interface{}, start, end string) (IndicatorReport, error) {
	code, err := eventmodels.NewStockCode(id)
	if err != nil {
		return IndicatorReport{}, fmt.Errorf("Service.Indicators: %w", err)
	}

	from, to, err := ResolveDateRange(start, end, s.today(), defaultIndicatorDays)
	if err != nil {
		return IndicatorReport{}, fmt.Errorf("Service.Indicators: %w", err)
	}

	b, err := s.session.Broker()
	if err != nil {
		return IndicatorReport{}, fmt.Errorf("Service.Indicators: %w", err)
	}

	contract, err := b.Contract(ctx, code)
	if err != nil {
		return IndicatorReport{}, fmt.Errorf("Service.Indicators: %w", err)
	}

	bars, err := b.Kbars(ctx, contract, from, to)
	if err != nil {
		return IndicatorReport{}, fmt.Errorf("Service.Indicators: failed to fetch kbars: %w", err)
	}

	snapshot, err := indicators.Compute(indicators.DailyCandles(bars, s.loc))
	if err != nil {
		return IndicatorReport{}, fmt.Errorf("Service.Indicators: %w", err)
	}

	return IndicatorReport{
		Code:     code,
		Name:     contract.Name,
		Start:    from.Format(dateLayout),
		End:      to.Format(dateLayout),
		Bars:     len(bars),
		Snapshot: snapshot,
	}, nil
}
