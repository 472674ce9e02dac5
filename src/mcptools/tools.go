package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
	"github.com/jiaming2012/shioaji-mcp/src/reporting"
)

func formatOption() mcp.ToolOption {
	return mcp.WithString("format",
		mcp.Description("Output format. Defaults to json."),
		mcp.Enum(string(reporting.FormatJSON), string(reporting.FormatTable), string(reporting.FormatCSV)),
	)
}

func stockIDOption() mcp.ToolOption {
	return mcp.WithString("stock_id",
		mcp.Required(),
		mcp.Description("Stock code, e.g. 2330"),
	)
}

func (s *Server) registerTools() {
	s.add(mcp.NewTool("login",
		mcp.WithDescription("Log in to the brokerage account. Falls back to the configured credentials when api_key and secret_key are omitted."),
		mcp.WithString("api_key", mcp.Description("API key")),
		mcp.WithString("secret_key", mcp.Description("Secret key")),
		mcp.WithBoolean("fetch_contract", mcp.Description("Download the contract catalogue after login. Defaults to true.")),
		mcp.WithString("ca_path", mcp.Description("Path to the CA certificate used to sign orders on live accounts")),
		mcp.WithString("ca_password", mcp.Description("CA certificate password")),
		mcp.WithString("person_id", mcp.Description("Person id the CA certificate belongs to")),
	), s.login)

	s.add(mcp.NewTool("list_accounts",
		mcp.WithDescription("List all trading accounts of the logged in user"),
		formatOption(),
	), s.listAccounts)

	s.add(mcp.NewTool("list_products",
		mcp.WithDescription("List tradable stock contracts"),
		mcp.WithString("exchange",
			mcp.Description("Restrict to one exchange"),
			mcp.Enum(string(eventmodels.ExchangeTSE), string(eventmodels.ExchangeOTC), string(eventmodels.ExchangeOES)),
		),
		mcp.WithString("category", mcp.Description("Industry category code")),
		mcp.WithString("keyword", mcp.Description("Substring of the code or name")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of contracts to return")),
		formatOption(),
	), s.listProducts)

	s.add(mcp.NewTool("stock_tick",
		mcp.WithDescription("Subscribe to real-time trade ticks of a stock, board lot or intraday odd lot. Ticks are pushed as notifications."),
		stockIDOption(),
		mcp.WithBoolean("intraday_odd", mcp.Description("Subscribe to intraday odd lot ticks instead of board lots")),
	), s.subscribe(eventmodels.QuoteTypeTick))

	s.add(mcp.NewTool("stock_bidask",
		mcp.WithDescription("Subscribe to the five best bid and ask levels of a stock. Updates are pushed as notifications."),
		stockIDOption(),
		mcp.WithBoolean("intraday_odd", mcp.Description("Subscribe to the intraday odd lot book instead of board lots")),
	), s.subscribe(eventmodels.QuoteTypeBidAsk))

	s.add(mcp.NewTool("stock_quote",
		mcp.WithDescription("Subscribe to the combined real-time quote of a stock. Quotes are pushed as notifications."),
		stockIDOption(),
	), s.subscribe(eventmodels.QuoteTypeQuote))

	s.add(mcp.NewTool("place_order",
		mcp.WithDescription("Place a stock order. Returns the trade whose id is used to update or cancel it."),
		stockIDOption(),
		mcp.WithNumber("price", mcp.Description("Limit price. Required for LMT orders.")),
		mcp.WithNumber("quantity", mcp.Required(), mcp.Description("Quantity in lots, or shares for odd lot orders")),
		mcp.WithString("action",
			mcp.Description("Defaults to Buy"),
			mcp.Enum(string(eventmodels.ActionBuy), string(eventmodels.ActionSell)),
		),
		mcp.WithString("price_type",
			mcp.Description("Defaults to LMT"),
			mcp.Enum(string(eventmodels.StockPriceTypeLimit), string(eventmodels.StockPriceTypeMarket)),
		),
		mcp.WithString("order_type",
			mcp.Description("Defaults to ROD"),
			mcp.Enum(string(eventmodels.OrderTypeROD), string(eventmodels.OrderTypeIOC), string(eventmodels.OrderTypeFOK)),
		),
		mcp.WithString("order_lot",
			mcp.Description("Defaults to Common"),
			mcp.Enum(string(eventmodels.StockOrderLotCommon), string(eventmodels.StockOrderLotIntradayOdd), string(eventmodels.StockOrderLotOdd), string(eventmodels.StockOrderLotFixing)),
		),
		mcp.WithString("order_cond",
			mcp.Description("Defaults to Cash"),
			mcp.Enum(string(eventmodels.StockOrderCondCash), string(eventmodels.StockOrderCondMarginTrading), string(eventmodels.StockOrderCondShortSelling)),
		),
		mcp.WithString("account_id", mcp.Description("Stock account id. Defaults to the backend's default account.")),
	), s.placeOrder)

	s.add(mcp.NewTool("update_order_price",
		mcp.WithDescription("Change the price of a working order"),
		mcp.WithString("trade_id", mcp.Required(), mcp.Description("Trade id returned by place_order")),
		mcp.WithNumber("price", mcp.Required(), mcp.Description("New limit price")),
	), s.updateOrderPrice)

	s.add(mcp.NewTool("update_order_quantity",
		mcp.WithDescription("Reduce the quantity of a working order. The quantity is the new total."),
		mcp.WithString("trade_id", mcp.Required(), mcp.Description("Trade id returned by place_order")),
		mcp.WithNumber("quantity", mcp.Required(), mcp.Description("New order quantity")),
	), s.updateOrderQuantity)

	s.add(mcp.NewTool("cancel_order",
		mcp.WithDescription("Cancel a working order"),
		mcp.WithString("trade_id", mcp.Required(), mcp.Description("Trade id returned by place_order")),
	), s.cancelOrder)

	s.add(mcp.NewTool("list_trades",
		mcp.WithDescription("List today's trades with refreshed status"),
		formatOption(),
	), s.listTrades)

	s.add(mcp.NewTool("list_positions",
		mcp.WithDescription("List unrealized positions"),
		mcp.WithString("unit",
			mcp.Description("Quantity unit. Defaults to Common (lots)."),
			mcp.Enum(string(eventmodels.UnitCommon), string(eventmodels.UnitShare)),
		),
		formatOption(),
	), s.listPositions)

	s.add(mcp.NewTool("list_profit_loss",
		mcp.WithDescription("List realized profit and loss. Without dates the last 30 days are used."),
		mcp.WithString("begin_date", mcp.Description("YYYY-MM-DD")),
		mcp.WithString("end_date", mcp.Description("YYYY-MM-DD")),
		formatOption(),
	), s.listProfitLoss)

	s.add(mcp.NewTool("account_balance",
		mcp.WithDescription("Show the settlement account balance"),
		formatOption(),
	), s.accountBalance)

	s.add(mcp.NewTool("technical_indicators",
		mcp.WithDescription("Daily K-line with moving averages, RSI, MACD and Bollinger bands. Without dates the last 90 days are used."),
		stockIDOption(),
		mcp.WithString("start_date", mcp.Description("YYYY-MM-DD")),
		mcp.WithString("end_date", mcp.Description("YYYY-MM-DD")),
	), s.technicalIndicators)

	s.add(mcp.NewTool("market_snapshot",
		mcp.WithDescription("Current market snapshot of one or more stocks"),
		mcp.WithString("stock_ids", mcp.Required(), mcp.Description("Comma separated stock codes, e.g. 2330,2317")),
		formatOption(),
	), s.marketSnapshot)

	s.add(mcp.NewTool("logout",
		mcp.WithDescription("Log out of the brokerage account"),
	), s.logout)
}

func render(args arguments, rows interface{}) (string, error) {
	f, err := args.getString("format")
	if err != nil {
		return "", err
	}

	format, err := reporting.ParseFormat(f)
	if err != nil {
		return "", err
	}

	return reporting.Render(format, rows)
}

func (s *Server) login(ctx context.Context, args arguments) (string, error) {
	creds := s.defaults

	apiKey, err := args.getString("api_key")
	if err != nil {
		return "", err
	}

	secretKey, err := args.getString("secret_key")
	if err != nil {
		return "", err
	}

	if apiKey != "" || secretKey != "" {
		creds.APIKey = apiKey
		creds.SecretKey = secretKey
	}

	if creds.FetchContract, err = args.getBool("fetch_contract", true); err != nil {
		return "", err
	}

	caPath, err := args.getString("ca_path")
	if err != nil {
		return "", err
	}

	if caPath != "" {
		creds.CA = &eventmodels.CACredentials{Path: caPath}
		if creds.CA.Password, err = args.getString("ca_password"); err != nil {
			return "", err
		}
		if creds.CA.PersonID, err = args.getString("person_id"); err != nil {
			return "", err
		}
	}

	log.Infof("login with %s", creds)

	accounts, err := s.session.Login(ctx, creds)
	if err != nil {
		return "", err
	}

	return reporting.Render(reporting.FormatJSON, accounts)
}

func (s *Server) logout(ctx context.Context, _ arguments) (string, error) {
	if err := s.session.Logout(ctx); err != nil {
		return "", err
	}

	return "logged out", nil
}

func (s *Server) listAccounts(ctx context.Context, args arguments) (string, error) {
	accounts, err := s.reports.Accounts(ctx)
	if err != nil {
		return "", err
	}

	return render(args, accounts)
}

func (s *Server) listProducts(ctx context.Context, args arguments) (string, error) {
	var filter eventmodels.ContractFilter

	exchange, err := args.getString("exchange")
	if err != nil {
		return "", err
	}

	if filter.Exchange, err = eventmodels.ParseEnum(exchange, "", eventmodels.ExchangeTSE, eventmodels.ExchangeOTC, eventmodels.ExchangeOES); err != nil {
		return "", fmt.Errorf("exchange: %w", err)
	}

	if filter.Category, err = args.getString("category"); err != nil {
		return "", err
	}

	if filter.Keyword, err = args.getString("keyword"); err != nil {
		return "", err
	}

	limit, err := args.getInt("limit", 0)
	if err != nil {
		return "", err
	}
	filter.Limit = int(limit)

	contracts, err := s.reports.Products(ctx, filter)
	if err != nil {
		return "", err
	}

	return render(args, contracts)
}

func (s *Server) subscribe(quoteType eventmodels.QuoteType) toolFunc {
	return func(ctx context.Context, args arguments) (string, error) {
		id, err := args.id("stock_id")
		if err != nil {
			return "", err
		}

		odd, err := args.getBool("intraday_odd", false)
		if err != nil {
			return "", err
		}

		ack, err := s.quotes.Subscribe(ctx, id, quoteType, odd)
		if err != nil {
			return "", err
		}

		return ack.String(), nil
	}
}

func (s *Server) placeOrder(ctx context.Context, args arguments) (string, error) {
	id, err := args.id("stock_id")
	if err != nil {
		return "", err
	}

	var req eventmodels.OrderRequest
	if req.Code, err = eventmodels.NewStockCode(id); err != nil {
		return "", err
	}

	if req.Price, err = args.getDecimal("price"); err != nil {
		return "", err
	}

	if req.Quantity, err = args.getInt("quantity", 0); err != nil {
		return "", err
	}

	action, err := args.getString("action")
	if err != nil {
		return "", err
	}
	if req.Action, err = eventmodels.ParseEnum(action, eventmodels.ActionBuy, eventmodels.ActionBuy, eventmodels.ActionSell); err != nil {
		return "", fmt.Errorf("action: %w", err)
	}

	priceType, err := args.getString("price_type")
	if err != nil {
		return "", err
	}
	if req.PriceType, err = eventmodels.ParseEnum(priceType, eventmodels.StockPriceTypeLimit, eventmodels.StockPriceTypeLimit, eventmodels.StockPriceTypeMarket); err != nil {
		return "", fmt.Errorf("price_type: %w", err)
	}

	orderType, err := args.getString("order_type")
	if err != nil {
		return "", err
	}
	if req.OrderType, err = eventmodels.ParseEnum(orderType, eventmodels.OrderTypeROD, eventmodels.OrderTypeROD, eventmodels.OrderTypeIOC, eventmodels.OrderTypeFOK); err != nil {
		return "", fmt.Errorf("order_type: %w", err)
	}

	orderLot, err := args.getString("order_lot")
	if err != nil {
		return "", err
	}
	if req.OrderLot, err = eventmodels.ParseEnum(orderLot, eventmodels.StockOrderLotCommon, eventmodels.StockOrderLotCommon, eventmodels.StockOrderLotIntradayOdd, eventmodels.StockOrderLotOdd, eventmodels.StockOrderLotFixing); err != nil {
		return "", fmt.Errorf("order_lot: %w", err)
	}

	orderCond, err := args.getString("order_cond")
	if err != nil {
		return "", err
	}
	if req.OrderCond, err = eventmodels.ParseEnum(orderCond, eventmodels.StockOrderCondCash, eventmodels.StockOrderCondCash, eventmodels.StockOrderCondMarginTrading, eventmodels.StockOrderCondShortSelling); err != nil {
		return "", fmt.Errorf("order_cond: %w", err)
	}

	if req.AccountID, err = args.getString("account_id"); err != nil {
		return "", err
	}

	trade, err := s.orders.Place(ctx, req)
	if err != nil {
		return "", err
	}

	return reporting.Render(reporting.FormatJSON, trade)
}

func (s *Server) updateOrderPrice(ctx context.Context, args arguments) (string, error) {
	tradeID, err := args.requiredString("trade_id")
	if err != nil {
		return "", err
	}

	if !args.has("price") {
		return "", fmt.Errorf("missing argument price: %w", eventmodels.ErrValidation)
	}

	price, err := args.getDecimal("price")
	if err != nil {
		return "", err
	}

	trade, err := s.orders.UpdatePrice(ctx, tradeID, price)
	if err != nil {
		return "", err
	}

	return reporting.Render(reporting.FormatJSON, trade)
}

func (s *Server) updateOrderQuantity(ctx context.Context, args arguments) (string, error) {
	tradeID, err := args.requiredString("trade_id")
	if err != nil {
		return "", err
	}

	quantity, err := args.getInt("quantity", 0)
	if err != nil {
		return "", err
	}

	trade, err := s.orders.UpdateQuantity(ctx, tradeID, quantity)
	if err != nil {
		return "", err
	}

	return reporting.Render(reporting.FormatJSON, trade)
}

func (s *Server) cancelOrder(ctx context.Context, args arguments) (string, error) {
	tradeID, err := args.requiredString("trade_id")
	if err != nil {
		return "", err
	}

	trade, err := s.orders.Cancel(ctx, tradeID)
	if err != nil {
		return "", err
	}

	return reporting.Render(reporting.FormatJSON, trade)
}

func (s *Server) listTrades(ctx context.Context, args arguments) (string, error) {
	trades, err := s.orders.ListTrades(ctx)
	if err != nil {
		return "", err
	}

	f, err := args.getString("format")
	if err != nil {
		return "", err
	}

	format, err := reporting.ParseFormat(f)
	if err != nil {
		return "", err
	}

	if format == reporting.FormatJSON {
		return reporting.Render(format, trades)
	}

	return reporting.Render(format, reporting.TradeRows(trades))
}

func (s *Server) listPositions(ctx context.Context, args arguments) (string, error) {
	unit, err := args.getString("unit")
	if err != nil {
		return "", err
	}

	u, err := eventmodels.ParseEnum(unit, eventmodels.UnitCommon, eventmodels.UnitCommon, eventmodels.UnitShare)
	if err != nil {
		return "", fmt.Errorf("unit: %w", err)
	}

	positions, err := s.reports.Positions(ctx, u)
	if err != nil {
		return "", err
	}

	return render(args, positions)
}

func (s *Server) listProfitLoss(ctx context.Context, args arguments) (string, error) {
	begin, err := args.getString("begin_date")
	if err != nil {
		return "", err
	}

	end, err := args.getString("end_date")
	if err != nil {
		return "", err
	}

	pnl, err := s.reports.ProfitLoss(ctx, begin, end)
	if err != nil {
		return "", err
	}

	return render(args, pnl)
}

func (s *Server) accountBalance(ctx context.Context, args arguments) (string, error) {
	balance, err := s.reports.Balance(ctx)
	if err != nil {
		return "", err
	}

	return render(args, balance)
}

func (s *Server) technicalIndicators(ctx context.Context, args arguments) (string, error) {
	id, err := args.id("stock_id")
	if err != nil {
		return "", err
	}

	start, err := args.getString("start_date")
	if err != nil {
		return "", err
	}

	end, err := args.getString("end_date")
	if err != nil {
		return "", err
	}

	report, err := s.reports.Indicators(ctx, id, start, end)
	if err != nil {
		return "", err
	}

	return reporting.Render(reporting.FormatJSON, report)
}

func (s *Server) marketSnapshot(ctx context.Context, args arguments) (string, error) {
	ids, err := args.ids("stock_ids")
	if err != nil {
		return "", err
	}

	snapshots, err := s.reports.Snapshots(ctx, ids)
	if err != nil {
		return "", err
	}

	return render(args, snapshots)
}
