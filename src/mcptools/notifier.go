package mcptools

import (
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
	"github.com/jiaming2012/shioaji-mcp/src/session"
)

const notificationMethod = "notifications/message"

// Notifier is satisfied by *server.MCPServer.
type Notifier interface {
	SendNotificationToAllClients(method string, params map[string]any)
}

// InstallDefaultHandlers logs every pushed quote and order update and forwards
// it to connected clients as a log message notification.
func InstallDefaultHandlers(d *session.Dispatcher, n Notifier) {
	for _, quoteType := range []eventmodels.QuoteType{eventmodels.QuoteTypeTick, eventmodels.QuoteTypeBidAsk, eventmodels.QuoteTypeQuote} {
		quoteType := quoteType
		if err := d.Register(quoteType, func(exchange eventmodels.Exchange, ev eventmodels.QuoteEvent) {
			log.WithFields(log.Fields{
				"exchange":   exchange,
				"quote_type": quoteType,
				"code":       ev.GetCode(),
			}).Debugf("%+v", ev)

			n.SendNotificationToAllClients(notificationMethod, map[string]any{
				"level":  "info",
				"logger": string(quoteType),
				"data": map[string]any{
					"exchange": exchange,
					"event":    ev,
				},
			})
		}); err != nil {
			log.Errorf("InstallDefaultHandlers: %v", err)
		}
	}

	d.OnOrder(func(trade *eventmodels.Trade) {
		log.WithFields(log.Fields{
			"trade_id": trade.GetID(),
			"code":     trade.Contract.Code,
			"status":   trade.Status.Status,
		}).Info("order update")

		n.SendNotificationToAllClients(notificationMethod, map[string]any{
			"level":  "info",
			"logger": "order",
			"data":   trade,
		})
	})
}
