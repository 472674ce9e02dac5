package eventpubsub

type EventName string

const (
	TickEvent   EventName = "TickEvent"
	BidAskEvent EventName = "BidAskEvent"
	QuoteEvent  EventName = "QuoteEvent"
	OrderEvent  EventName = "OrderEvent"
)
