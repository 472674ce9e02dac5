package eventmodels

import (
	"fmt"
	"time"
)

// MarketLocation is Taiwan time. Taiwan has no DST, so a fixed zone avoids
// depending on tzdata.
var MarketLocation = time.FixedZone("CST", 8*60*60)

type Exchange string

const (
	ExchangeTSE    Exchange = "TSE"
	ExchangeOTC    Exchange = "OTC"
	ExchangeOES    Exchange = "OES"
	ExchangeTAIFEX Exchange = "TAIFEX"
)

func (e Exchange) Validate() error {
	switch e {
	case ExchangeTSE, ExchangeOTC, ExchangeOES, ExchangeTAIFEX:
		return nil
	default:
		return fmt.Errorf("invalid exchange: %s", e)
	}
}
