package eventmodels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteEventNilPayload(t *testing.T) {
	var tick *Tick
	var bidask *BidAsk
	var quote *Quote

	for _, ev := range []QuoteEvent{tick, bidask, quote} {
		assert.True(t, IsNilQuoteEvent(ev))
		assert.Empty(t, ev.GetCode())
		assert.True(t, ev.GetDatetime().IsZero())
	}

	assert.True(t, IsNilQuoteEvent(nil))
	assert.False(t, IsNilQuoteEvent(&Tick{Code: "2330"}))
	assert.Equal(t, QuoteTypeBidAsk, bidask.GetQuoteType())
}
