package marketdata

import (
	"github.com/shopspring/decimal"
)

type Quote struct {
	Type      string `json:"type"`
	Pair      string `json:"pair"`
	Group     string `json:"group"`
	Bid       string `json:"bid"`
	Ask       string `json:"ask"`
	Spread    string `json:"spread"`
	Timestamp int64  `json:"ts"`
}

// NewQuote formats a marked-up quote at the instrument's precision. A
// negative digits keeps the prices as they are.
func NewQuote(pair, group string, bid, ask decimal.Decimal, digits int32, ts int64) Quote {
	if digits < 0 {
		return Quote{
			Type:      "quote",
			Pair:      pair,
			Group:     group,
			Bid:       bid.String(),
			Ask:       ask.String(),
			Spread:    ask.Sub(bid).String(),
			Timestamp: ts,
		}
	}
	// spread is taken from the published prices so the two always agree
	bid, ask = bid.Round(digits), ask.Round(digits)
	return Quote{
		Type:      "quote",
		Pair:      pair,
		Group:     group,
		Bid:       bid.StringFixed(digits),
		Ask:       ask.StringFixed(digits),
		Spread:    ask.Sub(bid).StringFixed(digits),
		Timestamp: ts,
	}
}
