package markup

import "github.com/shopspring/decimal"

// InstrumentMarkup is the pip-denominated markup a profile configures for one
// instrument. Nil spread bounds are not configured.
type InstrumentMarkup struct {
	MarkupBid int64  `json:"markup_bid"`
	MarkupAsk int64  `json:"markup_ask"`
	MaxSpread *int64 `json:"max_spread,omitempty"`
	MinSpread *int64 `json:"min_spread,omitempty"`
}

// Profile is a markup profile record as returned by the profile store.
type Profile struct {
	ID          string                      `json:"id"`
	Name        string                      `json:"name"`
	Disabled    bool                        `json:"disabled"`
	Instruments map[string]InstrumentMarkup `json:"instruments"`
}

// Applier holds a resolved markup configuration in price units. It is
// immutable once built and safe to copy.
type Applier struct {
	DeltaBid  decimal.Decimal
	DeltaAsk  decimal.Decimal
	MaxSpread decimal.NullDecimal
	MinSpread decimal.NullDecimal
	Digits    int32
	Pip       decimal.Decimal
	Factor    decimal.Decimal
}

// EmptyApplier returns the neutral applier: zero deltas, no spread bounds.
func EmptyApplier() Applier {
	return Applier{
		DeltaBid: decimal.Zero,
		DeltaAsk: decimal.Zero,
		Pip:      decimal.NewFromInt(1),
		Factor:   decimal.NewFromInt(1),
	}
}

// NewApplier converts a pip-denominated markup into price units at the given
// precision.
func NewApplier(m InstrumentMarkup, prec PricePrecision) Applier {
	pip := prec.Pip()
	a := Applier{
		DeltaBid: pip.Mul(decimal.NewFromInt(m.MarkupBid)),
		DeltaAsk: pip.Mul(decimal.NewFromInt(m.MarkupAsk)),
		Digits:   prec.Digits,
		Pip:      pip,
		Factor:   prec.Factor(),
	}
	if m.MaxSpread != nil {
		a.MaxSpread = decimal.NewNullDecimal(pip.Mul(decimal.NewFromInt(*m.MaxSpread)))
	}
	if m.MinSpread != nil {
		a.MinSpread = decimal.NewNullDecimal(pip.Mul(decimal.NewFromInt(*m.MinSpread)))
	}
	return a
}

// IsEmpty reports whether the applier leaves quotes unchanged.
func (a Applier) IsEmpty() bool {
	return a.DeltaBid.IsZero() && a.DeltaAsk.IsZero() && !a.MaxSpread.Valid && !a.MinSpread.Valid
}

// ApplyMarkup shifts price by the delta of its side.
func (a Applier) ApplyMarkup(price decimal.Decimal, isBid bool) decimal.Decimal {
	if isBid {
		return price.Add(a.DeltaBid)
	}
	return price.Add(a.DeltaAsk)
}

// ApplyMinMaxSpread clamps the spread of an already marked-up quote into the
// configured bounds. Max is enforced first, min is checked on its result.
func (a Applier) ApplyMinMaxSpread(bid, ask decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if a.MaxSpread.Valid {
		if b, k, ok := MaxSpread(bid, ask, a.MaxSpread.Decimal, a.Factor, a.Pip, a.Digits); ok {
			bid, ask = b, k
		}
	}
	if a.MinSpread.Valid {
		if b, k, ok := MinSpread(bid, ask, a.MinSpread.Decimal, a.Factor, a.Pip, a.Digits); ok {
			bid, ask = b, k
		}
	}
	return bid, ask
}

// Apply runs markup on both sides and then the spread bounds.
func (a Applier) Apply(bid, ask decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return a.ApplyMinMaxSpread(a.ApplyMarkup(bid, true), a.ApplyMarkup(ask, false))
}

// ApplyQuote is Apply for float prices. Conversion happens only here; all
// arithmetic runs in decimal.
func (a Applier) ApplyQuote(bid, ask float64) (float64, float64) {
	b, k := a.Apply(decimal.NewFromFloat(bid), decimal.NewFromFloat(ask))
	return b.InexactFloat64(), k.InexactFloat64()
}
