package markup

import "github.com/shopspring/decimal"

var two = decimal.NewFromInt(2)

// PricePrecision describes the decimal places an instrument is quoted with.
type PricePrecision struct {
	Digits int32
}

// Pip is the smallest representable increment, 10^-digits.
func (p PricePrecision) Pip() decimal.Decimal {
	return decimal.New(1, -p.Digits)
}

// Factor is 10^digits, the inverse of Pip.
func (p PricePrecision) Factor() decimal.Decimal {
	return decimal.New(1, p.Digits)
}

// CalculateSpread returns ask-bid truncated toward zero at digits places.
func CalculateSpread(bid, ask decimal.Decimal, digits int32) decimal.Decimal {
	return ask.Sub(bid).Truncate(digits)
}

// MaxSpread narrows bid and ask so the spread equals maxSpread. It reports
// false when the spread is already within the bound.
func MaxSpread(bid, ask, maxSpread, factor, pip decimal.Decimal, digits int32) (decimal.Decimal, decimal.Decimal, bool) {
	spread := CalculateSpread(bid, ask, digits)
	if !spread.GreaterThan(maxSpread) {
		return bid, ask, false
	}
	diff := spread.Sub(maxSpread).Truncate(digits)
	half, even := splitPips(diff, factor, digits)
	if even {
		return bid.Add(half), ask.Sub(half), true
	}
	// odd pip count: the leftover pip goes to bid
	return bid.Add(half).Add(pip), ask.Sub(half), true
}

// MinSpread widens bid and ask so the spread equals minSpread. It reports
// false when the spread already meets the bound.
func MinSpread(bid, ask, minSpread, factor, pip decimal.Decimal, digits int32) (decimal.Decimal, decimal.Decimal, bool) {
	spread := CalculateSpread(bid, ask, digits)
	if !spread.LessThan(minSpread) {
		return bid, ask, false
	}
	diff := minSpread.Sub(spread).Truncate(digits)
	half, even := splitPips(diff, factor, digits)
	if even {
		return bid.Sub(half), ask.Add(half), true
	}
	return bid.Sub(half).Sub(pip), ask.Add(half), true
}

// splitPips halves diff at digits places and reports whether diff is an even
// number of pips.
func splitPips(diff, factor decimal.Decimal, digits int32) (decimal.Decimal, bool) {
	half := diff.Div(two).Truncate(digits)
	pips := diff.Mul(factor).Round(0).IntPart()
	return half, pips%2 == 0
}
