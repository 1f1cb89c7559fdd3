package markup

import (
	"testing"

	"github.com/shopspring/decimal"
)

func pips(n int64) *int64 { return &n }

func TestNewApplier(t *testing.T) {
	a := NewApplier(InstrumentMarkup{MarkupBid: -3, MarkupAsk: 7, MaxSpread: pips(20)}, prec5)

	if !a.DeltaBid.Equal(d("-0.00003")) {
		t.Errorf("DeltaBid = %s, want -0.00003", a.DeltaBid)
	}
	if !a.DeltaAsk.Equal(d("0.00007")) {
		t.Errorf("DeltaAsk = %s, want 0.00007", a.DeltaAsk)
	}
	if !a.MaxSpread.Valid || !a.MaxSpread.Decimal.Equal(d("0.0002")) {
		t.Errorf("MaxSpread = %+v, want 0.0002", a.MaxSpread)
	}
	if a.MinSpread.Valid {
		t.Errorf("MinSpread should be absent, got %s", a.MinSpread.Decimal)
	}
	if a.Digits != 5 || !a.Pip.Equal(d("0.00001")) || !a.Factor.Equal(d("100000")) {
		t.Errorf("precision = (%d, %s, %s), want (5, 0.00001, 100000)", a.Digits, a.Pip, a.Factor)
	}
	if a.IsEmpty() {
		t.Error("IsEmpty() = true for configured applier")
	}
}

func TestNewApplierZeroMarkupIsNotAbsent(t *testing.T) {
	a := NewApplier(InstrumentMarkup{MinSpread: pips(0)}, prec5)
	if !a.MinSpread.Valid {
		t.Fatal("zero min spread must stay configured")
	}
	if a.IsEmpty() {
		t.Error("IsEmpty() = true with a configured bound")
	}
}

func TestEmptyApplier(t *testing.T) {
	a := EmptyApplier()
	if !a.IsEmpty() {
		t.Fatal("IsEmpty() = false")
	}
	bid, ask := a.Apply(d("1.23456"), d("1.23400"))
	if !bid.Equal(d("1.23456")) || !ask.Equal(d("1.23400")) {
		t.Errorf("Apply = (%s, %s), want input unchanged", bid, ask)
	}
}

func TestApplyMarkup(t *testing.T) {
	a := NewApplier(InstrumentMarkup{MarkupBid: -2, MarkupAsk: 3}, prec5)
	if got := a.ApplyMarkup(d("1.10000"), true); !got.Equal(d("1.09998")) {
		t.Errorf("bid = %s, want 1.09998", got)
	}
	if got := a.ApplyMarkup(d("1.10000"), false); !got.Equal(d("1.10003")) {
		t.Errorf("ask = %s, want 1.10003", got)
	}

	zero := NewApplier(InstrumentMarkup{}, prec5)
	price := d("1.23456")
	if got := zero.ApplyMarkup(zero.ApplyMarkup(price, true), true); !got.Equal(price) {
		t.Errorf("zero markup twice = %s, want %s", got, price)
	}
}

func TestApplyMinMaxSpread(t *testing.T) {
	tests := []struct {
		name     string
		markup   InstrumentMarkup
		bid, ask string
		wantBid  string
		wantAsk  string
	}{
		{
			name:   "no bounds",
			markup: InstrumentMarkup{},
			bid:    "1.23400", ask: "1.23500",
			wantBid: "1.23400", wantAsk: "1.23500",
		},
		{
			name:   "max only",
			markup: InstrumentMarkup{MaxSpread: pips(10)},
			bid:    "1.23414", ask: "1.23434",
			wantBid: "1.23419", wantAsk: "1.23429",
		},
		{
			name:   "min only",
			markup: InstrumentMarkup{MinSpread: pips(10)},
			bid:    "1.23434", ask: "1.23435",
			wantBid: "1.23429", wantAsk: "1.23439",
		},
		{
			name:   "both bounds within",
			markup: InstrumentMarkup{MinSpread: pips(5), MaxSpread: pips(15)},
			bid:    "1.23400", ask: "1.23410",
			wantBid: "1.23400", wantAsk: "1.23410",
		},
		{
			name:   "max applied before min",
			markup: InstrumentMarkup{MinSpread: pips(12), MaxSpread: pips(8)},
			bid:    "1.23400", ask: "1.23420",
			wantBid: "1.23404", wantAsk: "1.23416",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewApplier(tt.markup, prec5)
			bid, ask := a.ApplyMinMaxSpread(d(tt.bid), d(tt.ask))
			if !bid.Equal(d(tt.wantBid)) || !ask.Equal(d(tt.wantAsk)) {
				t.Errorf("ApplyMinMaxSpread = (%s, %s), want (%s, %s)", bid, ask, tt.wantBid, tt.wantAsk)
			}
		})
	}
}

func TestApplyQuote(t *testing.T) {
	a := NewApplier(InstrumentMarkup{MarkupBid: -5, MarkupAsk: 5, MaxSpread: pips(8)}, prec5)
	bid, ask := a.ApplyQuote(1.23414, 1.23420)
	// markup widens to 16 pips, max narrows back to 8
	if bid != 1.23413 || ask != 1.23421 {
		t.Errorf("ApplyQuote = (%v, %v), want (1.23413, 1.23421)", bid, ask)
	}
	if got := CalculateSpread(decimal.NewFromFloat(bid), decimal.NewFromFloat(ask), 5); !got.Equal(d("0.00008")) {
		t.Errorf("spread = %s, want 0.00008", got)
	}
}
