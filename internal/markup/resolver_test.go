package markup

import (
	"context"
	"errors"
	"testing"
)

type fakeStores struct {
	groups   map[string]string
	profiles map[string]Profile
	digits   map[string]int32

	groupErr   error
	profileErr error
	digitsErr  error

	digitCalls int
}

func (f *fakeStores) resolver() *Resolver {
	return NewResolver(
		GroupProfilesFunc(func(ctx context.Context, groupID string) (string, bool, error) {
			if f.groupErr != nil {
				return "", false, f.groupErr
			}
			id, ok := f.groups[groupID]
			return id, ok, nil
		}),
		ProfilesFunc(func(ctx context.Context, profileID string) (Profile, bool, error) {
			if f.profileErr != nil {
				return Profile{}, false, f.profileErr
			}
			p, ok := f.profiles[profileID]
			return p, ok, nil
		}),
		InstrumentDigitsFunc(func(ctx context.Context, instrumentID string) (int32, bool, error) {
			f.digitCalls++
			if f.digitsErr != nil {
				return 0, false, f.digitsErr
			}
			v, ok := f.digits[instrumentID]
			return v, ok, nil
		}),
	)
}

func newFakeStores() *fakeStores {
	return &fakeStores{
		groups: map[string]string{
			"vip":      "p-vip",
			"retail":   "p-retail",
			"orphan":   "p-missing",
			"disabled": "p-off",
		},
		profiles: map[string]Profile{
			"p-vip": {ID: "p-vip", Instruments: map[string]InstrumentMarkup{
				"EURUSD": {MarkupBid: -2, MarkupAsk: 2, MaxSpread: pips(15), MinSpread: pips(4)},
				"XAUUSD": {MarkupBid: -10, MarkupAsk: 10},
			}},
			"p-retail": {ID: "p-retail", Instruments: map[string]InstrumentMarkup{
				"EURUSD": {MarkupBid: -5, MarkupAsk: 5},
			}},
			"p-off": {ID: "p-off", Disabled: true, Instruments: map[string]InstrumentMarkup{
				"EURUSD": {MarkupBid: -50, MarkupAsk: 50},
			}},
		},
		digits: map[string]int32{"EURUSD": 5},
	}
}

func TestResolve(t *testing.T) {
	f := newFakeStores()
	a, err := f.resolver().Resolve(context.Background(), "vip", "EURUSD")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !a.DeltaBid.Equal(d("-0.00002")) || !a.DeltaAsk.Equal(d("0.00002")) {
		t.Errorf("deltas = (%s, %s), want (-0.00002, 0.00002)", a.DeltaBid, a.DeltaAsk)
	}
	if !a.MaxSpread.Valid || !a.MaxSpread.Decimal.Equal(d("0.00015")) {
		t.Errorf("MaxSpread = %+v, want 0.00015", a.MaxSpread)
	}
	if !a.MinSpread.Valid || !a.MinSpread.Decimal.Equal(d("0.00004")) {
		t.Errorf("MinSpread = %+v, want 0.00004", a.MinSpread)
	}
	if a.Digits != 5 {
		t.Errorf("Digits = %d, want 5", a.Digits)
	}
}

func TestResolveEmpty(t *testing.T) {
	tests := []struct {
		name       string
		group      string
		instrument string
	}{
		{"no group assignment", "unknown", "EURUSD"},
		{"no profile", "orphan", "EURUSD"},
		{"disabled profile", "disabled", "EURUSD"},
		{"no instrument entry", "retail", "GBPUSD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeStores()
			a, err := f.resolver().Resolve(context.Background(), tt.group, tt.instrument)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if !a.IsEmpty() {
				t.Errorf("applier = %+v, want empty", a)
			}
			if f.digitCalls != 0 {
				t.Errorf("digits looked up %d times, want 0", f.digitCalls)
			}
		})
	}
}

func TestResolveInstrumentNotFound(t *testing.T) {
	f := newFakeStores()
	a, err := f.resolver().Resolve(context.Background(), "vip", "XAUUSD")
	if !errors.Is(err, ErrInstrumentNotFound) {
		t.Fatalf("err = %v, want ErrInstrumentNotFound", err)
	}
	if !a.IsEmpty() || !a.Pip.IsZero() {
		t.Errorf("partial applier returned: %+v", a)
	}
}

func TestResolveStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")
	tests := []struct {
		name string
		set  func(f *fakeStores)
	}{
		{"group store", func(f *fakeStores) { f.groupErr = boom }},
		{"profile store", func(f *fakeStores) { f.profileErr = boom }},
		{"digits store", func(f *fakeStores) { f.digitsErr = boom }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeStores()
			tt.set(f)
			_, err := f.resolver().Resolve(context.Background(), "vip", "EURUSD")
			if !errors.Is(err, boom) {
				t.Fatalf("err = %v, want wrapped %v", err, boom)
			}
			if errors.Is(err, ErrInstrumentNotFound) {
				t.Errorf("store error reported as ErrInstrumentNotFound")
			}
		})
	}
}

func TestResolveIsRepeatable(t *testing.T) {
	f := newFakeStores()
	r := f.resolver()
	first, err := r.Resolve(context.Background(), "retail", "EURUSD")
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve(context.Background(), "retail", "EURUSD")
	if err != nil {
		t.Fatal(err)
	}
	if !first.DeltaBid.Equal(second.DeltaBid) || !first.DeltaAsk.Equal(second.DeltaAsk) {
		t.Errorf("resolutions differ: %+v vs %+v", first, second)
	}
}

func TestStageString(t *testing.T) {
	if got := StageDigitsResolved.String(); got != "digits_resolved" {
		t.Errorf("String() = %q, want %q", got, "digits_resolved")
	}
	if got := Stage(42).String(); got != "stage(42)" {
		t.Errorf("String() = %q, want %q", got, "stage(42)")
	}
}
