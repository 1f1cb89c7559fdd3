package pricing

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"lv-markup/internal/markup"
	"lv-markup/internal/marketdata"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNoQuote     = errors.New("no quote for instrument")
	ErrInvalidTick = errors.New("invalid tick")
)

const maxParallelGroups = 16

type Resolver interface {
	Resolve(ctx context.Context, groupID, instrumentID string) (markup.Applier, error)
}

// Tick is a raw quote from the upstream feed.
type Tick struct {
	Instrument string  `json:"instrument"`
	Bid        float64 `json:"bid"`
	Ask        float64 `json:"ask"`
	Timestamp  int64   `json:"ts,omitempty"`
}

func (t Tick) validate() error {
	if strings.TrimSpace(t.Instrument) == "" || t.Bid <= 0 || t.Ask <= 0 {
		return ErrInvalidTick
	}
	return nil
}

// Pipeline turns raw ticks into per-group marked-up quotes and publishes them
// on the bus.
type Pipeline struct {
	resolver Resolver
	bus      *marketdata.Bus
	live     *marketdata.LiveQuotes
	timeout  time.Duration
	inflight singleflight.Group
	now      func() time.Time
}

func NewPipeline(resolver Resolver, bus *marketdata.Bus, live *marketdata.LiveQuotes, resolveTimeout time.Duration) *Pipeline {
	if resolveTimeout <= 0 {
		resolveTimeout = 2 * time.Second
	}
	return &Pipeline{
		resolver: resolver,
		bus:      bus,
		live:     live,
		timeout:  resolveTimeout,
		now:      time.Now,
	}
}

// Ingest records the tick and publishes one quote per subscribed group. It
// returns the number of quotes published. Groups whose markup cannot be
// resolved are skipped.
func (p *Pipeline) Ingest(ctx context.Context, t Tick) (int, error) {
	if err := t.validate(); err != nil {
		return 0, err
	}
	t.Instrument = strings.ToUpper(strings.TrimSpace(t.Instrument))
	at := p.now()
	if t.Timestamp > 0 {
		at = time.UnixMilli(t.Timestamp)
	}
	p.live.Set(t.Instrument, t.Bid, t.Ask, at)

	var published atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelGroups)
	for _, group := range p.bus.Groups() {
		group := group
		g.Go(func() error {
			q, err := p.quote(gctx, group, t.Instrument, t.Bid, t.Ask, at)
			if err != nil {
				logDropped(group, t.Instrument, err)
				return nil
			}
			p.bus.Publish(marketdata.Event{Type: "quote", Group: group, Data: q})
			published.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(published.Load()), err
	}
	return int(published.Load()), ctx.Err()
}

// Quote returns the current marked-up quote of an instrument for a group.
func (p *Pipeline) Quote(ctx context.Context, group, instrument string) (marketdata.Quote, error) {
	instrument = strings.ToUpper(strings.TrimSpace(instrument))
	raw, ok := p.live.Get(instrument)
	if !ok {
		return marketdata.Quote{}, ErrNoQuote
	}
	return p.quote(ctx, group, instrument, raw.Bid, raw.Ask, raw.At)
}

func (p *Pipeline) quote(ctx context.Context, group, instrument string, bid, ask float64, at time.Time) (marketdata.Quote, error) {
	a, err := p.applier(ctx, group, instrument)
	if err != nil {
		return marketdata.Quote{}, err
	}
	if a.IsEmpty() {
		return marketdata.NewQuote(instrument, group, decimal.NewFromFloat(bid), decimal.NewFromFloat(ask), -1, at.UnixMilli()), nil
	}
	// feeds may quote past the instrument precision; the spread bounds only
	// hold for prices already at it
	b, k := a.Apply(decimal.NewFromFloat(bid).Truncate(a.Digits), decimal.NewFromFloat(ask).Truncate(a.Digits))
	return marketdata.NewQuote(instrument, group, b, k, a.Digits, at.UnixMilli()), nil
}

// applier collapses concurrent resolutions of the same pair into one call.
// Results are not kept once the call returns.
func (p *Pipeline) applier(ctx context.Context, group, instrument string) (markup.Applier, error) {
	v, err, _ := p.inflight.Do(group+"|"+instrument, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		return p.resolver.Resolve(rctx, group, instrument)
	})
	if err != nil {
		return markup.Applier{}, err
	}
	return v.(markup.Applier), nil
}

func logDropped(group, instrument string, err error) {
	if errors.Is(err, markup.ErrInstrumentNotFound) {
		log.Warn().Str("group", group).Str("instrument", instrument).Msg("quote dropped: instrument precision unknown")
		return
	}
	log.Error().Err(err).Str("group", group).Str("instrument", instrument).Msg("quote dropped: markup resolution failed")
}
