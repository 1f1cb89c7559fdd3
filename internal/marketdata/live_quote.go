package marketdata

import (
	"sync"
	"time"
)

// RawQuote is the last unadjusted tick seen for an instrument.
type RawQuote struct {
	Bid float64
	Ask float64
	At  time.Time
}

type LiveQuotes struct {
	mu   sync.RWMutex
	data map[string]RawQuote
}

func NewLiveQuotes() *LiveQuotes {
	return &LiveQuotes{data: map[string]RawQuote{}}
}

func (l *LiveQuotes) Set(instrument string, bid, ask float64, at time.Time) {
	if instrument == "" || bid <= 0 || ask <= 0 {
		return
	}
	l.mu.Lock()
	l.data[normalizeSymbol(instrument)] = RawQuote{Bid: bid, Ask: ask, At: at}
	l.mu.Unlock()
}

func (l *LiveQuotes) Get(instrument string) (RawQuote, bool) {
	l.mu.RLock()
	q, ok := l.data[normalizeSymbol(instrument)]
	l.mu.RUnlock()
	return q, ok
}
