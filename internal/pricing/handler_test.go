package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lv-markup/internal/markup"

	"github.com/go-chi/chi/v5"
)

func TestHandlerIngestAndQuote(t *testing.T) {
	r := &stubResolver{
		appliers: map[string]markup.Applier{
			"vip|EURUSD": markup.NewApplier(markup.InstrumentMarkup{MarkupBid: -1, MarkupAsk: 1}, markup.PricePrecision{Digits: 5}),
		},
	}
	p, bus := newPipeline(r)
	bus.Subscribe("vip")
	h := NewHandler(p)

	router := chi.NewRouter()
	router.Post("/ticks", h.Ingest)
	router.Get("/quotes/{pair}", func(w http.ResponseWriter, req *http.Request) { h.Quote(w, req, "vip") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ticks",
		strings.NewReader(`[{"instrument":"EURUSD","bid":1.1,"ask":1.10002},{"instrument":"GBPUSD","bid":1.3,"ask":1.30005}]`)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("ingest status = %d, body %s", rec.Code, rec.Body)
	}
	var res map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res["ticks"] != 2 || res["published"] != 2 {
		t.Errorf("ingest result = %v", res)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotes/EURUSD", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("quote status = %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"bid":"1.09999"`) || !strings.Contains(body, `"ask":"1.10003"`) {
		t.Errorf("quote body = %s", body)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotes/USDJPY", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown pair status = %d, want 404", rec.Code)
	}
}

func TestHandlerIngestSingleAndInvalid(t *testing.T) {
	p, _ := newPipeline(&stubResolver{})
	h := NewHandler(p)

	tests := []struct {
		body       string
		wantStatus int
	}{
		{`{"instrument":"EURUSD","bid":1.1,"ask":1.2}`, http.StatusAccepted},
		{`{"instrument":"EURUSD","bid":0,"ask":1.2}`, http.StatusBadRequest},
		{`[]`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.Ingest(rec, httptest.NewRequest(http.MethodPost, "/ticks", strings.NewReader(tt.body)))
		if rec.Code != tt.wantStatus {
			t.Errorf("body %s: status = %d, want %d", tt.body, rec.Code, tt.wantStatus)
		}
	}
}

func TestHandlerIngestRejectsWholeBatch(t *testing.T) {
	p, bus := newPipeline(&stubResolver{})
	sub := bus.Subscribe("vip")
	h := NewHandler(p)

	rec := httptest.NewRecorder()
	h.Ingest(rec, httptest.NewRequest(http.MethodPost, "/ticks",
		strings.NewReader(`[{"instrument":"EURUSD","bid":1.1,"ask":1.2},{"instrument":"GBPUSD","bid":0,"ask":1.3}]`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "tick 1") {
		t.Errorf("body = %s, want the offending index", body)
	}
	select {
	case evt := <-sub:
		t.Errorf("published %+v from a rejected batch", evt)
	default:
	}
	if _, err := p.Quote(context.Background(), "vip", "EURUSD"); !errors.Is(err, ErrNoQuote) {
		t.Errorf("Quote err = %v, want ErrNoQuote", err)
	}
}

func TestHandlerQuoteUnknownPrecision(t *testing.T) {
	r := &stubResolver{
		errs: map[string]error{"vip|XAUUSD": fmt.Errorf("%w: XAUUSD", markup.ErrInstrumentNotFound)},
	}
	p, _ := newPipeline(r)
	p.live.Set("XAUUSD", 2000.1, 2000.5, p.now())
	h := NewHandler(p)

	router := chi.NewRouter()
	router.Get("/quotes/{pair}", func(w http.ResponseWriter, req *http.Request) { h.Quote(w, req, "vip") })
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotes/XAUUSD", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}
