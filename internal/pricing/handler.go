package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"lv-markup/internal/httputil"
	"lv-markup/internal/markup"

	"github.com/go-chi/chi/v5"
)

const maxBatch = 500

type Handler struct {
	pipeline *Pipeline
}

func NewHandler(p *Pipeline) *Handler {
	return &Handler{pipeline: p}
}

// Ingest accepts a single tick object or an array of ticks from the feed. A
// batch with any invalid tick is rejected before anything is recorded.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	ticks, err := decodeTicks(body)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	published := 0
	for _, t := range ticks {
		n, err := h.pipeline.Ingest(r.Context(), t)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
			return
		}
		published += n
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]int{"ticks": len(ticks), "published": published})
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request, group string) {
	q, err := h.pipeline.Quote(r.Context(), group, chi.URLParam(r, "pair"))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrNoQuote):
			status = http.StatusNotFound
		case errors.Is(err, markup.ErrInstrumentNotFound):
			status = http.StatusUnprocessableEntity
		}
		httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, q)
}

func decodeTicks(body []byte) ([]Tick, error) {
	var batch []Tick
	if err := json.Unmarshal(body, &batch); err != nil {
		var single Tick
		if err := json.Unmarshal(body, &single); err != nil {
			return nil, err
		}
		batch = []Tick{single}
	}
	if len(batch) == 0 {
		return nil, errors.New("empty batch")
	}
	if len(batch) > maxBatch {
		return nil, errors.New("batch too large")
	}
	for i, t := range batch {
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("tick %d: %w", i, err)
		}
	}
	return batch, nil
}
