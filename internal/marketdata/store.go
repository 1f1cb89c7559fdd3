package marketdata

import (
	"context"
	"errors"
	"strings"

	"lv-markup/internal/markup"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type Pair struct {
	ID             string `json:"id"`
	Symbol         string `json:"symbol"`
	PricePrecision int32  `json:"price_precision"`
	Status         string `json:"status"`
}

func (s *Store) GetPairBySymbol(ctx context.Context, symbol string) (Pair, error) {
	var p Pair
	err := s.pool.QueryRow(ctx, `
		select id::text, symbol, price_precision, status
		from trading_pairs
		where symbol = $1
	`, normalizeSymbol(symbol)).Scan(&p.ID, &p.Symbol, &p.PricePrecision, &p.Status)
	return p, err
}

func (s *Store) ListPairs(ctx context.Context) ([]Pair, error) {
	rows, err := s.pool.Query(ctx, "select id::text, symbol, price_precision, status from trading_pairs order by symbol")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Pair, 0, 16)
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.ID, &p.Symbol, &p.PricePrecision, &p.Status); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InstrumentDigits implements markup.InstrumentDigits using the pair's
// configured price precision.
func (s *Store) InstrumentDigits(ctx context.Context, instrumentID string) (int32, bool, error) {
	p, err := s.GetPairBySymbol(ctx, instrumentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return p.PricePrecision, true, nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

var _ markup.InstrumentDigits = (*Store)(nil)
