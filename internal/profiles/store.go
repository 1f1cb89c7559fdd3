package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lv-markup/internal/markup"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("markup profile not found")
	ErrGroupNotFound  = errors.New("trading group not found")
	ErrInvalidSpreads = errors.New("min_spread must not exceed max_spread")
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Group is a trading group and the profile assigned to it, if any.
type Group struct {
	ID        string  `json:"id"`
	ProfileID *string `json:"markup_profile_id"`
}

// ProfileIDForGroup implements markup.GroupProfiles.
func (s *Store) ProfileIDForGroup(ctx context.Context, groupID string) (string, bool, error) {
	var id *string
	err := s.pool.QueryRow(ctx, "SELECT markup_profile_id::text FROM trading_groups WHERE id = $1", groupID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	if id == nil {
		return "", false, nil
	}
	return *id, true, nil
}

// Profile implements markup.Profiles.
func (s *Store) Profile(ctx context.Context, profileID string) (markup.Profile, bool, error) {
	if _, err := uuid.Parse(profileID); err != nil {
		return markup.Profile{}, false, nil
	}
	var p markup.Profile
	err := s.pool.QueryRow(ctx, "SELECT id::text, name, disabled FROM markup_profiles WHERE id = $1", profileID).
		Scan(&p.ID, &p.Name, &p.Disabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return markup.Profile{}, false, nil
		}
		return markup.Profile{}, false, err
	}
	instruments, err := s.instruments(ctx, profileID)
	if err != nil {
		return markup.Profile{}, false, err
	}
	p.Instruments = instruments
	return p, true, nil
}

func (s *Store) instruments(ctx context.Context, profileID string) (map[string]markup.InstrumentMarkup, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT instrument_id, markup_bid, markup_ask, max_spread, min_spread
		FROM markup_profile_instruments
		WHERE profile_id = $1
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]markup.InstrumentMarkup)
	for rows.Next() {
		var instrumentID string
		var m markup.InstrumentMarkup
		if err := rows.Scan(&instrumentID, &m.MarkupBid, &m.MarkupAsk, &m.MaxSpread, &m.MinSpread); err != nil {
			return nil, err
		}
		out[instrumentID] = m
	}
	return out, rows.Err()
}

func (s *Store) List(ctx context.Context) ([]markup.Profile, error) {
	rows, err := s.pool.Query(ctx, "SELECT id::text, name, disabled FROM markup_profiles ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	var out []markup.Profile
	for rows.Next() {
		var p markup.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Disabled); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		instruments, err := s.instruments(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Instruments = instruments
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, name string) (markup.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return markup.Profile{}, errors.New("name is required")
	}
	p := markup.Profile{ID: uuid.NewString(), Name: name, Instruments: map[string]markup.InstrumentMarkup{}}
	err := s.pool.QueryRow(ctx,
		"INSERT INTO markup_profiles (id, name) VALUES ($1, $2) RETURNING disabled",
		p.ID, p.Name,
	).Scan(&p.Disabled)
	return p, err
}

func (s *Store) SetDisabled(ctx context.Context, profileID string, disabled bool) error {
	return s.execOne(ctx, profileID,
		"UPDATE markup_profiles SET disabled = $2, updated_at = NOW() WHERE id = $1",
		profileID, disabled)
}

// SetInstrument stores the markup of one instrument inside a profile.
// Conflicting spread bounds are rejected here; the quote path does not
// validate them.
func (s *Store) SetInstrument(ctx context.Context, profileID, instrumentID string, m markup.InstrumentMarkup) error {
	instrumentID = strings.ToUpper(strings.TrimSpace(instrumentID))
	if instrumentID == "" {
		return errors.New("instrument_id is required")
	}
	if m.MaxSpread != nil && *m.MaxSpread < 0 || m.MinSpread != nil && *m.MinSpread < 0 {
		return errors.New("spread bounds must not be negative")
	}
	if m.MaxSpread != nil && m.MinSpread != nil && *m.MinSpread > *m.MaxSpread {
		return ErrInvalidSpreads
	}
	if _, err := uuid.Parse(profileID); err != nil {
		return ErrNotFound
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM markup_profiles WHERE id = $1)", profileID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO markup_profile_instruments (profile_id, instrument_id, markup_bid, markup_ask, max_spread, min_spread)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (profile_id, instrument_id) DO UPDATE SET
			markup_bid = EXCLUDED.markup_bid,
			markup_ask = EXCLUDED.markup_ask,
			max_spread = EXCLUDED.max_spread,
			min_spread = EXCLUDED.min_spread
	`, profileID, instrumentID, m.MarkupBid, m.MarkupAsk, m.MaxSpread, m.MinSpread)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "UPDATE markup_profiles SET updated_at = NOW() WHERE id = $1", profileID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) RemoveInstrument(ctx context.Context, profileID, instrumentID string) error {
	return s.execOne(ctx, profileID,
		"DELETE FROM markup_profile_instruments WHERE profile_id = $1 AND instrument_id = $2",
		profileID, strings.ToUpper(strings.TrimSpace(instrumentID)))
}

// AssignGroup points a trading group at a profile, creating the group row
// when needed.
func (s *Store) AssignGroup(ctx context.Context, groupID, profileID string) error {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return errors.New("group_id is required")
	}
	if _, err := uuid.Parse(profileID); err != nil {
		return ErrNotFound
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM markup_profiles WHERE id = $1)", profileID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO trading_groups (id, markup_profile_id) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET markup_profile_id = EXCLUDED.markup_profile_id, updated_at = NOW()
	`, groupID, profileID)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) UnassignGroup(ctx context.Context, groupID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	tag, err := tx.Exec(ctx, "UPDATE trading_groups SET markup_profile_id = NULL, updated_at = NOW() WHERE id = $1", groupID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	return tx.Commit(ctx)
}

func (s *Store) Groups(ctx context.Context) ([]Group, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, markup_profile_id::text FROM trading_groups ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Group, 0, 8)
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.ProfileID); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) execOne(ctx context.Context, profileID, sql string, args ...any) error {
	if _, err := uuid.Parse(profileID); err != nil {
		return ErrNotFound
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

var (
	_ markup.GroupProfiles = (*Store)(nil)
	_ markup.Profiles      = (*Store)(nil)
)
