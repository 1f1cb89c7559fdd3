package markup

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrInstrumentNotFound is returned when an instrument has markup configured
// but no known price precision.
var ErrInstrumentNotFound = errors.New("instrument not found")

// GroupProfiles maps a trading group to its markup profile id.
type GroupProfiles interface {
	ProfileIDForGroup(ctx context.Context, groupID string) (string, bool, error)
}

// Profiles fetches markup profiles by id.
type Profiles interface {
	Profile(ctx context.Context, profileID string) (Profile, bool, error)
}

// InstrumentDigits returns the price precision of an instrument.
type InstrumentDigits interface {
	InstrumentDigits(ctx context.Context, instrumentID string) (int32, bool, error)
}

// GroupProfilesFunc adapts a function to GroupProfiles.
type GroupProfilesFunc func(ctx context.Context, groupID string) (string, bool, error)

func (f GroupProfilesFunc) ProfileIDForGroup(ctx context.Context, groupID string) (string, bool, error) {
	return f(ctx, groupID)
}

// ProfilesFunc adapts a function to Profiles.
type ProfilesFunc func(ctx context.Context, profileID string) (Profile, bool, error)

func (f ProfilesFunc) Profile(ctx context.Context, profileID string) (Profile, bool, error) {
	return f(ctx, profileID)
}

// InstrumentDigitsFunc adapts a function to InstrumentDigits.
type InstrumentDigitsFunc func(ctx context.Context, instrumentID string) (int32, bool, error)

func (f InstrumentDigitsFunc) InstrumentDigits(ctx context.Context, instrumentID string) (int32, bool, error) {
	return f(ctx, instrumentID)
}

// Stage is the point a resolution stopped at.
type Stage int

const (
	StageStart Stage = iota
	StageProfileIDResolved
	StageProfileResolved
	StageInstrumentMarkupResolved
	StageDigitsResolved
	StageEmpty
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageProfileIDResolved:
		return "profile_id_resolved"
	case StageProfileResolved:
		return "profile_resolved"
	case StageInstrumentMarkupResolved:
		return "instrument_markup_resolved"
	case StageDigitsResolved:
		return "digits_resolved"
	case StageEmpty:
		return "empty"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Resolver assembles an Applier for a (group, instrument) pair. It keeps no
// state between calls and may be shared between goroutines.
type Resolver struct {
	groups   GroupProfiles
	profiles Profiles
	digits   InstrumentDigits
}

func NewResolver(groups GroupProfiles, profiles Profiles, digits InstrumentDigits) *Resolver {
	return &Resolver{groups: groups, profiles: profiles, digits: digits}
}

// Resolve walks group -> profile id -> profile -> instrument entry -> digits.
// Any missing link except digits yields EmptyApplier. Missing digits yields
// ErrInstrumentNotFound.
func (r *Resolver) Resolve(ctx context.Context, groupID, instrumentID string) (Applier, error) {
	a, stage, err := r.resolve(ctx, groupID, instrumentID)
	log.Debug().
		Str("group", groupID).
		Str("instrument", instrumentID).
		Stringer("stage", stage).
		Err(err).
		Msg("markup resolved")
	return a, err
}

func (r *Resolver) resolve(ctx context.Context, groupID, instrumentID string) (Applier, Stage, error) {
	profileID, ok, err := r.groups.ProfileIDForGroup(ctx, groupID)
	if err != nil {
		return Applier{}, StageStart, fmt.Errorf("lookup profile id for group %s: %w", groupID, err)
	}
	if !ok {
		return EmptyApplier(), StageEmpty, nil
	}

	profile, ok, err := r.profiles.Profile(ctx, profileID)
	if err != nil {
		return Applier{}, StageProfileIDResolved, fmt.Errorf("lookup profile %s: %w", profileID, err)
	}
	if !ok || profile.Disabled {
		return EmptyApplier(), StageEmpty, nil
	}

	entry, ok := profile.Instruments[instrumentID]
	if !ok {
		return EmptyApplier(), StageEmpty, nil
	}

	digits, ok, err := r.digits.InstrumentDigits(ctx, instrumentID)
	if err != nil {
		return Applier{}, StageInstrumentMarkupResolved, fmt.Errorf("lookup digits for %s: %w", instrumentID, err)
	}
	if !ok {
		return Applier{}, StageFailed, fmt.Errorf("%w: %s", ErrInstrumentNotFound, instrumentID)
	}

	return NewApplier(entry, PricePrecision{Digits: digits}), StageDigitsResolved, nil
}
