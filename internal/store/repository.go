package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/utakatalp/match-simulator/internal/league"
)

// ErrNotFound is returned when a record does not exist for the given owner.
var ErrNotFound = errors.New("record not found")

// Repository is the storage collaborator of the simulator. Every record is
// scoped to an opaque owner key; writes are last-write-wins.
type Repository interface {
	SaveTeam(ctx context.Context, t *league.Team) error
	GetTeam(ctx context.Context, owner, id string) (*league.Team, error)
	ListTeams(ctx context.Context, owner string) ([]*league.Team, error)
	DeleteTeam(ctx context.Context, owner, id string) error

	SaveMatch(ctx context.Context, m *league.Match) error
	GetMatch(ctx context.Context, owner, id string) (*league.Match, error)
	ListMatches(ctx context.Context, owner string) ([]*league.Match, error)
	// ListPendingMatches returns the matches of every owner the scheduler
	// may have to start or tick.
	ListPendingMatches(ctx context.Context) ([]*league.Match, error)
	// FindSeriesLeg returns the leg of the given type in a two-legged series.
	FindSeriesLeg(ctx context.Context, owner, seriesID string, typ league.MatchType) (*league.Match, error)
	// UpdateMatch merges a partial update into the stored match and returns
	// the merged record.
	UpdateMatch(ctx context.Context, owner, id string, u *league.MatchUpdate) (*league.Match, error)
	// UpdateMatchFunc computes the update from the stored match and writes
	// it as one atomic step, so fn always sees the latest record. An error
	// from fn aborts with nothing written; a nil or empty update returns the
	// stored match unchanged. fn must not call back into the repository.
	UpdateMatchFunc(ctx context.Context, owner, id string, fn MatchStep) (*league.Match, error)
	DeleteMatch(ctx context.Context, owner, id string) error

	SaveTournament(ctx context.Context, t *league.Tournament) error
	GetTournament(ctx context.Context, owner, id string) (*league.Tournament, error)
	ListTournaments(ctx context.Context, owner string) ([]*league.Tournament, error)
	DeleteTournament(ctx context.Context, owner, id string) error
}

// MatchStep derives a partial update from the current match record.
type MatchStep func(m *league.Match) (*league.MatchUpdate, error)

var pendingStatuses = []league.Status{league.StatusScheduled, league.StatusLive, league.StatusHalftime}

func encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return b, nil
}

func decode[T any](b []byte) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(b, v); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return v, nil
}
