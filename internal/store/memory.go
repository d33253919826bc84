package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/utakatalp/match-simulator/internal/league"
)

type key struct{ owner, id string }

// Memory is a process-local Repository. Records are kept encoded so callers
// never share memory with the store, the same as with the SQL store.
type Memory struct {
	mu          sync.RWMutex
	teams       map[key][]byte
	matches     map[key][]byte
	tournaments map[key][]byte
}

var _ Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		teams:       make(map[key][]byte),
		matches:     make(map[key][]byte),
		tournaments: make(map[key][]byte),
	}
}

func put(mu *sync.RWMutex, table map[key][]byte, k key, v any) error {
	doc, err := encode(v)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	table[k] = doc
	return nil
}

func get[T any](mu *sync.RWMutex, table map[key][]byte, k key, what string) (*T, error) {
	mu.RLock()
	doc, ok := table[k]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", what, k.id, ErrNotFound)
	}
	return decode[T](doc)
}

func list[T any](mu *sync.RWMutex, table map[key][]byte, keep func(key) bool) ([]*T, error) {
	mu.RLock()
	defer mu.RUnlock()
	var out []*T
	for k, doc := range table {
		if !keep(k) {
			continue
		}
		v, err := decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func remove(mu *sync.RWMutex, table map[key][]byte, k key, what string) error {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := table[k]; !ok {
		return fmt.Errorf("%s %s: %w", what, k.id, ErrNotFound)
	}
	delete(table, k)
	return nil
}

func ownedBy(owner string) func(key) bool {
	return func(k key) bool { return k.owner == owner }
}

func (s *Memory) SaveTeam(_ context.Context, t *league.Team) error {
	return put(&s.mu, s.teams, key{t.Owner, t.ID}, t)
}

func (s *Memory) GetTeam(_ context.Context, owner, id string) (*league.Team, error) {
	return get[league.Team](&s.mu, s.teams, key{owner, id}, "team")
}

func (s *Memory) ListTeams(_ context.Context, owner string) ([]*league.Team, error) {
	teams, err := list[league.Team](&s.mu, s.teams, ownedBy(owner))
	slices.SortFunc(teams, func(a, b *league.Team) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return teams, err
}

func (s *Memory) DeleteTeam(_ context.Context, owner, id string) error {
	return remove(&s.mu, s.teams, key{owner, id}, "team")
}

func (s *Memory) SaveMatch(_ context.Context, m *league.Match) error {
	return put(&s.mu, s.matches, key{m.Owner, m.ID}, m)
}

func (s *Memory) GetMatch(_ context.Context, owner, id string) (*league.Match, error) {
	return get[league.Match](&s.mu, s.matches, key{owner, id}, "match")
}

func byStartTime(a, b *league.Match) int {
	return cmp.Or(a.StartTime.Compare(b.StartTime), cmp.Compare(a.ID, b.ID))
}

func (s *Memory) ListMatches(_ context.Context, owner string) ([]*league.Match, error) {
	matches, err := list[league.Match](&s.mu, s.matches, ownedBy(owner))
	slices.SortFunc(matches, byStartTime)
	return matches, err
}

func (s *Memory) ListPendingMatches(_ context.Context) ([]*league.Match, error) {
	all, err := list[league.Match](&s.mu, s.matches, func(key) bool { return true })
	if err != nil {
		return nil, err
	}
	pending := slices.DeleteFunc(all, func(m *league.Match) bool {
		return !slices.Contains(pendingStatuses, m.Status)
	})
	slices.SortFunc(pending, byStartTime)
	return pending, nil
}

func (s *Memory) FindSeriesLeg(ctx context.Context, owner, seriesID string, typ league.MatchType) (*league.Match, error) {
	matches, err := s.ListMatches(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if m.SeriesID == seriesID && m.Type == typ {
			return m, nil
		}
	}
	return nil, fmt.Errorf("series leg: %w", ErrNotFound)
}

func (s *Memory) UpdateMatch(ctx context.Context, owner, id string, u *league.MatchUpdate) (*league.Match, error) {
	return s.UpdateMatchFunc(ctx, owner, id, func(*league.Match) (*league.MatchUpdate, error) { return u, nil })
}

// UpdateMatchFunc runs fn while holding the write lock.
func (s *Memory) UpdateMatchFunc(_ context.Context, owner, id string, fn MatchStep) (*league.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.matches[key{owner, id}]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	m, err := decode[league.Match](doc)
	if err != nil {
		return nil, err
	}
	u, err := fn(m)
	if err != nil {
		return nil, err
	}
	if u.Empty() {
		return m, nil
	}
	u.Apply(m)
	if doc, err = encode(m); err != nil {
		return nil, err
	}
	s.matches[key{owner, id}] = doc
	return m, nil
}

func (s *Memory) DeleteMatch(_ context.Context, owner, id string) error {
	return remove(&s.mu, s.matches, key{owner, id}, "match")
}

func (s *Memory) SaveTournament(_ context.Context, t *league.Tournament) error {
	return put(&s.mu, s.tournaments, key{t.Owner, t.ID}, t)
}

func (s *Memory) GetTournament(_ context.Context, owner, id string) (*league.Tournament, error) {
	return get[league.Tournament](&s.mu, s.tournaments, key{owner, id}, "tournament")
}

func (s *Memory) ListTournaments(_ context.Context, owner string) ([]*league.Tournament, error) {
	ts, err := list[league.Tournament](&s.mu, s.tournaments, ownedBy(owner))
	slices.SortFunc(ts, func(a, b *league.Tournament) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return ts, err
}

func (s *Memory) DeleteTournament(_ context.Context, owner, id string) error {
	return remove(&s.mu, s.tournaments, key{owner, id}, "tournament")
}
