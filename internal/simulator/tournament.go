package simulator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/utakatalp/match-simulator/internal/league"
	"github.com/utakatalp/match-simulator/internal/store"
)

func (s *Service) CreateTournament(ctx context.Context, owner, name string) (*league.Tournament, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tournament name is required: %w", ErrInvalidTournament)
	}
	t := &league.Tournament{
		ID:        s.newID(),
		Owner:     owner,
		Name:      name,
		Groups:    []league.Group{},
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.SaveTournament(ctx, t); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"owner": owner, "tournament": t.ID}).Info("Tournament created")
	return t, nil
}

func (s *Service) GetTournament(ctx context.Context, owner, id string) (*league.Tournament, error) {
	return s.repo.GetTournament(ctx, owner, id)
}

func (s *Service) ListTournaments(ctx context.Context, owner string) ([]*league.Tournament, error) {
	return s.repo.ListTournaments(ctx, owner)
}

func (s *Service) DeleteTournament(ctx context.Context, owner, id string) error {
	return s.repo.DeleteTournament(ctx, owner, id)
}

// editTournament loads a tournament, applies fn and stores the result.
// Nothing is written when fn fails.
func (s *Service) editTournament(ctx context.Context, owner, id string, fn func(t *league.Tournament) error) (*league.Tournament, error) {
	t, err := s.repo.GetTournament(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	if err := s.repo.SaveTournament(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) editGroup(ctx context.Context, owner, tournamentID, groupID string, fn func(g *league.Group) error) (*league.Tournament, error) {
	return s.editTournament(ctx, owner, tournamentID, func(t *league.Tournament) error {
		g, ok := t.Group(groupID)
		if !ok {
			return fmt.Errorf("group %q: %w", groupID, league.ErrInvalidGroup)
		}
		return fn(g)
	})
}

// AddGroup appends a group with the given number of classified slots.
func (s *Service) AddGroup(ctx context.Context, owner, tournamentID, name string, classified int) (*league.Tournament, error) {
	return s.editTournament(ctx, owner, tournamentID, func(t *league.Tournament) error {
		_, err := t.AddGroup(s.newID(), strings.TrimSpace(name), classified)
		return err
	})
}

func (s *Service) SetClassified(ctx context.Context, owner, tournamentID, groupID string, n int) (*league.Tournament, error) {
	return s.editGroup(ctx, owner, tournamentID, groupID, func(g *league.Group) error {
		return g.SetClassified(n)
	})
}

// AddTeamToGroup adds an existing team of the owner to a group.
func (s *Service) AddTeamToGroup(ctx context.Context, owner, tournamentID, groupID, teamID string) (*league.Tournament, error) {
	if _, err := s.repo.GetTeam(ctx, owner, teamID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("team %s: %w", teamID, ErrInvalidTeam)
		}
		return nil, err
	}
	return s.editGroup(ctx, owner, tournamentID, groupID, func(g *league.Group) error {
		return g.AddTeam(teamID)
	})
}

func (s *Service) RemoveTeamFromGroup(ctx context.Context, owner, tournamentID, groupID, teamID string) (*league.Tournament, error) {
	return s.editGroup(ctx, owner, tournamentID, groupID, func(g *league.Group) error {
		g.RemoveTeam(teamID)
		return nil
	})
}

// Standings computes the current table of a group from its finished games.
func (s *Service) Standings(ctx context.Context, owner, tournamentID, groupID string) ([]*league.TableEntry, error) {
	t, err := s.repo.GetTournament(ctx, owner, tournamentID)
	if err != nil {
		return nil, err
	}
	g, ok := t.Group(groupID)
	if !ok {
		return nil, fmt.Errorf("group %q: %w", groupID, league.ErrInvalidGroup)
	}
	teams, err := s.repo.ListTeams(ctx, owner)
	if err != nil {
		return nil, err
	}
	matches, err := s.repo.ListMatches(ctx, owner)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*league.Team, len(teams))
	for _, tm := range teams {
		byID[tm.ID] = tm
	}
	return league.CalculateTable(*g, byID, matches), nil
}

// ConfigureKnockout sets the bracket size, keeping slots that still fit.
func (s *Service) ConfigureKnockout(ctx context.Context, owner, tournamentID string, size int) (*league.Tournament, error) {
	return s.editTournament(ctx, owner, tournamentID, func(t *league.Tournament) error {
		return t.ConfigureKnockout(size)
	})
}

func knockout(t *league.Tournament) (*league.Knockout, error) {
	if t.Knockout == nil {
		return nil, fmt.Errorf("tournament %s has no knockout stage: %w", t.ID, league.ErrInvalidBracket)
	}
	return t.Knockout, nil
}

// AssignSlot puts a team (or nobody, for an empty id) on one side of a
// bracket slot.
func (s *Service) AssignSlot(ctx context.Context, owner, tournamentID string, slot int, side league.Side, teamID string) (*league.Tournament, error) {
	if teamID != "" {
		if _, err := s.repo.GetTeam(ctx, owner, teamID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("team %s: %w", teamID, ErrInvalidTeam)
			}
			return nil, err
		}
	}
	return s.editTournament(ctx, owner, tournamentID, func(t *league.Tournament) error {
		k, err := knockout(t)
		if err != nil {
			return err
		}
		return k.Assign(slot, side, teamID)
	})
}

// LinkSlot attaches an existing match to a bracket slot.
func (s *Service) LinkSlot(ctx context.Context, owner, tournamentID string, slot int, matchID string) (*league.Tournament, error) {
	if matchID != "" {
		if _, err := s.repo.GetMatch(ctx, owner, matchID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("match %s: %w", matchID, ErrInvalidFixture)
			}
			return nil, err
		}
	}
	return s.editTournament(ctx, owner, tournamentID, func(t *league.Tournament) error {
		k, err := knockout(t)
		if err != nil {
			return err
		}
		return k.Link(slot, matchID)
	})
}
