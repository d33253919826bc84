package simulator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/utakatalp/match-simulator/internal/league"
	"github.com/utakatalp/match-simulator/internal/store"
)

var (
	// ErrInvalidFixture is returned for incomplete or inconsistent fixture
	// requests. Nothing is written when it is returned.
	ErrInvalidFixture    = errors.New("invalid fixture")
	ErrInvalidTeam       = errors.New("invalid team")
	ErrInvalidTournament = errors.New("invalid tournament")
)

// Options tune the service; zero values are valid.
type Options struct {
	// KickDelay is the pause between marking a penalty kick in progress and
	// resolving it.
	KickDelay time.Duration
	// RoundSpacing separates the kickoffs of consecutive round-robin rounds.
	RoundSpacing time.Duration
	// ReturnLegGap is the default distance between the two legs of a tie.
	ReturnLegGap time.Duration
}

// Service runs the match simulator commands against a repository. It is the
// only writer of match records besides explicit user edits.
type Service struct {
	repo   store.Repository
	engine *league.Engine
	log    *logrus.Logger
	opts   Options

	newID func() string
	now   func() time.Time
}

func NewService(repo store.Repository, engine *league.Engine, log *logrus.Logger, opts Options) *Service {
	if opts.ReturnLegGap <= 0 {
		opts.ReturnLegGap = 7 * 24 * time.Hour
	}
	if opts.RoundSpacing <= 0 {
		opts.RoundSpacing = 7 * 24 * time.Hour
	}
	return &Service{
		repo:   repo,
		engine: engine,
		log:    log,
		opts:   opts,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// TeamInput is the editable part of a team.
type TeamInput struct {
	Name      string       `json:"name"`
	ShortName string       `json:"shortName"`
	Logo      string       `json:"logo"`
	Strength  float64      `json:"strength"`
	Style     league.Style `json:"style"`
}

func (in TeamInput) normalize() (TeamInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, fmt.Errorf("name is required: %w", ErrInvalidTeam)
	}
	short := []rune(strings.ToUpper(strings.TrimSpace(in.ShortName)))
	if len(short) > 3 {
		short = short[:3]
	}
	in.ShortName = string(short)

	if in.Strength == 0 {
		in.Strength = 0.5
	}
	in.Strength = min(max(in.Strength, 0.1), 1)

	if in.Style == "" {
		in.Style = league.StyleBalanced
	}
	if !in.Style.Valid() {
		return in, fmt.Errorf("style %q: %w", in.Style, ErrInvalidTeam)
	}
	return in, nil
}

// CreateTeam stores a new team with a generated roster.
func (s *Service) CreateTeam(ctx context.Context, owner string, in TeamInput) (*league.Team, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	t := &league.Team{
		ID:        s.newID(),
		Owner:     owner,
		Name:      in.Name,
		ShortName: in.ShortName,
		Logo:      in.Logo,
		Strength:  in.Strength,
		Style:     in.Style,
		Roster:    league.GenerateRoster(s.newID),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.SaveTeam(ctx, t); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"owner": owner, "team": t.ID}).Info("Team created")
	return t, nil
}

// UpdateTeam edits a team's details. The roster is kept.
func (s *Service) UpdateTeam(ctx context.Context, owner, id string, in TeamInput) (*league.Team, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	t, err := s.repo.GetTeam(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	t.Name, t.ShortName, t.Logo, t.Strength, t.Style = in.Name, in.ShortName, in.Logo, in.Strength, in.Style
	if len(t.Roster) == 0 {
		t.Roster = league.GenerateRoster(s.newID)
	}
	if err := s.repo.SaveTeam(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) GetTeam(ctx context.Context, owner, id string) (*league.Team, error) {
	return s.repo.GetTeam(ctx, owner, id)
}

func (s *Service) ListTeams(ctx context.Context, owner string) ([]*league.Team, error) {
	return s.repo.ListTeams(ctx, owner)
}

func (s *Service) DeleteTeam(ctx context.Context, owner, id string) error {
	return s.repo.DeleteTeam(ctx, owner, id)
}

// Format is the shape of a scheduled fixture.
type Format string

const (
	FormatSingle    Format = "single"
	FormatTwoLegged Format = "two-legged"
	FormatGroup     Format = "group"
)

// FixtureInput describes a fixture to schedule. For a two-legged tie team A
// hosts the first leg; ReturnStartTime defaults to StartTime plus the
// configured gap.
type FixtureInput struct {
	TeamAID         string    `json:"teamAId"`
	TeamBID         string    `json:"teamBId"`
	Format          Format    `json:"format"`
	StartTime       time.Time `json:"startTime"`
	ReturnStartTime time.Time `json:"returnStartTime"`
	AutoStart       bool      `json:"autoStart"`
	TournamentID    string    `json:"tournamentId"`
	GroupID         string    `json:"groupId"`
}

// ScheduleMatch validates the fixture and creates its matches: one for a
// single or group game, two sharing a series id for a two-legged tie.
func (s *Service) ScheduleMatch(ctx context.Context, owner string, in FixtureInput) ([]*league.Match, error) {
	// 1) Validate everything before the first write
	if in.Format == "" {
		in.Format = FormatSingle
	}
	if in.TeamAID == "" || in.TeamBID == "" {
		return nil, fmt.Errorf("both teams are required: %w", ErrInvalidFixture)
	}
	if in.TeamAID == in.TeamBID {
		return nil, fmt.Errorf("a team cannot play itself: %w", ErrInvalidFixture)
	}
	if in.StartTime.IsZero() {
		return nil, fmt.Errorf("start time is required: %w", ErrInvalidFixture)
	}
	for _, id := range []string{in.TeamAID, in.TeamBID} {
		if _, err := s.repo.GetTeam(ctx, owner, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("team %s does not exist: %w", id, ErrInvalidFixture)
			}
			return nil, err
		}
	}

	// 2) Build the matches for the requested format
	var matches []*league.Match
	switch in.Format {
	case FormatSingle:
		matches = append(matches, s.newMatch(owner, in.TeamAID, in.TeamBID, league.Single, in.StartTime, in.AutoStart))
	case FormatTwoLegged:
		ret := in.ReturnStartTime
		if ret.IsZero() {
			ret = in.StartTime.Add(s.opts.ReturnLegGap)
		}
		if !ret.After(in.StartTime) {
			return nil, fmt.Errorf("return leg must start after the first leg: %w", ErrInvalidFixture)
		}
		series := s.newID()
		first := s.newMatch(owner, in.TeamAID, in.TeamBID, league.FirstLeg, in.StartTime, in.AutoStart)
		second := s.newMatch(owner, in.TeamBID, in.TeamAID, league.SecondLeg, ret, in.AutoStart)
		first.SeriesID, second.SeriesID = series, series
		matches = append(matches, first, second)
	case FormatGroup:
		t, err := s.repo.GetTournament(ctx, owner, in.TournamentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("tournament %q: %w", in.TournamentID, ErrInvalidFixture)
			}
			return nil, err
		}
		if _, ok := t.Group(in.GroupID); !ok {
			return nil, fmt.Errorf("group %q: %w", in.GroupID, ErrInvalidFixture)
		}
		m := s.newMatch(owner, in.TeamAID, in.TeamBID, league.GroupGame, in.StartTime, in.AutoStart)
		m.TournamentID, m.GroupID = in.TournamentID, in.GroupID
		matches = append(matches, m)
	default:
		return nil, fmt.Errorf("format %q: %w", in.Format, ErrInvalidFixture)
	}

	// 3) Persist
	for _, m := range matches {
		if err := s.repo.SaveMatch(ctx, m); err != nil {
			return nil, err
		}
	}
	s.log.WithFields(logrus.Fields{"owner": owner, "format": in.Format, "matches": len(matches)}).Info("Fixture scheduled")
	return matches, nil
}

// ScheduleGroupRoundRobin creates a group game for every pairing of the
// group, one round per RoundSpacing starting at firstKickoff.
func (s *Service) ScheduleGroupRoundRobin(ctx context.Context, owner, tournamentID, groupID string, firstKickoff time.Time, autoStart bool) ([]*league.Match, error) {
	if firstKickoff.IsZero() {
		return nil, fmt.Errorf("start time is required: %w", ErrInvalidFixture)
	}
	t, err := s.repo.GetTournament(ctx, owner, tournamentID)
	if err != nil {
		return nil, err
	}
	g, ok := t.Group(groupID)
	if !ok {
		return nil, fmt.Errorf("group %q: %w", groupID, league.ErrInvalidGroup)
	}
	rounds := league.GenerateSchedule(g.TeamIDs)
	if len(rounds) == 0 {
		return nil, fmt.Errorf("group %s needs at least two teams: %w", g.Name, ErrInvalidFixture)
	}

	var matches []*league.Match
	for i, round := range rounds {
		kickoff := firstKickoff.Add(time.Duration(i) * s.opts.RoundSpacing)
		for _, p := range round {
			m := s.newMatch(owner, p.Home, p.Away, league.GroupGame, kickoff, autoStart)
			m.TournamentID, m.GroupID = tournamentID, groupID
			matches = append(matches, m)
		}
	}
	for _, m := range matches {
		if err := s.repo.SaveMatch(ctx, m); err != nil {
			return nil, err
		}
	}
	s.log.WithFields(logrus.Fields{
		"tournament": tournamentID,
		"group":      groupID,
		"rounds":     len(rounds),
		"matches":    len(matches),
	}).Info("Group schedule generated")
	return matches, nil
}

func (s *Service) newMatch(owner, teamA, teamB string, typ league.MatchType, start time.Time, autoStart bool) *league.Match {
	return &league.Match{
		ID:        s.newID(),
		Owner:     owner,
		TeamAID:   teamA,
		TeamBID:   teamB,
		Type:      typ,
		StartTime: start.UTC(),
		AutoStart: autoStart,
		Status:    league.StatusScheduled,
		Period:    league.FirstHalf,
		Events:    []league.Event{},
		CreatedAt: s.now().UTC(),
	}
}

func (s *Service) GetMatch(ctx context.Context, owner, id string) (*league.Match, error) {
	return s.repo.GetMatch(ctx, owner, id)
}

func (s *Service) ListMatches(ctx context.Context, owner string) ([]*league.Match, error) {
	return s.repo.ListMatches(ctx, owner)
}

func (s *Service) DeleteMatch(ctx context.Context, owner, id string) error {
	return s.repo.DeleteMatch(ctx, owner, id)
}

// teams resolves both sides of a match. A missing team is logged and
// returned as nil; the engine has a fallback for it.
func (s *Service) teams(ctx context.Context, m *league.Match) (*league.Team, *league.Team, error) {
	var out [2]*league.Team
	for i, id := range []string{m.TeamAID, m.TeamBID} {
		t, err := s.repo.GetTeam(ctx, m.Owner, id)
		switch {
		case err == nil:
			out[i] = t
		case errors.Is(err, store.ErrNotFound):
			s.log.WithFields(logrus.Fields{"match": m.ID, "team": id}).Warn("Team not found, playing without it")
		default:
			return nil, nil, err
		}
	}
	return out[0], out[1], nil
}

// StartMatch kicks off a scheduled match.
func (s *Service) StartMatch(ctx context.Context, owner, id string) (*league.Match, error) {
	m, err := s.repo.GetMatch(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, m)
}

func (s *Service) start(ctx context.Context, m *league.Match) (*league.Match, error) {
	a, b, err := s.teams(ctx, m)
	if err != nil {
		return nil, err
	}
	next, err := s.repo.UpdateMatchFunc(ctx, m.Owner, m.ID, func(cur *league.Match) (*league.MatchUpdate, error) {
		return s.engine.Start(cur, a, b)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"owner": m.Owner, "match": m.ID}).Info("Match started")
	return next, nil
}

// Tick advances one match by a single tick.
func (s *Service) Tick(ctx context.Context, owner, id string) (*league.Match, error) {
	m, err := s.repo.GetMatch(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return s.tick(ctx, m)
}

// tick resolves the teams and the first leg from m, then steps the stored
// record, which may be ahead of m when another tick got there first.
func (s *Service) tick(ctx context.Context, m *league.Match) (*league.Match, error) {
	if !m.Status.Active() {
		return m, nil
	}
	a, b, err := s.teams(ctx, m)
	if err != nil {
		return nil, err
	}
	var first *league.Match
	if m.Type == league.SecondLeg && m.SeriesID != "" {
		first, err = s.repo.FindSeriesLeg(ctx, m.Owner, m.SeriesID, league.FirstLeg)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotFound):
			s.log.WithFields(logrus.Fields{"match": m.ID, "series": m.SeriesID}).Warn("First leg not found")
		default:
			return nil, err
		}
	}

	var prev league.Status
	next, err := s.repo.UpdateMatchFunc(ctx, m.Owner, m.ID, func(cur *league.Match) (*league.MatchUpdate, error) {
		prev = cur.Status
		return s.engine.Tick(league.TickInput{Match: cur, TeamA: a, TeamB: b, FirstLeg: first}), nil
	})
	if err != nil {
		return nil, err
	}
	if next.Status != prev {
		s.log.WithFields(logrus.Fields{
			"match":  m.ID,
			"from":   prev,
			"to":     next.Status,
			"score":  fmt.Sprintf("%d-%d", next.ScoreA, next.ScoreB),
			"minute": next.CurrentMinute,
		}).Info("Match status changed")
	}
	return next, nil
}

// TickAll is one pass of the scheduler: due autostart matches are kicked
// off, then every live or half-time match is ticked. A failing match is
// logged and skipped.
func (s *Service) TickAll(ctx context.Context, now time.Time) error {
	pending, err := s.repo.ListPendingMatches(ctx)
	if err != nil {
		return fmt.Errorf("listing pending matches: %w", err)
	}
	for _, m := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		entry := s.log.WithFields(logrus.Fields{"owner": m.Owner, "match": m.ID})
		switch {
		case m.Status == league.StatusScheduled:
			if !m.AutoStart || m.StartTime.IsZero() || now.Before(m.StartTime) {
				continue
			}
			if _, err := s.start(ctx, m); err != nil {
				entry.WithError(err).Error("Failed to autostart match")
			}
		case m.Status.Active():
			if _, err := s.tick(ctx, m); err != nil {
				entry.WithError(err).Error("Failed to tick match")
			}
		}
	}
	return nil
}

// Kick takes the next penalty of a shootout. A request that arrives while a
// kick is already being taken is ignored and returns the match as stored.
func (s *Service) Kick(ctx context.Context, owner, id string) (*league.Match, error) {
	m, err := s.repo.GetMatch(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	a, b, err := s.teams(ctx, m)
	if err != nil {
		return nil, err
	}

	// 1) Claim the kick; the in-progress check and the write are one step
	began := false
	m, err = s.repo.UpdateMatchFunc(ctx, owner, id, func(cur *league.Match) (*league.MatchUpdate, error) {
		if cur.Status != league.StatusPenalties || cur.Penalties == nil {
			return nil, fmt.Errorf("kick in match %s (%s): %w", cur.ID, cur.Status, league.ErrInvalidState)
		}
		u := s.engine.BeginKick(cur)
		began = u != nil
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	if !began {
		s.log.WithField("match", id).Debug("Kick already in progress, ignoring")
		return m, nil
	}

	// 2) Run-up
	if s.opts.KickDelay > 0 {
		select {
		case <-time.After(s.opts.KickDelay):
		case <-ctx.Done():
			s.releaseKick(context.WithoutCancel(ctx), owner, id)
			return nil, ctx.Err()
		}
	}

	// 3) Resolve it against the latest record
	next, err := s.repo.UpdateMatchFunc(ctx, owner, id, func(cur *league.Match) (*league.MatchUpdate, error) {
		return s.engine.TakeKick(cur, a, b), nil
	})
	if err != nil {
		s.releaseKick(context.WithoutCancel(ctx), owner, id)
		return nil, err
	}
	if next.Status == league.StatusFinished && next.Penalties != nil && next.Penalties.Winner != nil {
		s.log.WithFields(logrus.Fields{
			"match":  id,
			"winner": *next.Penalties.Winner,
			"score":  fmt.Sprintf("%d-%d", next.Penalties.ScoreA, next.Penalties.ScoreB),
		}).Info("Shootout decided")
	}
	return next, nil
}

// releaseKick clears the in-progress flag of an abandoned kick so the
// shootout can continue.
func (s *Service) releaseKick(ctx context.Context, owner, id string) {
	_, err := s.repo.UpdateMatchFunc(ctx, owner, id, func(cur *league.Match) (*league.MatchUpdate, error) {
		if cur.Penalties == nil || !cur.Penalties.InProgress {
			return nil, nil
		}
		next := cur.Clone()
		next.Penalties.InProgress = false
		return league.Diff(cur, next), nil
	})
	if err != nil {
		s.log.WithError(err).WithField("match", id).Error("Failed to release penalty kick")
	}
}

// FinishMatch ends a live or half-time match at its current score.
func (s *Service) FinishMatch(ctx context.Context, owner, id string) (*league.Match, error) {
	m, err := s.repo.UpdateMatchFunc(ctx, owner, id, func(cur *league.Match) (*league.MatchUpdate, error) {
		return s.engine.ForceFinish(cur)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"owner": owner, "match": id}).Info("Match finished by user")
	return m, nil
}

// AdjustScore applies a manual +1/-1 correction to one side.
func (s *Service) AdjustScore(ctx context.Context, owner, id string, side league.Side, delta int) (*league.Match, error) {
	return s.repo.UpdateMatchFunc(ctx, owner, id, func(cur *league.Match) (*league.MatchUpdate, error) {
		return s.engine.AdjustScore(cur, side, delta)
	})
}
