package simulator

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utakatalp/match-simulator/internal/league"
	"github.com/utakatalp/match-simulator/internal/store"
)

const owner = "owner-1"

var testNow = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestService(t *testing.T, opts Options) (*Service, *store.Memory) {
	t.Helper()
	repo := store.NewMemory()
	ids := sequentialIDs()
	engine := league.NewEngine(league.DefaultRules(), league.NewRand(7), ids)
	s := NewService(repo, engine, quietLogger(), opts)
	s.newID = ids
	s.now = func() time.Time { return testNow }
	return s, repo
}

func createTeams(t *testing.T, s *Service, names ...string) []*league.Team {
	t.Helper()
	var out []*league.Team
	for _, n := range names {
		tm, err := s.CreateTeam(context.Background(), owner, TeamInput{Name: n, Strength: 0.6})
		require.NoError(t, err)
		out = append(out, tm)
	}
	return out
}

func TestCreateTeamNormalizesInput(t *testing.T) {
	s, _ := newTestService(t, Options{})
	ctx := context.Background()

	tm, err := s.CreateTeam(ctx, owner, TeamInput{Name: "  Rovers ", ShortName: "rovers", Strength: 3})
	require.NoError(t, err)
	assert.Equal(t, "Rovers", tm.Name)
	assert.Equal(t, "ROV", tm.ShortName)
	assert.Equal(t, 1.0, tm.Strength)
	assert.Equal(t, league.StyleBalanced, tm.Style)
	assert.Len(t, tm.Roster, 20)

	tm, err = s.CreateTeam(ctx, owner, TeamInput{Name: "Weak", Strength: 0.01})
	require.NoError(t, err)
	assert.Equal(t, 0.1, tm.Strength)

	_, err = s.CreateTeam(ctx, owner, TeamInput{Name: " "})
	assert.ErrorIs(t, err, ErrInvalidTeam)
	_, err = s.CreateTeam(ctx, owner, TeamInput{Name: "X", Style: "route-one"})
	assert.ErrorIs(t, err, ErrInvalidTeam)

	updated, err := s.UpdateTeam(ctx, owner, tm.ID, TeamInput{Name: "Strong", Strength: 0.9, Style: league.StyleCounter})
	require.NoError(t, err)
	assert.Equal(t, tm.Roster, updated.Roster, "editing a team keeps its roster")
	assert.Equal(t, league.StyleCounter, updated.Style)
}

func TestScheduleMatchRejectsInvalidFixtures(t *testing.T) {
	s, repo := newTestService(t, Options{})
	teams := createTeams(t, s, "Alpha", "Bravo")
	a, b := teams[0].ID, teams[1].ID

	tests := []struct {
		name string
		in   FixtureInput
	}{
		{"missing team", FixtureInput{TeamAID: a, StartTime: testNow}},
		{"same team", FixtureInput{TeamAID: a, TeamBID: a, StartTime: testNow}},
		{"no start time", FixtureInput{TeamAID: a, TeamBID: b}},
		{"unknown team", FixtureInput{TeamAID: a, TeamBID: "ghost", StartTime: testNow}},
		{"unknown format", FixtureInput{TeamAID: a, TeamBID: b, StartTime: testNow, Format: "triple"}},
		{"return leg before first", FixtureInput{TeamAID: a, TeamBID: b, StartTime: testNow, Format: FormatTwoLegged, ReturnStartTime: testNow.Add(-time.Hour)}},
		{"group without tournament", FixtureInput{TeamAID: a, TeamBID: b, StartTime: testNow, Format: FormatGroup}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ScheduleMatch(context.Background(), owner, tt.in)
			assert.ErrorIs(t, err, ErrInvalidFixture)
		})
	}

	matches, err := repo.ListMatches(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, matches, "rejected fixtures write nothing")
}

func TestScheduleTwoLegged(t *testing.T) {
	s, _ := newTestService(t, Options{ReturnLegGap: 72 * time.Hour})
	teams := createTeams(t, s, "Alpha", "Bravo")

	matches, err := s.ScheduleMatch(context.Background(), owner, FixtureInput{
		TeamAID: teams[0].ID, TeamBID: teams[1].ID, StartTime: testNow, Format: FormatTwoLegged,
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	first, second := matches[0], matches[1]
	assert.Equal(t, league.FirstLeg, first.Type)
	assert.Equal(t, league.SecondLeg, second.Type)
	assert.NotEmpty(t, first.SeriesID)
	assert.Equal(t, first.SeriesID, second.SeriesID)
	assert.Equal(t, first.TeamAID, second.TeamBID)
	assert.Equal(t, first.TeamBID, second.TeamAID)
	assert.True(t, second.StartTime.Equal(testNow.Add(72*time.Hour)))
	assert.Equal(t, league.StatusScheduled, second.Status)
}

func TestMatchLifecycleThroughScheduler(t *testing.T) {
	s, repo := newTestService(t, Options{})
	ctx := context.Background()
	teams := createTeams(t, s, "Alpha", "Bravo")

	scheduled, err := s.ScheduleMatch(ctx, owner, FixtureInput{
		TeamAID: teams[0].ID, TeamBID: teams[1].ID, StartTime: testNow.Add(-time.Minute), AutoStart: true,
	})
	require.NoError(t, err)
	id := scheduled[0].ID

	require.NoError(t, s.TickAll(ctx, testNow))
	m, err := repo.GetMatch(ctx, owner, id)
	require.NoError(t, err)
	require.Equal(t, league.StatusLive, m.Status)
	assert.Len(t, m.Lineups.A, 20)

	for i := 0; i < 300 && m.Status.Active(); i++ {
		require.NoError(t, s.TickAll(ctx, testNow))
		m, err = repo.GetMatch(ctx, owner, id)
		require.NoError(t, err)
	}
	require.False(t, m.Status.Active(), "match should reach full time")
	assert.GreaterOrEqual(t, m.CurrentMinute, 92)

	for i := 0; i < 100 && m.Status == league.StatusPenalties; i++ {
		m, err = s.Kick(ctx, owner, id)
		require.NoError(t, err)
	}
	assert.Equal(t, league.StatusFinished, m.Status)
	if m.ScoreA == m.ScoreB {
		require.NotNil(t, m.Penalties)
		assert.NotNil(t, m.Penalties.Winner)
	}

	var fullTime bool
	for _, ev := range m.Events {
		if strings.HasPrefix(ev.Text, "Full time!") {
			fullTime = true
		}
	}
	assert.True(t, fullTime)
}

func TestTickAllLeavesOtherMatchesAlone(t *testing.T) {
	s, repo := newTestService(t, Options{})
	ctx := context.Background()
	teams := createTeams(t, s, "Alpha", "Bravo")
	fixture := FixtureInput{TeamAID: teams[0].ID, TeamBID: teams[1].ID}

	fixture.StartTime, fixture.AutoStart = testNow.Add(time.Hour), true
	future, err := s.ScheduleMatch(ctx, owner, fixture)
	require.NoError(t, err)
	fixture.StartTime, fixture.AutoStart = testNow.Add(-time.Hour), false
	manual, err := s.ScheduleMatch(ctx, owner, fixture)
	require.NoError(t, err)

	require.NoError(t, s.TickAll(ctx, testNow))
	for _, id := range []string{future[0].ID, manual[0].ID} {
		m, err := repo.GetMatch(ctx, owner, id)
		require.NoError(t, err)
		assert.Equal(t, league.StatusScheduled, m.Status)
	}

	m, err := s.StartMatch(ctx, owner, manual[0].ID)
	require.NoError(t, err)
	assert.Equal(t, league.StatusLive, m.Status)
	_, err = s.StartMatch(ctx, owner, manual[0].ID)
	assert.ErrorIs(t, err, league.ErrInvalidState)
}

func TestTickWithMissingTeamsAdvancesClock(t *testing.T) {
	s, repo := newTestService(t, Options{})
	ctx := context.Background()
	require.NoError(t, repo.SaveMatch(ctx, &league.Match{
		ID: "m1", Owner: owner, TeamAID: "gone", TeamBID: "also-gone", Type: league.Single,
		Status: league.StatusScheduled, Period: league.FirstHalf,
	}))

	m, err := s.StartMatch(ctx, owner, "m1")
	require.NoError(t, err)
	assert.Len(t, m.Lineups.A, 20, "a roster is generated for a missing team")

	m, err = s.Tick(ctx, owner, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, m.CurrentMinute)
	assert.Len(t, m.Events, 1)
}

func TestSecondLegReadsFirstLeg(t *testing.T) {
	s, repo := newTestService(t, Options{})
	ctx := context.Background()
	teams := createTeams(t, s, "Alpha", "Bravo")
	a, b := teams[0].ID, teams[1].ID

	require.NoError(t, repo.SaveMatch(ctx, &league.Match{
		ID: "leg1", Owner: owner, TeamAID: a, TeamBID: b, Type: league.FirstLeg, SeriesID: "s1",
		Status: league.StatusFinished, ScoreA: 1,
	}))
	require.NoError(t, repo.SaveMatch(ctx, &league.Match{
		ID: "leg2", Owner: owner, TeamAID: b, TeamBID: a, Type: league.SecondLeg, SeriesID: "s1",
		Status: league.StatusLive, Period: league.SecondHalf, CurrentMinute: 92, AddedTime: 2, ScoreA: 1,
	}))

	m, err := s.Tick(ctx, owner, "leg2")
	require.NoError(t, err)
	assert.Equal(t, league.StatusPenalties, m.Status, "1-1 on aggregate goes to penalties")
	assert.Equal(t, league.EventAggregate, m.Events[1].Type)
}

func TestKickGuards(t *testing.T) {
	s, repo := newTestService(t, Options{KickDelay: time.Hour})
	ctx := context.Background()
	require.NoError(t, repo.SaveMatch(ctx, &league.Match{
		ID: "busy", Owner: owner, Type: league.Single, Status: league.StatusPenalties,
		Penalties: &league.PenaltyShootout{Kicker: league.SideA, InProgress: true},
	}))
	require.NoError(t, repo.SaveMatch(ctx, &league.Match{
		ID: "open", Owner: owner, Type: league.Single, Status: league.StatusPenalties,
		Penalties: league.NewShootout(),
	}))
	require.NoError(t, repo.SaveMatch(ctx, &league.Match{
		ID: "live", Owner: owner, Type: league.Single, Status: league.StatusLive,
	}))

	m, err := s.Kick(ctx, owner, "busy")
	require.NoError(t, err, "an overlapping kick is ignored")
	assert.Empty(t, m.Penalties.Kicks)

	_, err = s.Kick(ctx, owner, "live")
	assert.ErrorIs(t, err, league.ErrInvalidState)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Kick(cancelled, owner, "open")
	assert.ErrorIs(t, err, context.Canceled)
	m, err = repo.GetMatch(ctx, owner, "open")
	require.NoError(t, err)
	assert.False(t, m.Penalties.InProgress, "an abandoned kick releases the shootout")
	assert.Empty(t, m.Penalties.Kicks)
}

// slowReads delays every read so concurrent callers all load the match before
// any of them writes.
type slowReads struct {
	*store.Memory
	delay time.Duration
}

func (r slowReads) GetMatch(ctx context.Context, owner, id string) (*league.Match, error) {
	time.Sleep(r.delay)
	return r.Memory.GetMatch(ctx, owner, id)
}

func newSlowReadService(opts Options) (*Service, *store.Memory) {
	mem := store.NewMemory()
	engine := league.NewEngine(league.DefaultRules(), league.NewRand(7), sequentialIDs())
	return NewService(slowReads{Memory: mem, delay: 20 * time.Millisecond}, engine, quietLogger(), opts), mem
}

func TestConcurrentKicksTakeOneKick(t *testing.T) {
	s, repo := newSlowReadService(Options{KickDelay: 200 * time.Millisecond})
	ctx := context.Background()
	require.NoError(t, repo.SaveMatch(ctx, &league.Match{
		ID: "m1", Owner: owner, Type: league.Single, Status: league.StatusPenalties,
		Penalties: league.NewShootout(),
	}))

	const requests = 4
	var wg sync.WaitGroup
	errs := make([]error, requests)
	for i := range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Kick(ctx, owner, "m1")
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	m, err := repo.GetMatch(ctx, owner, "m1")
	require.NoError(t, err)
	penaltyEvents := 0
	for _, ev := range m.Events {
		if ev.Type == league.EventPenalty {
			penaltyEvents++
		}
	}
	assert.Len(t, m.Penalties.Kicks, 1, "overlapping requests are ignored")
	assert.Equal(t, 1, m.Penalties.AttemptsA)
	assert.Equal(t, 0, m.Penalties.AttemptsB)
	assert.Equal(t, league.SideB, m.Penalties.Kicker)
	assert.Equal(t, len(m.Penalties.Kicks), penaltyEvents, "log and shootout agree")
	assert.False(t, m.Penalties.InProgress)
}

func TestConcurrentTicksAdvanceFromLatestRecord(t *testing.T) {
	s, repo := newSlowReadService(Options{})
	ctx := context.Background()
	require.NoError(t, repo.SaveMatch(ctx, &league.Match{
		ID: "m1", Owner: owner, Type: league.Single, Status: league.StatusLive,
		Period: league.FirstHalf, CurrentMinute: 10, AddedTime: 2,
	}))

	const ticks = 4
	var wg sync.WaitGroup
	for range ticks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Tick(ctx, owner, "m1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	m, err := repo.GetMatch(ctx, owner, "m1")
	require.NoError(t, err)
	assert.Equal(t, 10+ticks, m.CurrentMinute, "no tick is lost")
}

func TestFinishAndAdjustScore(t *testing.T) {
	s, _ := newTestService(t, Options{})
	ctx := context.Background()
	teams := createTeams(t, s, "Alpha", "Bravo")
	matches, err := s.ScheduleMatch(ctx, owner, FixtureInput{TeamAID: teams[0].ID, TeamBID: teams[1].ID, StartTime: testNow})
	require.NoError(t, err)
	id := matches[0].ID

	_, err = s.AdjustScore(ctx, owner, id, league.SideA, 1)
	assert.ErrorIs(t, err, league.ErrInvalidState, "a scheduled match cannot be corrected")

	_, err = s.StartMatch(ctx, owner, id)
	require.NoError(t, err)
	m, err := s.AdjustScore(ctx, owner, id, league.SideB, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, m.ScoreB)
	for i := 0; i < 2; i++ {
		m, err = s.AdjustScore(ctx, owner, id, league.SideB, -1)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, m.ScoreB)
	_, err = s.AdjustScore(ctx, owner, id, league.SideB, 2)
	assert.ErrorIs(t, err, league.ErrInvalidDelta)

	m, err = s.FinishMatch(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, league.StatusFinished, m.Status)
	_, err = s.FinishMatch(ctx, owner, id)
	assert.ErrorIs(t, err, league.ErrInvalidState)

	require.NoError(t, s.DeleteMatch(ctx, owner, id))
	_, err = s.GetMatch(ctx, owner, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
