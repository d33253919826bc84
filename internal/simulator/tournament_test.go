package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utakatalp/match-simulator/internal/league"
)

func TestGroupStage(t *testing.T) {
	s, repo := newTestService(t, Options{RoundSpacing: 24 * time.Hour})
	ctx := context.Background()
	teams := createTeams(t, s, "Alpha", "Bravo", "Charlie", "Delta")

	_, err := s.CreateTournament(ctx, owner, "  ")
	assert.ErrorIs(t, err, ErrInvalidTournament)

	tr, err := s.CreateTournament(ctx, owner, "Spring Cup")
	require.NoError(t, err)
	_, err = s.AddGroup(ctx, owner, tr.ID, "Group A", 5)
	assert.ErrorIs(t, err, league.ErrInvalidGroup)
	tr, err = s.AddGroup(ctx, owner, tr.ID, "Group A", 2)
	require.NoError(t, err)
	require.Len(t, tr.Groups, 1)
	groupID := tr.Groups[0].ID

	for _, tm := range teams {
		tr, err = s.AddTeamToGroup(ctx, owner, tr.ID, groupID, tm.ID)
		require.NoError(t, err)
	}
	_, err = s.AddTeamToGroup(ctx, owner, tr.ID, groupID, "ghost")
	assert.ErrorIs(t, err, ErrInvalidTeam)
	_, err = s.SetClassified(ctx, owner, tr.ID, "nope", 1)
	assert.ErrorIs(t, err, league.ErrInvalidGroup)

	matches, err := s.ScheduleGroupRoundRobin(ctx, owner, tr.ID, groupID, testNow, false)
	require.NoError(t, err)
	require.Len(t, matches, 6)
	assert.True(t, matches[0].StartTime.Equal(testNow))
	assert.True(t, matches[5].StartTime.Equal(testNow.Add(48*time.Hour)))
	for _, m := range matches {
		assert.Equal(t, league.GroupGame, m.Type)
		assert.Equal(t, groupID, m.GroupID)
	}

	// Team A of the first fixture wins it; everything else stays unplayed.
	played := matches[0]
	played.Status, played.ScoreA = league.StatusFinished, 2
	require.NoError(t, repo.SaveMatch(ctx, played))

	table, err := s.Standings(ctx, owner, tr.ID, groupID)
	require.NoError(t, err)
	require.Len(t, table, 4)
	assert.Equal(t, played.TeamAID, table[0].TeamID)
	assert.Equal(t, 3, table[0].Points)
	assert.True(t, table[0].Qualified)
	assert.Equal(t, played.TeamBID, table[3].TeamID)
	assert.False(t, table[3].Qualified)

	tr, err = s.RemoveTeamFromGroup(ctx, owner, tr.ID, groupID, teams[3].ID)
	require.NoError(t, err)
	assert.Len(t, tr.Groups[0].TeamIDs, 3)
}

func TestKnockoutStage(t *testing.T) {
	s, _ := newTestService(t, Options{})
	ctx := context.Background()
	teams := createTeams(t, s, "Alpha", "Bravo")
	tr, err := s.CreateTournament(ctx, owner, "Winter Cup")
	require.NoError(t, err)

	_, err = s.AssignSlot(ctx, owner, tr.ID, 0, league.SideA, teams[0].ID)
	assert.ErrorIs(t, err, league.ErrInvalidBracket, "no bracket configured yet")

	_, err = s.ConfigureKnockout(ctx, owner, tr.ID, 6)
	assert.ErrorIs(t, err, league.ErrInvalidBracket)
	tr, err = s.ConfigureKnockout(ctx, owner, tr.ID, 8)
	require.NoError(t, err)
	assert.Len(t, tr.Knockout.Slots, 4)

	tr, err = s.AssignSlot(ctx, owner, tr.ID, 0, league.SideA, teams[0].ID)
	require.NoError(t, err)
	tr, err = s.AssignSlot(ctx, owner, tr.ID, 0, league.SideB, teams[1].ID)
	require.NoError(t, err)
	_, err = s.AssignSlot(ctx, owner, tr.ID, 0, league.SideA, "ghost")
	assert.ErrorIs(t, err, ErrInvalidTeam)

	matches, err := s.ScheduleMatch(ctx, owner, FixtureInput{TeamAID: teams[0].ID, TeamBID: teams[1].ID, StartTime: testNow})
	require.NoError(t, err)
	tr, err = s.LinkSlot(ctx, owner, tr.ID, 0, matches[0].ID)
	require.NoError(t, err)
	_, err = s.LinkSlot(ctx, owner, tr.ID, 9, matches[0].ID)
	assert.ErrorIs(t, err, league.ErrInvalidBracket)

	tr, err = s.ConfigureKnockout(ctx, owner, tr.ID, 4)
	require.NoError(t, err)
	require.Len(t, tr.Knockout.Slots, 2)
	assert.Equal(t, league.Slot{TeamAID: teams[0].ID, TeamBID: teams[1].ID, MatchID: matches[0].ID}, tr.Knockout.Slots[0])

	stored, err := s.GetTournament(ctx, owner, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.Knockout, stored.Knockout)
}
