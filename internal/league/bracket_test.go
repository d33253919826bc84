package league

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKnockout(t *testing.T) {
	for _, size := range []int{4, 8, 16} {
		k, err := NewKnockout(size)
		require.NoError(t, err)
		assert.Len(t, k.Slots, size/2)
	}
	for _, size := range []int{0, 2, 6, 32} {
		_, err := NewKnockout(size)
		assert.ErrorIs(t, err, ErrInvalidBracket, size)
	}
}

func TestKnockoutAssignAndResize(t *testing.T) {
	k, err := NewKnockout(8)
	require.NoError(t, err)

	require.NoError(t, k.Assign(0, SideA, "a"))
	require.NoError(t, k.Assign(0, SideB, "b"))
	require.NoError(t, k.Assign(3, SideA, "d"))
	require.NoError(t, k.Link(0, "m1"))
	assert.Equal(t, Slot{TeamAID: "a", TeamBID: "b", MatchID: "m1"}, k.Slots[0])

	assert.ErrorIs(t, k.Assign(4, SideA, "x"), ErrInvalidBracket)
	assert.ErrorIs(t, k.Assign(-1, SideA, "x"), ErrInvalidBracket)
	assert.ErrorIs(t, k.Assign(1, Side("C"), "x"), ErrInvalidSide)
	assert.ErrorIs(t, k.Link(9, "m"), ErrInvalidBracket)

	require.NoError(t, k.Resize(4))
	assert.Equal(t, 4, k.Size)
	assert.Len(t, k.Slots, 2)
	assert.Equal(t, "a", k.Slots[0].TeamAID)

	require.NoError(t, k.Resize(16))
	assert.Len(t, k.Slots, 8)
	assert.Equal(t, "b", k.Slots[0].TeamBID)
	assert.Empty(t, k.Slots[3].TeamAID, "slots dropped by a shrink come back empty")

	assert.ErrorIs(t, k.Resize(5), ErrInvalidBracket)

	require.NoError(t, k.Assign(0, SideA, ""))
	assert.Empty(t, k.Slots[0].TeamAID)
}

func TestRoundName(t *testing.T) {
	assert.Equal(t, "Semi-finals", RoundName(4))
	assert.Equal(t, "Quarter-finals", RoundName(8))
	assert.Equal(t, "Round of 16", RoundName(16))
}

func TestTournamentGroups(t *testing.T) {
	tr := &Tournament{ID: "t1", Name: "Cup"}

	_, err := tr.AddGroup("g1", "Group A", 5)
	assert.ErrorIs(t, err, ErrInvalidGroup)
	_, err = tr.AddGroup("g1", "", 2)
	assert.ErrorIs(t, err, ErrInvalidGroup)

	g, err := tr.AddGroup("g1", "Group A", 2)
	require.NoError(t, err)
	require.NoError(t, g.AddTeam("a"))
	require.NoError(t, g.AddTeam("b"))
	require.NoError(t, g.AddTeam("a"))
	require.NoError(t, g.AddTeam("c"))
	assert.Equal(t, []string{"a", "b", "c"}, g.TeamIDs)
	assert.ErrorIs(t, g.AddTeam(""), ErrInvalidGroup)

	g.RemoveTeam("b")
	assert.Equal(t, []string{"a", "c"}, g.TeamIDs)

	assert.ErrorIs(t, g.SetClassified(0), ErrInvalidGroup)
	require.NoError(t, g.SetClassified(4))

	found, ok := tr.Group("g1")
	require.True(t, ok)
	assert.Equal(t, 4, found.Classified)
	_, ok = tr.Group("nope")
	assert.False(t, ok)

	require.NoError(t, tr.ConfigureKnockout(4))
	require.NoError(t, tr.Knockout.Assign(1, SideB, "c"))
	require.NoError(t, tr.ConfigureKnockout(8))
	assert.Equal(t, "c", tr.Knockout.Slots[1].TeamBID)
	assert.ErrorIs(t, tr.ConfigureKnockout(3), ErrInvalidBracket)
}
