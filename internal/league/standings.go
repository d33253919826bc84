package league

import (
	"fmt"
	"io"
	"sort"
)

// CalculateTable ranks the teams of a group from its finished matches.
// It never mutates its inputs and keeps no state, so repeated calls agree.
func CalculateTable(group Group, teams map[string]*Team, matches []*Match) []*TableEntry {
	// 1) one entry per group member, even without matches
	entriesMap := make(map[string]*TableEntry, len(group.TeamIDs))
	for _, id := range group.TeamIDs {
		if _, ok := entriesMap[id]; ok {
			continue
		}
		name := id
		if t, ok := teams[id]; ok && t != nil {
			name = t.Name
		}
		entriesMap[id] = &TableEntry{TeamID: id, Name: name}
	}

	// 2) fold in finished matches of this group between members
	for _, m := range matches {
		if m == nil || m.Status != StatusFinished || m.GroupID != group.ID {
			continue
		}
		home, okHome := entriesMap[m.TeamAID]
		away, okAway := entriesMap[m.TeamBID]
		if !okHome || !okAway {
			continue
		}

		home.Played++
		away.Played++
		home.GoalsFor += m.ScoreA
		home.GoalsAgainst += m.ScoreB
		away.GoalsFor += m.ScoreB
		away.GoalsAgainst += m.ScoreA

		switch {
		case m.ScoreA > m.ScoreB:
			home.Wins++
			away.Losses++
			home.Points += 3
		case m.ScoreA < m.ScoreB:
			away.Wins++
			home.Losses++
			away.Points += 3
		default:
			home.Draws++
			away.Draws++
			home.Points++
			away.Points++
		}
	}

	// 3) collect and compute GoalDiff
	entries := make([]*TableEntry, 0, len(entriesMap))
	for _, e := range entriesMap {
		e.GoalDiff = e.GoalsFor - e.GoalsAgainst
		entries = append(entries, e)
	}

	// 4) sort
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDiff != b.GoalDiff {
			return a.GoalDiff > b.GoalDiff
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.TeamID < b.TeamID
	})

	for i, e := range entries {
		e.Rank = i + 1
		e.Qualified = e.Rank <= group.Classified
	}
	return entries
}

func PrintTable(w io.Writer, label string, table []*TableEntry) {
	fmt.Fprintln(w, label)
	fmt.Fprintf(w, "%-3s %-20s %2s %2s %2s %2s %3s %3s %3s %3s\n",
		"#", "Team", "P", "W", "D", "L", "GF", "GA", "GD", "Pts")
	for _, entry := range table {
		mark := " "
		if entry.Qualified {
			mark = "*"
		}
		fmt.Fprintf(w, "%-3s %-20s %2d %2d %2d %2d %3d %3d %3d %3d\n",
			fmt.Sprintf("%d%s", entry.Rank, mark),
			entry.Name,
			entry.Played,
			entry.Wins,
			entry.Draws,
			entry.Losses,
			entry.GoalsFor,
			entry.GoalsAgainst,
			entry.GoalDiff,
			entry.Points,
		)
	}
}
