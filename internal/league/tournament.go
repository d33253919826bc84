package league

import (
	"fmt"
	"slices"
)

// MaxClassified is the largest number of teams a group can send through.
const MaxClassified = 4

func validClassified(n int) bool { return n >= 1 && n <= MaxClassified }

// AddGroup appends a new group to the tournament.
func (t *Tournament) AddGroup(id, name string, classified int) (*Group, error) {
	if name == "" {
		return nil, fmt.Errorf("group name is empty: %w", ErrInvalidGroup)
	}
	if !validClassified(classified) {
		return nil, fmt.Errorf("classified slots %d: %w", classified, ErrInvalidGroup)
	}
	t.Groups = append(t.Groups, Group{ID: id, Name: name, Classified: classified, TeamIDs: []string{}})
	return &t.Groups[len(t.Groups)-1], nil
}

// SetClassified changes how many teams of the group advance.
func (g *Group) SetClassified(n int) error {
	if !validClassified(n) {
		return fmt.Errorf("classified slots %d: %w", n, ErrInvalidGroup)
	}
	g.Classified = n
	return nil
}

// AddTeam adds a team to the group. Adding a member again is a no-op.
func (g *Group) AddTeam(teamID string) error {
	if teamID == "" {
		return fmt.Errorf("empty team id: %w", ErrInvalidGroup)
	}
	if !slices.Contains(g.TeamIDs, teamID) {
		g.TeamIDs = append(g.TeamIDs, teamID)
	}
	return nil
}

// RemoveTeam drops a team from the group, keeping the order of the others.
func (g *Group) RemoveTeam(teamID string) {
	g.TeamIDs = slices.DeleteFunc(g.TeamIDs, func(id string) bool { return id == teamID })
}

// ConfigureKnockout creates the bracket or resizes the existing one.
func (t *Tournament) ConfigureKnockout(size int) error {
	if t.Knockout == nil {
		k, err := NewKnockout(size)
		if err != nil {
			return err
		}
		t.Knockout = k
		return nil
	}
	return t.Knockout.Resize(size)
}
