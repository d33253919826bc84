package league

import "fmt"

// StartersCount is the number of players that open a match.
const StartersCount = 11

var rosterTemplate = []Position{
	Goalkeeper, Defender, Defender, Defender, Defender, Midfielder, Midfielder, Midfielder, Forward, Forward, Forward,
	Goalkeeper, Defender, Defender, Midfielder, Midfielder, Midfielder, Forward, Forward, Forward,
}

// GenerateRoster builds the fixed 20-player squad used for teams without one.
// Only the player ids come from newID; everything else is deterministic.
func GenerateRoster(newID func() string) []Player {
	roster := make([]Player, len(rosterTemplate))
	for i, pos := range rosterTemplate {
		roster[i] = Player{
			ID:       newID(),
			Name:     fmt.Sprintf("Player %d", i+1),
			Position: pos,
			Number:   i + 1,
			Starter:  i < StartersCount,
		}
	}
	return roster
}
