package league

// Pairing is one fixture of a generated round.
type Pairing struct {
	Round int
	Home  string
	Away  string
}

// GenerateSchedule returns a single round-robin for the provided team ids.
// It outputs a slice of rounds, each round being the pairings of that round.
func GenerateSchedule(teamIDs []string) [][]Pairing {
	teams := append([]string(nil), teamIDs...)
	n := len(teams)
	if n < 2 {
		return nil
	}
	// If odd number of teams, add an empty placeholder (bye)
	if n%2 != 0 {
		teams = append(teams, "")
		n++
	}

	rounds := make([][]Pairing, n-1)
	for i := 0; i < n-1; i++ {
		round := make([]Pairing, 0, n/2)
		for j := 0; j < n/2; j++ {
			home := teams[j]
			away := teams[n-1-j]
			if home == "" || away == "" {
				continue
			}
			// alternate the fixed team's venue so it is not always at home
			if j == 0 && i%2 == 1 {
				home, away = away, home
			}
			round = append(round, Pairing{Round: i + 1, Home: home, Away: away})
		}
		rounds[i] = round

		// Rotate teams (except first)
		last := teams[n-1]
		copy(teams[2:], teams[1:n-1])
		teams[1] = last
	}
	return rounds
}
