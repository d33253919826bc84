package league

// AggregateScore is the combined score of a two-legged tie, seen from the
// first leg: A is the first leg's team A, which plays as team B in the second.
type AggregateScore struct {
	TeamAID string `json:"teamAId"`
	TeamBID string `json:"teamBId"`
	A       int    `json:"a"`
	B       int    `json:"b"`
}

// Aggregate sums both legs, swapping sides for the second. A first leg that
// is not finished yet contributes nothing.
func Aggregate(firstLeg, secondLeg *Match) AggregateScore {
	agg := AggregateScore{
		TeamAID: secondLeg.TeamBID,
		TeamBID: secondLeg.TeamAID,
		A:       secondLeg.ScoreB,
		B:       secondLeg.ScoreA,
	}
	if firstLeg != nil && firstLeg.Status == StatusFinished {
		agg.A += firstLeg.ScoreA
		agg.B += firstLeg.ScoreB
	}
	return agg
}

func (a AggregateScore) Tied() bool { return a.A == a.B }

// Leader returns the id of the team ahead on aggregate.
func (a AggregateScore) Leader() (string, bool) {
	switch {
	case a.A > a.B:
		return a.TeamAID, true
	case a.B > a.A:
		return a.TeamBID, true
	}
	return "", false
}
