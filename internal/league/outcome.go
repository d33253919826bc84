package league

import "fmt"

// outcome is the decision taken once regulation time is over.
type outcome struct {
	penalties bool
	events    []Event
}

type resolveFunc func(m, firstLeg *Match, a, b *Team) outcome

var resolvers = map[MatchType]resolveFunc{
	GroupGame: resolveFinal,
	FirstLeg:  resolveFinal,
	Single:    resolveSingle,
	SecondLeg: resolveSecondLeg,
}

// resolveOutcome dispatches on the match type once, at the end of regulation.
// Unknown types finish like a group game.
func (e *Engine) resolveOutcome(m *Match, in TickInput) {
	resolve, ok := resolvers[m.Type]
	if !ok {
		resolve = resolveFinal
	}
	out := resolve(m, in.FirstLeg, teamFor(SideA, in.TeamA, in.TeamB), teamFor(SideB, in.TeamA, in.TeamB))
	m.Events = append(m.Events, out.events...)
	if !out.penalties {
		m.Status = StatusFinished
		return
	}
	m.Status = StatusPenalties
	m.Penalties = NewShootout()
	m.log(EventPenalty, "Tied! The match goes to a penalty shootout.")
}

// resolveFinal lets the score stand: group games and first legs.
func resolveFinal(*Match, *Match, *Team, *Team) outcome { return outcome{} }

func resolveSingle(m, _ *Match, _, _ *Team) outcome {
	return outcome{penalties: m.ScoreA == m.ScoreB}
}

func resolveSecondLeg(m, firstLeg *Match, a, b *Team) outcome {
	if firstLeg == nil {
		return outcome{}
	}
	agg := Aggregate(firstLeg, m)
	// agg is expressed from the first leg's perspective, where this match's
	// team B was team A.
	text := fmt.Sprintf("Aggregate: %s %d - %d %s", b.Name, agg.A, agg.B, a.Name)
	return outcome{
		penalties: agg.Tied(),
		events:    []Event{{Type: EventAggregate, Minute: m.CurrentMinute, Text: text}},
	}
}
