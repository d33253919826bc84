package league

import "fmt"

// ShootoutRounds is the number of regular kicks per side before sudden death.
const ShootoutRounds = 5

// NewShootout returns an empty shootout with team A kicking first.
func NewShootout() *PenaltyShootout {
	return &PenaltyShootout{Kicker: SideA}
}

// Decided reports whether the shootout has a winner.
func (p *PenaltyShootout) Decided() bool { return p.Winner != nil }

func (p *PenaltyShootout) attempts(s Side) int {
	if s == SideA {
		return p.AttemptsA
	}
	return p.AttemptsB
}

func (p *PenaltyShootout) score(s Side) int {
	if s == SideA {
		return p.ScoreA
	}
	return p.ScoreB
}

func (p *PenaltyShootout) record(s Side, scored bool) {
	p.Kicks = append(p.Kicks, Kick{Side: s, Scored: scored})
	inc := 0
	if scored {
		inc = 1
	}
	if s == SideA {
		p.AttemptsA++
		p.ScoreA += inc
	} else {
		p.AttemptsB++
		p.ScoreB += inc
	}
}

// decide applies the winner rules. While both sides are within the first
// five kicks a side wins once the other cannot catch up with its remaining
// kicks; after that it is sudden death on equal attempts.
func (p *PenaltyShootout) decide() (Side, bool) {
	if p.AttemptsA <= ShootoutRounds && p.AttemptsB <= ShootoutRounds {
		switch {
		case p.ScoreA > p.ScoreB+ShootoutRounds-p.AttemptsB:
			return SideA, true
		case p.ScoreB > p.ScoreA+ShootoutRounds-p.AttemptsA:
			return SideB, true
		case p.AttemptsA == ShootoutRounds && p.AttemptsB == ShootoutRounds && p.ScoreA != p.ScoreB:
			return leader(p.ScoreA, p.ScoreB), true
		}
		return "", false
	}
	if p.AttemptsA == p.AttemptsB && p.ScoreA != p.ScoreB {
		return leader(p.ScoreA, p.ScoreB), true
	}
	return "", false
}

func leader(a, b int) Side {
	if a > b {
		return SideA
	}
	return SideB
}

// BeginKick marks a kick as in progress. It returns nil when the request must
// be ignored: no open shootout, or a kick already running.
func (e *Engine) BeginKick(m *Match) *MatchUpdate {
	if m.Status != StatusPenalties || m.Penalties == nil || m.Penalties.InProgress || m.Penalties.Decided() {
		return nil
	}
	next := m.Clone()
	next.Penalties.InProgress = true
	return Diff(m, next)
}

// TakeKick resolves the next kick of the shootout and, once a winner is
// known, finishes the match.
func (e *Engine) TakeKick(m *Match, teamA, teamB *Team) *MatchUpdate {
	if m.Status != StatusPenalties || m.Penalties == nil || m.Penalties.Decided() {
		return nil
	}
	next := m.Clone()
	ps := next.Penalties
	side := ps.Kicker
	kicker, keeper := teamFor(side, teamA, teamB), teamFor(side.Other(), teamA, teamB)

	scored := e.rng.Float64() < e.KickProbability(kicker.Strength, keeper.Strength)
	ps.record(side, scored)
	ps.Kicker = side.Other()
	ps.InProgress = false

	verb := "misses"
	if scored {
		verb = "scores"
	}
	next.log(EventPenalty, fmt.Sprintf("Penalty %d for %s: %s (%d-%d).",
		ps.attempts(side), kicker.Name, verb, ps.ScoreA, ps.ScoreB))

	if w, ok := ps.decide(); ok {
		ps.Winner = &w
		next.Status = StatusFinished
		next.log(EventPenalty, fmt.Sprintf("%s win the shootout %d-%d!",
			teamFor(w, teamA, teamB).Name, ps.score(w), ps.score(w.Other())))
	}
	return Diff(m, next)
}

// KickProbability is the chance a kick is scored given the kicking and the
// goalkeeping team's strength.
func (e *Engine) KickProbability(kicker, keeper float64) float64 {
	r := e.rules
	p := r.PenaltyBase + (kicker-0.5)*r.PenaltyStrengthFactor - (keeper-0.5)*r.PenaltyStrengthFactor
	return min(max(p, r.PenaltyMin), r.PenaltyMax)
}
