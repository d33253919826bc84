package league

import (
	"fmt"
	"math"
)

// Engine advances matches one tick at a time. It holds no per-match state:
// every call reads a record and returns the changes as a MatchUpdate.
type Engine struct {
	rules Rules
	rng   Rand
	newID func() string
}

func NewEngine(rules Rules, rng Rand, newID func() string) *Engine {
	return &Engine{rules: rules, rng: rng, newID: newID}
}

func (e *Engine) Rules() Rules { return e.rules }

// TickInput is what one tick needs besides the match itself. Teams may be nil
// when the reference cannot be resolved; FirstLeg is only read for second legs.
type TickInput struct {
	Match    *Match
	TeamA    *Team
	TeamB    *Team
	FirstLeg *Match
}

// Start kicks off a scheduled match.
func (e *Engine) Start(m *Match, teamA, teamB *Team) (*MatchUpdate, error) {
	if m.Status != StatusScheduled {
		return nil, fmt.Errorf("start match %s (%s): %w", m.ID, m.Status, ErrInvalidState)
	}
	next := m.Clone()
	next.Status = StatusLive
	next.Period = FirstHalf
	next.CurrentMinute = 0
	next.HalftimeCounter = 0
	next.AddedTime = e.between(e.rules.FirstHalfAddedMin, e.rules.FirstHalfAddedMax)
	next.ScoreA, next.ScoreB = 0, 0
	next.Stats = Stats{Possession: 50}
	next.Lineups = Lineups{A: e.lineup(teamA), B: e.lineup(teamB)}
	next.Penalties = nil
	next.Events = append(next.Events, Event{Type: EventWhistle, Minute: 0, Text: "Kick-off! The ball is rolling."})
	return Diff(m, next), nil
}

// Tick advances a live or half-time match by one minute or sub-tick.
// Any other status yields nil.
func (e *Engine) Tick(in TickInput) *MatchUpdate {
	m := in.Match
	if m == nil || !m.Status.Active() {
		return nil
	}
	next := m.Clone()
	if next.Status == StatusHalftime {
		e.tickHalftime(next)
	} else {
		e.tickLive(next, in)
	}
	return Diff(m, next)
}

func (e *Engine) tickHalftime(m *Match) {
	m.HalftimeCounter++
	if m.HalftimeCounter < e.rules.HalftimeTicks {
		return
	}
	m.Status = StatusLive
	m.Period = SecondHalf
	m.CurrentMinute = 45
	m.HalftimeCounter = 0
	m.AddedTime = e.between(e.rules.SecondHalfAddedMin, e.rules.SecondHalfAddedMax)
	m.log(EventWhistle, "Second half under way.")
}

func (e *Engine) tickLive(m *Match, in TickInput) {
	limit := regulationEnd(m.Period) + m.AddedTime
	if m.CurrentMinute >= limit {
		if m.Period == FirstHalf {
			m.Status = StatusHalftime
			m.Period = HalfTime
			m.HalftimeCounter = 0
			m.log(EventWhistle, fmt.Sprintf("End of the first half (+%d').", m.AddedTime))
			return
		}
		m.log(EventWhistle, fmt.Sprintf("Full time! (+%d')", m.AddedTime))
		e.resolveOutcome(m, in)
		return
	}

	m.CurrentMinute++
	if in.TeamA == nil || in.TeamB == nil {
		return
	}
	e.playMinute(m, in.TeamA, in.TeamB)
}

func regulationEnd(p Period) int {
	if p == FirstHalf {
		return 45
	}
	return 90
}

// playMinute runs the minute event model: possession drift, the attack
// funnel and the foul funnel.
func (e *Engine) playMinute(m *Match, a, b *Team) {
	r := e.rules

	target := 50 + (a.Strength-b.Strength)*r.PossessionStrengthWeight
	if a.Style == StylePossession {
		target += r.PossessionStyleBonus
	}
	if b.Style == StylePossession {
		target -= r.PossessionStyleBonus
	}
	noise := (e.rng.Float64()*2 - 1) * r.PossessionNoise
	current := float64(m.Stats.Possession)
	m.Stats.Possession = clamp(int(math.Round(current+(target-current)*r.PossessionDamping+noise)), 0, 100)

	if e.rng.Float64() < r.Attack {
		e.attack(m, a, b)
	}

	if e.rng.Float64() < r.Foul {
		m.Stats.Side(e.side()).Fouls++
		if e.rng.Float64() < r.Card {
			side := e.side()
			e.caution(m, side, teamFor(side, a, b))
		}
	}
}

func (e *Engine) attack(m *Match, a, b *Team) {
	r := e.rules
	poss := float64(m.Stats.Possession)
	weightA := a.Strength*0.5 + poss/200
	weightB := b.Strength*0.5 + (100-poss)/200

	side := SideB
	if e.rng.Float64()*(weightA+weightB) < weightA {
		side = SideA
	}
	attacking, defending := teamFor(side, a, b), teamFor(side.Other(), a, b)
	st := m.Stats.Side(side)

	if e.rng.Float64() >= r.Shot {
		st.Corners++
		m.log(EventCorner, fmt.Sprintf("Corner for %s.", attacking.Name))
		return
	}
	st.Shots++
	if e.rng.Float64() >= r.OnTarget {
		return
	}
	st.OnTarget++

	shooter := e.pick(m.Lineups.Side(side), onPitch)
	name := "a player"
	if shooter >= 0 {
		name = m.Lineups.Side(side)[shooter].Name
	}
	chance := r.Goal + (attacking.Strength-defending.Strength)*r.GoalStrengthFactor
	if e.rng.Float64() < chance {
		m.setScore(side, m.Score(side)+1)
		m.log(EventGoal, fmt.Sprintf("GOAL by %s! (%s)", name, attacking.Name))
		return
	}
	m.log(EventSave, fmt.Sprintf("Great save from a shot by %s!", name))
}

// caution books a random player still on the pitch. A second yellow turns
// into a red and the player is sent off.
func (e *Engine) caution(m *Match, side Side, team *Team) {
	players := m.Lineups.Side(side)
	i := e.pick(players, onPitch)
	if i < 0 {
		return
	}
	p := &players[i]
	st := m.Stats.Side(side)

	p.Cards.Yellow++
	st.Yellow++
	m.log(EventCard, fmt.Sprintf("Yellow card for %s (%s).", p.Name, team.Name))
	if p.Cards.Yellow >= 2 {
		p.Cards.Red++
		st.Red++
		m.log(EventRedCard, fmt.Sprintf("Second yellow, %s is sent off!", p.Name))
	}
}

func onPitch(p Player) bool { return p.Starter && !p.SentOff() }

// pick returns the index of a random player matching keep, or -1.
func (e *Engine) pick(players []Player, keep func(Player) bool) int {
	var idx []int
	for i, p := range players {
		if keep(p) {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return -1
	}
	return idx[e.rng.Intn(len(idx))]
}

func (e *Engine) side() Side {
	if e.rng.Float64() < 0.5 {
		return SideA
	}
	return SideB
}

func (e *Engine) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + e.rng.Intn(hi-lo+1)
}

func (e *Engine) lineup(t *Team) []Player {
	if t == nil || len(t.Roster) == 0 {
		return GenerateRoster(e.newID)
	}
	players := clonePlayers(t.Roster)
	for i := range players {
		players[i].Cards = Cards{}
	}
	return players
}

// ForceFinish ends a live or half-time match at its current score.
func (e *Engine) ForceFinish(m *Match) (*MatchUpdate, error) {
	if !m.Status.Active() {
		return nil, fmt.Errorf("finish match %s (%s): %w", m.ID, m.Status, ErrInvalidState)
	}
	next := m.Clone()
	next.Status = StatusFinished
	next.log(EventWhistle, "Match ended by the referee.")
	return Diff(m, next), nil
}

// AdjustScore applies a manual +1/-1 correction. Scores never drop below zero.
func (e *Engine) AdjustScore(m *Match, side Side, delta int) (*MatchUpdate, error) {
	if !side.Valid() {
		return nil, ErrInvalidSide
	}
	if delta != 1 && delta != -1 {
		return nil, ErrInvalidDelta
	}
	if !m.Status.Active() {
		return nil, fmt.Errorf("adjust score of match %s (%s): %w", m.ID, m.Status, ErrInvalidState)
	}
	next := m.Clone()
	next.setScore(side, max(0, next.Score(side)+delta))
	next.log(EventManual, "VAR: manual adjustment of the score.")
	return Diff(m, next), nil
}

func (m *Match) log(t EventType, text string) {
	m.Events = append(m.Events, Event{Type: t, Minute: m.CurrentMinute, Text: text})
}

// teamFor returns the team playing on side, falling back to a neutral
// placeholder so log lines and strength lookups never see nil.
func teamFor(side Side, a, b *Team) *Team {
	t := a
	if side == SideB {
		t = b
	}
	if t == nil {
		return &Team{Name: "Team " + string(side), Strength: 0.5}
	}
	return t
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
