package league

import "reflect"

// MatchUpdate is the partial record the engine hands to storage: only the
// fields that changed, plus the events appended during the step.
type MatchUpdate struct {
	Status          *Status          `json:"status,omitempty"`
	Period          *Period          `json:"period,omitempty"`
	CurrentMinute   *int             `json:"currentMinute,omitempty"`
	AddedTime       *int             `json:"addedTime,omitempty"`
	HalftimeCounter *int             `json:"halftimeCounter,omitempty"`
	ScoreA          *int             `json:"scoreA,omitempty"`
	ScoreB          *int             `json:"scoreB,omitempty"`
	Stats           *Stats           `json:"stats,omitempty"`
	Lineups         *Lineups         `json:"lineups,omitempty"`
	Penalties       *PenaltyShootout `json:"penaltyShootout,omitempty"`
	Events          []Event          `json:"events,omitempty"`
}

// Diff returns the update that turns prev into next, or nil if nothing changed.
// Events are treated as append-only.
func Diff(prev, next *Match) *MatchUpdate {
	u := &MatchUpdate{}
	if prev.Status != next.Status {
		u.Status = ptr(next.Status)
	}
	if prev.Period != next.Period {
		u.Period = ptr(next.Period)
	}
	if prev.CurrentMinute != next.CurrentMinute {
		u.CurrentMinute = ptr(next.CurrentMinute)
	}
	if prev.AddedTime != next.AddedTime {
		u.AddedTime = ptr(next.AddedTime)
	}
	if prev.HalftimeCounter != next.HalftimeCounter {
		u.HalftimeCounter = ptr(next.HalftimeCounter)
	}
	if prev.ScoreA != next.ScoreA {
		u.ScoreA = ptr(next.ScoreA)
	}
	if prev.ScoreB != next.ScoreB {
		u.ScoreB = ptr(next.ScoreB)
	}
	if prev.Stats != next.Stats {
		u.Stats = ptr(next.Stats)
	}
	if !reflect.DeepEqual(prev.Lineups, next.Lineups) {
		l := next.Lineups
		u.Lineups = &l
	}
	if !reflect.DeepEqual(prev.Penalties, next.Penalties) {
		u.Penalties = next.Penalties.clone()
	}
	if len(next.Events) > len(prev.Events) {
		u.Events = append([]Event(nil), next.Events[len(prev.Events):]...)
	}
	if u.Empty() {
		return nil
	}
	return u
}

// Empty reports whether the update carries no change.
func (u *MatchUpdate) Empty() bool {
	if u == nil {
		return true
	}
	return u.Status == nil && u.Period == nil && u.CurrentMinute == nil && u.AddedTime == nil &&
		u.HalftimeCounter == nil && u.ScoreA == nil && u.ScoreB == nil && u.Stats == nil &&
		u.Lineups == nil && u.Penalties == nil && len(u.Events) == 0
}

// Apply merges the update into m.
func (u *MatchUpdate) Apply(m *Match) {
	if u == nil {
		return
	}
	if u.Status != nil {
		m.Status = *u.Status
	}
	if u.Period != nil {
		m.Period = *u.Period
	}
	if u.CurrentMinute != nil {
		m.CurrentMinute = *u.CurrentMinute
	}
	if u.AddedTime != nil {
		m.AddedTime = *u.AddedTime
	}
	if u.HalftimeCounter != nil {
		m.HalftimeCounter = *u.HalftimeCounter
	}
	if u.ScoreA != nil {
		m.ScoreA = *u.ScoreA
	}
	if u.ScoreB != nil {
		m.ScoreB = *u.ScoreB
	}
	if u.Stats != nil {
		m.Stats = *u.Stats
	}
	if u.Lineups != nil {
		m.Lineups = Lineups{A: clonePlayers(u.Lineups.A), B: clonePlayers(u.Lineups.B)}
	}
	if u.Penalties != nil {
		m.Penalties = u.Penalties.clone()
	}
	m.Events = append(m.Events, u.Events...)
}

func ptr[T any](v T) *T { return &v }
