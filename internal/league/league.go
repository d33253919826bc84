package league

import "time"

// Position of a player in the squad template.
type Position string

const (
	Goalkeeper Position = "GK"
	Defender   Position = "DEF"
	Midfielder Position = "MID"
	Forward    Position = "FWD"
)

// Style biases possession during the minute event model.
type Style string

const (
	StyleBalanced   Style = "balanced"
	StylePossession Style = "possession"
	StyleCounter    Style = "counter"
)

func (s Style) Valid() bool {
	switch s {
	case StyleBalanced, StylePossession, StyleCounter:
		return true
	}
	return false
}

// Team represents a club. The engine reads it but never writes it.
type Team struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	ShortName string    `json:"shortName"`
	Logo      string    `json:"logo"`
	Strength  float64   `json:"strength"`
	Style     Style     `json:"style"`
	Roster    []Player  `json:"roster"`
	CreatedAt time.Time `json:"createdAt"`
}

type Cards struct {
	Yellow int `json:"yellow"`
	Red    int `json:"red"`
}

type Player struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Position Position `json:"position"`
	Number   int      `json:"number"`
	Starter  bool     `json:"starter"`
	Cards    Cards    `json:"cards"`
}

// SentOff reports whether the player has been shown a red card.
func (p Player) SentOff() bool { return p.Cards.Red > 0 }

// Side identifies team A or team B of a match.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

func (s Side) Valid() bool { return s == SideA || s == SideB }

type MatchType string

const (
	Single    MatchType = "single"
	FirstLeg  MatchType = "leg1"
	SecondLeg MatchType = "leg2"
	GroupGame MatchType = "group"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusHalftime  Status = "halftime"
	StatusPenalties Status = "penalties"
	StatusFinished  Status = "finished"
)

// Active reports whether the tick loop should advance a match in this status.
func (s Status) Active() bool { return s == StatusLive || s == StatusHalftime }

type Period string

const (
	FirstHalf  Period = "1T"
	HalfTime   Period = "HT"
	SecondHalf Period = "2T"
)

// SideStats holds the per-team counters of a match.
type SideStats struct {
	Shots    int `json:"shots"`
	OnTarget int `json:"onTarget"`
	Fouls    int `json:"fouls"`
	Yellow   int `json:"yellow"`
	Red      int `json:"red"`
	Corners  int `json:"corners"`
}

// Stats is the match statistics block. Possession is team A's share in percent.
type Stats struct {
	Possession int       `json:"possession"`
	A          SideStats `json:"a"`
	B          SideStats `json:"b"`
}

// Side returns the counters of one team.
func (s *Stats) Side(side Side) *SideStats {
	if side == SideA {
		return &s.A
	}
	return &s.B
}

// Lineups are the rosters frozen at kickoff. In-match cards are written here.
type Lineups struct {
	A []Player `json:"a"`
	B []Player `json:"b"`
}

func (l *Lineups) Side(side Side) []Player {
	if side == SideA {
		return l.A
	}
	return l.B
}

type EventType string

const (
	EventWhistle   EventType = "whistle"
	EventGoal      EventType = "goal"
	EventSave      EventType = "save"
	EventCorner    EventType = "corner"
	EventCard      EventType = "card"
	EventRedCard   EventType = "red"
	EventManual    EventType = "manual"
	EventPenalty   EventType = "penalty"
	EventAggregate EventType = "aggregate"
)

// Event is one entry of the match log.
type Event struct {
	Type   EventType `json:"type"`
	Minute int       `json:"minute"`
	Text   string    `json:"text"`
}

// Kick is one attempt of a penalty shootout.
type Kick struct {
	Side   Side `json:"side"`
	Scored bool `json:"scored"`
}

type PenaltyShootout struct {
	ScoreA     int    `json:"scoreA"`
	ScoreB     int    `json:"scoreB"`
	AttemptsA  int    `json:"attemptsA"`
	AttemptsB  int    `json:"attemptsB"`
	Kicker     Side   `json:"kicker"`
	Kicks      []Kick `json:"kicks"`
	Winner     *Side  `json:"winner,omitempty"`
	InProgress bool   `json:"inProgress"`
}

// Match represents a fixture between two teams and its live state.
type Match struct {
	ID              string           `json:"id"`
	Owner           string           `json:"owner"`
	TeamAID         string           `json:"teamAId"`
	TeamBID         string           `json:"teamBId"`
	Type            MatchType        `json:"matchType"`
	SeriesID        string           `json:"seriesId,omitempty"`
	TournamentID    string           `json:"tournamentId,omitempty"`
	GroupID         string           `json:"groupId,omitempty"`
	StartTime       time.Time        `json:"startTime"`
	AutoStart       bool             `json:"autoStart"`
	Status          Status           `json:"status"`
	Period          Period           `json:"period"`
	CurrentMinute   int              `json:"currentMinute"`
	AddedTime       int              `json:"addedTime"`
	HalftimeCounter int              `json:"halftimeCounter"`
	ScoreA          int              `json:"scoreA"`
	ScoreB          int              `json:"scoreB"`
	Stats           Stats            `json:"stats"`
	Lineups         Lineups          `json:"lineups"`
	Events          []Event          `json:"events"`
	Penalties       *PenaltyShootout `json:"penaltyShootout,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// Score returns the goals of one side.
func (m *Match) Score(side Side) int {
	if side == SideA {
		return m.ScoreA
	}
	return m.ScoreB
}

func (m *Match) setScore(side Side, v int) {
	if side == SideA {
		m.ScoreA = v
	} else {
		m.ScoreB = v
	}
}

// Clone returns a deep copy so the engine can build the next state without
// touching the record it was given.
func (m *Match) Clone() *Match {
	c := *m
	c.Lineups = Lineups{A: clonePlayers(m.Lineups.A), B: clonePlayers(m.Lineups.B)}
	c.Events = append([]Event(nil), m.Events...)
	c.Penalties = m.Penalties.clone()
	return &c
}

func clonePlayers(ps []Player) []Player {
	if ps == nil {
		return nil
	}
	return append([]Player(nil), ps...)
}

func (p *PenaltyShootout) clone() *PenaltyShootout {
	if p == nil {
		return nil
	}
	c := *p
	c.Kicks = append([]Kick(nil), p.Kicks...)
	if p.Winner != nil {
		w := *p.Winner
		c.Winner = &w
	}
	return &c
}

// Group is a round-robin pool inside a tournament.
type Group struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Classified int      `json:"classified"`
	TeamIDs    []string `json:"teamIds"`
}

type Tournament struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	Groups    []Group   `json:"groups"`
	Knockout  *Knockout `json:"knockout,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Group returns the group with the given id.
func (t *Tournament) Group(id string) (*Group, bool) {
	for i := range t.Groups {
		if t.Groups[i].ID == id {
			return &t.Groups[i], true
		}
	}
	return nil, false
}

// TableEntry holds the standings info for one team.
type TableEntry struct {
	TeamID       string `json:"teamId"`
	Name         string `json:"name"`
	Rank         int    `json:"rank"`
	Played       int    `json:"played"`
	Wins         int    `json:"won"`
	Draws        int    `json:"drawn"`
	Losses       int    `json:"lost"`
	GoalsFor     int    `json:"goalsFor"`
	GoalsAgainst int    `json:"goalsAgainst"`
	GoalDiff     int    `json:"goalDiff"`
	Points       int    `json:"points"`
	Qualified    bool   `json:"qualified"`
}
