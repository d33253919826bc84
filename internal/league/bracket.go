package league

import "fmt"

// Slot is one knockout pairing. Teams are entered by hand; nothing is
// seeded from the group standings.
type Slot struct {
	TeamAID string `json:"teamAId,omitempty"`
	TeamBID string `json:"teamBId,omitempty"`
	MatchID string `json:"matchId,omitempty"`
}

type Knockout struct {
	Size  int    `json:"size"`
	Slots []Slot `json:"slots"`
}

// ValidBracketSize reports whether size is one of 4, 8 or 16.
func ValidBracketSize(size int) bool {
	return size == 4 || size == 8 || size == 16
}

// NewKnockout returns an empty bracket with size/2 slots.
func NewKnockout(size int) (*Knockout, error) {
	if !ValidBracketSize(size) {
		return nil, fmt.Errorf("bracket size %d: %w", size, ErrInvalidBracket)
	}
	return &Knockout{Size: size, Slots: make([]Slot, size/2)}, nil
}

// Resize changes the bracket size, keeping the assignments of the slots
// that still exist.
func (k *Knockout) Resize(size int) error {
	if !ValidBracketSize(size) {
		return fmt.Errorf("bracket size %d: %w", size, ErrInvalidBracket)
	}
	slots := make([]Slot, size/2)
	copy(slots, k.Slots)
	k.Size = size
	k.Slots = slots
	return nil
}

func (k *Knockout) slot(i int) (*Slot, error) {
	if i < 0 || i >= len(k.Slots) {
		return nil, fmt.Errorf("slot %d of %d: %w", i, len(k.Slots), ErrInvalidBracket)
	}
	return &k.Slots[i], nil
}

// Assign puts a team on one side of a slot. An empty id clears it.
func (k *Knockout) Assign(i int, side Side, teamID string) error {
	s, err := k.slot(i)
	if err != nil {
		return err
	}
	switch side {
	case SideA:
		s.TeamAID = teamID
	case SideB:
		s.TeamBID = teamID
	default:
		return ErrInvalidSide
	}
	return nil
}

// Link attaches a real match to a slot.
func (k *Knockout) Link(i int, matchID string) error {
	s, err := k.slot(i)
	if err != nil {
		return err
	}
	s.MatchID = matchID
	return nil
}

// RoundName is the display name of the first round of a bracket.
func RoundName(size int) string {
	switch size {
	case 2:
		return "Final"
	case 4:
		return "Semi-finals"
	case 8:
		return "Quarter-finals"
	case 16:
		return "Round of 16"
	}
	return fmt.Sprintf("Round of %d", size)
}
