package league

import "errors"

var (
	ErrInvalidState   = errors.New("operation not allowed in current match state")
	ErrInvalidDelta   = errors.New("score delta must be +1 or -1")
	ErrInvalidSide    = errors.New("side must be A or B")
	ErrInvalidBracket = errors.New("invalid bracket configuration")
	ErrInvalidGroup   = errors.New("invalid group configuration")
)
