package league

import (
	"math/rand"
	"sync"
)

// Rules are the tunable constants of the simulation. The funnels they feed
// (attack → shot → on target → goal, foul → card) are fixed; the numbers are not.
type Rules struct {
	HalftimeTicks int `yaml:"halftime_ticks"`

	FirstHalfAddedMin  int `yaml:"first_half_added_min"`
	FirstHalfAddedMax  int `yaml:"first_half_added_max"`
	SecondHalfAddedMin int `yaml:"second_half_added_min"`
	SecondHalfAddedMax int `yaml:"second_half_added_max"`

	PossessionStrengthWeight float64 `yaml:"possession_strength_weight"`
	PossessionStyleBonus     float64 `yaml:"possession_style_bonus"`
	PossessionDamping        float64 `yaml:"possession_damping"`
	PossessionNoise          float64 `yaml:"possession_noise"`

	Attack             float64 `yaml:"attack"`
	Shot               float64 `yaml:"shot"`
	OnTarget           float64 `yaml:"on_target"`
	Goal               float64 `yaml:"goal"`
	GoalStrengthFactor float64 `yaml:"goal_strength_factor"`
	Foul               float64 `yaml:"foul"`
	Card               float64 `yaml:"card"`

	PenaltyBase           float64 `yaml:"penalty_base"`
	PenaltyStrengthFactor float64 `yaml:"penalty_strength_factor"`
	PenaltyMin            float64 `yaml:"penalty_min"`
	PenaltyMax            float64 `yaml:"penalty_max"`
}

func DefaultRules() Rules {
	return Rules{
		HalftimeTicks: 15,

		FirstHalfAddedMin:  1,
		FirstHalfAddedMax:  4,
		SecondHalfAddedMin: 2,
		SecondHalfAddedMax: 6,

		PossessionStrengthWeight: 35,
		PossessionStyleBonus:     15,
		PossessionDamping:        0.1,
		PossessionNoise:          2,

		Attack:             0.22,
		Shot:               0.8,
		OnTarget:           0.35,
		Goal:               0.42,
		GoalStrengthFactor: 0.15,
		Foul:               0.08,
		Card:               0.005,

		PenaltyBase:           0.75,
		PenaltyStrengthFactor: 0.3,
		PenaltyMin:            0.5,
		PenaltyMax:            0.95,
	}
}

// Rand is the random source the engine draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRand returns a seeded source that is safe to share between the
// scheduler and command handlers.
func NewRand(seed int64) Rand {
	return &lockedRand{rng: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}
