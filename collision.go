package main

import (
	"errors"
	"math"
)

const (
	ArenaRadius           = 400.0
	MoveSpeed             = 100.0 // units/s per unit of direction input
	MoveStepRate          = 30.0  // direction inputs are integrated as 1/30 s steps
	BounceAmplify         = 1.5   // trampoline gain on reflected velocity
	DefaultSpringConstant = 2.0
	DefaultBandCount      = 8
)

// ErrNonFinite is returned when an input would leave a player with NaN or
// infinite kinematics.
var ErrNonFinite = errors.New("non-finite kinematics")

// Vec2 is a 2D vector in arena units
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Scale(k float64) Vec2 {
	return Vec2{X: v.X * k, Y: v.Y * k}
}

// Len returns the euclidean length of v
func (v Vec2) Len() float64 {
	return Distance(0, 0, v.X, v.Y)
}

func (v Vec2) Finite() bool {
	return isFinite(v.X) && isFinite(v.Y)
}

// Kinematics is the mutable physical state of a player
type Kinematics struct {
	Position Vec2
	Velocity Vec2
}

func (k Kinematics) finite() bool {
	return k.Position.Finite() && k.Velocity.Finite()
}

// Band is one elastic segment of the arena rim
type Band struct {
	ID             int
	Angle          float64 // rim placement in radians, display only
	SpringConstant float64
	Stretch        float64 // last computed tension, display only
}

// DefaultBands returns n bands spaced evenly around the rim
func DefaultBands(n int) []*Band {
	bands := make([]*Band, n)
	for i := range bands {
		bands[i] = &Band{
			ID:             i,
			Angle:          2 * math.Pi * float64(i) / float64(n),
			SpringConstant: DefaultSpringConstant,
		}
	}
	return bands
}

// ApplyReport accepts a client-simulated position and velocity verbatim.
// There is no plausibility check on the reported values.
func ApplyReport(pos, vel Vec2) (Kinematics, error) {
	next := Kinematics{Position: pos, Velocity: vel}
	if !next.finite() {
		return Kinematics{}, ErrNonFinite
	}
	return next, nil
}

// ApplyDirection turns a unit direction input into a velocity and advances
// the position by one input step.
func ApplyDirection(k Kinematics, dir Vec2) (Kinematics, error) {
	vel := dir.Scale(MoveSpeed)
	next := Kinematics{
		Position: k.Position.Add(vel.Scale(1 / MoveStepRate)),
		Velocity: vel,
	}
	if !next.finite() {
		return Kinematics{}, ErrNonFinite
	}
	return next, nil
}

// ApplyBounce reflects an incoming velocity off a band with spring constant
// springConstant. It returns the new kinematics and the band stretch.
// Position is left for the next movement step.
func ApplyBounce(k Kinematics, incoming Vec2, springConstant float64) (Kinematics, float64, error) {
	if springConstant <= 0 || !incoming.Finite() {
		return Kinematics{}, 0, ErrNonFinite
	}
	stretch := incoming.Len() / springConstant
	next := Kinematics{
		Position: k.Position,
		Velocity: incoming.Scale(-BounceAmplify),
	}
	if !next.finite() || !isFinite(stretch) {
		return Kinematics{}, 0, ErrNonFinite
	}
	return next, stretch, nil
}

// OutsideArena reports whether pos lies strictly beyond the arena radius
func OutsideArena(pos Vec2) bool {
	return pos.Len() > ArenaRadius
}

// ToView converts to the broadcast projection
func (b *Band) ToView() BandView {
	return BandView{
		ID:             b.ID,
		Angle:          b.Angle,
		SpringConstant: b.SpringConstant,
		Stretch:        b.Stretch,
	}
}
