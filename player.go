package main

const (
	PlayerMass   = 1.0
	PlayerRadius = 10.0
	SpawnX       = 200.0
	SpawnY       = 200.0
)

// ConnID is a non-owning handle into the hub's connection table
type ConnID uint64

// noConn never names a live connection
const noConn ConnID = 0

// Player represents a joined player in the arena
type Player struct {
	ID       string
	Username string
	Conn     ConnID
	Position Vec2
	Velocity Vec2
	Mass     float64
	Radius   float64
}

// NewPlayer creates a player at the spawn point with zero velocity
func NewPlayer(id, username string, conn ConnID) *Player {
	return &Player{
		ID:       id,
		Username: username,
		Conn:     conn,
		Position: Vec2{X: SpawnX, Y: SpawnY},
		Mass:     PlayerMass,
		Radius:   PlayerRadius,
	}
}

func (p *Player) Kinematics() Kinematics {
	return Kinematics{Position: p.Position, Velocity: p.Velocity}
}

func (p *Player) SetKinematics(k Kinematics) {
	p.Position = k.Position
	p.Velocity = k.Velocity
}

// DistanceFromCenter returns how far the player is from the arena origin
func (p *Player) DistanceFromCenter() float64 {
	return Distance(0, 0, p.Position.X, p.Position.Y)
}

// ToView converts to the broadcast projection
func (p *Player) ToView() PlayerView {
	return PlayerView{
		ID:       p.ID,
		Username: p.Username,
		Position: p.Position,
		Velocity: p.Velocity,
		Mass:     p.Mass,
		Radius:   p.Radius,
	}
}
