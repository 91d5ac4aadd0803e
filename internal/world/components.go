package world

import (
	"time"

	"github.com/lightsout/server/internal/core/ecs"
	"github.com/lightsout/server/internal/geom"
	"github.com/lightsout/server/internal/protocol"
)

// Kind tags every entity with its variant; the tick dispatches on it.
type Kind uint8

const (
	KindPlayer Kind = iota + 1
	KindGuard
	KindObject
	KindBullet
	KindObstacle
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindGuard:
		return "guard"
	case KindObject:
		return "object"
	case KindBullet:
		return "bullet"
	case KindObstacle:
		return "obstacle"
	}
	return "unknown"
}

// Image keys for character poses.
const (
	PoseStand = "stand"
	PoseGun   = "gun"
	PoseHold  = "hold"
)

// GuardSkin is the sprite set every guard uses.
const GuardSkin = "hitman1"

// PlayerSkins are handed out to joining players in rotation.
var PlayerSkins = []string{"manBlue", "manBrown", "manOld", "soldier1", "survivor1", "womanGreen"}

// Body is shared by every moving entity. Killed entities are skipped for
// the rest of the tick and removed at the destroy-queue flush.
type Body struct {
	Pos    geom.Vec2
	Vel    geom.Vec2
	Angle  float64 // degrees, counter-clockwise, 0 = east
	Killed bool
}

type Character struct {
	Skin      string
	ImageKey  string
	Health    int
	NextFire  time.Duration // simulation clock
	LastHitBy ecs.EntityID
}

type Player struct {
	Session  uint64
	Input    protocol.Input
	HasInput bool
	Prev     protocol.Input // input as of the previous tick, for edge triggers
	Holding  ecs.EntityID   // weak; revalidated every tick
}

type Guard struct {
	Route    []geom.Vec2
	Waypoint int
}

type Object struct {
	Sprite   string
	HeldBy   ecs.EntityID // weak
	Collider ecs.EntityID // ecs.None while held
}

type Bullet struct {
	Parent ecs.EntityID // weak; excluded from hits
	Start  geom.Vec2
	Dir    geom.Vec2
	Speed  float64
	Range  float64
}

type Obstacle struct {
	Rect        geom.Rect
	Transparent bool
	Seq         uint64 // registration order; lower wins collision ties
}
