package world

import "time"

// Tuning holds the gameplay constants. The zero value is not playable;
// start from DefaultTuning and override from the [game.tuning] table.
type Tuning struct {
	TileSize         float64       `toml:"tile_size"`
	CharacterSpeed   float64       `toml:"character_speed"`
	FloorFriction    float64       `toml:"floor_friction"`
	CollisionBox     float64       `toml:"collision_box"`
	SprintMultiplier float64       `toml:"sprint_multiplier"`
	StrafeFactor     float64       `toml:"strafe_factor"`
	MaxHealth        int           `toml:"max_health"`
	FireRate         time.Duration `toml:"fire_rate"`
	BulletOffset     [2]float64    `toml:"bullet_offset"`
	BulletSpeed      float64       `toml:"bullet_speed"`
	BulletRange      float64       `toml:"bullet_range"`
	BulletDamage     int           `toml:"bullet_damage"`
	BulletSize       float64       `toml:"bullet_size"`
	GuardSightRange  float64       `toml:"guard_sight_range"`
	GuardLineOfSight bool          `toml:"guard_line_of_sight"`
	SightRange       float64       `toml:"sight_range"`
	PickupDistance   float64       `toml:"pickup_distance"`
	HoldOffset       float64       `toml:"hold_offset"`
	ObjectCollider   float64       `toml:"object_collider"`
}

func DefaultTuning() Tuning {
	return Tuning{
		TileSize:         64,
		CharacterSpeed:   75,
		FloorFriction:    0.6,
		CollisionBox:     48,
		SprintMultiplier: 1.5,
		StrafeFactor:     0.75,
		MaxHealth:        100,
		FireRate:         time.Second,
		BulletOffset:     [2]float64{19, 15},
		BulletSpeed:      1000,
		BulletRange:      400,
		BulletDamage:     25,
		BulletSize:       6,
		GuardSightRange:  200,
		SightRange:       400,
		PickupDistance:   40,
		HoldOffset:       20,
		ObjectCollider:   10,
	}
}
