package event

import "github.com/lightsout/server/internal/core/ecs"

type PlayerJoined struct {
	EntityID  ecs.EntityID
	SessionID uint64
}

type PlayerLeft struct {
	EntityID  ecs.EntityID
	SessionID uint64
}

type BulletFired struct {
	Shooter ecs.EntityID
	Bullet  ecs.EntityID
}

// CharacterHit is emitted for every bullet that lands; Health is the
// target's health after the damage.
type CharacterHit struct {
	Target   ecs.EntityID
	Attacker ecs.EntityID
	Damage   int
	Health   int
}

type CharacterKilled struct {
	Victim     ecs.EntityID
	Killer     ecs.EntityID // ecs.None when unknown
	VictimSkin string
	SessionID  uint64 // 0 for guards
}

type ObjectPickedUp struct {
	Object ecs.EntityID
	Holder ecs.EntityID
}

type ObjectDropped struct {
	Object ecs.EntityID
}
