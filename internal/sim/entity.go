package sim

import (
	"fmt"

	"github.com/vovakirdan/stagesim/internal/core"
	"github.com/vovakirdan/stagesim/internal/script"
)

// EntityType classifies a simulated actor.
type EntityType int

const (
	EntityPlayer EntityType = iota
	EntityEnemy
	EntityBoss
	EntityEnemyBullet
	EntityPlayerBullet
)

// String returns a human-readable name for the entity type.
func (t EntityType) String() string {
	switch t {
	case EntityPlayer:
		return "player"
	case EntityEnemy:
		return "enemy"
	case EntityBoss:
		return "boss"
	case EntityEnemyBullet:
		return "enemyBullet"
	case EntityPlayerBullet:
		return "playerBullet"
	default:
		return fmt.Sprintf("EntityType(%d)", int(t))
	}
}

// DeadHP is the hp of an entity killed by damage.
// A dormant entity with this hp never activates.
const DeadHP = -1

// Ref links an entity to its authored definition.
// Any field may be content.NoID.
type Ref struct {
	ObjectID int
	SpriteID int
	BulletID int
	ScriptID int
}

// Entity is one simulated actor. Entities are never removed from the
// stepper's storage; death only clears Alive.
type Entity struct {
	Type  EntityType
	Index int // Ordinal within the spawn group
	Ref   Ref

	SpawnFrame int // Stage age at which the entity activates
	Lifetime   int // Frames until forced expiry, -1 = unbounded
	Age        int // Frames since activation

	SpawnPosition core.Vec2
	Position      core.Vec2

	HP           int
	BulletsFired int

	Store script.Store
	Alive bool
	Tags  []string // Reserved
}

// Live reports whether the entity takes part in the frame at stageAge.
func (e *Entity) Live(stageAge int) bool {
	return e.Alive && e.SpawnFrame <= stageAge
}

// Clone returns a deep copy of the entity.
func (e Entity) Clone() Entity {
	e.Store = e.Store.Clone()
	if e.Tags != nil {
		e.Tags = append([]string(nil), e.Tags...)
	}
	return e
}

func cloneEntities(src []Entity) []Entity {
	if src == nil {
		return nil
	}
	out := make([]Entity, len(src))
	for i := range src {
		out[i] = src[i].Clone()
	}
	return out
}
