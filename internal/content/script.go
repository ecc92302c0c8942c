package content

import "github.com/vovakirdan/stagesim/internal/core"

// Pattern script operations.
const (
	OpMove      = "move"       // Add Velocity each frame
	OpMoveStore = "move_store" // Add store["vx"], store["vy"] each frame
	OpWave      = "wave"       // Sine offset along Axis around the spawn path
	OpFireRing  = "fire_ring"  // Fire Count bullets evenly spread every Every frames
	OpKillAfter = "kill_after" // alive=false once age >= Frames
	OpSet       = "set"        // store[Key] = Value
)

// Script is a declarative behavior script. Each list runs top to bottom on
// every call of the matching hook.
type Script struct {
	ID     int        `yaml:"id" json:"id" jsonschema:"required"`
	Name   string     `yaml:"name" json:"name,omitempty"`
	Init   ScriptInit `yaml:"init" json:"init,omitempty"`
	Update []Op       `yaml:"update" json:"update,omitempty"`
	Die    []Op       `yaml:"die" json:"die,omitempty"`
}

// ObjectID implements Object.
func (s *Script) ObjectID() int { return s.ID }

// ObjectType implements Object.
func (s *Script) ObjectType() Type { return TypeScript }

// ScriptInit is applied once when the entity is created.
type ScriptInit struct {
	Offset core.Vec2      `yaml:"offset" json:"offset,omitempty"`
	Store  map[string]any `yaml:"store" json:"store,omitempty"`
}

// Op is one pattern operation. Only the fields relevant to Op are read.
type Op struct {
	Op string `yaml:"op" json:"op" jsonschema:"enum=move,enum=move_store,enum=wave,enum=fire_ring,enum=kill_after,enum=set"`

	// When names an action that must be held for the op to run.
	When string `yaml:"when" json:"when,omitempty"`

	Velocity core.Vec2 `yaml:"velocity" json:"velocity,omitempty"`

	Axis      string  `yaml:"axis" json:"axis,omitempty"` // "x" or "y"
	Amplitude float64 `yaml:"amplitude" json:"amplitude,omitempty"`
	Period    float64 `yaml:"period" json:"period,omitempty"` // Frames per cycle

	Every  int     `yaml:"every" json:"every,omitempty"`
	Count  int     `yaml:"count" json:"count,omitempty"`
	Speed  float64 `yaml:"speed" json:"speed,omitempty"`   // Pixels per frame
	Angle  float64 `yaml:"angle" json:"angle,omitempty"`   // Degrees, 0 = +X, 90 = +Y
	Spread float64 `yaml:"spread" json:"spread,omitempty"` // Degrees covered; 0 = full circle
	Jitter float64 `yaml:"jitter" json:"jitter,omitempty"` // Random degrees added per volley

	Frames int `yaml:"frames" json:"frames,omitempty"`

	Key   string `yaml:"key" json:"key,omitempty"`
	Value any    `yaml:"value" json:"value,omitempty"`
}
