// Package content holds the authored object definitions a stage simulation
// reads: players, enemies, bosses, bullets, sprites, images, stages and
// pattern scripts. Definitions are plain data; the simulator only reads them
// through the Resolver and MetadataSource interfaces.
package content

import (
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/stagesim/internal/core"
)

// NoID marks an absent object reference.
const NoID = -1

// Type identifies the kind of an authored object.
type Type string

const (
	TypePlayer Type = "player"
	TypeEnemy  Type = "enemy"
	TypeBoss   Type = "boss"
	TypeBullet Type = "bullet"
	TypeSprite Type = "sprite"
	TypeStage  Type = "stage"
	TypeScript Type = "script"
)

// Object is implemented by every definition that has a project-wide ID.
type Object interface {
	ObjectID() int
	ObjectType() Type
}

// Player is the player ship definition.
type Player struct {
	ID       int    `yaml:"id" json:"id" jsonschema:"required"`
	Name     string `yaml:"name" json:"name,omitempty"`
	SpriteID int    `yaml:"sprite" json:"sprite,omitempty"`
	BulletID int    `yaml:"bullet" json:"bullet,omitempty"`
	ScriptID int    `yaml:"script" json:"script,omitempty"`
	HP       int    `yaml:"hp" json:"hp,omitempty"`
	// Speeds are in pixels per second.
	MoveSpeed  float64 `yaml:"move_speed" json:"move_speed"`
	FocusSpeed float64 `yaml:"focus_speed" json:"focus_speed"`
}

// Enemy is a regular enemy definition.
type Enemy struct {
	ID       int    `yaml:"id" json:"id" jsonschema:"required"`
	Name     string `yaml:"name" json:"name,omitempty"`
	SpriteID int    `yaml:"sprite" json:"sprite,omitempty"`
	BulletID int    `yaml:"bullet" json:"bullet,omitempty"`
	ScriptID int    `yaml:"script" json:"script,omitempty"`
	HP       int    `yaml:"hp" json:"hp"`
}

// BossForm is one phase of a boss. Forms run one after another.
type BossForm struct {
	Name     string `yaml:"name" json:"name,omitempty"`
	SpriteID int    `yaml:"sprite" json:"sprite,omitempty"`
	BulletID int    `yaml:"bullet" json:"bullet,omitempty"`
	ScriptID int    `yaml:"script" json:"script,omitempty"`
	HP       int    `yaml:"hp" json:"hp"`
	Lifetime int    `yaml:"lifetime" json:"lifetime" jsonschema:"required"` // Frames before the form expires
}

// Boss is a multi-form boss definition.
type Boss struct {
	ID    int        `yaml:"id" json:"id" jsonschema:"required"`
	Name  string     `yaml:"name" json:"name,omitempty"`
	Forms []BossForm `yaml:"forms" json:"forms"`
}

// Bullet is a projectile definition.
type Bullet struct {
	ID       int    `yaml:"id" json:"id" jsonschema:"required"`
	Name     string `yaml:"name" json:"name,omitempty"`
	SpriteID int    `yaml:"sprite" json:"sprite,omitempty"`
	ScriptID int    `yaml:"script" json:"script,omitempty"`
	Damage   int    `yaml:"damage" json:"damage,omitempty"`
}

// Hitbox is an authored circle attached to a sprite cell.
// Offset is measured from the top-left corner of the cell.
type Hitbox struct {
	Offset          core.Vec2 `yaml:"offset" json:"offset"`
	Radius          float64   `yaml:"radius" json:"radius"`
	ConsumablesOnly bool      `yaml:"consumables_only" json:"consumables_only,omitempty"`
}

// Grid describes how a sprite sheet image is cut into cells.
type Grid struct {
	Columns int `yaml:"columns" json:"columns"`
	Rows    int `yaml:"rows" json:"rows"`
}

// Sprite references an image and carries its hitboxes.
type Sprite struct {
	ID       int      `yaml:"id" json:"id" jsonschema:"required"`
	Name     string   `yaml:"name" json:"name,omitempty"`
	Image    string   `yaml:"image" json:"image"`
	Grid     Grid     `yaml:"grid" json:"grid,omitempty"`
	Hitboxes []Hitbox `yaml:"hitboxes" json:"hitboxes,omitempty"`
}

// Image is the metadata of an imported image asset.
type Image struct {
	Path string    `yaml:"path" json:"path"`
	Size core.Size `yaml:"size" json:"size"`
}

// EnemySpawn is one entry of a stage's spawn table. Count instances spawn
// Interval frames apart starting at Frame.
type EnemySpawn struct {
	EnemyID  int       `yaml:"enemy" json:"enemy"`
	Frame    int       `yaml:"frame" json:"frame"`
	Position core.Vec2 `yaml:"position" json:"position"`
	Count    int       `yaml:"count" json:"count,omitempty"`
	Interval int       `yaml:"interval" json:"interval,omitempty"`
}

// Stage is a level definition.
type Stage struct {
	ID          int          `yaml:"id" json:"id" jsonschema:"required"`
	Name        string       `yaml:"name" json:"name,omitempty"`
	Size        core.Size    `yaml:"size" json:"size"`
	Length      int          `yaml:"length" json:"length"` // Enemy phase length in frames
	PlayerID    int          `yaml:"player" json:"player,omitempty"`
	PlayerSpawn core.Vec2    `yaml:"player_spawn" json:"player_spawn"`
	BossID      int          `yaml:"boss" json:"boss,omitempty"`
	BossSpawn   core.Vec2    `yaml:"boss_spawn" json:"boss_spawn"`
	Enemies     []EnemySpawn `yaml:"enemies" json:"enemies,omitempty"`
}

// ObjectID implements Object.
func (p *Player) ObjectID() int { return p.ID }

// ObjectType implements Object.
func (p *Player) ObjectType() Type { return TypePlayer }

// ObjectID implements Object.
func (e *Enemy) ObjectID() int { return e.ID }

// ObjectType implements Object.
func (e *Enemy) ObjectType() Type { return TypeEnemy }

// ObjectID implements Object.
func (b *Boss) ObjectID() int { return b.ID }

// ObjectType implements Object.
func (b *Boss) ObjectType() Type { return TypeBoss }

// ObjectID implements Object.
func (b *Bullet) ObjectID() int { return b.ID }

// ObjectType implements Object.
func (b *Bullet) ObjectType() Type { return TypeBullet }

// ObjectID implements Object.
func (s *Sprite) ObjectID() int { return s.ID }

// ObjectType implements Object.
func (s *Sprite) ObjectType() Type { return TypeSprite }

// ObjectID implements Object.
func (s *Stage) ObjectID() int { return s.ID }

// ObjectType implements Object.
func (s *Stage) ObjectType() Type { return TypeStage }

// CellSize returns the size of one sprite cell given the image size.
func (s *Sprite) CellSize(img core.Size) core.Size {
	cols, rows := s.Grid.Columns, s.Grid.Rows
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return core.Size{W: img.W / float64(cols), H: img.H / float64(rows)}
}

// Spawns returns the spawn frame of each instance. The slice index is the
// instance's ordinal within the group.
func (s EnemySpawn) Spawns() []int {
	count := s.Count
	if count < 1 {
		count = 1
	}
	frames := make([]int, count)
	for i := range frames {
		frames[i] = s.Frame + i*s.Interval
	}
	return frames
}

// Absent references decode as NoID rather than zero, since zero is a valid ID.

func (p *Player) UnmarshalYAML(n *yaml.Node) error {
	type raw Player
	r := raw{SpriteID: NoID, BulletID: NoID, ScriptID: NoID}
	if err := n.Decode(&r); err != nil {
		return err
	}
	*p = Player(r)
	return nil
}

func (e *Enemy) UnmarshalYAML(n *yaml.Node) error {
	type raw Enemy
	r := raw{SpriteID: NoID, BulletID: NoID, ScriptID: NoID}
	if err := n.Decode(&r); err != nil {
		return err
	}
	*e = Enemy(r)
	return nil
}

func (f *BossForm) UnmarshalYAML(n *yaml.Node) error {
	type raw BossForm
	r := raw{SpriteID: NoID, BulletID: NoID, ScriptID: NoID, Lifetime: -1}
	if err := n.Decode(&r); err != nil {
		return err
	}
	*f = BossForm(r)
	return nil
}

func (b *Bullet) UnmarshalYAML(n *yaml.Node) error {
	type raw Bullet
	r := raw{SpriteID: NoID, ScriptID: NoID}
	if err := n.Decode(&r); err != nil {
		return err
	}
	*b = Bullet(r)
	return nil
}

func (s *Stage) UnmarshalYAML(n *yaml.Node) error {
	type raw Stage
	r := raw{PlayerID: NoID, BossID: NoID}
	if err := n.Decode(&r); err != nil {
		return err
	}
	*s = Stage(r)
	return nil
}
