package sim

import (
	"fmt"

	"github.com/vovakirdan/stagesim/internal/content"
	"github.com/vovakirdan/stagesim/internal/core"
)

// shape is the resolved collision geometry of one sprite.
type shape struct {
	half  core.Vec2 // Half of one sprite cell
	boxes []content.Hitbox
}

// Collider tests entity pairs for hitbox overlap. Resolved sprite geometry
// is memoised until Reset.
type Collider struct {
	resolver content.Resolver
	meta     content.MetadataSource
	shapes   map[int]shape
}

// NewCollider creates a collider reading sprites through resolver and meta.
func NewCollider(resolver content.Resolver, meta content.MetadataSource) *Collider {
	return &Collider{
		resolver: resolver,
		meta:     meta,
		shapes:   make(map[int]shape),
	}
}

// Reset drops memoised sprite geometry. Call after content edits.
func (c *Collider) Reset() {
	clear(c.shapes)
}

func (c *Collider) shape(spriteID int) (shape, error) {
	if sh, ok := c.shapes[spriteID]; ok {
		return sh, nil
	}

	sprite, ok := content.Lookup[*content.Sprite](c.resolver, spriteID)
	if !ok {
		return shape{}, fmt.Errorf("%w: sprite %d does not exist", ErrSpriteUnresolved, spriteID)
	}
	dims, err := c.meta.Dimensions(sprite.Image)
	if err != nil {
		return shape{}, fmt.Errorf("%w: sprite %d: %w", ErrSpriteUnresolved, spriteID, err)
	}
	boxes, err := c.meta.Hitboxes(spriteID)
	if err != nil {
		return shape{}, fmt.Errorf("%w: sprite %d: %w", ErrSpriteUnresolved, spriteID, err)
	}

	combat := make([]content.Hitbox, 0, len(boxes))
	for _, b := range boxes {
		if !b.ConsumablesOnly {
			combat = append(combat, b)
		}
	}

	sh := shape{half: sprite.CellSize(dims).Half(), boxes: combat}
	c.shapes[spriteID] = sh
	return sh, nil
}

// circles places the sprite's hitboxes in stage space around pos.
func (sh shape) circles(pos core.Vec2) []core.Circle {
	out := make([]core.Circle, len(sh.boxes))
	origin := pos.Sub(sh.half)
	for i, b := range sh.boxes {
		out[i] = core.Circle{Center: origin.Add(b.Offset), Radius: b.Radius}
	}
	return out
}

// Collide reports whether any hitbox of a overlaps any hitbox of b.
// An entity without a sprite reference never collides. A sprite reference
// that cannot be resolved is an ErrSpriteUnresolved error.
func (c *Collider) Collide(a, b *Entity) (bool, error) {
	if a.Ref.SpriteID < 0 || b.Ref.SpriteID < 0 {
		return false, nil
	}
	sa, err := c.shape(a.Ref.SpriteID)
	if err != nil {
		return false, err
	}
	sb, err := c.shape(b.Ref.SpriteID)
	if err != nil {
		return false, err
	}

	ca := sa.circles(a.Position)
	cb := sb.circles(b.Position)
	for _, x := range ca {
		for _, y := range cb {
			if x.Intersects(y) {
				return true, nil
			}
		}
	}
	return false, nil
}
