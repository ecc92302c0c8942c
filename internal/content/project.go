package content

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vovakirdan/stagesim/internal/core"
)

// Errors reported by the metadata source.
var (
	ErrUnknownSprite  = errors.New("content: unknown sprite")
	ErrImageNotLoaded = errors.New("content: image not loaded")
)

// Resolver looks up authored objects by their project-wide ID.
type Resolver interface {
	ByID(id int) (Object, bool)
	ByType(t Type) []Object
}

// MetadataSource provides the sprite data collision needs.
type MetadataSource interface {
	Dimensions(imagePath string) (core.Size, error)
	Hitboxes(spriteID int) ([]Hitbox, error)
}

// Lookup resolves id and asserts the concrete definition type.
// Negative IDs never resolve.
func Lookup[T Object](r Resolver, id int) (T, bool) {
	var zero T
	if r == nil || id < 0 {
		return zero, false
	}
	obj, ok := r.ByID(id)
	if !ok {
		return zero, false
	}
	t, ok := obj.(T)
	return t, ok
}

// Project is the complete set of authored content for stage simulation.
type Project struct {
	Name    string   `yaml:"name" json:"name,omitempty"`
	Images  []Image  `yaml:"images" json:"images,omitempty"`
	Sprites []Sprite `yaml:"sprites" json:"sprites,omitempty"`
	Bullets []Bullet `yaml:"bullets" json:"bullets,omitempty"`
	Players []Player `yaml:"players" json:"players,omitempty"`
	Enemies []Enemy  `yaml:"enemies" json:"enemies,omitempty"`
	Bosses  []Boss   `yaml:"bosses" json:"bosses,omitempty"`
	Stages  []Stage  `yaml:"stages" json:"stages,omitempty"`
	Scripts []Script `yaml:"scripts" json:"scripts,omitempty"`
}

// Index is a read-only lookup view over a Project.
// It implements both Resolver and MetadataSource.
type Index struct {
	project *Project
	objects map[int]Object
	byType  map[Type][]Object
	images  map[string]core.Size
}

var (
	_ Resolver       = (*Index)(nil)
	_ MetadataSource = (*Index)(nil)
)

// NewIndex validates the project and builds its lookup tables.
// IDs must be unique across every object kind.
func NewIndex(p *Project) (*Index, error) {
	idx := &Index{
		project: p,
		objects: make(map[int]Object),
		byType:  make(map[Type][]Object),
		images:  make(map[string]core.Size, len(p.Images)),
	}

	for _, img := range p.Images {
		idx.images[img.Path] = img.Size
	}

	add := func(o Object) error {
		if o.ObjectID() < 0 {
			return fmt.Errorf("content: %s has negative id %d", o.ObjectType(), o.ObjectID())
		}
		if prev, exists := idx.objects[o.ObjectID()]; exists {
			return fmt.Errorf("content: duplicate id %d (%s and %s)", o.ObjectID(), prev.ObjectType(), o.ObjectType())
		}
		idx.objects[o.ObjectID()] = o
		idx.byType[o.ObjectType()] = append(idx.byType[o.ObjectType()], o)
		return nil
	}

	for i := range p.Sprites {
		if err := add(&p.Sprites[i]); err != nil {
			return nil, err
		}
	}
	for i := range p.Bullets {
		if err := add(&p.Bullets[i]); err != nil {
			return nil, err
		}
	}
	for i := range p.Players {
		if err := add(&p.Players[i]); err != nil {
			return nil, err
		}
	}
	for i := range p.Enemies {
		if err := add(&p.Enemies[i]); err != nil {
			return nil, err
		}
	}
	for i := range p.Bosses {
		if err := add(&p.Bosses[i]); err != nil {
			return nil, err
		}
	}
	for i := range p.Stages {
		if err := add(&p.Stages[i]); err != nil {
			return nil, err
		}
	}
	for i := range p.Scripts {
		if err := add(&p.Scripts[i]); err != nil {
			return nil, err
		}
	}

	// Sort by ID for deterministic ByType ordering
	for _, list := range idx.byType {
		sort.Slice(list, func(i, j int) bool {
			return list[i].ObjectID() < list[j].ObjectID()
		})
	}

	return idx, nil
}

// Project returns the indexed project.
func (x *Index) Project() *Project {
	return x.project
}

// ByID implements Resolver.
func (x *Index) ByID(id int) (Object, bool) {
	o, ok := x.objects[id]
	return o, ok
}

// ByType implements Resolver. The returned slice is sorted by ID.
func (x *Index) ByType(t Type) []Object {
	list := x.byType[t]
	out := make([]Object, len(list))
	copy(out, list)
	return out
}

// Dimensions implements MetadataSource.
func (x *Index) Dimensions(imagePath string) (core.Size, error) {
	size, ok := x.images[imagePath]
	if !ok || size.W <= 0 || size.H <= 0 {
		return core.Size{}, fmt.Errorf("%w: %q", ErrImageNotLoaded, imagePath)
	}
	return size, nil
}

// Hitboxes implements MetadataSource.
func (x *Index) Hitboxes(spriteID int) ([]Hitbox, error) {
	sprite, ok := Lookup[*Sprite](x, spriteID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSprite, spriteID)
	}
	return sprite.Hitboxes, nil
}
