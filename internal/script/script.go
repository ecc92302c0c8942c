// Package script defines the contract between the stage simulator and
// per-object behavior scripts.
//
// A script resolves to a Handle with up to three optional callbacks. Each
// callback receives a read-only Context and returns a partial result the
// simulator applies; nil fields mean "leave unchanged". Scripts must be pure
// functions of their Context (random draws go through Context.Random) for
// snapshot fast-forward to reproduce the same frames.
package script

import "github.com/vovakirdan/stagesim/internal/core"

// Store is the opaque, script-owned data bag of one entity.
type Store map[string]any

// Clone returns a deep copy of the store. Nested maps and slices are copied;
// other values are copied by assignment.
func (s Store) Clone() Store {
	if s == nil {
		return nil
	}
	out := make(Store, len(s))
	for k, v := range s {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a store value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case Store:
		return t.Clone()
	case map[string]any:
		return map[string]any(Store(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case []float64:
		return append([]float64(nil), t...)
	case []int:
		return append([]int(nil), t...)
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Random is the deterministic random source exposed to scripts.
type Random interface {
	Random() float64
	RandomInt(low, high int) int
}

// EntityState is the entity part of a callback context.
type EntityState struct {
	Age           int
	Index         int
	Position      core.Vec2
	SpawnPosition core.Vec2
	Store         Store
}

// StageState is the stage part of a callback context.
type StageState struct {
	Age  int
	Size core.Size
}

// Context is passed to every callback.
type Context struct {
	Entity EntityState
	Stage  StageState
	Keys   core.Keys
	Random Random
}

// InitResult is returned by Init.
type InitResult struct {
	Position *core.Vec2
	Store    Store
}

// UpdateResult is returned by Update.
type UpdateResult struct {
	Position *core.Vec2
	Store    Store
	// Fire is the number of bullets to spawn. FireStores[i], when present,
	// becomes the initial store of the i-th bullet.
	Fire       int
	FireStores []Store
	Alive      *bool
}

// DieResult is returned by Die.
type DieResult struct {
	Fire       int
	FireStores []Store
}

// Callback signatures.
type (
	InitFunc   func(ctx Context) (InitResult, error)
	UpdateFunc func(ctx Context) (UpdateResult, error)
	DieFunc    func(ctx Context) (DieResult, error)
)

// Handle is a resolved script. Any callback may be nil.
type Handle struct {
	Name   string
	Init   InitFunc
	Update UpdateFunc
	Die    DieFunc
}

// Runtime resolves script identifiers to handles.
type Runtime interface {
	Resolve(id int) (*Handle, bool)
}

// FireStore returns the initial store of the i-th fired bullet, or nil.
func FireStore(stores []Store, i int) Store {
	if i < 0 || i >= len(stores) {
		return nil
	}
	return stores[i]
}

// Pos is a helper for building results.
func Pos(v core.Vec2) *core.Vec2 {
	return &v
}

// Bool is a helper for building results.
func Bool(b bool) *bool {
	return &b
}
