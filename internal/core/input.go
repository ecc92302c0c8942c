package core

import (
	"sort"
	"time"
)

// Simulation timing.
const (
	TickRate      = 60
	FrameDuration = time.Second / TickRate

	// BossTransitionFrames is the gap between the end of one boss form
	// (or the enemy phase) and the spawn of the next form.
	BossTransitionFrames = 60
)

// FrameSeconds is the length of one frame in seconds.
const FrameSeconds = 1.0 / TickRate

// Action names understood by the stepper's built-in player movement.
// Scripts may read any action name present in the key state.
const (
	ActionUp    = "up"
	ActionDown  = "down"
	ActionLeft  = "left"
	ActionRight = "right"
	ActionFocus = "focus" // Slow, precise movement
	ActionShoot = "shoot"
	ActionBomb  = "bomb"
)

// Keys maps action names to whether they are held this frame.
type Keys map[string]bool

// Has returns true if the given action is held.
func (k Keys) Has(action string) bool {
	if k == nil {
		return false
	}
	return k[action]
}

// Clone creates a copy of the key state.
func (k Keys) Clone() Keys {
	if k == nil {
		return Keys{}
	}
	clone := make(Keys, len(k))
	for a, v := range k {
		clone[a] = v
	}
	return clone
}

// Bindings maps an action name to the raw keys that trigger it.
// A raw key may trigger several actions.
type Bindings map[string][]string

// DefaultBindings returns the stock keyboard layout.
func DefaultBindings() Bindings {
	return Bindings{
		ActionUp:    {"up", "w"},
		ActionDown:  {"down", "s"},
		ActionLeft:  {"left", "a"},
		ActionRight: {"right", "d"},
		ActionFocus: {"shift"},
		ActionShoot: {"z", "space"},
		ActionBomb:  {"x"},
	}
}

// Resolve translates raw key state into action state.
// Every bound action appears in the result, pressed or not.
func (b Bindings) Resolve(raw map[string]bool) Keys {
	keys := make(Keys, len(b))
	for action, rawKeys := range b {
		pressed := false
		for _, rk := range rawKeys {
			if raw[rk] {
				pressed = true
				break
			}
		}
		keys[action] = pressed
	}
	return keys
}

// Actions returns the bound action names, sorted.
func (b Bindings) Actions() []string {
	names := make([]string, 0, len(b))
	for a := range b {
		names = append(names, a)
	}
	sort.Strings(names)
	return names
}
