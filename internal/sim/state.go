package sim

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
)

// Mode selects which entity groups Reset constructs.
type Mode int

const (
	ModePreviewEnemies Mode = iota // Player and enemies, no boss
	ModePreviewBoss                // One selected boss form only
	ModeFull                       // Player, enemies, then every boss form
)

// String returns the mode name used in config and on the command line.
func (m Mode) String() string {
	switch m {
	case ModePreviewEnemies:
		return "enemies"
	case ModePreviewBoss:
		return "boss"
	case ModeFull:
		return "full"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "enemies", "preview-enemies", "previewenemies":
		return ModePreviewEnemies, nil
	case "boss", "preview-boss", "previewboss":
		return ModePreviewBoss, nil
	case "full":
		return ModeFull, nil
	default:
		return 0, fmt.Errorf("sim: unknown mode %q", s)
	}
}

// GameState is a full, independent copy of simulation state.
type GameState struct {
	StageID       int
	Entities      []Entity
	StageAge      int
	BossFormIndex int
	Mode          Mode
	PlayerEntity  int // Index into Entities, -1 if there is no player
	RNGSeed       int64
	RNGCursor     int
}

// Clone returns a deep copy sharing nothing with g.
func (g GameState) Clone() GameState {
	g.Entities = cloneEntities(g.Entities)
	return g
}

// Hash returns a hash of the state for determinism checks.
func (g GameState) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte

	putInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v))) //#nosec G115 -- hash computation
		h.Write(buf[:])
	}
	putFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	putBool := func(b bool) {
		if b {
			putInt(1)
		} else {
			putInt(0)
		}
	}

	putInt(g.StageID)
	putInt(g.StageAge)
	putInt(g.BossFormIndex)
	putInt(int(g.Mode))
	putInt(g.PlayerEntity)
	putInt(g.RNGCursor)
	putInt(len(g.Entities))

	for i := range g.Entities {
		e := &g.Entities[i]
		putInt(int(e.Type))
		putInt(e.Index)
		putInt(e.Ref.ObjectID)
		putInt(e.Ref.SpriteID)
		putInt(e.Ref.BulletID)
		putInt(e.Ref.ScriptID)
		putInt(e.SpawnFrame)
		putInt(e.Lifetime)
		putInt(e.Age)
		putFloat(e.SpawnPosition.X)
		putFloat(e.SpawnPosition.Y)
		putFloat(e.Position.X)
		putFloat(e.Position.Y)
		putInt(e.HP)
		putInt(e.BulletsFired)
		putBool(e.Alive)

		keys := make([]string, 0, len(e.Store))
		for k := range e.Store {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			// fmt prints nested maps with sorted keys
			fmt.Fprintf(h, "%s=%v;", k, e.Store[k])
		}
	}

	return h.Sum64()
}

// Key identifies a snapshot.
type Key struct {
	Frame         int
	Mode          Mode
	BossFormIndex int
}

// Cache holds snapshots keyed by frame, mode and boss form.
// Every Store and Load deep-copies, so cached and live state never alias.
type Cache struct {
	snaps map[Key]GameState
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{snaps: make(map[Key]GameState)}
}

// Store saves a copy of state under k.
func (c *Cache) Store(k Key, state GameState) {
	c.snaps[k] = state.Clone()
}

// Load returns a copy of the snapshot under k.
func (c *Cache) Load(k Key) (GameState, bool) {
	snap, ok := c.snaps[k]
	if !ok {
		return GameState{}, false
	}
	return snap.Clone(), true
}

// Has reports whether a snapshot exists under k.
func (c *Cache) Has(k Key) bool {
	_, ok := c.snaps[k]
	return ok
}

// Nearest returns the key of the latest snapshot at an interval boundary at
// or below frame, for the given mode and form. Boundary 0 is never cached.
func (c *Cache) Nearest(frame, interval int, mode Mode, form int) (Key, bool) {
	if interval < 1 {
		return Key{}, false
	}
	for b := frame - frame%interval; b > 0; b -= interval {
		k := Key{Frame: b, Mode: mode, BossFormIndex: form}
		if c.Has(k) {
			return k, true
		}
	}
	return Key{}, false
}

// Clear drops every snapshot.
func (c *Cache) Clear() {
	clear(c.snaps)
}

// Len returns the number of cached snapshots.
func (c *Cache) Len() int {
	return len(c.snaps)
}
