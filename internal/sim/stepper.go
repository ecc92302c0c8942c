// Package sim runs a stage one frame at a time: it builds entities from a
// stage definition, advances them through their scripts, resolves
// collisions and keeps a snapshot cache for fast-forward scrubbing.
package sim

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stagesim/internal/content"
	"github.com/vovakirdan/stagesim/internal/core"
	"github.com/vovakirdan/stagesim/internal/rng"
	"github.com/vovakirdan/stagesim/internal/script"
)

// Precondition errors. All are returned wrapped.
var (
	ErrNotReset         = errors.New("sim: stepper has not been reset")
	ErrOutOfRange       = errors.New("sim: frame out of range")
	ErrSpriteUnresolved = errors.New("sim: sprite unresolved")
	ErrUnknownStage     = errors.New("sim: unknown stage")
	ErrNoBossForm       = errors.New("sim: no such boss form")
	ErrStageMismatch    = errors.New("sim: state belongs to another stage")
	ErrSeedMismatch     = errors.New("sim: state was captured with another seed")
)

// DefaultCacheInterval is the snapshot spacing used when Options leaves it unset.
const DefaultCacheInterval = 30

// Options configures a Stepper.
type Options struct {
	CacheInterval int   // Frames between snapshots
	Seed          int64 // Seed of the recording RNG
	// StrictScripts aborts the frame on the first script fault instead of
	// logging it and dropping the callback's effect.
	StrictScripts bool
	Logger        *log.Logger
}

// FrameContext is the per-frame input.
type FrameContext struct {
	PlayerInvincible bool
	Keys             core.Keys
}

// UpdateResult is the outcome of a step.
type UpdateResult struct {
	PlayerAlive    bool
	Entities       []Entity // Deep copy
	StageAge       int
	IsLastUpdate   bool
	OffsetStageAge int
	ScriptFaults   int
}

// Stepper is the frame stepper. It is single-threaded and not reentrant;
// independent steppers may run in separate goroutines.
type Stepper struct {
	resolver content.Resolver
	scripts  script.Runtime
	collider *Collider
	rng      *rng.Recorder
	cache    *Cache
	opts     Options
	log      *log.Logger

	ready bool
	stage *content.Stage

	mode          Mode
	bossFormIndex int
	stageAge      int
	entities      []Entity
	player        int

	// end is the exclusive stage age bound of the mode, -1 if unbounded.
	end       int
	formSpawn int

	// baseline is the frame 0 state. stale marks it as built from content
	// or a random stream that has since changed.
	baseline GameState
	stale    bool
	faults   int
}

// NewStepper creates a stepper over the given content and script runtime.
func NewStepper(resolver content.Resolver, meta content.MetadataSource, scripts script.Runtime, opts Options) *Stepper {
	if opts.CacheInterval < 1 {
		opts.CacheInterval = DefaultCacheInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if scripts == nil {
		scripts = script.NewRegistry()
	}
	return &Stepper{
		resolver: resolver,
		scripts:  scripts,
		collider: NewCollider(resolver, meta),
		rng:      rng.New(opts.Seed),
		cache:    NewCache(),
		opts:     opts,
		log:      logger,
		player:   -1,
		end:      -1,
	}
}

// Reset rebuilds simulation state for a stage. Snapshots for the same stage
// are kept; switching stages clears the cache. A failed Reset leaves the
// stepper unusable until the next successful one.
func (s *Stepper) Reset(stageID int, mode Mode, bossFormIndex int) error {
	s.ready = false
	stage, ok := content.Lookup[*content.Stage](s.resolver, stageID)
	if !ok {
		return fmt.Errorf("sim: reset: %w: %d", ErrUnknownStage, stageID)
	}
	if s.stage != nil && s.stage.ID != stage.ID {
		s.InvalidateCache()
	}

	s.mode = mode
	s.bossFormIndex = bossFormIndex
	s.faults = 0
	return s.build(stage)
}

// build constructs the frame 0 state of stage for the current mode and form,
// runs init hooks and records the result as the baseline.
func (s *Stepper) build(stage *content.Stage) error {
	s.ready = false
	s.stage = stage
	s.stageAge = 0
	s.entities = nil
	s.player = -1
	s.rng.Reset()

	if s.mode != ModePreviewBoss {
		s.buildPlayer()
		s.buildEnemies()
	}
	if s.mode != ModePreviewEnemies {
		if err := s.buildBoss(); err != nil {
			return err
		}
	}
	s.configureBounds()

	for i := range s.entities {
		if err := s.runInit(i, core.Keys{}); err != nil {
			return err
		}
	}

	s.ready = true
	s.stale = false
	s.baseline = s.state()
	return nil
}

// rebuild replaces a stale baseline by building the stage again from the
// current content.
func (s *Stepper) rebuild() error {
	stage, ok := content.Lookup[*content.Stage](s.resolver, s.stage.ID)
	if !ok {
		s.ready = false
		return fmt.Errorf("sim: rebuild: %w: %d", ErrUnknownStage, s.stage.ID)
	}
	s.log.Debug("rebuilding baseline", "stage", stage.ID, "mode", s.mode, "form", s.bossFormIndex)
	return s.build(stage)
}

func (s *Stepper) buildPlayer() {
	def, ok := content.Lookup[*content.Player](s.resolver, s.stage.PlayerID)
	if !ok {
		return
	}
	s.player = len(s.entities)
	s.entities = append(s.entities, Entity{
		Type:          EntityPlayer,
		Ref:           Ref{ObjectID: def.ID, SpriteID: def.SpriteID, BulletID: def.BulletID, ScriptID: def.ScriptID},
		Lifetime:      -1,
		SpawnPosition: s.stage.PlayerSpawn,
		Position:      s.stage.PlayerSpawn,
		HP:            def.HP,
	})
}

func (s *Stepper) buildEnemies() {
	for _, spawn := range s.stage.Enemies {
		def, ok := content.Lookup[*content.Enemy](s.resolver, spawn.EnemyID)
		if !ok {
			continue
		}
		for i, frame := range spawn.Spawns() {
			s.entities = append(s.entities, Entity{
				Type:          EntityEnemy,
				Index:         i,
				Ref:           Ref{ObjectID: def.ID, SpriteID: def.SpriteID, BulletID: def.BulletID, ScriptID: def.ScriptID},
				SpawnFrame:    frame,
				Lifetime:      -1,
				SpawnPosition: spawn.Position,
				Position:      spawn.Position,
				HP:            def.HP,
			})
		}
	}
}

func (s *Stepper) buildBoss() error {
	def, ok := content.Lookup[*content.Boss](s.resolver, s.stage.BossID)

	if s.mode == ModePreviewBoss {
		if !ok || s.bossFormIndex < 0 || s.bossFormIndex >= len(def.Forms) {
			return fmt.Errorf("sim: reset: %w: %d", ErrNoBossForm, s.bossFormIndex)
		}
		s.addForm(def, s.bossFormIndex, core.BossTransitionFrames)
		return nil
	}

	if !ok {
		return nil
	}
	// Forms chain after the enemy phase. A form without a lifetime ends
	// the chain.
	spawn := s.stage.Length + core.BossTransitionFrames
	for k, form := range def.Forms {
		s.addForm(def, k, spawn)
		if form.Lifetime < 0 {
			break
		}
		spawn += form.Lifetime + core.BossTransitionFrames
	}
	return nil
}

func (s *Stepper) addForm(def *content.Boss, k, spawn int) {
	form := def.Forms[k]
	s.entities = append(s.entities, Entity{
		Type:          EntityBoss,
		Index:         k,
		Ref:           Ref{ObjectID: def.ID, SpriteID: form.SpriteID, BulletID: form.BulletID, ScriptID: form.ScriptID},
		SpawnFrame:    spawn,
		Lifetime:      form.Lifetime,
		SpawnPosition: s.stage.BossSpawn,
		Position:      s.stage.BossSpawn,
		HP:            form.HP,
	})
}

// configureBounds derives the mode's end frame from the built entities.
func (s *Stepper) configureBounds() {
	s.end = -1
	s.formSpawn = 0

	switch s.mode {
	case ModePreviewEnemies:
		if s.stage.Length > 0 {
			s.end = s.stage.Length
		}
	case ModePreviewBoss:
		for i := range s.entities {
			e := &s.entities[i]
			if e.Type != EntityBoss {
				continue
			}
			s.formSpawn = e.SpawnFrame
			if e.Lifetime >= 0 {
				s.end = e.SpawnFrame + e.Lifetime
			}
			break
		}
	}
}

// progress reports IsLastUpdate and OffsetStageAge for the current age.
// Full mode defines neither and reports false and the raw age.
func (s *Stepper) progress() (bool, int) {
	last := s.end >= 0 && s.stageAge == s.end-1
	switch s.mode {
	case ModePreviewEnemies:
		return last, s.stageAge
	case ModePreviewBoss:
		return last, s.stageAge - s.formSpawn
	default:
		return false, s.stageAge
	}
}

// AdvanceFrame runs one frame.
func (s *Stepper) AdvanceFrame(fc FrameContext) (UpdateResult, error) {
	before := s.faults
	alive, err := s.step(fc)
	if err != nil {
		return UpdateResult{}, err
	}
	return s.result(alive, s.faults-before), nil
}

func (s *Stepper) step(fc FrameContext) (bool, error) {
	if !s.ready {
		return false, fmt.Errorf("sim: advance: %w", ErrNotReset)
	}
	if s.end >= 0 && s.stageAge+1 >= s.end {
		return false, fmt.Errorf("sim: advance to %d (%s mode ends at %d): %w", s.stageAge+1, s.mode, s.end, ErrOutOfRange)
	}

	// The slice may grow while iterating; appended bullets update this frame too.
	for i := 0; i < len(s.entities); i++ {
		if err := s.updateEntity(i, fc.Keys); err != nil {
			return false, err
		}
	}

	playerAlive := true
	if !fc.PlayerInvincible {
		hit, err := s.playerHit()
		if err != nil {
			return false, err
		}
		playerAlive = !hit
	}

	if err := s.applyDamage(); err != nil {
		return false, err
	}

	s.stageAge++
	return playerAlive, nil
}

func (s *Stepper) updateEntity(i int, keys core.Keys) error {
	e := &s.entities[i]
	if e.SpawnFrame == s.stageAge && e.HP != DeadHP {
		e.Alive = true
		e.Age = 0
	}
	if !e.Live(s.stageAge) {
		return nil
	}

	if e.Type == EntityPlayer {
		s.movePlayer(e, keys)
	}

	h, _ := s.scripts.Resolve(e.Ref.ScriptID)
	res, err := script.CallUpdate(e.Ref.ScriptID, h, s.context(e, keys))
	if err != nil {
		if err := s.fault(err); err != nil {
			return err
		}
		res = script.UpdateResult{}
	}

	if res.Position != nil {
		e.Position = *res.Position
	}
	if res.Store != nil {
		e.Store = res.Store
	}
	if res.Alive != nil {
		e.Alive = *res.Alive
	}
	e.Age++
	if e.Lifetime >= 0 && e.Age >= e.Lifetime {
		e.Alive = false
	}

	// e is invalid once fire appends.
	return s.fire(i, res.Fire, res.FireStores, keys)
}

func (s *Stepper) movePlayer(e *Entity, keys core.Keys) {
	def, ok := content.Lookup[*content.Player](s.resolver, e.Ref.ObjectID)
	if !ok {
		return
	}

	var dir core.Vec2
	if keys.Has(core.ActionLeft) {
		dir.X--
	}
	if keys.Has(core.ActionRight) {
		dir.X++
	}
	if keys.Has(core.ActionUp) {
		dir.Y--
	}
	if keys.Has(core.ActionDown) {
		dir.Y++
	}
	if dir.X == 0 && dir.Y == 0 {
		return
	}
	if dir.X != 0 && dir.Y != 0 {
		dir = dir.Scale(1 / math.Sqrt2)
	}

	speed := def.MoveSpeed
	if keys.Has(core.ActionFocus) {
		speed = def.FocusSpeed
	}
	pos := e.Position.Add(dir.Scale(speed * core.FrameSeconds))

	size := s.stage.Size
	if size.W > 0 {
		pos.X = core.ClampF(pos.X, 0, size.W)
	}
	if size.H > 0 {
		pos.Y = core.ClampF(pos.Y, 0, size.H)
	}
	e.Position = pos
}

// fire spawns count bullets from the shooter at index i.
func (s *Stepper) fire(i, count int, stores []script.Store, keys core.Keys) error {
	if count <= 0 {
		return nil
	}
	shooter := s.entities[i]
	def, ok := content.Lookup[*content.Bullet](s.resolver, shooter.Ref.BulletID)
	if !ok {
		return nil
	}

	typ := EntityEnemyBullet
	if shooter.Type == EntityPlayer || shooter.Type == EntityPlayerBullet {
		typ = EntityPlayerBullet
	}

	for n := 0; n < count; n++ {
		s.entities = append(s.entities, Entity{
			Type:          typ,
			Index:         s.entities[i].BulletsFired,
			Ref:           Ref{ObjectID: def.ID, SpriteID: def.SpriteID, BulletID: content.NoID, ScriptID: def.ScriptID},
			SpawnFrame:    s.stageAge,
			Lifetime:      -1,
			SpawnPosition: shooter.Position,
			Position:      shooter.Position,
			Store:         script.FireStore(stores, n).Clone(),
			Alive:         true,
		})
		s.entities[i].BulletsFired++

		if err := s.runInit(len(s.entities)-1, keys); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stepper) runInit(i int, keys core.Keys) error {
	e := &s.entities[i]
	h, _ := s.scripts.Resolve(e.Ref.ScriptID)
	res, err := script.CallInit(e.Ref.ScriptID, h, s.context(e, keys))
	if err != nil {
		return s.fault(err)
	}
	if res.Position != nil {
		e.Position = *res.Position
	}
	if res.Store != nil {
		e.Store = res.Store
	}
	return nil
}

func (s *Stepper) playerHit() (bool, error) {
	if s.player < 0 || !s.entities[s.player].Live(s.stageAge) {
		return false, nil
	}
	p := &s.entities[s.player]
	for i := range s.entities {
		b := &s.entities[i]
		if b.Type != EntityEnemyBullet || !b.Live(s.stageAge) {
			continue
		}
		hit, err := s.collider.Collide(p, b)
		if err != nil {
			return false, err
		}
		if hit {
			return true, nil
		}
	}
	return false, nil
}

// playerDamage returns the damage of the player's bullet definition.
func (s *Stepper) playerDamage() (int, bool) {
	if s.player < 0 {
		return 0, false
	}
	def, ok := content.Lookup[*content.Bullet](s.resolver, s.entities[s.player].Ref.BulletID)
	if !ok {
		return 0, false
	}
	return def.Damage, true
}

func (s *Stepper) applyDamage() error {
	damage, ok := s.playerDamage()
	if !ok {
		return nil
	}

	for i := 0; i < len(s.entities); i++ {
		if s.entities[i].Type != EntityPlayerBullet || !s.entities[i].Live(s.stageAge) {
			continue
		}
		for j := 0; j < len(s.entities); j++ {
			t := &s.entities[j]
			if (t.Type != EntityEnemy && t.Type != EntityBoss) || !t.Live(s.stageAge) {
				continue
			}
			hit, err := s.collider.Collide(&s.entities[i], t)
			if err != nil {
				return err
			}
			if !hit {
				continue
			}
			t.HP -= damage
			if t.HP <= 0 {
				if err := s.kill(j); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Stepper) kill(i int) error {
	e := &s.entities[i]
	e.HP = DeadHP
	e.Alive = false

	h, _ := s.scripts.Resolve(e.Ref.ScriptID)
	res, err := script.CallDie(e.Ref.ScriptID, h, s.context(e, core.Keys{}))
	if err != nil {
		return s.fault(err)
	}
	return s.fire(i, res.Fire, res.FireStores, core.Keys{})
}

func (s *Stepper) context(e *Entity, keys core.Keys) script.Context {
	return script.Context{
		Entity: script.EntityState{
			Age:           e.Age,
			Index:         e.Index,
			Position:      e.Position,
			SpawnPosition: e.SpawnPosition,
			Store:         e.Store,
		},
		Stage:  script.StageState{Age: s.stageAge, Size: s.stage.Size},
		Keys:   keys,
		Random: s.rng,
	}
}

// fault records a script failure. In strict mode the error is returned.
func (s *Stepper) fault(err error) error {
	if s.opts.StrictScripts {
		return fmt.Errorf("sim: frame %d: %w", s.stageAge, err)
	}
	s.faults++
	s.log.Warn("script fault", "frame", s.stageAge, "err", err)
	return nil
}

// Faults returns the number of script faults since the last Reset.
func (s *Stepper) Faults() int {
	return s.faults
}

func (s *Stepper) result(playerAlive bool, faults int) UpdateResult {
	last, offset := s.progress()
	return UpdateResult{
		PlayerAlive:    playerAlive,
		Entities:       cloneEntities(s.entities),
		StageAge:       s.stageAge,
		IsLastUpdate:   last,
		OffsetStageAge: offset,
		ScriptFaults:   faults,
	}
}

// StageAge returns the current stage age.
func (s *Stepper) StageAge() int {
	return s.stageAge
}

// End returns the exclusive stage age bound of the current mode, or -1 when
// the mode has no end.
func (s *Stepper) End() int {
	return s.end
}

// Mode returns the mode of the last Reset.
func (s *Stepper) Mode() Mode {
	return s.mode
}
