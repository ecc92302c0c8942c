package sim

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vovakirdan/stagesim/internal/content"
	"github.com/vovakirdan/stagesim/internal/core"
	"github.com/vovakirdan/stagesim/internal/script"
	"github.com/vovakirdan/stagesim/internal/script/pattern"
)

const (
	bulletPlayerShot = 11
	bulletEnemyShot  = 12
	enemySpinner     = 33
	scriptSpinner    = 50
	scriptDrift      = 51
	scriptGunner     = 52
)

// busyProject has a player and an enemy both firing pattern-driven bullets,
// with RNG jitter on the enemy volleys.
func busyProject() *content.Project {
	p := baseProject()
	p.Bullets = append(p.Bullets,
		content.Bullet{ID: bulletPlayerShot, SpriteID: spriteUnit, ScriptID: scriptDrift, Damage: 1},
		content.Bullet{ID: bulletEnemyShot, SpriteID: spriteUnit, ScriptID: scriptDrift},
	)
	p.Players[0].BulletID = bulletPlayerShot
	p.Players[0].ScriptID = scriptGunner
	p.Enemies = append(p.Enemies, content.Enemy{
		ID: enemySpinner, SpriteID: spriteUnit, BulletID: bulletEnemyShot, ScriptID: scriptSpinner, HP: 1000,
	})
	p.Stages[0].Enemies = []content.EnemySpawn{
		{EnemyID: enemySpinner, Frame: 3, Count: 2, Interval: 20, Position: core.V(200, 150)},
	}
	p.Scripts = []content.Script{
		{ID: scriptSpinner, Update: []content.Op{
			{Op: content.OpMove, Velocity: core.V(0.5, 0)},
			{Op: content.OpFireRing, Every: 7, Count: 3, Speed: 2, Jitter: 30},
		}},
		{ID: scriptDrift, Update: []content.Op{
			{Op: content.OpMoveStore},
			{Op: content.OpKillAfter, Frames: 120},
		}},
		{ID: scriptGunner, Update: []content.Op{
			{Op: content.OpFireRing, Every: 5, Count: 1, Speed: 3, Angle: 270},
		}},
	}
	return p
}

func busyStepper(t *testing.T, opts Options) *Stepper {
	t.Helper()
	p := busyProject()
	idx, err := content.NewIndex(p)
	if err != nil {
		t.Fatal(err)
	}
	reg := script.NewRegistry()
	if err := pattern.RegisterAll(reg, idx, pattern.DefaultLimits()); err != nil {
		t.Fatal(err)
	}
	s := NewStepper(idx, idx, reg, opts)
	if err := s.Reset(stageMain, ModeFull, 0); err != nil {
		t.Fatal(err)
	}
	return s
}

func sequential(t *testing.T, s *Stepper, frames int) UpdateResult {
	t.Helper()
	var res UpdateResult
	for i := 0; i < frames; i++ {
		var err error
		res, err = s.AdvanceFrame(FrameContext{PlayerInvincible: true})
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	return res
}

func mustCapture(t *testing.T, s *Stepper) GameState {
	t.Helper()
	st, err := s.Capture()
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestFastForwardMatchesSequential(t *testing.T) {
	for _, frame := range []int{1, 29, 30, 75, 140} {
		want := sequential(t, busyStepper(t, Options{Seed: 7}), frame)

		ff := busyStepper(t, Options{Seed: 7})
		got, err := ff.FastForwardTo(frame)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("frame %d: fast-forward result differs from sequential stepping", frame)
		}
	}
}

func TestFastForwardIsIdempotent(t *testing.T) {
	s := busyStepper(t, Options{Seed: 3})

	first, err := s.FastForwardTo(75)
	if err != nil {
		t.Fatal(err)
	}
	hash := mustCapture(t, s).Hash()

	second, err := s.FastForwardTo(75)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated fast-forward returned different results")
	}
	if mustCapture(t, s).Hash() != hash {
		t.Error("repeated fast-forward produced a different state")
	}
}

func TestFastForwardBackwardsUsesCache(t *testing.T) {
	s := busyStepper(t, Options{Seed: 5, CacheInterval: 10})

	if _, err := s.FastForwardTo(95); err != nil {
		t.Fatal(err)
	}
	if n := s.CachedSnapshots(); n != 9 {
		t.Errorf("CachedSnapshots = %d, expected 9", n)
	}

	got, err := s.FastForwardTo(42)
	if err != nil {
		t.Fatal(err)
	}
	want := sequential(t, busyStepper(t, Options{Seed: 5}), 42)
	if !reflect.DeepEqual(got, want) {
		t.Error("fast-forward from a cached snapshot differs from sequential stepping")
	}

	s.InvalidateCache()
	if n := s.CachedSnapshots(); n != 0 {
		t.Errorf("CachedSnapshots after invalidate = %d", n)
	}
}

func TestFastForwardAfterLivePlay(t *testing.T) {
	s := busyStepper(t, Options{Seed: 11})
	for i := 0; i < 40; i++ {
		keys := core.Keys{core.ActionLeft: i%2 == 0, core.ActionUp: true}
		if _, err := s.AdvanceFrame(FrameContext{Keys: keys}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.FastForwardTo(60)
	if err != nil {
		t.Fatal(err)
	}
	want := sequential(t, busyStepper(t, Options{Seed: 11}), 60)
	if !reflect.DeepEqual(got, want) {
		t.Error("fast-forward should not depend on earlier live input")
	}
}

func TestFastForwardZeroRestoresBaseline(t *testing.T) {
	s := busyStepper(t, Options{})
	baseline := mustCapture(t, s).Hash()

	sequential(t, s, 12)
	if mustCapture(t, s).Hash() == baseline {
		t.Fatal("stepping should change the state hash")
	}

	res, err := s.FastForwardTo(0)
	if err != nil {
		t.Fatal(err)
	}
	if res.StageAge != 0 {
		t.Errorf("StageAge = %d, expected 0", res.StageAge)
	}
	if mustCapture(t, s).Hash() != baseline {
		t.Error("FastForwardTo(0) should restore the post-reset state")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	a := busyStepper(t, Options{Seed: 9})
	sequential(t, a, 37)
	st := mustCapture(t, a)

	b := busyStepper(t, Options{Seed: 9})
	if err := b.Restore(st); err != nil {
		t.Fatal(err)
	}

	// Mutating the captured value must not reach either stepper
	st.Entities[0].Position = core.V(-500, -500)
	st.Entities[len(st.Entities)-1].Store = script.Store{"vx": 99.0}

	for i := 0; i < 25; i++ {
		ra, err := a.AdvanceFrame(FrameContext{})
		if err != nil {
			t.Fatal(err)
		}
		rb, err := b.AdvanceFrame(FrameContext{})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(ra, rb) {
			t.Fatalf("frame %d after restore: results differ", i)
		}
		// Results are copies
		ra.Entities[0].Position = core.V(1, 1)
	}
}

func TestRestoreRejectsOtherStage(t *testing.T) {
	p := baseProject()
	p.Stages = append(p.Stages, content.Stage{ID: stageMain + 1, Length: 10})
	a := newStepper(t, p, nil, Options{})
	b := newStepper(t, p, nil, Options{})
	if err := a.Reset(stageMain, ModeFull, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.Reset(stageMain+1, ModeFull, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.Restore(mustCapture(t, a)); !errors.Is(err, ErrStageMismatch) {
		t.Errorf("expected ErrStageMismatch, got %v", err)
	}
}

func TestCacheKeysAreIndependent(t *testing.T) {
	c := NewCache()
	st := GameState{StageAge: 30, Entities: []Entity{{Store: script.Store{"k": []any{1.0}}}}}

	c.Store(Key{Frame: 30, Mode: ModeFull}, st)
	st.Entities[0].Store["k"].([]any)[0] = 2.0

	got, ok := c.Load(Key{Frame: 30, Mode: ModeFull})
	if !ok {
		t.Fatal("expected a snapshot")
	}
	if got.Entities[0].Store["k"].([]any)[0] != 1.0 {
		t.Error("cache should hold a deep copy")
	}
	if c.Has(Key{Frame: 30, Mode: ModePreviewBoss}) || c.Has(Key{Frame: 30, Mode: ModeFull, BossFormIndex: 1}) {
		t.Error("keys with a different mode or form must not match")
	}

	if k, ok := c.Nearest(59, 30, ModeFull, 0); !ok || k.Frame != 30 {
		t.Errorf("Nearest(59) = %v, %v", k, ok)
	}
	if _, ok := c.Nearest(29, 30, ModeFull, 0); ok {
		t.Error("Nearest below the first boundary should miss")
	}
}

func TestHashDetectsChanges(t *testing.T) {
	a := GameState{Entities: []Entity{{Position: core.V(1, 2), Store: script.Store{"a": 1.0, "b": "x"}}}}
	b := a.Clone()
	if a.Hash() != b.Hash() {
		t.Fatal("clone should hash equal")
	}
	b.Entities[0].Store["b"] = "y"
	if a.Hash() == b.Hash() {
		t.Error("store change should change the hash")
	}
	c := a.Clone()
	c.Entities[0].Position.X = 1.5
	if a.Hash() == c.Hash() {
		t.Error("position change should change the hash")
	}
}

func TestDemoProjectDeterminism(t *testing.T) {
	idx, err := content.LoadProject(filepath.Join("..", "..", "examples", "demo.yaml"))
	if err != nil {
		t.Fatalf("LoadProject() failed: %v", err)
	}
	reg := script.NewRegistry()
	if err := pattern.RegisterAll(reg, idx, pattern.DefaultLimits()); err != nil {
		t.Fatal(err)
	}
	fresh := func() *Stepper {
		s := NewStepper(idx, idx, reg, Options{Seed: 1})
		if err := s.Reset(100, ModeFull, 0); err != nil {
			t.Fatal(err)
		}
		return s
	}

	seq := fresh()
	want := sequential(t, seq, 1000)
	if seq.Faults() != 0 {
		t.Errorf("demo scripts faulted %d times", seq.Faults())
	}

	got, err := fresh().FastForwardTo(1000)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Error("demo stage: fast-forward differs from sequential stepping")
	}
	if n := len(ofType(got.Entities, EntityEnemyBullet)); n == 0 {
		t.Error("demo enemies should have fired by frame 1000")
	}
}

func TestInvalidateCacheRebuildsBaseline(t *testing.T) {
	p := baseProject()
	idx, err := content.NewIndex(p)
	if err != nil {
		t.Fatal(err)
	}
	s := NewStepper(idx, idx, nil, Options{CacheInterval: 10})
	if err := s.Reset(stageMain, ModePreviewEnemies, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.FastForwardTo(40); err != nil {
		t.Fatal(err)
	}

	enemy, ok := content.Lookup[*content.Enemy](idx, enemyDummy)
	if !ok {
		t.Fatal("dummy enemy missing")
	}
	enemy.HP = 9
	p.Stages[0].Enemies[0].Position = core.V(120, 80)
	s.InvalidateCache()

	got, err := s.FastForwardTo(40)
	if err != nil {
		t.Fatal(err)
	}

	fresh := NewStepper(idx, idx, nil, Options{CacheInterval: 10})
	if err := fresh.Reset(stageMain, ModePreviewEnemies, 0); err != nil {
		t.Fatal(err)
	}
	want := sequential(t, fresh, 40)
	if !reflect.DeepEqual(got, want) {
		t.Error("fast-forward after an edit differs from a fresh reset")
	}

	enemies := ofType(got.Entities, EntityEnemy)
	if len(enemies) != 1 || enemies[0].HP != 9 || enemies[0].SpawnPosition != core.V(120, 80) {
		t.Errorf("edited enemy not picked up: %+v", enemies)
	}

	base, err := s.FastForwardTo(0)
	if err != nil {
		t.Fatal(err)
	}
	if e := ofType(base.Entities, EntityEnemy); len(e) != 1 || e[0].HP != 9 {
		t.Error("frame 0 should come from the rebuilt baseline")
	}
}

func TestInvalidateCacheAfterStageRemoved(t *testing.T) {
	p := baseProject()
	idx, err := content.NewIndex(p)
	if err != nil {
		t.Fatal(err)
	}
	s := NewStepper(idx, idx, nil, Options{})
	if err := s.Reset(stageMain, ModeFull, 0); err != nil {
		t.Fatal(err)
	}

	q := baseProject()
	q.Stages = nil
	other, err := content.NewIndex(q)
	if err != nil {
		t.Fatal(err)
	}
	s.resolver = other
	s.InvalidateCache()

	if _, err := s.FastForwardTo(10); !errors.Is(err, ErrUnknownStage) {
		t.Errorf("expected ErrUnknownStage, got %v", err)
	}
	if _, err := s.AdvanceFrame(FrameContext{}); !errors.Is(err, ErrNotReset) {
		t.Errorf("expected ErrNotReset after a failed rebuild, got %v", err)
	}
}

func TestReseedRebuildsBaseline(t *testing.T) {
	const scriptRoll = 60
	p := baseProject()
	p.Enemies[0].ScriptID = scriptRoll

	reg := script.NewRegistry()
	reg.Register(scriptRoll, &script.Handle{
		Init: func(ctx script.Context) (script.InitResult, error) {
			return script.InitResult{Store: script.Store{"roll": ctx.Random.Random()}}, nil
		},
	})

	s := newStepper(t, p, reg, Options{Seed: 4})
	if err := s.Reset(stageMain, ModePreviewEnemies, 0); err != nil {
		t.Fatal(err)
	}
	before := ofType(mustCapture(t, s).Entities, EntityEnemy)[0].Store["roll"]

	s.Reseed()
	res, err := s.FastForwardTo(0)
	if err != nil {
		t.Fatal(err)
	}
	after := ofType(res.Entities, EntityEnemy)[0].Store["roll"]
	if after == before {
		t.Error("init draw should come from the new random stream")
	}
	if c := mustCapture(t, s).RNGCursor; c != 1 {
		t.Errorf("RNGCursor = %d, expected 1", c)
	}

	// Replays from the rebuilt baseline agree with themselves
	again, err := s.FastForwardTo(0)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res, again) {
		t.Error("repeated fast-forward after reseed differs")
	}
}

func TestRestoreRejectsOtherSeed(t *testing.T) {
	a := busyStepper(t, Options{Seed: 1})
	b := busyStepper(t, Options{Seed: 2})
	sequential(t, a, 10)
	if err := b.Restore(mustCapture(t, a)); !errors.Is(err, ErrSeedMismatch) {
		t.Errorf("expected ErrSeedMismatch, got %v", err)
	}
}
