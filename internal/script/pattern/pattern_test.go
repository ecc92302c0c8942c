package pattern

import (
	"errors"
	"math"
	"testing"

	"github.com/vovakirdan/stagesim/internal/content"
	"github.com/vovakirdan/stagesim/internal/core"
	"github.com/vovakirdan/stagesim/internal/rng"
	"github.com/vovakirdan/stagesim/internal/script"
)

func ctxAt(age int, pos core.Vec2, store script.Store) script.Context {
	return script.Context{
		Entity: script.EntityState{Age: age, Position: pos, SpawnPosition: pos, Store: store},
		Random: rng.New(1),
	}
}

func mustCompile(t *testing.T, def *content.Script) *script.Handle {
	t.Helper()
	h, err := Compile(def, DefaultLimits())
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	return h
}

func TestMoveAndKillAfter(t *testing.T) {
	h := mustCompile(t, &content.Script{
		ID: 1,
		Update: []content.Op{
			{Op: content.OpMove, Velocity: core.V(1, 2)},
			{Op: content.OpKillAfter, Frames: 10},
		},
	})

	res, err := h.Update(ctxAt(3, core.V(10, 10), nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.Position == nil || *res.Position != core.V(11, 12) {
		t.Errorf("Position = %v, expected (11, 12)", res.Position)
	}
	if res.Alive != nil {
		t.Error("alive should be untouched before kill_after frame")
	}
	if res.Store != nil {
		t.Error("store should be absent when no op touched it")
	}

	res, _ = h.Update(ctxAt(10, core.V(0, 0), nil))
	if res.Alive == nil || *res.Alive {
		t.Error("kill_after should set alive=false at age >= frames")
	}
}

func TestMoveStore(t *testing.T) {
	h := mustCompile(t, &content.Script{
		ID:     1,
		Update: []content.Op{{Op: content.OpMoveStore}},
	})
	res, err := h.Update(ctxAt(0, core.V(5, 5), script.Store{"vx": 2.0, "vy": -1}))
	if err != nil {
		t.Fatal(err)
	}
	if *res.Position != core.V(7, 4) {
		t.Errorf("Position = %v, expected (7, 4)", *res.Position)
	}
}

func TestFireRingEvery(t *testing.T) {
	h := mustCompile(t, &content.Script{
		ID: 1,
		Update: []content.Op{
			{Op: content.OpFireRing, Every: 30, Count: 4, Speed: 2},
		},
	})

	res, _ := h.Update(ctxAt(0, core.V(0, 0), nil))
	if res.Fire != 4 || len(res.FireStores) != 4 {
		t.Fatalf("age 0: Fire=%d stores=%d, expected 4/4", res.Fire, len(res.FireStores))
	}
	// First bullet heads along +X at speed 2
	if vx := Number(res.FireStores[0]["vx"]); math.Abs(vx-2) > 1e-9 {
		t.Errorf("first bullet vx = %v, expected 2", vx)
	}
	// Second bullet is 90 degrees around
	if vy := Number(res.FireStores[1]["vy"]); math.Abs(vy-2) > 1e-9 {
		t.Errorf("second bullet vy = %v, expected 2", vy)
	}

	res, _ = h.Update(ctxAt(15, core.V(0, 0), nil))
	if res.Fire != 0 {
		t.Errorf("age 15: Fire=%d, expected 0", res.Fire)
	}
}

func TestFireRingSpread(t *testing.T) {
	h := mustCompile(t, &content.Script{
		ID:  1,
		Die: []content.Op{{Op: content.OpFireRing, Count: 3, Speed: 1, Angle: 90, Spread: 90}},
	})
	res, err := h.Die(ctxAt(7, core.V(0, 0), nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.Fire != 3 {
		t.Fatalf("Fire = %d, expected 3", res.Fire)
	}
	// Middle bullet points straight down (+Y)
	if vy := Number(res.FireStores[1]["vy"]); math.Abs(vy-1) > 1e-9 {
		t.Errorf("middle bullet vy = %v, expected 1", vy)
	}
}

func TestJitterIsReproducible(t *testing.T) {
	h := mustCompile(t, &content.Script{
		ID:     1,
		Update: []content.Op{{Op: content.OpFireRing, Count: 1, Speed: 1, Jitter: 45}},
	})

	r := rng.New(9)
	ctx := ctxAt(0, core.V(0, 0), nil)
	ctx.Random = r
	a, _ := h.Update(ctx)

	r.Reset()
	b, _ := h.Update(ctx)

	if Number(a.FireStores[0]["vx"]) != Number(b.FireStores[0]["vx"]) {
		t.Error("replayed RNG should reproduce the same volley")
	}
}

func TestWhenGatesOnKeys(t *testing.T) {
	h := mustCompile(t, &content.Script{
		ID:     1,
		Update: []content.Op{{Op: content.OpFireRing, When: core.ActionShoot, Count: 1}},
	})

	ctx := ctxAt(0, core.V(0, 0), nil)
	res, _ := h.Update(ctx)
	if res.Fire != 0 {
		t.Error("op gated on shoot should not run without the key")
	}

	ctx.Keys = core.Keys{core.ActionShoot: true}
	res, _ = h.Update(ctx)
	if res.Fire != 1 {
		t.Error("op gated on shoot should run with the key held")
	}
}

func TestSetAndInit(t *testing.T) {
	h := mustCompile(t, &content.Script{
		ID: 1,
		Init: content.ScriptInit{
			Offset: core.V(0, -10),
			Store:  map[string]any{"vx": 1.0, "phase": "intro"},
		},
		Update: []content.Op{{Op: content.OpSet, Key: "phase", Value: "attack"}},
	})

	initRes, err := h.Init(ctxAt(0, core.V(50, 50), script.Store{"vx": 3.0}))
	if err != nil {
		t.Fatal(err)
	}
	if *initRes.Position != core.V(50, 40) {
		t.Errorf("init position = %v, expected (50, 40)", *initRes.Position)
	}
	if initRes.Store["vx"] != 3.0 {
		t.Error("spawner store should win over authored defaults")
	}
	if initRes.Store["phase"] != "intro" {
		t.Error("authored defaults should fill missing keys")
	}

	in := script.Store{"phase": "intro"}
	res, _ := h.Update(ctxAt(1, core.V(0, 0), in))
	if res.Store["phase"] != "attack" {
		t.Errorf("set op store = %v", res.Store)
	}
	if in["phase"] != "intro" {
		t.Error("update should not mutate the context store")
	}
}

func TestStepBudget(t *testing.T) {
	ops := make([]content.Op, 5)
	for i := range ops {
		ops[i] = content.Op{Op: content.OpMove, Velocity: core.V(1, 0)}
	}
	h, err := Compile(&content.Script{ID: 1, Update: ops}, Limits{MaxSteps: 4})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Update(ctxAt(0, core.V(0, 0), nil)); !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("expected ErrBudgetExceeded, got %v", err)
	}
}

func TestFireBudget(t *testing.T) {
	h, err := Compile(&content.Script{
		ID:     1,
		Update: []content.Op{{Op: content.OpFireRing, Count: 10}},
	}, Limits{MaxFire: 8})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Update(ctxAt(0, core.V(0, 0), nil)); !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("expected ErrBudgetExceeded, got %v", err)
	}
}

func TestCompileRejectsBadOps(t *testing.T) {
	tests := []struct {
		name string
		def  content.Script
	}{
		{"unknown op", content.Script{Update: []content.Op{{Op: "teleport"}}}},
		{"zero ring", content.Script{Update: []content.Op{{Op: content.OpFireRing}}}},
		{"bad wave", content.Script{Update: []content.Op{{Op: content.OpWave, Axis: "z", Period: 10}}}},
		{"flat wave", content.Script{Update: []content.Op{{Op: content.OpWave, Axis: "x"}}}},
		{"move in die", content.Script{Die: []content.Op{{Op: content.OpMove}}}},
		{"set without key", content.Script{Update: []content.Op{{Op: content.OpSet}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Compile(&tc.def, DefaultLimits()); err == nil {
				t.Error("expected Compile to fail")
			}
		})
	}
}

func TestWaveReturnsToPath(t *testing.T) {
	h := mustCompile(t, &content.Script{
		ID:     1,
		Update: []content.Op{{Op: content.OpWave, Axis: "x", Amplitude: 10, Period: 20}},
	})

	pos := core.V(100, 0)
	for age := 0; age < 20; age++ {
		res, err := h.Update(ctxAt(age, pos, nil))
		if err != nil {
			t.Fatal(err)
		}
		pos = *res.Position
	}
	if math.Abs(pos.X-100) > 1e-9 {
		t.Errorf("after a full period X = %v, expected 100", pos.X)
	}
}

func TestRegisterAll(t *testing.T) {
	idx, err := content.NewIndex(&content.Project{
		Scripts: []content.Script{
			{ID: 4, Update: []content.Op{{Op: content.OpMove}}},
			{ID: 9},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	reg := script.NewRegistry()
	if err := RegisterAll(reg, idx, DefaultLimits()); err != nil {
		t.Fatalf("RegisterAll() failed: %v", err)
	}
	h, ok := reg.Resolve(4)
	if !ok || h.Update == nil {
		t.Error("script 4 should have an update hook")
	}
	h, ok = reg.Resolve(9)
	if !ok || h.Update != nil || h.Die != nil {
		t.Error("script 9 should only have init")
	}
}
