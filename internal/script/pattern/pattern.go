// Package pattern compiles declarative content.Script definitions into
// script handles. Every call runs under a step and fire budget, so a
// runaway definition fails the call instead of stalling the stepper.
package pattern

import (
	"errors"
	"fmt"
	"math"

	"github.com/vovakirdan/stagesim/internal/content"
	"github.com/vovakirdan/stagesim/internal/core"
	"github.com/vovakirdan/stagesim/internal/script"
)

// ErrBudgetExceeded is returned when a call runs more ops or fires more
// bullets than its Limits allow.
var ErrBudgetExceeded = errors.New("pattern: call budget exceeded")

// Limits bounds the work of a single callback invocation.
type Limits struct {
	MaxSteps int // Ops executed per call
	MaxFire  int // Bullets requested per call
}

// DefaultLimits returns the stock per-call budget.
func DefaultLimits() Limits {
	return Limits{MaxSteps: 64, MaxFire: 256}
}

type program struct {
	def    *content.Script
	limits Limits
}

// Compile validates def and returns a handle running it.
func Compile(def *content.Script, limits Limits) (*script.Handle, error) {
	for i, op := range def.Update {
		if err := validate(op, false); err != nil {
			return nil, fmt.Errorf("pattern: script %d update[%d]: %w", def.ID, i, err)
		}
	}
	for i, op := range def.Die {
		if err := validate(op, true); err != nil {
			return nil, fmt.Errorf("pattern: script %d die[%d]: %w", def.ID, i, err)
		}
	}

	p := &program{def: def, limits: limits}
	h := &script.Handle{Name: def.Name, Init: p.init}
	if len(def.Update) > 0 {
		h.Update = p.update
	}
	if len(def.Die) > 0 {
		h.Die = p.die
	}
	return h, nil
}

// RegisterAll compiles every script object the resolver knows and stores
// the handles in reg, replacing earlier versions.
func RegisterAll(reg *script.Registry, r content.Resolver, limits Limits) error {
	for _, obj := range r.ByType(content.TypeScript) {
		def, ok := obj.(*content.Script)
		if !ok {
			continue
		}
		h, err := Compile(def, limits)
		if err != nil {
			return err
		}
		reg.Set(def.ID, h)
	}
	return nil
}

func validate(op content.Op, die bool) error {
	switch op.Op {
	case content.OpFireRing:
		if op.Count < 1 {
			return fmt.Errorf("fire_ring count must be positive")
		}
	case content.OpSet:
		if op.Key == "" {
			return fmt.Errorf("set needs a key")
		}
	case content.OpMove, content.OpMoveStore, content.OpKillAfter:
		if die {
			return fmt.Errorf("%s is not allowed in die", op.Op)
		}
	case content.OpWave:
		if die {
			return fmt.Errorf("wave is not allowed in die")
		}
		if op.Period <= 0 {
			return fmt.Errorf("wave period must be positive")
		}
		if op.Axis != "x" && op.Axis != "y" {
			return fmt.Errorf("wave axis must be x or y, got %q", op.Axis)
		}
	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
	return nil
}

func (p *program) init(ctx script.Context) (script.InitResult, error) {
	store := ctx.Entity.Store.Clone()
	if store == nil {
		store = script.Store{}
	}
	// Authored defaults fill keys the spawner did not provide
	for k, v := range p.def.Init.Store {
		if _, ok := store[k]; !ok {
			store[k] = script.CloneValue(v)
		}
	}
	res := script.InitResult{Store: store}
	if p.def.Init.Offset != (core.Vec2{}) {
		res.Position = script.Pos(ctx.Entity.Position.Add(p.def.Init.Offset))
	}
	return res, nil
}

// run carries the mutable state of one update or die call.
type run struct {
	limits  Limits
	steps   int
	pos     core.Vec2
	moved   bool
	store   script.Store
	touched bool
	fire    int
	stores  []script.Store
	alive   *bool
}

func (r *run) step() error {
	r.steps++
	if r.limits.MaxSteps > 0 && r.steps > r.limits.MaxSteps {
		return fmt.Errorf("%w: more than %d ops", ErrBudgetExceeded, r.limits.MaxSteps)
	}
	return nil
}

func (p *program) update(ctx script.Context) (script.UpdateResult, error) {
	r, err := p.exec(ctx, p.def.Update, false)
	if err != nil {
		return script.UpdateResult{}, err
	}
	res := script.UpdateResult{Fire: r.fire, FireStores: r.stores, Alive: r.alive}
	if r.moved {
		res.Position = script.Pos(r.pos)
	}
	if r.touched {
		res.Store = r.store
	}
	return res, nil
}

func (p *program) die(ctx script.Context) (script.DieResult, error) {
	r, err := p.exec(ctx, p.def.Die, true)
	if err != nil {
		return script.DieResult{}, err
	}
	return script.DieResult{Fire: r.fire, FireStores: r.stores}, nil
}

func (p *program) exec(ctx script.Context, ops []content.Op, die bool) (*run, error) {
	r := &run{
		limits: p.limits,
		pos:    ctx.Entity.Position,
		store:  ctx.Entity.Store.Clone(),
	}
	if r.store == nil {
		r.store = script.Store{}
	}
	age := ctx.Entity.Age

	for _, op := range ops {
		if op.When != "" && !ctx.Keys.Has(op.When) {
			continue
		}
		if err := r.step(); err != nil {
			return nil, err
		}

		switch op.Op {
		case content.OpMove:
			r.pos = r.pos.Add(op.Velocity)
			r.moved = true

		case content.OpMoveStore:
			r.pos = r.pos.Add(core.V(Number(r.store["vx"]), Number(r.store["vy"])))
			r.moved = true

		case content.OpWave:
			// Incremental offset so the wave composes with other motion
			w := 2 * math.Pi / op.Period
			d := op.Amplitude * (math.Sin(w*float64(age+1)) - math.Sin(w*float64(age)))
			if op.Axis == "x" {
				r.pos.X += d
			} else {
				r.pos.Y += d
			}
			r.moved = true

		case content.OpFireRing:
			every := op.Every
			if every < 1 {
				every = 1
			}
			if !die && age%every != 0 {
				continue
			}
			if err := r.fireRing(op, ctx.Random); err != nil {
				return nil, err
			}

		case content.OpKillAfter:
			if age >= op.Frames {
				r.alive = script.Bool(false)
			}

		case content.OpSet:
			r.store[op.Key] = script.CloneValue(op.Value)
			r.touched = true
		}
	}

	return r, nil
}

func (r *run) fireRing(op content.Op, rnd script.Random) error {
	if r.limits.MaxFire > 0 && r.fire+op.Count > r.limits.MaxFire {
		return fmt.Errorf("%w: more than %d bullets", ErrBudgetExceeded, r.limits.MaxFire)
	}

	base := op.Angle
	if op.Jitter > 0 && rnd != nil {
		base += op.Jitter * (rnd.Random()*2 - 1)
	}

	stepDeg := 360.0 / float64(op.Count)
	start := base
	if op.Spread > 0 {
		start = base - op.Spread/2
		stepDeg = 0
		if op.Count > 1 {
			stepDeg = op.Spread / float64(op.Count-1)
		}
	}

	for i := 0; i < op.Count; i++ {
		rad := (start + stepDeg*float64(i)) * math.Pi / 180
		r.stores = append(r.stores, script.Store{
			"vx": math.Cos(rad) * op.Speed,
			"vy": math.Sin(rad) * op.Speed,
		})
	}
	r.fire += op.Count
	return nil
}

// Number converts a numeric store value to float64. Non-numbers read as 0.
func Number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return 0
	}
}
