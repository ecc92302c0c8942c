package sim

import "fmt"

func (s *Stepper) key(frame int) Key {
	return Key{Frame: frame, Mode: s.mode, BossFormIndex: s.bossFormIndex}
}

func (s *Stepper) state() GameState {
	return GameState{
		StageID:       s.stage.ID,
		Entities:      cloneEntities(s.entities),
		StageAge:      s.stageAge,
		BossFormIndex: s.bossFormIndex,
		Mode:          s.mode,
		PlayerEntity:  s.player,
		RNGSeed:       s.rng.Seed(),
		RNGCursor:     s.rng.Cursor(),
	}
}

// load installs a state that is already owned by the stepper.
func (s *Stepper) load(g GameState) {
	s.entities = g.Entities
	s.stageAge = g.StageAge
	s.bossFormIndex = g.BossFormIndex
	s.mode = g.Mode
	s.player = g.PlayerEntity
	s.rng.Seek(g.RNGCursor)
	s.configureBounds()
}

// Capture returns a deep copy of the current state.
func (s *Stepper) Capture() (GameState, error) {
	if !s.ready {
		return GameState{}, fmt.Errorf("sim: capture: %w", ErrNotReset)
	}
	return s.state(), nil
}

// Restore replaces the current state with a deep copy of g. The stepper
// must have been reset to the stage g was captured from, with the same
// Options.Seed. Random draws after the restore replay the stepper's own
// history, so a stepper that was reseeded since g was captured diverges.
func (s *Stepper) Restore(g GameState) error {
	if !s.ready {
		return fmt.Errorf("sim: restore: %w", ErrNotReset)
	}
	if g.StageID != s.stage.ID {
		return fmt.Errorf("sim: restore: %w: have %d, got %d", ErrStageMismatch, s.stage.ID, g.StageID)
	}
	if g.RNGSeed != s.rng.Seed() {
		return fmt.Errorf("sim: restore: %w: have %d, got %d", ErrSeedMismatch, s.rng.Seed(), g.RNGSeed)
	}
	if g.Mode != s.mode || g.BossFormIndex != s.bossFormIndex {
		s.stale = true
	}
	s.load(g.Clone())
	return nil
}

// InvalidateCache drops every snapshot and memoised sprite geometry, and
// marks the frame 0 baseline for rebuilding on the next FastForwardTo.
// Call it after content edits.
func (s *Stepper) InvalidateCache() {
	n := s.cache.Len()
	s.cache.Clear()
	s.collider.Reset()
	s.stale = true
	s.log.Debug("snapshot cache invalidated", "dropped", n)
}

// Reseed starts a new random stream. Cached snapshots refer to the old
// stream, so the cache is invalidated.
func (s *Stepper) Reseed() {
	s.rng.Reseed()
	s.InvalidateCache()
}

// CachedSnapshots returns the number of cached snapshots.
func (s *Stepper) CachedSnapshots() int {
	return s.cache.Len()
}

// FastForwardTo brings the stepper to frame, resuming from the nearest
// cached snapshot. Frames are replayed with the player invincible and no
// keys held; every interval boundary crossed is cached. Frame 0 restores
// the post-reset baseline rather than leaving the current state untouched.
func (s *Stepper) FastForwardTo(frame int) (UpdateResult, error) {
	if !s.ready {
		return UpdateResult{}, fmt.Errorf("sim: fast-forward: %w", ErrNotReset)
	}
	before := s.faults
	if s.stale {
		if err := s.rebuild(); err != nil {
			return UpdateResult{}, err
		}
	}
	if frame < 0 || (s.end >= 0 && frame >= s.end) {
		return UpdateResult{}, fmt.Errorf("sim: fast-forward to %d: %w", frame, ErrOutOfRange)
	}

	if k, ok := s.cache.Nearest(frame, s.opts.CacheInterval, s.mode, s.bossFormIndex); ok {
		snap, _ := s.cache.Load(k)
		s.load(snap)
		s.log.Debug("snapshot restored", "frame", k.Frame, "mode", k.Mode, "form", k.BossFormIndex)
	} else {
		s.load(s.baseline.Clone())
	}

	fc := FrameContext{PlayerInvincible: true}
	for s.stageAge < frame {
		if _, err := s.step(fc); err != nil {
			return UpdateResult{}, err
		}
		if s.stageAge%s.opts.CacheInterval != 0 {
			continue
		}
		if k := s.key(s.stageAge); !s.cache.Has(k) {
			s.cache.Store(k, s.state())
			s.log.Debug("snapshot stored", "frame", k.Frame, "mode", k.Mode, "form", k.BossFormIndex)
		}
	}

	return s.result(true, s.faults-before), nil
}
