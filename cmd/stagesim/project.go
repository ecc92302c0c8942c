package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stagesim/internal/config"
	"github.com/vovakirdan/stagesim/internal/content"
	"github.com/vovakirdan/stagesim/internal/script"
	"github.com/vovakirdan/stagesim/internal/script/pattern"
	"github.com/vovakirdan/stagesim/internal/sim"
	"github.com/vovakirdan/stagesim/internal/storage"
)

// loadedProject is a project ready for simulation.
type loadedProject struct {
	name    string
	index   *content.Index
	scripts *script.Registry
}

func loadProject(path string, cfg config.Config) (*loadedProject, error) {
	idx, err := content.LoadProject(path)
	if err != nil {
		return nil, err
	}

	reg := script.NewRegistry()
	limits := pattern.Limits{MaxSteps: cfg.Scripts.MaxSteps, MaxFire: cfg.Scripts.MaxFire}
	if err := pattern.RegisterAll(reg, idx, limits); err != nil {
		return nil, err
	}

	name := idx.Project().Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &loadedProject{name: name, index: idx, scripts: reg}, nil
}

func (p *loadedProject) stepper(cfg config.Config, logger *log.Logger) *sim.Stepper {
	return sim.NewStepper(p.index, p.index, p.scripts, sim.Options{
		CacheInterval: cfg.Simulation.CacheInterval,
		Seed:          cfg.Simulation.Seed,
		StrictScripts: cfg.Simulation.StrictScripts,
		Logger:        logger,
	})
}

func (p *loadedProject) stages() []*content.Stage {
	objs := p.index.ByType(content.TypeStage)
	out := make([]*content.Stage, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.(*content.Stage))
	}
	return out
}

// openJournal opens the run journal. Failures are logged and yield nil so
// simulation commands keep working without it.
func openJournal(cfg config.Config, logger *log.Logger) *storage.Store {
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		logger.Warn("could not open run journal", "error", err)
		return nil
	}
	return store
}

// entityCounts returns "type=live/total" pairs in entity type order.
func entityCounts(entities []sim.Entity) string {
	types := []sim.EntityType{sim.EntityPlayer, sim.EntityEnemy, sim.EntityBoss, sim.EntityEnemyBullet, sim.EntityPlayerBullet}
	live := make(map[sim.EntityType]int)
	total := make(map[sim.EntityType]int)
	for _, e := range entities {
		total[e.Type]++
		if e.Alive {
			live[e.Type]++
		}
	}

	var parts []string
	for _, t := range types {
		if total[t] == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%d/%d", t, live[t], total[t]))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}
