package main

import (
	"fmt"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/stagesim/internal/sim"
	"github.com/vovakirdan/stagesim/internal/storage"
)

var (
	flagStage      int
	flagMode       string
	flagBossForm   int
	flagFrames     int
	flagHold       []string
	flagInvincible bool
	flagProfile    string
	flagNoRecord   bool
)

var runCmd = &cobra.Command{
	Use:   "run <project.yaml>",
	Short: "Step a stage and journal the run",
	Long: `Reset a stage and advance it one frame at a time, holding the given keys
for the whole run. The summary is printed and the run is recorded in the
journal.

Modes:
  enemies - Player and enemy waves, ends at the stage length
  boss    - One boss form (--boss-form), ends when the form expires
  full    - Enemy waves followed by every boss form; needs --frames

Held keys are raw key names mapped to actions through key_bindings.

Examples:
  stagesim run demo.yaml --stage 100
  stagesim run demo.yaml --stage 100 --mode boss --boss-form 1
  stagesim run demo.yaml --stage 100 --mode full --frames 3600 --hold z,left
  stagesim run demo.yaml --stage 100 --mode full --frames 100000 --profile cpu`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&flagStage, "stage", 0, "Stage ID")
	runCmd.Flags().StringVar(&flagMode, "mode", "enemies", "Mode: enemies, boss, full")
	runCmd.Flags().IntVar(&flagBossForm, "boss-form", 0, "Boss form index for boss mode")
	runCmd.Flags().IntVar(&flagFrames, "frames", 0, "Frames to step (0 = until the mode ends)")
	runCmd.Flags().StringSliceVar(&flagHold, "hold", nil, "Raw keys held for the whole run")
	runCmd.Flags().BoolVar(&flagInvincible, "invincible", false, "Ignore enemy bullet hits")
	runCmd.Flags().StringVar(&flagProfile, "profile", "", "Write a profile to the current directory: cpu, mem")
	runCmd.Flags().BoolVar(&flagNoRecord, "no-record", false, "Do not journal the run")
	_ = runCmd.MarkFlagRequired("stage")
}

func startProfile(kind string) (interface{ Stop() }, error) {
	switch kind {
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook), nil
	case "mem":
		return profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook), nil
	default:
		return nil, fmt.Errorf("unknown profile kind %q (use cpu or mem)", kind)
	}
}

func runRun(_ *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	mode, err := sim.ParseMode(flagMode)
	if err != nil {
		return err
	}

	proj, err := loadProject(args[0], cfg)
	if err != nil {
		return err
	}
	stepper := proj.stepper(cfg, logger)
	if err := stepper.Reset(flagStage, mode, flagBossForm); err != nil {
		return err
	}

	frames := flagFrames
	if end := stepper.End(); end >= 0 {
		if frames > end-1 {
			logger.Warn("frame count capped at the end of the mode", "requested", frames, "frames", end-1)
		}
		if frames <= 0 || frames > end-1 {
			frames = end - 1
		}
	} else if frames <= 0 {
		return fmt.Errorf("--frames is required: %s mode has no end", mode)
	}

	if flagProfile != "" {
		p, err := startProfile(flagProfile)
		if err != nil {
			return err
		}
		defer p.Stop()
	}

	raw := make(map[string]bool, len(flagHold))
	for _, k := range flagHold {
		raw[k] = true
	}
	fc := sim.FrameContext{
		PlayerInvincible: flagInvincible,
		Keys:             cfg.KeyBindings.Resolve(raw),
	}

	hits, faults := 0, 0
	for i := 0; i < frames; i++ {
		res, err := stepper.AdvanceFrame(fc)
		if err != nil {
			return err
		}
		if !res.PlayerAlive {
			hits++
			logger.Debug("player hit", "frame", res.StageAge)
		}
		faults += res.ScriptFaults
	}

	state, err := stepper.Capture()
	if err != nil {
		return err
	}
	hash := state.Hash()

	fmt.Println(heading(fmt.Sprintf("Run - %s stage %d (%s)", proj.name, flagStage, mode)))
	fmt.Println()
	fmt.Printf("  Frames:    %d\n", state.StageAge)
	fmt.Printf("  Outcome:   %s (%d hit frames)\n", outcome(hits == 0), hits)
	fmt.Printf("  Entities:  %s\n", entityCounts(state.Entities))
	fmt.Printf("  Faults:    %d\n", faults)
	fmt.Printf("  Hash:      %016x\n", hash)

	if flagNoRecord {
		return nil
	}
	store := openJournal(cfg, logger)
	if store == nil {
		return nil
	}
	defer store.Close()

	id, err := store.SaveRun(storage.Run{
		Project:      proj.name,
		StageID:      flagStage,
		Mode:         mode.String(),
		BossForm:     flagBossForm,
		Frames:       state.StageAge,
		FinalHash:    hash,
		PlayerAlive:  hits == 0,
		Hits:         hits,
		ScriptFaults: faults,
	})
	if err != nil {
		logger.Warn("could not record run", "error", err)
		return nil
	}
	logger.Info("run recorded", "id", id)
	return nil
}
