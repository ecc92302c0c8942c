package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stagesim/internal/storage"
)

var (
	flagRunsProject string
	flagRunsStage   int
	flagRunsLimit   int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show journaled runs",
	Long: `Display recently recorded runs, newest first.

Examples:
  stagesim runs
  stagesim runs --project demo --stage 100 --limit 5`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&flagRunsProject, "project", "", "Only runs of this project (requires --stage)")
	runsCmd.Flags().IntVar(&flagRunsStage, "stage", -1, "Only runs of this stage")
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 20, "Maximum number of runs")
}

func runRuns(_ *cobra.Command, _ []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var runs []storage.Run
	if flagRunsProject != "" && flagRunsStage >= 0 {
		runs, err = store.RunsForStage(flagRunsProject, flagRunsStage, flagRunsLimit)
	} else {
		runs, err = store.RecentRuns(flagRunsLimit)
	}
	if err != nil {
		return err
	}

	fmt.Println(heading("Runs"))
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'stagesim run <project> --stage <id>' to record one.")
		return nil
	}

	fmt.Printf("  %-5s  %-12s  %-6s  %-8s  %-7s  %-9s  %-16s  %s\n", "ID", "Project", "Stage", "Mode", "Frames", "Outcome", "Hash", "Date")
	fmt.Printf("  %-5s  %-12s  %-6s  %-8s  %-7s  %-9s  %-16s  %s\n", "--", "-------", "-----", "----", "------", "-------", "----", "----")

	for _, r := range runs {
		mode := r.Mode
		if mode == "boss" {
			mode = fmt.Sprintf("boss/%d", r.BossForm)
		}
		// Pad before styling so escape codes do not break alignment
		result := fmt.Sprintf("%-9s", "survived")
		if !r.PlayerAlive {
			result = fmt.Sprintf("%-9s", fmt.Sprintf("hit x%d", r.Hits))
		}
		if r.PlayerAlive {
			result = render(goodStyle, result)
		} else {
			result = render(badStyle, result)
		}
		fmt.Printf("  %-5d  %-12s  %-6d  %-8s  %-7d  %s  %016x  %s\n",
			r.ID, r.Project, r.StageID, mode, r.Frames, result, r.FinalHash, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
