package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stagesim/internal/content"
	"github.com/vovakirdan/stagesim/internal/storage"
)

var stagesCmd = &cobra.Command{
	Use:   "stages <project.yaml>",
	Short: "List the stages of a project",
	Long: `Shows every stage defined in the project with its length, enemy count,
boss forms and the number of journaled runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runStages,
}

func runStages(_ *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	proj, err := loadProject(args[0], cfg)
	if err != nil {
		return err
	}

	stages := proj.stages()
	if len(stages) == 0 {
		fmt.Println("No stages defined.")
		return nil
	}

	var stats map[int]*storage.StageStats
	if store := openJournal(cfg, logger); store != nil {
		defer store.Close()
		if stats, err = store.StageStats(proj.name); err != nil {
			logger.Warn("could not read run stats", "error", err)
		}
	}

	fmt.Println(heading("Stages - " + proj.name))
	fmt.Println()

	fmt.Printf("  %-6s  %-20s  %-7s  %-7s  %-5s  %s\n", "ID", "Name", "Length", "Enemies", "Forms", "Runs")
	fmt.Printf("  %-6s  %-20s  %-7s  %-7s  %-5s  %s\n", "--", "----", "------", "-------", "-----", "----")

	for _, st := range stages {
		enemies := 0
		for _, spawn := range st.Enemies {
			enemies += len(spawn.Spawns())
		}
		forms := 0
		if boss, ok := content.Lookup[*content.Boss](proj.index, st.BossID); ok {
			forms = len(boss.Forms)
		}
		runs := "-"
		if s, ok := stats[st.ID]; ok {
			runs = fmt.Sprintf("%d (%d hit)", s.Runs, s.Deaths)
		}
		fmt.Printf("  %-6d  %-20s  %-7d  %-7d  %-5d  %s\n", st.ID, st.Name, st.Length, enemies, forms, runs)
	}

	fmt.Println()
	fmt.Println(dim("Run 'stagesim run <project> --stage <id>' to simulate a stage."))
	return nil
}
