package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stagesim/internal/content"
)

var flagSchemaOut string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the project file JSON schema",
	Long: `Emit the JSON schema of project files, for editor validation and
autocompletion.

Examples:
  stagesim schema
  stagesim schema --out project.schema.json`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().StringVar(&flagSchemaOut, "out", "", "Write the schema to a file instead of stdout")
}

func runSchema(_ *cobra.Command, _ []string) error {
	data, err := content.SchemaJSON()
	if err != nil {
		return err
	}
	if flagSchemaOut == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(flagSchemaOut, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write schema %s: %w", flagSchemaOut, err)
	}
	return nil
}
