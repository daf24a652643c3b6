package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cogc/internal/compliance"
	"cogc/internal/pipeline"
)

var compileCmd = &cobra.Command{
	Use:   "compile <spec-file>",
	Short: "Lower a spec into a deployed, repaired application",
	Long: `compile reads a human-written application spec, lowers it through
the typed intermediate representation, emits a source tree through the
stratified emitter, and drives the smoke-test repair loop until the
application converges or a terminal condition is reached.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func runCompile(cmd *cobra.Command, args []string) error {
	specPath := args[0]
	specText, err := os.ReadFile(specPath)
	if err != nil {
		return fmt.Errorf("read spec %s: %w", specPath, err)
	}

	p, ws, err := buildPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	id := appIDFor(specPath)
	result, err := p.Run(context.Background(), id, string(specText))
	if err != nil {
		return fmt.Errorf("compile %s: %w", specPath, err)
	}

	rec, err := pipeline.SaveRun(ws, id, specPath, result)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	printSummary(result)
	fmt.Printf("result:      %s\n", rec.ResultPath)

	if result.Gate.Status != compliance.GatePassed {
		return fmt.Errorf("quality gate %s", result.Gate.Status)
	}
	return nil
}
