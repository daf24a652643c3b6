package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cogc/internal/pipeline"
)

var reportCmd = &cobra.Command{
	Use:   "report <result-file-or-app-id>",
	Short: "Print a saved compile/repair result",
	Long: `report loads a result a prior compile or repair run wrote (either
its manifest/result file directly, or the app id it was run under) and
prints its terminal status, pass rate, manifest stratum counts,
compliance warnings, and any escalated violations.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	target := args[0]

	if _, err := os.Stat(target); err == nil {
		result, err := pipeline.LoadResult(target)
		if err != nil {
			return err
		}
		printSummary(result)
		return nil
	}

	ws, err := resolveWorkspace()
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}
	rec, err := pipeline.LoadRunRecord(ws, target)
	if err != nil {
		return fmt.Errorf("report %s: not a result file and no run recorded under that app id: %w", target, err)
	}
	result, err := pipeline.LoadResult(rec.ResultPath)
	if err != nil {
		return err
	}
	printSummary(result)
	return nil
}
