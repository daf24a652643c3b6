package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cogc/internal/compliance"
	"cogc/internal/pipeline"
)

var resumeManifest string

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Resume the repair loop for a previously compiled application",
	Long: `repair re-drives the smoke-test repair loop for an application
that was already compiled once. --resume names either a manifest/result
file a prior compile wrote, or the app id it was compiled under. The
IR cache and LearningStore persisted under the workspace's .cogc
directory carry the run's accumulated state forward, so the loop
continues from where the prior run left off rather than starting from
nothing.`,
	Args: cobra.NoArgs,
	RunE: runRepair,
}

func init() {
	repairCmd.Flags().StringVar(&resumeManifest, "resume", "", "Manifest/result file or app id to resume (required)")
	repairCmd.MarkFlagRequired("resume")
}

func runRepair(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}

	prior, id, err := resolvePriorRun(ws, resumeManifest)
	if err != nil {
		return err
	}

	rec, err := pipeline.LoadRunRecord(ws, id)
	if err != nil {
		return fmt.Errorf("resume %s: %w", resumeManifest, err)
	}
	specText, err := os.ReadFile(rec.SpecPath)
	if err != nil {
		return fmt.Errorf("read spec %s: %w", rec.SpecPath, err)
	}

	p, _, err := buildPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	fmt.Printf("resuming app %q from status %s (pass rate %.2f)\n", id, prior.Status, prior.Smoke.PassRate)

	result, err := p.Run(context.Background(), id, string(specText))
	if err != nil {
		return fmt.Errorf("repair %s: %w", id, err)
	}

	newRec, err := pipeline.SaveRun(ws, id, rec.SpecPath, result)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	printSummary(result)
	fmt.Printf("result:      %s\n", newRec.ResultPath)

	if result.Gate.Status != compliance.GatePassed {
		return fmt.Errorf("quality gate %s", result.Gate.Status)
	}
	return nil
}

// resolvePriorRun accepts either a direct path to a result file or an
// app id, and returns the Result it names plus the app id to resume.
func resolvePriorRun(ws, target string) (pipeline.Result, string, error) {
	if _, err := os.Stat(target); err == nil {
		result, err := pipeline.LoadResult(target)
		if err != nil {
			return pipeline.Result{}, "", err
		}
		return result, result.FinalIR.AppID, nil
	}

	rec, err := pipeline.LoadRunRecord(ws, target)
	if err != nil {
		return pipeline.Result{}, "", fmt.Errorf("resume %s: not a result file and no run recorded under that app id: %w", target, err)
	}
	result, err := pipeline.LoadResult(rec.ResultPath)
	if err != nil {
		return pipeline.Result{}, "", err
	}
	return result, target, nil
}
