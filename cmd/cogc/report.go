package main

import (
	"fmt"

	"cogc/internal/emitter"
	"cogc/internal/pipeline"
)

// printSummary renders one Result the way a CI log or terminal run
// should see it: terminal status, pass rate, per-stratum file counts,
// the compliance gate verdict, and any escalated violations needing a
// human.
func printSummary(result pipeline.Result) {
	fmt.Printf("status:      %s\n", result.Status)
	fmt.Printf("iterations:  %d\n", result.Iterations)
	fmt.Printf("pass rate:   %.2f\n", result.Smoke.PassRate)
	fmt.Printf("gate:        %s (%s)\n", result.Gate.Status, result.Gate.Environment)

	counts := result.Manifest.CountByStratum()
	fmt.Printf("files:       template=%d ast=%d llm=%d\n",
		counts[emitter.StratumTemplate], counts[emitter.StratumAST], counts[emitter.StratumLLM])

	if failed := result.Manifest.Failed(); len(failed) > 0 {
		fmt.Printf("failed:      %d file(s) did not validate\n", len(failed))
		for _, f := range failed {
			fmt.Printf("  - %s (%s)\n", f.Path, f.Status)
		}
	}

	if len(result.Escalated) > 0 {
		fmt.Printf("escalated:   %d violation(s) exhausted their repair budget\n", len(result.Escalated))
		for _, e := range result.Escalated {
			fmt.Printf("  - %s: %s\n", e.Key, e.Violation.Endpoint)
		}
	}

	if len(result.Compliance.Warnings) > 0 {
		fmt.Printf("warnings:    %d\n", len(result.Compliance.Warnings))
		for _, w := range result.Compliance.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
}
