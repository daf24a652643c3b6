// Package main implements the cogc CLI: the command-line front end to
// the cognitive compiler's compile/repair pipeline. Command
// implementations are split one family per cmd_*.go file, matching the
// teacher's cmd/nerd layout.
//
// # File Index
//
//   - main.go       - entry point, rootCmd, global flags
//   - cmd_compile.go - compile, the initial lowering/emit/repair run
//   - cmd_repair.go  - repair --resume, re-driving a prior run's app_id
//   - cmd_report.go  - report, printing a saved Result
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	workspace  string
	configPath string
	appID      string
)

var rootCmd = &cobra.Command{
	Use:   "cogc",
	Short: "cogc - the cognitive compiler CLI",
	Long: `cogc lowers a human-written application spec into a deployable
server application through a typed intermediate representation, a
stratified code emitter, and a smoke-test-driven repair loop.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a cogc config yaml file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&appID, "app-id", "", "Application id for this run (default: derived from the spec file name)")

	rootCmd.AddCommand(compileCmd, repairCmd, reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
