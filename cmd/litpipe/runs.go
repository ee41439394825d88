// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litpipe/internal/runs"
	"github.com/pdiddy/litpipe/internal/session"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past research runs",
	Long: `Runs lists run directories under the base directory, newest first,
with each run's query and terminal status read from its session store.`,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().String("base-dir", "runs", "base directory for run artifacts")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	baseDir, _ := cmd.Flags().GetString("base-dir")
	mgr, err := runs.NewManager(baseDir)
	if err != nil {
		return err
	}

	dirs, err := mgr.List()
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	for _, dir := range dirs {
		fmt.Printf("%s  %s\n", dir, describeRun(cmd.Context(), dir))
	}
	return nil
}

func describeRun(ctx context.Context, runDir string) string {
	store, err := session.Open(runDir)
	if err != nil {
		return "(no session)"
	}
	defer store.Close()

	info, err := store.Load(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return "(empty session)"
	}
	if err != nil {
		return "(unreadable session)"
	}
	return fmt.Sprintf("%-9s %q [%s]", info.Status, info.Query, info.Mode)
}
