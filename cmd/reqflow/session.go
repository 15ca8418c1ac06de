package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/reqflow/engine/cmd/reqflow/internal"
	"github.com/reqflow/engine/internal/types"
)

var (
	serverAddr   string
	outputFormat string
)

// newSessionCmd builds the `session` command group, a thin HTTP client over
// a running serve instance for operators who want a session's state without
// opening the SSE stream by hand.
func newSessionCmd() *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "inspect sessions on a running reqflow server",
	}
	sessionCmd.PersistentFlags().StringVar(&serverAddr, "server", "http://localhost:8080", "base URL of the running reqflow server")
	sessionCmd.PersistentFlags().StringVar(&outputFormat, "output", "text", "output format: text or json")

	statusCmd := &cobra.Command{
		Use:   "status <session-id>",
		Short: "print a session's current phase, progress, and artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionStatus(cmd, args[0])
		},
	}

	sessionCmd.AddCommand(statusCmd)
	return sessionCmd
}

func runSessionStatus(cmd *cobra.Command, sessionID string) error {
	formatter := internal.NewFormatter(internal.OutputFormat(outputFormat), cmd.OutOrStdout())

	snap, err := fetchSnapshot(cmd, sessionID)
	if err != nil {
		_ = formatter.PrintError(err.Error())
		return err
	}

	if internal.OutputFormat(outputFormat) == internal.FormatJSON {
		return formatter.PrintJSON(snap)
	}

	if err := formatter.PrintSuccess(fmt.Sprintf("session %s: %s (progress %.0f%%)", snap.Session.ID, snap.Session.Phase, snap.Progress*100)); err != nil {
		return err
	}

	if len(snap.Artifacts) > 0 {
		headers := []string{"name", "content_type", "producing_task_id"}
		rows := make([][]string, 0, len(snap.Artifacts))
		for _, a := range snap.Artifacts {
			rows = append(rows, []string{a.Name, a.ContentType, string(a.ProducingTaskID)})
		}
		return formatter.PrintTable(headers, rows)
	}
	return nil
}

func fetchSnapshot(cmd *cobra.Command, sessionID string) (types.Snapshot, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	url := fmt.Sprintf("%s/session/%s", serverAddr, sessionID)

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("request session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Snapshot{}, fmt.Errorf("server returned %s", resp.Status)
	}

	var snap types.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return types.Snapshot{}, fmt.Errorf("decode response: %w", err)
	}
	return snap, nil
}
