package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/longregen/gepa-optimize/internal/events"
	"github.com/longregen/gepa-optimize/internal/replay"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <event-log>",
		Short: "Reconstruct an archive snapshot from a durable event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args[0])
		},
	}
	return cmd
}

func runReplay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open event log %s: %w", path, err)
	}
	defer f.Close()

	envelopes, err := events.ReadAll(f)
	if err != nil {
		return fmt.Errorf("decode event log %s: %w", path, err)
	}

	snapshot := replay.Fold(envelopes)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot)
}
