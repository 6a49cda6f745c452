package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gepa-optimize",
		Short: "Optimize natural-language tool descriptions with GEPA",
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newReplayCmd())
	root.AddCommand(newValidateCmd())

	return root
}
