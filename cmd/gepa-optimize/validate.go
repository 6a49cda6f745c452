package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/longregen/gepa-optimize/internal/config"
	"github.com/longregen/gepa-optimize/internal/gepa"
)

func newValidateCmd() *cobra.Command {
	var configPath, suitePath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a run config and suite file without starting a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(configPath, suitePath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a run config YAML file")
	cmd.Flags().StringVar(&suitePath, "suite", "", "path to a tool/test-case suite YAML file (required)")
	_ = cmd.MarkFlagRequired("suite")

	return cmd
}

func runValidate(configPath, suitePath string) error {
	fileCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	runCfg := fileCfg.ToRunConfig()
	if err := runCfg.Validate(); err != nil {
		return fmt.Errorf("invalid run config: %w", err)
	}

	tools, testCases, err := config.LoadSuite(suitePath)
	if err != nil {
		return err
	}
	if len(tools) == 0 {
		return fmt.Errorf("suite %s declares no tools", suitePath)
	}
	if len(testCases) == 0 {
		return fmt.Errorf("suite %s declares no test cases", suitePath)
	}
	if err := validateExpectedTools(tools, testCases); err != nil {
		return err
	}

	fmt.Printf("config OK: max_evaluations=%d subsample_size=%d selection_policy=%s\n",
		runCfg.MaxEvaluations, runCfg.SubsampleSize, runCfg.SelectionPolicy)
	fmt.Printf("suite OK: %d tools, %d test cases\n", len(tools), len(testCases))
	return nil
}

// validateExpectedTools checks that every test case's expected_tool_name
// names exactly one tool in the inventory, surfacing a ConfigError early
// rather than discovering a typo'd name only after evaluation runs start
// reporting it as a wrong selection.
func validateExpectedTools(tools []gepa.Tool, testCases []gepa.TestCase) error {
	counts := make(map[string]int, len(tools))
	for _, t := range tools {
		counts[t.Name]++
	}
	for _, tc := range testCases {
		switch counts[tc.ExpectedToolName] {
		case 1:
			continue
		case 0:
			return gepa.NewConfigError(fmt.Sprintf(
				"test case %s: expected_tool_name %q matches no tool in the suite", tc.ID, tc.ExpectedToolName))
		default:
			return gepa.NewConfigError(fmt.Sprintf(
				"test case %s: expected_tool_name %q matches %d tools in the suite, want exactly 1",
				tc.ID, tc.ExpectedToolName, counts[tc.ExpectedToolName]))
		}
	}
	return nil
}
