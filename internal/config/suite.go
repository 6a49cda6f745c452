package config

import (
	"fmt"
	"os"

	"github.com/longregen/gepa-optimize/internal/gepa"
	"gopkg.in/yaml.v3"
)

// Suite is the YAML shape of a tool inventory plus labelled test cases —
// the fixed input a run optimizes over.
type Suite struct {
	Tools []struct {
		ID          string         `yaml:"id"`
		Name        string         `yaml:"name"`
		Description string         `yaml:"description"`
		ServerID    string         `yaml:"server_id"`
		InputSchema map[string]any `yaml:"input_schema"`
	} `yaml:"tools"`
	TestCases []struct {
		ID       string `yaml:"id"`
		Query    string `yaml:"query"`
		Expected string `yaml:"expected_tool"`
	} `yaml:"test_cases"`
}

// LoadSuite reads and converts a suite file into the engine's domain types.
func LoadSuite(path string) ([]gepa.Tool, []gepa.TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read suite %s: %w", path, err)
	}

	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, nil, fmt.Errorf("parse suite %s: %w", path, err)
	}

	tools := make([]gepa.Tool, 0, len(s.Tools))
	for _, t := range s.Tools {
		tools = append(tools, gepa.Tool{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
			ServerID:    t.ServerID,
		})
	}

	cases := make([]gepa.TestCase, 0, len(s.TestCases))
	for _, c := range s.TestCases {
		cases = append(cases, gepa.TestCase{
			ID:               c.ID,
			Query:            c.Query,
			ExpectedToolName: c.Expected,
		})
	}

	return tools, cases, nil
}
