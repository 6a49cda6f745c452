package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleSuiteYAML = `
tools:
  - id: t1
    name: search_web
    description: Searches the public web for a query.
    server_id: srv1
    input_schema:
      type: object
      properties:
        query:
          type: string
  - id: t2
    name: get_weather
    description: Reports current weather for a location.
test_cases:
  - id: tc1
    query: "what's the weather in Tokyo?"
    expected_tool: get_weather
  - id: tc2
    query: "search for golang tutorials"
    expected_tool: search_web
`

func writeSuiteFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSuite_ParsesToolsAndTestCases(t *testing.T) {
	path := writeSuiteFile(t, sampleSuiteYAML)

	tools, cases, err := LoadSuite(path)
	require.NoError(t, err)
	require.Len(t, tools, 2)
	require.Len(t, cases, 2)

	require.Equal(t, "search_web", tools[0].Name)
	require.Equal(t, "srv1", tools[0].ServerID)
	require.Equal(t, "object", tools[0].InputSchema["type"])

	require.Equal(t, "tc1", cases[0].ID)
	require.Equal(t, "get_weather", cases[0].ExpectedToolName)
}

func TestLoadSuite_MissingFileErrors(t *testing.T) {
	_, _, err := LoadSuite(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestLoadSuite_MalformedYAMLErrors(t *testing.T) {
	path := writeSuiteFile(t, "tools: [this is not a tool list")
	_, _, err := LoadSuite(path)
	require.Error(t, err)
}

func TestLoadSuite_EmptySuiteReturnsEmptySlices(t *testing.T) {
	path := writeSuiteFile(t, "tools: []\ntest_cases: []\n")
	tools, cases, err := LoadSuite(path)
	require.NoError(t, err)
	require.Empty(t, tools)
	require.Empty(t, cases)
}
