package otel

import "go.opentelemetry.io/otel/attribute"

// Standard attribute keys for gepa-optimize spans.
const (
	AttrRunID          = "gepa.run.id"
	AttrCandidateID    = "gepa.candidate.id"
	AttrTestCaseID     = "gepa.test_case.id"
	AttrLLMModel       = "llm.model"
	AttrLLMProvider    = "llm.provider"
	AttrToolName       = "tool.name"
	AttrToolID         = "tool.id"
	AttrToolSelected   = "tool.selected"
	AttrAccuracy       = "gepa.accuracy"
)

func RunID(id string) attribute.KeyValue       { return attribute.String(AttrRunID, id) }
func CandidateID(id string) attribute.KeyValue { return attribute.String(AttrCandidateID, id) }
func TestCaseID(id string) attribute.KeyValue  { return attribute.String(AttrTestCaseID, id) }

func LLMModel(model string) attribute.KeyValue       { return attribute.String(AttrLLMModel, model) }
func LLMProvider(provider string) attribute.KeyValue { return attribute.String(AttrLLMProvider, provider) }

func ToolName(name string) attribute.KeyValue         { return attribute.String(AttrToolName, name) }
func ToolID(id string) attribute.KeyValue             { return attribute.String(AttrToolID, id) }
func ToolSelected(name string) attribute.KeyValue     { return attribute.String(AttrToolSelected, name) }
func Accuracy(v float64) attribute.KeyValue           { return attribute.Float64(AttrAccuracy, v) }
