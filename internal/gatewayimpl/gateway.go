// Package gatewayimpl provides a concrete gepa.LLMGateway backed by an
// OpenAI-compatible chat completions endpoint.
package gatewayimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/longregen/gepa-optimize/internal/gepa"
	gepaotel "github.com/longregen/gepa-optimize/pkg/otel"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "internal/gatewayimpl"

// Config configures Gateway construction.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Option configures a Config.
type Option func(*Config)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *Config) { cfg.HTTPClient = c }
}

// WithTimeout sets the HTTP client timeout when no custom client is given.
func WithTimeout(d time.Duration) Option {
	return func(cfg *Config) { cfg.Timeout = d }
}

// Gateway implements gepa.LLMGateway over an OpenAI-compatible API. Tool
// execution is neutered by construction: this type never calls a tool's
// real handler, it only reports which tool the model chose.
type Gateway struct {
	client *openai.Client
}

// New constructs a Gateway against baseURL using apiKey.
func New(baseURL, apiKey string, opts ...Option) *Gateway {
	cfg := &Config{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		Timeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	openaiCfg := openai.DefaultConfig(cfg.APIKey)
	openaiCfg.BaseURL = cfg.BaseURL

	if cfg.HTTPClient != nil {
		openaiCfg.HTTPClient = cfg.HTTPClient
	} else {
		openaiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Gateway{client: openai.NewClientWithConfig(openaiCfg)}
}

const toolSelectionToolChoice = "auto"

// zeroTemperature is the smallest positive float32 rather than 0: go-openai
// tags Temperature with omitempty, so a literal 0 is left out of the
// request and the server's default temperature applies instead.
var zeroTemperature float32 = math.SmallestNonzeroFloat32

// ToolSelection implements gepa.LLMGateway. It presents tools as callable
// functions, forces deterministic decoding, and never invokes a tool's
// real handler — it only reads back the first tool call the model made.
func (g *Gateway) ToolSelection(ctx context.Context, model string, query string, tools []gepa.Tool) (gepa.ToolSelectionResult, error) {
	ctx, span := gepaotel.StartToolSelectionSpan(ctx, tracerName, model, len(tools))

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		Temperature: zeroTemperature,
		ToolChoice:  toolSelectionToolChoice,
	}
	req.Tools = make([]openai.Tool, len(tools))
	for i, t := range tools {
		req.Tools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		}
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		gepaotel.RecordSpanError(span, err)
		span.End()
		return gepa.ToolSelectionResult{}, gepa.NewProviderError("tool_selection call failed", err)
	}
	if len(resp.Choices) == 0 {
		gepaotel.EndToolSelectionSpan(span, "", false)
		return gepa.ToolSelectionResult{}, nil
	}

	choice := resp.Choices[0]
	span.SetAttributes(attribute.Int("gatewayimpl.tool_calls", len(choice.Message.ToolCalls)))
	if len(choice.Message.ToolCalls) == 0 {
		gepaotel.EndToolSelectionSpan(span, "", false)
		return gepa.ToolSelectionResult{}, nil
	}

	// Tool execution is neutered: we read the chosen function name and
	// arguments only, we never dispatch to a real handler.
	call := choice.Message.ToolCalls[0]
	gepaotel.EndToolSelectionSpan(span, call.Function.Name, false)
	return gepa.ToolSelectionResult{
		SelectedToolName: call.Function.Name,
		Arguments:        parseArguments(call.Function.Arguments),
	}, nil
}

// TextCompletion implements gepa.LLMGateway for the Mutator's one-shot
// reflection prompts.
func (g *Gateway) TextCompletion(ctx context.Context, model string, prompt string, maxOutputTokens int) (string, error) {
	ctx, span := gepaotel.Tracer(tracerName).Start(ctx, "gatewayimpl.text_completion", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: maxOutputTokens,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", gepa.NewProviderError("text_completion call failed", err)
	}
	if len(resp.Choices) == 0 {
		slog.WarnContext(ctx, "text_completion returned 0 choices", "model", model)
		return "", gepa.NewProviderError("text_completion returned no choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

func parseArguments(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	args, err := decodeJSONObject(raw)
	if err != nil {
		return nil
	}
	return args
}

func decodeJSONObject(raw string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode tool arguments: %w", err)
	}
	return out, nil
}
