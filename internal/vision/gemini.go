package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/nao1215/uxaudit/internal/model"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// contentGenerator is the subset of *genai.Models the analyzer calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAnalyzer is an Analyzer backed by the Gemini API.
type GeminiAnalyzer struct {
	models contentGenerator
	model  string
	prompt string
	logger *slog.Logger
}

// GeminiOption configures a GeminiAnalyzer.
type GeminiOption func(*GeminiAnalyzer)

// WithModel sets the Gemini model name.
func WithModel(name string) GeminiOption {
	return func(g *GeminiAnalyzer) {
		if name != "" {
			g.model = name
		}
	}
}

// WithAudience tailors the critique prompt to a visitor profile.
func WithAudience(audience string) GeminiOption {
	return func(g *GeminiAnalyzer) {
		g.prompt = Prompt(audience)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) GeminiOption {
	return func(g *GeminiAnalyzer) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGeminiAnalyzer creates an analyzer authenticated with apiKey.
func NewGeminiAnalyzer(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newGeminiAnalyzer(client.Models, opts...), nil
}

func newGeminiAnalyzer(models contentGenerator, opts ...GeminiOption) *GeminiAnalyzer {
	g := &GeminiAnalyzer{
		models: models,
		model:  DefaultModel,
		prompt: Prompt(""),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Analyze sends the screenshot and the critique prompt in one request and
// parses the structured reply.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, img *model.RasterImage) (*model.AnalysisResult, error) {
	if img == nil || img.Size() == 0 {
		return nil, &Error{Kind: KindRequestFailed, Err: model.ErrEmptyImage}
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(g.prompt),
			genai.NewPartFromBytes(img.Bytes(), img.MIMEType()),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, &Error{Kind: KindRequestFailed, Err: err}
	}
	if resp == nil {
		return nil, &Error{Kind: KindRequestFailed, Err: ErrEmptyResponse}
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, &Error{Kind: KindMalformedOutput, Err: ErrEmptyResponse}
	}

	result, err := ParseResult([]byte(text))
	if err != nil {
		var ve *Error
		if !errors.As(err, &ve) {
			err = &Error{Kind: KindMalformedOutput, Err: err}
		}
		g.logger.Debug("unparseable model output", "model", g.model, "bytes", len(text))
		return nil, err
	}

	g.logger.Debug("analysis received",
		"model", g.model,
		"findings", len(result.Findings),
		"placeable", result.PlaceableCount(),
	)
	return result, nil
}

// responseSchema describes the JSON object requested in the prompt.
func responseSchema() *genai.Schema {
	number := &genai.Schema{Type: genai.TypeNumber}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"executive_summary": {Type: genai.TypeString},
			"annotations": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":             {Type: genai.TypeInteger},
						"text":           {Type: genai.TypeString},
						"description":    {Type: genai.TypeString},
						"recommendation": {Type: genai.TypeString},
						"label_pos":      {Type: genai.TypeArray, Items: number},
						"target_pos":     {Type: genai.TypeArray, Items: number},
					},
					Required: []string{"id", "text", "description", "recommendation", "label_pos", "target_pos"},
				},
			},
		},
		Required: []string{"executive_summary", "annotations"},
	}
}
