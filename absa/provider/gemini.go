package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// quadrupletResponseSchema constrains JSON mode output to the list the prompt describes.
var quadrupletResponseSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"Aspect":   {Type: genai.TypeString},
			"Opinion":  {Type: genai.TypeString},
			"Category": {Type: genai.TypeString},
			"Valence":  {Type: genai.TypeNumber},
			"Arousal":  {Type: genai.TypeNumber},
		},
		Required:         []string{"Aspect", "Opinion", "Category", "Valence", "Arousal"},
		PropertyOrdering: []string{"Aspect", "Opinion", "Category", "Valence", "Arousal"},
	},
}

// GeminiGenerator sends the prompt as a single user turn to the Gemini API.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	maxAttempts int

	// jsonMode asks the API for application/json constrained by quadrupletResponseSchema. Off by
	// default: the prompt alone already demands a bare JSON list.
	jsonMode bool
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string, maxAttempts int, jsonMode bool) (*GeminiGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("NewGeminiGenerator: api key is empty")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiGenerator: create client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model, maxAttempts: maxAttempts, jsonMode: jsonMode}, nil
}

func (g *GeminiGenerator) Model() string { return g.model }

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", errors.New("GeminiGenerator: client is nil")
	}
	var cfg *genai.GenerateContentConfig
	if g.jsonMode {
		cfg = &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   quadrupletResponseSchema,
		}
	}
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := CallWithRetry(ctx, g.maxAttempts, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil {
		return "", errors.New("gemini generate content: empty response")
	}
	return resp.Text(), nil
}
