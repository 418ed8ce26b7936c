package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/tidwall/gjson"
)

const DefaultOpenAIModel = "gpt-5-mini"

// openAIQuadruplet mirrors the per-candidate object the prompt asks for.
type openAIQuadruplet struct {
	Aspect   string  `json:"Aspect"`
	Opinion  string  `json:"Opinion"`
	Category string  `json:"Category"`
	Valence  float64 `json:"Valence"`
	Arousal  float64 `json:"Arousal"`
}

// Strict structured output needs an object root, so the list is wrapped.
type openAIQuadrupletList struct {
	Quadruplets []openAIQuadruplet `json:"quadruplets"`
}

var quadrupletListSchema = GenerateSchema[openAIQuadrupletList]()

// OpenAIGenerator calls the Responses API with a strict JSON schema and hands back the bare
// candidate array.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	maxAttempts int
}

func NewOpenAIGenerator(apiKey, model string, maxAttempts int, opts ...option.RequestOption) (*OpenAIGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("NewOpenAIGenerator: api key is empty")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	// Retries are owned by CallWithRetry.
	base := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	client := openai.NewClient(append(base, opts...)...)
	return &OpenAIGenerator{client: &client, model: model, maxAttempts: maxAttempts}, nil
}

func (g *OpenAIGenerator) Model() string { return g.model }

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", errors.New("OpenAIGenerator: client is nil")
	}
	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "QuadrupletList",
			Schema:      quadrupletListSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Sentiment quadruplets extracted from one review"),
			Type:        "json_schema",
		},
	}
	params := responses.ResponseNewParams{
		Model: g.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := CallWithRetry(ctx, g.maxAttempts, func(ctx context.Context) (*responses.Response, error) {
		return g.client.Responses.New(ctx, params)
	})
	if err != nil {
		return "", fmt.Errorf("openai responses: %w", err)
	}
	return unwrapQuadrupletList(resp.OutputText()), nil
}

// unwrapQuadrupletList returns the inner array of {"quadruplets": [...]}. Anything else is returned
// unchanged so the decoder can report it.
func unwrapQuadrupletList(out string) string {
	trimmed := strings.TrimSpace(out)
	if !gjson.Valid(trimmed) {
		return out
	}
	inner := gjson.Get(trimmed, "quadruplets")
	if !inner.Exists() || !inner.IsArray() {
		return out
	}
	return inner.Raw
}
