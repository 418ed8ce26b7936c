// Package provider adapts hosted text-generation APIs to absa.Generator.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/theimaginaryfoundation/dimabsa/absa"
)

const (
	Gemini = "gemini"
	OpenAI = "openai"
)

// Names lists the supported -provider values.
func Names() []string { return []string{Gemini, OpenAI} }

// Options selects and configures one provider.
type Options struct {
	Provider    string
	Model       string
	APIKey      string
	MaxAttempts int

	// JSONMode only applies to Gemini.
	JSONMode bool
}

// Generator is what New returns: an absa.Generator that also reports its resolved model name.
type Generator interface {
	absa.Generator
	Model() string
}

// Normalize maps a -provider value to its canonical name; "" selects Gemini.
func Normalize(name string) (string, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "", Gemini:
		return Gemini, nil
	case OpenAI:
		return OpenAI, nil
	default:
		return "", fmt.Errorf("unknown provider %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
}

// New builds the generator named by opts.Provider.
func New(ctx context.Context, opts Options) (Generator, error) {
	name, err := Normalize(opts.Provider)
	if err != nil {
		return nil, err
	}
	if name == OpenAI {
		return NewOpenAIGenerator(opts.APIKey, opts.Model, opts.MaxAttempts)
	}
	return NewGeminiGenerator(ctx, opts.APIKey, opts.Model, opts.MaxAttempts, opts.JSONMode)
}
