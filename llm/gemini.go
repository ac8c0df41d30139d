package llm

import (
	"context"
	"os"

	"github.com/google/generative-ai-go/genai"
	"github.com/mwillems/devassist/errors"
	"google.golang.org/api/option"
)

// GeminiClient is a completion client for the Google Gemini API.
type GeminiClient struct {
	model *genai.GenerativeModel
}

// NewGeminiClient creates a new GeminiClient.
// It requires the GEMINI_API_KEY environment variable to be set.
func NewGeminiClient(ctx context.Context, modelName string) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create genai client")
	}

	return &GeminiClient{model: client.GenerativeModel(modelName)}, nil
}

// generationModel returns a per-call copy of the shared model with the
// request options applied. The shared model is never written, so concurrent
// sessions cannot race on its generation config.
func (g *GeminiClient) generationModel(opts Options) *genai.GenerativeModel {
	maxTokens := int32(opts.MaxTokens)
	temperature := float32(opts.Temperature)
	model := *g.model
	model.MaxOutputTokens = &maxTokens
	model.Temperature = &temperature
	return &model
}

// Complete sends the rendered transcript as a single prompt part.
func (g *GeminiClient) Complete(ctx context.Context, transcript string, opts Options) (string, error) {
	resp, err := g.generationModel(opts).GenerateContent(ctx, genai.Text(transcript))
	if err != nil {
		return "", errors.WithKind(errors.KindBackendUnavailable,
			errors.Wrapf(err, "failed to send message to Gemini"))
	}

	var text string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text += string(t)
			}
		}
	}
	return text, nil
}
