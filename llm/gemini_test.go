package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiGenerationConfigIsPerCall(t *testing.T) {
	g := &GeminiClient{model: &genai.GenerativeModel{}}

	first := g.generationModel(Options{MaxTokens: 128, Temperature: 0.2})
	require.NotNil(t, first.MaxOutputTokens)
	assert.Equal(t, int32(128), *first.MaxOutputTokens)
	assert.Equal(t, float32(0.2), *first.Temperature)

	// The shared model is untouched.
	assert.Nil(t, g.model.MaxOutputTokens)
	assert.Nil(t, g.model.Temperature)

	// A second call with different options does not alias the first copy.
	second := g.generationModel(Options{MaxTokens: 256, Temperature: 0.9})
	assert.Equal(t, int32(128), *first.MaxOutputTokens)
	assert.Equal(t, int32(256), *second.MaxOutputTokens)
}
