package grading

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiGrader is the backup grading endpoint, tried only on the final retry
// iteration once the primary has exhausted its attempts.
type GeminiGrader struct {
	apiKey string
	model  string
}

func NewGeminiGrader(apiKey, model string) *GeminiGrader {
	return &GeminiGrader{
		apiKey: strings.TrimSpace(apiKey),
		model:  strings.TrimSpace(model),
	}
}

func (g *GeminiGrader) Name() string { return "gemini" }

func (g *GeminiGrader) Grade(ctx context.Context, req Request) (*Response, error) {
	if g.apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.model)
	temp := float32(0.2)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(gradingSystemPrompt(req))},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(gradingUserPrompt(req)))
	if err != nil {
		return nil, fmt.Errorf("gemini grading call: %w", err)
	}
	raw := firstText(resp)
	if raw == "" {
		return nil, errors.New("gemini returned no text")
	}
	return ParseResponse([]byte(raw))
}

func firstText(resp *genai.GenerateContentResponse) string {
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok && strings.TrimSpace(string(t)) != "" {
				return string(t)
			}
		}
	}
	return ""
}
