package grading

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGrader is the primary grading collaborator: a JSON-mode chat
// completion against an OpenAI-compatible endpoint.
type OpenAIGrader struct {
	api   *openai.Client
	model string
}

func NewOpenAIGrader(apiKey, baseURL, model string) *OpenAIGrader {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIGrader{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

func (g *OpenAIGrader) Name() string { return "openai" }

func (g *OpenAIGrader) Grade(ctx context.Context, req Request) (*Response, error) {
	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: gradingSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: gradingUserPrompt(req)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("grading API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("grading API returned no choices")
	}
	return ParseResponse([]byte(resp.Choices[0].Message.Content))
}

func gradingSystemPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are an experienced school teacher grading a student's written answer.\n")
	fmt.Fprintf(&b, "The answer is out of %d marks.\n", req.MaxMarks)
	if req.Approach != "" {
		fmt.Fprintf(&b, "Grading approach: %s.\n", req.Approach)
	}
	if req.Instruction != "" {
		fmt.Fprintf(&b, "Teacher's instruction: %s\n", req.Instruction)
	}
	b.WriteString(`Respond with a JSON object containing exactly these fields:
"score" (number, 0 to max marks), "feedback" (string), "strengths" (array of strings),
"areas_for_improvement" (array of strings), "suggested_points" (array of strings),
"is_relevant" (boolean; false only if the answer does not address the question at all).`)
	return b.String()
}

func gradingUserPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("QUESTION:\n")
	b.WriteString(req.QuestionContext)
	b.WriteString("\n\nSTUDENT ANSWER:\n")
	b.WriteString(req.StudentAnswer)
	return b.String()
}
