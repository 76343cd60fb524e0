package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mrinal-mann/superteacher-backend/internal/domain"
)

// OpenAIExtractor reads images with a multimodal chat model.
type OpenAIExtractor struct {
	api   *openai.Client
	model string
}

func NewOpenAIExtractor(apiKey, baseURL, model string) *OpenAIExtractor {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIExtractor{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

func (e *OpenAIExtractor) ExtractText(ctx context.Context, img Input, hint string) (string, error) {
	url := img.URL
	if url == "" {
		if len(img.Data) == 0 {
			return "", errors.New("image has neither URL nor data")
		}
		mime := img.MIME
		if mime == "" {
			mime = "image/jpeg"
		}
		url = fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(img.Data))
	}
	if hint == "" {
		hint = HintQuestionPaper
	}

	resp, err := e.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: hint},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: url},
					},
				},
			},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("vision API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("vision API returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", domain.ErrEmptyExtraction
	}
	return text, nil
}
