package ai

import (
	"context"
	"fmt"
	"log"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIExtractor is the fallback extraction provider
type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

func NewOpenAIExtractor(apiKey, model string) *OpenAIExtractor {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIExtractor{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (o *OpenAIExtractor) ExtractFromEmail(ctx context.Context, email EmailContext) (*ExtractionResult, error) {
	log.Printf("[OpenAI] Extracting from email: %s", email.Subject)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		MaxTokens:   2000,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildExtractionPrompt(email),
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	result, err := ParseExtraction(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	log.Printf("[OpenAI] Extracted %d items from email: %s", len(result.Items), email.Subject)
	return result, nil
}
