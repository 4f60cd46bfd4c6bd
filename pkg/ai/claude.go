package ai

import (
	"context"
	"log"

	"github.com/amo-ladoja/neriah/pkg/claude"
)

// ClaudeExtractor is the primary extraction provider
type ClaudeExtractor struct {
	client *claude.ClaudeService
}

func NewClaudeExtractor(client *claude.ClaudeService) *ClaudeExtractor {
	return &ClaudeExtractor{client: client}
}

func (c *ClaudeExtractor) ExtractFromEmail(ctx context.Context, email EmailContext) (*ExtractionResult, error) {
	log.Printf("[Claude] Extracting from email: %s", email.Subject)

	// Lower temperature for more consistent extraction
	raw, err := c.client.Complete(ctx, BuildExtractionPrompt(email), 2000, 0.3)
	if err != nil {
		return nil, err
	}

	result, err := ParseExtraction(raw)
	if err != nil {
		return nil, err
	}

	log.Printf("[Claude] Extracted %d items from email: %s", len(result.Items), email.Subject)
	return result, nil
}
