package ai

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackExtractor routes extraction between providers:
// Claude first (better structured output), fallback to OpenAI on quota
// or connection errors.
type FallbackExtractor struct {
	claude Extractor
	openai Extractor
}

// NewFallbackExtractor creates a new fallback extractor with both providers
func NewFallbackExtractor(claude, openai Extractor) *FallbackExtractor {
	return &FallbackExtractor{
		claude: claude,
		openai: openai,
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if _, ok := err.(net.Error); ok {
		return true
	}

	errStr := err.Error()
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"EOF",
	}

	for _, indicator := range connectionIndicators {
		if strings.Contains(strings.ToLower(errStr), strings.ToLower(indicator)) {
			return true
		}
	}

	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"overloaded",
		"resource exhausted",
	}

	for _, indicator := range quotaIndicators {
		if strings.Contains(strings.ToLower(errStr), strings.ToLower(indicator)) {
			return true
		}
	}

	return false
}

// ExtractFromEmail tries Claude first, falls back to OpenAI on quota or
// connection error
func (f *FallbackExtractor) ExtractFromEmail(ctx context.Context, email EmailContext) (*ExtractionResult, error) {
	if f.claude != nil {
		result, err := f.claude.ExtractFromEmail(ctx, email)
		if err == nil {
			return result, nil
		}

		if isQuotaError(err) {
			log.Printf("[AI] Claude quota exhausted: %v, falling back to OpenAI", err)
		} else {
			log.Printf("[AI] Claude error: %v, falling back to OpenAI", err)
		}
	}

	if f.openai != nil {
		result, err := f.openai.ExtractFromEmail(ctx, email)
		if err == nil {
			return result, nil
		}

		// If OpenAI also fails with connection error, try Claude again
		if isConnectionError(err) && f.claude != nil {
			log.Printf("[AI] OpenAI connection failed: %v, retrying Claude", err)
			return f.claude.ExtractFromEmail(ctx, email)
		}

		return nil, fmt.Errorf("openai extraction failed: %w", err)
	}

	return nil, fmt.Errorf("no AI provider available for extraction")
}
