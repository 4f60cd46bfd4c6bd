package ai

import (
	"context"
)

// AttachmentInfo is the attachment metadata included in the prompt
type AttachmentInfo struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
}

// EmailContext is the slice of a parsed email given to the extractor
type EmailContext struct {
	From           string
	Subject        string
	Body           string
	Date           string
	HasAttachments bool
	Attachments    []AttachmentInfo
}

// ExtractedItem is the closed union of extraction candidates. The
// concrete types are ExtractedTask, ExtractedReceipt and
// ExtractedMeeting.
type ExtractedItem interface {
	ItemType() string
	ItemConfidence() float64
}

type ExtractedTask struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
}

func (t ExtractedTask) ItemType() string { return "task" }
func (t ExtractedTask) ItemConfidence() float64 { return t.Confidence }

type ExtractedReceipt struct {
	Vendor        string  `json:"vendor"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Date          string  `json:"date"`
	Category      string  `json:"category"`
	InvoiceNumber string  `json:"invoiceNumber,omitempty"`
	Confidence    float64 `json:"confidence"`
}

func (r ExtractedReceipt) ItemType() string { return "receipt" }
func (r ExtractedReceipt) ItemConfidence() float64 { return r.Confidence }

type ExtractedMeeting struct {
	Title       string   `json:"title"`
	DateTime    string   `json:"dateTime"`
	Duration    int      `json:"duration"`
	Attendees   []string `json:"attendees"`
	Description string   `json:"description"`
	Confidence  float64  `json:"confidence"`
}

func (m ExtractedMeeting) ItemType() string { return "meeting" }
func (m ExtractedMeeting) ItemConfidence() float64 { return m.Confidence }

// ExtractionResult is one email's worth of extraction output
type ExtractionResult struct {
	Items           []ExtractedItem
	Summary         string
	ProcessingNotes string
}

// Extractor is the interface for AI extraction providers.
// Implement this interface to add new providers (Claude, OpenAI, etc.)
type Extractor interface {
	ExtractFromEmail(ctx context.Context, email EmailContext) (*ExtractionResult, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderClaude ProviderType = "claude"
	ProviderOpenAI ProviderType = "openai"
	ProviderAuto   ProviderType = "auto"
)

// FilterByConfidence keeps items scoring at or above the threshold
func FilterByConfidence(items []ExtractedItem, threshold float64) []ExtractedItem {
	filtered := make([]ExtractedItem, 0, len(items))
	for _, item := range items {
		if item.ItemConfidence() >= threshold {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
