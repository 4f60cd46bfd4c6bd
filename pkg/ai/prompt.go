package ai

import (
	"fmt"
	"strings"
)

// maxBodyChars bounds the email body included in the prompt to control
// token cost
const maxBodyChars = 1000

const extractionPrompt = `You are an AI assistant that extracts actionable items from emails. Your job is to analyze an email and identify:

1. **Tasks**: Things that require action (reply needed, follow-ups, deadlines, action items)
2. **Receipts**: Invoices, purchase confirmations, payment receipts
3. **Meetings**: Meeting requests, calendar invites, scheduled calls

For each email, extract ALL actionable items and return them in a structured JSON format.

## Task Extraction Rules:
- Extract items that need a response or action
- Priority levels:
  - "urgent": Explicit urgency mentioned, immediate response needed
  - "high": Time-sensitive or from important contacts
  - "medium": Regular action items
  - "low": FYIs that might need eventual action

- Categories:
  - "reply": Needs a response/reply
  - "follow_up": Needs follow-up action
  - "deadline": Has a specific deadline
  - "action_required": Other action needed

## Receipt Extraction Rules:
- Look for: invoices, purchase confirmations, payment receipts
- Extract: vendor name, amount, currency, date, invoice number
- Categories: groceries, software, hardware, dining, travel, utilities, other
- Be precise with amounts (use numbers, not strings)

## Meeting Extraction Rules:
- Look for: meeting requests, calendar invites, scheduled calls
- Extract: title, date/time, duration, attendees
- Convert times to ISO format
- List attendee email addresses

## Confidence Scoring:
- 0.9-1.0: Very confident, clear and explicit
- 0.7-0.89: Confident, good indicators
- 0.5-0.69: Moderate, some ambiguity
- Below 0.5: Low confidence, might be false positive

## Output Format:
Return ONLY a valid JSON object with this structure:
{
  "items": [
    {
      "type": "task",
      "title": "Brief title",
      "description": "Detailed description",
      "priority": "high",
      "category": "reply",
      "confidence": 0.9
    },
    {
      "type": "receipt",
      "vendor": "Company Name",
      "amount": 99.99,
      "currency": "USD",
      "date": "2026-01-22",
      "category": "software",
      "invoiceNumber": "INV-12345",
      "confidence": 0.95
    },
    {
      "type": "meeting",
      "title": "Project sync",
      "dateTime": "2026-01-25T14:00:00Z",
      "duration": 30,
      "attendees": ["person@example.com"],
      "description": "Weekly project update",
      "confidence": 0.85
    }
  ],
  "summary": "Brief summary of what was extracted",
  "processingNotes": "Optional notes about extraction quality or ambiguities"
}

If an email has no actionable items, return:
{
  "items": [],
  "summary": "No actionable items found",
  "processingNotes": "This appears to be informational only"
}

Remember:
- Be conservative - only extract clear, actionable items
- Don't extract spam, newsletters, or promotional content
- Use confidence scores to indicate certainty
- Return ONLY valid JSON, no markdown or extra text`

// BuildExtractionPrompt renders the full single-turn prompt for one
// email, truncating the body to keep token cost bounded.
func BuildExtractionPrompt(email EmailContext) string {
	body := email.Body
	if len(body) > maxBodyChars {
		body = body[:maxBodyChars]
	}

	var sb strings.Builder
	sb.WriteString("From: " + email.From + "\n")
	sb.WriteString("Subject: " + email.Subject + "\n")
	sb.WriteString("Date: " + email.Date + "\n")
	sb.WriteString(fmt.Sprintf("Has Attachments: %t\n", email.HasAttachments))
	if len(email.Attachments) > 0 {
		parts := make([]string, 0, len(email.Attachments))
		for _, a := range email.Attachments {
			parts = append(parts, fmt.Sprintf("%s (%s)", a.Filename, a.MimeType))
		}
		sb.WriteString("Attachments: " + strings.Join(parts, ", ") + "\n")
	}
	sb.WriteString("\nBody:\n" + body)

	return extractionPrompt + "\n\n---\n\nAnalyze this email and extract actionable items:\n\n" + strings.TrimSpace(sb.String())
}
