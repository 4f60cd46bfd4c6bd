package ai

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseExtraction validates and decodes the model's raw response into
// an ExtractionResult. Markdown code fences are stripped first since
// models occasionally wrap JSON despite instructions. Items with an
// unknown type or missing required fields fail the whole parse; the
// caller treats that as a zero-item extraction for the email.
func ParseExtraction(raw string) (*ExtractionResult, error) {
	jsonText := strings.TrimSpace(raw)
	if strings.HasPrefix(jsonText, "```") {
		jsonText = strings.ReplaceAll(jsonText, "```json", "")
		jsonText = strings.ReplaceAll(jsonText, "```", "")
		jsonText = strings.TrimSpace(jsonText)
	}

	if !gjson.Valid(jsonText) {
		return nil, fmt.Errorf("response is not valid JSON")
	}

	root := gjson.Parse(jsonText)
	itemsField := root.Get("items")
	if !itemsField.Exists() || !itemsField.IsArray() {
		return nil, fmt.Errorf("response missing items array")
	}

	result := &ExtractionResult{
		Summary:         root.Get("summary").String(),
		ProcessingNotes: root.Get("processingNotes").String(),
	}

	var parseErr error
	itemsField.ForEach(func(_, item gjson.Result) bool {
		parsed, err := parseItem(item)
		if err != nil {
			parseErr = err
			return false
		}
		result.Items = append(result.Items, parsed)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return result, nil
}

func parseItem(item gjson.Result) (ExtractedItem, error) {
	itemType := item.Get("type").String()
	confidence := item.Get("confidence")
	if !confidence.Exists() {
		return nil, fmt.Errorf("item of type %q missing confidence", itemType)
	}

	switch itemType {
	case "task":
		if item.Get("title").String() == "" {
			return nil, fmt.Errorf("task item missing title")
		}
		return ExtractedTask{
			Title:       item.Get("title").String(),
			Description: item.Get("description").String(),
			Priority:    item.Get("priority").String(),
			Category:    item.Get("category").String(),
			Confidence:  confidence.Float(),
		}, nil

	case "receipt":
		if item.Get("vendor").String() == "" {
			return nil, fmt.Errorf("receipt item missing vendor")
		}
		amount := item.Get("amount")
		if amount.Type != gjson.Number {
			return nil, fmt.Errorf("receipt item amount is not a number")
		}
		return ExtractedReceipt{
			Vendor:        item.Get("vendor").String(),
			Amount:        amount.Float(),
			Currency:      item.Get("currency").String(),
			Date:          item.Get("date").String(),
			Category:      item.Get("category").String(),
			InvoiceNumber: item.Get("invoiceNumber").String(),
			Confidence:    confidence.Float(),
		}, nil

	case "meeting":
		if item.Get("title").String() == "" {
			return nil, fmt.Errorf("meeting item missing title")
		}
		var attendees []string
		for _, a := range item.Get("attendees").Array() {
			attendees = append(attendees, a.String())
		}
		return ExtractedMeeting{
			Title:       item.Get("title").String(),
			DateTime:    item.Get("dateTime").String(),
			Duration:    int(item.Get("duration").Int()),
			Attendees:   attendees,
			Description: item.Get("description").String(),
			Confidence:  confidence.Float(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown item type %q", itemType)
	}
}
