package usecase

import (
	"strconv"
	"strings"

	itemdomain "github.com/amo-ladoja/neriah/internal/item/domain"
	syncdomain "github.com/amo-ladoja/neriah/internal/sync/domain"
	"github.com/amo-ladoja/neriah/pkg/ai"
)

// NormalizePriority is the single translation boundary between the
// extraction layer's priority vocabulary and the 4-value scheme the
// items table enforces. Unrecognized or missing values become medium.
func NormalizePriority(raw string) itemdomain.Priority {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "urgent":
		return itemdomain.PriorityUrgent
	case "high":
		return itemdomain.PriorityHigh
	case "medium", "normal":
		return itemdomain.PriorityMedium
	case "low":
		return itemdomain.PriorityLow
	default:
		return itemdomain.PriorityMedium
	}
}

// dedupeKey collapses near-duplicate candidates the extractor emits for
// one underlying action: same type plus same title (or vendor for
// receipts).
func dedupeKey(item ai.ExtractedItem) string {
	var name string
	switch v := item.(type) {
	case ai.ExtractedTask:
		name = v.Title
	case ai.ExtractedReceipt:
		name = v.Vendor
	case ai.ExtractedMeeting:
		name = v.Title
	}
	return item.ItemType() + ":" + name
}

// DedupeCandidates collapses candidates within one email's result that
// share a dedupe key, keeping the first occurrence. Candidates of
// different types never collapse into each other.
func DedupeCandidates(items []ai.ExtractedItem) []ai.ExtractedItem {
	seen := make(map[string]bool, len(items))
	deduped := make([]ai.ExtractedItem, 0, len(items))
	for _, item := range items {
		key := dedupeKey(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, item)
	}
	return deduped
}

// formatAmount renders a receipt amount without trailing zeros, so
// 99.99 prints as "99.99" and 15 as "15"
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// BuildItem maps one surviving extraction candidate plus its source
// email into a persistable Item
func BuildItem(candidate ai.ExtractedItem, email *syncdomain.ParsedEmail, userID, summary string) itemdomain.Item {
	senderName, senderEmail := syncdomain.SplitSender(email.From)

	item := itemdomain.Item{
		UserID:          userID,
		EmailID:         email.MessageID,
		Status:          itemdomain.StatusPending,
		Confidence:      candidate.ItemConfidence(),
		ExtractionNotes: summary,
		SenderName:      senderName,
		SenderEmail:     senderEmail,
		EmailSubject:    email.Subject,
		EmailSnippet:    email.Snippet,
		HasAttachment:   email.HasAttachments,
		AttachmentIDs:   email.AttachmentIDs(),
	}
	if !email.InternalDate.IsZero() {
		emailDate := email.InternalDate
		item.EmailDate = &emailDate
	}

	switch v := candidate.(type) {
	case ai.ExtractedTask:
		item.Category = itemdomain.CategoryTask
		item.Title = v.Title
		item.Description = v.Description
		item.Priority = NormalizePriority(v.Priority)

	case ai.ExtractedReceipt:
		item.Category = itemdomain.CategoryReceipt
		item.Title = "Receipt from " + v.Vendor
		item.Description = v.Currency + " " + formatAmount(v.Amount)
		item.Priority = itemdomain.PriorityMedium
		item.ReceiptCategory = v.Category
		item.ReceiptDetails = &itemdomain.ReceiptDetails{
			Vendor:        v.Vendor,
			Amount:        v.Amount,
			Currency:      v.Currency,
			Date:          v.Date,
			InvoiceNumber: v.InvoiceNumber,
		}
		if v.InvoiceNumber != "" {
			item.ExtractionNotes = item.ExtractionNotes + " | Invoice: " + v.InvoiceNumber
		}

	case ai.ExtractedMeeting:
		item.Category = itemdomain.CategoryMeeting
		item.Title = v.Title
		item.Description = v.Description
		// Meetings carry their urgency in the date, not the priority
		item.Priority = itemdomain.PriorityMedium

		attendees := v.Attendees
		if attendees == nil {
			attendees = []string{}
		}
		suggestedTimes := []string{}
		if v.DateTime != "" {
			suggestedTimes = []string{v.DateTime}
		}
		duration := v.Duration
		if duration <= 0 {
			duration = 60
		}
		item.MeetingDetails = &itemdomain.MeetingDetails{
			Attendees:       attendees,
			SuggestedTimes:  suggestedTimes,
			DurationMinutes: duration,
			Topic:           v.Title,
		}
	}

	return item
}
