package domain

import (
	"strings"
	"time"
)

// EmailAttachment describes one attachment discovered on a message
type EmailAttachment struct {
	Filename     string `json:"filename"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	AttachmentID string `json:"attachment_id,omitempty"`
}

// ParsedEmail is the canonical form of one raw Gmail message, the input
// to the extraction step. Malformed provider fields degrade to empty
// strings rather than errors.
type ParsedEmail struct {
	MessageID      string            `json:"message_id"`
	ThreadID       string            `json:"thread_id"`
	From           string            `json:"from"`
	To             string            `json:"to"`
	Subject        string            `json:"subject"`
	Date           string            `json:"date"`
	Snippet        string            `json:"snippet"`
	Body           string            `json:"body"`
	HasAttachments bool              `json:"has_attachments"`
	Attachments    []EmailAttachment `json:"attachments"`
	InternalDate   time.Time         `json:"internal_date"`
}

// AttachmentIDs returns the non-empty attachment ids in message order
func (e *ParsedEmail) AttachmentIDs() []string {
	ids := make([]string, 0, len(e.Attachments))
	for _, a := range e.Attachments {
		if a.AttachmentID != "" {
			ids = append(ids, a.AttachmentID)
		}
	}
	return ids
}

// SplitSender splits a From header into display name and address.
// "Jane Doe <jane@x.com>" yields ("Jane Doe", "jane@x.com"); a bare
// address yields itself for both.
func SplitSender(from string) (name, email string) {
	open := strings.Index(from, "<")
	close := strings.Index(from, ">")
	if open >= 0 && close > open {
		email = strings.TrimSpace(from[open+1 : close])
		name = strings.TrimSpace(from[:open] + from[close+1:])
		name = strings.ReplaceAll(name, `"`, "")
		name = strings.TrimSpace(name)
	} else {
		email = strings.TrimSpace(from)
	}
	if name == "" {
		name = email
	}
	return name, email
}
