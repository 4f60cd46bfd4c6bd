package domain

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Category classifies an extracted item. Task-like categories share the
// task payload; receipt/invoice carry ReceiptDetails; meeting carries
// MeetingDetails.
type Category string

const (
	CategoryReply    Category = "reply"
	CategoryFollowUp Category = "follow_up"
	CategoryDeadline Category = "deadline"
	CategoryReview   Category = "review"
	CategoryTask     Category = "task"
	CategoryReceipt  Category = "receipt"
	CategoryInvoice  Category = "invoice"
	CategoryMeeting  Category = "meeting"
)

// Priority is the canonical 4-value scheme the items table enforces.
// The extraction layer may answer with a 3-value scheme; the item
// normalizer translates before anything is persisted.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Status is the item lifecycle state. Items are never physically
// deleted by the pipeline; "deleted" is a status transition.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusSnoozed   Status = "snoozed"
	StatusDeleted   Status = "deleted"
)

// Feedback is the thumbs-up/down a user can leave on an item
type Feedback string

const (
	FeedbackPositive Feedback = "positive"
	FeedbackNegative Feedback = "negative"
)

// StringArray stores a JSON array in a text column
type StringArray []string

// Value implements driver.Valuer
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = []string{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	if len(bytes) == 0 {
		*a = []string{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// ReceiptDetails is the receipt-specific payload, stored as JSON
type ReceiptDetails struct {
	Vendor        string  `json:"vendor"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Date          string  `json:"date,omitempty"`
	InvoiceNumber string  `json:"invoiceNumber,omitempty"`
}

// Value implements driver.Valuer
func (d ReceiptDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner
func (d *ReceiptDetails) Scan(value interface{}) error {
	return scanJSON(value, d)
}

// MeetingDetails is the meeting-specific payload, stored as JSON
type MeetingDetails struct {
	Attendees       []string `json:"attendees"`
	SuggestedTimes  []string `json:"suggestedTimes"`
	DurationMinutes int      `json:"duration"`
	Location        string   `json:"location,omitempty"`
	Topic           string   `json:"topic,omitempty"`
}

// Value implements driver.Valuer
func (d MeetingDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner
func (d *MeetingDetails) Scan(value interface{}) error {
	return scanJSON(value, d)
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, dest)
}

// Item is one actionable unit extracted from one email. Created only by
// the sync pipeline; mutated afterwards by user actions.
type Item struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"index:idx_items_user_email;not null"`
	// EmailID is the Gmail message id. Once any item exists for an
	// email, later runs skip that email entirely; one run may still
	// create several items of different categories for it.
	EmailID string `json:"email_id" gorm:"index:idx_items_user_email;not null"`

	Title       string   `json:"title" gorm:"not null"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category" gorm:"index;not null"`
	Priority    Priority `json:"priority" gorm:"default:medium"`
	Status      Status   `json:"status" gorm:"index;default:pending"`

	Confidence      float64    `json:"confidence"`
	ExtractionNotes string     `json:"extraction_notes,omitempty" gorm:"type:text"`
	DueDate         *time.Time `json:"due_date,omitempty"`

	ReceiptDetails  *ReceiptDetails `json:"receipt_details,omitempty" gorm:"type:text"`
	ReceiptCategory string          `json:"receipt_category,omitempty"`

	MeetingDetails  *MeetingDetails `json:"meeting_details,omitempty" gorm:"type:text"`
	CalendarEventID string          `json:"calendar_event_id,omitempty"`

	SenderName    string      `json:"sender_name,omitempty"`
	SenderEmail   string      `json:"sender_email,omitempty"`
	EmailSubject  string      `json:"email_subject,omitempty"`
	EmailSnippet  string      `json:"email_snippet,omitempty" gorm:"type:text"`
	EmailDate     *time.Time  `json:"email_date,omitempty"`
	HasAttachment bool        `json:"has_attachment" gorm:"default:false"`
	AttachmentIDs StringArray `json:"attachment_ids,omitempty" gorm:"type:text"`

	UserFeedback    Feedback   `json:"user_feedback,omitempty"`
	FeedbackComment string     `json:"feedback_comment,omitempty"`
	FeedbackAt      *time.Time `json:"feedback_at,omitempty"`
	SnoozedUntil    *time.Time `json:"snoozed_until,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Item) TableName() string {
	return "items"
}

// IsTaskLike reports whether the category carries the task payload
func (c Category) IsTaskLike() bool {
	switch c {
	case CategoryReply, CategoryFollowUp, CategoryDeadline, CategoryReview, CategoryTask:
		return true
	}
	return false
}

// IsReceiptLike reports whether the category carries ReceiptDetails
func (c Category) IsReceiptLike() bool {
	return c == CategoryReceipt || c == CategoryInvoice
}
