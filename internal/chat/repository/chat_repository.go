package repository

import (
	"strings"

	chatdomain "github.com/amo-ladoja/neriah/internal/chat/domain"
	itemdomain "github.com/amo-ladoja/neriah/internal/item/domain"

	"gorm.io/gorm"
)

// ChatRepository runs the filtered lookups behind chat answers
type ChatRepository interface {
	SearchItems(userID string, query chatdomain.ItemQuery) ([]itemdomain.Item, error)
	SearchReceipts(userID string, query chatdomain.ReceiptQuery) ([]itemdomain.Item, error)
}

// chatRepository implements ChatRepository interface
type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new instance of chatRepository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{
		db: db,
	}
}

func (r *chatRepository) SearchItems(userID string, query chatdomain.ItemQuery) ([]itemdomain.Item, error) {
	q := r.db.Model(&itemdomain.Item{}).
		Where("user_id = ?", userID).
		Where("status = ?", itemdomain.StatusPending)

	if len(query.Categories) > 0 {
		q = q.Where("category IN ?", query.Categories)
	}
	if query.Priority != "" {
		q = q.Where("priority = ?", query.Priority)
	}
	if query.DateRange != nil {
		q = q.Where("email_date >= ? AND email_date <= ?", query.DateRange.Start, query.DateRange.End)
	}

	// One OR group across all keywords and all searchable columns
	if len(query.Keywords) > 0 {
		var conds []string
		var args []interface{}
		for _, keyword := range query.Keywords {
			pattern := "%" + keyword + "%"
			conds = append(conds, "(title ILIKE ? OR description ILIKE ? OR sender_name ILIKE ? OR sender_email ILIKE ? OR email_subject ILIKE ?)")
			args = append(args, pattern, pattern, pattern, pattern, pattern)
		}
		q = q.Where(strings.Join(conds, " OR "), args...)
	}

	for _, neg := range query.Negations {
		pattern := "%" + neg + "%"
		q = q.Where("title NOT ILIKE ? AND email_subject NOT ILIKE ? AND sender_name NOT ILIKE ? AND sender_email NOT ILIKE ?",
			pattern, pattern, pattern, pattern)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 5
	}

	var items []itemdomain.Item
	err := q.Order("email_date DESC, created_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *chatRepository) SearchReceipts(userID string, query chatdomain.ReceiptQuery) ([]itemdomain.Item, error) {
	q := r.db.Model(&itemdomain.Item{}).
		Where("user_id = ?", userID).
		Where("status = ?", itemdomain.StatusPending).
		Where("category IN ?", []string{string(itemdomain.CategoryReceipt), string(itemdomain.CategoryInvoice)}).
		Where("email_date >= ? AND email_date <= ?", query.DateRange.Start, query.DateRange.End)

	if query.ReceiptCategory != "" {
		q = q.Where("receipt_category = ?", query.ReceiptCategory)
	}

	// receipt_details is a JSON text column; reach into it for the
	// vendor name
	if query.Vendor != "" {
		q = q.Where("receipt_details::jsonb ->> 'vendor' ILIKE ?", "%"+query.Vendor+"%")
	}

	for _, neg := range query.Negations {
		pattern := "%" + neg + "%"
		q = q.Where("(receipt_details::jsonb ->> 'vendor') NOT ILIKE ? AND email_subject NOT ILIKE ?", pattern, pattern)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 5
	}

	var items []itemdomain.Item
	err := q.Order("email_date DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
