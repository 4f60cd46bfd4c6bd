package repository

import (
	"errors"
	"time"

	itemdomain "github.com/amo-ladoja/neriah/internal/item/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// itemRepository implements ItemRepository interface
type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new instance of itemRepository
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{
		db: db,
	}
}

// InsertBatch persists the run's accumulated items in one transaction.
// The caller treats a failure as the whole batch failing; no partial
// recovery is attempted.
func (r *itemRepository) InsertBatch(items []itemdomain.Item) error {
	if len(items) == 0 {
		return nil
	}

	now := time.Now()
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
		items[i].CreatedAt = now
		items[i].UpdatedAt = now
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&items).Error
	})
}

func (r *itemRepository) FindExistingEmailIDs(userID string, emailIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(emailIDs) == 0 {
		return existing, nil
	}

	var found []string
	err := r.db.Model(&itemdomain.Item{}).
		Where("user_id = ? AND email_id IN ?", userID, emailIDs).
		Distinct().
		Pluck("email_id", &found).Error
	if err != nil {
		return nil, err
	}

	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}

func (r *itemRepository) List(userID string, filter ItemFilter) ([]itemdomain.Item, int64, error) {
	query := r.db.Model(&itemdomain.Item{}).Where("user_id = ?", userID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	} else {
		// Soft-deleted items stay out of listings unless asked for
		query = query.Where("status <> ?", itemdomain.StatusDeleted)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var items []itemdomain.Item
	err := query.Order("email_date DESC NULLS LAST, created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *itemRepository) FindByID(userID, itemID string) (*itemdomain.Item, error) {
	var item itemdomain.Item
	err := r.db.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindByIDs(userID string, itemIDs []string) ([]itemdomain.Item, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var items []itemdomain.Item
	err := r.db.Where("user_id = ? AND id IN ?", userID, itemIDs).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) Update(item *itemdomain.Item) error {
	item.UpdatedAt = time.Now()
	return r.db.Save(item).Error
}

func (r *itemRepository) DeleteAllByUser(userID string) (int64, error) {
	result := r.db.Where("user_id = ?", userID).Delete(&itemdomain.Item{})
	return result.RowsAffected, result.Error
}
