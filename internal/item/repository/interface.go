package repository

import (
	itemdomain "github.com/amo-ladoja/neriah/internal/item/domain"
)

// ItemFilter narrows List results. Zero values mean "no filter".
type ItemFilter struct {
	Status   string
	Category string
	Priority string
	Limit    int
	Offset   int
}

// ItemRepository defines persistence for extracted items
type ItemRepository interface {
	// InsertBatch persists all items in one transaction; either every
	// row lands or none do
	InsertBatch(items []itemdomain.Item) error

	// FindExistingEmailIDs returns which of the given email ids
	// already have at least one item for this user
	FindExistingEmailIDs(userID string, emailIDs []string) (map[string]bool, error)

	List(userID string, filter ItemFilter) ([]itemdomain.Item, int64, error)
	FindByID(userID, itemID string) (*itemdomain.Item, error)
	FindByIDs(userID string, itemIDs []string) ([]itemdomain.Item, error)
	Update(item *itemdomain.Item) error
	DeleteAllByUser(userID string) (int64, error)
}
