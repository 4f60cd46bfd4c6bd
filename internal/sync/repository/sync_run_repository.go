package repository

import (
	"errors"
	"time"

	syncdomain "github.com/amo-ladoja/neriah/internal/sync/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SyncRunRepository defines persistence for sync run records
type SyncRunRepository interface {
	Create(run *syncdomain.SyncRun) error
	MarkSuccess(runID string, emailsProcessed, itemsCreated, itemsUpdated int) error
	MarkFailed(runID string, errMsg string) error
	FindByID(runID string) (*syncdomain.SyncRun, error)
	ListByUser(userID string, limit int) ([]syncdomain.SyncRun, error)
	FindLatestByUser(userID string) (*syncdomain.SyncRun, error)
	DeleteAllByUser(userID string) error
}

// syncRunRepository implements SyncRunRepository interface
type syncRunRepository struct {
	db *gorm.DB
}

// NewSyncRunRepository creates a new instance of syncRunRepository
func NewSyncRunRepository(db *gorm.DB) SyncRunRepository {
	return &syncRunRepository{
		db: db,
	}
}

func (r *syncRunRepository) Create(run *syncdomain.SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.Status = syncdomain.SyncStatusRunning
	run.StartedAt = time.Now()
	run.CreatedAt = time.Now()
	return r.db.Create(run).Error
}

// MarkSuccess records terminal success counts. A run reaches a terminal
// status exactly once; later writes to the same row are a bug upstream.
func (r *syncRunRepository) MarkSuccess(runID string, emailsProcessed, itemsCreated, itemsUpdated int) error {
	now := time.Now()
	return r.db.Model(&syncdomain.SyncRun{}).Where("id = ?", runID).Updates(map[string]interface{}{
		"status":           syncdomain.SyncStatusSuccess,
		"emails_processed": emailsProcessed,
		"items_created":    itemsCreated,
		"items_updated":    itemsUpdated,
		"completed_at":     now,
	}).Error
}

func (r *syncRunRepository) MarkFailed(runID string, errMsg string) error {
	now := time.Now()
	return r.db.Model(&syncdomain.SyncRun{}).Where("id = ?", runID).Updates(map[string]interface{}{
		"status":        syncdomain.SyncStatusFailed,
		"error_message": errMsg,
		"completed_at":  now,
	}).Error
}

func (r *syncRunRepository) FindByID(runID string) (*syncdomain.SyncRun, error) {
	var run syncdomain.SyncRun
	err := r.db.Where("id = ?", runID).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (r *syncRunRepository) ListByUser(userID string, limit int) ([]syncdomain.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []syncdomain.SyncRun
	err := r.db.Where("user_id = ?", userID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *syncRunRepository) FindLatestByUser(userID string) (*syncdomain.SyncRun, error) {
	var run syncdomain.SyncRun
	err := r.db.Where("user_id = ?", userID).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// DeleteAllByUser removes every sync run of a user
func (r *syncRunRepository) DeleteAllByUser(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&syncdomain.SyncRun{}).Error
}
