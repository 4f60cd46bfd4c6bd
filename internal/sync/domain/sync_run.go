package domain

import "time"

// SyncType is the trigger mode of one orchestrator invocation
type SyncType string

const (
	SyncTypeInitial   SyncType = "initial"
	SyncTypeManual    SyncType = "manual"
	SyncTypeScheduled SyncType = "scheduled"
)

// SyncStatus is the run state. A run is created running and transitions
// to a terminal state exactly once.
type SyncStatus string

const (
	SyncStatusRunning SyncStatus = "running"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
)

// SyncRun is the run log: one row per orchestrator invocation
type SyncRun struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	UserID          string     `json:"user_id" gorm:"index;not null"`
	SyncType        SyncType   `json:"sync_type" gorm:"not null"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	EmailsProcessed int        `json:"emails_processed"`
	ItemsCreated    int        `json:"items_created"`
	ItemsUpdated    int        `json:"items_updated"`
	Status          SyncStatus `json:"status" gorm:"index;default:running"`
	ErrorMessage    string     `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TableName specifies the table name for GORM
func (SyncRun) TableName() string {
	return "sync_runs"
}

// SweepReport aggregates one scheduled sweep across all eligible users
type SweepReport struct {
	UsersProcessed      int `json:"usersProcessed"`
	Successful          int `json:"successful"`
	Failed              int `json:"failed"`
	TotalItemsExtracted int `json:"totalItemsExtracted"`
}
