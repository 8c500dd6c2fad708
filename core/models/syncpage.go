package models

import "time"

const (
	SyncPageStatusPending = "pending"
	SyncPageStatusSynced  = "synced"
)

// SyncPage is one remote page fetched within a run. A row is written as
// synced in the same transaction as its punches and the run counters, so
// a page whose persistence failed leaves no row at all. Rows are never
// deleted.
type SyncPage struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	RunID      uint `gorm:"column:run_id;not null;uniqueIndex:idx_sync_pages_run_page,priority:1" json:"runId"`
	PageNumber int  `gorm:"column:page_number;not null;uniqueIndex:idx_sync_pages_run_page,priority:2" json:"pageNumber"`

	Status    string `gorm:"column:status;type:varchar(16);not null;default:'pending'" json:"status"`
	ItemCount int    `gorm:"column:item_count;not null;default:0" json:"itemCount"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP on update CURRENT_TIMESTAMP" json:"updatedAt"`

	Run SyncRun `gorm:"foreignKey:RunID;references:ID" json:"-"`
}

func (SyncPage) TableName() string {
	return "assist_sync_pages"
}
