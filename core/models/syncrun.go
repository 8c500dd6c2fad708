package models

import "time"

const (
	SyncRunStatusInProcess = "in_process"
	SyncRunStatusSuccess   = "success"
	SyncRunStatusFailed    = "failed"
)

// SyncRun is one invocation cycle of the attendance synchronization
// engine. Active is true while the run is in_process and NULL once
// closed, so the unique index admits at most one live run.
type SyncRun struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	RequestedSince time.Time  `gorm:"column:requested_since;type:date;not null" json:"requestedSince"`
	StartedAt      time.Time  `gorm:"column:started_at;not null" json:"startedAt"`
	EndedAt        *time.Time `gorm:"column:ended_at" json:"endedAt,omitempty"`
	Deadline       *time.Time `gorm:"column:deadline" json:"deadline,omitempty"`

	Status    string `gorm:"column:status;type:varchar(16);not null;default:'in_process'" json:"status"`
	PageCount int    `gorm:"column:page_count;not null;default:0" json:"pageCount"`
	ItemCount int    `gorm:"column:item_count;not null;default:0" json:"itemCount"`

	Active *bool `gorm:"column:active;uniqueIndex" json:"-"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP on update CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (SyncRun) TableName() string {
	return "assist_sync_runs"
}
