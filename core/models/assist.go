package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Assist is one attendance punch pulled from a biometric terminal.
// Natural identity is (emp_code, terminal_sn, punch_time): re-fetching a
// page or overlapping date ranges must upsert, never duplicate.
type Assist struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	EmployeeCode string `gorm:"column:emp_code;size:32;not null;uniqueIndex:idx_assists_identity,priority:1" json:"empCode"`
	EmployeeID   *int32 `gorm:"column:employee_id;index" json:"employeeId,omitempty"`

	TerminalSN    string `gorm:"column:terminal_sn;size:64;not null;uniqueIndex:idx_assists_identity,priority:2" json:"terminalSn"`
	TerminalAlias string `gorm:"column:terminal_alias;size:128" json:"terminalAlias"`
	AreaAlias     string `gorm:"column:area_alias;size:128" json:"areaAlias"`

	Latitude  *float64 `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"column:longitude" json:"longitude,omitempty"`

	// PunchTime is the device-reported time in the terminal's zone,
	// PunchTimeUTC the normalized instant used by downstream calculators.
	PunchTime    time.Time  `gorm:"column:punch_time;not null;uniqueIndex:idx_assists_identity,priority:3" json:"punchTime"`
	PunchTimeUTC time.Time  `gorm:"column:punch_time_utc;index" json:"punchTimeUtc"`
	UploadTime   *time.Time `gorm:"column:upload_time" json:"uploadTime,omitempty"`

	PunchState string `gorm:"column:punch_state;size:8" json:"punchState"`
	VerifyType int    `gorm:"column:verify_type" json:"verifyType"`

	RunID      uint `gorm:"column:run_id;index" json:"runId"`
	PageNumber int  `gorm:"column:page_number" json:"pageNumber"`

	Active  bool           `gorm:"column:active;not null;default:true" json:"active"`
	Payload datatypes.JSON `gorm:"column:payload" json:"-"`

	CreatedAt time.Time      `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP on update CURRENT_TIMESTAMP" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Assist) TableName() string {
	return "assists"
}
