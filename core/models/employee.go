package models

import "time"

// Employee is the reference slice of the HR employee record the
// attendance subsystem needs: enough to map terminal emp codes back to
// people. Full employee CRUD lives in the administrative backend.
type Employee struct {
	EmployeeID int32  `gorm:"primaryKey;autoIncrement;column:employee_id" json:"id"`
	Code       string `gorm:"column:code;size:32;uniqueIndex" json:"code"`

	FirstName string  `gorm:"column:first_name" json:"firstName"`
	Surname   string  `gorm:"column:surname" json:"surname"`
	Email     *string `gorm:"column:email;index" json:"email,omitempty"`

	Status    string     `gorm:"column:status;size:16;default:'active'" json:"status"`
	StartDate *time.Time `gorm:"column:start_date;type:date" json:"startDate,omitempty"`
	EndDate   *time.Time `gorm:"column:end_date;type:date" json:"endDate,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP on update CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (Employee) TableName() string {
	return "employees"
}
