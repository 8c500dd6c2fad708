package core

import (
	"errors"
	"fmt"
	"time"

	"aerocrew.com/aerocrew/core/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func ConnectDB(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		panic(fmt.Sprintf("failed to connect to DB from GORM: %v", err))
	}
	return db
}

func FindEmployeeByCode(db *gorm.DB, code string) (*models.Employee, error) {
	var emp models.Employee
	result := db.Where(&models.Employee{Code: code}).First(&emp)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil // not found
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &emp, nil
}

// LoadEmployeeCodeMap loads every employee keyed by terminal code. The
// sync engine resolves punches against this map instead of issuing one
// lookup per record.
func LoadEmployeeCodeMap(db *gorm.DB) (map[string]models.Employee, error) {
	var employees []models.Employee
	if err := db.Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch employees: %w", err)
	}

	codeMap := make(map[string]models.Employee, len(employees))
	for _, e := range employees {
		if e.Code != "" {
			codeMap[e.Code] = e
		}
	}
	return codeMap, nil
}

// SearchAssists returns active punches for the employee/date-range
// filters used by the attendance calendar and incident calculators.
func SearchAssists(db *gorm.DB, employeeIDs []int32, start, end time.Time, limit, offset int) ([]models.Assist, int64, error) {
	query := db.Model(&models.Assist{}).
		Where("active = ?", true).
		Where("punch_time_utc >= ? AND punch_time_utc < ?", start, end.AddDate(0, 0, 1))

	if len(employeeIDs) > 0 {
		query = query.Where("employee_id IN ?", employeeIDs)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assists: %w", err)
	}

	var assists []models.Assist
	err := query.
		Order("punch_time_utc, emp_code").
		Limit(limit).
		Offset(offset).
		Find(&assists).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search assists: %w", err)
	}

	return assists, total, nil
}
