package attendance

import (
	"errors"
	"fmt"
	"time"

	"aerocrew.com/aerocrew/core/models"
	"aerocrew.com/aerocrew/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrRunInProgress is returned when another invocation already holds the
// live sync run. Callers treat it as "try again next cycle", not a failure.
var ErrRunInProgress = errors.New("attendance sync run already in process")

// assistRefreshColumns are the metadata columns refreshed when a punch
// with the same natural identity is fetched again.
var assistRefreshColumns = []string{
	"employee_id", "terminal_alias", "area_alias",
	"latitude", "longitude", "punch_time_utc", "upload_time",
	"punch_state", "verify_type", "run_id", "page_number", "payload",
}

// Ledger is the durable bookkeeping the sync engine reads to resume and
// writes as pages complete.
type Ledger struct {
	db *gorm.DB

	// StaleAfter is how long an in_process run may go without progress
	// before a new invocation adopts it instead of being rejected.
	StaleAfter time.Duration
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db, StaleAfter: 15 * time.Minute}
}

// GetLastPage returns the most recent SyncPage across the most recent
// run that recorded pages, with its owning run preloaded, or nil when no
// run has fetched anything yet.
func (l *Ledger) GetLastPage() (*models.SyncPage, error) {
	var page models.SyncPage
	err := l.db.Preload("Run").
		Order("run_id DESC, page_number DESC").
		First(&page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read last sync page: %w", err)
	}
	return &page, nil
}

// GetCurrentOrNewRun returns the in_process run if one exists, else a
// newly created one. A live run that made progress within StaleAfter
// causes ErrRunInProgress; a stale one (prior process crashed mid-run)
// is adopted so the invocation resumes it. since may be zero, in which
// case the prior run's requestedSince is inherited.
func (l *Ledger) GetCurrentOrNewRun(since time.Time, deadline *time.Time) (*models.SyncRun, error) {
	now := time.Now()

	var existing models.SyncRun
	err := l.db.Where("status = ?", models.SyncRunStatusInProcess).First(&existing).Error
	if err == nil {
		if now.Sub(existing.UpdatedAt) < l.StaleAfter {
			return nil, ErrRunInProgress
		}
		return l.adoptStaleRun(&existing, now, deadline)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to query current run: %w", err)
	}

	if since.IsZero() {
		var prior models.SyncRun
		err := l.db.Order("id DESC").First(&prior).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("sinceDate is required for the first sync run")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read prior run: %w", err)
		}
		since = prior.RequestedSince
	}

	run := models.SyncRun{
		RequestedSince: since,
		StartedAt:      now,
		Deadline:       deadline,
		Status:         models.SyncRunStatusInProcess,
		Active:         utils.Ptr(true),
	}
	if err := l.db.Create(&run).Error; err != nil {
		// The unique index on active admits one live run; losing the
		// creation race means another invocation claimed it first.
		var winner models.SyncRun
		if qerr := l.db.Where("status = ?", models.SyncRunStatusInProcess).First(&winner).Error; qerr == nil {
			return nil, ErrRunInProgress
		}
		return nil, fmt.Errorf("failed to create sync run: %w", err)
	}
	return &run, nil
}

// adoptStaleRun claims a stale in_process run with a compare-and-set on
// updated_at, so two invocations observing the same stale row cannot
// both adopt it and advance the same page numbers. The claim also gives
// the run a fresh deadline; the old one expired with the crashed owner.
func (l *Ledger) adoptStaleRun(run *models.SyncRun, now time.Time, deadline *time.Time) (*models.SyncRun, error) {
	res := l.db.Model(&models.SyncRun{}).
		Where("id = ? AND updated_at = ?", run.ID, run.UpdatedAt).
		Updates(map[string]interface{}{
			"updated_at": now,
			"deadline":   deadline,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to claim stale run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrRunInProgress
	}
	run.UpdatedAt = now
	run.Deadline = deadline
	return run, nil
}

// MarkPageSynced persists one completed page as a single unit of work:
// the punches, the synced page row and the run counters commit together
// or not at all. Re-syncing a page number the run already recorded (the
// tail re-check path) refreshes the row instead of duplicating it.
func (l *Ledger) MarkPageSynced(run *models.SyncRun, pageNumber int, punches []models.Assist) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		if len(punches) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "emp_code"}, {Name: "terminal_sn"}, {Name: "punch_time"},
				},
				DoUpdates: clause.AssignmentColumns(assistRefreshColumns),
			}).CreateInBatches(punches, 100).Error; err != nil {
				return fmt.Errorf("failed batch upsert of punches: %w", err)
			}
		}

		var page models.SyncPage
		err := tx.Where("run_id = ? AND page_number = ?", run.ID, pageNumber).First(&page).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			page = models.SyncPage{
				RunID:      run.ID,
				PageNumber: pageNumber,
				Status:     models.SyncPageStatusSynced,
				ItemCount:  len(punches),
			}
			if err := tx.Create(&page).Error; err != nil {
				return fmt.Errorf("failed to create sync page: %w", err)
			}
			run.PageCount++
			run.ItemCount += len(punches)
		case err != nil:
			return fmt.Errorf("failed to read sync page: %w", err)
		default:
			run.ItemCount += len(punches) - page.ItemCount
			page.Status = models.SyncPageStatusSynced
			page.ItemCount = len(punches)
			if err := tx.Save(&page).Error; err != nil {
				return fmt.Errorf("failed to update sync page: %w", err)
			}
		}

		return tx.Model(&models.SyncRun{}).Where("id = ?", run.ID).
			Updates(map[string]interface{}{
				"page_count": run.PageCount,
				"item_count": run.ItemCount,
			}).Error
	})
}

// CloseRun finalizes a run. Clearing active releases the unique index so
// the next invocation can claim a fresh run.
func (l *Ledger) CloseRun(run *models.SyncRun, status string) error {
	now := time.Now()
	err := l.db.Model(&models.SyncRun{}).Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"status":   status,
			"ended_at": now,
			"active":   nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to close sync run: %w", err)
	}
	run.Status = status
	run.EndedAt = &now
	run.Active = nil
	return nil
}
