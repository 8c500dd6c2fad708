package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	v1 "aerocrew.com/aerocrew/biotime/v1"
	"aerocrew.com/aerocrew/core/models"
	"aerocrew.com/aerocrew/utils"
	"gorm.io/datatypes"
)

// ErrRunDeadlineExceeded closes a run as failed when its soft time-box
// expires between pages; the next invocation resumes where it stopped.
var ErrRunDeadlineExceeded = errors.New("sync run deadline exceeded")

// Source is the remote attendance listing the engine pulls from; the
// BioTime transaction endpoint satisfies it.
type Source interface {
	List(ctx context.Context, since time.Time, page int) (*v1.TransactionPage, error)
}

// SyncStore is the durable bookkeeping contract the engine drives; the
// GORM Ledger is the production implementation.
type SyncStore interface {
	GetLastPage() (*models.SyncPage, error)
	GetCurrentOrNewRun(since time.Time, deadline *time.Time) (*models.SyncRun, error)
	MarkPageSynced(run *models.SyncRun, pageNumber int, punches []models.Assist) error
	CloseRun(run *models.SyncRun, status string) error
}

// Engine orchestrates one run of the attendance synchronization: pick
// the resume point, pull pages in strictly increasing order, persist
// each page exactly once and extend coverage when the remote source
// grows a new tail page mid-run.
type Engine struct {
	Store     SyncStore
	Source    Source
	Employees map[string]models.Employee

	// Location is the zone terminals report punch_time in.
	Location *time.Location

	// RunDeadline, when non-zero, time-boxes new runs.
	RunDeadline time.Duration

	Now func() time.Time
}

func NewEngine(store SyncStore, source Source) *Engine {
	return &Engine{
		Store:    store,
		Source:   source,
		Location: time.FixedZone("UTC+10", 10*60*60),
		Now:      time.Now,
	}
}

// RunOnce synchronizes all remote pages covering [sinceDate, now]. A
// zero since inherits the prior run's requestedSince. The returned run
// carries the final status and counters; partial progress survives a
// failed run and the next invocation resumes after the last synced page.
func (e *Engine) RunOnce(ctx context.Context, since time.Time) (*models.SyncRun, error) {
	var deadline *time.Time
	if e.RunDeadline > 0 {
		deadline = utils.Ptr(e.Now().Add(e.RunDeadline))
	}

	run, err := e.Store.GetCurrentOrNewRun(since, deadline)
	if err != nil {
		return nil, err
	}

	startPage, err := e.resolveStartPage(run)
	if err != nil {
		closeErr := e.Store.CloseRun(run, models.SyncRunStatusFailed)
		return run, errors.Join(err, closeErr)
	}

	syncErr := e.syncPages(ctx, run, startPage)

	status := models.SyncRunStatusSuccess
	if syncErr != nil {
		status = models.SyncRunStatusFailed
	}
	if closeErr := e.Store.CloseRun(run, status); closeErr != nil {
		return run, errors.Join(syncErr, closeErr)
	}
	return run, syncErr
}

// resolveStartPage picks the resume point from the ledger: retry a page
// a prior run left pending, continue after the last synced page, or
// start at 1. Page numbers are only comparable within one since-window,
// so a run covering a different requestedSince restarts at page 1.
func (e *Engine) resolveStartPage(run *models.SyncRun) (int, error) {
	last, err := e.Store.GetLastPage()
	if err != nil {
		return 0, err
	}
	if last == nil {
		return 1, nil
	}
	if !last.Run.RequestedSince.IsZero() && !last.Run.RequestedSince.Equal(run.RequestedSince) {
		return 1, nil
	}
	if last.Status == models.SyncPageStatusPending {
		return last.PageNumber, nil
	}
	return last.PageNumber + 1, nil
}

// syncPages is the main loop plus the bounded tail re-check: when the
// remote page count grew past the snapshot taken at the start of a pass,
// one more pass re-fetches from the page that used to be last. Upsert by
// natural identity absorbs the overlap.
func (e *Engine) syncPages(ctx context.Context, run *models.SyncRun, startPage int) error {
	page := startPage
	remotePagesAtStart := -1

	for {
		if run.Deadline != nil && e.Now().After(*run.Deadline) {
			return ErrRunDeadlineExceeded
		}

		tp, err := e.Source.List(ctx, run.RequestedSince, page)
		if err != nil {
			return fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		if remotePagesAtStart < 0 {
			remotePagesAtStart = tp.TotalPages()
		}

		if len(tp.Data) == 0 {
			// End of data. The empty response still carries the
			// current page count; if terminals uploaded while this
			// pass ran, sweep the tail once more from the page that
			// was last when the pass began.
			if grown := tp.TotalPages(); grown > remotePagesAtStart && remotePagesAtStart > 0 {
				page = remotePagesAtStart
				remotePagesAtStart = grown
				continue
			}
			return nil
		}

		punches, err := e.convertPage(run, page, tp.Data)
		if err != nil {
			return fmt.Errorf("failed to decode page %d: %w", page, err)
		}
		if err := e.Store.MarkPageSynced(run, page, punches); err != nil {
			return fmt.Errorf("failed to persist page %d: %w", page, err)
		}
		page++
	}
}

func (e *Engine) convertPage(run *models.SyncRun, pageNumber int, records []v1.TransactionDTO) ([]models.Assist, error) {
	punches := make([]models.Assist, 0, len(records))
	for _, rec := range records {
		punch, err := e.convert(run, pageNumber, rec)
		if err != nil {
			return nil, err
		}
		punches = append(punches, *punch)
	}
	return punches, nil
}

func (e *Engine) convert(run *models.SyncRun, pageNumber int, rec v1.TransactionDTO) (*models.Assist, error) {
	punchTime, err := time.ParseInLocation("2006-01-02 15:04:05", rec.PunchTime, e.Location)
	if err != nil {
		t, perr := utils.ParseISOTime(rec.PunchTime)
		if perr != nil {
			return nil, fmt.Errorf("transaction %d has invalid punch_time %q: %w", rec.ID, rec.PunchTime, err)
		}
		punchTime = *t
	}

	var uploadTime *time.Time
	if rec.UploadTime != "" {
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", rec.UploadTime, e.Location); err == nil {
			uploadTime = &t
		}
	}

	punch := models.Assist{
		EmployeeCode:  rec.EmpCode,
		TerminalSN:    rec.TerminalSN,
		TerminalAlias: rec.TerminalAlias,
		AreaAlias:     rec.AreaAlias,
		Latitude:      rec.Latitude,
		Longitude:     rec.Longitude,
		PunchTime:     punchTime,
		PunchTimeUTC:  punchTime.UTC(),
		UploadTime:    uploadTime,
		PunchState:    rec.PunchState,
		VerifyType:    rec.VerifyType,
		RunID:         run.ID,
		PageNumber:    pageNumber,
		Active:        true,
	}

	if emp, ok := e.Employees[rec.EmpCode]; ok {
		punch.EmployeeID = utils.Ptr(emp.EmployeeID)
	}

	if raw, err := json.Marshal(rec); err == nil {
		punch.Payload = datatypes.JSON(raw)
	}

	return &punch, nil
}
