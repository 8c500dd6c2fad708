package attendance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	v1 "aerocrew.com/aerocrew/biotime/v1"
	"aerocrew.com/aerocrew/core/models"
	"aerocrew.com/aerocrew/utils"
	"github.com/stretchr/testify/assert"
)

// fakeStore is an in-memory SyncStore mirroring the Ledger's counter
// semantics, so engine behavior can be tested without a database.
type fakeStore struct {
	run      *models.SyncRun
	existing *models.SyncRun
	lastPage *models.SyncPage

	pageItems map[int]int
	punches   map[string]models.Assist
	synced    []int

	rejectInProgress bool
	failMarkPage     int
	afterMark        func(page int)

	closedStatus string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		pageItems: map[int]int{},
		punches:   map[string]models.Assist{},
	}
}

func (s *fakeStore) GetLastPage() (*models.SyncPage, error) {
	return s.lastPage, nil
}

func (s *fakeStore) GetCurrentOrNewRun(since time.Time, deadline *time.Time) (*models.SyncRun, error) {
	if s.rejectInProgress {
		return nil, ErrRunInProgress
	}
	if s.existing != nil {
		s.run = s.existing
		return s.existing, nil
	}
	s.run = &models.SyncRun{
		ID:             1,
		RequestedSince: since,
		StartedAt:      time.Now(),
		Deadline:       deadline,
		Status:         models.SyncRunStatusInProcess,
		Active:         utils.Ptr(true),
	}
	return s.run, nil
}

func (s *fakeStore) MarkPageSynced(run *models.SyncRun, pageNumber int, punches []models.Assist) error {
	if s.failMarkPage == pageNumber {
		return errors.New("forced persistence failure")
	}
	for _, p := range punches {
		key := fmt.Sprintf("%s|%s|%s", p.EmployeeCode, p.TerminalSN, p.PunchTime.Format(time.RFC3339))
		s.punches[key] = p
	}
	if old, ok := s.pageItems[pageNumber]; ok {
		run.ItemCount += len(punches) - old
	} else {
		run.PageCount++
		run.ItemCount += len(punches)
	}
	s.pageItems[pageNumber] = len(punches)
	s.synced = append(s.synced, pageNumber)
	s.lastPage = &models.SyncPage{
		RunID:      run.ID,
		PageNumber: pageNumber,
		Status:     models.SyncPageStatusSynced,
		ItemCount:  len(punches),
		Run:        *run,
	}
	if s.afterMark != nil {
		s.afterMark(pageNumber)
	}
	return nil
}

func (s *fakeStore) CloseRun(run *models.SyncRun, status string) error {
	run.Status = status
	now := time.Now()
	run.EndedAt = &now
	run.Active = nil
	s.closedStatus = status
	return nil
}

// scriptedSource replays a fixed sequence of page responses and records
// which page numbers the engine asked for.
type scriptedSource struct {
	responses []sourceResponse
	calls     []int
}

type sourceResponse struct {
	page *v1.TransactionPage
	err  error
}

func (s *scriptedSource) List(ctx context.Context, since time.Time, page int) (*v1.TransactionPage, error) {
	s.calls = append(s.calls, page)
	if len(s.responses) == 0 {
		return &v1.TransactionPage{Page: page, PageSize: v1.DefaultPageSize}, nil
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	if next.err != nil {
		return nil, next.err
	}
	next.page.Page = page
	return next.page, nil
}

func makeTxns(n int, startID int64) []v1.TransactionDTO {
	txns := make([]v1.TransactionDTO, 0, n)
	for i := 0; i < n; i++ {
		id := startID + int64(i)
		txns = append(txns, v1.TransactionDTO{
			ID:         id,
			EmpCode:    fmt.Sprintf("E%03d", id%7),
			PunchTime:  time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute).Format("2006-01-02 15:04:05"),
			PunchState: "0",
			TerminalSN: "T100",
		})
	}
	return txns
}

func pageResp(pageSize int, count int64, txns []v1.TransactionDTO) sourceResponse {
	return sourceResponse{page: &v1.TransactionPage{
		PageSize: pageSize,
		Count:    count,
		Data:     txns,
	}}
}

func testSince() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestRunOnceSyncsAllPages(t *testing.T) {
	store := newFakeStore()
	source := &scriptedSource{responses: []sourceResponse{
		pageResp(50, 112, makeTxns(50, 1)),
		pageResp(50, 112, makeTxns(50, 51)),
		pageResp(50, 112, makeTxns(12, 101)),
		pageResp(50, 112, nil),
	}}

	engine := NewEngine(store, source)
	run, err := engine.RunOnce(context.Background(), testSince())

	assert.NoError(t, err)
	assert.Equal(t, models.SyncRunStatusSuccess, run.Status)
	assert.Equal(t, 3, run.PageCount)
	assert.Equal(t, 112, run.ItemCount)
	assert.Equal(t, []int{1, 2, 3, 4}, source.calls)
	assert.Equal(t, []int{1, 2, 3}, store.synced)
	assert.NotNil(t, run.EndedAt)
	assert.Nil(t, run.Active)
}

func TestRunOncePersistFailureKeepsEarlierPages(t *testing.T) {
	store := newFakeStore()
	store.failMarkPage = 2
	source := &scriptedSource{responses: []sourceResponse{
		pageResp(50, 112, makeTxns(50, 1)),
		pageResp(50, 112, makeTxns(50, 51)),
	}}

	engine := NewEngine(store, source)
	run, err := engine.RunOnce(context.Background(), testSince())

	assert.Error(t, err)
	assert.Equal(t, models.SyncRunStatusFailed, run.Status)
	assert.Equal(t, 1, run.PageCount)
	assert.Equal(t, 50, run.ItemCount)
	// page 1 survives, page 2 left no trace
	assert.Equal(t, []int{1}, store.synced)
	assert.Equal(t, 1, store.lastPage.PageNumber)
}

func TestRunOnceFetchFailureClosesRunFailed(t *testing.T) {
	store := newFakeStore()
	source := &scriptedSource{responses: []sourceResponse{
		pageResp(50, 112, makeTxns(50, 1)),
		{err: errors.New("connection reset")},
	}}

	engine := NewEngine(store, source)
	run, err := engine.RunOnce(context.Background(), testSince())

	assert.ErrorContains(t, err, "failed to fetch page 2")
	assert.Equal(t, models.SyncRunStatusFailed, run.Status)
	assert.Equal(t, 1, run.PageCount)
}

func TestRunOnceResumeAfterLastSyncedPage(t *testing.T) {
	since := testSince()
	prior := models.SyncRun{ID: 1, RequestedSince: since, Status: models.SyncRunStatusFailed}

	tests := []struct {
		name      string
		lastPage  *models.SyncPage
		wantFirst int
	}{
		{
			name:      "no ledger yet starts at 1",
			lastPage:  nil,
			wantFirst: 1,
		},
		{
			name: "continues after last synced page",
			lastPage: &models.SyncPage{
				RunID: 1, PageNumber: 2,
				Status: models.SyncPageStatusSynced, Run: prior,
			},
			wantFirst: 3,
		},
		{
			name: "retries a pending page",
			lastPage: &models.SyncPage{
				RunID: 1, PageNumber: 2,
				Status: models.SyncPageStatusPending, Run: prior,
			},
			wantFirst: 2,
		},
		{
			name: "different since window restarts at 1",
			lastPage: &models.SyncPage{
				RunID: 1, PageNumber: 4,
				Status: models.SyncPageStatusSynced,
				Run: models.SyncRun{
					ID:             1,
					RequestedSince: since.AddDate(0, -1, 0),
					Status:         models.SyncRunStatusSuccess,
				},
			},
			wantFirst: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.lastPage = tt.lastPage
			source := &scriptedSource{responses: []sourceResponse{
				pageResp(50, 0, nil),
			}}

			engine := NewEngine(store, source)
			_, err := engine.RunOnce(context.Background(), since)

			assert.NoError(t, err)
			assert.Equal(t, tt.wantFirst, source.calls[0])
		})
	}
}

func TestRunOnceTailGrowthSweepsOnceMore(t *testing.T) {
	store := newFakeStore()
	// Two full pages at start; while the pass runs the server count grows
	// to 112, so the empty page 3 response reports the larger count and
	// the engine re-fetches from the page that used to be last.
	source := &scriptedSource{responses: []sourceResponse{
		pageResp(50, 100, makeTxns(50, 1)),
		pageResp(50, 100, makeTxns(50, 51)),
		pageResp(50, 112, nil),
		pageResp(50, 112, makeTxns(50, 51)),
		pageResp(50, 112, makeTxns(12, 101)),
		pageResp(50, 112, nil),
	}}

	engine := NewEngine(store, source)
	run, err := engine.RunOnce(context.Background(), testSince())

	assert.NoError(t, err)
	assert.Equal(t, models.SyncRunStatusSuccess, run.Status)
	assert.Equal(t, []int{1, 2, 3, 2, 3, 4}, source.calls)
	// page 2 was re-synced, not duplicated
	assert.Equal(t, 3, run.PageCount)
	assert.Equal(t, 112, run.ItemCount)
	assert.Len(t, store.punches, 112)
}

func TestRunOnceDeadlineStopsBetweenPages(t *testing.T) {
	store := newFakeStore()
	source := &scriptedSource{responses: []sourceResponse{
		pageResp(50, 112, makeTxns(50, 1)),
		pageResp(50, 112, makeTxns(50, 51)),
	}}

	current := time.Date(2026, 1, 10, 3, 0, 0, 0, time.UTC)
	engine := NewEngine(store, source)
	engine.RunDeadline = 10 * time.Minute
	engine.Now = func() time.Time { return current }
	store.afterMark = func(page int) {
		current = current.Add(11 * time.Minute)
	}

	run, err := engine.RunOnce(context.Background(), testSince())

	assert.ErrorIs(t, err, ErrRunDeadlineExceeded)
	assert.Equal(t, models.SyncRunStatusFailed, run.Status)
	assert.Equal(t, []int{1}, source.calls)
	assert.Equal(t, 1, run.PageCount)
}

func TestRunOnceRejectedWhileRunInProgress(t *testing.T) {
	store := newFakeStore()
	store.rejectInProgress = true

	engine := NewEngine(store, &scriptedSource{})
	run, err := engine.RunOnce(context.Background(), testSince())

	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.Nil(t, run)
}

func TestConvert(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, &scriptedSource{})
	engine.Employees = map[string]models.Employee{
		"E001": {EmployeeID: 42, Code: "E001"},
	}
	run := &models.SyncRun{ID: 7}

	tests := []struct {
		name    string
		rec     v1.TransactionDTO
		check   func(t *testing.T, punch *models.Assist)
		wantErr bool
	}{
		{
			name: "known employee resolves id and converts zone",
			rec: v1.TransactionDTO{
				ID: 1, EmpCode: "E001", TerminalSN: "T100",
				PunchTime: "2026-01-02 08:30:00", PunchState: "0",
			},
			check: func(t *testing.T, punch *models.Assist) {
				assert.Equal(t, int32(42), *punch.EmployeeID)
				assert.Equal(t, uint(7), punch.RunID)
				// UTC+10 local time is 10 hours ahead of UTC
				assert.Equal(t, time.Date(2026, 1, 1, 22, 30, 0, 0, time.UTC), punch.PunchTimeUTC)
				assert.True(t, punch.Active)
				assert.NotEmpty(t, punch.Payload)
			},
		},
		{
			name: "unknown employee keeps nil id",
			rec: v1.TransactionDTO{
				ID: 2, EmpCode: "E999", TerminalSN: "T100",
				PunchTime: "2026-01-02 08:30:00",
			},
			check: func(t *testing.T, punch *models.Assist) {
				assert.Nil(t, punch.EmployeeID)
				assert.Equal(t, "E999", punch.EmployeeCode)
			},
		},
		{
			name: "iso punch_time accepted as fallback",
			rec: v1.TransactionDTO{
				ID: 3, EmpCode: "E001", TerminalSN: "T100",
				PunchTime: "2026-01-02T08:30:00+10:00",
			},
			check: func(t *testing.T, punch *models.Assist) {
				assert.Equal(t, time.Date(2026, 1, 1, 22, 30, 0, 0, time.UTC), punch.PunchTimeUTC)
			},
		},
		{
			name: "invalid punch_time rejected",
			rec: v1.TransactionDTO{
				ID: 4, EmpCode: "E001", PunchTime: "yesterday",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			punch, err := engine.convert(run, 1, tt.rec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			tt.check(t, punch)
		})
	}
}
