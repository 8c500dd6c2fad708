package v1

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

const DefaultPageSize = 200

// TransactionDTO is one punch as the terminal server reports it.
// punch_time is in the terminal's local zone, upload_time is when the
// terminal pushed the record to the server.
type TransactionDTO struct {
	ID            int64    `json:"id"`
	EmpCode       string   `json:"emp_code"`
	PunchTime     string   `json:"punch_time"`
	PunchState    string   `json:"punch_state"`
	VerifyType    int      `json:"verify_type"`
	TerminalSN    string   `json:"terminal_sn"`
	TerminalAlias string   `json:"terminal_alias"`
	AreaAlias     string   `json:"area_alias"`
	Longitude     *float64 `json:"longitude"`
	Latitude      *float64 `json:"latitude"`
	UploadTime    string   `json:"upload_time"`
}

// TransactionPage is one page of the paginated transaction listing.
// Count is the server's point-in-time total for the whole date window,
// which is what lets the engine detect pages that appeared mid-run.
type TransactionPage struct {
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Count    int64            `json:"count"`
	Next     *string          `json:"next"`
	Data     []TransactionDTO `json:"data"`
}

// TotalPages derives the highest page number currently available.
func (p *TransactionPage) TotalPages() int {
	if p.PageSize <= 0 || p.Count <= 0 {
		return 0
	}
	return int((p.Count + int64(p.PageSize) - 1) / int64(p.PageSize))
}

type TransactionEndpoint struct {
	transport *Transport
}

// List fetches one page of punches for [since, now]. An empty Data
// slice past the last page signals end-of-data.
func (ep *TransactionEndpoint) List(ctx context.Context, since time.Time, page int) (*TransactionPage, error) {
	query := map[string]string{
		"start_time": since.Format("2006-01-02 15:04:05"),
		"page":       strconv.Itoa(page),
		"page_size":  strconv.Itoa(DefaultPageSize),
	}

	resp, err := ep.transport.Get(ctx, "/iclock/api/transactions/", query)
	if err != nil {
		return nil, err
	}

	var result TransactionPage
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, err
	}

	result.Page = page
	if result.PageSize == 0 {
		result.PageSize = DefaultPageSize
	}

	return &result, nil
}
