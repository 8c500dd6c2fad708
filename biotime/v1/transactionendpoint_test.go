package v1

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransactionList(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()

		fmt.Fprint(w, `{
			"count": 112,
			"next": "http://example/iclock/api/transactions/?page=3",
			"data": [
				{"id": 101, "emp_code": "E001", "punch_time": "2026-01-02 08:30:00",
				 "punch_state": "0", "verify_type": 1, "terminal_sn": "T100",
				 "terminal_alias": "Hangar A", "area_alias": "Maintenance",
				 "upload_time": "2026-01-02 08:30:05"}
			]
		}`)
	}))
	defer server.Close()

	client := NewBioTimeClient(server.URL, "secret-token")
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	page, err := client.Transactions.List(context.Background(), since, 2)
	assert.NoError(t, err)

	assert.Equal(t, "/iclock/api/transactions/", gotPath)
	assert.Equal(t, "Token secret-token", gotAuth)
	assert.Equal(t, "2026-01-01 00:00:00", gotQuery["start_time"][0])
	assert.Equal(t, "2", gotQuery["page"][0])

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, int64(112), page.Count)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, "E001", page.Data[0].EmpCode)
	assert.Equal(t, "Hangar A", page.Data[0].TerminalAlias)
}

func TestTransactionListServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "detail: invalid token", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewBioTimeClient(server.URL, "bad-token")
	_, err := client.Transactions.List(context.Background(), time.Now(), 1)

	assert.ErrorContains(t, err, "401")
	assert.ErrorContains(t, err, "invalid token")
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name     string
		count    int64
		pageSize int
		expected int
	}{
		{"empty window", 0, 50, 0},
		{"exact multiple", 100, 50, 2},
		{"partial last page", 112, 50, 3},
		{"single short page", 12, 50, 1},
		{"unknown page size", 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := TransactionPage{Count: tt.count, PageSize: tt.pageSize}
			assert.Equal(t, tt.expected, p.TotalPages())
		})
	}
}
