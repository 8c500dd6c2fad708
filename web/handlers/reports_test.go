package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportEndpointsRequireBucket(t *testing.T) {
	r := newTestRouter(&Endpoint{})

	for _, target := range []string{"/reports", "/reports/download?key=x.xlsx"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "report bucket is not configured")
	}
}

func TestDownloadReportRequiresKey(t *testing.T) {
	r := newTestRouter(&Endpoint{ReportBucket: "aerocrew-reports"})

	req := httptest.NewRequest(http.MethodGet, "/reports/download", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "key query param is required")
}
