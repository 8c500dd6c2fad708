package handlers

import (
	"fmt"
	"time"

	"aerocrew.com/aerocrew/core"
	"github.com/gin-gonic/gin"
)

// Endpoint groups the attendance API handlers around their shared
// database pool and terminal configuration.
type Endpoint struct {
	Dm *core.DatabaseManager

	// BioTimeURL and BioTimeToken configure the terminal API used by
	// the manual sync trigger. Timezone is the terminal's local zone.
	BioTimeURL   string
	BioTimeToken string
	Timezone     string

	// ReportBucket is the S3 bucket exported reports are archived to.
	// Empty disables archiving and the report browse endpoints.
	ReportBucket string
}

func NewEndpoint(dm *core.DatabaseManager, bioTimeURL string, bioTimeToken string, timezone string, reportBucket string) *Endpoint {
	return &Endpoint{
		Dm:           dm,
		BioTimeURL:   bioTimeURL,
		BioTimeToken: bioTimeToken,
		Timezone:     timezone,
		ReportBucket: reportBucket,
	}
}

func (ep *Endpoint) Register(group *gin.RouterGroup) {
	group.POST("punches/search", ep.SearchPunches)
	group.GET("punches/export", ep.ExportPunches)
	group.GET("reports", ep.ListReports)
	group.GET("reports/download", ep.DownloadReport)
	group.GET("runs", ep.ListRuns)
	group.GET("runs/:id/pages", ep.ListRunPages)
	group.POST("sync", ep.TriggerSync)
}

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected yyyy-MM-dd", value)
	}
	return date, nil
}
