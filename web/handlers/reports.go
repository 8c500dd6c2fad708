package handlers

import (
	"fmt"
	"net/http"
	"path"

	"aerocrew.com/aerocrew/infrastructure/filesystem"
	web "aerocrew.com/aerocrew/web/common"
	"github.com/gin-gonic/gin"
)

// ListReports returns the keys of archived attendance reports.
func (ep *Endpoint) ListReports(c *gin.Context) {
	if ep.ReportBucket == "" {
		c.JSON(http.StatusServiceUnavailable, web.NewErrorResponse("report bucket is not configured"))
		return
	}

	keys, err := filesystem.ListFiles(ep.ReportBucket, c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(keys))
}

// DownloadReport streams one archived report by key.
func (ep *Endpoint) DownloadReport(c *gin.Context) {
	if ep.ReportBucket == "" {
		c.JSON(http.StatusServiceUnavailable, web.NewErrorResponse("report bucket is not configured"))
		return
	}

	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse("key query param is required"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := filesystem.ReadFile(ep.ReportBucket, key, c.Request.Context(), c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
	}
}
