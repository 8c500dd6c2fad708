package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"aerocrew.com/aerocrew/attendance"
	"aerocrew.com/aerocrew/core"
	web "aerocrew.com/aerocrew/web/common"
	"github.com/gin-gonic/gin"
)

const maxSearchLimit = 1000

// clampPagination keeps limit within [1, maxSearchLimit] and offset
// non-negative. A negative limit would otherwise reach GORM as "no
// limit" and turn the search into an unbounded scan.
func clampPagination(limitStr, offsetStr string) (int, int) {
	limit := maxSearchLimit
	if val, err := strconv.Atoi(limitStr); err == nil && val > 0 {
		limit = val
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	offset := 0
	if val, err := strconv.Atoi(offsetStr); err == nil && val > 0 {
		offset = val
	}
	return limit, offset
}

type PunchSearchParams struct {
	StartDate *web.DateOnly `json:"startDate" binding:"required"`
	EndDate   *web.DateOnly `json:"endDate" binding:"required"`
	Employees []int32       `json:"employees"`
}

// SearchPunches serves the attendance-calendar and incident calculators:
// active punches filtered by employee and date range, paginated.
func (ep *Endpoint) SearchPunches(c *gin.Context) {
	var params PunchSearchParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	limit, offset := clampPagination(c.Query("limit"), c.Query("offset"))

	db, err := ep.Dm.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	assists, total, err := core.SearchAssists(db, params.Employees, params.StartDate.Time, params.EndDate.Time, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSearchResponse(assists, total))
}

// ExportPunches streams the same query as an xlsx workbook.
func (ep *Endpoint) ExportPunches(c *gin.Context) {
	start := c.Query("startDate")
	end := c.Query("endDate")
	if start == "" || end == "" {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse("startDate and endDate query params are required"))
		return
	}

	startDate, err := parseDate(start)
	if err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(err.Error()))
		return
	}
	endDate, err := parseDate(end)
	if err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(err.Error()))
		return
	}

	db, err := ep.Dm.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	f, err := attendance.BuildPunchReport(db, nil, startDate, endDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	if ep.ReportBucket != "" {
		key, err := attendance.ArchiveReport(c.Request.Context(), f, ep.ReportBucket, endDate)
		if err != nil {
			// Archiving is best-effort; the download still proceeds.
			fmt.Printf("[WARN] failed to archive report: %v\n", err)
		} else {
			c.Header("X-Report-Key", key)
		}
	}

	filename := fmt.Sprintf("punches-%s-%s.xlsx", start, end)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
	}
}
