package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"aerocrew.com/aerocrew/attendance"
	v1 "aerocrew.com/aerocrew/biotime/v1"
	"aerocrew.com/aerocrew/core"
	"aerocrew.com/aerocrew/core/models"
	web "aerocrew.com/aerocrew/web/common"
	"github.com/gin-gonic/gin"
)

// ListRuns returns the sync run ledger, newest first.
func (ep *Endpoint) ListRuns(c *gin.Context) {
	limit := 50
	if val, err := strconv.Atoi(c.Query("limit")); err == nil {
		limit = val
	}

	db, err := ep.Dm.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	var runs []models.SyncRun
	if err := db.Order("id DESC").Limit(limit).Find(&runs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(runs))
}

// ListRunPages returns the page ledger of one run in page order.
func (ep *Endpoint) ListRunPages(c *gin.Context) {
	runID, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse("invalid run id"))
		return
	}

	db, err := ep.Dm.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	var pages []models.SyncPage
	if err := db.Where("run_id = ?", runID).Order("page_number").Find(&pages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(pages))
}

type TriggerSyncParams struct {
	Since *web.DateOnly `json:"since"`
}

// TriggerSync kicks off a synchronization run inline. A run already in
// flight is reported as a conflict rather than joined.
func (ep *Endpoint) TriggerSync(c *gin.Context) {
	var params TriggerSyncParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	db, err := ep.Dm.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	employees, err := core.LoadEmployeeCodeMap(db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	client := v1.NewBioTimeClient(ep.BioTimeURL, ep.BioTimeToken)
	engine := attendance.NewEngine(attendance.NewLedger(db), client.Transactions)
	engine.Employees = employees
	if ep.Timezone != "" {
		if loc, err := time.LoadLocation(ep.Timezone); err == nil {
			engine.Location = loc
		}
	}

	var since time.Time
	if params.Since != nil {
		since = params.Since.Time
	}

	run, err := engine.RunOnce(c.Request.Context(), since)
	if errors.Is(err, attendance.ErrRunInProgress) {
		c.JSON(http.StatusConflict, web.NewErrorResponse("a sync run is already in progress"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(run))
}
