package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/internal/domain"
	"stocktally/internal/domain/counting"
	"stocktally/internal/infrastructure/http/v1/dto"
)

// CountingHandler handles HTTP requests for counting events.
type CountingHandler struct {
	*BaseHandler
	service *counting.Service
}

// NewCountingHandler creates a new counting handler.
func NewCountingHandler(base *BaseHandler, service *counting.Service) *CountingHandler {
	return &CountingHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *CountingHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := counting.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.Query("orderBy")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if status := c.Query("status"); status != "" && status != counting.StatusFilterAll {
		s := counting.EventStatus(status)
		filter.Status = &s
	}

	if eventType := c.Query("eventType"); eventType != "" {
		t := counting.EventType(eventType)
		filter.EventType = &t
	}

	if group := c.Query("abcGroup"); group != "" {
		g := counting.ABCGroup(group)
		filter.ABCGroup = &g
	}

	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.DateFrom = &parsed
		}
	}

	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      result.Items,
		TotalCount: int(result.TotalCount),
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

func (h *CountingHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	eventID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	event, err := h.service.GetByID(ctx, eventID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *CountingHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateEventRequest
	if !h.BindJSON(c, &req) {
		return
	}

	event := req.ToEntity()
	if err := h.service.Create(ctx, event); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

func (h *CountingHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	eventID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateEventRequest
	if !h.BindJSON(c, &req) {
		return
	}

	event, err := h.service.GetByID(ctx, eventID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(event)

	if err := h.service.Update(ctx, event); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *CountingHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	eventID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, eventID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Start materializes the counting sheet from the stock snapshot and moves
// the event to IN_PROGRESS.
func (h *CountingHandler) Start(c *gin.Context) {
	ctx := c.Request.Context()

	eventID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	event, err := h.service.Start(ctx, eventID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// Scan records one barcode scan.
func (h *CountingHandler) Scan(c *gin.Context) {
	ctx := c.Request.Context()

	eventID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.RecordScanRequest
	if !h.BindJSON(c, &req) {
		return
	}

	detail, err := h.service.RecordScan(ctx, eventID, req.Barcode)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ManualCount overwrites the counted quantity of one detail.
func (h *CountingHandler) ManualCount(c *gin.Context) {
	ctx := c.Request.Context()

	eventID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	detailID, err := id.Parse(c.Param("detailId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid detail id format"))
		return
	}

	var req dto.RecordManualCountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	detail, err := h.service.RecordManualCount(ctx, eventID, detailID, *req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Details returns the counting sheet, optionally filtered by a search query.
func (h *CountingHandler) Details(c *gin.Context) {
	ctx := c.Request.Context()

	eventID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	event, err := h.service.GetByID(ctx, eventID)
	if err != nil {
		h.Error(c, err)
		return
	}

	details := event.Details
	if query := c.Query("query"); query != "" {
		details = event.FilterDetails(query)
	}

	c.JSON(http.StatusOK, gin.H{"items": details, "totalCount": len(details)})
}

// Complete finishes the counting phase.
func (h *CountingHandler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

// Cancel aborts the event.
func (h *CountingHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

// ApproveDiscrepancy approves a pending discrepancy and returns the
// resulting adjustment.
func (h *CountingHandler) ApproveDiscrepancy(c *gin.Context) {
	ctx := c.Request.Context()

	eventID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	detailID, err := id.Parse(c.Param("detailId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid detail id format"))
		return
	}

	var req dto.ApproveDiscrepancyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	adjustment, err := h.service.ApproveDiscrepancy(ctx, eventID, detailID, counting.DiscrepancyReason(req.Reason), req.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, adjustment)
}

// RejectDiscrepancy rejects a pending discrepancy.
func (h *CountingHandler) RejectDiscrepancy(c *gin.Context) {
	ctx := c.Request.Context()

	eventID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	detailID, err := id.Parse(c.Param("detailId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid detail id format"))
		return
	}

	var req dto.RejectDiscrepancyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.RejectDiscrepancy(ctx, eventID, detailID, req.Notes); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "discrepancy rejected")
}

// Adjustments returns the adjustment trail of an event.
func (h *CountingHandler) Adjustments(c *gin.Context) {
	ctx := c.Request.Context()

	eventID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	adjustments, err := h.service.Adjustments(ctx, eventID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": adjustments, "totalCount": len(adjustments)})
}

// ApplyAdjustment marks an approved adjustment as applied to inventory.
func (h *CountingHandler) ApplyAdjustment(c *gin.Context) {
	ctx := c.Request.Context()

	adjID, err := id.Parse(c.Param("adjustmentId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid adjustment id format"))
		return
	}

	adjustment, err := h.service.ApplyAdjustment(ctx, adjID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, adjustment)
}

// Summary returns the summary report of an event.
func (h *CountingHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()

	eventID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	report, err := h.service.Summary(ctx, eventID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *CountingHandler) transition(c *gin.Context, op func(ctx context.Context, eventID id.ID) (*counting.CountingEvent, error)) {
	ctx := c.Request.Context()

	eventID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	event, err := op(ctx, eventID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// RegisterRoutes registers counting event routes.
func (h *CountingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	events := rg.Group("/counting-events")
	{
		events.GET("", h.List)
		events.POST("", h.Create)
		events.GET("/:id", h.Get)
		events.PUT("/:id", h.Update)
		events.DELETE("/:id", h.Delete)

		events.POST("/:id/start", h.Start)
		events.POST("/:id/complete", h.Complete)
		events.POST("/:id/cancel", h.Cancel)

		events.GET("/:id/details", h.Details)
		events.POST("/:id/scans", h.Scan)
		events.PUT("/:id/details/:detailId/count", h.ManualCount)

		events.POST("/:id/details/:detailId/approve", h.ApproveDiscrepancy)
		events.POST("/:id/details/:detailId/reject", h.RejectDiscrepancy)

		events.GET("/:id/adjustments", h.Adjustments)
		events.GET("/:id/summary", h.Summary)
	}

	rg.POST("/adjustments/:adjustmentId/apply", h.ApplyAdjustment)
}
