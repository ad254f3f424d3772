package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/internal/domain/counting"
	"stocktally/internal/infrastructure/http/v1/dto"
)

// ScheduleHandler handles HTTP requests for counting schedules.
type ScheduleHandler struct {
	*BaseHandler
	service *counting.ScheduleService
}

// NewScheduleHandler creates a new schedule handler.
func NewScheduleHandler(base *BaseHandler, service *counting.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *ScheduleHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var filter counting.ScheduleListFilter
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	if kind := c.Query("kind"); kind != "" {
		k := counting.ScheduleKind(kind)
		filter.Kind = &k
	}
	if eventType := c.Query("eventType"); eventType != "" {
		t := counting.EventType(eventType)
		filter.EventType = &t
	}
	if active := c.Query("active"); active != "" {
		val := active == "true"
		filter.Active = &val
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

func (h *ScheduleHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	schedID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	sched, err := h.service.GetByID(ctx, schedID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, sched)
}

func (h *ScheduleHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateScheduleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sched := req.ToEntity()
	if err := h.service.Create(ctx, sched); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, sched)
}

func (h *ScheduleHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	schedID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateScheduleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sched, err := h.service.GetByID(ctx, schedID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(sched)

	if err := h.service.Update(ctx, sched); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, sched)
}

func (h *ScheduleHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	schedID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, schedID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// RunDue triggers schedule processing immediately and returns the events
// it created. Normally the background ticker does this.
func (h *ScheduleHandler) RunDue(c *gin.Context) {
	ctx := c.Request.Context()

	events, err := h.service.RunDue(ctx, time.Now().UTC())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": events, "totalCount": len(events)})
}

// RegisterRoutes registers schedule routes.
func (h *ScheduleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	schedules := rg.Group("/counting-schedules")
	{
		schedules.GET("", h.List)
		schedules.POST("", h.Create)
		schedules.GET("/:id", h.Get)
		schedules.PUT("/:id", h.Update)
		schedules.DELETE("/:id", h.Delete)
		schedules.POST("/run-due", h.RunDue)
	}
}
