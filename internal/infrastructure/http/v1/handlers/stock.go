package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/internal/domain/catalogs/stockitem"
	"stocktally/internal/infrastructure/http/v1/dto"
)

// StockHandler handles HTTP requests for the stock catalog.
type StockHandler struct {
	*BaseHandler
	service *stockitem.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stockitem.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *StockHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var filter stockitem.ListFilter
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.InStockOnly = c.Query("inStockOnly") == "true"

	if brand := c.Query("brand"); brand != "" {
		filter.Brand = &brand
	}
	if group := c.Query("productGroup"); group != "" {
		filter.ProductGroup = &group
	}
	if season := c.Query("season"); season != "" {
		filter.Season = &season
	}
	if abc := c.Query("abcGroup"); abc != "" {
		g := stockitem.ABCGroup(abc)
		filter.ABCGroup = &g
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

func (h *StockHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	item, err := h.service.GetByID(ctx, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// GetByBarcode looks up one stock item by barcode, the scanner flow uses it
// for product inquiries outside a counting event.
func (h *StockHandler) GetByBarcode(c *gin.Context) {
	ctx := c.Request.Context()

	barcode := c.Param("barcode")
	if barcode == "" {
		h.Error(c, apperror.NewValidation("barcode is required"))
		return
	}

	item, err := h.service.GetByBarcode(ctx, barcode)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *StockHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateStockItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := req.ToEntity()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid unit cost").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.Create(ctx, item); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *StockHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateStockItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.service.GetByID(ctx, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.ApplyTo(item); err != nil {
		h.Error(c, apperror.NewValidation("invalid unit cost").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.Update(ctx, item); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *StockHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, itemID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Import replaces the stock catalog with rows from a system export.
func (h *StockHandler) Import(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ImportStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	count, err := h.service.Import(ctx, req.Rows)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ImportStockResponse{Imported: count})
}

// Reclassify recomputes ABC groups over the whole catalog.
func (h *StockHandler) Reclassify(c *gin.Context) {
	ctx := c.Request.Context()

	groups, err := h.service.Reclassify(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	byGroup := make(map[string]int, 3)
	for _, g := range groups {
		byGroup[string(g)]++
	}

	c.JSON(http.StatusOK, dto.ReclassifyResponse{
		Classified: len(groups),
		ByGroup:    byGroup,
	})
}

// RegisterRoutes registers stock catalog routes.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock-items")
	{
		stock.GET("", h.List)
		stock.POST("", h.Create)
		stock.GET("/:id", h.Get)
		stock.PUT("/:id", h.Update)
		stock.DELETE("/:id", h.Delete)

		stock.POST("/import", h.Import)
		stock.POST("/reclassify", h.Reclassify)
	}

	rg.GET("/barcodes/:barcode", h.GetByBarcode)
}
