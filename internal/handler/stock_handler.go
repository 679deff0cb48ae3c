package handler

import (
	"net/http"

	"github.com/crispincharbel-source/cierp/internal/middleware"
	"github.com/crispincharbel-source/cierp/internal/service"
	"github.com/crispincharbel-source/cierp/pkg/response"

	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api/stock", middleware.RequireAuth())
	{
		stock.GET("/on-hand", h.OnHand)
		stock.GET("/locations", h.Locations)
	}

	pickings := router.Group("/api/pickings", middleware.RequireAuth())
	{
		pickings.POST("/:id/validate", h.ValidatePicking)
		pickings.POST("/:id/cancel", h.CancelPicking)
	}
}

// OnHand returns the stock snapshot for every product
// @Summary      On-hand stock
// @Description  Returns cached on-hand quantity, valuation and low-stock flag per product
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.OnHandRow}
// @Failure      500  {object}  response.Response
// @Router       /api/stock/on-hand [get]
func (h *StockHandler) OnHand(c *gin.Context) {
	rows, err := h.stockService.OnHand(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// Locations returns the tenant's fixed stock locations, provisioning them on first use
// @Summary      Fixed locations
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.TenantConfig}
// @Failure      500  {object}  response.Response
// @Router       /api/stock/locations [get]
func (h *StockHandler) Locations(c *gin.Context) {
	cfg, err := h.stockService.Locations(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cfg))
}

// ValidatePicking finalizes a transfer and applies its stock moves
// @Summary      Validate picking
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Picking ID"
// @Success      200  {object}  response.Response{data=model.StockPicking}
// @Failure      409  {object}  response.Response
// @Router       /api/pickings/{id}/validate [post]
func (h *StockHandler) ValidatePicking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	picking, err := h.stockService.ValidatePicking(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, picking))
}

// CancelPicking cancels an open transfer
// @Summary      Cancel picking
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Picking ID"
// @Success      200  {object}  response.Response{data=model.StockPicking}
// @Failure      409  {object}  response.Response
// @Router       /api/pickings/{id}/cancel [post]
func (h *StockHandler) CancelPicking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	picking, err := h.stockService.CancelPicking(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, picking))
}
