package handler

import (
	"net/http"

	"github.com/crispincharbel-source/cierp/internal/middleware"
	"github.com/crispincharbel-source/cierp/internal/service"
	"github.com/crispincharbel-source/cierp/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProductionHandler struct {
	productionService service.ProductionService
}

func NewProductionHandler(productionService service.ProductionService) *ProductionHandler {
	return &ProductionHandler{productionService: productionService}
}

func (h *ProductionHandler) RegisterRoutes(router *gin.RouterGroup) {
	production := router.Group("/api/production", middleware.RequireAuth())
	{
		production.POST("", h.CreateProductionOrder)
		production.GET("/:id", h.GetProductionOrder)
		production.POST("/:id/confirm", h.ConfirmProductionOrder)
		production.POST("/:id/produce", h.Produce)
		production.POST("/:id/cancel", h.CancelProductionOrder)
	}
}

// CreateProductionOrder creates a draft production order
// @Summary      Create production order
// @Description  Creates a draft production order with an allocated MO number
// @Tags         production
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductionOrderRequest  true  "Create Production Order Payload"
// @Success      201      {object}  response.Response{data=model.ProductionOrder}
// @Failure      400      {object}  response.Response
// @Router       /api/production [post]
func (h *ProductionHandler) CreateProductionOrder(c *gin.Context) {
	var req service.CreateProductionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.productionService.CreateDraft(c.Request.Context(), middleware.TenantID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// GetProductionOrder returns one production order with its component lines
// @Summary      Get production order
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Production Order ID"
// @Success      200  {object}  response.Response{data=model.ProductionOrder}
// @Failure      404  {object}  response.Response
// @Router       /api/production/{id} [get]
func (h *ProductionHandler) GetProductionOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.productionService.Get(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ConfirmProductionOrder expands the BOM and reserves component stock
// @Summary      Confirm production order
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Production Order ID"
// @Success      200  {object}  response.Response{data=model.ProductionOrder}
// @Failure      409  {object}  response.Response
// @Router       /api/production/{id}/confirm [post]
func (h *ProductionHandler) ConfirmProductionOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.productionService.Confirm(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// Produce consumes the components and receives finished goods into stock
// @Summary      Complete production order
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Production Order ID"
// @Success      200  {object}  response.Response{data=model.ProductionOrder}
// @Failure      409  {object}  response.Response
// @Router       /api/production/{id}/produce [post]
func (h *ProductionHandler) Produce(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.productionService.Produce(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CancelProductionOrder cancels an unfinished production order
// @Summary      Cancel production order
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Production Order ID"
// @Success      200  {object}  response.Response{data=model.ProductionOrder}
// @Failure      409  {object}  response.Response
// @Router       /api/production/{id}/cancel [post]
func (h *ProductionHandler) CancelProductionOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.productionService.Cancel(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
