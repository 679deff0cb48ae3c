package handler

import (
	"net/http"

	"github.com/crispincharbel-source/cierp/internal/middleware"
	"github.com/crispincharbel-source/cierp/internal/service"
	"github.com/crispincharbel-source/cierp/pkg/response"

	"github.com/gin-gonic/gin"
)

type SaleHandler struct {
	saleService service.SaleService
}

func NewSaleHandler(saleService service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

func (h *SaleHandler) RegisterRoutes(router *gin.RouterGroup) {
	sales := router.Group("/api/sales", middleware.RequireAuth())
	{
		sales.POST("", h.CreateSaleOrder)
		sales.GET("/:id", h.GetSaleOrder)
		sales.POST("/:id/confirm", h.ConfirmSaleOrder)
		sales.POST("/:id/deliver", h.ValidateDelivery)
		sales.POST("/:id/invoice", h.CreateInvoice)
		sales.POST("/:id/cancel", h.CancelSaleOrder)
	}
}

// CreateSaleOrder creates a draft sale order
// @Summary      Create sale order
// @Description  Creates a draft sale order with its lines and an allocated SO number
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateSaleOrderRequest  true  "Create Sale Order Payload"
// @Success      201      {object}  response.Response{data=model.SaleOrder}
// @Failure      400      {object}  response.Response
// @Router       /api/sales [post]
func (h *SaleHandler) CreateSaleOrder(c *gin.Context) {
	var req service.CreateSaleOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.saleService.CreateDraft(c.Request.Context(), middleware.TenantID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// GetSaleOrder returns one sale order with its lines
// @Summary      Get sale order
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale Order ID"
// @Success      200  {object}  response.Response{data=model.SaleOrder}
// @Failure      404  {object}  response.Response
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetSaleOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.saleService.Get(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ConfirmSaleOrder confirms a draft order and creates its delivery picking
// @Summary      Confirm sale order
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale Order ID"
// @Success      200  {object}  response.Response{data=model.SaleOrder}
// @Failure      409  {object}  response.Response
// @Router       /api/sales/{id}/confirm [post]
func (h *SaleHandler) ConfirmSaleOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.saleService.Confirm(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ValidateDelivery ships the order and moves stock to the customer location
// @Summary      Validate delivery
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale Order ID"
// @Success      200  {object}  response.Response{data=model.SaleOrder}
// @Failure      409  {object}  response.Response
// @Router       /api/sales/{id}/deliver [post]
func (h *SaleHandler) ValidateDelivery(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.saleService.ValidateDelivery(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CreateInvoice creates a draft customer invoice from the order
// @Summary      Create customer invoice
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale Order ID"
// @Success      201  {object}  response.Response{data=model.AccountMove}
// @Failure      409  {object}  response.Response
// @Router       /api/sales/{id}/invoice [post]
func (h *SaleHandler) CreateInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	invoice, err := h.saleService.CreateInvoice(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// CancelSaleOrder cancels a draft or confirmed order
// @Summary      Cancel sale order
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale Order ID"
// @Success      200  {object}  response.Response{data=model.SaleOrder}
// @Failure      409  {object}  response.Response
// @Router       /api/sales/{id}/cancel [post]
func (h *SaleHandler) CancelSaleOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.saleService.Cancel(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
