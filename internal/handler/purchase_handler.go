package handler

import (
	"net/http"

	"github.com/crispincharbel-source/cierp/internal/middleware"
	"github.com/crispincharbel-source/cierp/internal/service"
	"github.com/crispincharbel-source/cierp/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	purchases := router.Group("/api/purchases", middleware.RequireAuth())
	{
		purchases.POST("", h.CreatePurchaseOrder)
		purchases.GET("/:id", h.GetPurchaseOrder)
		purchases.POST("/:id/confirm", h.ConfirmPurchaseOrder)
		purchases.POST("/:id/receive", h.ReceivePurchaseOrder)
		purchases.POST("/:id/bill", h.CreateBill)
		purchases.POST("/:id/cancel", h.CancelPurchaseOrder)
	}
}

// CreatePurchaseOrder creates a draft purchase order
// @Summary      Create purchase order
// @Description  Creates a draft purchase order with its lines and an allocated PO number
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePurchaseOrderRequest  true  "Create Purchase Order Payload"
// @Success      201      {object}  response.Response{data=model.PurchaseOrder}
// @Failure      400      {object}  response.Response
// @Router       /api/purchases [post]
func (h *PurchaseHandler) CreatePurchaseOrder(c *gin.Context) {
	var req service.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.purchaseService.CreateDraft(c.Request.Context(), middleware.TenantID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// GetPurchaseOrder returns one purchase order with its lines
// @Summary      Get purchase order
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase Order ID"
// @Success      200  {object}  response.Response{data=model.PurchaseOrder}
// @Failure      404  {object}  response.Response
// @Router       /api/purchases/{id} [get]
func (h *PurchaseHandler) GetPurchaseOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.purchaseService.Get(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ConfirmPurchaseOrder confirms the order and creates its receipt picking
// @Summary      Confirm purchase order
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase Order ID"
// @Success      200  {object}  response.Response{data=model.PurchaseOrder}
// @Failure      409  {object}  response.Response
// @Router       /api/purchases/{id}/confirm [post]
func (h *PurchaseHandler) ConfirmPurchaseOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.purchaseService.Confirm(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ReceivePurchaseOrder validates the receipt and brings goods into stock
// @Summary      Receive purchase order
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase Order ID"
// @Success      200  {object}  response.Response{data=model.PurchaseOrder}
// @Failure      409  {object}  response.Response
// @Router       /api/purchases/{id}/receive [post]
func (h *PurchaseHandler) ReceivePurchaseOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.purchaseService.Receive(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CreateBill creates a draft vendor bill from the order
// @Summary      Create vendor bill
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase Order ID"
// @Success      201  {object}  response.Response{data=model.AccountMove}
// @Failure      409  {object}  response.Response
// @Router       /api/purchases/{id}/bill [post]
func (h *PurchaseHandler) CreateBill(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	bill, err := h.purchaseService.CreateBill(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, bill))
}

// CancelPurchaseOrder cancels an order that has not been received or billed
// @Summary      Cancel purchase order
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase Order ID"
// @Success      200  {object}  response.Response{data=model.PurchaseOrder}
// @Failure      409  {object}  response.Response
// @Router       /api/purchases/{id}/cancel [post]
func (h *PurchaseHandler) CancelPurchaseOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.purchaseService.Cancel(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
