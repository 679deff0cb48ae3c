package handler

import (
	"errors"
	"net/http"

	"github.com/crispincharbel-source/cierp/internal/middleware"
	"github.com/crispincharbel-source/cierp/internal/service"
	"github.com/crispincharbel-source/cierp/pkg/response"

	"github.com/gin-gonic/gin"
)

type AccountingHandler struct {
	postingService service.PostingService
	accountService service.AccountService
}

func NewAccountingHandler(postingService service.PostingService, accountService service.AccountService) *AccountingHandler {
	return &AccountingHandler{
		postingService: postingService,
		accountService: accountService,
	}
}

func (h *AccountingHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices", middleware.RequireAuth())
	{
		invoices.GET("/:id", h.GetMove)
		invoices.POST("/:id/post", h.PostInvoice)
		invoices.POST("/:id/cancel", h.CancelMove)
	}

	payments := router.Group("/api/payments", middleware.RequireAuth())
	{
		payments.POST("", h.CreatePayment)
		payments.POST("/:id/post", h.PostPayment)
	}

	accounting := router.Group("/api/accounting", middleware.RequireAuth())
	{
		accounting.GET("/trial-balance", h.TrialBalance)
	}
}

// GetMove returns one journal entry with its invoice and bookkeeping lines
// @Summary      Get journal entry
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Move ID"
// @Success      200  {object}  response.Response{data=model.AccountMove}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *AccountingHandler) GetMove(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	move, err := h.postingService.GetMove(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, move))
}

// PostInvoice posts a draft invoice to the ledger
// @Summary      Post invoice
// @Description  Recomputes amounts, allocates the invoice number, and writes balanced move lines
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Move ID"
// @Success      200  {object}  response.Response{data=model.AccountMove}
// @Failure      409  {object}  response.Response
// @Router       /api/invoices/{id}/post [post]
func (h *AccountingHandler) PostInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	move, err := h.postingService.PostInvoice(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, move))
}

// CancelMove cancels a draft journal entry
// @Summary      Cancel journal entry
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Move ID"
// @Success      200  {object}  response.Response{data=model.AccountMove}
// @Failure      409  {object}  response.Response
// @Router       /api/invoices/{id}/cancel [post]
func (h *AccountingHandler) CancelMove(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	move, err := h.postingService.CancelMove(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, move))
}

// CreatePayment registers a draft payment
// @Summary      Create payment
// @Tags         accounting
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePaymentRequest  true  "Create Payment Payload"
// @Success      201      {object}  response.Response{data=model.Payment}
// @Failure      400      {object}  response.Response
// @Router       /api/payments [post]
func (h *AccountingHandler) CreatePayment(c *gin.Context) {
	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	payment, err := h.postingService.CreatePayment(c.Request.Context(), middleware.TenantID(c), req)
	if err != nil {
		var notFound *service.ReferenceNotFoundError
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payment))
}

// PostPayment posts a draft payment and reconciles it against its invoice
// @Summary      Post payment
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response{data=model.Payment}
// @Failure      409  {object}  response.Response
// @Router       /api/payments/{id}/post [post]
func (h *AccountingHandler) PostPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	payment, err := h.postingService.PostPayment(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// TrialBalance returns aggregate debit/credit per account over posted moves
// @Summary      Trial balance
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]repository.TrialBalanceRow}
// @Failure      500  {object}  response.Response
// @Router       /api/accounting/trial-balance [get]
func (h *AccountingHandler) TrialBalance(c *gin.Context) {
	rows, err := h.accountService.TrialBalance(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}
