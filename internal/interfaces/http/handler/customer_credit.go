package handler

import (
	apppartner "github.com/erp/restaurant/internal/application/partner"
	apppos "github.com/erp/restaurant/internal/application/pos"
	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// CustomerCreditHandler handles customer house-account endpoints
type CustomerCreditHandler struct {
	BaseHandler
	paymentService *apppos.PaymentService
	creditService  *apppartner.CreditService
}

// NewCustomerCreditHandler creates a new CustomerCreditHandler
func NewCustomerCreditHandler(paymentService *apppos.PaymentService, creditService *apppartner.CreditService) *CustomerCreditHandler {
	return &CustomerCreditHandler{
		paymentService: paymentService,
		creditService:  creditService,
	}
}

// PayOff godoc
// @ID           payOffCustomerCredit
// @Summary      Reduce a customer's outstanding credit
// @Description  Decrements the balance only. No order, payment or session is touched.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        Idempotency-Key header string false "Client retry key"
// @Param        request body apppos.PayOffCreditRequest true "Payoff"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /customers/{id}/credit/payoff [post]
func (h *CustomerCreditHandler) PayOff(c *gin.Context) {
	subject, ok := h.requireSubject(c)
	if !ok {
		return
	}
	customerID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req apppos.PayOffCreditRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.CustomerID = customerID
	req.ReceivedBy = subject

	result, err := h.paymentService.PayOffCredit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RecordPayment godoc
// @ID           recordCustomerCreditPayment
// @Summary      Repay credit against one of the customer's orders
// @Description  Inserts a cash payment on the order, recomputes its status, decrements the balance and adds the cash to the session
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body apppartner.RecordCreditPaymentRequest true "Credit payment"
// @Success      201 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /customers/{id}/credit/payments [post]
func (h *CustomerCreditHandler) RecordPayment(c *gin.Context) {
	subject, ok := h.requireSubject(c)
	if !ok {
		return
	}
	customerID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req apppartner.RecordCreditPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.CustomerID = customerID
	req.ReceivedBy = subject

	result, err := h.creditService.RecordCreditPayment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// GetSummary godoc
// @ID           getCustomerCredit
// @Summary      Get a customer's credit position
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /customers/{id}/credit [get]
func (h *CustomerCreditHandler) GetSummary(c *gin.Context) {
	customerID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.creditService.GetCreditSummary(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// ListWithCredit godoc
// @ID           listCustomersWithCredit
// @Summary      List customers carrying a balance, largest first
// @Tags         customers
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /customers/credit [get]
func (h *CustomerCreditHandler) ListWithCredit(c *gin.Context) {
	var page dto.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.creditService.ListCustomersWithCredit(c.Request.Context(), shared.Filter{
		Page:     page.Page,
		PageSize: page.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize, result.TotalPages)
}
