package handler

import (
	apppos "github.com/erp/restaurant/internal/application/pos"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payment API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *apppos.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *apppos.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RecordPayment godoc
// @ID           recordPayment
// @Summary      Record a payment against an order
// @Description  Inserts the payment, updates the order's paid amount and status, and routes the amount into the session. Send an Idempotency-Key header to make retries safe.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client retry key"
// @Param        request body apppos.RecordPaymentRequest true "Payment"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /payments [post]
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	subject, ok := h.requireSubject(c)
	if !ok {
		return
	}

	var req apppos.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.ReceivedBy = subject

	result, err := h.paymentService.RecordPayment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// RecordSplitPayment godoc
// @ID           recordSplitPayment
// @Summary      Settle an order with several tenders
// @Description  Entries with a non-positive amount are skipped. Payment IDs are returned in request order.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client retry key"
// @Param        request body apppos.RecordSplitPaymentRequest true "Split payment"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /payments/split [post]
func (h *PaymentHandler) RecordSplitPayment(c *gin.Context) {
	subject, ok := h.requireSubject(c)
	if !ok {
		return
	}

	var req apppos.RecordSplitPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.ReceivedBy = subject

	result, err := h.paymentService.RecordSplitPayment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListByOrder godoc
// @ID           listOrderPayments
// @Summary      List the payments of an order
// @Tags         payments
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id}/payments [get]
func (h *PaymentHandler) ListByOrder(c *gin.Context) {
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	payments, err := h.paymentService.GetByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// ListBySession godoc
// @ID           listSessionPayments
// @Summary      List the payments taken in a session
// @Tags         payments
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /sessions/{id}/payments [get]
func (h *PaymentHandler) ListBySession(c *gin.Context) {
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	payments, err := h.paymentService.GetBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// SummaryByMethod godoc
// @ID           getSessionPaymentSummary
// @Summary      Sum a session's payments by tender
// @Tags         payments
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /sessions/{id}/payments/summary [get]
func (h *PaymentHandler) SummaryByMethod(c *gin.Context) {
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.paymentService.GetSummaryByMethod(c.Request.Context(), sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
