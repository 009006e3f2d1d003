package handler

import (
	"time"

	apppos "github.com/erp/restaurant/internal/application/pos"
	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
)

// historyDateLayout is the format of the from/to history filters
const historyDateLayout = "2006-01-02"

// SessionHandler handles cashier session API endpoints
type SessionHandler struct {
	BaseHandler
	sessionService *apppos.SessionService
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessionService *apppos.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// SessionHistoryParams are the query parameters of the history listing
type SessionHistoryParams struct {
	CashierID string `form:"cashier_id" binding:"max=255"`
	Status    string `form:"status" binding:"omitempty,oneof=open closed"`
	From      string `form:"from" example:"2026-01-01"`
	To        string `form:"to" example:"2026-01-31"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Open godoc
// @ID           openSession
// @Summary      Open a cashier session
// @Description  Opens a drawer for the authenticated cashier. Fails if they already have an open session.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request body apppos.OpenSessionRequest true "Opening cash"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /sessions/open [post]
func (h *SessionHandler) Open(c *gin.Context) {
	subject, ok := h.requireSubject(c)
	if !ok {
		return
	}

	var req apppos.OpenSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.CashierID = subject

	session, err := h.sessionService.Open(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// Close godoc
// @ID           closeSession
// @Summary      Close a cashier session
// @Description  Records the counted cash and computes the variance against the cash payments of the session
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body apppos.CloseSessionRequest true "Closing cash"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /sessions/{id}/close [post]
func (h *SessionHandler) Close(c *gin.Context) {
	if _, ok := h.requireSubject(c); !ok {
		return
	}
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req apppos.CloseSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	session, err := h.sessionService.Close(c.Request.Context(), sessionID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// UpdateTotals godoc
// @ID           updateSessionTotals
// @Summary      Bump a tender accumulator
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body apppos.UpdateTotalsRequest true "Tender and amount"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /sessions/{id}/totals [post]
func (h *SessionHandler) UpdateTotals(c *gin.Context) {
	if _, ok := h.requireSubject(c); !ok {
		return
	}
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req apppos.UpdateTotalsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	session, err := h.sessionService.UpdateTotals(c.Request.Context(), sessionID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// IncrementOrderCount godoc
// @ID           incrementSessionOrders
// @Summary      Count one more order in the session
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /sessions/{id}/orders/increment [post]
func (h *SessionHandler) IncrementOrderCount(c *gin.Context) {
	if _, ok := h.requireSubject(c); !ok {
		return
	}
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.IncrementOrderCount(c.Request.Context(), sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// GetActive godoc
// @ID           getActiveSession
// @Summary      Get the caller's open session
// @Description  Returns null data when the cashier has no open session
// @Tags         sessions
// @Produce      json
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /sessions/active [get]
func (h *SessionHandler) GetActive(c *gin.Context) {
	subject, ok := h.requireSubject(c)
	if !ok {
		return
	}

	session, err := h.sessionService.GetActive(c.Request.Context(), subject)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// GetToday godoc
// @ID           getTodaySession
// @Summary      Get the caller's latest session of the business day
// @Description  Returns null data when the cashier has no session today
// @Tags         sessions
// @Produce      json
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /sessions/today [get]
func (h *SessionHandler) GetToday(c *gin.Context) {
	subject, ok := h.requireSubject(c)
	if !ok {
		return
	}

	session, err := h.sessionService.GetTodaySession(c.Request.Context(), subject)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// GetByID godoc
// @ID           getSession
// @Summary      Get a session by ID
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /sessions/{id} [get]
func (h *SessionHandler) GetByID(c *gin.Context) {
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// GetSummary godoc
// @ID           getSessionSummary
// @Summary      Get the settlement summary of a session
// @Description  Orders, payments, totals per tender and expected cash
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /sessions/{id}/summary [get]
func (h *SessionHandler) GetSummary(c *gin.Context) {
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.sessionService.GetSummary(c.Request.Context(), sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Reconcile godoc
// @ID           reconcileSession
// @Summary      Recompute a session's accumulators from its payments and orders
// @Description  Reports drift against the stored totals; apply=true overwrites them
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        apply query bool false "Overwrite the stored accumulators"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /sessions/{id}/reconcile [get]
func (h *SessionHandler) Reconcile(c *gin.Context) {
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	apply := c.Query("apply") == "true"
	report, err := h.sessionService.Reconcile(c.Request.Context(), sessionID, apply)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// History godoc
// @ID           listSessionHistory
// @Summary      List sessions, newest first
// @Tags         sessions
// @Produce      json
// @Param        cashier_id query string false "Cashier subject"
// @Param        status query string false "Session status" Enums(open, closed)
// @Param        from query string false "First session date (YYYY-MM-DD)"
// @Param        to query string false "Last session date (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /sessions/history [get]
func (h *SessionHandler) History(c *gin.Context) {
	var params SessionHistoryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	query := apppos.SessionHistoryQuery{Page: params.Page, PageSize: params.PageSize}
	if params.CashierID != "" {
		cashier, err := valueobject.NewSubject(params.CashierID)
		if err != nil {
			h.BadRequest(c, "Invalid cashier_id")
			return
		}
		query.CashierID = &cashier
	}
	if params.Status != "" {
		status := pos.SessionStatus(params.Status)
		query.Status = &status
	}

	var err error
	if query.From, err = parseHistoryDate(params.From, h.sessionService.Location()); err != nil {
		h.BadRequest(c, "Invalid from date, expected YYYY-MM-DD")
		return
	}
	if query.To, err = parseHistoryDate(params.To, h.sessionService.Location()); err != nil {
		h.BadRequest(c, "Invalid to date, expected YYYY-MM-DD")
		return
	}
	if query.From != nil && query.To != nil && query.To.Before(*query.From) {
		h.BadRequest(c, "to must not be before from")
		return
	}

	page, err := h.sessionService.GetHistory(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize, page.TotalPages)
}

// parseHistoryDate reads a calendar date in the business time zone
func parseHistoryDate(value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(historyDateLayout, value, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
