package router

import (
	"github.com/erp/restaurant/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// SettlementHandlers are the handlers served under the versioned API
type SettlementHandlers struct {
	Sessions *handler.SessionHandler
	Payments *handler.PaymentHandler
	Credit   *handler.CustomerCreditHandler
	System   *handler.SystemHandler
}

// SettlementRoutes builds the settlement route groups. idempotent guards the
// money-moving POSTs; pass nil to serve them without Idempotency-Key support.
func SettlementRoutes(h SettlementHandlers, idempotent gin.HandlerFunc) []*DomainGroup {
	guard := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		if idempotent == nil {
			return []gin.HandlerFunc{fn}
		}
		return []gin.HandlerFunc{idempotent, fn}
	}

	sessions := NewDomainGroup("sessions", "/sessions")
	sessions.POST("/open", h.Sessions.Open).
		GET("/active", h.Sessions.GetActive).
		GET("/today", h.Sessions.GetToday).
		GET("/history", h.Sessions.History).
		GET("/:id", h.Sessions.GetByID).
		GET("/:id/summary", h.Sessions.GetSummary).
		GET("/:id/reconcile", h.Sessions.Reconcile).
		POST("/:id/close", h.Sessions.Close).
		POST("/:id/totals", h.Sessions.UpdateTotals).
		POST("/:id/orders/increment", h.Sessions.IncrementOrderCount).
		GET("/:id/payments", h.Payments.ListBySession).
		GET("/:id/payments/summary", h.Payments.SummaryByMethod)

	payments := NewDomainGroup("payments", "/payments")
	payments.POST("", guard(h.Payments.RecordPayment)...).
		POST("/split", guard(h.Payments.RecordSplitPayment)...)

	orders := NewDomainGroup("orders", "/orders")
	orders.GET("/:id/payments", h.Payments.ListByOrder)

	customers := NewDomainGroup("customers", "/customers")
	customers.GET("/credit", h.Credit.ListWithCredit).
		GET("/:id/credit", h.Credit.GetSummary).
		POST("/:id/credit/payoff", guard(h.Credit.PayOff)...).
		POST("/:id/credit/payments", guard(h.Credit.RecordPayment)...)

	groups := []*DomainGroup{sessions, payments, orders, customers}
	if h.System != nil {
		system := NewDomainGroup("system", "/system")
		system.GET("/info", h.System.GetSystemInfo).
			GET("/ping", h.System.Ping)
		groups = append(groups, system)
	}
	return groups
}
