package pos

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/restaurant/internal/domain/partner"
	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/domain/trade"
	"github.com/erp/restaurant/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService records payments against orders and keeps the order status,
// the session tender totals and customer credit in step with them
type PaymentService struct {
	repos          Repositories
	scope          TransactionScope
	logger         *zap.Logger
	eventPublisher shared.EventPublisher
	metrics        *telemetry.SettlementMetrics
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(repos Repositories, scope TransactionScope, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		repos:  repos,
		scope:  scope,
		logger: logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PaymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the settlement metrics recorder
func (s *PaymentService) SetMetrics(metrics *telemetry.SettlementMetrics) {
	s.metrics = metrics
}

// RecordPayment records a single tender against an order.
//
// Steps: insert the payment, recompute the order status from all of the order's
// payments with the single-payment policy, bump the session bucket for the tender,
// and for credit tenders on a customer's order raise the customer's credit.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*RecordPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, req.OrderID.String(),
		telemetry.SpanAttrSessionID, req.SessionID.String(),
		telemetry.SpanAttrPaymentMethod, req.Method,
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	method, err := pos.ParsePaymentMethod(req.Method)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		payment   *pos.Payment
		order     *trade.Order
		session   *pos.CashierSession
		customer  *partner.Customer
		newStatus trade.PaymentStatus
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, session, err = loadOrderAndSession(ctx, repos, req.OrderID, req.SessionID)
		if err != nil {
			return err
		}
		if method.IsCredit() && order.HasCustomer() {
			if customer, err = loadCustomer(ctx, repos, *order.CustomerID); err != nil {
				return err
			}
		}

		payment, err = pos.NewPayment(order.ID, session.ID, method, req.Amount, req.ReceivedBy, req.Reference, req.Notes)
		if err != nil {
			return err
		}
		if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		payments, err := repos.PaymentRepo().FindByOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("failed to load order payments: %w", err)
		}
		newStatus = pos.SinglePaymentStatus(method, payments, order.GrandTotal)
		if err := saveOrderStatus(ctx, repos, order, newStatus); err != nil {
			return err
		}

		if err := session.RecordTender(method, payment.Amount); err != nil {
			return err
		}
		if err := repos.SessionRepo().Save(ctx, session); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		if customer != nil {
			if err := customer.ChargeCredit(payment.Amount); err != nil {
				return err
			}
			if err := repos.CustomerRepo().Save(ctx, customer); err != nil {
				return fmt.Errorf("failed to save customer: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Failed to record payment",
			zap.String("order_id", req.OrderID.String()),
			zap.String("session_id", req.SessionID.String()),
			zap.String("method", req.Method),
			zap.Error(err),
		)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrPaymentStatus, string(newStatus))
	s.logger.Info("Payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("session_id", session.ID.String()),
		zap.String("method", string(method)),
		zap.String("amount", payment.Amount.String()),
		zap.String("payment_status", string(newStatus)),
	)
	s.metrics.RecordPayment(ctx, string(method), payment.Amount)
	s.publish(ctx, []shared.DomainEvent{pos.NewPaymentRecordedEvent(payment)}, order, session, customer)

	return &RecordPaymentResult{PaymentID: payment.ID, PaymentStatus: string(newStatus)}, nil
}

// RecordSplitPayment settles an order with several tenders in one call.
//
// Entries with a non-positive amount are skipped without error and produce no
// payment. Each remaining entry is inserted and counted in the session (and on
// the customer's credit for credit tenders). The order status is then recomputed
// from the order's complete payment set with the split-payment policy.
func (s *PaymentService) RecordSplitPayment(ctx context.Context, req RecordSplitPaymentRequest) (*RecordSplitPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record_split_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, req.OrderID.String(),
		telemetry.SpanAttrSessionID, req.SessionID.String(),
		"entries", len(req.Payments),
	)

	methods := make([]pos.PaymentMethod, len(req.Payments))
	needsCustomer := false
	for i, entry := range req.Payments {
		if !entry.Amount.IsPositive() {
			continue
		}
		m, err := pos.ParsePaymentMethod(entry.Method)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		methods[i] = m
		needsCustomer = needsCustomer || m.IsCredit()
	}

	var (
		created   []pos.Payment
		order     *trade.Order
		session   *pos.CashierSession
		customer  *partner.Customer
		newStatus trade.PaymentStatus
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, session, err = loadOrderAndSession(ctx, repos, req.OrderID, req.SessionID)
		if err != nil {
			return err
		}
		if needsCustomer && order.HasCustomer() {
			if customer, err = loadCustomer(ctx, repos, *order.CustomerID); err != nil {
				return err
			}
		}

		for i, entry := range req.Payments {
			if !entry.Amount.IsPositive() {
				continue
			}
			payment, err := pos.NewPayment(order.ID, session.ID, methods[i], entry.Amount, req.ReceivedBy, entry.Reference, "")
			if err != nil {
				return err
			}
			if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
				return fmt.Errorf("failed to create payment: %w", err)
			}
			created = append(created, *payment)

			if err := session.RecordTender(payment.Method, payment.Amount); err != nil {
				return err
			}
			if err := repos.SessionRepo().Save(ctx, session); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			if payment.Method.IsCredit() && customer != nil {
				if err := customer.ChargeCredit(payment.Amount); err != nil {
					return err
				}
				if err := repos.CustomerRepo().Save(ctx, customer); err != nil {
					return fmt.Errorf("failed to save customer: %w", err)
				}
			}
		}

		payments, err := repos.PaymentRepo().FindByOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("failed to load order payments: %w", err)
		}
		newStatus = pos.SplitPaymentStatus(payments, order.GrandTotal)
		return saveOrderStatus(ctx, repos, order, newStatus)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Failed to record split payment",
			zap.String("order_id", req.OrderID.String()),
			zap.String("session_id", req.SessionID.String()),
			zap.Int("payments_written", len(created)),
			zap.Error(err),
		)
		return nil, err
	}

	ids := make([]uuid.UUID, len(created))
	events := make([]shared.DomainEvent, len(created))
	for i := range created {
		ids[i] = created[i].ID
		events[i] = pos.NewPaymentRecordedEvent(&created[i])
		s.metrics.RecordPayment(ctx, string(created[i].Method), created[i].Amount)
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrPaymentStatus, string(newStatus))
	s.logger.Info("Split payment recorded",
		zap.String("order_id", order.ID.String()),
		zap.String("session_id", session.ID.String()),
		zap.Int("entries", len(req.Payments)),
		zap.Int("payments_created", len(created)),
		zap.String("payment_status", string(newStatus)),
	)
	s.publish(ctx, events, order, session, customer)

	return &RecordSplitPaymentResult{PaymentIDs: ids, PaymentStatus: string(newStatus)}, nil
}

// PayOffCredit reduces a customer's outstanding credit. It is a ledger adjustment
// only: no payment is recorded and no order or session is touched.
func (s *PaymentService) PayOffCredit(ctx context.Context, req PayOffCreditRequest) (*PayOffCreditResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "pay_off_credit")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerID, req.CustomerID.String(),
		telemetry.SpanAttrPaymentMethod, req.Method,
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	method, err := pos.ParsePaymentMethod(req.Method)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		customer *partner.Customer
		previous decimal.Decimal
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		customer, err = loadCustomer(ctx, repos, req.CustomerID)
		if err != nil {
			return err
		}
		previous = customer.CurrentCredit
		if err := customer.RepayCredit(req.Amount, partner.CreditReasonPayoff); err != nil {
			return err
		}
		if err := repos.CustomerRepo().Save(ctx, customer); err != nil {
			return fmt.Errorf("failed to save customer: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Customer credit paid off",
		zap.String("customer_id", customer.ID.String()),
		zap.String("method", string(method)),
		zap.String("amount", req.Amount.String()),
		zap.String("reference", req.Reference),
		zap.String("received_by", req.ReceivedBy.String()),
		zap.String("new_balance", customer.CurrentCredit.String()),
	)
	s.metrics.RecordCreditChange(ctx, partner.CreditReasonPayoff, req.Amount.Neg())
	s.publish(ctx, nil, customer)

	return &PayOffCreditResult{
		CustomerID:      customer.ID,
		PreviousBalance: previous,
		NewBalance:      customer.CurrentCredit,
	}, nil
}

// GetByOrder returns an order's payments, oldest first
func (s *PaymentService) GetByOrder(ctx context.Context, orderID uuid.UUID) ([]PaymentResponse, error) {
	payments, err := s.repos.Payments.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order payments: %w", err)
	}
	return ToPaymentResponses(payments), nil
}

// GetBySession returns a session's payments, oldest first
func (s *PaymentService) GetBySession(ctx context.Context, sessionID uuid.UUID) ([]PaymentResponse, error) {
	payments, err := s.repos.Payments.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session payments: %w", err)
	}
	return ToPaymentResponses(payments), nil
}

// GetSummaryByMethod sums a session's payments per tender
func (s *PaymentService) GetSummaryByMethod(ctx context.Context, sessionID uuid.UUID) (*pos.MethodSummary, error) {
	payments, err := s.repos.Payments.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session payments: %w", err)
	}
	summary := pos.SummarizeByMethod(payments)
	return &summary, nil
}

// publish sends the given events followed by the aggregates' pending events
func (s *PaymentService) publish(ctx context.Context, events []shared.DomainEvent, aggregates ...shared.AggregateRoot) {
	for _, agg := range aggregates {
		if isNilAggregate(agg) {
			continue
		}
		events = append(events, agg.PullDomainEvents()...)
	}
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Publish errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
}

func isNilAggregate(agg shared.AggregateRoot) bool {
	switch a := agg.(type) {
	case nil:
		return true
	case *trade.Order:
		return a == nil
	case *pos.CashierSession:
		return a == nil
	case *partner.Customer:
		return a == nil
	}
	return false
}

func loadOrderAndSession(ctx context.Context, repos TransactionalRepositories, orderID, sessionID uuid.UUID) (*trade.Order, *pos.CashierSession, error) {
	order, err := repos.OrderRepo().FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.NotFound("Order")
		}
		return nil, nil, fmt.Errorf("failed to load order: %w", err)
	}
	session, err := loadSession(ctx, repos, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if !session.IsOpen() {
		return nil, nil, pos.ErrSessionClosed
	}
	return order, session, nil
}

func loadCustomer(ctx context.Context, repos TransactionalRepositories, customerID uuid.UUID) (*partner.Customer, error) {
	customer, err := repos.CustomerRepo().FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Customer")
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	return customer, nil
}

func saveOrderStatus(ctx context.Context, repos TransactionalRepositories, order *trade.Order, status trade.PaymentStatus) error {
	if err := order.ApplyPaymentStatus(status); err != nil {
		return err
	}
	if err := repos.OrderRepo().Save(ctx, order); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}
