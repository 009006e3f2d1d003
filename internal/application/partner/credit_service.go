package partner

import (
	"context"
	"errors"
	"fmt"

	apppos "github.com/erp/restaurant/internal/application/pos"
	"github.com/erp/restaurant/internal/domain/partner"
	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreditService manages customer house accounts: repayments against orders and credit reporting
type CreditService struct {
	repos          apppos.Repositories
	scope          apppos.TransactionScope
	logger         *zap.Logger
	eventPublisher shared.EventPublisher
	metrics        *telemetry.SettlementMetrics
}

// NewCreditService creates a new CreditService
func NewCreditService(repos apppos.Repositories, scope apppos.TransactionScope, logger *zap.Logger) *CreditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditService{
		repos:  repos,
		scope:  scope,
		logger: logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *CreditService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the settlement metrics recorder
func (s *CreditService) SetMetrics(metrics *telemetry.SettlementMetrics) {
	s.metrics = metrics
}

// RecordCreditPayment takes a repayment from a customer against one of their credit orders.
// Unlike PaymentService.PayOffCredit it records a cash payment on the order, re-derives the
// order's status, routes the cash through the session and then lowers the customer's credit.
func (s *CreditService) RecordCreditPayment(ctx context.Context, req RecordCreditPaymentRequest) (*RecordCreditPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer_credit", "record_credit_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerID, req.CustomerID.String(),
		telemetry.SpanAttrOrderID, req.OrderID.String(),
		telemetry.SpanAttrSessionID, req.SessionID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	var (
		customer *partner.Customer
		payment  *pos.Payment
		result   *RecordCreditPaymentResult
		events   []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos apppos.TransactionalRepositories) error {
		var err error
		customer, err = repos.CustomerRepo().FindByID(ctx, req.CustomerID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFound("Customer")
			}
			return fmt.Errorf("failed to load customer: %w", err)
		}
		if req.Amount.GreaterThan(customer.CurrentCredit) {
			return partner.ErrCreditExceeded
		}

		order, err := repos.OrderRepo().FindByID(ctx, req.OrderID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFound("Order")
			}
			return fmt.Errorf("failed to load order: %w", err)
		}
		if !order.BelongsTo(customer.ID) {
			return shared.NewDomainError(shared.CodeInvalidInput, "Order does not belong to customer")
		}

		session, err := repos.SessionRepo().FindByID(ctx, req.SessionID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFound("Session")
			}
			return fmt.Errorf("failed to load session: %w", err)
		}
		if !session.IsOpen() {
			return pos.ErrSessionClosed
		}

		payment, err = pos.NewPayment(order.ID, session.ID, pos.MethodCash, req.Amount, req.ReceivedBy, req.Reference, req.Notes)
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
		status := pos.CreditSettlementStatus(payments, order.GrandTotal)
		if err := order.ApplyPaymentStatus(status); err != nil {
			return err
		}
		if err := repos.OrderRepo().Save(ctx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}

		session, err = apppos.UpdateSessionTotals(ctx, repos, session.ID, pos.MethodCash, req.Amount)
		if err != nil {
			return err
		}

		if err := customer.RepayCredit(req.Amount, partner.CreditReasonPayment); err != nil {
			return err
		}
		if err := repos.CustomerRepo().Save(ctx, customer); err != nil {
			return fmt.Errorf("failed to save customer: %w", err)
		}

		events = append(events, pos.NewPaymentRecordedEvent(payment))
		events = append(events, order.PullDomainEvents()...)
		events = append(events, session.PullDomainEvents()...)
		events = append(events, customer.PullDomainEvents()...)
		result = &RecordCreditPaymentResult{
			PaymentID:     payment.ID,
			OrderID:       order.ID,
			PaymentStatus: string(order.PaymentStatus),
			NewBalance:    customer.CurrentCredit,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Failed to record credit payment",
			zap.String("customer_id", req.CustomerID.String()),
			zap.String("order_id", req.OrderID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Credit payment recorded",
		zap.String("customer_id", customer.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("order_id", req.OrderID.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("payment_status", result.PaymentStatus),
		zap.String("new_balance", result.NewBalance.String()),
	)
	s.metrics.RecordPayment(ctx, string(pos.MethodCash), req.Amount)
	s.metrics.RecordCreditChange(ctx, partner.CreditReasonPayment, req.Amount.Neg())
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, events...)
	}

	return result, nil
}

// GetCreditSummary returns a customer's outstanding credit and limit
func (s *CreditService) GetCreditSummary(ctx context.Context, customerID uuid.UUID) (*CreditSummaryResponse, error) {
	customer, err := s.repos.Customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Customer")
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	resp := ToCreditSummaryResponse(customer)
	return &resp, nil
}

// ListCustomersWithCredit lists customers owing money, largest balance first
func (s *CreditService) ListCustomersWithCredit(ctx context.Context, filter shared.Filter) (*shared.Paginated[CreditSummaryResponse], error) {
	customers, total, err := s.repos.Customers.FindWithCredit(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers with credit: %w", err)
	}
	items := make([]CreditSummaryResponse, len(customers))
	for i := range customers {
		items[i] = ToCreditSummaryResponse(&customers[i])
	}
	page := shared.NewPaginated(items, total, max(filter.Page, 1), filter.Limit())
	return &page, nil
}
