package pos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/erp/restaurant/internal/domain/trade"
	"github.com/erp/restaurant/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SessionServiceConfig holds business-day and variance settings
type SessionServiceConfig struct {
	// Location is the business time zone used to date sessions. Defaults to time.Local.
	Location *time.Location
	// Thresholds classify the cash variance at close
	Thresholds pos.VarianceThresholds
}

// SessionService manages cashier sessions: open, close, accumulator bumps and reporting
type SessionService struct {
	repos          Repositories
	scope          TransactionScope
	config         SessionServiceConfig
	logger         *zap.Logger
	eventPublisher shared.EventPublisher
	metrics        *telemetry.SettlementMetrics
	now            func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(repos Repositories, scope TransactionScope, config SessionServiceConfig, logger *zap.Logger) *SessionService {
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Thresholds.Critical.IsZero() && config.Thresholds.Tolerance.IsZero() {
		config.Thresholds = pos.DefaultVarianceThresholds()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		repos:  repos,
		scope:  scope,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SessionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the settlement metrics recorder
func (s *SessionService) SetMetrics(metrics *telemetry.SettlementMetrics) {
	s.metrics = metrics
}

// Open opens a drawer for the cashier. At most one session per cashier may be open.
func (s *SessionService) Open(ctx context.Context, req OpenSessionRequest) (*SessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier_session", "open")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCashierID, req.CashierID.String(),
		telemetry.SpanAttrAmount, req.OpeningCash.String(),
	)

	var session *pos.CashierSession
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		_, err := repos.SessionRepo().FindOpenByCashier(ctx, req.CashierID)
		if err == nil {
			return pos.ErrOpenSessionExists
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("failed to check open session: %w", err)
		}

		session, err = pos.OpenCashierSession(req.CashierID, req.OpeningCash, s.now(), s.config.Location)
		if err != nil {
			return err
		}
		if err := repos.SessionRepo().Create(ctx, session); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Cashier session opened",
		zap.String("session_id", session.ID.String()),
		zap.String("cashier_id", session.CashierID.String()),
		zap.String("opening_cash", session.OpeningCash.String()),
		zap.Time("session_date", session.SessionDate),
	)
	s.metrics.RecordSessionOpened(ctx)
	s.publishDomainEvents(ctx, session)

	resp := ToSessionResponse(session)
	return &resp, nil
}

// Close counts the drawer and freezes the session. Cash sales are recomputed
// from the session's cash payments, not read from the running accumulator.
func (s *SessionService) Close(ctx context.Context, sessionID uuid.UUID, req CloseSessionRequest) (*SessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier_session", "close")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSessionID, sessionID.String(),
		telemetry.SpanAttrAmount, req.ClosingCash.String(),
	)

	var session *pos.CashierSession
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		session, err = loadSession(ctx, repos, sessionID)
		if err != nil {
			return err
		}
		if !session.IsOpen() {
			return pos.ErrSessionClosed
		}

		cashSales, err := repos.PaymentRepo().SumBySessionAndMethod(ctx, sessionID, pos.MethodCash)
		if err != nil {
			return fmt.Errorf("failed to sum cash payments: %w", err)
		}
		if err := session.Close(req.ClosingCash, cashSales, req.Notes, s.config.Thresholds, s.now()); err != nil {
			return err
		}
		if err := repos.SessionRepo().Save(ctx, session); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	fields := []zap.Field{
		zap.String("session_id", session.ID.String()),
		zap.String("cashier_id", session.CashierID.String()),
		zap.String("expected_cash", session.ExpectedCash.String()),
		zap.String("closing_cash", session.ClosingCash.String()),
		zap.String("cash_variance", session.CashVariance.String()),
		zap.String("variance_level", string(session.VarianceLevel)),
	}
	if session.VarianceLevel == pos.VarianceBalanced {
		s.logger.Info("Cashier session closed", fields...)
	} else {
		s.logger.Warn("Cashier session closed with cash variance", fields...)
	}
	s.metrics.RecordSessionClosed(ctx, string(session.VarianceLevel), *session.CashVariance)
	s.publishDomainEvents(ctx, session)

	resp := ToSessionResponse(session)
	return &resp, nil
}

// UpdateTotals adds an amount to a session's tender accumulator outside the payment flow
func (s *SessionService) UpdateTotals(ctx context.Context, sessionID uuid.UUID, req UpdateTotalsRequest) (*SessionResponse, error) {
	method, err := pos.ParsePaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier_session", "update_totals")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSessionID, sessionID.String(),
		telemetry.SpanAttrPaymentMethod, string(method),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	var session *pos.CashierSession
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		session, err = UpdateSessionTotals(ctx, repos, sessionID, method, req.Amount)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToSessionResponse(session)
	return &resp, nil
}

// UpdateSessionTotals bumps a session accumulator within a caller's scope.
// It is shared with collaborators that route money through a session.
func UpdateSessionTotals(ctx context.Context, repos TransactionalRepositories, sessionID uuid.UUID, method pos.PaymentMethod, amount decimal.Decimal) (*pos.CashierSession, error) {
	session, err := loadSession(ctx, repos, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.RecordTender(method, amount); err != nil {
		return nil, err
	}
	if err := repos.SessionRepo().Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// IncrementOrderCount counts one more order against the session
func (s *SessionService) IncrementOrderCount(ctx context.Context, sessionID uuid.UUID) (*SessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier_session", "increment_order_count")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSessionID, sessionID.String())

	var session *pos.CashierSession
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		session, err = loadSession(ctx, repos, sessionID)
		if err != nil {
			return err
		}
		if err := session.IncrementOrderCount(); err != nil {
			return err
		}
		if err := repos.SessionRepo().Save(ctx, session); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToSessionResponse(session)
	return &resp, nil
}

// GetActive returns the cashier's open session, or nil if there is none
func (s *SessionService) GetActive(ctx context.Context, cashierID valueobject.Subject) (*SessionResponse, error) {
	session, err := s.repos.Sessions.FindOpenByCashier(ctx, cashierID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active session: %w", err)
	}
	resp := ToSessionResponse(session)
	return &resp, nil
}

// GetByID returns a session
func (s *SessionService) GetByID(ctx context.Context, sessionID uuid.UUID) (*SessionResponse, error) {
	session, err := loadSession(ctx, s.repos, sessionID)
	if err != nil {
		return nil, err
	}
	resp := ToSessionResponse(session)
	return &resp, nil
}

// GetTodaySession returns the cashier's latest session for the current business day, or nil
func (s *SessionService) GetTodaySession(ctx context.Context, cashierID valueobject.Subject) (*SessionResponse, error) {
	today := pos.BusinessDay(s.now(), s.config.Location)
	session, err := s.repos.Sessions.FindLatestByCashierAndDate(ctx, cashierID, today)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find today's session: %w", err)
	}
	resp := ToSessionResponse(session)
	return &resp, nil
}

// GetSummary rolls up a session's orders and payments.
// Expected cash is opening cash plus the cash payments of the session.
func (s *SessionService) GetSummary(ctx context.Context, sessionID uuid.UUID) (*SessionSummaryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier_session", "get_summary")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSessionID, sessionID.String())

	session, err := loadSession(ctx, s.repos, sessionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		orders   []trade.Order
		payments []pos.Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.repos.Orders.FindBySession(gctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load session orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		payments, err = s.repos.Payments.FindBySession(gctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load session payments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	byMethod := pos.SummarizeByMethod(payments)
	return &SessionSummaryResponse{
		Session:      ToSessionResponse(session),
		OrderList:    toSessionOrders(orders),
		PaymentList:  ToPaymentResponses(payments),
		Orders:       orderStatsFor(orders),
		Payments:     byMethod,
		CashTotal:    byMethod.Cash,
		ExpectedCash: session.ExpectedCashFor(byMethod.Cash),
	}, nil
}

// Location is the business time zone sessions are dated in
func (s *SessionService) Location() *time.Location {
	return s.config.Location
}

// GetHistory lists sessions newest first, optionally filtered by cashier, status and business-day range
func (s *SessionService) GetHistory(ctx context.Context, query SessionHistoryQuery) (*shared.Paginated[SessionResponse], error) {
	filter := pos.SessionHistoryFilter{
		Filter:    shared.Filter{Page: query.Page, PageSize: query.PageSize},
		CashierID: query.CashierID,
		Status:    query.Status,
	}
	if query.From != nil {
		from := pos.BusinessDay(*query.From, s.config.Location)
		filter.From = &from
	}
	if query.To != nil {
		to := pos.BusinessDay(*query.To, s.config.Location)
		filter.To = &to
	}

	sessions, total, err := s.repos.Sessions.FindHistory(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}

	items := make([]SessionResponse, len(sessions))
	for i := range sessions {
		items[i] = ToSessionResponse(&sessions[i])
	}
	page := shared.NewPaginated(items, total, max(filter.Page, 1), filter.Limit())
	return &page, nil
}

// Reconcile recomputes a session's tender totals from its payments and compares
// the stored order count with the orders tagged to the session. The order
// count is informational: orders can carry the session ID without going
// through IncrementOrderCount, so apply writes back tender totals only.
// Closed sessions can only be inspected.
func (s *SessionService) Reconcile(ctx context.Context, sessionID uuid.UUID, apply bool) (*ReconciliationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier_session", "reconcile")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSessionID, sessionID.String(), "apply", apply)

	var result *ReconciliationResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		session, err := loadSession(ctx, repos, sessionID)
		if err != nil {
			return err
		}
		payments, err := repos.PaymentRepo().FindBySession(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load session payments: %w", err)
		}
		orders, err := repos.OrderRepo().FindBySession(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load session orders: %w", err)
		}

		recomputed := pos.TenderTotalsFromPayments(payments)
		result = &ReconciliationResponse{
			SessionID:        sessionID,
			Stored:           session.Totals,
			Recomputed:       recomputed,
			Drift:            recomputed.Sub(session.Totals),
			StoredOrders:     session.TotalOrders,
			RecomputedOrders: len(orders),
		}
		result.InSync = result.Drift.IsZero()
		result.OrdersInSync = result.StoredOrders == result.RecomputedOrders

		if !apply || result.InSync {
			return nil
		}
		if !session.IsOpen() {
			return pos.ErrSessionClosed
		}
		session.Reconcile(recomputed)
		if err := repos.SessionRepo().Save(ctx, session); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		result.Applied = true
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if !result.InSync {
		s.logger.Warn("Cashier session accumulators drifted from payments",
			zap.String("session_id", sessionID.String()),
			zap.String("cash_drift", result.Drift.Cash.String()),
			zap.String("card_drift", result.Drift.Card.String()),
			zap.String("qr_drift", result.Drift.QR.String()),
			zap.String("credit_drift", result.Drift.Credit.String()),
			zap.Bool("applied", result.Applied),
		)
	}
	if !result.OrdersInSync {
		s.logger.Info("Cashier session order count differs from tagged orders",
			zap.String("session_id", sessionID.String()),
			zap.Int("stored_orders", result.StoredOrders),
			zap.Int("tagged_orders", result.RecomputedOrders),
		)
	}
	return result, nil
}

// publishDomainEvents publishes and clears the session's pending events
func (s *SessionService) publishDomainEvents(ctx context.Context, session *pos.CashierSession) {
	events := session.PullDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Publish errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
}

func loadSession(ctx context.Context, repos TransactionalRepositories, sessionID uuid.UUID) (*pos.CashierSession, error) {
	session, err := repos.SessionRepo().FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Session")
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}
