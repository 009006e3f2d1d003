package pos

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/erp/restaurant/internal/domain/partner"
	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/erp/restaurant/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected failure")

// memStore is an in-memory settlement store. Reads return copies so that
// unsaved mutations are not visible, as with a database.
type memStore struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]pos.CashierSession
	payments  []pos.Payment
	orders    map[uuid.UUID]trade.Order
	customers map[uuid.UUID]partner.Customer

	// failOn names a write ("payment.create", "session.save", "order.save",
	// "customer.save") that returns errInjected
	failOn string
}

func newMemStore() *memStore {
	return &memStore{
		sessions:  make(map[uuid.UUID]pos.CashierSession),
		orders:    make(map[uuid.UUID]trade.Order),
		customers: make(map[uuid.UUID]partner.Customer),
	}
}

func (m *memStore) repositories() Repositories {
	return Repositories{
		Sessions:  memSessionRepo{m},
		Payments:  memPaymentRepo{m},
		Orders:    memOrderRepo{m},
		Customers: memCustomerRepo{m},
	}
}

func (m *memStore) fail(op string) error {
	if m.failOn == op {
		return errInjected
	}
	return nil
}

// snapshot copies the store contents for rollback
func (m *memStore) snapshot() *memStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := newMemStore()
	for k, v := range m.sessions {
		s.sessions[k] = v
	}
	for k, v := range m.orders {
		s.orders[k] = v
	}
	for k, v := range m.customers {
		s.customers[k] = v
	}
	s.payments = append(s.payments, m.payments...)
	return s
}

func (m *memStore) restore(s *memStore) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions, m.orders, m.customers, m.payments = s.sessions, s.orders, s.customers, s.payments
}

// memAtomicScope rolls the store back when fn fails
type memAtomicScope struct {
	store *memStore
}

func (s memAtomicScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	before := s.store.snapshot()
	if err := fn(s.store.repositories()); err != nil {
		s.store.restore(before)
		return err
	}
	return nil
}

type memSessionRepo struct{ m *memStore }

func (r memSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*pos.CashierSession, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	s.ClearDomainEvents()
	return &s, nil
}

func (r memSessionRepo) FindOpenByCashier(_ context.Context, cashierID valueobject.Subject) (*pos.CashierSession, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.sessions {
		if s.CashierID.Equals(cashierID) && s.IsOpen() {
			s.ClearDomainEvents()
			return &s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memSessionRepo) FindLatestByCashierAndDate(_ context.Context, cashierID valueobject.Subject, day time.Time) (*pos.CashierSession, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var latest *pos.CashierSession
	for _, s := range r.m.sessions {
		if !s.CashierID.Equals(cashierID) || !s.SessionDate.Equal(day) {
			continue
		}
		if latest == nil || s.OpenedAt.After(latest.OpenedAt) {
			c := s
			latest = &c
		}
	}
	if latest == nil {
		return nil, shared.ErrNotFound
	}
	latest.ClearDomainEvents()
	return latest, nil
}

func (r memSessionRepo) FindHistory(_ context.Context, filter pos.SessionHistoryFilter) ([]pos.CashierSession, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var all []pos.CashierSession
	for _, s := range r.m.sessions {
		if filter.CashierID != nil && !s.CashierID.Equals(*filter.CashierID) {
			continue
		}
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		if filter.From != nil && s.SessionDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && s.SessionDate.After(*filter.To) {
			continue
		}
		s.ClearDomainEvents()
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].OpenedAt.After(all[j].OpenedAt) })

	total := int64(len(all))
	start := min(filter.Offset(), len(all))
	end := min(start+filter.Limit(), len(all))
	return all[start:end], total, nil
}

func (r memSessionRepo) Create(_ context.Context, s *pos.CashierSession) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.sessions {
		if existing.CashierID.Equals(s.CashierID) && existing.IsOpen() && s.IsOpen() {
			return pos.ErrOpenSessionExists
		}
	}
	r.m.sessions[s.ID] = *s
	return nil
}

func (r memSessionRepo) Save(_ context.Context, s *pos.CashierSession) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("session.save"); err != nil {
		return err
	}
	if _, ok := r.m.sessions[s.ID]; !ok {
		return shared.ErrNotFound
	}
	s.Version++
	r.m.sessions[s.ID] = *s
	return nil
}

type memPaymentRepo struct{ m *memStore }

func (r memPaymentRepo) Create(_ context.Context, p *pos.Payment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("payment.create"); err != nil {
		return err
	}
	r.m.payments = append(r.m.payments, *p)
	return nil
}

func (r memPaymentRepo) FindByOrder(_ context.Context, orderID uuid.UUID) ([]pos.Payment, error) {
	return r.filter(func(p pos.Payment) bool { return p.OrderID == orderID }), nil
}

func (r memPaymentRepo) FindBySession(_ context.Context, sessionID uuid.UUID) ([]pos.Payment, error) {
	return r.filter(func(p pos.Payment) bool { return p.SessionID == sessionID }), nil
}

func (r memPaymentRepo) SumBySessionAndMethod(_ context.Context, sessionID uuid.UUID, method pos.PaymentMethod) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.filter(func(p pos.Payment) bool { return p.SessionID == sessionID && p.Method == method }) {
		sum = sum.Add(p.Amount)
	}
	return sum, nil
}

func (r memPaymentRepo) filter(keep func(pos.Payment) bool) []pos.Payment {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []pos.Payment{}
	for _, p := range r.m.payments {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

type memOrderRepo struct{ m *memStore }

func (r memOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*trade.Order, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o, ok := r.m.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	o.ClearDomainEvents()
	return &o, nil
}

func (r memOrderRepo) FindBySession(_ context.Context, sessionID uuid.UUID) ([]trade.Order, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []trade.Order{}
	for _, o := range r.m.orders {
		if o.SessionID != nil && *o.SessionID == sessionID {
			o.ClearDomainEvents()
			out = append(out, o)
		}
	}
	return out, nil
}

func (r memOrderRepo) Create(_ context.Context, o *trade.Order) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.orders[o.ID] = *o
	return nil
}

func (r memOrderRepo) Save(_ context.Context, o *trade.Order) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("order.save"); err != nil {
		return err
	}
	o.Version++
	r.m.orders[o.ID] = *o
	return nil
}

type memCustomerRepo struct{ m *memStore }

func (r memCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c.ClearDomainEvents()
	return &c, nil
}

func (r memCustomerRepo) FindWithCredit(_ context.Context, filter shared.Filter) ([]partner.Customer, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []partner.Customer
	for _, c := range r.m.customers {
		if c.HasCredit() {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (r memCustomerRepo) Create(_ context.Context, c *partner.Customer) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.customers[c.ID] = *c
	return nil
}

func (r memCustomerRepo) Save(_ context.Context, c *partner.Customer) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("customer.save"); err != nil {
		return err
	}
	c.Version++
	r.m.customers[c.ID] = *c
	return nil
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// eventTypes lists the types of the events passed to the n-th Publish call
func (m *MockEventPublisher) eventTypes(n int) []string {
	events := m.Calls[n].Arguments.Get(1).([]shared.DomainEvent)
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType()
	}
	return types
}

// fixture seeds one open session and helpers for orders and customers
type fixture struct {
	t       *testing.T
	store   *memStore
	cashier valueobject.Subject
	session *pos.CashierSession
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	cashier := valueobject.MustNewSubject("cashier-1")
	session, err := pos.OpenCashierSession(cashier, dec("100"), time.Now(), time.UTC)
	require.NoError(t, err)
	session.ClearDomainEvents()
	require.NoError(t, store.repositories().Sessions.Create(context.Background(), session))
	return &fixture{t: t, store: store, cashier: cashier, session: session}
}

func (f *fixture) order(total string, customer *partner.Customer) *trade.Order {
	f.t.Helper()
	var customerID *uuid.UUID
	if customer != nil {
		customerID = &customer.ID
	}
	o, err := trade.NewOrder("ORD-"+uuid.NewString()[:8], dec(total), &f.session.ID, customerID)
	require.NoError(f.t, err)
	require.NoError(f.t, f.store.repositories().Orders.Create(context.Background(), o))
	return o
}

func (f *fixture) customer(credit string) *partner.Customer {
	f.t.Helper()
	c, err := partner.NewCustomer("C-"+uuid.NewString()[:8], "Walk-in Account")
	require.NoError(f.t, err)
	c.CurrentCredit = dec(credit)
	require.NoError(f.t, f.store.repositories().Customers.Create(context.Background(), c))
	return c
}

func (f *fixture) reloadSession() *pos.CashierSession {
	f.t.Helper()
	s, err := f.store.repositories().Sessions.FindByID(context.Background(), f.session.ID)
	require.NoError(f.t, err)
	return s
}

func (f *fixture) reloadOrder(id uuid.UUID) *trade.Order {
	f.t.Helper()
	o, err := f.store.repositories().Orders.FindByID(context.Background(), id)
	require.NoError(f.t, err)
	return o
}

func (f *fixture) reloadCustomer(id uuid.UUID) *partner.Customer {
	f.t.Helper()
	c, err := f.store.repositories().Customers.FindByID(context.Background(), id)
	require.NoError(f.t, err)
	return c
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
