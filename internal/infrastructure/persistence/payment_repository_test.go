package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func recordPayment(t *testing.T, db *gorm.DB, orderID, sessionID uuid.UUID, method pos.PaymentMethod, amount string, at time.Time) *pos.Payment {
	t.Helper()
	p, err := pos.NewPayment(orderID, sessionID, method, dec(amount), valueobject.MustNewSubject("cashier-1"), "", "")
	require.NoError(t, err)
	p.CreatedAt = at
	require.NoError(t, NewGormPaymentRepository(db).Create(context.Background(), p))
	return p
}

func TestGormPaymentRepository_FindByOrderAndSession(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	session := openSession(t, db, "cashier-1", time.Now())
	order := createOrder(t, db, "ORD-1", "500", &session.ID, nil)
	other := createOrder(t, db, "ORD-2", "80", &session.ID, nil)

	base := time.Now().Add(-time.Hour)
	second := recordPayment(t, db, order.ID, session.ID, pos.MethodCard, "200", base.Add(2*time.Minute))
	first := recordPayment(t, db, order.ID, session.ID, pos.MethodCash, "300", base.Add(time.Minute))
	recordPayment(t, db, other.ID, session.ID, pos.MethodQR, "80", base.Add(3*time.Minute))

	byOrder, err := repo.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, byOrder, 2)
	assert.Equal(t, first.ID, byOrder[0].ID)
	assert.Equal(t, second.ID, byOrder[1].ID)
	assert.True(t, pos.TotalPaid(byOrder).Equal(dec("500")))
	assert.Equal(t, "cashier-1", byOrder[0].ReceivedBy.String())

	bySession, err := repo.FindBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, bySession, 3)

	none, err := repo.FindByOrder(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormPaymentRepository_SumBySessionAndMethod(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	session := openSession(t, db, "cashier-1", time.Now())
	order := createOrder(t, db, "ORD-1", "1000", &session.ID, nil)
	now := time.Now()
	recordPayment(t, db, order.ID, session.ID, pos.MethodCash, "120.25", now)
	recordPayment(t, db, order.ID, session.ID, pos.MethodCash, "79.75", now.Add(time.Second))
	recordPayment(t, db, order.ID, session.ID, pos.MethodCard, "300", now.Add(2*time.Second))

	cash, err := repo.SumBySessionAndMethod(ctx, session.ID, pos.MethodCash)
	require.NoError(t, err)
	assert.True(t, cash.Equal(dec("200")), "got %s", cash)

	credit, err := repo.SumBySessionAndMethod(ctx, session.ID, pos.MethodCredit)
	require.NoError(t, err)
	assert.True(t, credit.IsZero())

	empty, err := repo.SumBySessionAndMethod(ctx, uuid.New(), pos.MethodCash)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func TestGormPaymentRepository_Mock(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	sessionID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT SUM(amount) FROM "payments" WHERE session_id = $1 AND method = $2`)).
		WithArgs(sessionID, pos.MethodCash).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("1234.5600"))

	total, err := NewGormPaymentRepository(db).SumBySessionAndMethod(context.Background(), sessionID, pos.MethodCash)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("1234.56")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
