//go:build integration

package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/erp/restaurant/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newPostgresDB starts a PostgreSQL container and applies the embedded migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("settlement_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, "", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(3), version)
	assert.False(t, dirty)

	return db
}

func TestPostgres_OneOpenSessionPerCashier(t *testing.T) {
	db := newPostgresDB(t)
	repo := NewGormCashierSessionRepository(db)
	cashier := valueobject.MustNewSubject("cashier-1")
	now := time.Now()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		dup     int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := pos.OpenCashierSession(cashier, dec("100"), now, time.UTC)
			if err != nil {
				return
			}
			err = repo.Create(context.Background(), s)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case assert.ErrorIs(t, err, pos.ErrOpenSessionExists):
				dup++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 4, dup)
}

func TestPostgres_SessionRoundTrip(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	repo := NewGormCashierSessionRepository(db).WithOptimisticLock()
	loc := time.FixedZone("NPT", 5*3600+45*60)

	opened := time.Date(2026, 3, 14, 23, 30, 0, 0, loc)
	session, err := pos.OpenCashierSession(valueobject.MustNewSubject("cashier-1"), dec("500"), opened, loc)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, session))

	today, err := repo.FindLatestByCashierAndDate(ctx, session.CashierID, pos.BusinessDay(opened, loc))
	require.NoError(t, err)
	assert.Equal(t, session.ID, today.ID)

	order := createOrder(t, db, "ORD-1", "120", &session.ID, nil)
	p, err := pos.NewPayment(order.ID, session.ID, pos.MethodCash, dec("120"), session.CashierID, "", "")
	require.NoError(t, err)
	require.NoError(t, NewGormPaymentRepository(db).Create(ctx, p))

	cash, err := NewGormPaymentRepository(db).SumBySessionAndMethod(ctx, session.ID, pos.MethodCash)
	require.NoError(t, err)
	assert.True(t, cash.Equal(dec("120")))

	stale, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	require.NoError(t, today.Close(dec("620"), cash, "", pos.DefaultVarianceThresholds(), time.Now()))
	require.NoError(t, repo.Save(ctx, today))

	require.NoError(t, stale.RecordTender(pos.MethodCash, dec("1")))
	assert.ErrorIs(t, repo.Save(ctx, stale), shared.ErrConcurrencyConflict)

	closed, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, pos.SessionStatusClosed, closed.Status)
	assert.Equal(t, pos.VarianceBalanced, closed.VarianceLevel)
}
