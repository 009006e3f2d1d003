package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/restaurant/internal/domain/partner"
	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/erp/restaurant/internal/domain/trade"
	"github.com/erp/restaurant/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newTestDB opens a migrated in-memory SQLite database
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := NewDatabase(&config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		Path:         ":memory:",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, AutoMigrate(database.DB))
	return database.DB
}

// newMockDB returns a GORM postgres dialector over sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var testLoc = time.FixedZone("NPT", 5*3600+45*60)

func openSession(t *testing.T, db *gorm.DB, cashier string, at time.Time) *pos.CashierSession {
	t.Helper()
	s, err := pos.OpenCashierSession(valueobject.MustNewSubject(cashier), dec("1000"), at, testLoc)
	require.NoError(t, err)
	require.NoError(t, NewGormCashierSessionRepository(db).Create(context.Background(), s))
	return s
}

func createOrder(t *testing.T, db *gorm.DB, number, total string, sessionID, customerID *uuid.UUID) *trade.Order {
	t.Helper()
	o, err := trade.NewOrder(number, dec(total), sessionID, customerID)
	require.NoError(t, err)
	require.NoError(t, NewGormOrderRepository(db).Create(context.Background(), o))
	return o
}

func createCustomer(t *testing.T, db *gorm.DB, code string, credit string) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(code, "Customer "+code)
	require.NoError(t, err)
	c.CurrentCredit = dec(credit)
	require.NoError(t, NewGormCustomerRepository(db).Create(context.Background(), c))
	return c
}
