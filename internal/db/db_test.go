package db

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"expense_tracker/internal/config"
	"expense_tracker/internal/domain"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const memoryDSN = "file::memory:?_pragma=foreign_keys(1)&_time_format=sqlite"

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := Open(config.DriverSQLite, memoryDSN)
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestMigrateCreatesTables(t *testing.T) {
	gdb := openTestDB(t)
	for _, model := range []any{&domain.User{}, &domain.Category{}, &domain.Expense{}} {
		assert.True(t, gdb.Migrator().HasTable(model), "%T table missing", model)
	}
}

func TestIsUniqueViolationOnDuplicateEmail(t *testing.T) {
	gdb := openTestDB(t)
	require.NoError(t, gdb.Create(&domain.User{Email: "a@example.com", HashedPassword: "x", FirstName: "A", LastName: "B"}).Error)

	err := gdb.Create(&domain.User{Email: "a@example.com", HashedPassword: "y", FirstName: "C", LastName: "D"}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestIsUniqueViolationDriverErrors(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.True(t, IsUniqueViolation(fmt.Errorf("create user: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsUniqueViolation(&mysql.MySQLError{Number: 1452}))
}

func TestMonthExprBucketsByMonth(t *testing.T) {
	gdb := openTestDB(t)
	user := domain.User{Email: "m@example.com", HashedPassword: "x", FirstName: "M", LastName: "N"}
	require.NoError(t, gdb.Create(&user).Error)
	cat := domain.Category{UserID: user.ID, Name: "Food", Type: domain.CategoryExpense}
	require.NoError(t, gdb.Create(&cat).Error)
	day := time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, gdb.Create(&domain.Expense{UserID: user.ID, CategoryID: cat.ID, AmountCents: 100, Description: "x", Date: day}).Error)

	var month string
	require.NoError(t, gdb.Model(&domain.Expense{}).Select(MonthExpr(gdb, "date")).Scan(&month).Error)
	assert.Equal(t, "2025-03", month)
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"expenses.db", "expenses.db?_time_format=sqlite&_pragma=foreign_keys(1)"},
		{"file::memory:", "file::memory:?_time_format=sqlite&_pragma=foreign_keys(1)"},
		{"file:x.db?cache=shared", "file:x.db?cache=shared&_time_format=sqlite&_pragma=foreign_keys(1)"},
		{memoryDSN, memoryDSN},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SQLiteDSN(tt.in), tt.in)
	}
}

func TestMonthExprWithPlainDSN(t *testing.T) {
	gdb, err := Open(config.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	user := domain.User{Email: "p@example.com", HashedPassword: "x", FirstName: "P", LastName: "Q"}
	require.NoError(t, gdb.Create(&user).Error)
	cat := domain.Category{UserID: user.ID, Name: "Food", Type: domain.CategoryExpense}
	require.NoError(t, gdb.Create(&cat).Error)
	for _, day := range []time.Time{
		time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.May, 3, 0, 0, 0, 0, time.UTC),
	} {
		require.NoError(t, gdb.Create(&domain.Expense{UserID: user.ID, CategoryID: cat.ID, AmountCents: 500, Description: "x", Date: day}).Error)
	}

	var months []string
	require.NoError(t, gdb.Model(&domain.Expense{}).Select(MonthExpr(gdb, "date")).Order("date DESC").Scan(&months).Error)
	assert.Equal(t, []string{"2025-06", "2025-05"}, months)
}
