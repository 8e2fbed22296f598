package analytics

import (
	"context"
	"testing"
	"time"

	"expense_tracker/internal/config"
	"expense_tracker/internal/db"
	"expense_tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// AnalyticsTestSuite runs the aggregations against a fresh in-memory database
type AnalyticsTestSuite struct {
	suite.Suite
	db    *gorm.DB
	svc   *Service
	ctx   context.Context
	alice domain.User
	bob   domain.User
}

// SetupTest runs before each test
func (s *AnalyticsTestSuite) SetupTest() {
	gdb, err := db.Open(config.DriverSQLite, "file::memory:?_pragma=foreign_keys(1)&_time_format=sqlite")
	s.Require().NoError(err, "failed to open test database")
	s.Require().NoError(db.Migrate(gdb))
	s.db = gdb
	s.svc = NewService(gdb)
	s.svc.now = func() time.Time { return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC) }
	s.ctx = context.Background()

	s.alice = domain.User{Email: "alice@example.com", HashedPassword: "x", FirstName: "Alice", LastName: "A"}
	s.bob = domain.User{Email: "bob@example.com", HashedPassword: "x", FirstName: "Bob", LastName: "B"}
	s.Require().NoError(gdb.Create(&s.alice).Error)
	s.Require().NoError(gdb.Create(&s.bob).Error)
}

// TearDownTest runs after each test
func (s *AnalyticsTestSuite) TearDownTest() {
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (s *AnalyticsTestSuite) category(user domain.User, name string, typ domain.CategoryType) domain.Category {
	cat := domain.Category{UserID: user.ID, Name: name, Type: typ}
	s.Require().NoError(s.db.Create(&cat).Error)
	return cat
}

func (s *AnalyticsTestSuite) expense(cat domain.Category, cents int64, day time.Time) {
	e := domain.Expense{UserID: cat.UserID, CategoryID: cat.ID, AmountCents: cents, Description: "test", Date: day}
	s.Require().NoError(s.db.Create(&e).Error)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func (s *AnalyticsTestSuite) TestDashboardWithoutExpenses() {
	s.category(s.alice, "Food", domain.CategoryExpense)

	summary, err := s.svc.Dashboard(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(domain.Money(0), summary.TotalIncome)
	s.Equal(domain.Money(0), summary.TotalExpenses)
	s.Equal(domain.Money(0), summary.NetBalance)
	s.Nil(summary.TopExpenseCategory)
	s.Nil(summary.TopIncomeCategory)
}

func (s *AnalyticsTestSuite) TestDashboardTotals() {
	salary := s.category(s.alice, "Salary", domain.CategoryIncome)
	food := s.category(s.alice, "Food", domain.CategoryExpense)
	rent := s.category(s.alice, "Rent", domain.CategoryExpense)
	s.expense(salary, 300000, day(2025, time.June, 1))
	s.expense(food, 1250, day(2025, time.June, 2))
	s.expense(food, 2000, day(2025, time.June, 3))
	s.expense(rent, 90000, day(2025, time.June, 1))

	// another user's rows must not leak in
	bobFood := s.category(s.bob, "Food", domain.CategoryExpense)
	s.expense(bobFood, 999999, day(2025, time.June, 1))

	summary, err := s.svc.Dashboard(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Equal("3000.00", summary.TotalIncome.String())
	s.Equal("932.50", summary.TotalExpenses.String())
	s.Equal("2067.50", summary.NetBalance.String())
	s.Require().NotNil(summary.TopExpenseCategory)
	s.Equal("Rent", *summary.TopExpenseCategory)
	s.Require().NotNil(summary.TopIncomeCategory)
	s.Equal("Salary", *summary.TopIncomeCategory)
}

func (s *AnalyticsTestSuite) TestDashboardNegativeBalance() {
	food := s.category(s.alice, "Food", domain.CategoryExpense)
	s.expense(food, 1050, day(2025, time.June, 2))

	summary, err := s.svc.Dashboard(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Equal("-10.50", summary.NetBalance.String())
	s.Nil(summary.TopIncomeCategory)
}

func (s *AnalyticsTestSuite) TestByCategoryOrderAndCounts() {
	food := s.category(s.alice, "Food", domain.CategoryExpense)
	fun := s.category(s.alice, "Fun", domain.CategoryExpense)
	s.category(s.alice, "Unused", domain.CategoryExpense)
	salary := s.category(s.alice, "Salary", domain.CategoryIncome)
	s.expense(food, 500, day(2025, time.May, 1))
	s.expense(food, 500, day(2025, time.May, 2))
	s.expense(fun, 1000, day(2025, time.May, 3))
	s.expense(salary, 5000, day(2025, time.May, 1))

	got, err := s.svc.ByCategory(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Require().Len(got, 3)

	s.Equal("Salary", got[0].CategoryName)
	s.Equal(domain.CategoryIncome, got[0].CategoryType)
	// Food and Fun tie on total, lower id first
	s.Equal(food.ID, got[1].CategoryID)
	s.Equal(int64(2), got[1].TransactionCount)
	s.Equal("10.00", got[1].TotalAmount.String())
	s.Equal(fun.ID, got[2].CategoryID)
	s.Equal(int64(1), got[2].TransactionCount)
}

func (s *AnalyticsTestSuite) TestByCategoryIsolatedPerUser() {
	bobFood := s.category(s.bob, "Food", domain.CategoryExpense)
	s.expense(bobFood, 700, day(2025, time.May, 1))

	got, err := s.svc.ByCategory(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *AnalyticsTestSuite) TestMonthlyNewestFirst() {
	salary := s.category(s.alice, "Salary", domain.CategoryIncome)
	food := s.category(s.alice, "Food", domain.CategoryExpense)
	s.expense(salary, 10000, day(2025, time.June, 1))
	s.expense(food, 2500, day(2025, time.June, 14))
	s.expense(food, 1000, day(2025, time.April, 30))
	s.expense(food, 4000, day(2025, time.March, 31)) // outside a 3 month window
	s.expense(food, 4000, day(2025, time.July, 1))   // after the current month

	bobFood := s.category(s.bob, "Food", domain.CategoryExpense)
	s.expense(bobFood, 123, day(2025, time.June, 2))

	got, err := s.svc.Monthly(s.ctx, s.alice.ID, 3)
	s.Require().NoError(err)
	s.Require().Len(got, 2)

	s.Equal("2025-06", got[0].Month)
	s.Equal("100.00", got[0].TotalIncome.String())
	s.Equal("25.00", got[0].TotalExpenses.String())
	s.Equal("75.00", got[0].NetBalance.String())

	s.Equal("2025-04", got[1].Month)
	s.Equal("0.00", got[1].TotalIncome.String())
	s.Equal("10.00", got[1].TotalExpenses.String())
	s.Equal("-10.00", got[1].NetBalance.String())
}

func (s *AnalyticsTestSuite) TestMonthlyNeverExceedsMonths() {
	food := s.category(s.alice, "Food", domain.CategoryExpense)
	for m := time.January; m <= time.June; m++ {
		s.expense(food, 100, day(2025, m, 10))
	}
	for months := 1; months <= MaxMonths; months++ {
		got, err := s.svc.Monthly(s.ctx, s.alice.ID, months)
		s.Require().NoError(err)
		s.LessOrEqual(len(got), months)
		s.Len(got, min(months, 6))
	}
}

func (s *AnalyticsTestSuite) TestMonthlyRejectsOutOfRange() {
	for _, months := range []int{-1, 0, MaxMonths + 1} {
		_, err := s.svc.Monthly(s.ctx, s.alice.ID, months)
		s.ErrorIs(err, ErrInvalidMonths)
	}
}

func TestAnalyticsTestSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsTestSuite))
}

func TestMonthWindow(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		months   int
		from, to time.Time
	}{
		{"single month", time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC), 1, day(2025, time.June, 1), day(2025, time.July, 1)},
		{"crosses year", time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC), 3, day(2024, time.December, 1), day(2025, time.March, 1)},
		{"december", time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC), 12, day(2025, time.January, 1), day(2026, time.January, 1)},
		{"non utc input", time.Date(2025, time.July, 1, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600)), 1, day(2025, time.June, 1), day(2025, time.July, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := MonthWindow(tt.now, tt.months)
			if !from.Equal(tt.from) || !to.Equal(tt.to) {
				t.Errorf("MonthWindow() = [%v, %v), want [%v, %v)", from, to, tt.from, tt.to)
			}
		})
	}
}

func TestMonthlySeparatesMonthsWithPlainSQLiteDSN(t *testing.T) {
	gdb, err := db.Open(config.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	user := domain.User{Email: "plain@example.com", HashedPassword: "x", FirstName: "P", LastName: "D"}
	require.NoError(t, gdb.Create(&user).Error)
	cat := domain.Category{UserID: user.ID, Name: "Food", Type: domain.CategoryExpense}
	require.NoError(t, gdb.Create(&cat).Error)
	for _, d := range []time.Time{day(2025, time.June, 1), day(2025, time.May, 3)} {
		e := domain.Expense{UserID: user.ID, CategoryID: cat.ID, AmountCents: 500, Description: "x", Date: d}
		require.NoError(t, gdb.Create(&e).Error)
	}

	svc := NewService(gdb)
	svc.now = func() time.Time { return time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC) }
	got, err := svc.Monthly(context.Background(), user.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, []MonthlySummary{
		{Month: "2025-06", TotalExpenses: 500, NetBalance: -500},
		{Month: "2025-05", TotalExpenses: 500, NetBalance: -500},
	}, got)
}
