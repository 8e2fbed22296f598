// Package analytics computes read-only summaries over a user's expenses.
// Every call aggregates the current rows in SQL; nothing is cached.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expense_tracker/internal/db"
	"expense_tracker/internal/domain"

	"gorm.io/gorm"
)

const (
	DefaultMonths = 6  // Months covered by Monthly when the caller does not say
	MaxMonths     = 12 // Upper bound for the months parameter
)

// ErrInvalidMonths is returned by Monthly for months outside 1..MaxMonths
var ErrInvalidMonths = errors.New("months must be between 1 and 12")

// DashboardSummary holds overall totals for one user
type DashboardSummary struct {
	TotalIncome        domain.Money `json:"total_income"`
	TotalExpenses      domain.Money `json:"total_expenses"`
	NetBalance         domain.Money `json:"net_balance"`
	TopExpenseCategory *string      `json:"top_expense_category"`
	TopIncomeCategory  *string      `json:"top_income_category"`
}

// CategorySummary is the total booked under one category
type CategorySummary struct {
	CategoryID       uint                `json:"category_id"`
	CategoryName     string              `json:"category_name"`
	CategoryType     domain.CategoryType `json:"category_type"`
	TotalAmount      domain.Money        `json:"total_amount"`
	TransactionCount int64               `json:"transaction_count"`
}

// MonthlySummary holds the totals of one calendar month
type MonthlySummary struct {
	Month         string       `json:"month"` // YYYY-MM
	TotalIncome   domain.Money `json:"total_income"`
	TotalExpenses domain.Money `json:"total_expenses"`
	NetBalance    domain.Money `json:"net_balance"`
}

// Service runs the aggregation queries
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService returns a Service reading from gdb
func NewService(gdb *gorm.DB) *Service {
	return &Service{db: gdb, now: time.Now}
}

// owned starts a query over the user's expenses joined with their categories
func (s *Service) owned(ctx context.Context, userID uint) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("expenses").
		Joins("JOIN categories ON categories.id = expenses.category_id AND categories.user_id = expenses.user_id").
		Where("expenses.user_id = ?", userID)
}

type typeTotal struct {
	Type  domain.CategoryType
	Total int64
}

// Dashboard returns income and expense totals, the net balance and the
// biggest category of each type. A user without expenses gets zero totals.
func (s *Service) Dashboard(ctx context.Context, userID uint) (DashboardSummary, error) {
	var totals []typeTotal
	err := s.owned(ctx, userID).
		Select("categories.type AS type, SUM(expenses.amount_cents) AS total").
		Group("categories.type").
		Scan(&totals).Error
	if err != nil {
		return DashboardSummary{}, fmt.Errorf("sum by category type: %w", err)
	}

	var summary DashboardSummary
	for _, t := range totals {
		switch t.Type {
		case domain.CategoryIncome:
			summary.TotalIncome = domain.Money(t.Total)
		case domain.CategoryExpense:
			summary.TotalExpenses = domain.Money(t.Total)
		}
	}
	summary.NetBalance = summary.TotalIncome - summary.TotalExpenses

	breakdown, err := s.ByCategory(ctx, userID)
	if err != nil {
		return DashboardSummary{}, err
	}
	// breakdown is sorted by total, so the first hit per type is the top one
	for i := range breakdown {
		name := breakdown[i].CategoryName
		switch {
		case breakdown[i].CategoryType == domain.CategoryExpense && summary.TopExpenseCategory == nil:
			summary.TopExpenseCategory = &name
		case breakdown[i].CategoryType == domain.CategoryIncome && summary.TopIncomeCategory == nil:
			summary.TopIncomeCategory = &name
		}
	}
	return summary, nil
}

type categoryRow struct {
	CategoryID       uint
	CategoryName     string
	CategoryType     domain.CategoryType
	TotalCents       int64
	TransactionCount int64
}

// ByCategory sums amounts per category, largest total first. Categories
// without expenses are left out.
func (s *Service) ByCategory(ctx context.Context, userID uint) ([]CategorySummary, error) {
	var rows []categoryRow
	err := s.owned(ctx, userID).
		Select("categories.id AS category_id, categories.name AS category_name, categories.type AS category_type, " +
			"SUM(expenses.amount_cents) AS total_cents, COUNT(expenses.id) AS transaction_count").
		Group("categories.id, categories.name, categories.type").
		Order("total_cents DESC, categories.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	out := make([]CategorySummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, CategorySummary{
			CategoryID:       r.CategoryID,
			CategoryName:     r.CategoryName,
			CategoryType:     r.CategoryType,
			TotalAmount:      domain.Money(r.TotalCents),
			TransactionCount: r.TransactionCount,
		})
	}
	return out, nil
}

type monthRow struct {
	Month string
	Type  domain.CategoryType
	Total int64
}

// Monthly returns per-month totals for the given number of calendar months
// ending with the current (UTC) month, newest month first. Months without
// expenses are omitted, so the result holds at most months entries.
func (s *Service) Monthly(ctx context.Context, userID uint, months int) ([]MonthlySummary, error) {
	if months < 1 || months > MaxMonths {
		return nil, ErrInvalidMonths
	}
	from, to := MonthWindow(s.now(), months)
	month := db.MonthExpr(s.db, "expenses.date")

	var rows []monthRow
	err := s.owned(ctx, userID).
		Select(month+" AS month, categories.type AS type, SUM(expenses.amount_cents) AS total").
		Where("expenses.date >= ? AND expenses.date < ?", from, to).
		Group(month + ", categories.type").
		Order("month DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sum by month: %w", err)
	}

	out := make([]MonthlySummary, 0, months)
	for _, r := range rows {
		if len(out) == 0 || out[len(out)-1].Month != r.Month {
			out = append(out, MonthlySummary{Month: r.Month})
		}
		m := &out[len(out)-1]
		switch r.Type {
		case domain.CategoryIncome:
			m.TotalIncome += domain.Money(r.Total)
		case domain.CategoryExpense:
			m.TotalExpenses += domain.Money(r.Total)
		}
		m.NetBalance = m.TotalIncome - m.TotalExpenses
	}
	return out, nil
}

// MonthWindow returns the half-open range [from, to) covering months
// calendar months that end with the month of now, in UTC.
func MonthWindow(now time.Time, months int) (from, to time.Time) {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -(months - 1), 0), first.AddDate(0, 1, 0)
}
