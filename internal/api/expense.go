package api

import (
	"encoding/json"                   // Request normalization
	"expense_tracker/internal/domain" // Importing domain models
	"net/http"                        // HTTP status codes
	"strings"                         // String manipulation
	"time"                            // Dates

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact decimal amounts
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

// ExpenseCreateRequest is the body of POST /expenses
type ExpenseCreateRequest struct {
	CategoryID  uint             `json:"category_id" binding:"required"` // Category owned by the caller
	Amount      *decimal.Decimal `json:"amount" binding:"required" swaggertype:"string" example:"12.50"`
	Description string           `json:"description" binding:"required,min=1,max=255"` // What it was for
	Date        string           `json:"date" binding:"required,notfuture" example:"2025-01-31"`
}

// ExpenseUpdateRequest is the body of PUT /expenses/:id; absent fields are kept
type ExpenseUpdateRequest struct {
	CategoryID  *uint            `json:"category_id" binding:"omitempty,min=1"`
	Amount      *decimal.Decimal `json:"amount" swaggertype:"string"`
	Description *string          `json:"description" binding:"omitempty,min=1,max=255"`
	Date        *string          `json:"date" binding:"omitempty,notfuture"`
}

// UnmarshalJSON trims the description so a blank one fails validation
func (r *ExpenseCreateRequest) UnmarshalJSON(b []byte) error {
	type plain ExpenseCreateRequest
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	p.Description = strings.TrimSpace(p.Description)
	*r = ExpenseCreateRequest(p)
	return nil
}

// UnmarshalJSON trims the description when one was sent
func (r *ExpenseUpdateRequest) UnmarshalJSON(b []byte) error {
	type plain ExpenseUpdateRequest
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		p.Description = &desc
	}
	*r = ExpenseUpdateRequest(p)
	return nil
}

// ExpenseResponse is the public view of an expense
type ExpenseResponse struct {
	ID          uint         `json:"id"`
	UserID      uint         `json:"user_id"`
	CategoryID  uint         `json:"category_id"`
	Amount      domain.Money `json:"amount" swaggertype:"string" example:"12.50"`
	Description string       `json:"description"`
	Date        string       `json:"date" example:"2025-01-31"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ExpenseListResponse is one page of expenses
type ExpenseListResponse struct {
	Expenses   []ExpenseResponse `json:"expenses"`    // Page content
	Page       int               `json:"page"`        // Current page
	PageSize   int               `json:"page_size"`   // Page size
	Total      int64             `json:"total"`       // Matching expenses
	TotalPages int               `json:"total_pages"` // Total pages
}

// ExpenseListQuery holds the query parameters of GET /expenses
type ExpenseListQuery struct {
	Page       *int   `form:"page" binding:"omitempty,min=1"`
	PageSize   *int   `form:"page_size" binding:"omitempty,min=1,max=100"`
	CategoryID uint   `form:"category_id"`
	From       string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To         string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

func newExpenseResponse(e domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		CategoryID:  e.CategoryID,
		Amount:      domain.Money(e.AmountCents),
		Description: e.Description,
		Date:        e.Date.UTC().Format(DateLayout),
		CreatedAt:   e.CreatedAt,
	}
}

func expenseNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
}

// amountBadRequest answers 400 for an amount ToCents refused
func amountBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// ownCategory answers 404 unless the category belongs to the caller
func ownCategory(c *gin.Context, db *gorm.DB, userID, categoryID uint) bool {
	_, err := findCategory(c.Request.Context(), db, userID, categoryID)
	if err == nil {
		return true
	}
	if isNotFound(err) {
		categoryNotFound(c)
	} else {
		serverError(c, "Failed to load category", err, logrus.Fields{"user_id": userID, "category_id": categoryID})
	}
	return false
}

// CreateExpenseHandler records an expense under one of the caller's categories
//
//	@Summary	Create an expense
//	@Tags		expenses
//	@Accept		json
//	@Produce	json
//	@Security	OAuth2Password
//	@Param		body	body		ExpenseCreateRequest	true	"Expense"
//	@Success	201		{object}	ExpenseResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/expenses [post]
func CreateExpenseHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req ExpenseCreateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		cents, err := domain.ToCents(*req.Amount)
		if err != nil {
			amountBadRequest(c, err)
			return
		}
		day, err := parseDay(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// The category must belong to the caller
		if !ownCategory(c, db, userID, req.CategoryID) {
			return
		}
		expense := domain.Expense{
			UserID:      userID,
			CategoryID:  req.CategoryID,
			AmountCents: cents,
			Description: req.Description,
			Date:        day,
		}
		if err := db.WithContext(c.Request.Context()).Create(&expense).Error; err != nil {
			serverError(c, "Failed to create expense", err, logrus.Fields{"user_id": userID})
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":     userID,             // Owner
			"expense_id":  expense.ID,         // New expense
			"category_id": expense.CategoryID, // Category
			"amount":      domain.Money(cents).String(),
		}).Info("Expense created")
		c.JSON(http.StatusCreated, newExpenseResponse(expense))
	}
}

// ListExpensesHandler returns a page of the caller's expenses, newest first
//
//	@Summary	List expenses
//	@Tags		expenses
//	@Produce	json
//	@Security	OAuth2Password
//	@Param		page		query		int		false	"Page number"	default(1)
//	@Param		page_size	query		int		false	"Page size"		default(20)
//	@Param		category_id	query		int		false	"Only this category"
//	@Param		from		query		string	false	"First day, YYYY-MM-DD"
//	@Param		to			query		string	false	"Last day, YYYY-MM-DD"
//	@Success	200			{object}	ExpenseListResponse
//	@Failure	400			{object}	ErrorResponse
//	@Router		/expenses [get]
func ListExpensesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var q ExpenseListQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			badRequest(c, err)
			return
		}
		page := 1                   // Default page number
		pageSize := defaultPageSize // Default page size
		if q.Page != nil {
			page = *q.Page
		}
		if q.PageSize != nil {
			pageSize = *q.PageSize
		}
		// Same filters for the count and the page
		filters := func(tx *gorm.DB) *gorm.DB {
			tx = tx.Where("user_id = ?", userID)
			if q.CategoryID != 0 {
				tx = tx.Where("category_id = ?", q.CategoryID)
			}
			if q.From != "" {
				from, _ := time.ParseInLocation(DateLayout, q.From, time.UTC)
				tx = tx.Where("date >= ?", from)
			}
			if q.To != "" {
				to, _ := time.ParseInLocation(DateLayout, q.To, time.UTC)
				tx = tx.Where("date < ?", to.AddDate(0, 0, 1)) // Inclusive last day
			}
			return tx
		}
		ctx := c.Request.Context()
		var total int64 // Total matching expenses
		if err := db.WithContext(ctx).Model(&domain.Expense{}).Scopes(filters).Count(&total).Error; err != nil {
			serverError(c, "Failed to count expenses", err, logrus.Fields{"user_id": userID})
			return
		}
		totalPages := int((total + int64(pageSize) - 1) / int64(pageSize)) // The total number of pages
		var expenses []domain.Expense
		// Pages past the end are empty; skipping them also keeps the offset from overflowing
		if page <= totalPages {
			offset := (page - 1) * pageSize // Calculate offset for pagination
			err := db.WithContext(ctx).Scopes(filters).
				Order("date DESC, id DESC").
				Offset(offset).Limit(pageSize).
				Find(&expenses).Error
			if err != nil {
				serverError(c, "Failed to list expenses", err, logrus.Fields{"user_id": userID})
				return
			}
		}
		resp := ExpenseListResponse{
			Expenses:   make([]ExpenseResponse, 0, len(expenses)),
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		}
		for _, e := range expenses {
			resp.Expenses = append(resp.Expenses, newExpenseResponse(e))
		}
		c.JSON(http.StatusOK, resp)
	}
}

// findExpense loads an expense owned by userID
func findExpense(c *gin.Context, db *gorm.DB, userID uint) (domain.Expense, bool) {
	var expense domain.Expense
	id, ok := pathID(c)
	if !ok {
		return expense, false
	}
	err := db.WithContext(c.Request.Context()).Where("id = ? AND user_id = ?", id, userID).First(&expense).Error
	if err != nil {
		if isNotFound(err) {
			expenseNotFound(c)
		} else {
			serverError(c, "Failed to load expense", err, logrus.Fields{"user_id": userID, "expense_id": id})
		}
		return expense, false
	}
	return expense, true
}

// GetExpenseHandler returns one expense of the caller
//
//	@Summary	Get an expense
//	@Tags		expenses
//	@Produce	json
//	@Security	OAuth2Password
//	@Param		id	path		int	true	"Expense id"
//	@Success	200	{object}	ExpenseResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/expenses/{id} [get]
func GetExpenseHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		expense, ok := findExpense(c, db, userID)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, newExpenseResponse(expense))
	}
}

// UpdateExpenseHandler changes the fields that were sent
//
//	@Summary	Update an expense
//	@Tags		expenses
//	@Accept		json
//	@Produce	json
//	@Security	OAuth2Password
//	@Param		id		path		int						true	"Expense id"
//	@Param		body	body		ExpenseUpdateRequest	true	"Fields to change"
//	@Success	200		{object}	ExpenseResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/expenses/{id} [put]
func UpdateExpenseHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req ExpenseUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		expense, ok := findExpense(c, db, userID)
		if !ok {
			return
		}
		updates := map[string]any{} // Only the fields that were sent
		if req.Amount != nil {
			cents, err := domain.ToCents(*req.Amount)
			if err != nil {
				amountBadRequest(c, err)
				return
			}
			expense.AmountCents = cents
			updates["amount_cents"] = cents
		}
		if req.Date != nil {
			day, err := parseDay(*req.Date)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			expense.Date = day
			updates["date"] = day
		}
		if req.Description != nil {
			expense.Description = *req.Description
			updates["description"] = expense.Description
		}
		if req.CategoryID != nil {
			// Moving to another category requires owning it as well
			if !ownCategory(c, db, userID, *req.CategoryID) {
				return
			}
			expense.CategoryID = *req.CategoryID
			updates["category_id"] = expense.CategoryID
		}
		if len(updates) > 0 {
			err := db.WithContext(c.Request.Context()).Model(&domain.Expense{ID: expense.ID}).Updates(updates).Error
			if err != nil {
				serverError(c, "Failed to update expense", err, logrus.Fields{"user_id": userID, "expense_id": expense.ID})
				return
			}
		}
		c.JSON(http.StatusOK, newExpenseResponse(expense))
	}
}

// DeleteExpenseHandler removes one expense of the caller
//
//	@Summary	Delete an expense
//	@Tags		expenses
//	@Security	OAuth2Password
//	@Param		id	path	int	true	"Expense id"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/expenses/{id} [delete]
func DeleteExpenseHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		expense, ok := findExpense(c, db, userID)
		if !ok {
			return
		}
		if err := db.WithContext(c.Request.Context()).Delete(&expense).Error; err != nil {
			serverError(c, "Failed to delete expense", err, logrus.Fields{"user_id": userID, "expense_id": expense.ID})
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": userID, "expense_id": expense.ID}).Info("Expense deleted")
		c.Status(http.StatusNoContent)
	}
}
