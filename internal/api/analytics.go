package api

import (
	"errors"                             // Sentinel error comparison
	"expense_tracker/internal/analytics" // Aggregation queries
	"net/http"                           // HTTP status codes
	"strconv"                            // String conversion

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// DashboardHandler returns income and expense totals of the caller
//
//	@Summary	Dashboard totals
//	@Tags		analytics
//	@Produce	json
//	@Security	OAuth2Password
//	@Success	200	{object}	analytics.DashboardSummary
//	@Router		/analytics/dashboard [get]
func DashboardHandler(svc *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		summary, err := svc.Dashboard(c.Request.Context(), userID)
		if err != nil {
			serverError(c, "Failed to compute dashboard", err, logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// ByCategoryHandler returns per category totals of the caller, largest first
//
//	@Summary	Totals per category
//	@Tags		analytics
//	@Produce	json
//	@Security	OAuth2Password
//	@Success	200	{array}	analytics.CategorySummary
//	@Router		/analytics/by-category [get]
func ByCategoryHandler(svc *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		summaries, err := svc.ByCategory(c.Request.Context(), userID)
		if err != nil {
			serverError(c, "Failed to compute category totals", err, logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, summaries)
	}
}

// MonthlyHandler returns per month totals of the caller, newest month first
//
//	@Summary	Totals per month
//	@Tags		analytics
//	@Produce	json
//	@Security	OAuth2Password
//	@Param		months	query		int	false	"Number of months, 1 to 12"	default(6)
//	@Success	200		{array}		analytics.MonthlySummary
//	@Failure	400		{object}	ErrorResponse
//	@Router		/analytics/monthly [get]
func MonthlyHandler(svc *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		months := analytics.DefaultMonths // Default window
		if m := c.Query("months"); m != "" {
			v, err := strconv.Atoi(m)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": analytics.ErrInvalidMonths.Error()})
				return
			}
			months = v
		}
		summaries, err := svc.Monthly(c.Request.Context(), userID, months)
		if err != nil {
			if errors.Is(err, analytics.ErrInvalidMonths) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			serverError(c, "Failed to compute monthly totals", err, logrus.Fields{"user_id": userID, "months": months})
			return
		}
		c.JSON(http.StatusOK, summaries)
	}
}
