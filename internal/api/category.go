package api

import (
	"context"                         // Context for Redis operations
	"encoding/json"                   // Request normalization
	"expense_tracker/internal/domain" // Importing domain models
	"expense_tracker/internal/utils"  // Utility functions
	"net/http"                        // HTTP status codes
	"strings"                         // String manipulation
	"time"                            // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// CategoryListTTL bounds how long a cached category list may be served
const CategoryListTTL = 60 * time.Second

// CategoryCreateRequest is the body of POST /categories
type CategoryCreateRequest struct {
	Name string              `json:"name" binding:"required,min=1,max=100"` // Display name
	Type domain.CategoryType `json:"type" binding:"required,category_type"` // income or expense
}

// CategoryUpdateRequest is the body of PUT /categories/:id; absent fields are kept
type CategoryUpdateRequest struct {
	Name *string              `json:"name" binding:"omitempty,min=1,max=100"`
	Type *domain.CategoryType `json:"type" binding:"omitempty,category_type"`
}

// UnmarshalJSON trims the name so a blank one fails validation
func (r *CategoryCreateRequest) UnmarshalJSON(b []byte) error {
	type plain CategoryCreateRequest
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(p.Name)
	*r = CategoryCreateRequest(p)
	return nil
}

// UnmarshalJSON trims the name when one was sent
func (r *CategoryUpdateRequest) UnmarshalJSON(b []byte) error {
	type plain CategoryUpdateRequest
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		p.Name = &name
	}
	*r = CategoryUpdateRequest(p)
	return nil
}

// newCategoryCache returns the per user cache of category lists
func newCategoryCache(rdb *redis.Client) *utils.UserCache[[]domain.Category] {
	return utils.NewUserCache[[]domain.Category](rdb, "categories:user:", CategoryListTTL)
}

// invalidateCategories drops the cached category list after a write
func invalidateCategories(ctx context.Context, rdb *redis.Client, userID uint) {
	if err := newCategoryCache(rdb).Invalidate(ctx, userID); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Failed to invalidate category cache")
	}
}

// findCategory loads a category owned by userID; other users' rows are reported as missing
func findCategory(ctx context.Context, db *gorm.DB, userID, id uint) (domain.Category, error) {
	var cat domain.Category
	err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&cat).Error
	return cat, err
}

func categoryNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
}

// CreateCategoryHandler adds a category for the current user
//
//	@Summary	Create a category
//	@Tags		categories
//	@Accept		json
//	@Produce	json
//	@Security	OAuth2Password
//	@Param		body	body		CategoryCreateRequest	true	"Category"
//	@Success	201		{object}	domain.Category
//	@Failure	400		{object}	ErrorResponse
//	@Router		/categories [post]
func CreateCategoryHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req CategoryCreateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		ctx := c.Request.Context()
		cat := domain.Category{UserID: userID, Name: req.Name, Type: req.Type}
		if err := db.WithContext(ctx).Create(&cat).Error; err != nil {
			serverError(c, "Failed to create category", err, logrus.Fields{"user_id": userID})
			return
		}
		invalidateCategories(ctx, rdb, userID)
		logrus.WithFields(logrus.Fields{
			"user_id":     userID, // Owner
			"category_id": cat.ID, // New category
			"type":        cat.Type,
		}).Info("Category created")
		c.JSON(http.StatusCreated, cat)
	}
}

// ListCategoriesHandler returns the current user's categories, served from Redis when cached
//
//	@Summary	List categories
//	@Tags		categories
//	@Produce	json
//	@Security	OAuth2Password
//	@Success	200	{array}	domain.Category
//	@Router		/categories [get]
func ListCategoriesHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	cache := newCategoryCache(rdb)
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		// Try to get cached response
		cached, found, err := cache.Get(ctx, userID)
		if err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Category cache read failed")
		}
		categories := []domain.Category{} // Empty list rather than null
		if err := db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&categories).Error; err != nil {
			serverError(c, "Failed to list categories", err, logrus.Fields{"user_id": userID})
			return
		}
		// Cache the result
		if err := cache.Set(ctx, userID, categories); err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Category cache write failed")
		}
		c.JSON(http.StatusOK, categories)
	}
}

// GetCategoryHandler returns one category of the current user
//
//	@Summary	Get a category
//	@Tags		categories
//	@Produce	json
//	@Security	OAuth2Password
//	@Param		id	path		int	true	"Category id"
//	@Success	200	{object}	domain.Category
//	@Failure	404	{object}	ErrorResponse
//	@Router		/categories/{id} [get]
func GetCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		cat, err := findCategory(c.Request.Context(), db, userID, id)
		if err != nil {
			if isNotFound(err) {
				categoryNotFound(c)
				return
			}
			serverError(c, "Failed to load category", err, logrus.Fields{"user_id": userID, "category_id": id})
			return
		}
		c.JSON(http.StatusOK, cat)
	}
}

// UpdateCategoryHandler renames a category or changes its type
//
//	@Summary	Update a category
//	@Tags		categories
//	@Accept		json
//	@Produce	json
//	@Security	OAuth2Password
//	@Param		id		path		int						true	"Category id"
//	@Param		body	body		CategoryUpdateRequest	true	"Fields to change"
//	@Success	200		{object}	domain.Category
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/categories/{id} [put]
func UpdateCategoryHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req CategoryUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		ctx := c.Request.Context()
		cat, err := findCategory(ctx, db, userID, id)
		if err != nil {
			if isNotFound(err) {
				categoryNotFound(c)
				return
			}
			serverError(c, "Failed to load category", err, logrus.Fields{"user_id": userID, "category_id": id})
			return
		}
		updates := map[string]any{} // Only the fields that were sent
		if req.Name != nil {
			cat.Name = *req.Name
			updates["name"] = cat.Name
		}
		if req.Type != nil {
			cat.Type = *req.Type
			updates["type"] = cat.Type
		}
		if len(updates) > 0 {
			if err := db.WithContext(ctx).Model(&domain.Category{ID: cat.ID}).Updates(updates).Error; err != nil {
				serverError(c, "Failed to update category", err, logrus.Fields{"user_id": userID, "category_id": id})
				return
			}
			invalidateCategories(ctx, rdb, userID)
		}
		c.JSON(http.StatusOK, cat)
	}
}

// DeleteCategoryHandler removes a category together with its expenses
//
//	@Summary	Delete a category
//	@Description	Expenses booked under the category are deleted as well.
//	@Tags		categories
//	@Security	OAuth2Password
//	@Param		id	path	int	true	"Category id"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/categories/{id} [delete]
func DeleteCategoryHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		var removed int64 // Expenses deleted alongside
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			cat, err := findCategory(ctx, tx, userID, id)
			if err != nil {
				return err // Return error to rollback
			}
			res := tx.Where("category_id = ? AND user_id = ?", cat.ID, userID).Delete(&domain.Expense{})
			if res.Error != nil {
				return res.Error // Return error to rollback
			}
			removed = res.RowsAffected
			return tx.Delete(&cat).Error
		})
		if err != nil {
			if isNotFound(err) {
				categoryNotFound(c)
				return
			}
			serverError(c, "Failed to delete category", err, logrus.Fields{"user_id": userID, "category_id": id})
			return
		}
		invalidateCategories(ctx, rdb, userID)
		logrus.WithFields(logrus.Fields{
			"user_id":          userID,  // Owner
			"category_id":      id,      // Deleted category
			"expenses_removed": removed, // Cascaded rows
		}).Info("Category deleted")
		c.Status(http.StatusNoContent)
	}
}
