package api

import (
	"errors"                              // Sentinel error comparison
	"expense_tracker/internal/domain"     // Importing domain models
	"expense_tracker/internal/middleware" // Context keys
	"fmt"                                 // Message formatting
	"net/http"                            // HTTP status codes
	"reflect"                             // Struct tags
	"strconv"                             // String conversion
	"strings"                             // String manipulation
	"time"                                // Dates

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/gin-gonic/gin/binding"       // Gin's validator engine
	"github.com/go-playground/validator/v10" // Custom validation rules
	"github.com/sirupsen/logrus"             // Logging library
	"gorm.io/gorm"                           // GORM ORM library
)

// DateLayout is the wire format of calendar days
const DateLayout = "2006-01-02"

// now is the clock behind date validation
var now = time.Now

// defaultPageSize applies when a list request has no page_size; the binding caps it at 100
const defaultPageSize = 20

// RegisterValidators adds the custom binding rules used by request structs
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	// Report fields by their wire names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{f.Tag.Get("json"), f.Tag.Get("form")} {
			if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	if err := v.RegisterValidation("category_type", validCategoryType); err != nil {
		return err
	}
	return v.RegisterValidation("notfuture", notFutureDate)
}

// validCategoryType accepts income or expense
func validCategoryType(fl validator.FieldLevel) bool {
	return domain.CategoryType(fl.Field().String()).Valid()
}

// notFutureDate accepts a YYYY-MM-DD day that is not after today (UTC)
func notFutureDate(fl validator.FieldLevel) bool {
	_, err := parseDay(fl.Field().String())
	return err == nil
}

var (
	errBadDate    = errors.New("date must use the YYYY-MM-DD format")
	errFutureDate = errors.New("date cannot be in the future")
)

// parseDay parses a YYYY-MM-DD string to UTC midnight and rejects future days
func parseDay(s string) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, errBadDate
	}
	if day.After(today()) {
		return time.Time{}, errFutureDate
	}
	return day, nil
}

// today returns the current UTC day at midnight
func today() time.Time {
	t := now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// currentUserID returns the id stored by the JWT middleware
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(middleware.UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// requireUser writes 401 when the request carries no authenticated user
func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return userID, ok
}

// pathID parses the :id route parameter
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

// serverError logs err with fields and answers 500 without leaking details
func serverError(c *gin.Context, msg string, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["error"] = err.Error()
	if requestID, ok := c.Get("requestID"); ok {
		fields["request_id"] = requestID
	}
	logrus.WithFields(fields).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// isNotFound reports whether err means the row does not exist for this user
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// badRequest answers 400 with a readable description of a binding error
func badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": strings.Join(msgs, "; ")})
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be %s %s characters", field, bound, fe.Param())
		}
		return fmt.Sprintf("%s must be %s %s", field, bound, fe.Param())
	case "datetime":
		return field + " must use the YYYY-MM-DD format"
	case "category_type":
		return field + " must be income or expense"
	case "notfuture":
		if _, err := time.Parse(DateLayout, fmt.Sprint(fe.Value())); err != nil {
			return errBadDate.Error()
		}
		return errFutureDate.Error()
	default:
		return field + " is invalid"
	}
}
