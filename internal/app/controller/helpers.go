package controller

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-pos/internal/app/model"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/middleware"
)

const dateLayout = "2006-01-02"

// parseID reads a positive uint path parameter; on failure it writes a 400.
func parseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid ID format", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// bindJSON binds the body; on failure it writes the field errors.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
		if fields := apperrors.FieldErrors(err); fields != nil {
			apperrors.RespondWithValidationError(c, fields)
		} else {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid request body")
		}
		return false
	}
	return true
}

// pagination reads page/page_size with sane bounds.
func pagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func parseDay(c *gin.Context, key string, fallback time.Time) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	day, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, key+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}

// dateRange reads from/to (inclusive days). Defaults to the last 7 days.
// The returned to is exclusive.
func dateRange(c *gin.Context) (from, to time.Time, ok bool) {
	today := truncateDay(time.Now())
	if from, ok = parseDay(c, "from", today.AddDate(0, 0, -6)); !ok {
		return
	}
	if to, ok = parseDay(c, "to", today); !ok {
		return
	}
	return from, to.AddDate(0, 0, 1), true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func optionalBool(c *gin.Context, key string) *bool {
	switch c.Query(key) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

// CustomerLookup resolves the customer record owned by a login.
type CustomerLookup interface {
	FindByUserID(userID uint) (*model.Customer, error)
}

// customerParam reads :customer_id. Staff may act for any customer; a
// customer account only for its own record.
func customerParam(c *gin.Context, customers CustomerLookup) (uint, bool) {
	customerID, ok := parseID(c, "customer_id")
	if !ok {
		return 0, false
	}

	role, _ := middleware.GetUserRole(c)
	if role != model.RoleCustomer {
		return customerID, true
	}

	userID, _ := middleware.GetUserID(c)
	own, err := customers.FindByUserID(userID)
	if err != nil || own.ID != customerID {
		middleware.GetLoggerFromContext(c).Warn("Customer tried to reach another customer's data", map[string]interface{}{
			"user_id":     userID,
			"customer_id": customerID,
		})
		apperrors.Forbidden(c, "")
		return 0, false
	}
	return customerID, true
}
