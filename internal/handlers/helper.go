package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// parseIDParam reads a positive numeric path parameter, answering 400 and returning 0 otherwise
func parseIDParam(c *gin.Context, param string) uint {
	idStr := strings.TrimSpace(c.Param(param))
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		details := "ID must be a positive integer"
		if err != nil {
			details = err.Error()
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: details,
		})
		return 0
	}
	return uint(id)
}

// learnerID returns the authenticated learner, answering 401 when there is none
func learnerID(c *gin.Context) (string, bool) {
	id := c.GetString(learnerIDKey)
	if id == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, param string, defaultValue int) (int, error) {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", param)
	}
	return value, nil
}

func parseUintQueryPtr(c *gin.Context, param string) (*uint, error) {
	valueStr := c.Query(param)
	if valueStr == "" {
		return nil, nil
	}
	value, err := strconv.ParseUint(valueStr, 10, 32)
	if err != nil || value == 0 {
		return nil, fmt.Errorf("%s must be a positive integer", param)
	}
	v := uint(value)
	return &v, nil
}

// parseTimeQuery accepts RFC 3339 timestamps or plain dates, read as UTC midnight
func parseTimeQuery(c *gin.Context, param string) (*time.Time, error) {
	valueStr := c.Query(param)
	if valueStr == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, valueStr); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be an RFC 3339 timestamp or YYYY-MM-DD date", param)
}
