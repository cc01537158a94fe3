package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// parseIntParam parses a path parameter as a positive integer.
func parseIntParam(c *gin.Context, key string) (int, error) {
	raw := c.Param(key)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return id, nil
}

// parseIntQuery falls back only when the value is missing or not a number;
// zero and negative numbers are passed through unchanged.
func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	num, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return num
}
