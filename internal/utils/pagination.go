package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// GetLimit reads the "limit" query parameter, falling back to defaultLimit
// when it is missing or not a positive integer and capping it at maxLimit.
func GetLimit(c *fiber.Ctx, defaultLimit, maxLimit int) int {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

// GetInt64 reads an optional integer query parameter. ok is false when the
// parameter is absent; err is set when it is present but malformed.
func GetInt64(c *fiber.Ctx, key string) (v int64, ok bool, err error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, true, err
	}
	return v, true, nil
}
