package httpx

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Gunvolt24/gemstock/internal/domain"
	"github.com/gin-gonic/gin"
)

// ClampInt — ограничение значения v в диапазоне [min, max].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParsePageLimit — читает page/limit из query с дефолтами и границами. page считается с 1.
func ParsePageLimit(c *gin.Context, defaultLimit, maxLimit int) (page, limit int) {
	page = 1
	limit = ClampInt(defaultLimit, 1, maxLimit)
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		limit = ClampInt(v, 1, maxLimit)
	}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v >= 1 {
		page = v
	}
	return page, limit
}

// ParseFilters — фильтры каталога из query. Теги: повтор параметра или через запятую.
// Даты: 2006-01-02 или RFC3339.
func ParseFilters(c *gin.Context) (domain.FilterParams, error) {
	f := domain.FilterParams{
		Search:           strings.TrimSpace(c.Query("search")),
		Category:         c.Query("category"),
		Style:            c.Query("style"),
		Metal:            c.Query("metal"),
		ClarityGrade:     c.Query("clarityGrade"),
		Rarity:           c.Query("rarity"),
		WorkmanshipGrade: c.Query("workmanshipGrade"),
		SortBy:           c.Query("sortBy"),
	}

	for _, raw := range c.QueryArray("tags") {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				f.Tags = append(f.Tags, tag)
			}
		}
	}

	switch order := strings.ToLower(c.Query("sortOrder")); order {
	case "":
	case string(domain.SortAsc), string(domain.SortDesc):
		f.SortOrder = domain.SortOrder(order)
	default:
		return f, fmt.Errorf("sortOrder must be asc or desc, got %q", order)
	}

	var err error
	if f.DateFrom, err = parseDate(c.Query("dateFrom")); err != nil {
		return f, fmt.Errorf("dateFrom: %w", err)
	}
	if f.DateTo, err = parseDate(c.Query("dateTo")); err != nil {
		return f, fmt.Errorf("dateTo: %w", err)
	}
	if !f.DateFrom.IsZero() && !f.DateTo.IsZero() && f.DateTo.Before(f.DateFrom) {
		return f, fmt.Errorf("dateTo is before dateFrom")
	}
	return f, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC3339, got %q", raw)
	}
	return t.UTC(), nil
}
