// Package params parses the filter values list endpoints accept.
package params

import (
	"strconv"
	"strings"
	"time"

	"filiales-backend/internal/apperr"

	"gorm.io/gorm"
)

const DateLayout = "2006-01-02"

// Date parses a YYYY-MM-DD value. An RFC 3339 timestamp is accepted too.
func Date(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.BadRequest(field + " debe tener formato YYYY-MM-DD")
}

// OptionalDate is Date for values that may be absent.
func OptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := Date(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Bool parses "true"/"false"/"1"/"0"; empty means unset.
func Bool(field, raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.BadRequest(field + " debe ser true o false")
	}
	return &b, nil
}

// DateRange adds column >= desde and column < hasta+1 day filters.
func DateRange(q *gorm.DB, column, desde, hasta string) (*gorm.DB, error) {
	if desde != "" {
		from, err := Date("desde", desde)
		if err != nil {
			return nil, err
		}
		q = q.Where(column+" >= ?", from)
	}
	if hasta != "" {
		to, err := Date("hasta", hasta)
		if err != nil {
			return nil, err
		}
		q = q.Where(column+" < ?", to.AddDate(0, 0, 1))
	}
	return q, nil
}

// Search adds a case-insensitive substring match over columns, OR-ed together.
func Search(q *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return q
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"

	clauses := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, col := range columns {
		clauses = append(clauses, "LOWER("+col+") LIKE ? ESCAPE '\\'")
		args = append(args, pattern)
	}
	return q.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
