// Package pagination parses page/limit/sort parameters and runs the count and
// page queries of a list endpoint.
package pagination

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const MaxLimit = 100

// Options describes one list endpoint. Sortable maps the sort names clients
// may use to the column they order by.
type Options struct {
	DefaultLimit int
	Sortable     map[string]string
	DefaultSort  string
	DefaultDesc  bool
}

type Params struct {
	Page  int
	Limit int
	// Column and Desc are always an allow-listed column and a valid direction.
	Column string
	Desc   bool
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

func (p Params) OrderClause() string {
	if p.Desc {
		return p.Column + " DESC"
	}
	return p.Column + " ASC"
}

type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type Page[T any] struct {
	Items      []T  `json:"items"`
	Pagination Meta `json:"pagination"`
}

// TotalPages is ceil(total/limit), or 0 for a non-positive limit.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Parse reads page, limit and the sort parameters. Invalid or unknown values
// fall back to defaults instead of failing the request.
func Parse(c *fiber.Ctx, opts Options) Params {
	defLimit := opts.DefaultLimit
	if defLimit <= 0 {
		defLimit = 20
	}

	p := Params{
		Page:  atLeastOne(c.Query("page"), 1),
		Limit: atLeastOne(c.Query("limit"), defLimit),
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	sortKey := firstNonEmpty(c.Query("ordenar"), c.Query("orderBy"))
	column, ok := opts.Sortable[sortKey]
	if !ok {
		column = opts.Sortable[opts.DefaultSort]
		if column == "" {
			column = "id"
		}
	}
	p.Column = column

	switch strings.ToLower(firstNonEmpty(c.Query("orden"), c.Query("order"))) {
	case "asc":
		p.Desc = false
	case "desc":
		p.Desc = true
	default:
		p.Desc = opts.DefaultDesc
	}
	return p
}

func atLeastOne(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	if n < 1 {
		return 1
	}
	return n
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Find counts and fetches one page of base concurrently. base must carry the
// model and every filter but no limit or preloads; preload adds associations
// to the page query only. An ORDER BY already on base sorts ahead of p and is
// dropped from the count.
//
// The two queries are independent, so total may disagree with the page under
// concurrent writes.
func Find[T any](ctx context.Context, base *gorm.DB, p Params, preload ...string) (Page[T], error) {
	base = base.WithContext(ctx).Session(&gorm.Session{})

	var (
		total int64
		items []T
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := base.WithContext(gctx).Count(&total).Error; err != nil {
			return fmt.Errorf("count: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		q := base.WithContext(gctx)
		for _, assoc := range preload {
			q = q.Preload(assoc)
		}
		q = q.Order(p.OrderClause())
		if p.Column != "id" {
			// desempate estable en la misma dirección
			if p.Desc {
				q = q.Order("id DESC")
			} else {
				q = q.Order("id ASC")
			}
		}
		if err := q.Limit(p.Limit).Offset(p.Offset()).Find(&items).Error; err != nil {
			return fmt.Errorf("page: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Page[T]{}, err
	}

	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items: items,
		Pagination: Meta{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: TotalPages(total, p.Limit),
		},
	}, nil
}

// Map converts the items of a page, keeping its metadata.
func Map[T, R any](page Page[T], fn func(T) R) Page[R] {
	out := make([]R, 0, len(page.Items))
	for _, it := range page.Items {
		out = append(out, fn(it))
	}
	return Page[R]{Items: out, Pagination: page.Pagination}
}
