// Package scope decides which branch ("filial") a request may read or write.
//
// Every list endpoint calls FromRequest exactly once before touching the
// database and applies the resulting Decision to its query. Single-record
// endpoints load the record first and then check CanAccessBranch against the
// record's owning branch, because an id taken from the path says nothing
// about ownership until the row is read.
package scope

import (
	"strconv"
	"strings"

	"filiales-backend/internal/apperr"
	"filiales-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// QueryParam is the (camelCase) query key carrying the requested branch.
const QueryParam = "filialId"

// Decision is the per-request branch filter. A nil EffectiveFilialID means
// "all branches" and is only ever produced for a global admin.
type Decision struct {
	IsGlobalAdmin     bool
	EffectiveFilialID *uint
}

// Unrestricted reports whether the decision spans every branch.
func (d Decision) Unrestricted() bool {
	return d.EffectiveFilialID == nil
}

// Apply adds the branch filter on column to q.
func (d Decision) Apply(q *gorm.DB, column string) *gorm.DB {
	if d.EffectiveFilialID == nil {
		return q
	}
	return q.Where(column+" = ?", *d.EffectiveFilialID)
}

// ParseID parses a positive integer identifier.
func ParseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// Resolve computes the filter for id given the branch the caller asked for
// (empty when none was given).
//
// A global admin gets exactly what was requested, or no filter at all. Anyone
// else is pinned to their own branch; whatever they requested is ignored.
func Resolve(id auth.Identity, requested string) (Decision, error) {
	if id.IsGlobalAdmin() {
		requested = strings.TrimSpace(requested)
		if requested == "" {
			return Decision{IsGlobalAdmin: true}, nil
		}
		fid, ok := ParseID(requested)
		if !ok {
			return Decision{}, apperr.BadRequest("filial_id inválido")
		}
		return Decision{IsGlobalAdmin: true, EffectiveFilialID: &fid}, nil
	}

	if id.FilialID == nil {
		return Decision{}, apperr.Forbidden("No tenés una filial asignada")
	}
	own := *id.FilialID
	return Decision{EffectiveFilialID: &own}, nil
}

// ResolveWrite picks the branch a created or updated record belongs to.
//
// A global admin must name the branch. Anyone else writes to their own branch;
// naming a different one is rejected instead of silently overridden.
func ResolveWrite(id auth.Identity, requested *uint) (uint, error) {
	if id.IsGlobalAdmin() {
		if requested == nil || *requested == 0 {
			return 0, apperr.BadRequest("filial_id es obligatorio")
		}
		return *requested, nil
	}

	if id.FilialID == nil {
		return 0, apperr.Forbidden("No tenés una filial asignada")
	}
	if requested != nil && *requested != *id.FilialID {
		return 0, apperr.Forbidden("No podés operar sobre otra filial")
	}
	return *id.FilialID, nil
}

// CanAccessBranch is true for a global admin or when target is id's own branch.
func CanAccessBranch(id auth.Identity, target uint) bool {
	if id.IsGlobalAdmin() {
		return true
	}
	return id.FilialID != nil && *id.FilialID == target
}

// Ensure turns a failed CanAccessBranch into a Forbidden error.
func Ensure(id auth.Identity, target uint) error {
	if !CanAccessBranch(id, target) {
		return apperr.Forbidden("No tenés acceso a esta filial")
	}
	return nil
}

// FromRequest resolves the decision for the authenticated caller and the
// filialId query parameter.
func FromRequest(c *fiber.Ctx) (auth.Identity, Decision, error) {
	id, err := auth.FromCtx(c)
	if err != nil {
		return auth.Identity{}, Decision{}, err
	}
	d, err := Resolve(id, c.Query(QueryParam))
	if err != nil {
		return auth.Identity{}, Decision{}, err
	}
	return id, d, nil
}

// PathID parses the :id route parameter.
func PathID(c *fiber.Ctx) (uint, error) {
	id, ok := ParseID(c.Params("id"))
	if !ok {
		return 0, apperr.BadRequest("ID inválido")
	}
	return id, nil
}
