package auth

import (
	"filiales-backend/internal/apperr"
	"filiales-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const CtxIdentityKey = "identity"

// Identity is who is asking. It is rebuilt from the token on every request and
// never mutated; a role or branch change needs a new token.
type Identity struct {
	UserID   uint
	Name     string
	Role     models.UserRole
	FilialID *uint
}

func (i Identity) IsGlobalAdmin() bool {
	return i.Role == models.RoleSuperAdmin
}

// IsAdmin covers the roles allowed to moderate and review: global admins and
// coordinators.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleSuperAdmin || i.Role == models.RoleCoordinator
}

// FromCtx returns the identity attached by JWTMiddleware.
func FromCtx(c *fiber.Ctx) (Identity, error) {
	id, ok := c.Locals(CtxIdentityKey).(Identity)
	if !ok || id.UserID == 0 {
		return Identity{}, apperr.Unauthorized("No autenticado")
	}
	return id, nil
}
