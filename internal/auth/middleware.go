package auth

import (
	"errors"
	"strings"

	"filiales-backend/internal/apperr"
	"filiales-backend/internal/config"
	"filiales-backend/internal/database"
	"filiales-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", apperr.Unauthorized("Falta el header Authorization")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", apperr.Unauthorized("El formato de Authorization debe ser 'Bearer <token>'")
	}
	return strings.TrimSpace(parts[1]), nil
}

// loadActiveUser confirms the account behind a token still exists and is active.
func loadActiveUser(c *fiber.Ctx, userID uint) (*models.User, error) {
	var user models.User
	if err := database.DB.WithContext(c.UserContext()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("La cuenta ya no existe")
		}
		return nil, apperr.Internal("No se pudo verificar la cuenta", err)
	}
	if !user.Active {
		return nil, apperr.Unauthorized("La cuenta está desactivada")
	}
	return &user, nil
}

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr, err := bearerToken(c)
		if err != nil {
			return err
		}

		claims, err := ParseToken(cfg.JWTSecret, tokenStr)
		if err != nil {
			return apperr.Unauthorized("Token inválido o vencido")
		}

		user, err := loadActiveUser(c, claims.UserID)
		if err != nil {
			return err
		}

		// rol y filial salen del token, no del registro actual
		id := claims.Identity()
		id.Name = user.Name
		c.Locals(CtxIdentityKey, id)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := FromCtx(c)
		if err != nil {
			return err
		}

		for _, r := range allowedRoles {
			if r == id.Role {
				return c.Next()
			}
		}
		return apperr.Forbidden("No tenés permisos para esta operación")
	}
}
