package auth

import (
	"errors"
	"strings"
	"time"

	"filiales-backend/internal/apperr"
	"filiales-backend/internal/config"
	"filiales-backend/internal/database"
	"filiales-backend/internal/models"
	"filiales-backend/internal/response"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLength = 8

type RegisterSuperAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UserResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Role        models.UserRole `json:"role"`
	FilialID    *uint           `json:"filialId"`
	Active      bool            `json:"active"`
	LastLoginAt *time.Time      `json:"lastLoginAt,omitempty"`
}

type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		FilialID:    u.FilialID,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
	}
}

func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", apperr.BadRequest("La contraseña debe tener al menos 8 caracteres")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Internal("No se pudo procesar la contraseña", err)
	}
	return string(hash), nil
}

func IdentityOf(u *models.User) Identity {
	return Identity{UserID: u.ID, Name: u.Name, Role: u.Role, FilialID: u.FilialID}
}

// POST /api/auth/register-super-admin, only while no super admin exists.
func RegisterSuperAdminHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterSuperAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.BadRequest("Cuerpo de la solicitud inválido")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.Name = strings.TrimSpace(body.Name)
		if body.Email == "" || body.Password == "" || body.Name == "" {
			return apperr.BadRequest("Nombre, email y contraseña son obligatorios")
		}

		var count int64
		if err := database.DB.Model(&models.User{}).
			Where("role = ?", models.RoleSuperAdmin).
			Count(&count).Error; err != nil {
			return apperr.Internal("No se pudo verificar administradores", err)
		}
		if count > 0 {
			return apperr.Forbidden("Ya existe un administrador general")
		}

		hash, err := HashPassword(body.Password)
		if err != nil {
			return err
		}

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: hash,
			Role:         models.RoleSuperAdmin,
			Active:       true,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return apperr.Internal("No se pudo crear el usuario", err)
		}

		return response.Created(c, NewUserResponse(&user))
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.BadRequest("Cuerpo de la solicitud inválido")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if body.Email == "" || body.Password == "" {
			return apperr.BadRequest("Email y contraseña son obligatorios")
		}

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Unauthorized("Email o contraseña incorrectos")
			}
			return apperr.Internal("No se pudo iniciar sesión", err)
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return apperr.Unauthorized("Email o contraseña incorrectos")
		}
		if !user.Active {
			return apperr.Unauthorized("La cuenta está desactivada")
		}

		now := time.Now()
		if err := database.DB.Model(&user).Update("last_login_at", now).Error; err != nil {
			return apperr.Internal("No se pudo iniciar sesión", err)
		}

		token, err := GenerateToken(cfg.JWTSecret, cfg.JWTTTL, IdentityOf(&user))
		if err != nil {
			return apperr.Internal("No se pudo generar el token", err)
		}

		return response.OK(c, TokenResponse{
			Token:     token,
			ExpiresAt: now.Add(cfg.JWTTTL),
			User:      NewUserResponse(&user),
		})
	}
}

// POST /api/auth/refresh re-signs the presented token's claims with a fresh
// expiry. The account is checked again so a deactivated user cannot keep
// extending a session.
func RefreshHandler(cfg *config.Config) fiber.Handler {
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

		token, err := GenerateToken(cfg.JWTSecret, cfg.JWTTTL, claims.Identity())
		if err != nil {
			return apperr.Internal("No se pudo generar el token", err)
		}

		return response.OK(c, TokenResponse{
			Token:     token,
			ExpiresAt: time.Now().Add(cfg.JWTTTL),
			User:      NewUserResponse(user),
		})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := FromCtx(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := database.DB.Preload("Branch").First(&user, id.UserID).Error; err != nil {
			return apperr.NotFound("Usuario no encontrado")
		}

		resp := fiber.Map{"user": NewUserResponse(&user)}
		if user.Branch != nil {
			resp["filial"] = fiber.Map{
				"id":       user.Branch.ID,
				"name":     user.Branch.Name,
				"province": user.Branch.Province,
				"locality": user.Branch.Locality,
			}
		}
		return response.OK(c, resp)
	}
}

// PUT /api/auth/password
func ChangePasswordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := FromCtx(c)
		if err != nil {
			return err
		}

		var body ChangePasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.BadRequest("Cuerpo de la solicitud inválido")
		}

		var user models.User
		if err := database.DB.First(&user, id.UserID).Error; err != nil {
			return apperr.NotFound("Usuario no encontrado")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.CurrentPassword)); err != nil {
			return apperr.BadRequest("La contraseña actual no es correcta")
		}

		hash, err := HashPassword(body.NewPassword)
		if err != nil {
			return err
		}
		if err := database.DB.Model(&user).Update("password_hash", hash).Error; err != nil {
			return apperr.Internal("No se pudo actualizar la contraseña", err)
		}

		return response.Message(c, "Contraseña actualizada")
	}
}
