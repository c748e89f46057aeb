package admin

import (
	"errors"
	"fmt"
	"strings"

	"filiales-backend/internal/apperr"
	"filiales-backend/internal/audit"
	"filiales-backend/internal/auth"
	"filiales-backend/internal/database"
	"filiales-backend/internal/models"
	"filiales-backend/internal/pagination"
	"filiales-backend/internal/params"
	"filiales-backend/internal/response"
	"filiales-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
	FilialID *uint           `json:"filialId"`
}

type UpdateUserRequest struct {
	Name     *string          `json:"name"`
	Email    *string          `json:"email"`
	Password *string          `json:"password"`
	Role     *models.UserRole `json:"role"`
	FilialID *uint            `json:"filialId"`
	// ClearFilial quita la filial asignada (coordinadores)
	ClearFilial bool `json:"clearFilial"`
}

var userListOptions = pagination.Options{
	DefaultLimit: 20,
	Sortable: map[string]string{
		"nombre": "name",
		"email":  "email",
		"rol":    "role",
		"fecha":  "created_at",
		"id":     "id",
	},
	DefaultSort: "nombre",
}

// validateAssignment enforces the role/branch pairing: branch users need an
// existing branch, global admins never carry one, coordinators may.
func validateAssignment(role models.UserRole, filialID *uint) error {
	if !role.Valid() {
		return apperr.BadRequest("Rol inválido")
	}
	switch role {
	case models.RoleSuperAdmin:
		if filialID != nil {
			return apperr.BadRequest("Un administrador general no puede tener filial")
		}
		return nil
	case models.RoleBranchUser:
		if filialID == nil {
			return apperr.BadRequest("Un usuario de filial debe tener una filial asignada")
		}
	}
	if filialID == nil {
		return nil
	}

	var branch models.Branch
	if err := database.DB.Select("id", "active").First(&branch, *filialID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.BadRequest("La filial indicada no existe")
		}
		return apperr.Internal("No se pudo verificar la filial", err)
	}
	if !branch.Active {
		return apperr.BadRequest("La filial indicada está desactivada")
	}
	return nil
}

func emailTaken(email string, exceptID uint) (bool, error) {
	var count int64
	err := database.DB.Model(&models.User{}).
		Where("email = ? AND id <> ?", email, exceptID).
		Count(&count).Error
	return count > 0, err
}

func loadUser(c *fiber.Ctx) (*models.User, error) {
	id, err := scope.PathID(c)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Usuario no encontrado")
		}
		return nil, apperr.Internal("No se pudo cargar el usuario", err)
	}
	return &user, nil
}

// ----------------------------------------
// USUARIOS (solo super_admin)
// ----------------------------------------

// GET /api/users?search=&role=&active=&filialId=
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, decision, err := scope.FromRequest(c)
		if err != nil {
			return err
		}

		dbq := decision.Apply(database.DB.Model(&models.User{}), "filial_id")
		dbq = params.Search(dbq, c.Query("search"), "name", "email")

		if v := c.Query("role"); v != "" {
			if !models.UserRole(v).Valid() {
				return apperr.BadRequest("Rol inválido")
			}
			dbq = dbq.Where("role = ?", v)
		}
		active, err := params.Bool("active", c.Query("active"))
		if err != nil {
			return err
		}
		if active != nil {
			dbq = dbq.Where("active = ?", *active)
		}

		page, err := pagination.Find[models.User](c.UserContext(), dbq, pagination.Parse(c, userListOptions))
		if err != nil {
			return apperr.Internal("No se pudieron listar los usuarios", err)
		}
		return response.OK(c, pagination.Map(page, func(u models.User) auth.UserResponse {
			return auth.NewUserResponse(&u)
		}))
	}
}

// POST /api/users
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.FromCtx(c)
		if err != nil {
			return err
		}

		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.BadRequest("Datos inválidos")
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if body.Name == "" || body.Email == "" {
			return apperr.BadRequest("Nombre y email son obligatorios")
		}
		if err := validateAssignment(body.Role, body.FilialID); err != nil {
			return err
		}

		taken, err := emailTaken(body.Email, 0)
		if err != nil {
			return apperr.Internal("No se pudo verificar el email", err)
		}
		if taken {
			return apperr.BadRequest("Ya existe un usuario con ese email")
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			return err
		}

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: hash,
			Role:         body.Role,
			FilialID:     body.FilialID,
			Active:       true,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return apperr.Internal("No se pudo crear el usuario", err)
		}

		resp := auth.NewUserResponse(&user)
		audit.Record(id, audit.LogOptions{
			FilialID:    user.FilialID,
			EntityType:  audit.EntityUser,
			EntityID:    user.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Usuario creado: %s (%s)", user.Email, user.Role),
			After:       resp,
		})

		return response.Created(c, resp)
	}
}

// PUT /api/users/:id
func UpdateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.FromCtx(c)
		if err != nil {
			return err
		}
		user, err := loadUser(c)
		if err != nil {
			return err
		}
		before := auth.NewUserResponse(user)

		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.BadRequest("Datos inválidos")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return apperr.BadRequest("El nombre no puede estar vacío")
			}
			user.Name = name
		}
		if body.Email != nil {
			email := strings.TrimSpace(strings.ToLower(*body.Email))
			if email == "" {
				return apperr.BadRequest("El email no puede estar vacío")
			}
			taken, err := emailTaken(email, user.ID)
			if err != nil {
				return apperr.Internal("No se pudo verificar el email", err)
			}
			if taken {
				return apperr.BadRequest("Ya existe un usuario con ese email")
			}
			user.Email = email
		}

		role := user.Role
		if body.Role != nil {
			role = *body.Role
		}
		filialID := user.FilialID
		if body.FilialID != nil {
			filialID = body.FilialID
		}
		if body.ClearFilial || role == models.RoleSuperAdmin {
			filialID = nil
		}
		if err := validateAssignment(role, filialID); err != nil {
			return err
		}
		if user.ID == id.UserID && role != user.Role {
			return apperr.BadRequest("No podés cambiar tu propio rol")
		}
		user.Role = role
		user.FilialID = filialID

		if body.Password != nil {
			hash, err := auth.HashPassword(*body.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
		}

		// Save persiste también un filial_id en nil
		if err := database.DB.Save(user).Error; err != nil {
			return apperr.Internal("No se pudo actualizar el usuario", err)
		}

		resp := auth.NewUserResponse(user)
		audit.Record(id, audit.LogOptions{
			FilialID:    user.FilialID,
			EntityType:  audit.EntityUser,
			EntityID:    user.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Usuario actualizado: %s", user.Email),
			Before:      before,
			After:       resp,
		})

		return response.OK(c, resp)
	}
}

func setUserActive(active bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.FromCtx(c)
		if err != nil {
			return err
		}
		user, err := loadUser(c)
		if err != nil {
			return err
		}
		if !active && user.ID == id.UserID {
			return apperr.BadRequest("No podés desactivar tu propia cuenta")
		}

		if user.Active != active {
			if err := database.DB.Model(user).Update("active", active).Error; err != nil {
				return apperr.Internal("No se pudo actualizar el usuario", err)
			}
			user.Active = active

			action := models.AuditActionReactivate
			desc := "Usuario reactivado: %s"
			if !active {
				action = models.AuditActionDeactivate
				desc = "Usuario desactivado: %s"
			}
			audit.Record(id, audit.LogOptions{
				FilialID:    user.FilialID,
				EntityType:  audit.EntityUser,
				EntityID:    user.ID,
				Action:      action,
				Description: fmt.Sprintf(desc, user.Email),
			})
		}

		return response.OK(c, auth.NewUserResponse(user))
	}
}

// POST /api/users/:id/deactivate
func DeactivateUserHandler() fiber.Handler {
	return setUserActive(false)
}

// POST /api/users/:id/activate
func ActivateUserHandler() fiber.Handler {
	return setUserActive(true)
}
