package admin

import (
	"errors"
	"fmt"
	"strings"
	"time"

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
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type CreateBranchRequest struct {
	Name      string  `json:"name"`
	Province  string  `json:"province"`
	Locality  string  `json:"locality"`
	Address   string  `json:"address"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	FoundedAt *string `json:"foundedAt"` // "2006-01-02"
	LogoURL   *string `json:"logoUrl"`
}

type UpdateBranchRequest struct {
	Name      *string `json:"name"`
	Province  *string `json:"province"`
	Locality  *string `json:"locality"`
	Address   *string `json:"address"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	FoundedAt *string `json:"foundedAt"`
	LogoURL   *string `json:"logoUrl"`
}

type BranchStats struct {
	FilialID               uint  `json:"filialId"`
	ActiveMembers          int64 `json:"activeMembers"`
	InactiveMembers        int64 `json:"inactiveMembers"`
	Actions                int64 `json:"actions"`
	PendingTicketRequests  int64 `json:"pendingTicketRequests"`
	ApprovedTicketRequests int64 `json:"approvedTicketRequests"`
	Users                  int64 `json:"users"`
}

var branchListOptions = pagination.Options{
	DefaultLimit: 20,
	Sortable: map[string]string{
		"nombre":    "name",
		"provincia": "province",
		"localidad": "locality",
		"fecha":     "created_at",
		"id":        "id",
	},
	DefaultSort: "nombre",
}

func loadBranch(c *fiber.Ctx) (*models.Branch, error) {
	id, err := scope.PathID(c)
	if err != nil {
		return nil, err
	}
	var branch models.Branch
	if err := database.DB.First(&branch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Filial no encontrada")
		}
		return nil, apperr.Internal("No se pudo cargar la filial", err)
	}
	return &branch, nil
}

func nameTaken(name string, exceptID uint) (bool, error) {
	var count int64
	err := database.DB.Model(&models.Branch{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), exceptID).
		Count(&count).Error
	return count > 0, err
}

// ----------------------------------------
// FILIALES CRUD
// ----------------------------------------

// POST /api/branches (super_admin)
func CreateBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.FromCtx(c)
		if err != nil {
			return err
		}

		var body CreateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.BadRequest("Datos inválidos")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return apperr.BadRequest("El nombre de la filial es obligatorio")
		}
		taken, err := nameTaken(body.Name, 0)
		if err != nil {
			return apperr.Internal("No se pudo verificar el nombre", err)
		}
		if taken {
			return apperr.BadRequest("Ya existe una filial con ese nombre")
		}

		foundedAt, err := params.OptionalDate("founded_at", body.FoundedAt)
		if err != nil {
			return err
		}

		branch := models.Branch{
			Name:      body.Name,
			Province:  strings.TrimSpace(body.Province),
			Locality:  strings.TrimSpace(body.Locality),
			Address:   strings.TrimSpace(body.Address),
			FoundedAt: foundedAt,
			Active:    true,
		}
		if body.Phone != nil {
			branch.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Email != nil {
			branch.Email = strings.ToLower(strings.TrimSpace(*body.Email))
		}
		if body.LogoURL != nil {
			branch.LogoURL = strings.TrimSpace(*body.LogoURL)
		}

		if err := database.DB.Create(&branch).Error; err != nil {
			return apperr.Internal("No se pudo crear la filial", err)
		}

		audit.Record(id, audit.LogOptions{
			FilialID:    audit.FilialOf(branch.ID),
			EntityType:  audit.EntityBranch,
			EntityID:    branch.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Filial creada: %s", branch.Name),
			After:       branch,
		})

		return response.Created(c, branch)
	}
}

// GET /api/branches?search=...&province=...&active=true
func ListBranchesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, decision, err := scope.FromRequest(c)
		if err != nil {
			return err
		}

		dbq := decision.Apply(database.DB.Model(&models.Branch{}), "id")
		dbq = params.Search(dbq, c.Query("search"), "name", "locality")

		if v := c.Query("province"); v != "" {
			dbq = dbq.Where("province = ?", v)
		}
		active, err := params.Bool("active", c.Query("active"))
		if err != nil {
			return err
		}
		if active != nil {
			dbq = dbq.Where("active = ?", *active)
		}

		page, err := pagination.Find[models.Branch](c.UserContext(), dbq, pagination.Parse(c, branchListOptions))
		if err != nil {
			return apperr.Internal("No se pudieron listar las filiales", err)
		}
		return response.OK(c, page)
	}
}

// GET /api/branches/:id
func GetBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.FromCtx(c)
		if err != nil {
			return err
		}
		branch, err := loadBranch(c)
		if err != nil {
			return err
		}
		if err := scope.Ensure(id, branch.ID); err != nil {
			return err
		}
		return response.OK(c, branch)
	}
}

// GET /api/branches/:id/stats
func BranchStatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.FromCtx(c)
		if err != nil {
			return err
		}
		branch, err := loadBranch(c)
		if err != nil {
			return err
		}
		if err := scope.Ensure(id, branch.ID); err != nil {
			return err
		}

		stats := BranchStats{FilialID: branch.ID}
		db := database.DB.WithContext(c.UserContext())

		g := new(errgroup.Group)
		count := func(dst *int64, model any, where string, args ...any) {
			g.Go(func() error {
				return db.Model(model).Where(where, args...).Count(dst).Error
			})
		}
		count(&stats.ActiveMembers, &models.Member{}, "filial_id = ? AND active = ?", branch.ID, true)
		count(&stats.InactiveMembers, &models.Member{}, "filial_id = ? AND active = ?", branch.ID, false)
		count(&stats.Actions, &models.Action{}, "filial_id = ?", branch.ID)
		count(&stats.PendingTicketRequests, &models.TicketRequest{}, "filial_id = ? AND status = ?", branch.ID, models.TicketPending)
		count(&stats.ApprovedTicketRequests, &models.TicketRequest{}, "filial_id = ? AND status = ?", branch.ID, models.TicketApproved)
		count(&stats.Users, &models.User{}, "filial_id = ?", branch.ID)

		if err := g.Wait(); err != nil {
			return apperr.Internal("No se pudieron calcular las estadísticas", err)
		}
		return response.OK(c, stats)
	}
}

// PUT /api/branches/:id (super_admin)
func UpdateBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.FromCtx(c)
		if err != nil {
			return err
		}
		branch, err := loadBranch(c)
		if err != nil {
			return err
		}
		before := *branch

		var body UpdateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.BadRequest("Datos inválidos")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return apperr.BadRequest("El nombre de la filial no puede estar vacío")
			}
			taken, err := nameTaken(name, branch.ID)
			if err != nil {
				return apperr.Internal("No se pudo verificar el nombre", err)
			}
			if taken {
				return apperr.BadRequest("Ya existe una filial con ese nombre")
			}
			branch.Name = name
		}
		if body.Province != nil {
			branch.Province = strings.TrimSpace(*body.Province)
		}
		if body.Locality != nil {
			branch.Locality = strings.TrimSpace(*body.Locality)
		}
		if body.Address != nil {
			branch.Address = strings.TrimSpace(*body.Address)
		}
		if body.Phone != nil {
			branch.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Email != nil {
			branch.Email = strings.ToLower(strings.TrimSpace(*body.Email))
		}
		if body.LogoURL != nil {
			branch.LogoURL = strings.TrimSpace(*body.LogoURL)
		}
		if body.FoundedAt != nil {
			foundedAt, err := params.OptionalDate("founded_at", body.FoundedAt)
			if err != nil {
				return err
			}
			branch.FoundedAt = foundedAt
		}

		if err := database.DB.Save(branch).Error; err != nil {
			return apperr.Internal("No se pudo actualizar la filial", err)
		}

		audit.Record(id, audit.LogOptions{
			FilialID:    audit.FilialOf(branch.ID),
			EntityType:  audit.EntityBranch,
			EntityID:    branch.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Filial actualizada: %s", branch.Name),
			Before:      before,
			After:       branch,
		})

		return response.OK(c, branch)
	}
}

func setBranchActive(active bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.FromCtx(c)
		if err != nil {
			return err
		}
		branch, err := loadBranch(c)
		if err != nil {
			return err
		}

		if branch.Active != active {
			if err := database.DB.Model(branch).Updates(map[string]any{
				"active":     active,
				"updated_at": time.Now(),
			}).Error; err != nil {
				return apperr.Internal("No se pudo actualizar la filial", err)
			}
			branch.Active = active

			action := models.AuditActionReactivate
			desc := "Filial reactivada: %s"
			if !active {
				action = models.AuditActionDeactivate
				desc = "Filial desactivada: %s"
			}
			audit.Record(id, audit.LogOptions{
				FilialID:    audit.FilialOf(branch.ID),
				EntityType:  audit.EntityBranch,
				EntityID:    branch.ID,
				Action:      action,
				Description: fmt.Sprintf(desc, branch.Name),
			})
		}

		return response.OK(c, branch)
	}
}

// DELETE /api/branches/:id (super_admin). Branches are only deactivated.
func DeleteBranchHandler() fiber.Handler {
	return setBranchActive(false)
}

// POST /api/branches/:id/activate (super_admin)
func ActivateBranchHandler() fiber.Handler {
	return setBranchActive(true)
}
