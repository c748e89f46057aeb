package action

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

type ActionRequest struct {
	FilialID     *uint   `json:"filialId"`
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	Date         *string `json:"date"` // "2006-01-02"
	Location     *string `json:"location"`
	Participants *int    `json:"participants"`
	ImageURL     *string `json:"imageUrl"`
}

var listOptions = pagination.Options{
	DefaultLimit: 10,
	Sortable: map[string]string{
		"fecha":     "date",
		"titulo":    "title",
		"categoria": "category",
		"creado":    "created_at",
		"id":        "id",
	},
	DefaultSort: "fecha",
	DefaultDesc: true,
}

func load(c *fiber.Ctx) (auth.Identity, *models.Action, error) {
	id, err := auth.FromCtx(c)
	if err != nil {
		return auth.Identity{}, nil, err
	}
	actionID, err := scope.PathID(c)
	if err != nil {
		return auth.Identity{}, nil, err
	}

	var a models.Action
	if err := database.DB.First(&a, actionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.Identity{}, nil, apperr.NotFound("Acción no encontrada")
		}
		return auth.Identity{}, nil, apperr.Internal("No se pudo cargar la acción", err)
	}
	if err := scope.Ensure(id, a.FilialID); err != nil {
		return auth.Identity{}, nil, err
	}
	return id, &a, nil
}

// apply copies the fields present in body onto a.
func (body ActionRequest) apply(a *models.Action) error {
	if body.Title != nil {
		title := strings.TrimSpace(*body.Title)
		if title == "" {
			return apperr.BadRequest("El título es obligatorio")
		}
		a.Title = title
	}
	if body.Description != nil {
		a.Description = strings.TrimSpace(*body.Description)
	}
	if body.Category != nil {
		a.Category = strings.TrimSpace(*body.Category)
	}
	if body.Date != nil {
		d, err := params.Date("date", *body.Date)
		if err != nil {
			return err
		}
		a.Date = d
	}
	if body.Location != nil {
		a.Location = strings.TrimSpace(*body.Location)
	}
	if body.Participants != nil {
		if *body.Participants < 0 {
			return apperr.BadRequest("La cantidad de participantes no puede ser negativa")
		}
		a.Participants = *body.Participants
	}
	if body.ImageURL != nil {
		a.ImageURL = strings.TrimSpace(*body.ImageURL)
	}
	return nil
}

// GET /api/actions?desde=&hasta=&category=&search=
func ListActionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, decision, err := scope.FromRequest(c)
		if err != nil {
			return err
		}

		dbq := decision.Apply(database.DB.Model(&models.Action{}), "filial_id")
		dbq, err = params.DateRange(dbq, "date", c.Query("desde"), c.Query("hasta"))
		if err != nil {
			return err
		}
		if v := strings.TrimSpace(c.Query("category")); v != "" {
			dbq = dbq.Where("category = ?", v)
		}
		dbq = params.Search(dbq, c.Query("search"), "title", "description", "location")

		page, err := pagination.Find[models.Action](c.UserContext(), dbq, pagination.Parse(c, listOptions))
		if err != nil {
			return apperr.Internal("No se pudieron listar las acciones", err)
		}
		return response.OK(c, page)
	}
}

// GET /api/actions/:id
func GetActionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, a, err := load(c)
		if err != nil {
			return err
		}
		return response.OK(c, a)
	}
}

// POST /api/actions
func CreateActionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.FromCtx(c)
		if err != nil {
			return err
		}

		var body ActionRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.BadRequest("Datos inválidos")
		}
		filialID, err := scope.WriteBranch(database.DB, id, body.FilialID)
		if err != nil {
			return err
		}
		if body.Title == nil || body.Date == nil {
			return apperr.BadRequest("Título y fecha son obligatorios")
		}

		a := models.Action{FilialID: filialID, CreatedBy: id.UserID}
		if err := body.apply(&a); err != nil {
			return err
		}
		if err := database.DB.Create(&a).Error; err != nil {
			return apperr.Internal("No se pudo crear la acción", err)
		}

		audit.Record(id, audit.LogOptions{
			FilialID:    audit.FilialOf(a.FilialID),
			EntityType:  audit.EntityAction,
			EntityID:    a.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Acción creada: %s", a.Title),
			After:       a,
		})

		return response.Created(c, a)
	}
}

// PUT /api/actions/:id
func UpdateActionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, a, err := load(c)
		if err != nil {
			return err
		}
		before := *a

		var body ActionRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.BadRequest("Datos inválidos")
		}
		if body.FilialID != nil && *body.FilialID != a.FilialID {
			filialID, err := scope.WriteBranch(database.DB, id, body.FilialID)
			if err != nil {
				return err
			}
			a.FilialID = filialID
		}
		if err := body.apply(a); err != nil {
			return err
		}

		if err := database.DB.Save(a).Error; err != nil {
			return apperr.Internal("No se pudo actualizar la acción", err)
		}

		audit.Record(id, audit.LogOptions{
			FilialID:    audit.FilialOf(a.FilialID),
			EntityType:  audit.EntityAction,
			EntityID:    a.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Acción actualizada: %s", a.Title),
			Before:      before,
			After:       a,
		})

		return response.OK(c, a)
	}
}

// DELETE /api/actions/:id
func DeleteActionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, a, err := load(c)
		if err != nil {
			return err
		}

		if err := database.DB.Delete(a).Error; err != nil {
			return apperr.Internal("No se pudo eliminar la acción", err)
		}

		audit.Record(id, audit.LogOptions{
			FilialID:    audit.FilialOf(a.FilialID),
			EntityType:  audit.EntityAction,
			EntityID:    a.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Acción eliminada: %s", a.Title),
			Before:      a,
		})

		return response.Message(c, "Acción eliminada")
	}
}
