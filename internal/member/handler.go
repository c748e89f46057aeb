package member

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
	"gorm.io/gorm"
)

type CreateMemberRequest struct {
	FilialID     *uint   `json:"filialId"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Document     string  `json:"document"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	BirthDate    *string `json:"birthDate"`
	Position     string  `json:"position"`
	MemberNumber string  `json:"memberNumber"`
	JoinedAt     *string `json:"joinedAt"`
	PhotoURL     string  `json:"photoUrl"`
}

type UpdateMemberRequest struct {
	FilialID     *uint   `json:"filialId"`
	FirstName    *string `json:"firstName"`
	LastName     *string `json:"lastName"`
	Document     *string `json:"document"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	BirthDate    *string `json:"birthDate"`
	Position     *string `json:"position"`
	MemberNumber *string `json:"memberNumber"`
	JoinedAt     *string `json:"joinedAt"`
	PhotoURL     *string `json:"photoUrl"`
}

var listOptions = pagination.Options{
	DefaultLimit: 20,
	Sortable: map[string]string{
		"nombre":    "first_name",
		"apellido":  "last_name",
		"documento": "document",
		"cargo":     "position",
		"ingreso":   "joined_at",
		"fecha":     "created_at",
		"id":        "id",
	},
	DefaultSort: "apellido",
}

// filtered builds the member query shared by the list and the export.
func filtered(c *fiber.Ctx) (*gorm.DB, error) {
	_, decision, err := scope.FromRequest(c)
	if err != nil {
		return nil, err
	}

	dbq := decision.Apply(database.DB.Model(&models.Member{}), "filial_id")
	dbq = params.Search(dbq, c.Query("search"), "first_name", "last_name", "document")

	active, err := params.Bool("active", c.Query("active"))
	if err != nil {
		return nil, err
	}
	if active != nil {
		dbq = dbq.Where("active = ?", *active)
	}
	if v := strings.TrimSpace(c.Query("position")); v != "" {
		dbq = dbq.Where("position = ?", v)
	}
	return dbq, nil
}

// load fetches the member in :id and checks the caller may touch its branch.
func load(c *fiber.Ctx, db *gorm.DB) (auth.Identity, *models.Member, error) {
	id, err := auth.FromCtx(c)
	if err != nil {
		return auth.Identity{}, nil, err
	}
	memberID, err := scope.PathID(c)
	if err != nil {
		return auth.Identity{}, nil, err
	}

	var m models.Member
	if err := db.First(&m, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.Identity{}, nil, apperr.NotFound("Integrante no encontrado")
		}
		return auth.Identity{}, nil, apperr.Internal("No se pudo cargar el integrante", err)
	}
	if err := scope.Ensure(id, m.FilialID); err != nil {
		return auth.Identity{}, nil, err
	}
	return id, &m, nil
}

func documentTaken(filialID uint, document string, exceptID uint) (bool, error) {
	var count int64
	err := database.DB.Model(&models.Member{}).
		Where("filial_id = ? AND document = ? AND id <> ?", filialID, document, exceptID).
		Count(&count).Error
	return count > 0, err
}

// setRequired copies a trimmed, non-empty value when the field was sent.
func setRequired(dst, src *string, field string) error {
	if src == nil {
		return nil
	}
	v := strings.TrimSpace(*src)
	if v == "" {
		return apperr.BadRequest(field + " no puede estar vacío")
	}
	*dst = v
	return nil
}

// setOptional copies a trimmed value when the field was sent; empty clears it.
func setOptional(dst, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// GET /api/members
func ListMembersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq, err := filtered(c)
		if err != nil {
			return err
		}

		page, err := pagination.Find[models.Member](c.UserContext(), dbq, pagination.Parse(c, listOptions))
		if err != nil {
			return apperr.Internal("No se pudieron listar los integrantes", err)
		}
		return response.OK(c, page)
	}
}

// GET /api/members/:id
func GetMemberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, m, err := load(c, database.DB)
		if err != nil {
			return err
		}
		return response.OK(c, m)
	}
}

// POST /api/members
func CreateMemberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.FromCtx(c)
		if err != nil {
			return err
		}

		var body CreateMemberRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.BadRequest("Datos inválidos")
		}

		filialID, err := scope.WriteBranch(database.DB, id, body.FilialID)
		if err != nil {
			return err
		}

		body.FirstName = strings.TrimSpace(body.FirstName)
		body.LastName = strings.TrimSpace(body.LastName)
		body.Document = strings.TrimSpace(body.Document)
		if body.FirstName == "" || body.LastName == "" || body.Document == "" {
			return apperr.BadRequest("Nombre, apellido y documento son obligatorios")
		}
		birthDate, err := params.OptionalDate("birth_date", body.BirthDate)
		if err != nil {
			return err
		}
		joinedAt, err := params.OptionalDate("joined_at", body.JoinedAt)
		if err != nil {
			return err
		}

		taken, err := documentTaken(filialID, body.Document, 0)
		if err != nil {
			return apperr.Internal("No se pudo verificar el documento", err)
		}
		if taken {
			return apperr.BadRequest("Ya existe un integrante con ese documento en la filial")
		}

		m := models.Member{
			FilialID:     filialID,
			FirstName:    body.FirstName,
			LastName:     body.LastName,
			Document:     body.Document,
			Email:        strings.ToLower(strings.TrimSpace(body.Email)),
			Phone:        strings.TrimSpace(body.Phone),
			BirthDate:    birthDate,
			Position:     strings.TrimSpace(body.Position),
			MemberNumber: strings.TrimSpace(body.MemberNumber),
			JoinedAt:     joinedAt,
			PhotoURL:     strings.TrimSpace(body.PhotoURL),
			Active:       true,
		}
		if err := database.DB.Create(&m).Error; err != nil {
			return apperr.Internal("No se pudo crear el integrante", err)
		}

		audit.Record(id, audit.LogOptions{
			FilialID:    audit.FilialOf(m.FilialID),
			EntityType:  audit.EntityMember,
			EntityID:    m.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Integrante creado: %s %s", m.FirstName, m.LastName),
			After:       m,
		})

		return response.Created(c, m)
	}
}

// PUT /api/members/:id
func UpdateMemberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, m, err := load(c, database.DB)
		if err != nil {
			return err
		}
		before := *m

		var body UpdateMemberRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.BadRequest("Datos inválidos")
		}

		if body.FilialID != nil && *body.FilialID != m.FilialID {
			if !id.IsGlobalAdmin() {
				return apperr.Forbidden("Solo un administrador general puede cambiar la filial de un integrante")
			}
			if err := scope.BranchExists(database.DB, *body.FilialID); err != nil {
				return err
			}
			m.FilialID = *body.FilialID
		}

		if err := setRequired(&m.FirstName, body.FirstName, "El nombre"); err != nil {
			return err
		}
		if err := setRequired(&m.LastName, body.LastName, "El apellido"); err != nil {
			return err
		}
		if err := setRequired(&m.Document, body.Document, "El documento"); err != nil {
			return err
		}
		setOptional(&m.Phone, body.Phone)
		setOptional(&m.Position, body.Position)
		setOptional(&m.MemberNumber, body.MemberNumber)
		setOptional(&m.PhotoURL, body.PhotoURL)
		if body.Email != nil {
			m.Email = strings.ToLower(strings.TrimSpace(*body.Email))
		}
		if body.BirthDate != nil {
			if m.BirthDate, err = params.OptionalDate("birth_date", body.BirthDate); err != nil {
				return err
			}
		}
		if body.JoinedAt != nil {
			if m.JoinedAt, err = params.OptionalDate("joined_at", body.JoinedAt); err != nil {
				return err
			}
		}

		if m.Document != before.Document || m.FilialID != before.FilialID {
			taken, err := documentTaken(m.FilialID, m.Document, m.ID)
			if err != nil {
				return apperr.Internal("No se pudo verificar el documento", err)
			}
			if taken {
				return apperr.BadRequest("Ya existe un integrante con ese documento en la filial")
			}
		}

		if err := database.DB.Save(m).Error; err != nil {
			return apperr.Internal("No se pudo actualizar el integrante", err)
		}

		audit.Record(id, audit.LogOptions{
			FilialID:    audit.FilialOf(m.FilialID),
			EntityType:  audit.EntityMember,
			EntityID:    m.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Integrante actualizado: %s %s", m.FirstName, m.LastName),
			Before:      before,
			After:       m,
		})

		return response.OK(c, m)
	}
}

// DELETE /api/members/:id
func DeleteMemberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, m, err := load(c, database.DB)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("member_id = ?", m.ID).Delete(&models.MemberInactivity{}).Error; err != nil {
				return err
			}
			return tx.Delete(m).Error
		})
		if err != nil {
			return apperr.Internal("No se pudo eliminar el integrante", err)
		}

		audit.Record(id, audit.LogOptions{
			FilialID:    audit.FilialOf(m.FilialID),
			EntityType:  audit.EntityMember,
			EntityID:    m.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Integrante eliminado: %s %s", m.FirstName, m.LastName),
			Before:      m,
		})

		return response.Message(c, "Integrante eliminado")
	}
}

// GET /api/members/:id/inactivity
func InactivityHistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, m, err := load(c, database.DB)
		if err != nil {
			return err
		}

		periods, err := History(database.DB, m.ID)
		if err != nil {
			return apperr.Internal("No se pudo cargar el historial", err)
		}
		return response.OK(c, fiber.Map{
			"member":  m,
			"periods": periods,
		})
	}
}

func setActive(active bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, m, err := load(c, database.DB)
		if err != nil {
			return err
		}

		now := time.Now()
		var changed bool
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			if active {
				changed, err = Reactivate(tx, m, now)
			} else {
				changed, err = Deactivate(tx, m, now)
			}
			return err
		})
		if err != nil {
			return apperr.Internal("No se pudo actualizar el estado del integrante", err)
		}

		if changed {
			action := models.AuditActionReactivate
			desc := "Integrante reactivado: %s %s"
			if !active {
				action = models.AuditActionDeactivate
				desc = "Integrante dado de baja: %s %s"
			}
			audit.Record(id, audit.LogOptions{
				FilialID:    audit.FilialOf(m.FilialID),
				EntityType:  audit.EntityMember,
				EntityID:    m.ID,
				Action:      action,
				Description: fmt.Sprintf(desc, m.FirstName, m.LastName),
			})
		}

		return response.OK(c, m)
	}
}

// POST /api/members/:id/deactivate
func DeactivateMemberHandler() fiber.Handler {
	return setActive(false)
}

// POST /api/members/:id/reactivate
func ReactivateMemberHandler() fiber.Handler {
	return setActive(true)
}
