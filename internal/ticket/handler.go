package ticket

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
	"filiales-backend/internal/notification"
	"filiales-backend/internal/pagination"
	"filiales-backend/internal/params"
	"filiales-backend/internal/response"
	"filiales-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const maxQuantity = 100

type TicketRequestBody struct {
	FilialID  *uint   `json:"filialId"`
	Match     *string `json:"match"`
	MatchDate *string `json:"matchDate"`
	Quantity  *int    `json:"quantity"`
	Notes     *string `json:"notes"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

var listOptions = pagination.Options{
	DefaultLimit: 20,
	Sortable: map[string]string{
		"fecha":    "match_date",
		"partido":  "match",
		"estado":   "status",
		"cantidad": "quantity",
		"creado":   "created_at",
		"id":       "id",
	},
	DefaultSort: "creado",
	DefaultDesc: true,
}

func load(c *fiber.Ctx) (auth.Identity, *models.TicketRequest, error) {
	id, err := auth.FromCtx(c)
	if err != nil {
		return auth.Identity{}, nil, err
	}
	reqID, err := scope.PathID(c)
	if err != nil {
		return auth.Identity{}, nil, err
	}

	var t models.TicketRequest
	if err := database.DB.First(&t, reqID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.Identity{}, nil, apperr.NotFound("Solicitud no encontrada")
		}
		return auth.Identity{}, nil, apperr.Internal("No se pudo cargar la solicitud", err)
	}
	if err := scope.Ensure(id, t.FilialID); err != nil {
		return auth.Identity{}, nil, err
	}
	return id, &t, nil
}

// editable rejects changes by branch users once the request was reviewed.
func editable(id auth.Identity, t *models.TicketRequest) error {
	if id.IsAdmin() || t.Status == models.TicketPending {
		return nil
	}
	return apperr.Forbidden("Solo se pueden modificar solicitudes pendientes")
}

func (body TicketRequestBody) apply(t *models.TicketRequest) error {
	if body.Match != nil {
		match := strings.TrimSpace(*body.Match)
		if match == "" {
			return apperr.BadRequest("El partido es obligatorio")
		}
		t.Match = match
	}
	if body.MatchDate != nil {
		d, err := params.Date("match_date", *body.MatchDate)
		if err != nil {
			return err
		}
		t.MatchDate = d
	}
	if body.Quantity != nil {
		if *body.Quantity < 1 || *body.Quantity > maxQuantity {
			return apperr.BadRequest(fmt.Sprintf("La cantidad debe estar entre 1 y %d", maxQuantity))
		}
		t.Quantity = *body.Quantity
	}
	if body.Notes != nil {
		t.Notes = strings.TrimSpace(*body.Notes)
	}
	return nil
}

// GET /api/ticket-requests?status=&desde=&hasta=&search=
func ListTicketRequestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, decision, err := scope.FromRequest(c)
		if err != nil {
			return err
		}

		dbq := decision.Apply(database.DB.Model(&models.TicketRequest{}), "filial_id")
		if v := c.Query("status"); v != "" {
			if !models.TicketStatus(v).Valid() {
				return apperr.BadRequest("Estado inválido")
			}
			dbq = dbq.Where("status = ?", v)
		}
		dbq, err = params.DateRange(dbq, "match_date", c.Query("desde"), c.Query("hasta"))
		if err != nil {
			return err
		}
		dbq = params.Search(dbq, c.Query("search"), "match", "notes")

		page, err := pagination.Find[models.TicketRequest](c.UserContext(), dbq, pagination.Parse(c, listOptions))
		if err != nil {
			return apperr.Internal("No se pudieron listar las solicitudes", err)
		}
		return response.OK(c, page)
	}
}

// GET /api/ticket-requests/:id
func GetTicketRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, t, err := load(c)
		if err != nil {
			return err
		}
		return response.OK(c, t)
	}
}

// POST /api/ticket-requests
func CreateTicketRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.FromCtx(c)
		if err != nil {
			return err
		}

		var body TicketRequestBody
		if err := c.BodyParser(&body); err != nil {
			return apperr.BadRequest("Datos inválidos")
		}
		filialID, err := scope.WriteBranch(database.DB, id, body.FilialID)
		if err != nil {
			return err
		}
		if body.Match == nil || body.MatchDate == nil || body.Quantity == nil {
			return apperr.BadRequest("Partido, fecha y cantidad son obligatorios")
		}

		t := models.TicketRequest{
			FilialID:    filialID,
			RequestedBy: id.UserID,
			Status:      models.TicketPending,
		}
		if err := body.apply(&t); err != nil {
			return err
		}
		if err := database.DB.Create(&t).Error; err != nil {
			return apperr.Internal("No se pudo crear la solicitud", err)
		}

		audit.Record(id, audit.LogOptions{
			FilialID:    audit.FilialOf(t.FilialID),
			EntityType:  audit.EntityTicketRequest,
			EntityID:    t.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Solicitud de entradas creada: %s (%d)", t.Match, t.Quantity),
			After:       t,
		})

		return response.Created(c, t)
	}
}

// PUT /api/ticket-requests/:id
func UpdateTicketRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, t, err := load(c)
		if err != nil {
			return err
		}
		if err := editable(id, t); err != nil {
			return err
		}
		before := *t

		var body TicketRequestBody
		if err := c.BodyParser(&body); err != nil {
			return apperr.BadRequest("Datos inválidos")
		}
		if body.FilialID != nil && *body.FilialID != t.FilialID {
			filialID, err := scope.WriteBranch(database.DB, id, body.FilialID)
			if err != nil {
				return err
			}
			t.FilialID = filialID
		}
		if err := body.apply(t); err != nil {
			return err
		}

		if err := database.DB.Save(t).Error; err != nil {
			return apperr.Internal("No se pudo actualizar la solicitud", err)
		}

		audit.Record(id, audit.LogOptions{
			FilialID:    audit.FilialOf(t.FilialID),
			EntityType:  audit.EntityTicketRequest,
			EntityID:    t.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Solicitud de entradas actualizada: %s", t.Match),
			Before:      before,
			After:       t,
		})

		return response.OK(c, t)
	}
}

// DELETE /api/ticket-requests/:id
func DeleteTicketRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, t, err := load(c)
		if err != nil {
			return err
		}
		if err := editable(id, t); err != nil {
			return err
		}

		if err := database.DB.Delete(t).Error; err != nil {
			return apperr.Internal("No se pudo eliminar la solicitud", err)
		}

		audit.Record(id, audit.LogOptions{
			FilialID:    audit.FilialOf(t.FilialID),
			EntityType:  audit.EntityTicketRequest,
			EntityID:    t.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Solicitud de entradas eliminada: %s", t.Match),
			Before:      t,
		})

		return response.Message(c, "Solicitud eliminada")
	}
}

// review moves t to status and notifies whoever asked for the tickets.
func review(c *fiber.Ctx, status models.TicketStatus, reason string) error {
	id, t, err := load(c)
	if err != nil {
		return err
	}
	if !id.IsAdmin() {
		return apperr.Forbidden("Solo un administrador o coordinador puede revisar solicitudes")
	}
	before := *t

	now := time.Now()
	t.Status = status
	t.TicketAssigned = status == models.TicketApproved
	t.RejectionReason = reason
	t.ReviewedBy = &id.UserID
	t.ReviewedAt = &now

	kind := models.NotificationTicketApproved
	title := "Solicitud de entradas aprobada"
	msg := fmt.Sprintf("Tu solicitud de %d entradas para %s fue aprobada.", t.Quantity, t.Match)
	action := models.AuditActionApprove
	if status == models.TicketRejected {
		kind = models.NotificationTicketRejected
		title = "Solicitud de entradas rechazada"
		msg = fmt.Sprintf("Tu solicitud de entradas para %s fue rechazada.", t.Match)
		if reason != "" {
			msg += " Motivo: " + reason
		}
		action = models.AuditActionReject
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(t).Updates(map[string]any{
			"status":           t.Status,
			"ticket_assigned":  t.TicketAssigned,
			"rejection_reason": t.RejectionReason,
			"reviewed_by":      t.ReviewedBy,
			"reviewed_at":      t.ReviewedAt,
		}).Error; err != nil {
			return err
		}
		if t.RequestedBy == id.UserID {
			return nil
		}
		link := fmt.Sprintf("/ticket-requests/%d", t.ID)
		return notification.Create(tx, t.RequestedBy, kind, title, msg, link)
	})
	if err != nil {
		return apperr.Internal("No se pudo actualizar la solicitud", err)
	}

	audit.Record(id, audit.LogOptions{
		FilialID:    audit.FilialOf(t.FilialID),
		EntityType:  audit.EntityTicketRequest,
		EntityID:    t.ID,
		Action:      action,
		Description: fmt.Sprintf("%s: %s", title, t.Match),
		Before:      before,
		After:       t,
	})

	return response.OK(c, t)
}

// POST /api/ticket-requests/:id/approve
func ApproveTicketRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return review(c, models.TicketApproved, "")
	}
}

// POST /api/ticket-requests/:id/reject  { "reason": "..." }
func RejectTicketRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RejectRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return apperr.BadRequest("Datos inválidos")
			}
		}
		return review(c, models.TicketRejected, strings.TrimSpace(body.Reason))
	}
}
