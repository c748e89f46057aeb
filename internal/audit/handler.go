package audit

import (
	"filiales-backend/internal/apperr"
	"filiales-backend/internal/database"
	"filiales-backend/internal/models"
	"filiales-backend/internal/pagination"
	"filiales-backend/internal/params"
	"filiales-backend/internal/response"
	"filiales-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
)

var listOptions = pagination.Options{
	DefaultLimit: 50,
	Sortable: map[string]string{
		"fecha":   "created_at",
		"entidad": "entity_type",
		"usuario": "user_name",
	},
	DefaultSort: "fecha",
	DefaultDesc: true,
}

// GET /api/audit-logs?entityType=member&entityId=1&userId=3&action=update&desde=2025-01-01&hasta=2025-01-31
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, decision, err := scope.FromRequest(c)
		if err != nil {
			return err
		}

		dbq := decision.Apply(database.DB.Model(&models.AuditLog{}), "filial_id")

		if v := c.Query("entityType"); v != "" {
			dbq = dbq.Where("entity_type = ?", v)
		}
		if v := c.Query("entityId"); v != "" {
			eid, ok := scope.ParseID(v)
			if !ok {
				return apperr.BadRequest("entity_id inválido")
			}
			dbq = dbq.Where("entity_id = ?", eid)
		}
		if v := c.Query("userId"); v != "" {
			uid, ok := scope.ParseID(v)
			if !ok {
				return apperr.BadRequest("user_id inválido")
			}
			dbq = dbq.Where("user_id = ?", uid)
		}
		if v := c.Query("action"); v != "" {
			dbq = dbq.Where("action = ?", v)
		}
		dbq, err = params.DateRange(dbq, "created_at", c.Query("desde"), c.Query("hasta"))
		if err != nil {
			return err
		}

		page, err := pagination.Find[models.AuditLog](c.UserContext(), dbq, pagination.Parse(c, listOptions))
		if err != nil {
			return apperr.Internal("No se pudieron listar los registros", err)
		}
		return response.OK(c, page)
	}
}
