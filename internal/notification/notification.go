// Package notification stores per-user notices and serves the inbox endpoints.
package notification

import (
	"errors"
	"time"

	"filiales-backend/internal/apperr"
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

// Create stores a notification for userID. Pass the caller's transaction so
// the notice is written together with the change it announces.
func Create(db *gorm.DB, userID uint, kind, title, message, link string) error {
	return db.Create(&models.Notification{
		UserID:  userID,
		Kind:    kind,
		Title:   title,
		Message: message,
		Link:    link,
	}).Error
}

var listOptions = pagination.Options{
	DefaultLimit: 20,
	Sortable: map[string]string{
		"fecha": "created_at",
		"id":    "id",
	},
	DefaultSort: "fecha",
	DefaultDesc: true,
}

// GET /api/notifications?unread=true
func ListNotificationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.FromCtx(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Notification{}).Where("user_id = ?", id.UserID)
		unread, err := params.Bool("unread", c.Query("unread"))
		if err != nil {
			return err
		}
		if unread != nil {
			if *unread {
				dbq = dbq.Where("read_at IS NULL")
			} else {
				dbq = dbq.Where("read_at IS NOT NULL")
			}
		}

		page, err := pagination.Find[models.Notification](c.UserContext(), dbq, pagination.Parse(c, listOptions))
		if err != nil {
			return apperr.Internal("No se pudieron listar las notificaciones", err)
		}
		return response.OK(c, page)
	}
}

// GET /api/notifications/unread-count
func UnreadCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.FromCtx(c)
		if err != nil {
			return err
		}

		var count int64
		if err := database.DB.Model(&models.Notification{}).
			Where("user_id = ? AND read_at IS NULL", id.UserID).
			Count(&count).Error; err != nil {
			return apperr.Internal("No se pudieron contar las notificaciones", err)
		}
		return response.OK(c, fiber.Map{"count": count})
	}
}

// POST /api/notifications/:id/read
func MarkReadHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.FromCtx(c)
		if err != nil {
			return err
		}
		notifID, err := scope.PathID(c)
		if err != nil {
			return err
		}

		var n models.Notification
		// ajenas se reportan como inexistentes
		if err := database.DB.Where("id = ? AND user_id = ?", notifID, id.UserID).First(&n).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Notificación no encontrada")
			}
			return apperr.Internal("No se pudo cargar la notificación", err)
		}

		if n.ReadAt == nil {
			now := time.Now()
			if err := database.DB.Model(&n).Update("read_at", now).Error; err != nil {
				return apperr.Internal("No se pudo marcar la notificación", err)
			}
			n.ReadAt = &now
		}
		return response.OK(c, n)
	}
}

// POST /api/notifications/read-all
func MarkAllReadHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.FromCtx(c)
		if err != nil {
			return err
		}

		res := database.DB.Model(&models.Notification{}).
			Where("user_id = ? AND read_at IS NULL", id.UserID).
			Update("read_at", time.Now())
		if res.Error != nil {
			return apperr.Internal("No se pudieron marcar las notificaciones", res.Error)
		}
		return response.OK(c, fiber.Map{"updated": res.RowsAffected})
	}
}
