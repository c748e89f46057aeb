package forum

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
	"filiales-backend/internal/response"
	"filiales-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ReplyRequest struct {
	Body string `json:"body"`
}

// loadReply loads the reply in :id together with its topic, which decides
// visibility.
func loadReply(c *fiber.Ctx) (auth.Identity, *models.ForumTopic, *models.ForumReply, error) {
	replyID, err := scope.PathID(c)
	if err != nil {
		return auth.Identity{}, nil, nil, err
	}

	var r models.ForumReply
	if err := database.DB.First(&r, replyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.Identity{}, nil, nil, apperr.NotFound("Respuesta no encontrada")
		}
		return auth.Identity{}, nil, nil, apperr.Internal("No se pudo cargar la respuesta", err)
	}

	id, t, err := loadTopic(c, r.TopicID)
	if err != nil {
		return auth.Identity{}, nil, nil, err
	}
	return id, t, &r, nil
}

func replyBody(c *fiber.Ctx) (string, error) {
	var body ReplyRequest
	if err := c.BodyParser(&body); err != nil {
		return "", apperr.BadRequest("Datos inválidos")
	}
	text := strings.TrimSpace(body.Body)
	if text == "" {
		return "", apperr.BadRequest("La respuesta no puede estar vacía")
	}
	return text, nil
}

// POST /api/forum/topics/:id/replies
func CreateReplyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, t, err := topicFromPath(c)
		if err != nil {
			return err
		}
		if t.Closed {
			return apperr.Forbidden("El tema está cerrado")
		}
		text, err := replyBody(c)
		if err != nil {
			return err
		}

		r := models.ForumReply{
			TopicID:    t.ID,
			AuthorID:   id.UserID,
			AuthorName: id.Name,
			Body:       text,
		}
		now := time.Now()
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&r).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.ForumTopic{}).Where("id = ?", t.ID).Updates(map[string]any{
				"reply_count":   gorm.Expr("reply_count + 1"),
				"last_reply_at": now,
			}).Error; err != nil {
				return err
			}
			if t.AuthorID == id.UserID {
				return nil
			}
			return notification.Create(tx, t.AuthorID, models.NotificationForumReply,
				"Nueva respuesta en tu tema",
				fmt.Sprintf("%s respondió en \"%s\".", id.Name, t.Title),
				fmt.Sprintf("/forum/topics/%d", t.ID))
		})
		if err != nil {
			return apperr.Internal("No se pudo publicar la respuesta", err)
		}

		audit.Record(id, audit.LogOptions{
			FilialID:    t.FilialID,
			EntityType:  audit.EntityForumReply,
			EntityID:    r.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Respuesta en el tema: %s", t.Title),
			After:       r,
		})

		return response.Created(c, r)
	}
}

// PUT /api/forum/replies/:id. Allowed on closed topics too.
func UpdateReplyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, t, r, err := loadReply(c)
		if err != nil {
			return err
		}
		if err := ensureModify(id, r.AuthorID, r.CreatedAt); err != nil {
			return err
		}
		text, err := replyBody(c)
		if err != nil {
			return err
		}
		before := *r

		if err := database.DB.Model(r).Update("body", text).Error; err != nil {
			return apperr.Internal("No se pudo actualizar la respuesta", err)
		}
		r.Body = text

		audit.Record(id, audit.LogOptions{
			FilialID:    t.FilialID,
			EntityType:  audit.EntityForumReply,
			EntityID:    r.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Respuesta editada en el tema: %s", t.Title),
			Before:      before,
			After:       r,
		})

		return response.OK(c, r)
	}
}

// DELETE /api/forum/replies/:id
func DeleteReplyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, t, r, err := loadReply(c)
		if err != nil {
			return err
		}
		if err := ensureModify(id, r.AuthorID, r.CreatedAt); err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(r).Error; err != nil {
				return err
			}
			return tx.Model(&models.ForumTopic{}).
				Where("id = ? AND reply_count > 0", t.ID).
				Update("reply_count", gorm.Expr("reply_count - 1")).Error
		})
		if err != nil {
			return apperr.Internal("No se pudo eliminar la respuesta", err)
		}

		audit.Record(id, audit.LogOptions{
			FilialID:    t.FilialID,
			EntityType:  audit.EntityForumReply,
			EntityID:    r.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Respuesta eliminada del tema: %s", t.Title),
			Before:      r,
		})

		return response.Message(c, "Respuesta eliminada")
	}
}
