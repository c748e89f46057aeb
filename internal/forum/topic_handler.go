package forum

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

type CreateTopicRequest struct {
	FilialID *uint  `json:"filialId"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Pinned   bool   `json:"pinned"`
}

type UpdateTopicRequest struct {
	Title  *string `json:"title"`
	Body   *string `json:"body"`
	Pinned *bool   `json:"pinned"`
}

type TopicDetail struct {
	models.ForumTopic
	Replies []models.ForumReply `json:"replies"`
}

var topicListOptions = pagination.Options{
	DefaultLimit: 20,
	Sortable: map[string]string{
		"actividad":  "last_reply_at",
		"fecha":      "created_at",
		"titulo":     "title",
		"respuestas": "reply_count",
		"id":         "id",
	},
	DefaultSort: "fecha",
	DefaultDesc: true,
}

func loadTopic(c *fiber.Ctx, topicID uint) (auth.Identity, *models.ForumTopic, error) {
	id, err := auth.FromCtx(c)
	if err != nil {
		return auth.Identity{}, nil, err
	}

	var t models.ForumTopic
	if err := database.DB.First(&t, topicID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.Identity{}, nil, apperr.NotFound("Tema no encontrado")
		}
		return auth.Identity{}, nil, apperr.Internal("No se pudo cargar el tema", err)
	}
	if !canRead(id, t.FilialID) {
		return auth.Identity{}, nil, apperr.Forbidden("No tenés acceso a este tema")
	}
	return id, &t, nil
}

func topicFromPath(c *fiber.Ctx) (auth.Identity, *models.ForumTopic, error) {
	topicID, err := scope.PathID(c)
	if err != nil {
		return auth.Identity{}, nil, err
	}
	return loadTopic(c, topicID)
}

// GET /api/forum/topics?search=&closed=&filialId=
//
// Besides the branch filter, club-wide topics are always included.
func ListTopicsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, decision, err := scope.FromRequest(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.ForumTopic{})
		if decision.EffectiveFilialID != nil {
			dbq = dbq.Where("(filial_id = ? OR filial_id IS NULL)", *decision.EffectiveFilialID)
		}
		dbq = params.Search(dbq, c.Query("search"), "title", "body")

		closed, err := params.Bool("closed", c.Query("closed"))
		if err != nil {
			return err
		}
		if closed != nil {
			dbq = dbq.Where("closed = ?", *closed)
		}
		general, err := params.Bool("general", c.Query("general"))
		if err != nil {
			return err
		}
		if general != nil && *general {
			dbq = dbq.Where("filial_id IS NULL")
		}

		// fijados primero
		dbq = dbq.Order("pinned DESC")

		page, err := pagination.Find[models.ForumTopic](c.UserContext(), dbq, pagination.Parse(c, topicListOptions))
		if err != nil {
			return apperr.Internal("No se pudieron listar los temas", err)
		}
		return response.OK(c, page)
	}
}

// GET /api/forum/topics/:id
func GetTopicHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, t, err := topicFromPath(c)
		if err != nil {
			return err
		}

		replies := []models.ForumReply{}
		if err := database.DB.Where("topic_id = ?", t.ID).
			Order("created_at ASC").Order("id ASC").
			Find(&replies).Error; err != nil {
			return apperr.Internal("No se pudieron cargar las respuestas", err)
		}
		return response.OK(c, TopicDetail{ForumTopic: *t, Replies: replies})
	}
}

// POST /api/forum/topics
//
// A global admin may omit filialId to open a club-wide topic; everyone else
// posts in their own branch.
func CreateTopicHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.FromCtx(c)
		if err != nil {
			return err
		}

		var body CreateTopicRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.BadRequest("Datos inválidos")
		}
		body.Title = strings.TrimSpace(body.Title)
		body.Body = strings.TrimSpace(body.Body)
		if body.Title == "" || body.Body == "" {
			return apperr.BadRequest("Título y contenido son obligatorios")
		}

		var filialID *uint
		if !id.IsGlobalAdmin() || body.FilialID != nil {
			fid, err := scope.WriteBranch(database.DB, id, body.FilialID)
			if err != nil {
				return err
			}
			filialID = &fid
		}

		t := models.ForumTopic{
			FilialID:   filialID,
			AuthorID:   id.UserID,
			AuthorName: id.Name,
			Title:      body.Title,
			Body:       body.Body,
			Pinned:     body.Pinned && id.IsAdmin(),
		}
		if err := database.DB.Create(&t).Error; err != nil {
			return apperr.Internal("No se pudo crear el tema", err)
		}

		audit.Record(id, audit.LogOptions{
			FilialID:    t.FilialID,
			EntityType:  audit.EntityForumTopic,
			EntityID:    t.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Tema creado: %s", t.Title),
			After:       t,
		})

		return response.Created(c, t)
	}
}

// PUT /api/forum/topics/:id
func UpdateTopicHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, t, err := topicFromPath(c)
		if err != nil {
			return err
		}
		if err := ensureModify(id, t.AuthorID, t.CreatedAt); err != nil {
			return err
		}
		before := *t

		var body UpdateTopicRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.BadRequest("Datos inválidos")
		}
		if body.Title != nil {
			title := strings.TrimSpace(*body.Title)
			if title == "" {
				return apperr.BadRequest("El título no puede estar vacío")
			}
			t.Title = title
		}
		if body.Body != nil {
			text := strings.TrimSpace(*body.Body)
			if text == "" {
				return apperr.BadRequest("El contenido no puede estar vacío")
			}
			t.Body = text
		}
		if body.Pinned != nil {
			if !id.IsAdmin() {
				return apperr.Forbidden("Solo un administrador puede fijar temas")
			}
			t.Pinned = *body.Pinned
		}

		if err := database.DB.Model(t).Updates(map[string]any{
			"title":  t.Title,
			"body":   t.Body,
			"pinned": t.Pinned,
		}).Error; err != nil {
			return apperr.Internal("No se pudo actualizar el tema", err)
		}

		audit.Record(id, audit.LogOptions{
			FilialID:    t.FilialID,
			EntityType:  audit.EntityForumTopic,
			EntityID:    t.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Tema actualizado: %s", t.Title),
			Before:      before,
			After:       t,
		})

		return response.OK(c, t)
	}
}

// DELETE /api/forum/topics/:id removes the topic and its replies.
func DeleteTopicHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, t, err := topicFromPath(c)
		if err != nil {
			return err
		}
		if err := ensureModify(id, t.AuthorID, t.CreatedAt); err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("topic_id = ?", t.ID).Delete(&models.ForumReply{}).Error; err != nil {
				return err
			}
			return tx.Delete(t).Error
		})
		if err != nil {
			return apperr.Internal("No se pudo eliminar el tema", err)
		}

		audit.Record(id, audit.LogOptions{
			FilialID:    t.FilialID,
			EntityType:  audit.EntityForumTopic,
			EntityID:    t.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Tema eliminado: %s", t.Title),
			Before:      t,
		})

		return response.Message(c, "Tema eliminado")
	}
}

func setClosed(closed bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, t, err := topicFromPath(c)
		if err != nil {
			return err
		}
		if !id.IsAdmin() {
			return apperr.Forbidden("Solo un administrador puede cerrar o reabrir temas")
		}

		if t.Closed != closed {
			if err := database.DB.Model(t).Update("closed", closed).Error; err != nil {
				return apperr.Internal("No se pudo actualizar el tema", err)
			}
			t.Closed = closed

			desc := "Tema reabierto: %s"
			if closed {
				desc = "Tema cerrado: %s"
			}
			audit.Record(id, audit.LogOptions{
				FilialID:    t.FilialID,
				EntityType:  audit.EntityForumTopic,
				EntityID:    t.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf(desc, t.Title),
			})
		}
		return response.OK(c, t)
	}
}

// POST /api/forum/topics/:id/close
func CloseTopicHandler() fiber.Handler {
	return setClosed(true)
}

// POST /api/forum/topics/:id/reopen
func ReopenTopicHandler() fiber.Handler {
	return setClosed(false)
}
