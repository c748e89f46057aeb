// Package dashboard aggregates per-branch figures for the home screen.
package dashboard

import (
	"time"

	"filiales-backend/internal/apperr"
	"filiales-backend/internal/auth"
	"filiales-backend/internal/database"
	"filiales-backend/internal/models"
	"filiales-backend/internal/response"
	"filiales-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

type Summary struct {
	FilialID              *uint `json:"filialId"`
	Branches              int64 `json:"branches"`
	ActiveMembers         int64 `json:"activeMembers"`
	InactiveMembers       int64 `json:"inactiveMembers"`
	ActionsThisMonth      int64 `json:"actionsThisMonth"`
	PendingTicketRequests int64 `json:"pendingTicketRequests"`
	OpenTopics            int64 `json:"openTopics"`
	UnreadNotifications   int64 `json:"unreadNotifications"`
}

// GET /api/dashboard/summary?filialId=
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, decision, err := scope.FromRequest(c)
		if err != nil {
			return err
		}

		s, err := buildSummary(c, id, decision)
		if err != nil {
			return apperr.Internal("No se pudo calcular el resumen", err)
		}
		return response.OK(c, s)
	}
}

func buildSummary(c *fiber.Ctx, id auth.Identity, d scope.Decision) (Summary, error) {
	s := Summary{FilialID: d.EffectiveFilialID}
	db := database.DB.WithContext(c.UserContext())

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	g := new(errgroup.Group)
	g.Go(func() error {
		q := d.Apply(db.Model(&models.Branch{}), "id")
		return q.Where("active = ?", true).Count(&s.Branches).Error
	})
	g.Go(func() error {
		q := d.Apply(db.Model(&models.Member{}), "filial_id")
		return q.Where("active = ?", true).Count(&s.ActiveMembers).Error
	})
	g.Go(func() error {
		q := d.Apply(db.Model(&models.Member{}), "filial_id")
		return q.Where("active = ?", false).Count(&s.InactiveMembers).Error
	})
	g.Go(func() error {
		q := d.Apply(db.Model(&models.Action{}), "filial_id")
		return q.Where("date >= ? AND date < ?", monthStart, monthStart.AddDate(0, 1, 0)).
			Count(&s.ActionsThisMonth).Error
	})
	g.Go(func() error {
		q := d.Apply(db.Model(&models.TicketRequest{}), "filial_id")
		return q.Where("status = ?", models.TicketPending).Count(&s.PendingTicketRequests).Error
	})
	g.Go(func() error {
		q := db.Model(&models.ForumTopic{}).Where("closed = ?", false)
		if d.EffectiveFilialID != nil {
			q = q.Where("(filial_id = ? OR filial_id IS NULL)", *d.EffectiveFilialID)
		}
		return q.Count(&s.OpenTopics).Error
	})
	g.Go(func() error {
		return db.Model(&models.Notification{}).
			Where("user_id = ? AND read_at IS NULL", id.UserID).
			Count(&s.UnreadNotifications).Error
	})

	return s, g.Wait()
}
