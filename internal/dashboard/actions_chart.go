package dashboard

import (
	"strconv"
	"time"

	"filiales-backend/internal/apperr"
	"filiales-backend/internal/database"
	"filiales-backend/internal/models"
	"filiales-backend/internal/response"
	"filiales-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
)

type ChartPoint struct {
	Label        string `json:"label"` // fecha / inicio de semana / inicio de mes
	Actions      int    `json:"actions"`
	Participants int    `json:"participants"`
}

type ChartTotals struct {
	Actions      int `json:"actions"`
	Participants int `json:"participants"`
}

type ActionsChartResponse struct {
	FilialID *uint        `json:"filialId"`
	Period   string       `json:"period"` // daily | weekly | monthly
	From     string       `json:"from"`
	To       string       `json:"to"`
	Points   []ChartPoint `json:"points"`
	Totals   ChartTotals  `json:"totals"`
}

const maxBuckets = 366

// bucketStart truncates t to the start of its period.
func bucketStart(period string, t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	switch period {
	case "weekly":
		// semanas de lunes a domingo
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case "monthly":
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	}
	return day
}

func nextBucket(period string, t time.Time) time.Time {
	switch period {
	case "weekly":
		return t.AddDate(0, 0, 7)
	case "monthly":
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

// chartRange returns the first bucket and the exclusive end for count buckets
// ending with the one containing now.
func chartRange(period string, count int, now time.Time) (time.Time, time.Time) {
	last := bucketStart(period, now)
	end := nextBucket(period, last)
	var start time.Time
	switch period {
	case "weekly":
		start = last.AddDate(0, 0, -7*(count-1))
	case "monthly":
		start = last.AddDate(0, -(count - 1), 0)
	default:
		start = last.AddDate(0, 0, -(count - 1))
	}
	return start, end
}

// BuildChart groups actions into zero-filled buckets between start and end.
func BuildChart(period string, start, end time.Time, actions []models.Action) ([]ChartPoint, ChartTotals) {
	index := make(map[time.Time]int)
	points := make([]ChartPoint, 0)
	for b := start; b.Before(end); b = nextBucket(period, b) {
		index[b] = len(points)
		points = append(points, ChartPoint{Label: b.Format("2006-01-02")})
	}

	var totals ChartTotals
	for _, a := range actions {
		i, ok := index[bucketStart(period, a.Date.In(start.Location()))]
		if !ok {
			continue
		}
		points[i].Actions++
		points[i].Participants += a.Participants
		totals.Actions++
		totals.Participants += a.Participants
	}
	return points, totals
}

// GET /api/dashboard/actions-chart?period=monthly&count=6&filialId=1
func ActionsChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, decision, err := scope.FromRequest(c)
		if err != nil {
			return err
		}

		period := c.Query("period", "daily")
		var count int
		switch period {
		case "weekly":
			count = 8
		case "monthly":
			count = 12
		default:
			period = "daily"
			count = 7
		}
		if raw := c.Query("count"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > maxBuckets {
				return apperr.BadRequest("count inválido")
			}
			count = n
		}

		start, end := chartRange(period, count, time.Now())

		var actions []models.Action
		dbq := decision.Apply(database.DB.WithContext(c.UserContext()).Model(&models.Action{}), "filial_id")
		if err := dbq.Select("id", "date", "participants").
			Where("date >= ? AND date < ?", start, end).
			Find(&actions).Error; err != nil {
			return apperr.Internal("No se pudieron cargar las acciones", err)
		}

		points, totals := BuildChart(period, start, end, actions)
		return response.OK(c, ActionsChartResponse{
			FilialID: decision.EffectiveFilialID,
			Period:   period,
			From:     start.Format("2006-01-02"),
			To:       end.AddDate(0, 0, -1).Format("2006-01-02"),
			Points:   points,
			Totals:   totals,
		})
	}
}
