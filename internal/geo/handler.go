package geo

import (
	"strconv"

	"filiales-backend/internal/apperr"
	"filiales-backend/internal/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type ListResponse struct {
	Items    []Place `json:"items"`
	Fallback bool    `json:"fallback"`
}

// GET /api/geo/provinces
func ProvincesHandler(client *Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		places, fallback := client.Provinces(c.UserContext())
		return response.OK(c, ListResponse{Items: places, Fallback: fallback})
	}
}

// GET /api/geo/provinces/:id/localities
//
// If the upstream is down there is no local copy: the list comes back empty
// with fallback set so the form can fall back to free text.
func LocalitiesHandler(client *Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provinceID := c.Params("id")
		if _, err := strconv.Atoi(provinceID); err != nil || len(provinceID) > 3 {
			return apperr.BadRequest("Provincia inválida")
		}

		places, err := client.Localities(c.UserContext(), provinceID)
		if err != nil {
			log.Warn().Err(err).Str("province", provinceID).Msg("geo: localidades no disponibles")
			return response.OK(c, ListResponse{Items: []Place{}, Fallback: true})
		}
		return response.OK(c, ListResponse{Items: places})
	}
}
