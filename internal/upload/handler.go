// Package upload stores images (branch logos, member photos, action pictures)
// on local disk.
package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"filiales-backend/internal/apperr"
	"filiales-backend/internal/config"
	"filiales-backend/internal/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const imagesDir = "images"

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type Result struct {
	URL         string `json:"url"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// readImage reads at most limit bytes and sniffs the content type from the
// data itself, ignoring what the client declared.
func readImage(header *multipart.FileHeader, limit int64) ([]byte, string, error) {
	if header.Size > limit {
		return nil, "", apperr.BadRequest(fmt.Sprintf("La imagen supera el máximo de %d bytes", limit))
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", apperr.BadRequest("No se pudo leer el archivo")
	}
	defer file.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(file, limit+1)); err != nil {
		return nil, "", apperr.BadRequest("No se pudo leer el archivo")
	}
	if int64(buf.Len()) > limit {
		return nil, "", apperr.BadRequest(fmt.Sprintf("La imagen supera el máximo de %d bytes", limit))
	}
	if buf.Len() == 0 {
		return nil, "", apperr.BadRequest("El archivo está vacío")
	}

	contentType := http.DetectContentType(buf.Bytes())
	if _, ok := allowedTypes[contentType]; !ok {
		return nil, "", apperr.BadRequest("Solo se aceptan imágenes JPG, PNG, WEBP o GIF")
	}
	return buf.Bytes(), contentType, nil
}

// POST /api/uploads/images (multipart, campo "file")
func ImageHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header, err := c.FormFile("file")
		if err != nil {
			return apperr.BadRequest("Falta el archivo (campo \"file\")")
		}

		data, contentType, err := readImage(header, cfg.UploadMaxSize)
		if err != nil {
			return err
		}

		dir := filepath.Join(cfg.UploadPath, imagesDir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperr.Internal("No se pudo preparar el directorio de imágenes", err)
		}

		name := uuid.NewString() + allowedTypes[contentType]
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return apperr.Internal("No se pudo guardar la imagen", err)
		}

		log.Info().Str("file", name).Int("size", len(data)).Msg("imagen subida")

		return response.Created(c, Result{
			URL:         strings.TrimRight(cfg.UploadBaseURL, "/") + "/" + imagesDir + "/" + name,
			FileName:    name,
			ContentType: contentType,
			Size:        len(data),
		})
	}
}
