// Package servertest builds a fully routed application over the in-memory
// test database.
package servertest

import (
	"testing"

	"filiales-backend/internal/logging"
	"filiales-backend/internal/server"
	"filiales-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
)

// New sets up a fresh database and returns the application with every route
// registered. Uploads go to a temporary directory.
func New(t *testing.T) *fiber.App {
	t.Helper()
	testutil.SetupDB(t)

	cfg := testutil.Config()
	cfg.UploadPath = t.TempDir()
	logging.Setup(cfg)
	return server.New(cfg)
}
