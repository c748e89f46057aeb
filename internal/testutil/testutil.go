// Package testutil wires an in-memory database and fixtures for handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"filiales-backend/internal/auth"
	"filiales-backend/internal/config"
	"filiales-backend/internal/database"
	"filiales-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const Password = "secreto-de-prueba"

// SetupDB points database.DB at a fresh in-memory SQLite database.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// una sola conexión: las consultas concurrentes se serializan sin perder la base en memoria
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		_ = sqlDB.Close()
	})
	return db
}

func Config() *config.Config {
	return &config.Config{
		Environment:        "test",
		LogLevel:           "disabled",
		JWTSecret:          "test-secret-test-secret-test-secret!",
		JWTTTL:             time.Hour,
		CORSOrigins:        "*",
		UploadPath:         "",
		UploadBaseURL:      "/uploads",
		UploadMaxSize:      1024 * 1024,
		GeoCacheTTL:        time.Minute,
		LoginRatePerSecond: 100,
		LoginRateBurst:     100,
	}
}

// Token signs a session token for u with the test secret.
func Token(t *testing.T, u *models.User) string {
	t.Helper()
	cfg := Config()
	tok, err := auth.GenerateToken(cfg.JWTSecret, cfg.JWTTTL, auth.IdentityOf(u))
	require.NoError(t, err)
	return tok
}

func CreateBranch(t *testing.T, name string) *models.Branch {
	t.Helper()
	b := &models.Branch{Name: name, Province: "Buenos Aires", Locality: name, Active: true}
	require.NoError(t, database.DB.Create(b).Error)
	return b
}

func CreateUser(t *testing.T, role models.UserRole, filialID *uint) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		Name:         fmt.Sprintf("%s %s", role, uuid.NewString()[:8]),
		Email:        uuid.NewString() + "@filiales.test",
		PasswordHash: string(hash),
		Role:         role,
		FilialID:     filialID,
		Active:       true,
	}
	require.NoError(t, database.DB.Create(u).Error)
	return u
}

func CreateMember(t *testing.T, filialID uint, first, last string) *models.Member {
	t.Helper()
	m := &models.Member{
		FilialID:  filialID,
		FirstName: first,
		LastName:  last,
		Document:  uuid.NewString()[:12],
		Active:    true,
	}
	require.NoError(t, database.DB.Create(m).Error)
	return m
}

// Response is a decoded envelope.
type Response struct {
	Status  int            `json:"-"`
	Success bool           `json:"success"`
	Data    any            `json:"data"`
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Raw     map[string]any `json:"-"`
}

// DataMap returns data as an object.
func (r Response) DataMap(t *testing.T) map[string]any {
	t.Helper()
	m, ok := r.Data.(map[string]any)
	require.True(t, ok, "data is %T", r.Data)
	return m
}

// Items returns data.items of a paginated response.
func (r Response) Items(t *testing.T) []map[string]any {
	t.Helper()
	raw, ok := r.DataMap(t)["items"].([]any)
	require.True(t, ok, "items missing")
	out := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		out = append(out, it.(map[string]any))
	}
	return out
}

// Do sends a request through app and decodes the envelope.
func Do(t *testing.T, app *fiber.App, method, path, token string, body any) Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := Response{Status: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
		_ = json.Unmarshal(raw, &out.Raw)
	}
	return out
}
