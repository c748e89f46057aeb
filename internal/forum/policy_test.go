package forum

import (
	"testing"
	"time"

	"filiales-backend/internal/auth"
	"filiales-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanModify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fid := uint(7)
	author := auth.Identity{UserID: 10, Role: models.RoleBranchUser, FilialID: &fid}
	other := auth.Identity{UserID: 11, Role: models.RoleBranchUser, FilialID: &fid}
	coordinator := auth.Identity{UserID: 12, Role: models.RoleCoordinator, FilialID: &fid}
	admin := auth.Identity{UserID: 1, Role: models.RoleSuperAdmin}

	cases := []struct {
		name string
		id   auth.Identity
		age  time.Duration
		want bool
	}{
		{"autor a los 14 minutos", author, 14 * time.Minute, true},
		{"autor justo en el límite", author, 15 * time.Minute, true},
		{"autor a los 16 minutos", author, 16 * time.Minute, false},
		{"otro usuario", other, time.Minute, false},
		{"coordinador", coordinator, 48 * time.Hour, true},
		{"administrador", admin, 48 * time.Hour, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, canModify(tc.id, author.UserID, now.Add(-tc.age), now))
		})
	}
}

func TestCanRead(t *testing.T) {
	own, foreign := uint(7), uint(8)
	user := auth.Identity{UserID: 10, Role: models.RoleBranchUser, FilialID: &own}

	assert.True(t, canRead(user, nil))
	assert.True(t, canRead(user, &own))
	assert.False(t, canRead(user, &foreign))
	assert.True(t, canRead(auth.Identity{UserID: 1, Role: models.RoleSuperAdmin}, &foreign))
}
