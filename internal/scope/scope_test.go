package scope

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"filiales-backend/internal/apperr"
	"filiales-backend/internal/auth"
	"filiales-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v uint) *uint { return &v }

var (
	globalAdmin = auth.Identity{UserID: 1, Role: models.RoleSuperAdmin}
	branchUser  = auth.Identity{UserID: 2, Role: models.RoleBranchUser, FilialID: ptr(7)}
	coordinator = auth.Identity{UserID: 3, Role: models.RoleCoordinator, FilialID: ptr(4)}
	unassigned  = auth.Identity{UserID: 4, Role: models.RoleCoordinator}
)

func TestResolveNonAdminIsPinnedToOwnBranch(t *testing.T) {
	requests := []string{"", "7", "99", "abc", "-1", "0", " 12 ", "7.5"}
	for _, id := range []auth.Identity{branchUser, coordinator} {
		for _, req := range requests {
			d, err := Resolve(id, req)
			require.NoError(t, err, "requested %q", req)
			assert.False(t, d.IsGlobalAdmin)
			require.NotNil(t, d.EffectiveFilialID)
			assert.Equal(t, *id.FilialID, *d.EffectiveFilialID, "requested %q", req)
		}
	}
}

func TestResolveNonAdminWithoutBranch(t *testing.T) {
	_, err := Resolve(unassigned, "3")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = Resolve(auth.Identity{UserID: 9, Role: models.RoleBranchUser}, "")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestResolveGlobalAdmin(t *testing.T) {
	d, err := Resolve(globalAdmin, "")
	require.NoError(t, err)
	assert.True(t, d.IsGlobalAdmin)
	assert.Nil(t, d.EffectiveFilialID)
	assert.True(t, d.Unrestricted())

	d, err = Resolve(globalAdmin, "5")
	require.NoError(t, err)
	require.NotNil(t, d.EffectiveFilialID)
	assert.Equal(t, uint(5), *d.EffectiveFilialID)

	for _, bad := range []string{"abc", "5x", "-3", "0", "1.5"} {
		_, err = Resolve(globalAdmin, bad)
		assert.True(t, apperr.Is(err, apperr.KindBadRequest), "requested %q", bad)
	}
}

func TestResolveWrite(t *testing.T) {
	fid, err := ResolveWrite(branchUser, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(7), fid)

	fid, err = ResolveWrite(branchUser, ptr(7))
	require.NoError(t, err)
	assert.Equal(t, uint(7), fid)

	_, err = ResolveWrite(branchUser, ptr(12))
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = ResolveWrite(unassigned, nil)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = ResolveWrite(globalAdmin, nil)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	fid, err = ResolveWrite(globalAdmin, ptr(12))
	require.NoError(t, err)
	assert.Equal(t, uint(12), fid)
}

func TestCanAccessBranch(t *testing.T) {
	ids := []auth.Identity{globalAdmin, branchUser, coordinator, unassigned}
	for _, id := range ids {
		for b := uint(1); b <= 15; b++ {
			want := id.Role == models.RoleSuperAdmin || (id.FilialID != nil && b == *id.FilialID)
			assert.Equal(t, want, CanAccessBranch(id, b), fmt.Sprintf("user %d branch %d", id.UserID, b))
		}
	}
	assert.NoError(t, Ensure(branchUser, 7))
	assert.True(t, apperr.Is(Ensure(branchUser, 12), apperr.KindForbidden))
}

func TestFromRequest(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperr.StatusOf(err))
		},
	})
	withIdentity := func(id *auth.Identity) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if id != nil {
				c.Locals(auth.CtxIdentityKey, *id)
			}
			return c.Next()
		}
	}
	handler := func(c *fiber.Ctx) error {
		_, d, err := FromRequest(c)
		if err != nil {
			return err
		}
		if d.EffectiveFilialID == nil {
			return c.SendString("all")
		}
		return c.SendString(fmt.Sprint(*d.EffectiveFilialID))
	}
	app.Get("/branch", withIdentity(&branchUser), handler)
	app.Get("/admin", withIdentity(&globalAdmin), handler)
	app.Get("/anon", withIdentity(nil), handler)

	check := func(path string, status int, body string) {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode, path)
		if body != "" {
			buf := make([]byte, 16)
			n, _ := resp.Body.Read(buf)
			assert.Equal(t, body, string(buf[:n]), path)
		}
	}
	check("/branch?filialId=99", 200, "7")
	check("/admin", 200, "all")
	check("/admin?filialId=5", 200, "5")
	check("/admin?filialId=abc", 400, "")
	check("/anon", 401, "")
}

func TestPathID(t *testing.T) {
	_, ok := ParseID("12")
	assert.True(t, ok)
	_, ok = ParseID("x12")
	assert.False(t, ok)
	_, ok = ParseID("0")
	assert.False(t, ok)
}
