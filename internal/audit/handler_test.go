package audit_test

import (
	"fmt"
	"testing"
	"time"

	"filiales-backend/internal/async"
	"filiales-backend/internal/models"
	"filiales-backend/internal/server/servertest"
	"filiales-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogSnapshotsUseWireKeys(t *testing.T) {
	app := servertest.New(t)
	branch := testutil.CreateBranch(t, "Rosario")
	other := testutil.CreateBranch(t, "Córdoba")
	user := testutil.CreateUser(t, models.RoleBranchUser, &branch.ID)
	token := testutil.Token(t, user)
	m := testutil.CreateMember(t, branch.ID, "Ana", "Pérez")

	resp := testutil.Do(t, app, "PUT", fmt.Sprintf("/api/members/%d", m.ID), token,
		map[string]any{"first_name": "Ana María"})
	require.Equal(t, 200, resp.Status, resp.Message)
	require.True(t, async.Wait(2*time.Second))

	resp = testutil.Do(t, app, "GET", "/api/audit-logs?entity_type=member&action=update", token, nil)
	require.Equal(t, 200, resp.Status, resp.Message)
	items := resp.Items(t)
	require.Len(t, items, 1)

	before, ok := items[0]["before_data"].(map[string]any)
	require.True(t, ok, "before_data es %T", items[0]["before_data"])
	after, ok := items[0]["after_data"].(map[string]any)
	require.True(t, ok, "after_data es %T", items[0]["after_data"])

	assert.Equal(t, "Ana", before["first_name"])
	assert.Equal(t, "Ana María", after["first_name"])
	assert.Equal(t, float64(branch.ID), after["filial_id"])
	assert.NotContains(t, before, "firstName")
	assert.NotContains(t, after, "filialId")

	// otra filial no ve el registro
	outsider := testutil.CreateUser(t, models.RoleBranchUser, &other.ID)
	resp = testutil.Do(t, app, "GET", "/api/audit-logs", testutil.Token(t, outsider), nil)
	require.Equal(t, 200, resp.Status)
	assert.Empty(t, resp.Items(t))
}
