package dashboard_test

import (
	"testing"
	"time"

	"filiales-backend/internal/database"
	"filiales-backend/internal/models"
	"filiales-backend/internal/server/servertest"
	"filiales-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryIsScopedToBranch(t *testing.T) {
	app := servertest.New(t)
	own := testutil.CreateBranch(t, "Rosario")
	other := testutil.CreateBranch(t, "Córdoba")
	user := testutil.CreateUser(t, models.RoleBranchUser, &own.ID)
	admin := testutil.CreateUser(t, models.RoleSuperAdmin, nil)

	testutil.CreateMember(t, own.ID, "Ana", "Pérez")
	inactive := testutil.CreateMember(t, own.ID, "Luis", "Gómez")
	require.NoError(t, database.DB.Model(inactive).Update("active", false).Error)
	testutil.CreateMember(t, other.ID, "Otro", "Socio")

	now := time.Now()
	require.NoError(t, database.DB.Create(&[]models.Action{
		{FilialID: own.ID, Title: "Peña", Date: now, Participants: 30},
		{FilialID: other.ID, Title: "Rifa", Date: now, Participants: 4},
	}).Error)
	require.NoError(t, database.DB.Create(&[]models.ForumTopic{
		{FilialID: &own.ID, AuthorID: user.ID, Title: "Viaje", Body: "¿Quién se anota?"},
		{FilialID: &other.ID, AuthorID: admin.ID, Title: "Cuotas", Body: "Novedades"},
		{AuthorID: admin.ID, Title: "Asamblea general", Body: "Convocatoria"},
	}).Error)
	require.NoError(t, database.DB.Create(&models.Notification{
		UserID: user.ID, Kind: models.NotificationTicketApproved, Title: "Aprobada",
	}).Error)

	resp := testutil.Do(t, app, "GET", "/api/dashboard/summary", testutil.Token(t, user), nil)
	require.Equal(t, 200, resp.Status, resp.Message)
	data := resp.DataMap(t)
	assert.Equal(t, float64(own.ID), data["filial_id"])
	assert.Equal(t, float64(1), data["branches"])
	assert.Equal(t, float64(1), data["active_members"])
	assert.Equal(t, float64(1), data["inactive_members"])
	assert.Equal(t, float64(1), data["actions_this_month"])
	assert.Equal(t, float64(2), data["open_topics"])
	assert.Equal(t, float64(1), data["unread_notifications"])

	resp = testutil.Do(t, app, "GET", "/api/dashboard/summary", testutil.Token(t, admin), nil)
	require.Equal(t, 200, resp.Status)
	data = resp.DataMap(t)
	assert.Nil(t, data["filial_id"])
	assert.Equal(t, float64(2), data["branches"])
	assert.Equal(t, float64(2), data["active_members"])
	assert.Equal(t, float64(2), data["actions_this_month"])
	assert.Equal(t, float64(3), data["open_topics"])
	assert.Equal(t, float64(0), data["unread_notifications"])
}

func TestActionsChart(t *testing.T) {
	app := servertest.New(t)
	branch := testutil.CreateBranch(t, "Rosario")
	user := testutil.CreateUser(t, models.RoleBranchUser, &branch.ID)
	require.NoError(t, database.DB.Create(&[]models.Action{
		{FilialID: branch.ID, Title: "Hoy", Date: time.Now(), Participants: 12},
		{FilialID: branch.ID, Title: "Hace mucho", Date: time.Now().AddDate(-2, 0, 0), Participants: 50},
	}).Error)
	token := testutil.Token(t, user)

	resp := testutil.Do(t, app, "GET", "/api/dashboard/actions-chart", token, nil)
	require.Equal(t, 200, resp.Status, resp.Message)
	data := resp.DataMap(t)
	assert.Equal(t, "daily", data["period"])
	points := data["points"].([]any)
	require.Len(t, points, 7)
	last := points[6].(map[string]any)
	assert.Equal(t, float64(1), last["actions"])
	assert.Equal(t, float64(12), last["participants"])
	assert.Equal(t, map[string]any{"actions": float64(1), "participants": float64(12)}, data["totals"])

	resp = testutil.Do(t, app, "GET", "/api/dashboard/actions-chart?period=monthly&count=3", token, nil)
	require.Equal(t, 200, resp.Status)
	assert.Len(t, resp.DataMap(t)["points"].([]any), 3)

	resp = testutil.Do(t, app, "GET", "/api/dashboard/actions-chart?count=1000", token, nil)
	assert.Equal(t, 400, resp.Status)
}
