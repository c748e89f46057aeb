package notification_test

import (
	"fmt"
	"testing"

	"filiales-backend/internal/database"
	"filiales-backend/internal/models"
	"filiales-backend/internal/notification"
	"filiales-backend/internal/server/servertest"
	"filiales-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInbox(t *testing.T) {
	app := servertest.New(t)
	branch := testutil.CreateBranch(t, "Rosario")
	user := testutil.CreateUser(t, models.RoleBranchUser, &branch.ID)
	other := testutil.CreateUser(t, models.RoleBranchUser, &branch.ID)
	token := testutil.Token(t, user)

	for i := 0; i < 3; i++ {
		require.NoError(t, notification.Create(database.DB, user.ID, models.NotificationForumReply,
			fmt.Sprintf("Aviso %d", i), "", "/forum/topics/1"))
	}
	require.NoError(t, notification.Create(database.DB, other.ID, models.NotificationForumReply, "Ajeno", "", ""))

	resp := testutil.Do(t, app, "GET", "/api/notifications", token, nil)
	require.Equal(t, 200, resp.Status)
	items := resp.Items(t)
	require.Len(t, items, 3)
	// más recientes primero
	assert.Equal(t, "Aviso 2", items[0]["title"])

	firstID := uint(items[0]["id"].(float64))
	resp = testutil.Do(t, app, "POST", fmt.Sprintf("/api/notifications/%d/read", firstID), token, nil)
	require.Equal(t, 200, resp.Status)
	assert.NotNil(t, resp.DataMap(t)["read_at"])

	resp = testutil.Do(t, app, "GET", "/api/notifications?unread=true", token, nil)
	assert.Len(t, resp.Items(t), 2)
	resp = testutil.Do(t, app, "GET", "/api/notifications?unread=false", token, nil)
	assert.Len(t, resp.Items(t), 1)

	resp = testutil.Do(t, app, "POST", "/api/notifications/read-all", token, nil)
	require.Equal(t, 200, resp.Status)
	assert.Equal(t, float64(2), resp.DataMap(t)["updated"])

	resp = testutil.Do(t, app, "GET", "/api/notifications/unread-count", token, nil)
	assert.Equal(t, float64(0), resp.DataMap(t)["count"])

	// la notificación ajena no existe para este usuario
	var foreign models.Notification
	require.NoError(t, database.DB.Where("user_id = ?", other.ID).First(&foreign).Error)
	resp = testutil.Do(t, app, "POST", fmt.Sprintf("/api/notifications/%d/read", foreign.ID), token, nil)
	assert.Equal(t, 404, resp.Status)
}
