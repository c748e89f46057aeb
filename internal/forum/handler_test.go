package forum_test

import (
	"fmt"
	"testing"

	"filiales-backend/internal/database"
	"filiales-backend/internal/models"
	"filiales-backend/internal/server/servertest"
	"filiales-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTopic(t *testing.T, app *fiber.App, token string, body map[string]any) uint {
	t.Helper()
	resp := testutil.Do(t, app, "POST", "/api/forum/topics", token, body)
	require.Equal(t, 201, resp.Status, resp.Message)
	return uint(resp.DataMap(t)["id"].(float64))
}

func TestTopicVisibility(t *testing.T) {
	app := servertest.New(t)
	b1 := testutil.CreateBranch(t, "Rosario")
	b2 := testutil.CreateBranch(t, "Córdoba")
	admin := testutil.CreateUser(t, models.RoleSuperAdmin, nil)
	u1 := testutil.CreateUser(t, models.RoleBranchUser, &b1.ID)
	u2 := testutil.CreateUser(t, models.RoleBranchUser, &b2.ID)

	general := createTopic(t, app, testutil.Token(t, admin), map[string]any{"title": "Asamblea anual", "body": "Orden del día", "pinned": true})
	createTopic(t, app, testutil.Token(t, u1), map[string]any{"title": "Rosario", "body": "Peña del sábado"})
	foreign := createTopic(t, app, testutil.Token(t, u2), map[string]any{"title": "Córdoba", "body": "Colecta"})

	resp := testutil.Do(t, app, "GET", "/api/forum/topics", testutil.Token(t, u1), nil)
	require.Equal(t, 200, resp.Status)
	items := resp.Items(t)
	require.Len(t, items, 2)
	// fijados primero
	assert.Equal(t, float64(general), items[0]["id"])
	assert.Nil(t, items[0]["filial_id"])

	resp = testutil.Do(t, app, "GET", fmt.Sprintf("/api/forum/topics/%d", foreign), testutil.Token(t, u1), nil)
	assert.Equal(t, 403, resp.Status)

	resp = testutil.Do(t, app, "GET", fmt.Sprintf("/api/forum/topics/%d", general), testutil.Token(t, u2), nil)
	assert.Equal(t, 200, resp.Status)

	resp = testutil.Do(t, app, "GET", "/api/forum/topics", testutil.Token(t, admin), nil)
	assert.Len(t, resp.Items(t), 3)
}

func TestReplyNotifiesAuthorAndCounts(t *testing.T) {
	app := servertest.New(t)
	branch := testutil.CreateBranch(t, "Rosario")
	author := testutil.CreateUser(t, models.RoleBranchUser, &branch.ID)
	replier := testutil.CreateUser(t, models.RoleBranchUser, &branch.ID)

	topicID := createTopic(t, app, testutil.Token(t, author), map[string]any{"title": "Peña", "body": "¿Quién lleva qué?"})

	resp := testutil.Do(t, app, "POST", fmt.Sprintf("/api/forum/topics/%d/replies", topicID), testutil.Token(t, replier),
		map[string]any{"body": "Llevo empanadas"})
	require.Equal(t, 201, resp.Status)

	resp = testutil.Do(t, app, "GET", fmt.Sprintf("/api/forum/topics/%d", topicID), testutil.Token(t, author), nil)
	require.Equal(t, 200, resp.Status)
	data := resp.DataMap(t)
	assert.Equal(t, float64(1), data["reply_count"])
	assert.NotNil(t, data["last_reply_at"])
	assert.Len(t, data["replies"].([]any), 1)

	resp = testutil.Do(t, app, "GET", "/api/notifications/unread-count", testutil.Token(t, author), nil)
	require.Equal(t, 200, resp.Status)
	assert.Equal(t, float64(1), resp.DataMap(t)["count"])

	var r models.ForumReply
	require.NoError(t, database.DB.Where("topic_id = ?", topicID).First(&r).Error)
	replyID := r.ID

	resp = testutil.Do(t, app, "DELETE", fmt.Sprintf("/api/forum/replies/%d", replyID), testutil.Token(t, author), nil)
	assert.Equal(t, 403, resp.Status)
	resp = testutil.Do(t, app, "DELETE", fmt.Sprintf("/api/forum/replies/%d", replyID), testutil.Token(t, replier), nil)
	require.Equal(t, 200, resp.Status)

	var topic models.ForumTopic
	require.NoError(t, database.DB.First(&topic, topicID).Error)
	assert.Equal(t, 0, topic.ReplyCount)
}

func TestClosedTopicBlocksRepliesOnly(t *testing.T) {
	app := servertest.New(t)
	branch := testutil.CreateBranch(t, "Rosario")
	user := testutil.CreateUser(t, models.RoleBranchUser, &branch.ID)
	coordinator := testutil.CreateUser(t, models.RoleCoordinator, &branch.ID)
	token := testutil.Token(t, user)

	topicID := createTopic(t, app, token, map[string]any{"title": "Peña", "body": "Detalles"})
	resp := testutil.Do(t, app, "POST", fmt.Sprintf("/api/forum/topics/%d/replies", topicID), token, map[string]any{"body": "Primera"})
	require.Equal(t, 201, resp.Status)
	replyID := uint(resp.DataMap(t)["id"].(float64))

	resp = testutil.Do(t, app, "POST", fmt.Sprintf("/api/forum/topics/%d/close", topicID), token, nil)
	assert.Equal(t, 403, resp.Status)
	resp = testutil.Do(t, app, "POST", fmt.Sprintf("/api/forum/topics/%d/close", topicID), testutil.Token(t, coordinator), nil)
	require.Equal(t, 200, resp.Status)
	assert.Equal(t, true, resp.DataMap(t)["closed"])

	resp = testutil.Do(t, app, "POST", fmt.Sprintf("/api/forum/topics/%d/replies", topicID), token, map[string]any{"body": "Segunda"})
	assert.Equal(t, 403, resp.Status)

	// editar lo existente sigue permitido
	resp = testutil.Do(t, app, "PUT", fmt.Sprintf("/api/forum/replies/%d", replyID), token, map[string]any{"body": "Primera, editada"})
	assert.Equal(t, 200, resp.Status)
	resp = testutil.Do(t, app, "PUT", fmt.Sprintf("/api/forum/topics/%d", topicID), token, map[string]any{"title": "Peña (cerrado)"})
	assert.Equal(t, 200, resp.Status)

	resp = testutil.Do(t, app, "POST", fmt.Sprintf("/api/forum/topics/%d/reopen", topicID), testutil.Token(t, coordinator), nil)
	require.Equal(t, 200, resp.Status)
	resp = testutil.Do(t, app, "POST", fmt.Sprintf("/api/forum/topics/%d/replies", topicID), token, map[string]any{"body": "Segunda"})
	assert.Equal(t, 201, resp.Status)
}

func TestDeleteTopicRemovesReplies(t *testing.T) {
	app := servertest.New(t)
	branch := testutil.CreateBranch(t, "Rosario")
	user := testutil.CreateUser(t, models.RoleBranchUser, &branch.ID)
	token := testutil.Token(t, user)

	topicID := createTopic(t, app, token, map[string]any{"title": "Peña", "body": "Detalles"})
	resp := testutil.Do(t, app, "POST", fmt.Sprintf("/api/forum/topics/%d/replies", topicID), token, map[string]any{"body": "Hola"})
	require.Equal(t, 201, resp.Status)

	resp = testutil.Do(t, app, "DELETE", fmt.Sprintf("/api/forum/topics/%d", topicID), token, nil)
	require.Equal(t, 200, resp.Status)

	var count int64
	require.NoError(t, database.DB.Model(&models.ForumReply{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestBranchUserCannotPin(t *testing.T) {
	app := servertest.New(t)
	branch := testutil.CreateBranch(t, "Rosario")
	user := testutil.CreateUser(t, models.RoleBranchUser, &branch.ID)
	token := testutil.Token(t, user)

	topicID := createTopic(t, app, token, map[string]any{"title": "Peña", "body": "Detalles", "pinned": true})
	var topic models.ForumTopic
	require.NoError(t, database.DB.First(&topic, topicID).Error)
	assert.False(t, topic.Pinned)

	resp := testutil.Do(t, app, "PUT", fmt.Sprintf("/api/forum/topics/%d", topicID), token, map[string]any{"pinned": true})
	assert.Equal(t, 403, resp.Status)
}
