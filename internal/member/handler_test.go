package member_test

import (
	"bytes"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"filiales-backend/internal/async"
	"filiales-backend/internal/database"
	"filiales-backend/internal/models"
	"filiales-backend/internal/server/servertest"
	"filiales-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCreateMember(t *testing.T) {
	app := servertest.New(t)
	own := testutil.CreateBranch(t, "Rosario")
	other := testutil.CreateBranch(t, "Córdoba")
	user := testutil.CreateUser(t, models.RoleBranchUser, &own.ID)
	token := testutil.Token(t, user)

	body := map[string]any{
		"first_name": "Ana",
		"last_name":  "Pérez",
		"document":   "30111222",
		"birth_date": "1990-05-14",
		"position":   "Secretaria",
	}
	resp := testutil.Do(t, app, "POST", "/api/members", token, body)
	require.Equal(t, 201, resp.Status)
	data := resp.DataMap(t)
	assert.Equal(t, float64(own.ID), data["filial_id"])
	assert.Equal(t, true, data["active"])

	// mismo documento en la misma filial
	resp = testutil.Do(t, app, "POST", "/api/members", token, body)
	assert.Equal(t, 400, resp.Status)

	// otra filial
	body["filial_id"] = other.ID
	body["document"] = "30111223"
	resp = testutil.Do(t, app, "POST", "/api/members", token, body)
	assert.Equal(t, 403, resp.Status)

	// fecha inválida
	delete(body, "filial_id")
	body["birth_date"] = "14/05/1990"
	resp = testutil.Do(t, app, "POST", "/api/members", token, body)
	assert.Equal(t, 400, resp.Status)

	require.True(t, async.Wait(2*time.Second))
	var logs []models.AuditLog
	require.NoError(t, database.DB.Where("entity_type = ?", "member").Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionCreate, logs[0].Action)
	assert.Equal(t, own.ID, *logs[0].FilialID)
}

func TestGlobalAdminMustNameBranch(t *testing.T) {
	app := servertest.New(t)
	branch := testutil.CreateBranch(t, "Rosario")
	admin := testutil.CreateUser(t, models.RoleSuperAdmin, nil)
	token := testutil.Token(t, admin)

	body := map[string]any{"first_name": "Ana", "last_name": "Pérez", "document": "1"}
	assert.Equal(t, 400, testutil.Do(t, app, "POST", "/api/members", token, body).Status)

	body["filial_id"] = branch.ID
	assert.Equal(t, 201, testutil.Do(t, app, "POST", "/api/members", token, body).Status)

	body["filial_id"] = 999
	body["document"] = "2"
	assert.Equal(t, 400, testutil.Do(t, app, "POST", "/api/members", token, body).Status)
}

func TestReassignMemberBranch(t *testing.T) {
	app := servertest.New(t)
	own := testutil.CreateBranch(t, "Rosario")
	other := testutil.CreateBranch(t, "Córdoba")
	m := testutil.CreateMember(t, own.ID, "Ana", "Pérez")
	path := fmt.Sprintf("/api/members/%d", m.ID)

	coordinator := testutil.CreateUser(t, models.RoleCoordinator, &own.ID)
	resp := testutil.Do(t, app, "PUT", path, testutil.Token(t, coordinator), map[string]any{"filial_id": other.ID})
	assert.Equal(t, 403, resp.Status)

	resp = testutil.Do(t, app, "PUT", path, testutil.Token(t, coordinator), map[string]any{"phone": "341-555-0101"})
	require.Equal(t, 200, resp.Status)
	assert.Equal(t, "341-555-0101", resp.DataMap(t)["phone"])

	admin := testutil.CreateUser(t, models.RoleSuperAdmin, nil)
	resp = testutil.Do(t, app, "PUT", path, testutil.Token(t, admin), map[string]any{"filial_id": other.ID})
	require.Equal(t, 200, resp.Status)
	assert.Equal(t, float64(other.ID), resp.DataMap(t)["filial_id"])

	// ya no pertenece a la filial del coordinador
	resp = testutil.Do(t, app, "GET", path, testutil.Token(t, coordinator), nil)
	assert.Equal(t, 403, resp.Status)
}

func TestMemberNotFoundAndBadID(t *testing.T) {
	app := servertest.New(t)
	admin := testutil.CreateUser(t, models.RoleSuperAdmin, nil)
	token := testutil.Token(t, admin)

	assert.Equal(t, 404, testutil.Do(t, app, "GET", "/api/members/999", token, nil).Status)
	assert.Equal(t, 400, testutil.Do(t, app, "GET", "/api/members/abc", token, nil).Status)
}

func TestDeactivateAndReactivateEndpoints(t *testing.T) {
	app := servertest.New(t)
	branch := testutil.CreateBranch(t, "Rosario")
	m := testutil.CreateMember(t, branch.ID, "Ana", "Pérez")
	user := testutil.CreateUser(t, models.RoleBranchUser, &branch.ID)
	token := testutil.Token(t, user)

	resp := testutil.Do(t, app, "POST", fmt.Sprintf("/api/members/%d/deactivate", m.ID), token, nil)
	require.Equal(t, 200, resp.Status)
	assert.Equal(t, false, resp.DataMap(t)["active"])

	resp = testutil.Do(t, app, "POST", fmt.Sprintf("/api/members/%d/deactivate", m.ID), token, nil)
	require.Equal(t, 200, resp.Status)

	resp = testutil.Do(t, app, "POST", fmt.Sprintf("/api/members/%d/reactivate", m.ID), token, nil)
	require.Equal(t, 200, resp.Status)
	assert.Equal(t, true, resp.DataMap(t)["active"])

	resp = testutil.Do(t, app, "GET", fmt.Sprintf("/api/members/%d/inactivity", m.ID), token, nil)
	require.Equal(t, 200, resp.Status)
	periods := resp.DataMap(t)["periods"].([]any)
	require.Len(t, periods, 1)
	assert.NotNil(t, periods[0].(map[string]any)["end"])
}

func TestDeleteMember(t *testing.T) {
	app := servertest.New(t)
	branch := testutil.CreateBranch(t, "Rosario")
	m := testutil.CreateMember(t, branch.ID, "Ana", "Pérez")
	require.NoError(t, database.DB.Create(&models.MemberInactivity{MemberID: m.ID, Start: time.Now()}).Error)
	admin := testutil.CreateUser(t, models.RoleSuperAdmin, nil)

	resp := testutil.Do(t, app, "DELETE", fmt.Sprintf("/api/members/%d", m.ID), testutil.Token(t, admin), nil)
	require.Equal(t, 200, resp.Status)
	assert.Equal(t, "Integrante eliminado", resp.Message)

	var count int64
	database.DB.Model(&models.Member{}).Count(&count)
	assert.Zero(t, count)
	database.DB.Model(&models.MemberInactivity{}).Count(&count)
	assert.Zero(t, count)
}

func TestSearchAndSort(t *testing.T) {
	app := servertest.New(t)
	branch := testutil.CreateBranch(t, "Rosario")
	testutil.CreateMember(t, branch.ID, "Ana", "Pérez")
	testutil.CreateMember(t, branch.ID, "Luis", "Gómez")
	testutil.CreateMember(t, branch.ID, "Analía", "Zárate")
	user := testutil.CreateUser(t, models.RoleBranchUser, &branch.ID)
	token := testutil.Token(t, user)

	resp := testutil.Do(t, app, "GET", "/api/members?search=ana&ordenar=nombre&orden=desc", token, nil)
	require.Equal(t, 200, resp.Status)
	items := resp.Items(t)
	require.Len(t, items, 2)
	assert.Equal(t, "Analía", items[0]["first_name"])

	// el comodín se busca literal
	resp = testutil.Do(t, app, "GET", "/api/members?search=%25", token, nil)
	assert.Len(t, resp.Items(t), 0)
}

func TestExportMembers(t *testing.T) {
	app := servertest.New(t)
	own := testutil.CreateBranch(t, "Rosario")
	other := testutil.CreateBranch(t, "Córdoba")
	testutil.CreateMember(t, own.ID, "Ana", "Pérez")
	testutil.CreateMember(t, own.ID, "Luis", "Gómez")
	testutil.CreateMember(t, other.ID, "Marta", "Sosa")
	user := testutil.CreateUser(t, models.RoleBranchUser, &own.ID)

	req := httptest.NewRequest("GET", "/api/members/export", nil)
	req.Header.Set("Authorization", "Bearer "+testutil.Token(t, user))
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, 200, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Disposition"), "integrantes-")

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Integrantes")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Apellido", rows[0][2])
	assert.Equal(t, "Gómez", rows[1][2])
	assert.Equal(t, "Rosario", rows[1][1])
	assert.Equal(t, "Pérez", rows[2][2])
}

func TestUpdateMemberFields(t *testing.T) {
	app := servertest.New(t)
	branch := testutil.CreateBranch(t, "Rosario")
	user := testutil.CreateUser(t, models.RoleBranchUser, &branch.ID)
	token := testutil.Token(t, user)
	m := testutil.CreateMember(t, branch.ID, "Ana", "Pérez")
	path := fmt.Sprintf("/api/members/%d", m.ID)

	resp := testutil.Do(t, app, "PUT", path, token, map[string]any{"last_name": "   "})
	assert.Equal(t, 400, resp.Status)

	resp = testutil.Do(t, app, "PUT", path, token, map[string]any{
		"phone":         " 341-555-0101 ",
		"position":      "Tesorera",
		"member_number": "A-17",
	})
	require.Equal(t, 200, resp.Status, resp.Message)
	data := resp.DataMap(t)
	assert.Equal(t, "341-555-0101", data["phone"])
	assert.Equal(t, "Tesorera", data["position"])
	assert.Equal(t, "A-17", data["member_number"])
	assert.Equal(t, "Pérez", data["last_name"])

	// vacío limpia un campo opcional
	resp = testutil.Do(t, app, "PUT", path, token, map[string]any{"position": ""})
	require.Equal(t, 200, resp.Status)
	assert.Equal(t, "", resp.DataMap(t)["position"])
	assert.Equal(t, "A-17", resp.DataMap(t)["member_number"])
}
