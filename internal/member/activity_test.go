package member_test

import (
	"testing"
	"time"

	"filiales-backend/internal/database"
	"filiales-backend/internal/member"
	"filiales-backend/internal/models"
	"filiales-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openIntervals(t *testing.T, memberID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, database.DB.Model(&models.MemberInactivity{}).
		Where("member_id = ? AND \"end\" IS NULL", memberID).Count(&n).Error)
	return n
}

func inTx(t *testing.T, fn func(tx *gorm.DB) error) {
	t.Helper()
	require.NoError(t, database.DB.Transaction(fn))
}

func TestDeactivateTwiceKeepsOneOpenInterval(t *testing.T) {
	testutil.SetupDB(t)
	b := testutil.CreateBranch(t, "Salta")
	m := testutil.CreateMember(t, b.ID, "Ana", "Pérez")

	var changed bool
	inTx(t, func(tx *gorm.DB) (err error) {
		changed, err = member.Deactivate(tx, m, time.Now())
		return err
	})
	assert.True(t, changed)
	assert.False(t, m.Active)

	inTx(t, func(tx *gorm.DB) (err error) {
		changed, err = member.Deactivate(tx, m, time.Now())
		return err
	})
	assert.False(t, changed)
	assert.Equal(t, int64(1), openIntervals(t, m.ID))

	var stored models.Member
	require.NoError(t, database.DB.First(&stored, m.ID).Error)
	assert.False(t, stored.Active)
}

func TestReactivateClosesOpenIntervals(t *testing.T) {
	testutil.SetupDB(t)
	b := testutil.CreateBranch(t, "Salta")
	m := testutil.CreateMember(t, b.ID, "Ana", "Pérez")

	start := time.Now().Add(-48 * time.Hour)
	inTx(t, func(tx *gorm.DB) error {
		_, err := member.Deactivate(tx, m, start)
		return err
	})

	end := time.Now()
	var changed bool
	inTx(t, func(tx *gorm.DB) (err error) {
		changed, err = member.Reactivate(tx, m, end)
		return err
	})
	assert.True(t, changed)
	assert.True(t, m.Active)
	assert.Equal(t, int64(0), openIntervals(t, m.ID))

	history, err := member.History(database.DB, m.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].End)
	assert.WithinDuration(t, end, *history[0].End, time.Second)
	assert.WithinDuration(t, start, history[0].Start, time.Second)
}

func TestReactivateActiveMemberIsNoop(t *testing.T) {
	testutil.SetupDB(t)
	b := testutil.CreateBranch(t, "Salta")
	m := testutil.CreateMember(t, b.ID, "Ana", "Pérez")

	// un ciclo completo deja un intervalo cerrado
	inTx(t, func(tx *gorm.DB) error {
		if _, err := member.Deactivate(tx, m, time.Now().Add(-time.Hour)); err != nil {
			return err
		}
		_, err := member.Reactivate(tx, m, time.Now().Add(-30*time.Minute))
		return err
	})
	before, err := member.History(database.DB, m.ID)
	require.NoError(t, err)

	var changed bool
	inTx(t, func(tx *gorm.DB) (err error) {
		changed, err = member.Reactivate(tx, m, time.Now())
		return err
	})
	assert.False(t, changed)

	after, err := member.History(database.DB, m.ID)
	require.NoError(t, err)
	assert.Equal(t, before[0].End.Unix(), after[0].End.Unix())
	assert.Len(t, after, 1)
}
