package member

import (
	"time"

	"filiales-backend/internal/models"

	"gorm.io/gorm"
)

// Deactivate marks m inactive and opens an inactivity interval at now unless
// one is already open. It reports whether anything changed. db should be a
// transaction so the interval and the flag move together.
func Deactivate(db *gorm.DB, m *models.Member, now time.Time) (bool, error) {
	var open int64
	if err := db.Model(&models.MemberInactivity{}).
		Where("member_id = ? AND \"end\" IS NULL", m.ID).
		Count(&open).Error; err != nil {
		return false, err
	}

	changed := m.Active
	if open == 0 {
		if err := db.Create(&models.MemberInactivity{MemberID: m.ID, Start: now}).Error; err != nil {
			return false, err
		}
		changed = true
	}

	if m.Active {
		if err := db.Model(m).Updates(map[string]any{"active": false, "updated_at": now}).Error; err != nil {
			return false, err
		}
		m.Active = false
	}
	return changed, nil
}

// Reactivate closes every open interval of m at now and marks it active.
// Reactivating an active member with no open interval is a no-op.
func Reactivate(db *gorm.DB, m *models.Member, now time.Time) (bool, error) {
	res := db.Model(&models.MemberInactivity{}).
		Where("member_id = ? AND \"end\" IS NULL", m.ID).
		Update("end", now)
	if res.Error != nil {
		return false, res.Error
	}

	changed := res.RowsAffected > 0 || !m.Active
	if !m.Active {
		if err := db.Model(m).Updates(map[string]any{"active": true, "updated_at": now}).Error; err != nil {
			return false, err
		}
		m.Active = true
	}
	return changed, nil
}

// History lists the inactivity intervals of a member, newest first.
func History(db *gorm.DB, memberID uint) ([]models.MemberInactivity, error) {
	periods := []models.MemberInactivity{}
	err := db.Where("member_id = ?", memberID).
		Order("start DESC").Order("id DESC").
		Find(&periods).Error
	return periods, err
}
