package models

import "time"

// Member ("integrante") belongs to exactly one branch. Document numbers are
// unique inside a branch.
type Member struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	FilialID     uint       `gorm:"not null;index;uniqueIndex:idx_member_filial_document" json:"filialId"`
	Branch       *Branch    `gorm:"foreignKey:FilialID" json:"-"`
	FirstName    string     `gorm:"size:100;not null" json:"firstName"`
	LastName     string     `gorm:"size:100;not null" json:"lastName"`
	Document     string     `gorm:"size:20;not null;uniqueIndex:idx_member_filial_document" json:"document"`
	Email        string     `gorm:"size:100" json:"email"`
	Phone        string     `gorm:"size:50" json:"phone"`
	BirthDate    *time.Time `json:"birthDate"`
	Position     string     `gorm:"size:50;index" json:"position"` // cargo dentro de la filial
	MemberNumber string     `gorm:"size:30" json:"memberNumber"`
	JoinedAt     *time.Time `json:"joinedAt"`
	PhotoURL     string     `gorm:"size:255" json:"photoUrl"`
	Active       bool       `gorm:"not null;default:true;index" json:"active"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	InactivityPeriods []MemberInactivity `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"-"`
}

// MemberInactivity is one entry of the append-only inactivity history. End is
// nil while the member is still inactive.
type MemberInactivity struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	MemberID  uint       `gorm:"not null;index" json:"memberId"`
	Start     time.Time  `gorm:"not null" json:"start"`
	End       *time.Time `json:"end"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (MemberInactivity) TableName() string { return "member_inactivity_periods" }
