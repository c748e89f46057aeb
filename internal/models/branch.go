package models

import "time"

// Branch is a regional office ("filial"). Branches are deactivated, never
// removed, because members, actions and requests keep pointing at them.
type Branch struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"size:100;not null;unique" json:"name"`
	Province  string     `gorm:"size:100;index" json:"province"`
	Locality  string     `gorm:"size:100" json:"locality"`
	Address   string     `gorm:"size:255" json:"address"`
	Phone     string     `gorm:"size:50" json:"phone"`
	Email     string     `gorm:"size:100" json:"email"`
	FoundedAt *time.Time `json:"foundedAt"`
	LogoURL   string     `gorm:"size:255" json:"logoUrl"`
	Active    bool       `gorm:"not null;default:true;index" json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	Users   []User   `gorm:"foreignKey:FilialID" json:"-"`
	Members []Member `gorm:"foreignKey:FilialID;constraint:OnDelete:RESTRICT" json:"-"`
}
