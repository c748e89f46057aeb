package models

import "time"

// Action is a community action or event organised by a branch.
type Action struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FilialID     uint      `gorm:"not null;index" json:"filialId"`
	Branch       *Branch   `gorm:"foreignKey:FilialID" json:"-"`
	Title        string    `gorm:"size:150;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Category     string    `gorm:"size:50;index" json:"category"`
	Date         time.Time `gorm:"not null;index" json:"date"`
	Location     string    `gorm:"size:255" json:"location"`
	Participants int       `json:"participants"`
	ImageURL     string    `gorm:"size:255" json:"imageUrl"`
	CreatedBy    uint      `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
