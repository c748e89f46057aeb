package models

import "time"

const (
	NotificationTicketApproved = "ticket_approved"
	NotificationTicketRejected = "ticket_rejected"
	NotificationForumReply     = "forum_reply"
)

type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"userId"`
	Kind      string     `gorm:"size:30;not null" json:"kind"`
	Title     string     `gorm:"size:150;not null" json:"title"`
	Message   string     `gorm:"size:500" json:"message"`
	Link      string     `gorm:"size:255" json:"link"`
	ReadAt    *time.Time `gorm:"index" json:"readAt"`
	CreatedAt time.Time  `json:"createdAt"`
}
