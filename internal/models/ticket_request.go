package models

import "time"

type TicketStatus string

const (
	TicketPending  TicketStatus = "pending"
	TicketApproved TicketStatus = "approved"
	TicketRejected TicketStatus = "rejected"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketPending, TicketApproved, TicketRejected:
		return true
	}
	return false
}

// TicketRequest is a branch's request for match tickets.
type TicketRequest struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	FilialID        uint         `gorm:"not null;index" json:"filialId"`
	Branch          *Branch      `gorm:"foreignKey:FilialID" json:"-"`
	RequestedBy     uint         `gorm:"not null" json:"requestedBy"`
	Match           string       `gorm:"size:150;not null" json:"match"`
	MatchDate       time.Time    `gorm:"not null;index" json:"matchDate"`
	Quantity        int          `gorm:"not null" json:"quantity"`
	Notes           string       `gorm:"type:text" json:"notes"`
	Status          TicketStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	TicketAssigned  bool         `gorm:"not null;default:false" json:"ticketAssigned"`
	RejectionReason string       `gorm:"size:255" json:"rejectionReason"`
	ReviewedBy      *uint        `json:"reviewedBy"`
	ReviewedAt      *time.Time   `json:"reviewedAt"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}
