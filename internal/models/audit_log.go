package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionCreate     AuditAction = "create"
	AuditActionUpdate     AuditAction = "update"
	AuditActionDelete     AuditAction = "delete"
	AuditActionDeactivate AuditAction = "deactivate"
	AuditActionReactivate AuditAction = "reactivate"
	AuditActionApprove    AuditAction = "approve"
	AuditActionReject     AuditAction = "reject"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	// Filial afectada; nil para operaciones globales (usuarios, temas generales)
	FilialID *uint `gorm:"index" json:"filialId"`

	UserID   uint   `gorm:"index" json:"userId"`
	UserName string `gorm:"size:100" json:"userName"`

	// ej: "member", "action", "ticket_request", "forum_topic"
	EntityType string `gorm:"size:50;index" json:"entityType"`
	EntityID   uint   `gorm:"index" json:"entityId"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	// Instantáneas en JSON; se envían como objetos, no como texto
	BeforeData datatypes.JSON `gorm:"type:jsonb" json:"beforeData"`
	AfterData  datatypes.JSON `gorm:"type:jsonb" json:"afterData"`
}
