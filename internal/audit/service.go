package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"filiales-backend/internal/async"
	"filiales-backend/internal/auth"
	"filiales-backend/internal/database"
	"filiales-backend/internal/metrics"
	"filiales-backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EntityBranch        = "branch"
	EntityUser          = "user"
	EntityMember        = "member"
	EntityAction        = "action"
	EntityTicketRequest = "ticket_request"
	EntityForumTopic    = "forum_topic"
	EntityForumReply    = "forum_reply"
)

const writeTimeout = 5 * time.Second

type LogOptions struct {
	FilialID    *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

var jsonNull = datatypes.JSON("null")

func encode(v any) datatypes.JSON {
	// jsonb no acepta vacío; "null" es JSON válido
	if v == nil {
		return jsonNull
	}
	b, err := json.Marshal(v)
	if err != nil {
		return jsonNull
	}
	return datatypes.JSON(b)
}

func newLog(opts LogOptions) models.AuditLog {
	return models.AuditLog{
		FilialID:    opts.FilialID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  encode(opts.Before),
		AfterData:   encode(opts.After),
	}
}

func writeLog(ctx context.Context, db *gorm.DB, entry models.AuditLog) error {
	err := db.WithContext(ctx).Create(&entry).Error
	metrics.AuditWrite(err)
	if err != nil {
		return fmt.Errorf("no se pudo guardar el registro de auditoría: %w", err)
	}
	return nil
}

// Record appends an audit entry for a mutation made by id without waiting for
// it. Before/After are serialized right away so later changes to the caller's
// values do not leak into the record. Failures are logged and counted, never
// returned.
func Record(id auth.Identity, opts LogOptions) {
	opts.UserID = id.UserID
	opts.UserName = id.Name
	entry := newLog(opts)

	db := database.DB
	async.SafeGo(context.Background(), writeTimeout, "audit:"+opts.EntityType, func(ctx context.Context) error {
		return writeLog(ctx, db, entry)
	})
}

// FilialOf is a small helper for optional branch ids on audit entries.
func FilialOf(id uint) *uint {
	return &id
}
