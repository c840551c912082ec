// Package audit records create, update and delete operations in the
// append-only audit_logs table.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/user"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
)

type ctxKey int

const (
	actorKey ctxKey = iota
	ipKey
	requestIDKey
)

func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey, ip)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// Actor returns the user stored in ctx, or the OS user running the process.
func Actor(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey).(string); ok && a != "" {
		return a
	}
	return systemUser()
}

func systemUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "system"
}

func stringFrom(ctx context.Context, key ctxKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

// Snapshot converts a model to a plain map through its JSON form. A nil
// value yields a nil map.
func Snapshot(v interface{}) (map[string]interface{}, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot %T: %w", v, err)
	}
	if string(raw) == "null" {
		return nil, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to snapshot %T: %w", v, err)
	}
	return m, nil
}

func toJSON(v interface{}) (datatypes.JSON, error) {
	m, err := Snapshot(v)
	if err != nil || m == nil {
		return nil, err
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

type Recorder struct {
	logger *zap.Logger
}

func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{logger: logger}
}

// Record appends an entry through tx so it commits or rolls back with the
// change it describes.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, table string, id uint, action models.AuditAction, before, after interface{}) error {
	b, err := toJSON(before)
	if err != nil {
		return err
	}
	a, err := toJSON(after)
	if err != nil {
		return err
	}

	entry := models.AuditLog{
		Table:     table,
		EntityID:  id,
		Action:    action,
		Before:    b,
		After:     a,
		User:      Actor(ctx),
		IPAddress: stringFrom(ctx, ipKey),
		RequestID: stringFrom(ctx, requestIDKey),
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	r.logger.Debug("audit recorded",
		zap.String("table", table),
		zap.Uint("entity_id", id),
		zap.String("action", string(action)),
		zap.String("user", entry.User),
	)
	return nil
}
