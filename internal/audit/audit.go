package audit

import (
	"context"

	"github.com/Foresight-builder/Foresight-backend/pkg/log"
)

// Audit actions for follow writes.
const (
	ActionFollow   = "event.follow"
	ActionUnfollow = "event.unfollow"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, eventID int64, follower string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Int64(log.FieldEventID, eventID).
		Str(log.FieldFollower, follower).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, eventID int64, follower string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Int64(log.FieldEventID, eventID).
		Str(log.FieldFollower, follower).
		Str(FieldDetail, detail).
		Msg(msg)
}
