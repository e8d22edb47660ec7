package audit

import (
	"context"

	"go.uber.org/zap"
)

// ZapSink logs each event as a structured line. Failed events log at warn.
type ZapSink struct {
	log *zap.Logger
}

func NewZapSink(log *zap.Logger) *ZapSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapSink{log: log.With(zap.String("component", "audit"))}
}

func (s *ZapSink) Emit(_ context.Context, e Event) {
	fields := make([]zap.Field, 0, 7+len(e.Metadata))
	fields = append(fields,
		zap.String("event_type", e.EventType),
		zap.Time("event_ts", e.Timestamp),
		zap.Bool("success", e.Success),
	)
	if e.UserID != "" {
		fields = append(fields, zap.String("user_id", e.UserID))
	}
	if e.SessionID != "" {
		fields = append(fields, zap.String("session_id", e.SessionID))
	}
	if e.IP != "" {
		fields = append(fields, zap.String("ip", e.IP))
	}
	if e.Error != "" {
		fields = append(fields, zap.String("error_code", e.Error))
	}
	for k, v := range e.Metadata {
		fields = append(fields, zap.String("meta."+k, v))
	}

	if e.Success {
		s.log.Info("audit event", fields...)
		return
	}
	s.log.Warn("audit event", fields...)
}
