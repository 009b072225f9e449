package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/metrics"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

// AuditRecorder appends moderation events. Recording never fails the operation it describes.
type AuditRecorder interface {
	Record(ctx context.Context, event models.ModerationEvent)
}

type MongoAuditRecorder struct {
	events *mongo.Collection
	log    logger.Logger
}

func NewMongoAuditRecorder(events *mongo.Collection, log logger.Logger) *MongoAuditRecorder {
	return &MongoAuditRecorder{events: events, log: log}
}

func (r *MongoAuditRecorder) Record(ctx context.Context, event models.ModerationEvent) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := r.events.InsertOne(ctx, event); err != nil {
		r.log.WithError(err).Error("failed to record moderation event", auditFields(event))
	}
}

// LogAuditRecorder writes events to the structured log only.
type LogAuditRecorder struct {
	log logger.Logger
}

func NewLogAuditRecorder(log logger.Logger) *LogAuditRecorder {
	return &LogAuditRecorder{log: log}
}

func (r *LogAuditRecorder) Record(_ context.Context, event models.ModerationEvent) {
	r.log.Info("moderation event", auditFields(event))
}

func auditFields(e models.ModerationEvent) map[string]interface{} {
	return map[string]interface{}{
		"entity_type": e.EntityType,
		"entity_id":   e.EntityID,
		"actor_id":    e.ActorID,
		"action":      e.Action,
		"from":        e.From,
		"to":          e.To,
		"cause":       e.Cause,
	}
}

// recordTransition counts and audits one state change.
func recordTransition(ctx context.Context, audit AuditRecorder, event models.ModerationEvent) {
	metrics.ModerationTransitions.WithLabelValues(event.EntityType, event.From, event.To).Inc()
	audit.Record(ctx, event)
}
