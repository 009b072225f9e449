package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ModerationEvent is one entry of the moderation audit trail.
type ModerationEvent struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	At         time.Time          `bson:"at" json:"at"`
	EntityType string             `bson:"entity_type" json:"entity_type"` // therapist_application, clinic_application, psychologist, clinic, report
	EntityID   string             `bson:"entity_id" json:"entity_id"`
	ActorID    string             `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	Action     string             `bson:"action" json:"action"`
	From       string             `bson:"from,omitempty" json:"from,omitempty"`
	To         string             `bson:"to,omitempty" json:"to,omitempty"`
	Cause      string             `bson:"cause,omitempty" json:"cause,omitempty"`
}
