package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MessageTypeText   = "text"
	MessageTypeSystem = "system"

	MessageMaxLen = 1000
)

// Message is one entry in a project's append-only chat log. Only the sender
// may edit it; the sender or the project owner may delete it.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID primitive.ObjectID `bson:"project_id" json:"project_id"`
	SenderID  primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	Content   string             `bson:"content" json:"content" validate:"required,max=1000"`
	Type      string             `bson:"type" json:"type"`
	Edited    bool               `bson:"edited" json:"edited"`
	EditedAt  *time.Time         `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
