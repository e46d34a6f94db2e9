package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const (
	NotifyJoinApproved   = "join_approved"
	NotifyJoinRejected   = "join_rejected"
	NotifyReportFiled    = "report_filed"
	NotifyReportResolved = "report_resolved"
	NotifyTaskAssigned   = "task_assigned"
)

type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Type      string              `bson:"type" json:"type"`
	Title     string              `bson:"title" json:"title"`
	Body      string              `bson:"body,omitempty" json:"body,omitempty"`
	RefID     *primitive.ObjectID `bson:"ref_id,omitempty" json:"ref_id,omitempty"`
	Read      bool                `bson:"read" json:"read"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
