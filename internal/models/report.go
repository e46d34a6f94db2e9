package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ReportStatusOpen     = "open"
	ReportStatusResolved = "resolved"
)

// Report is filed by a project owner against one of the project's members and
// can only be resolved by an admin.
type Report struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ReportedUserID primitive.ObjectID  `bson:"reported_user_id" json:"reported_user_id"`
	ReportedByID   primitive.ObjectID  `bson:"reported_by_id" json:"reported_by_id"`
	ProjectID      primitive.ObjectID  `bson:"project_id" json:"project_id"`
	Reason         string              `bson:"reason" json:"reason" validate:"required,max=2000"`
	Status         string              `bson:"status" json:"status"`
	AdminNote      string              `bson:"admin_note,omitempty" json:"admin_note,omitempty"`
	ResolvedBy     *primitive.ObjectID `bson:"resolved_by,omitempty" json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time          `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	CreatedAt      time.Time           `bson:"created_at" json:"created_at"`
}
