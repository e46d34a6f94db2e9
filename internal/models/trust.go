package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trust ledger action tags.
const (
	TrustActionAdminAdjust   = "admin_adjustment"
	TrustActionTaskCompleted = "task_completed"
)

// Vote tally parameters: score = clamp(30 + 5*(up-down), 0, 100).
const TrustVoteWeight = 5

// TrustLogEntry is one append-only delta against a user's stored score.
type TrustLogEntry struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Action      string              `bson:"action" json:"action"`
	Points      int                 `bson:"points" json:"points"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	ProjectID   *primitive.ObjectID `bson:"project_id,omitempty" json:"project_id,omitempty"`
	Metadata    map[string]string   `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
}

// TrustVote is one peer vote; unique per (voter, target, project), where a
// re-vote replaces the previous value instead of adding a new document.
type TrustVote struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VoterID   primitive.ObjectID `bson:"voter_id" json:"voter_id"`
	TargetID  primitive.ObjectID `bson:"target_id" json:"target_id"`
	ProjectID primitive.ObjectID `bson:"project_id" json:"project_id"`
	Vote      int                `bson:"vote" json:"vote" validate:"required,oneof=-1 1"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// VoteScore derives the tally-based score from vote counts. It is computed on
// read and never written back to the user record, so it can diverge from the
// ledger-based TrustScore field.
func VoteScore(upvotes, downvotes int) int {
	return ClampTrust(TrustDefault + TrustVoteWeight*(upvotes-downvotes))
}
