package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/collabnest/backend/internal/apperr"
	"github.com/collabnest/backend/internal/db"
	"github.com/collabnest/backend/internal/models"
	"github.com/collabnest/backend/internal/policy"
)

// TrustService maintains the two trust computations: the ledger-backed
// authoritative score stored on the user, and the vote tally derived on read.
// The two are reported through different endpoints and may diverge.
type TrustService struct {
	users    *mongo.Collection
	ledger   *mongo.Collection
	votes    *mongo.Collection
	projects *mongo.Collection
	log      zerolog.Logger
}

func NewTrustService(database *mongo.Database, log zerolog.Logger) *TrustService {
	return &TrustService{
		users:    database.Collection(db.ColUsers),
		ledger:   database.Collection(db.ColTrustLog),
		votes:    database.Collection(db.ColTrustVotes),
		projects: database.Collection(db.ColProjects),
		log:      log,
	}
}

// Adjust appends a ledger entry and re-clamps the user's stored score. The
// read-modify-write is not guarded: two concurrent adjustments on the same
// user are last-write-wins on the save step.
func (s *TrustService) Adjust(ctx context.Context, userID primitive.ObjectID, action string, points int, description string, projectID *primitive.ObjectID) (models.TrustLogEntry, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return models.TrustLogEntry{}, apperr.NotFound("user not found")
	}

	entry := models.TrustLogEntry{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Action:      action,
		Points:      points,
		Description: description,
		ProjectID:   projectID,
		CreatedAt:   time.Now(),
	}
	if _, err := s.ledger.InsertOne(ctx, entry); err != nil {
		return models.TrustLogEntry{}, apperr.Internal("failed to append trust log", err)
	}

	newScore := models.ClampTrust(user.TrustScore + points)
	if _, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"trust_score": newScore, "updated_at": time.Now()}},
	); err != nil {
		return models.TrustLogEntry{}, apperr.Internal("failed to save trust score", err)
	}

	s.log.Info().
		Str("user_id", userID.Hex()).
		Str("action", action).
		Int("points", points).
		Int("score", newScore).
		Msg("trust score adjusted")
	return entry, nil
}

// CreditTaskCompletion awards the one-time task completion credit.
func (s *TrustService) CreditTaskCompletion(ctx context.Context, assigneeID, projectID, taskID primitive.ObjectID) error {
	_, err := s.Adjust(ctx, assigneeID, models.TrustActionTaskCompleted, 2,
		"completed task "+taskID.Hex(), &projectID)
	return err
}

// History returns the ledger entries for a user, newest first.
func (s *TrustService) History(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]models.TrustLogEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.ledger.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, apperr.Internal("failed to read trust log", err)
	}
	defer cursor.Close(ctx)

	entries := []models.TrustLogEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, apperr.Internal("failed to decode trust log", err)
	}
	return entries, nil
}

// CastVote records or replaces a peer vote. The voter must share at least one
// project with the target as fellow members, and cannot vote on themselves.
func (s *TrustService) CastVote(ctx context.Context, voterID, targetID, projectID primitive.ObjectID, vote int) error {
	if vote != 1 && vote != -1 {
		return apperr.Validation("vote must be +1 or -1")
	}
	if voterID == targetID {
		return apperr.Validation("cannot vote on yourself")
	}

	var project models.Project
	err := s.projects.FindOne(ctx, bson.M{"_id": projectID, "is_deleted": false}).Decode(&project)
	if err != nil {
		return apperr.NotFound("project not found")
	}
	if !policy.IsMember(&project, voterID) || !policy.IsMember(&project, targetID) {
		return apperr.Forbidden("voter and target must both be members of the project", apperr.HintRequiresJoin)
	}

	// Upsert keyed on the unique (voter, target, project) index: a re-vote
	// replaces the previous value instead of inserting a second document.
	_, err = s.votes.UpdateOne(ctx,
		bson.M{"voter_id": voterID, "target_id": targetID, "project_id": projectID},
		bson.M{"$set": bson.M{"vote": vote, "updated_at": time.Now()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("vote already recorded", apperr.HintDuplicateVote)
		}
		return apperr.Internal("failed to record vote", err)
	}
	return nil
}

// VoteScore derives the tally-based score for a target from the vote
// collection. It never writes back to the user record.
func (s *TrustService) VoteScore(ctx context.Context, targetID primitive.ObjectID) (score, upvotes, downvotes int, err error) {
	cursor, err := s.votes.Find(ctx, bson.M{"target_id": targetID})
	if err != nil {
		return 0, 0, 0, apperr.Internal("failed to read votes", err)
	}
	defer cursor.Close(ctx)

	votes := []models.TrustVote{}
	if err := cursor.All(ctx, &votes); err != nil {
		return 0, 0, 0, apperr.Internal("failed to decode votes", err)
	}
	for _, v := range votes {
		if v.Vote > 0 {
			upvotes++
		} else {
			downvotes++
		}
	}
	return models.VoteScore(upvotes, downvotes), upvotes, downvotes, nil
}
