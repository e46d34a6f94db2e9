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
)

type NotificationService struct {
	notifications *mongo.Collection
	log           zerolog.Logger
}

func NewNotificationService(database *mongo.Database, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		notifications: database.Collection(db.ColNotifications),
		log:           log,
	}
}

// Notify creates a notification. Failures are logged and swallowed: a
// notification is never worth failing the operation that triggered it.
func (s *NotificationService) Notify(ctx context.Context, userID primitive.ObjectID, kind, title, body string, refID *primitive.ObjectID) {
	n := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Body:      body,
		RefID:     refID,
		CreatedAt: time.Now(),
	}
	if _, err := s.notifications.InsertOne(ctx, n); err != nil {
		s.log.Error().Err(err).
			Str("user_id", userID.Hex()).
			Str("type", kind).
			Msg("failed to create notification")
	}
}

// List returns a user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.notifications.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, apperr.Internal("failed to list notifications", err)
	}
	defer cursor.Close(ctx)

	out := []models.Notification{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperr.Internal("failed to decode notifications", err)
	}
	return out, nil
}

// MarkRead marks the given notifications as read; ids not owned by the caller
// are ignored. An empty id list marks everything.
func (s *NotificationService) MarkRead(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) error {
	filter := bson.M{"user_id": userID}
	if len(ids) > 0 {
		filter["_id"] = bson.M{"$in": ids}
	}
	_, err := s.notifications.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return apperr.Internal("failed to mark notifications read", err)
	}
	return nil
}
