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

// Broadcaster fans a persisted message out to the sockets subscribed to the
// project's room. Implemented by the websocket hub; a no-op in tests.
type Broadcaster interface {
	BroadcastMessage(projectID string, msg *models.Message)
}

type MessageService struct {
	messages  *mongo.Collection
	projects  *mongo.Collection
	broadcast Broadcaster
	log       zerolog.Logger
}

func NewMessageService(database *mongo.Database, broadcast Broadcaster, log zerolog.Logger) *MessageService {
	return &MessageService{
		messages:  database.Collection(db.ColMessages),
		projects:  database.Collection(db.ColProjects),
		broadcast: broadcast,
		log:       log,
	}
}

func (s *MessageService) loadProject(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := s.projects.FindOne(ctx, bson.M{"_id": id, "is_deleted": false}).Decode(&project)
	if err != nil {
		return nil, apperr.NotFound("project not found")
	}
	return &project, nil
}

// requireContent gates chat access: visibility plus the NDA on private
// projects.
func requireContent(p *models.Project, userID primitive.ObjectID) error {
	if err := requireView(p, userID); err != nil {
		return err
	}
	if !policy.CanViewContent(p, userID) {
		return apperr.Forbidden("signed NDA required for this project's content", apperr.HintRequiresNDA)
	}
	return nil
}

// List pages through a project's chat log. Storage reads newest-first; the
// result is reversed so callers receive oldest-first within the page.
func (s *MessageService) List(ctx context.Context, projectID, viewerID primitive.ObjectID, page, limit int64) ([]models.Message, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireContent(project, viewerID); err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.messages.Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, apperr.Internal("failed to read messages", err)
	}
	defer cursor.Close(ctx)

	msgs := []models.Message{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, apperr.Internal("failed to decode messages", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Send persists a message, then broadcasts it. Persistence failure suppresses
// the broadcast; a broadcast problem never rolls back the write.
func (s *MessageService) Send(ctx context.Context, projectID, senderID primitive.ObjectID, content string) (*models.Message, error) {
	if content == "" || len(content) > models.MessageMaxLen {
		return nil, apperr.Validation("message content must be 1-1000 characters")
	}
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireContent(project, senderID); err != nil {
		return nil, err
	}

	msg := models.Message{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		SenderID:  senderID,
		Content:   content,
		Type:      models.MessageTypeText,
		CreatedAt: time.Now(),
	}
	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		return nil, apperr.Internal("failed to save message", err)
	}

	if s.broadcast != nil {
		s.broadcast.BroadcastMessage(projectID.Hex(), &msg)
	}
	return &msg, nil
}

// Edit rewrites a message's content; only the original sender may edit.
func (s *MessageService) Edit(ctx context.Context, projectID, msgID, callerID primitive.ObjectID, content string) (*models.Message, error) {
	if content == "" || len(content) > models.MessageMaxLen {
		return nil, apperr.Validation("message content must be 1-1000 characters")
	}

	var msg models.Message
	err := s.messages.FindOne(ctx, bson.M{"_id": msgID, "project_id": projectID}).Decode(&msg)
	if err != nil {
		return nil, apperr.NotFound("message not found")
	}
	if msg.SenderID != callerID {
		return nil, apperr.Forbidden("only the sender can edit a message", "")
	}

	now := time.Now()
	res := s.messages.FindOneAndUpdate(ctx,
		bson.M{"_id": msgID},
		bson.M{"$set": bson.M{"content": content, "edited": true, "edited_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := res.Decode(&msg); err != nil {
		return nil, apperr.Internal("failed to edit message", err)
	}
	return &msg, nil
}

// Delete removes a message; permitted for the sender or the project owner.
func (s *MessageService) Delete(ctx context.Context, projectID, msgID, callerID primitive.ObjectID) error {
	var msg models.Message
	err := s.messages.FindOne(ctx, bson.M{"_id": msgID, "project_id": projectID}).Decode(&msg)
	if err != nil {
		return apperr.NotFound("message not found")
	}

	if msg.SenderID != callerID {
		project, err := s.loadProject(ctx, projectID)
		if err != nil {
			return err
		}
		if project.OwnerID != callerID {
			return apperr.Forbidden("only the sender or project owner can delete a message", "")
		}
	}

	if _, err := s.messages.DeleteOne(ctx, bson.M{"_id": msgID}); err != nil {
		return apperr.Internal("failed to delete message", err)
	}
	return nil
}

// CanJoinRoom checks whether a socket may subscribe to a project room.
func (s *MessageService) CanJoinRoom(ctx context.Context, projectID, userID primitive.ObjectID) error {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return err
	}
	return requireContent(project, userID)
}
