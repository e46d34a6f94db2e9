package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/collabnest/backend/internal/apperr"
	"github.com/collabnest/backend/internal/db"
	"github.com/collabnest/backend/internal/models"
	"github.com/collabnest/backend/internal/storage"
)

// AttachmentService stores project files in MinIO with a metadata document
// per object.
type AttachmentService struct {
	attachments *mongo.Collection
	projects    *mongo.Collection
	store       *storage.Minio
	log         zerolog.Logger
}

func NewAttachmentService(database *mongo.Database, store *storage.Minio, log zerolog.Logger) *AttachmentService {
	return &AttachmentService{
		attachments: database.Collection(db.ColAttachments),
		projects:    database.Collection(db.ColProjects),
		store:       store,
		log:         log,
	}
}

func (s *AttachmentService) loadProject(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := s.projects.FindOne(ctx, bson.M{"_id": id, "is_deleted": false}).Decode(&project)
	if err != nil {
		return nil, apperr.NotFound("project not found")
	}
	return &project, nil
}

// Upload stores the file object first and only then writes the metadata
// document; a failed metadata write removes the orphaned object.
func (s *AttachmentService) Upload(ctx context.Context, projectID, uploaderID primitive.ObjectID, fileHeader *multipart.FileHeader) (models.Attachment, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return models.Attachment{}, err
	}
	if err := requireEdit(project, uploaderID); err != nil {
		return models.Attachment{}, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.Attachment{}, apperr.Validation("failed to open uploaded file")
	}
	defer file.Close()

	att := models.Attachment{
		ID:          primitive.NewObjectID(),
		ProjectID:   projectID,
		UploaderID:  uploaderID,
		Filename:    fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
		CreatedAt:   time.Now(),
	}
	att.ObjectKey = fmt.Sprintf("%s_%s", att.ID.Hex(), att.Filename)

	if err := s.store.Put(ctx, att.ObjectKey, file, att.Size, att.ContentType); err != nil {
		return models.Attachment{}, apperr.Internal("failed to store attachment", err)
	}
	if _, err := s.attachments.InsertOne(ctx, att); err != nil {
		if rmErr := s.store.Remove(ctx, att.ObjectKey); rmErr != nil {
			s.log.Error().Err(rmErr).Str("object_key", att.ObjectKey).Msg("failed to clean up orphaned object")
		}
		return models.Attachment{}, apperr.Internal("failed to save attachment metadata", err)
	}
	return att, nil
}

// List returns a project's attachments; content access required.
func (s *AttachmentService) List(ctx context.Context, projectID, viewerID primitive.ObjectID) ([]models.Attachment, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireContent(project, viewerID); err != nil {
		return nil, err
	}

	cursor, err := s.attachments.Find(ctx, bson.M{"project_id": projectID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, apperr.Internal("failed to list attachments", err)
	}
	defer cursor.Close(ctx)

	atts := []models.Attachment{}
	if err := cursor.All(ctx, &atts); err != nil {
		return nil, apperr.Internal("failed to decode attachments", err)
	}
	return atts, nil
}

// DownloadURL returns a time-limited presigned URL; content access required.
func (s *AttachmentService) DownloadURL(ctx context.Context, projectID, attID, viewerID primitive.ObjectID) (string, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	if err := requireContent(project, viewerID); err != nil {
		return "", err
	}

	var att models.Attachment
	err = s.attachments.FindOne(ctx, bson.M{"_id": attID, "project_id": projectID}).Decode(&att)
	if err != nil {
		return "", apperr.NotFound("attachment not found")
	}

	url, err := s.store.PresignedGet(ctx, att.ObjectKey, 10*time.Minute)
	if err != nil {
		return "", apperr.Internal("failed to generate download link", err)
	}
	return url, nil
}

// Delete removes an attachment; permitted for the uploader or project owner.
func (s *AttachmentService) Delete(ctx context.Context, projectID, attID, callerID primitive.ObjectID) error {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return err
	}

	var att models.Attachment
	err = s.attachments.FindOne(ctx, bson.M{"_id": attID, "project_id": projectID}).Decode(&att)
	if err != nil {
		return apperr.NotFound("attachment not found")
	}
	if att.UploaderID != callerID && project.OwnerID != callerID {
		return apperr.Forbidden("only the uploader or project owner can delete attachments", "")
	}

	if _, err := s.attachments.DeleteOne(ctx, bson.M{"_id": attID}); err != nil {
		return apperr.Internal("failed to delete attachment metadata", err)
	}
	if err := s.store.Remove(ctx, att.ObjectKey); err != nil {
		// Metadata is gone; the stray object is logged for cleanup.
		s.log.Error().Err(err).Str("object_key", att.ObjectKey).Msg("failed to remove stored object")
	}
	return nil
}
