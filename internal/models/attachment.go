package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attachment is the metadata record mirroring an object stored in MinIO.
// The object key is "<attachment-id>_<filename>".
type Attachment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID   primitive.ObjectID `bson:"project_id" json:"project_id"`
	UploaderID  primitive.ObjectID `bson:"uploader_id" json:"uploader_id"`
	Filename    string             `bson:"filename" json:"filename"`
	ObjectKey   string             `bson:"object_key" json:"-"`
	Size        int64              `bson:"size" json:"size"`
	ContentType string             `bson:"content_type" json:"content_type"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
