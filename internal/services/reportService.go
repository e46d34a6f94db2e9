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

type ReportService struct {
	reports  *mongo.Collection
	projects *mongo.Collection
	notify   *NotificationService
	log      zerolog.Logger
}

func NewReportService(database *mongo.Database, notify *NotificationService, log zerolog.Logger) *ReportService {
	return &ReportService{
		reports:  database.Collection(db.ColReports),
		projects: database.Collection(db.ColProjects),
		notify:   notify,
		log:      log,
	}
}

// File creates a report by a project owner against one of the project's
// members. Self-reports are rejected; the filer gets a confirmation
// notification.
func (s *ReportService) File(ctx context.Context, projectID, reporterID, reportedID primitive.ObjectID, reason string) (models.Report, error) {
	var project models.Project
	err := s.projects.FindOne(ctx, bson.M{"_id": projectID, "is_deleted": false}).Decode(&project)
	if err != nil {
		return models.Report{}, apperr.NotFound("project not found")
	}
	if project.OwnerID != reporterID {
		return models.Report{}, apperr.Forbidden("only the project owner can file reports", apperr.HintOwnerOnly)
	}
	if reportedID == reporterID {
		return models.Report{}, apperr.Validation("cannot report yourself")
	}
	if !policy.IsMember(&project, reportedID) {
		return models.Report{}, apperr.Validation("reported user is not a project member")
	}

	report := models.Report{
		ID:             primitive.NewObjectID(),
		ReportedUserID: reportedID,
		ReportedByID:   reporterID,
		ProjectID:      projectID,
		Reason:         reason,
		Status:         models.ReportStatusOpen,
		CreatedAt:      time.Now(),
	}
	if _, err := s.reports.InsertOne(ctx, report); err != nil {
		return models.Report{}, apperr.Internal("failed to file report", err)
	}

	s.notify.Notify(ctx, reporterID, models.NotifyReportFiled,
		"Report filed", "Your report for "+project.Title+" was submitted", &report.ID)
	return report, nil
}

// List returns reports for the admin surface, optionally filtered by status.
func (s *ReportService) List(ctx context.Context, status string, page, limit int64) ([]models.Report, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.reports.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Internal("failed to list reports", err)
	}
	defer cursor.Close(ctx)

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, apperr.Internal("failed to decode reports", err)
	}
	return reports, nil
}

// Resolve closes an open report; admin identity is enforced at the route
// level, the resolver id is recorded here. The original reporter is notified.
func (s *ReportService) Resolve(ctx context.Context, reportID, adminID primitive.ObjectID, note string) (models.Report, error) {
	var report models.Report
	err := s.reports.FindOne(ctx, bson.M{"_id": reportID}).Decode(&report)
	if err != nil {
		return models.Report{}, apperr.NotFound("report not found")
	}
	if report.Status == models.ReportStatusResolved {
		return models.Report{}, apperr.Conflict("report already resolved", "")
	}

	now := time.Now()
	res := s.reports.FindOneAndUpdate(ctx,
		bson.M{"_id": reportID},
		bson.M{"$set": bson.M{
			"status":      models.ReportStatusResolved,
			"admin_note":  note,
			"resolved_by": adminID,
			"resolved_at": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := res.Decode(&report); err != nil {
		return models.Report{}, apperr.Internal("failed to resolve report", err)
	}

	s.notify.Notify(ctx, report.ReportedByID, models.NotifyReportResolved,
		"Report resolved", note, &report.ID)
	return report, nil
}
