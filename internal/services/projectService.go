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

// ProjectService owns the project aggregate: every mutation loads the full
// document, applies the aggregate's own rules, and saves it back.
type ProjectService struct {
	projects *mongo.Collection
	trust    *TrustService
	notify   *NotificationService
	log      zerolog.Logger
}

func NewProjectService(database *mongo.Database, trust *TrustService, notify *NotificationService, log zerolog.Logger) *ProjectService {
	return &ProjectService{
		projects: database.Collection(db.ColProjects),
		trust:    trust,
		notify:   notify,
		log:      log,
	}
}

// load fetches a live (non-deleted) project.
func (s *ProjectService) load(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := s.projects.FindOne(ctx, bson.M{"_id": id, "is_deleted": false}).Decode(&project)
	if err != nil {
		return nil, apperr.NotFound("project not found")
	}
	return &project, nil
}

func (s *ProjectService) save(ctx context.Context, p *models.Project) error {
	if _, err := s.projects.ReplaceOne(ctx, bson.M{"_id": p.ID}, p); err != nil {
		return apperr.Internal("failed to save project", err)
	}
	return nil
}

// requireView maps a failed visibility check to the right error: drafts are
// hidden entirely, private projects tell the caller to join.
func requireView(p *models.Project, userID primitive.ObjectID) error {
	if policy.CanView(p, userID) {
		return nil
	}
	if p.Privacy == models.PrivacyDraft {
		return apperr.NotFound("project not found")
	}
	return apperr.Forbidden("membership required", apperr.HintRequiresJoin)
}

func requireEdit(p *models.Project, userID primitive.ObjectID) error {
	if err := requireView(p, userID); err != nil {
		return err
	}
	if !policy.CanEdit(p, userID) {
		return apperr.Forbidden("owner or contributor role required", "")
	}
	return nil
}

// Create makes a new project with the caller as owner and first member.
func (s *ProjectService) Create(ctx context.Context, ownerID primitive.ObjectID, title, description, privacy string, tags []string) (*models.Project, error) {
	project := models.NewProject(ownerID, title, description, privacy, tags, time.Now())
	if _, err := s.projects.InsertOne(ctx, project); err != nil {
		return nil, apperr.Internal("failed to create project", err)
	}
	return project, nil
}

// Get returns a project the caller may view and bumps its view counter. The
// $inc is fire-and-forget accuracy: concurrent views may interleave.
func (s *ProjectService) Get(ctx context.Context, id, viewerID primitive.ObjectID) (*models.Project, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireView(project, viewerID); err != nil {
		return nil, err
	}
	if _, err := s.projects.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"view_count": 1}}); err != nil {
		s.log.Warn().Err(err).Str("project_id", id.Hex()).Msg("failed to bump view count")
	}
	project.ViewCount++
	return project, nil
}

// ProjectFilter narrows the listing; all fields optional.
type ProjectFilter struct {
	Query   string // substring match on title and description
	Privacy string
	Status  string
	Tag     string
	Member  *primitive.ObjectID // only projects this user belongs to
}

// List returns projects visible to the viewer: public ones plus any the
// viewer is a member of (which covers their own drafts).
func (s *ProjectService) List(ctx context.Context, viewerID primitive.ObjectID, f ProjectFilter, page, limit int64) ([]models.Project, error) {
	filter := bson.M{
		"is_deleted": false,
		"$or": bson.A{
			bson.M{"privacy": models.PrivacyPublic},
			bson.M{"members.user_id": viewerID},
		},
	}
	if f.Query != "" {
		filter["$and"] = bson.A{bson.M{"$or": bson.A{
			bson.M{"title": bson.M{"$regex": f.Query, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": f.Query, "$options": "i"}},
		}}}
	}
	if f.Privacy != "" {
		filter["privacy"] = f.Privacy
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}
	if f.Member != nil {
		filter["members.user_id"] = *f.Member
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "last_activity", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.projects.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Internal("failed to list projects", err)
	}
	defer cursor.Close(ctx)

	projects := []models.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, apperr.Internal("failed to decode projects", err)
	}
	return projects, nil
}

// ProjectUpdate carries the editable project fields.
type ProjectUpdate struct {
	Title       *string  `json:"title" validate:"omitempty,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Tags        []string `json:"tags"`
	Privacy     *string  `json:"privacy" validate:"omitempty,oneof=public private draft"`
	Status      *string  `json:"status" validate:"omitempty,oneof=active completed on-hold cancelled"`
}

// Update applies a partial edit; requires edit capability. The owner is
// immutable after creation.
func (s *ProjectService) Update(ctx context.Context, id, editorID primitive.ObjectID, upd ProjectUpdate) (*models.Project, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireEdit(project, editorID); err != nil {
		return nil, err
	}

	if upd.Title != nil {
		project.Title = *upd.Title
	}
	if upd.Description != nil {
		project.Description = *upd.Description
	}
	if upd.Tags != nil {
		project.Tags = upd.Tags
	}
	if upd.Privacy != nil {
		project.Privacy = *upd.Privacy
	}
	if upd.Status != nil {
		project.Status = *upd.Status
	}
	project.UpdatedAt = time.Now()
	project.LastActivity = project.UpdatedAt

	if err := s.save(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// SoftDelete marks a project deleted; owner or admin only. The document is
// never physically removed.
func (s *ProjectService) SoftDelete(ctx context.Context, id, callerID primitive.ObjectID, isAdmin bool) error {
	project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if project.OwnerID != callerID && !isAdmin {
		return apperr.Forbidden("only the owner can delete a project", apperr.HintOwnerOnly)
	}
	project.MarkDeleted(time.Now())
	return s.save(ctx, project)
}

// RequestJoin runs the join state machine: instant viewer membership on
// public projects, a pending request otherwise.
func (s *ProjectService) RequestJoin(ctx context.Context, id, userID primitive.ObjectID, message string) (joined bool, err error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}
	// A draft is invisible to everyone but its owner, and the owner cannot
	// request, so a join attempt against a draft is a not-found.
	if project.Privacy == models.PrivacyDraft {
		return false, apperr.NotFound("project not found")
	}
	joined, err = project.RequestJoin(userID, message, time.Now())
	if err != nil {
		return false, err
	}
	if err := s.save(ctx, project); err != nil {
		return false, err
	}
	return joined, nil
}

// ListRequests returns the join requests; owner only.
func (s *ProjectService) ListRequests(ctx context.Context, id, callerID primitive.ObjectID) ([]models.JoinRequest, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != callerID {
		return nil, apperr.Forbidden("only the owner can review join requests", apperr.HintOwnerOnly)
	}
	if project.JoinRequests == nil {
		return []models.JoinRequest{}, nil
	}
	return project.JoinRequests, nil
}

// DecideRequest approves or rejects a pending join request; owner only. The
// requester is notified either way.
func (s *ProjectService) DecideRequest(ctx context.Context, id, reqID, callerID primitive.ObjectID, approve bool) error {
	project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if project.OwnerID != callerID {
		return apperr.Forbidden("only the owner can decide join requests", apperr.HintOwnerOnly)
	}
	req, err := project.DecideJoinRequest(reqID, callerID, approve, time.Now())
	if err != nil {
		return err
	}
	if err := s.save(ctx, project); err != nil {
		return err
	}

	if approve {
		s.notify.Notify(ctx, req.UserID, models.NotifyJoinApproved,
			"Join request approved", "You are now a member of "+project.Title, &project.ID)
	} else {
		s.notify.Notify(ctx, req.UserID, models.NotifyJoinRejected,
			"Join request rejected", "Your request to join "+project.Title+" was rejected", &project.ID)
	}
	return nil
}

// SignNDA records the caller's NDA signature on their own membership.
func (s *ProjectService) SignNDA(ctx context.Context, id, userID primitive.ObjectID) error {
	project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := project.SignNDA(userID, time.Now()); err != nil {
		return err
	}
	return s.save(ctx, project)
}

// RemoveMember lets the owner remove any member, or a member leave. The owner
// membership itself can never be removed.
func (s *ProjectService) RemoveMember(ctx context.Context, id, targetID, callerID primitive.ObjectID) error {
	project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if callerID != project.OwnerID && callerID != targetID {
		return apperr.Forbidden("only the owner can remove other members", apperr.HintOwnerOnly)
	}
	if err := project.RemoveMember(targetID, time.Now()); err != nil {
		return err
	}
	return s.save(ctx, project)
}

// AddTask creates a task inside the aggregate; requires edit capability.
func (s *ProjectService) AddTask(ctx context.Context, id, creatorID primitive.ObjectID, title, description string, assigneeID *primitive.ObjectID, dueDate *time.Time) (*models.Task, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireEdit(project, creatorID); err != nil {
		return nil, err
	}
	if assigneeID != nil && !policy.IsMember(project, *assigneeID) {
		return nil, apperr.Validation("assignee must be a project member")
	}

	now := time.Now()
	task := models.Task{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: description,
		AssigneeID:  assigneeID,
		DueDate:     dueDate,
		Status:      models.TaskTodo,
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	project.Tasks = append(project.Tasks, task)
	project.UpdatedAt = now
	project.LastActivity = now
	if err := s.save(ctx, project); err != nil {
		return nil, err
	}

	if assigneeID != nil && *assigneeID != creatorID {
		s.notify.Notify(ctx, *assigneeID, models.NotifyTaskAssigned,
			"Task assigned", title+" in "+project.Title, &project.ID)
	}
	return &task, nil
}

// ListTasks returns the embedded tasks; any viewer may read them.
func (s *ProjectService) ListTasks(ctx context.Context, id, viewerID primitive.ObjectID) ([]models.Task, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireView(project, viewerID); err != nil {
		return nil, err
	}
	if project.Tasks == nil {
		return []models.Task{}, nil
	}
	return project.Tasks, nil
}

// UpdateTask applies a task edit. Crossing into completed with an assignee
// credits the assignee's trust ledger exactly once.
func (s *ProjectService) UpdateTask(ctx context.Context, id, taskID, editorID primitive.ObjectID, upd models.TaskUpdate) (*models.Task, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireEdit(project, editorID); err != nil {
		return nil, err
	}
	if upd.AssigneeID != nil && !policy.IsMember(project, *upd.AssigneeID) {
		return nil, apperr.Validation("assignee must be a project member")
	}

	task, credit, err := project.ApplyTaskUpdate(taskID, upd, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, project); err != nil {
		return nil, err
	}

	if credit {
		if err := s.trust.CreditTaskCompletion(ctx, *task.AssigneeID, project.ID, task.ID); err != nil {
			// The completion itself stands; the missed credit is logged.
			s.log.Error().Err(err).
				Str("project_id", project.ID.Hex()).
				Str("task_id", task.ID.Hex()).
				Msg("failed to credit task completion")
		}
	}
	return task, nil
}

// DeleteTask removes a task; requires edit capability.
func (s *ProjectService) DeleteTask(ctx context.Context, id, taskID, editorID primitive.ObjectID) error {
	project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := requireEdit(project, editorID); err != nil {
		return err
	}
	if err := project.RemoveTask(taskID, time.Now()); err != nil {
		return err
	}
	return s.save(ctx, project)
}
