package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/collabnest/backend/internal/apperr"
)

const (
	PrivacyPublic  = "public"
	PrivacyPrivate = "private"
	PrivacyDraft   = "draft"

	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusOnHold    = "on-hold"
	StatusCancelled = "cancelled"

	MemberOwner       = "owner"
	MemberContributor = "contributor"
	MemberViewer      = "viewer"

	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"

	TaskTodo       = "todo"
	TaskInProgress = "in-progress"
	TaskCompleted  = "completed"
)

type Member struct {
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role         string             `bson:"role" json:"role"`
	JoinedAt     time.Time          `bson:"joined_at" json:"joined_at"`
	HasSignedNDA bool               `bson:"has_signed_nda" json:"has_signed_nda"`
}

type JoinRequest struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	UserID      primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Message     string              `bson:"message,omitempty" json:"message,omitempty"`
	Status      string              `bson:"status" json:"status"`
	RequestedAt time.Time           `bson:"requested_at" json:"requested_at"`
	RespondedBy *primitive.ObjectID `bson:"responded_by,omitempty" json:"responded_by,omitempty"`
	RespondedAt *time.Time          `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
}

type Task struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	AssigneeID  *primitive.ObjectID `bson:"assignee_id,omitempty" json:"assignee_id,omitempty"`
	DueDate     *time.Time          `bson:"due_date,omitempty" json:"due_date,omitempty"`
	Status      string              `bson:"status" json:"status"`
	CreatedBy   primitive.ObjectID  `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updated_at"`
}

// Project is the aggregate root: membership, join requests and tasks are
// embedded and every mutation goes through a load-mutate-save cycle on the
// whole document.
type Project struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID      primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Title        string             `bson:"title" json:"title" validate:"required,max=200"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty" validate:"max=5000"`
	Tags         []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Privacy      string             `bson:"privacy" json:"privacy" validate:"required,oneof=public private draft"`
	Status       string             `bson:"status" json:"status"`
	IsDeleted    bool               `bson:"is_deleted" json:"-"`
	ViewCount    int64              `bson:"view_count" json:"view_count"`
	LastActivity time.Time          `bson:"last_activity" json:"last_activity"`
	Members      []Member           `bson:"members" json:"members"`
	JoinRequests []JoinRequest      `bson:"join_requests" json:"join_requests,omitempty"`
	Tasks        []Task             `bson:"tasks" json:"tasks,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// NewProject creates an aggregate with the owner synthesized as its first
// member. The owner membership is never removed or demoted afterwards.
func NewProject(ownerID primitive.ObjectID, title, description, privacy string, tags []string, now time.Time) *Project {
	return &Project{
		ID:          primitive.NewObjectID(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Tags:        tags,
		Privacy:     privacy,
		Status:      StatusActive,
		Members: []Member{{
			UserID:   ownerID,
			Role:     MemberOwner,
			JoinedAt: now,
		}},
		LastActivity: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Member returns the membership entry for userID, or nil.
func (p *Project) Member(userID primitive.ObjectID) *Member {
	for i := range p.Members {
		if p.Members[i].UserID == userID {
			return &p.Members[i]
		}
	}
	return nil
}

// PendingRequest returns userID's pending join request, or nil.
func (p *Project) PendingRequest(userID primitive.ObjectID) *JoinRequest {
	for i := range p.JoinRequests {
		if p.JoinRequests[i].UserID == userID && p.JoinRequests[i].Status == RequestPending {
			return &p.JoinRequests[i]
		}
	}
	return nil
}

// Request returns a join request by id, or nil.
func (p *Project) Request(reqID primitive.ObjectID) *JoinRequest {
	for i := range p.JoinRequests {
		if p.JoinRequests[i].ID == reqID {
			return &p.JoinRequests[i]
		}
	}
	return nil
}

// Task returns a task by id, or nil.
func (p *Project) Task(taskID primitive.ObjectID) *Task {
	for i := range p.Tasks {
		if p.Tasks[i].ID == taskID {
			return &p.Tasks[i]
		}
	}
	return nil
}

// RequestJoin applies the join state machine for userID. On a public project
// the user becomes a viewer immediately and joined is true; otherwise a
// pending request is appended. The owner and existing members cannot request,
// and a second pending request is a conflict.
func (p *Project) RequestJoin(userID primitive.ObjectID, message string, now time.Time) (joined bool, err error) {
	if userID == p.OwnerID {
		return false, apperr.Validation("cannot request to join your own project")
	}
	if p.Member(userID) != nil {
		return false, apperr.Conflict("already a member of this project", "")
	}
	if p.PendingRequest(userID) != nil {
		return false, apperr.Conflict("a pending join request already exists", apperr.HintPendingExists)
	}
	if p.Privacy == PrivacyPublic {
		p.Members = append(p.Members, Member{
			UserID:   userID,
			Role:     MemberViewer,
			JoinedAt: now,
		})
		p.touch(now)
		return true, nil
	}
	p.JoinRequests = append(p.JoinRequests, JoinRequest{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Message:     message,
		Status:      RequestPending,
		RequestedAt: now,
	})
	p.touch(now)
	return false, nil
}

// DecideJoinRequest approves or rejects a pending request. Approval always
// grants the viewer role regardless of the request content; rejection leaves
// the request behind as rejected so the user may request again later.
func (p *Project) DecideJoinRequest(reqID, responderID primitive.ObjectID, approve bool, now time.Time) (*JoinRequest, error) {
	req := p.Request(reqID)
	if req == nil {
		return nil, apperr.NotFound("join request not found")
	}
	if req.Status != RequestPending {
		return nil, apperr.Conflict("join request already decided", "")
	}
	if approve {
		req.Status = RequestApproved
		if p.Member(req.UserID) == nil {
			p.Members = append(p.Members, Member{
				UserID:   req.UserID,
				Role:     MemberViewer,
				JoinedAt: now,
			})
		}
	} else {
		req.Status = RequestRejected
	}
	req.RespondedBy = &responderID
	req.RespondedAt = &now
	p.touch(now)
	return req, nil
}

// SignNDA marks the caller's membership as having signed the NDA.
func (p *Project) SignNDA(userID primitive.ObjectID, now time.Time) error {
	m := p.Member(userID)
	if m == nil {
		return apperr.Forbidden("not a member of this project", apperr.HintRequiresJoin)
	}
	m.HasSignedNDA = true
	p.touch(now)
	return nil
}

// RemoveMember drops a membership. The owner membership cannot be removed.
func (p *Project) RemoveMember(userID primitive.ObjectID, now time.Time) error {
	if userID == p.OwnerID {
		return apperr.Validation("the project owner cannot be removed")
	}
	for i := range p.Members {
		if p.Members[i].UserID == userID {
			p.Members = append(p.Members[:i], p.Members[i+1:]...)
			p.touch(now)
			return nil
		}
	}
	return apperr.NotFound("member not found")
}

// TaskUpdate carries the mutable task fields; nil pointers leave a field
// unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	AssigneeID  *primitive.ObjectID
	DueDate     *time.Time
	Status      *string
}

// ApplyTaskUpdate mutates a task and reports whether the update crossed the
// not-completed -> completed edge with an assignee set, which is the only
// transition that earns a trust credit. Re-completing an already completed
// task never credits again.
func (p *Project) ApplyTaskUpdate(taskID primitive.ObjectID, upd TaskUpdate, now time.Time) (task *Task, credit bool, err error) {
	t := p.Task(taskID)
	if t == nil {
		return nil, false, apperr.NotFound("task not found")
	}
	wasCompleted := t.Status == TaskCompleted
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.AssigneeID != nil {
		t.AssigneeID = upd.AssigneeID
	}
	if upd.DueDate != nil {
		t.DueDate = upd.DueDate
	}
	if upd.Status != nil {
		switch *upd.Status {
		case TaskTodo, TaskInProgress, TaskCompleted:
			t.Status = *upd.Status
		default:
			return nil, false, apperr.Validation("invalid task status")
		}
	}
	t.UpdatedAt = now
	p.touch(now)
	credit = !wasCompleted && t.Status == TaskCompleted && t.AssigneeID != nil
	return t, credit, nil
}

// RemoveTask deletes a task from the aggregate.
func (p *Project) RemoveTask(taskID primitive.ObjectID, now time.Time) error {
	for i := range p.Tasks {
		if p.Tasks[i].ID == taskID {
			p.Tasks = append(p.Tasks[:i], p.Tasks[i+1:]...)
			p.touch(now)
			return nil
		}
	}
	return apperr.NotFound("task not found")
}

// MarkDeleted soft-deletes the project: the document stays but every read
// path filters it out, and its status becomes cancelled.
func (p *Project) MarkDeleted(now time.Time) {
	p.IsDeleted = true
	p.Status = StatusCancelled
	p.touch(now)
}

func (p *Project) touch(now time.Time) {
	p.UpdatedAt = now
	p.LastActivity = now
}
