package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/collabnest/backend/internal/apperr"
)

func TestNewProjectOwnerMembership(t *testing.T) {
	owner := primitive.NewObjectID()
	p := NewProject(owner, "study group", "", PrivacyPublic, nil, time.Now())

	require.Len(t, p.Members, 1)
	assert.Equal(t, owner, p.Members[0].UserID)
	assert.Equal(t, MemberOwner, p.Members[0].Role)
	assert.Equal(t, StatusActive, p.Status)
}

func TestRequestJoinPublicInstant(t *testing.T) {
	owner := primitive.NewObjectID()
	p := NewProject(owner, "open project", "", PrivacyPublic, nil, time.Now())
	user := primitive.NewObjectID()

	joined, err := p.RequestJoin(user, "hi", time.Now())
	require.NoError(t, err)
	assert.True(t, joined)

	m := p.Member(user)
	require.NotNil(t, m)
	assert.Equal(t, MemberViewer, m.Role)
	assert.False(t, m.HasSignedNDA)
	assert.Empty(t, p.JoinRequests, "instant join must not leave a pending request")
}

func TestRequestJoinPrivatePending(t *testing.T) {
	owner := primitive.NewObjectID()
	p := NewProject(owner, "private project", "", PrivacyPrivate, nil, time.Now())
	user := primitive.NewObjectID()

	joined, err := p.RequestJoin(user, "let me in", time.Now())
	require.NoError(t, err)
	assert.False(t, joined)
	assert.Nil(t, p.Member(user))

	req := p.PendingRequest(user)
	require.NotNil(t, req)
	assert.Equal(t, RequestPending, req.Status)
}

func TestRequestJoinDuplicatePendingConflicts(t *testing.T) {
	owner := primitive.NewObjectID()
	p := NewProject(owner, "p", "", PrivacyPrivate, nil, time.Now())
	user := primitive.NewObjectID()

	_, err := p.RequestJoin(user, "", time.Now())
	require.NoError(t, err)

	_, err = p.RequestJoin(user, "", time.Now())
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.KindConflict, appErr.Kind)
	assert.Equal(t, apperr.HintPendingExists, appErr.Hint)

	// The pending invariant: exactly one pending request for the user.
	pending := 0
	for _, r := range p.JoinRequests {
		if r.UserID == user && r.Status == RequestPending {
			pending++
		}
	}
	assert.Equal(t, 1, pending)
}

func TestRequestJoinOwnerRejected(t *testing.T) {
	owner := primitive.NewObjectID()
	p := NewProject(owner, "p", "", PrivacyPrivate, nil, time.Now())

	_, err := p.RequestJoin(owner, "", time.Now())
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
}

func TestRequestJoinExistingMemberConflicts(t *testing.T) {
	owner := primitive.NewObjectID()
	p := NewProject(owner, "p", "", PrivacyPublic, nil, time.Now())
	user := primitive.NewObjectID()

	_, err := p.RequestJoin(user, "", time.Now())
	require.NoError(t, err)

	_, err = p.RequestJoin(user, "", time.Now())
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.KindConflict, appErr.Kind)
}

func TestApproveGrantsViewer(t *testing.T) {
	owner := primitive.NewObjectID()
	p := NewProject(owner, "p", "", PrivacyPrivate, nil, time.Now())
	user := primitive.NewObjectID()

	_, err := p.RequestJoin(user, "", time.Now())
	require.NoError(t, err)
	reqID := p.PendingRequest(user).ID

	req, err := p.DecideJoinRequest(reqID, owner, true, time.Now())
	require.NoError(t, err)
	assert.Equal(t, RequestApproved, req.Status)
	require.NotNil(t, req.RespondedBy)
	assert.Equal(t, owner, *req.RespondedBy)

	m := p.Member(user)
	require.NotNil(t, m)
	assert.Equal(t, MemberViewer, m.Role)
}

func TestRejectAllowsReRequest(t *testing.T) {
	owner := primitive.NewObjectID()
	p := NewProject(owner, "p", "", PrivacyPrivate, nil, time.Now())
	user := primitive.NewObjectID()

	_, err := p.RequestJoin(user, "", time.Now())
	require.NoError(t, err)
	reqID := p.PendingRequest(user).ID

	_, err = p.DecideJoinRequest(reqID, owner, false, time.Now())
	require.NoError(t, err)
	assert.Nil(t, p.Member(user))
	assert.Nil(t, p.PendingRequest(user))

	// The rejected request stays; a new pending one is allowed.
	_, err = p.RequestJoin(user, "second try", time.Now())
	require.NoError(t, err)
	assert.NotNil(t, p.PendingRequest(user))
	assert.Len(t, p.JoinRequests, 2)
}

func TestDecideAlreadyDecidedConflicts(t *testing.T) {
	owner := primitive.NewObjectID()
	p := NewProject(owner, "p", "", PrivacyPrivate, nil, time.Now())
	user := primitive.NewObjectID()

	_, err := p.RequestJoin(user, "", time.Now())
	require.NoError(t, err)
	reqID := p.PendingRequest(user).ID

	_, err = p.DecideJoinRequest(reqID, owner, true, time.Now())
	require.NoError(t, err)

	_, err = p.DecideJoinRequest(reqID, owner, false, time.Now())
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.KindConflict, appErr.Kind)
}

func TestRemoveMemberNeverRemovesOwner(t *testing.T) {
	owner := primitive.NewObjectID()
	p := NewProject(owner, "p", "", PrivacyPublic, nil, time.Now())
	user := primitive.NewObjectID()
	_, err := p.RequestJoin(user, "", time.Now())
	require.NoError(t, err)

	err = p.RemoveMember(owner, time.Now())
	require.Error(t, err)
	require.NotNil(t, p.Member(owner))

	require.NoError(t, p.RemoveMember(user, time.Now()))
	assert.Nil(t, p.Member(user))
	// The owner membership survives every mutation.
	assert.Equal(t, MemberOwner, p.Members[0].Role)
}

func TestSignNDA(t *testing.T) {
	owner := primitive.NewObjectID()
	p := NewProject(owner, "p", "", PrivacyPrivate, nil, time.Now())
	user := primitive.NewObjectID()
	_, err := p.RequestJoin(user, "", time.Now())
	require.NoError(t, err)
	reqID := p.PendingRequest(user).ID
	_, err = p.DecideJoinRequest(reqID, owner, true, time.Now())
	require.NoError(t, err)

	require.NoError(t, p.SignNDA(user, time.Now()))
	assert.True(t, p.Member(user).HasSignedNDA)

	err = p.SignNDA(primitive.NewObjectID(), time.Now())
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.HintRequiresJoin, appErr.Hint)
}

func newTaskProject(t *testing.T) (*Project, primitive.ObjectID, primitive.ObjectID) {
	t.Helper()
	owner := primitive.NewObjectID()
	p := NewProject(owner, "p", "", PrivacyPublic, nil, time.Now())
	assignee := primitive.NewObjectID()
	_, err := p.RequestJoin(assignee, "", time.Now())
	require.NoError(t, err)
	p.Tasks = append(p.Tasks, Task{
		ID:         primitive.NewObjectID(),
		Title:      "write report",
		AssigneeID: &assignee,
		Status:     TaskTodo,
		CreatedBy:  owner,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	})
	return p, owner, assignee
}

func TestTaskCompletionCreditsOnce(t *testing.T) {
	p, _, _ := newTaskProject(t)
	taskID := p.Tasks[0].ID
	completed := TaskCompleted

	_, credit, err := p.ApplyTaskUpdate(taskID, TaskUpdate{Status: &completed}, time.Now())
	require.NoError(t, err)
	assert.True(t, credit, "first completion with an assignee must credit")

	_, credit, err = p.ApplyTaskUpdate(taskID, TaskUpdate{Status: &completed}, time.Now())
	require.NoError(t, err)
	assert.False(t, credit, "re-completing an already completed task must not credit")
}

func TestTaskCompletionWithoutAssigneeNoCredit(t *testing.T) {
	owner := primitive.NewObjectID()
	p := NewProject(owner, "p", "", PrivacyPublic, nil, time.Now())
	p.Tasks = append(p.Tasks, Task{
		ID:        primitive.NewObjectID(),
		Title:     "unassigned",
		Status:    TaskTodo,
		CreatedBy: owner,
	})
	completed := TaskCompleted

	_, credit, err := p.ApplyTaskUpdate(p.Tasks[0].ID, TaskUpdate{Status: &completed}, time.Now())
	require.NoError(t, err)
	assert.False(t, credit)
}

func TestTaskCreditAfterReopen(t *testing.T) {
	p, _, _ := newTaskProject(t)
	taskID := p.Tasks[0].ID
	completed := TaskCompleted
	todo := TaskTodo

	_, credit, err := p.ApplyTaskUpdate(taskID, TaskUpdate{Status: &completed}, time.Now())
	require.NoError(t, err)
	require.True(t, credit)

	_, credit, err = p.ApplyTaskUpdate(taskID, TaskUpdate{Status: &todo}, time.Now())
	require.NoError(t, err)
	require.False(t, credit)

	// Reopening and completing again crosses the edge again.
	_, credit, err = p.ApplyTaskUpdate(taskID, TaskUpdate{Status: &completed}, time.Now())
	require.NoError(t, err)
	assert.True(t, credit)
}

func TestTaskInvalidStatus(t *testing.T) {
	p, _, _ := newTaskProject(t)
	bogus := "done"

	_, _, err := p.ApplyTaskUpdate(p.Tasks[0].ID, TaskUpdate{Status: &bogus}, time.Now())
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
}

func TestMarkDeleted(t *testing.T) {
	owner := primitive.NewObjectID()
	p := NewProject(owner, "p", "", PrivacyPublic, nil, time.Now())

	p.MarkDeleted(time.Now())
	assert.True(t, p.IsDeleted)
	assert.Equal(t, StatusCancelled, p.Status)
}
