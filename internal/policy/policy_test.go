package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/collabnest/backend/internal/models"
)

func newTestProject(privacy string) (*models.Project, primitive.ObjectID) {
	owner := primitive.NewObjectID()
	return models.NewProject(owner, "robotics", "campus robotics team", privacy, nil, time.Now()), owner
}

func addMember(p *models.Project, role string, signedNDA bool) primitive.ObjectID {
	id := primitive.NewObjectID()
	p.Members = append(p.Members, models.Member{
		UserID:       id,
		Role:         role,
		JoinedAt:     time.Now(),
		HasSignedNDA: signedNDA,
	})
	return id
}

func TestCanViewPublic(t *testing.T) {
	p, owner := newTestProject(models.PrivacyPublic)
	stranger := primitive.NewObjectID()

	assert.True(t, CanView(p, owner))
	assert.True(t, CanView(p, stranger))
}

func TestCanViewDraftOwnerOnly(t *testing.T) {
	p, owner := newTestProject(models.PrivacyDraft)
	stranger := primitive.NewObjectID()

	assert.True(t, CanView(p, owner))
	assert.False(t, CanView(p, stranger))
}

func TestCanViewPrivateMembersOnly(t *testing.T) {
	p, owner := newTestProject(models.PrivacyPrivate)
	member := addMember(p, models.MemberViewer, false)
	stranger := primitive.NewObjectID()

	assert.True(t, CanView(p, owner))
	assert.True(t, CanView(p, member))
	assert.False(t, CanView(p, stranger))
}

func TestOwnerAlwaysViews(t *testing.T) {
	for _, privacy := range []string{models.PrivacyPublic, models.PrivacyPrivate, models.PrivacyDraft} {
		p, owner := newTestProject(privacy)
		assert.True(t, CanView(p, owner), "privacy=%s", privacy)
	}
}

func TestCanEditByRole(t *testing.T) {
	p, owner := newTestProject(models.PrivacyPublic)
	contributor := addMember(p, models.MemberContributor, false)
	viewer := addMember(p, models.MemberViewer, false)
	stranger := primitive.NewObjectID()

	assert.True(t, CanEdit(p, owner))
	assert.True(t, CanEdit(p, contributor))
	assert.False(t, CanEdit(p, viewer))
	assert.False(t, CanEdit(p, stranger))
}

func TestRoleOf(t *testing.T) {
	p, owner := newTestProject(models.PrivacyPublic)
	viewer := addMember(p, models.MemberViewer, false)

	assert.Equal(t, models.MemberOwner, RoleOf(p, owner))
	assert.Equal(t, models.MemberViewer, RoleOf(p, viewer))
	assert.Equal(t, "", RoleOf(p, primitive.NewObjectID()))
}

func TestCanViewContentNDAGate(t *testing.T) {
	p, owner := newTestProject(models.PrivacyPrivate)
	signed := addMember(p, models.MemberViewer, true)
	unsigned := addMember(p, models.MemberViewer, false)

	assert.True(t, CanViewContent(p, owner), "owner is exempt from the NDA gate")
	assert.True(t, CanViewContent(p, signed))
	assert.False(t, CanViewContent(p, unsigned))
}

func TestCanViewContentPublicIgnoresNDA(t *testing.T) {
	p, _ := newTestProject(models.PrivacyPublic)
	member := addMember(p, models.MemberViewer, false)

	assert.True(t, CanViewContent(p, member))
	assert.True(t, CanViewContent(p, primitive.NewObjectID()))
}
