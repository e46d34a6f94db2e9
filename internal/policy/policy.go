// Package policy holds the access-control predicates for project resources.
// Every function is pure: it inspects the loaded aggregate and a user id and
// never touches the database.
package policy

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/collabnest/backend/internal/models"
)

// IsMember reports whether userID has a membership entry.
func IsMember(p *models.Project, userID primitive.ObjectID) bool {
	return p.Member(userID) != nil
}

// RoleOf returns the membership role for userID, or "" for non-members. The
// owner always ranks as owner even though the entry is synthesized at
// creation rather than granted.
func RoleOf(p *models.Project, userID primitive.ObjectID) string {
	if userID == p.OwnerID {
		return models.MemberOwner
	}
	if m := p.Member(userID); m != nil {
		return m.Role
	}
	return ""
}

// CanView decides basic visibility: public projects are open to everyone,
// drafts only to their owner, private projects to members.
func CanView(p *models.Project, userID primitive.ObjectID) bool {
	switch p.Privacy {
	case models.PrivacyPublic:
		return true
	case models.PrivacyDraft:
		return userID == p.OwnerID
	default:
		return IsMember(p, userID)
	}
}

// CanEdit is true for the owner and contributors; viewers and non-members
// cannot mutate the project.
func CanEdit(p *models.Project, userID primitive.ObjectID) bool {
	switch RoleOf(p, userID) {
	case models.MemberOwner, models.MemberContributor:
		return true
	}
	return false
}

// CanViewContent gates project content (chat, attachments): on top of
// CanView, private projects require the member to have signed the NDA. The
// owner is exempt.
func CanViewContent(p *models.Project, userID primitive.ObjectID) bool {
	if !CanView(p, userID) {
		return false
	}
	if p.Privacy != models.PrivacyPrivate || userID == p.OwnerID {
		return true
	}
	m := p.Member(userID)
	return m != nil && m.HasSignedNDA
}
