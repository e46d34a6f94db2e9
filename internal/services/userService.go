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

type UserService struct {
	users *mongo.Collection
	log   zerolog.Logger
}

func NewUserService(database *mongo.Database, log zerolog.Logger) *UserService {
	return &UserService{users: database.Collection(db.ColUsers), log: log}
}

// GetByID returns a user without the credential hash.
func (s *UserService) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return models.User{}, apperr.NotFound("user not found")
	}
	user.Password = ""
	return user, nil
}

// ProfileUpdate carries the self-editable profile fields.
type ProfileUpdate struct {
	Name       *string           `json:"name" validate:"omitempty,max=100"`
	University *string           `json:"university" validate:"omitempty,max=200"`
	Bio        *string           `json:"bio" validate:"omitempty,max=2000"`
	Skills     []string          `json:"skills"`
	Links      map[string]string `json:"links"`
}

// UpdateProfile applies a partial edit to the caller's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (models.User, error) {
	set := bson.M{"updated_at": time.Now()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.University != nil {
		set["university"] = *upd.University
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.Skills != nil {
		set["skills"] = upd.Skills
	}
	if upd.Links != nil {
		set["links"] = upd.Links
	}

	res := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var user models.User
	if err := res.Decode(&user); err != nil {
		return models.User{}, apperr.NotFound("user not found")
	}
	user.Password = ""
	return user, nil
}

// UserFilter narrows the user listing; all fields are optional.
type UserFilter struct {
	Query      string // substring match on name and university
	Skill      string
	Role       string
	ActiveOnly bool
}

// Search lists users matching the filter, newest first.
func (s *UserService) Search(ctx context.Context, f UserFilter, page, limit int64) ([]models.User, error) {
	filter := bson.M{}
	if f.Query != "" {
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": f.Query, "$options": "i"}},
			bson.M{"university": bson.M{"$regex": f.Query, "$options": "i"}},
		}
	}
	if f.Skill != "" {
		filter["skills"] = f.Skill
	}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.ActiveOnly {
		filter["is_active"] = true
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit).
		SetProjection(bson.M{"password": 0})

	cursor, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Internal("failed to list users", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, apperr.Internal("failed to decode users", err)
	}
	return users, nil
}

// SetRole changes a user's role; admin only, enforced at the route level.
func (s *UserService) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return apperr.Validation("invalid role")
	}
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now()}},
	)
	if err != nil {
		return apperr.Internal("failed to update role", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// SetActive activates or deactivates an account. Deactivation takes effect on
// the user's next request because the auth middleware revalidates the record.
func (s *UserService) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now()}},
	)
	if err != nil {
		return apperr.Internal("failed to update status", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}
