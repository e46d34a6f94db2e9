package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/collabnest/backend/internal/apperr"
	"github.com/collabnest/backend/internal/db"
	"github.com/collabnest/backend/internal/models"
)

type AuthService struct {
	users      *mongo.Collection
	jwtSecret  []byte
	jwtExpiry  time.Duration
	bcryptCost int
	log        zerolog.Logger
}

func NewAuthService(database *mongo.Database, jwtSecret string, jwtExpiryHours, bcryptCost int, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:      database.Collection(db.ColUsers),
		jwtSecret:  []byte(jwtSecret),
		jwtExpiry:  time.Duration(jwtExpiryHours) * time.Hour,
		bcryptCost: bcryptCost,
		log:        log,
	}
}

// HashPassword hashes a password using bcrypt.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	return string(hash), err
}

// VerifyPassword compares a plain password with a hashed password.
func (s *AuthService) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken signs a JWT carrying the user id and role.
func (s *AuthService) GenerateToken(userID, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// Register creates a new user account. Every account starts as a regular
// active user with the default trust score; the role field in the request is
// ignored.
func (s *AuthService) Register(ctx context.Context, email, password, name, university string) (models.User, error) {
	hashed, err := s.HashPassword(password)
	if err != nil {
		return models.User{}, apperr.Internal("failed to hash password", err)
	}

	now := time.Now()
	user := models.User{
		ID:         primitive.NewObjectID(),
		Email:      email,
		Password:   hashed,
		Name:       name,
		University: university,
		TrustScore: models.TrustDefault,
		Role:       models.RoleUser,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, apperr.Conflict("email already in use", "")
		}
		return models.User{}, apperr.Internal("failed to create user", err)
	}

	user.Password = ""
	return user, nil
}

// Login authenticates a user and returns a signed token plus the user record.
// Deactivated accounts cannot log in.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return "", models.User{}, apperr.Unauthorized("invalid credentials")
	}
	if !s.VerifyPassword(password, user.Password) {
		return "", models.User{}, apperr.Unauthorized("invalid credentials")
	}
	if !user.IsActive {
		return "", models.User{}, apperr.Forbidden("account is deactivated", "")
	}

	token, err := s.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		return "", models.User{}, apperr.Internal("failed to sign token", err)
	}
	user.Password = ""
	return token, user, nil
}
