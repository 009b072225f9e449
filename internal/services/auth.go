package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
	"github.com/AnshRaj112/mindfulkids-backend/internal/repository"
	"github.com/AnshRaj112/mindfulkids-backend/pkg/utils"
)

type SignUpInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required,max=120"`
	Role        string `json:"role" validate:"required"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is what a successful sign-in hands back to the client.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService struct {
	store    repository.Store
	sessions *SessionStore
	log      logger.Logger
	now      func() time.Time
}

func NewAuthService(store repository.Store, sessions *SessionStore, log logger.Logger) *AuthService {
	return &AuthService{
		store:    store,
		sessions: sessions,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SignUp registers a parent or therapist account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	role := models.Role(in.Role)
	if !role.Valid() {
		return nil, apperrors.InvalidInput("role", in.Role)
	}
	if !models.SignupRoles[role] {
		return nil, apperrors.Forbidden("this role cannot be chosen at sign up")
	}

	user, err := s.createUser(ctx, in.Email, in.Password, in.DisplayName, role)
	if err != nil {
		return nil, err
	}

	s.log.Info("user signed up", map[string]interface{}{"user_id": user.ID, "role": user.Role})
	return s.startSession(ctx, user)
}

// ProvisionAdmin creates a platform admin. It is only reachable from operator tooling.
func (s *AuthService) ProvisionAdmin(ctx context.Context, email, password, displayName string) (*models.User, error) {
	in := SignUpInput{Email: email, Password: password, DisplayName: displayName, Role: string(models.RolePlatformAdmin)}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	user, err := s.createUser(ctx, email, password, displayName, models.RolePlatformAdmin)
	if err != nil {
		return nil, err
	}
	s.log.Info("platform admin provisioned", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, email, password, displayName string, role models.Role) (*models.User, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		ID:           uuid.NewString(),
		CreatedAt:    s.now(),
		Email:        models.NormalizeEmail(email),
		DisplayName:  strings.TrimSpace(displayName),
		Role:         role,
		IsActive:     true,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.New(apperrors.CodeConflict, "an account with this e-mail already exists")
		}
		return nil, err
	}
	return user, nil
}

// SignIn checks the credentials and replaces any session the user already had.
func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (*Session, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	invalid := apperrors.Unauthorized("invalid email or password")

	user, err := s.store.GetUserByEmail(ctx, models.NormalizeEmail(in.Email))
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	ok, err := utils.VerifyPassword(in.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, invalid
	}
	if !user.IsActive {
		return nil, apperrors.Forbidden("this account has been deactivated")
	}
	return s.startSession(ctx, user)
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (*Session, error) {
	token, err := s.sessions.Create(ctx, user.Identity())
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

func (s *AuthService) SignOut(ctx context.Context, token string) error {
	return s.sessions.Invalidate(ctx, token)
}

// Resolve turns a bearer token into an identity. Unknown tokens resolve to the zero identity.
func (s *AuthService) Resolve(ctx context.Context, token string) (models.Identity, error) {
	identity, ok, err := s.sessions.Resolve(ctx, token)
	if err != nil || !ok {
		return models.Identity{}, err
	}
	return identity, nil
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, identity models.Identity) (*models.User, error) {
	if !identity.Authenticated() {
		return nil, apperrors.Unauthorized("sign in to continue")
	}
	return s.store.GetUser(ctx, identity.UserID)
}
