package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/yukikurage/household-api/internal/auth"
	"github.com/yukikurage/household-api/internal/constants"
	"github.com/yukikurage/household-api/internal/dto"
	apierrors "github.com/yukikurage/household-api/internal/errors"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidEmail    = apierrors.NewBadRequest("A valid email is required.")
	ErrInvalidUserName = apierrors.NewBadRequest("Name cannot be empty.")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	store       *repository.Store
	tokens      *auth.TokenManager
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(store *repository.Store, tokens *auth.TokenManager, broadcaster realtime.Broadcaster, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:       store,
		tokens:      tokens,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateProfileInput holds the profile fields to change.
type UpdateProfileInput struct {
	Name            *string
	ProfileImageURL *string
}

// Session is an authenticated user with a freshly issued token pair.
type Session struct {
	User   dto.UserDTO
	Tokens *auth.TokenPair
}

// Register creates a new user and signs them in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidUserName
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.store.Users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hashedPassword),
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.Uint64("user_id", user.ID))
	return s.session(user)
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	user, err := s.store.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.session(user)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	user, err := s.store.Users.FindByID(ctx, userID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return s.session(user)
}

// GetCurrentUser retrieves the authenticated user.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uint64) (*dto.UserDTO, error) {
	user, err := s.store.Users.FindByID(ctx, userID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "find user")
	}
	out := dto.ToUserDTO(*user)
	return &out, nil
}

// UpdateProfile changes the caller's name or avatar and tells every household
// they belong to.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint64, input UpdateProfileInput) (*dto.UserDTO, error) {
	user, err := s.store.Users.FindByID(ctx, userID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "find user")
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidUserName
		}
		user.Name = name
	}
	if input.ProfileImageURL != nil {
		user.ProfileImageURL = strings.TrimSpace(*input.ProfileImageURL)
	}
	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	out := dto.ToUserDTO(*user)
	memberships, err := s.store.Members.ListActiveByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to list memberships for profile broadcast", zap.Uint64("user_id", userID), zap.Error(err))
		return &out, nil
	}
	summary := dto.ToUserSummaryDTO(*user)
	for _, m := range memberships {
		toHousehold(s.broadcaster, m.HouseholdID, EventUserUpdated, summary)
	}
	toUser(s.broadcaster, userID, EventUserUpdated, &out)
	return &out, nil
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	tokens, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return &Session{User: dto.ToUserDTO(*user), Tokens: tokens}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
