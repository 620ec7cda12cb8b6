package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mzhavoronkov/task-tracker/internal/auth"
	"github.com/mzhavoronkov/task-tracker/internal/models"
)

type authServiceImpl struct {
	logger  zerolog.Logger
	storage Storage
	tokens  *auth.TokenService
}

func NewAuthService(
	logger zerolog.Logger,
	storage Storage,
	tokens *auth.TokenService,
) AuthService {
	return &authServiceImpl{
		logger:  logger,
		storage: storage,
		tokens:  tokens,
	}
}

func (s *authServiceImpl) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	now := time.Now()
	user := &models.User{
		Name:      params.Name,
		Email:     params.Email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	userUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate user uuid")
		return nil, err
	}
	user.ID = userUUID.String()

	passwordHash, err := auth.HashPassword(params.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}
	user.Password = passwordHash

	err = s.storage.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			s.logger.Error().
				Str("email", user.Email).
				Msg("user with this email already exists")
			return nil, ErrEmailTaken
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("registered user")
	return user, nil
}

func (s *authServiceImpl) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	user, err := s.storage.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Error().
				Str("email", params.Email).
				Msg("user not found")
			return nil, ErrInvalidCredentials
		}

		s.logger.Error().
			Err(err).
			Str("email", params.Email).
			Msg("failed to select user by email")
		return nil, err
	}

	// A deactivated user fails exactly like a wrong password.
	if !user.IsActive {
		s.logger.Error().
			Str("user_id", user.ID).
			Msg("user is deactivated")
		return nil, ErrInvalidCredentials
	}

	if !auth.VerifyPassword(params.Password, user.Password) {
		s.logger.Error().
			Str("user_id", user.ID).
			Msg("passwords do not match")
		return nil, ErrInvalidCredentials
	}

	accessToken, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to issue access token")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("logged in")
	return &LoginResult{
		UserID:               user.ID,
		AccessToken:          accessToken,
		AccessTokenExpiresAt: expiresAt,
	}, nil
}

func (s *authServiceImpl) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to verify access token")
		return nil, ErrUnauthenticated
	}

	// Re-checked on every request so that deactivation invalidates
	// tokens issued before it.
	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Error().
				Str("user_id", userID).
				Msg("token subject not found")
			return nil, ErrUnauthenticated
		}

		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select user by id")
		return nil, err
	}
	if !user.IsActive {
		s.logger.Error().
			Str("user_id", user.ID).
			Msg("token subject is deactivated")
		return nil, ErrUnauthenticated
	}

	s.logger.Debug().
		Str("user_id", user.ID).
		Msg("authenticated user")
	return user, nil
}
