package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mzhavoronkov/task-tracker/internal/auth"
	"github.com/mzhavoronkov/task-tracker/internal/models"
)

type userServiceImpl struct {
	logger  zerolog.Logger
	storage Storage
}

func NewUserService(
	logger zerolog.Logger,
	storage Storage,
) UserService {
	return &userServiceImpl{
		logger:  logger,
		storage: storage,
	}
}

func (s *userServiceImpl) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.loadActiveUser(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("user_id", user.ID).
		Msg("selected user by id")
	return user, nil
}

func (s *userServiceImpl) UpdateUser(ctx context.Context, id string, patch UserPatch) (*models.User, error) {
	user, err := s.loadActiveUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Password != nil {
		passwordHash, err := auth.HashPassword(*patch.Password)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to hash password")
			return nil, err
		}
		user.Password = passwordHash
	}
	user.UpdatedAt = time.Now()

	err = s.storage.UpdateUser(ctx, user)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			s.logger.Error().
				Str("email", user.Email).
				Msg("user with this email already exists")
			return nil, ErrEmailTaken
		}

		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to update user")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("updated user")
	return user, nil
}

func (s *userServiceImpl) DeactivateUser(ctx context.Context, id string) error {
	err := s.storage.DeactivateUser(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Error().
				Str("user_id", id).
				Msg("user not found")
			return ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", id).
			Msg("failed to deactivate user")
		return err
	}

	s.logger.Info().
		Str("user_id", id).
		Msg("deactivated user")
	return nil
}

func (s *userServiceImpl) loadActiveUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.storage.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Error().
				Str("user_id", id).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", id).
			Msg("failed to select user by id")
		return nil, err
	}

	// A soft-deleted user is indistinguishable from a missing one.
	if !user.IsActive {
		s.logger.Error().
			Str("user_id", id).
			Msg("user is deactivated")
		return nil, ErrUserNotFound
	}
	return user, nil
}
