package services

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/mzhavoronkov/task-tracker/internal/models"
)

const maxCommentLength = 500

type commentServiceImpl struct {
	logger  zerolog.Logger
	storage Storage
}

func NewCommentService(
	logger zerolog.Logger,
	storage Storage,
) CommentService {
	return &commentServiceImpl{
		logger:  logger,
		storage: storage,
	}
}

func (s *commentServiceImpl) CreateComment(ctx context.Context, taskID int64, authorID, content string) (*models.Comment, error) {
	if content == "" || utf8.RuneCountInString(content) > maxCommentLength {
		s.logger.Error().
			Int("length", utf8.RuneCountInString(content)).
			Msg("invalid comment content")
		return nil, &FieldError{Field: "content", Reason: "must be between 1 and 500 characters"}
	}

	// Task existence is checked before anything is written.
	err := s.checkTaskExists(ctx, taskID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content:   content,
		TaskID:    taskID,
		UserID:    authorID,
		CreatedAt: time.Now(),
	}

	err = s.storage.CreateComment(ctx, comment)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to insert comment")
		return nil, err
	}

	s.logger.Info().
		Int64("comment_id", comment.ID).
		Int64("task_id", taskID).
		Msg("created comment")
	return comment, nil
}

func (s *commentServiceImpl) ListComments(ctx context.Context, taskID int64) ([]*models.Comment, error) {
	err := s.checkTaskExists(ctx, taskID)
	if err != nil {
		return nil, err
	}

	comments, err := s.storage.ListCommentsByTask(ctx, taskID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to select comments by task")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(comments)).
		Int64("task_id", taskID).
		Msg("selected comments by task")
	return comments, nil
}

func (s *commentServiceImpl) DeleteComment(ctx context.Context, commentID int64, requesterID string) error {
	comment, err := s.storage.GetCommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, ErrCommentNotFound) {
			s.logger.Error().
				Int64("comment_id", commentID).
				Msg("comment not found")
			return ErrCommentNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("comment_id", commentID).
			Msg("failed to select comment by id")
		return err
	}

	if comment.UserID != requesterID {
		s.logger.Error().
			Int64("comment_id", commentID).
			Str("user_id", requesterID).
			Msg("requester is not the comment author")
		return ErrNotCommentAuthor
	}

	err = s.storage.DeleteComment(ctx, commentID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("comment_id", commentID).
			Msg("failed to delete comment")
		return err
	}

	s.logger.Info().
		Int64("comment_id", commentID).
		Msg("deleted comment")
	return nil
}

func (s *commentServiceImpl) checkTaskExists(ctx context.Context, taskID int64) error {
	_, err := s.storage.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			s.logger.Error().
				Int64("task_id", taskID).
				Msg("task not found")
			return ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to select task by id")
		return err
	}
	return nil
}
