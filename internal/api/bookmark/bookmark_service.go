package bookmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	appMiddleware "github.com/FACorreiaa/go-korea-tour-explorer/app/middleware"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/types"
)

var (
	ErrAuthRequired     = errors.New("authentication required")
	ErrUserNotFound     = errors.New("local user not found")
	ErrInvalidContentID = errors.New("invalid content id")
)

var _ Service = (*ServiceImpl)(nil)

// Service manages the caller's bookmarks. The caller is read from the
// request context.
type Service interface {
	IsBookmarked(ctx context.Context, contentID string) (bool, error)
	AddBookmark(ctx context.Context, contentID string) error
	RemoveBookmark(ctx context.Context, contentID string) error
	ListBookmarks(ctx context.Context) ([]types.Bookmark, error)
	ResolveLocalUserID(ctx context.Context, externalID string) (uuid.UUID, bool, error)
	EnsureUser(ctx context.Context, externalID, email string) (*types.User, error)
}

type ServiceImpl struct {
	logger   *slog.Logger
	repo     Repository
	validate *validator.Validate
}

func NewServiceImpl(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger.With(slog.String("component", "BookmarkService")),
		repo:     repo,
		validate: validator.New(),
	}
}

// ResolveLocalUserID maps an identity-provider subject to the local users.id.
func (s *ServiceImpl) ResolveLocalUserID(ctx context.Context, externalID string) (uuid.UUID, bool, error) {
	if externalID == "" {
		return uuid.Nil, false, nil
	}
	id, found, err := s.repo.FindUserIDByExternalID(ctx, externalID)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to resolve local user: %w", err)
	}
	return id, found, nil
}

func (s *ServiceImpl) EnsureUser(ctx context.Context, externalID, email string) (*types.User, error) {
	if externalID == "" {
		return nil, ErrAuthRequired
	}
	var emailPtr *string
	if e := strings.TrimSpace(email); e != "" {
		emailPtr = &e
	}
	return s.repo.UpsertUser(ctx, externalID, emailPtr)
}

// IsBookmarked reports false for anonymous callers and callers without a local
// user row; only store failures are returned as errors.
func (s *ServiceImpl) IsBookmarked(ctx context.Context, contentID string) (bool, error) {
	contentID, err := s.checkContentID(contentID)
	if err != nil {
		return false, err
	}
	id, ok := appMiddleware.IdentityFromContext(ctx)
	if !ok {
		return false, nil
	}
	userID, found, err := s.ResolveLocalUserID(ctx, id.ExternalID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return s.repo.Exists(ctx, id.ExternalID, userID, contentID)
}

// AddBookmark is idempotent: adding an existing bookmark succeeds.
func (s *ServiceImpl) AddBookmark(ctx context.Context, contentID string) error {
	contentID, err := s.checkContentID(contentID)
	if err != nil {
		return err
	}
	externalID, userID, err := s.requireUser(ctx)
	if err != nil {
		return err
	}
	created, err := s.repo.Insert(ctx, externalID, userID, contentID)
	if err != nil {
		return err
	}
	if !created {
		s.logger.DebugContext(ctx, "Bookmark already present", slog.String("content_id", contentID))
	}
	return nil
}

// RemoveBookmark succeeds when the bookmark does not exist.
func (s *ServiceImpl) RemoveBookmark(ctx context.Context, contentID string) error {
	contentID, err := s.checkContentID(contentID)
	if err != nil {
		return err
	}
	externalID, userID, err := s.requireUser(ctx)
	if err != nil {
		return err
	}
	_, err = s.repo.Delete(ctx, externalID, userID, contentID)
	return err
}

// ListBookmarks returns the caller's bookmarks, newest first. Anonymous or
// unknown callers get an empty list, and so does a store failure.
func (s *ServiceImpl) ListBookmarks(ctx context.Context) ([]types.Bookmark, error) {
	id, ok := appMiddleware.IdentityFromContext(ctx)
	if !ok {
		return []types.Bookmark{}, nil
	}
	userID, found, err := s.ResolveLocalUserID(ctx, id.ExternalID)
	if err != nil {
		s.logger.WarnContext(ctx, "User lookup failed, returning no bookmarks", slog.Any("error", err))
		return []types.Bookmark{}, nil
	}
	if !found {
		return []types.Bookmark{}, nil
	}
	bookmarks, err := s.repo.ListByUser(ctx, id.ExternalID, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "Bookmark listing failed, returning no bookmarks", slog.Any("error", err))
		return []types.Bookmark{}, nil
	}
	return bookmarks, nil
}

func (s *ServiceImpl) requireUser(ctx context.Context) (string, uuid.UUID, error) {
	id, ok := appMiddleware.IdentityFromContext(ctx)
	if !ok {
		return "", uuid.Nil, ErrAuthRequired
	}
	userID, found, err := s.ResolveLocalUserID(ctx, id.ExternalID)
	if err != nil {
		return "", uuid.Nil, err
	}
	if !found {
		s.logger.WarnContext(ctx, "No local user for identity", slog.String("external_id", id.ExternalID))
		return "", uuid.Nil, ErrUserNotFound
	}
	return id.ExternalID, userID, nil
}

func (s *ServiceImpl) checkContentID(contentID string) (string, error) {
	contentID = strings.TrimSpace(contentID)
	if err := s.validate.Var(contentID, "required,numeric,max=20"); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidContentID, contentID)
	}
	return contentID, nil
}
