package bookmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-korea-tour-explorer/app/observability/metrics"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository persists users and bookmarks. Every call carries the caller's
// external identity, which row-level security policies key on.
type Repository interface {
	FindUserIDByExternalID(ctx context.Context, externalID string) (uuid.UUID, bool, error)
	UpsertUser(ctx context.Context, externalID string, email *string) (*types.User, error)
	Exists(ctx context.Context, externalID string, userID uuid.UUID, contentID string) (bool, error)
	Insert(ctx context.Context, externalID string, userID uuid.UUID, contentID string) (bool, error)
	Delete(ctx context.Context, externalID string, userID uuid.UUID, contentID string) (bool, error)
	ListByUser(ctx context.Context, externalID string, userID uuid.UUID) ([]types.Bookmark, error)
}

// TxBeginner is satisfied by *pgxpool.Pool and by pgxmock pools.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type RepositoryImpl struct {
	logger  *slog.Logger
	pgpool  TxBeginner
	metrics *metrics.AppMetrics
}

func NewRepository(pgpool TxBeginner, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger:  logger.With(slog.String("component", "BookmarkRepository")),
		pgpool:  pgpool,
		metrics: metrics.Get(),
	}
}

// withIdentity runs fn in a transaction scoped to externalID. set_config with
// is_local=true keeps the setting from leaking to other pooled sessions.
func (r *RepositoryImpl) withIdentity(ctx context.Context, op, externalID string, fn func(tx pgx.Tx) error) (err error) {
	ctx, span := otel.Tracer("BookmarkRepository").Start(ctx, op, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
	))
	defer span.End()

	start := time.Now()
	attrs := metric.WithAttributes(attribute.String("operation", op))
	defer func() {
		r.metrics.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
		r.metrics.BookmarkOpsTotal.Add(ctx, 1, attrs)
		if err != nil {
			r.metrics.DbQueryErrorsTotal.Add(ctx, 1, attrs)
			span.RecordError(err)
			span.SetStatus(codes.Error, op+" failed")
			return
		}
		span.SetStatus(codes.Ok, "")
	}()

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, `SELECT set_config('request.jwt.claim.sub', $1, true)`, externalID); err != nil {
		return fmt.Errorf("failed to set request identity: %w", err)
	}

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) FindUserIDByExternalID(ctx context.Context, externalID string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	found := true
	err := r.withIdentity(ctx, "FindUserIDByExternalID", externalID, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `SELECT id FROM users WHERE external_id = $1`, externalID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to query user: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, found, nil
}

func (r *RepositoryImpl) UpsertUser(ctx context.Context, externalID string, email *string) (*types.User, error) {
	var u types.User
	err := r.withIdentity(ctx, "UpsertUser", externalID, func(tx pgx.Tx) error {
		query := `
			INSERT INTO users (external_id, email)
			VALUES ($1, $2)
			ON CONFLICT (external_id) DO UPDATE
				SET email = COALESCE(EXCLUDED.email, users.email)
			RETURNING id, external_id, email, created_at`
		if err := tx.QueryRow(ctx, query, externalID, email).Scan(&u.ID, &u.ExternalID, &u.Email, &u.CreatedAt); err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.InfoContext(ctx, "User synced", slog.String("user_id", u.ID.String()))
	return &u, nil
}

func (r *RepositoryImpl) Exists(ctx context.Context, externalID string, userID uuid.UUID, contentID string) (bool, error) {
	var exists bool
	err := r.withIdentity(ctx, "Exists", externalID, func(tx pgx.Tx) error {
		query := `SELECT EXISTS (SELECT 1 FROM bookmarks WHERE user_id = $1 AND content_id = $2)`
		if err := tx.QueryRow(ctx, query, userID, contentID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check bookmark: %w", err)
		}
		return nil
	})
	return exists, err
}

// Insert adds a bookmark. It reports false, nil when the bookmark already exists.
func (r *RepositoryImpl) Insert(ctx context.Context, externalID string, userID uuid.UUID, contentID string) (bool, error) {
	created := false
	err := r.withIdentity(ctx, "Insert", externalID, func(tx pgx.Tx) error {
		query := `
			INSERT INTO bookmarks (user_id, content_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, content_id) DO NOTHING
			RETURNING id`
		var id uuid.UUID
		err := tx.QueryRow(ctx, query, userID, contentID).Scan(&id)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil
		case err != nil:
			return fmt.Errorf("failed to insert bookmark: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// Delete removes a bookmark. It reports whether a row was removed.
func (r *RepositoryImpl) Delete(ctx context.Context, externalID string, userID uuid.UUID, contentID string) (bool, error) {
	var removed bool
	err := r.withIdentity(ctx, "Delete", externalID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM bookmarks WHERE user_id = $1 AND content_id = $2`, userID, contentID)
		if err != nil {
			return fmt.Errorf("failed to delete bookmark: %w", err)
		}
		removed = tag.RowsAffected() > 0
		return nil
	})
	return removed, err
}

func (r *RepositoryImpl) ListByUser(ctx context.Context, externalID string, userID uuid.UUID) ([]types.Bookmark, error) {
	bookmarks := []types.Bookmark{}
	err := r.withIdentity(ctx, "ListByUser", externalID, func(tx pgx.Tx) error {
		query := `
			SELECT id, user_id, content_id, created_at
			FROM bookmarks
			WHERE user_id = $1
			ORDER BY created_at DESC`
		rows, err := tx.Query(ctx, query, userID)
		if err != nil {
			return fmt.Errorf("failed to query bookmarks: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var b types.Bookmark
			if err := rows.Scan(&b.ID, &b.UserID, &b.ContentID, &b.CreatedAt); err != nil {
				return fmt.Errorf("failed to scan bookmark: %w", err)
			}
			bookmarks = append(bookmarks, b)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating bookmarks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bookmarks, nil
}
