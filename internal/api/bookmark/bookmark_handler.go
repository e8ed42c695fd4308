package bookmark

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	appMiddleware "github.com/FACorreiaa/go-korea-tour-explorer/app/middleware"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/types"
)

type HandlerImpl struct {
	service  Service
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger, validate: validator.New()}
}

// IsBookmarked godoc
// @Summary      Check bookmark
// @Description  Reports whether the caller bookmarked the attraction. Anonymous callers always get false.
// @Tags         Bookmarks
// @Produce      json
// @Param        contentID path string true "Content ID"
// @Success      200 {object} types.BookmarkStatus
// @Failure      400 {object} types.Response "Invalid content id"
// @Router       /bookmarks/{contentID} [get]
func (h *HandlerImpl) IsBookmarked(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("BookmarkHandler").Start(r.Context(), "IsBookmarked", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/bookmarks/{contentID}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "IsBookmarked"))

	contentID := chi.URLParam(r, "contentID")
	span.SetAttributes(attribute.String("content.id", contentID))

	bookmarked, err := h.service.IsBookmarked(ctx, contentID)
	if err != nil {
		// The check degrades to false; a store outage must not break detail pages.
		if errors.Is(err, ErrInvalidContentID) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		span.RecordError(err)
		l.WarnContext(ctx, "Bookmark check failed, reporting false", slog.Any("error", err))
		bookmarked = false
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.BookmarkStatus{ContentID: contentID, Bookmarked: bookmarked})
}

// AddBookmark godoc
// @Summary      Add bookmark
// @Description  Bookmarks an attraction for the caller. Adding an existing bookmark succeeds.
// @Tags         Bookmarks
// @Produce      json
// @Param        contentID path string true "Content ID"
// @Success      200 {object} types.BookmarkStatus
// @Failure      400 {object} types.Response "Invalid content id"
// @Failure      401 {object} types.Response "Authentication required"
// @Failure      404 {object} types.Response "User not synced"
// @Security     BearerAuth
// @Router       /bookmarks/{contentID} [put]
func (h *HandlerImpl) AddBookmark(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("BookmarkHandler").Start(r.Context(), "AddBookmark", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/bookmarks/{contentID}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "AddBookmark"))

	contentID := chi.URLParam(r, "contentID")
	if err := h.service.AddBookmark(ctx, contentID); err != nil {
		span.RecordError(err)
		h.writeError(w, r, l, err)
		return
	}
	l.InfoContext(ctx, "Bookmark added", slog.String("content_id", contentID))
	api.WriteJSONResponse(w, r, http.StatusOK, types.BookmarkStatus{ContentID: contentID, Bookmarked: true})
}

// RemoveBookmark godoc
// @Summary      Remove bookmark
// @Description  Removes the caller's bookmark. Removing a missing bookmark succeeds.
// @Tags         Bookmarks
// @Produce      json
// @Param        contentID path string true "Content ID"
// @Success      200 {object} types.BookmarkStatus
// @Failure      401 {object} types.Response "Authentication required"
// @Security     BearerAuth
// @Router       /bookmarks/{contentID} [delete]
func (h *HandlerImpl) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("BookmarkHandler").Start(r.Context(), "RemoveBookmark", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/bookmarks/{contentID}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "RemoveBookmark"))

	contentID := chi.URLParam(r, "contentID")
	if err := h.service.RemoveBookmark(ctx, contentID); err != nil {
		span.RecordError(err)
		h.writeError(w, r, l, err)
		return
	}
	l.InfoContext(ctx, "Bookmark removed", slog.String("content_id", contentID))
	api.WriteJSONResponse(w, r, http.StatusOK, types.BookmarkStatus{ContentID: contentID, Bookmarked: false})
}

// SyncUser godoc
// @Summary      Sync user
// @Description  Creates or updates the local user row for the authenticated identity.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        request body types.SyncUserRequest false "Optional email override"
// @Success      200 {object} types.User
// @Failure      400 {object} types.Response "Invalid request body"
// @Failure      401 {object} types.Response "Authentication required"
// @Security     BearerAuth
// @Router       /users/sync [post]
func (h *HandlerImpl) SyncUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("BookmarkHandler").Start(r.Context(), "SyncUser", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/users/sync"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "SyncUser"))

	id, ok := appMiddleware.IdentityFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	req := types.SyncUserRequest{Email: id.Email}
	if r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0 {
		if err := api.DecodeJSONBody(w, r, &req); err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if req.Email == "" {
			req.Email = id.Email
		}
	}
	if err := h.validate.Struct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, api.ValidationMessage(err))
		return
	}

	user, err := h.service.EnsureUser(ctx, id.ExternalID, req.Email)
	if err != nil {
		span.RecordError(err)
		h.writeError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, user)
}

func (h *HandlerImpl) writeError(w http.ResponseWriter, r *http.Request, l *slog.Logger, err error) {
	switch {
	case errors.Is(err, ErrInvalidContentID):
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAuthRequired):
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, ErrUserNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "User not found, sync the user first")
	default:
		l.ErrorContext(r.Context(), "Bookmark store failure", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update bookmark")
	}
}
