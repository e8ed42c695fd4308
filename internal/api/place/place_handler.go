package place

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// ListPlaces godoc
// @Summary      List or search attractions
// @Description  Keyword search when keyword is set, area based list otherwise. Twenty rows per page.
// @Tags         Places
// @Produce      json
// @Param        keyword       query string false "Search keyword"
// @Param        areaCode      query string false "Area code"
// @Param        contentTypeId query string false "Content type id"
// @Param        sort          query string false "latest or name" Enums(latest, name)
// @Param        page          query int    false "Page number, from 1"
// @Success      200 {object} place.PlaceList
// @Failure      400 {object} types.Response "Invalid query"
// @Failure      502 {object} types.Response "Tourism API unavailable"
// @Router       /places [get]
func (h *HandlerImpl) ListPlaces(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlaceHandler").Start(r.Context(), "ListPlaces", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/places"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ListPlaces"))

	qs := r.URL.Query()
	q := ListQuery{
		Keyword:       qs.Get("keyword"),
		AreaCode:      qs.Get("areaCode"),
		ContentTypeID: qs.Get("contentTypeId"),
		Sort:          qs.Get("sort"),
	}
	if p := qs.Get("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "page must be a number")
			return
		}
		q.Page = page
	}

	list, err := h.service.ListPlaces(ctx, q)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrInvalidQuery) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		api.TourAPIErrorResponse(w, r, l, err)
		return
	}
	span.SetAttributes(attribute.Int("places.count", len(list.Items)))
	api.WriteJSONResponse(w, r, http.StatusOK, list)
}

// GetPlace godoc
// @Summary      Attraction detail
// @Description  Common record plus intro, images and pet info. Optional sections are omitted when unavailable.
// @Tags         Places
// @Produce      json
// @Param        contentID path string true "Content ID"
// @Success      200 {object} place.PlaceDetail
// @Failure      404 {object} types.Response "Attraction not found"
// @Failure      502 {object} types.Response "Tourism API unavailable"
// @Router       /places/{contentID} [get]
func (h *HandlerImpl) GetPlace(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlaceHandler").Start(r.Context(), "GetPlace", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/places/{contentID}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetPlace"))

	contentID := chi.URLParam(r, "contentID")
	span.SetAttributes(attribute.String("content.id", contentID))

	detail, err := h.service.GetPlaceDetail(ctx, contentID)
	if err != nil {
		span.RecordError(err)
		api.TourAPIErrorResponse(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, detail)
}

// GetPetInfo godoc
// @Summary      Pet travel info
// @Tags         Places
// @Produce      json
// @Param        contentID path string true "Content ID"
// @Success      200 {object} types.PetTourInfo
// @Success      204 "No pet information"
// @Router       /places/{contentID}/pet [get]
func (h *HandlerImpl) GetPetInfo(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlaceHandler").Start(r.Context(), "GetPetInfo", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/places/{contentID}/pet"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetPetInfo"))

	pet, err := h.service.GetPetInfo(ctx, chi.URLParam(r, "contentID"))
	if err != nil {
		span.RecordError(err)
		api.TourAPIErrorResponse(w, r, l, err)
		return
	}
	if pet == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, pet)
}

// ListAreas godoc
// @Summary      Area codes
// @Tags         Places
// @Produce      json
// @Success      200 {array} types.AreaCode
// @Failure      502 {object} types.Response "Tourism API unavailable"
// @Router       /areas [get]
func (h *HandlerImpl) ListAreas(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlaceHandler").Start(r.Context(), "ListAreas", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/areas"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ListAreas"))

	areas, err := h.service.ListAreas(ctx)
	if err != nil {
		span.RecordError(err)
		api.TourAPIErrorResponse(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, areas)
}

// ListBookmarkedPlaces godoc
// @Summary      Bookmarked attractions
// @Description  The caller's bookmarks resolved to attractions, newest first.
// @Tags         Bookmarks
// @Produce      json
// @Success      200 {array} types.TourItem
// @Failure      401 {object} types.Response "Authentication required"
// @Security     BearerAuth
// @Router       /bookmarks [get]
func (h *HandlerImpl) ListBookmarkedPlaces(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlaceHandler").Start(r.Context(), "ListBookmarkedPlaces", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/bookmarks"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ListBookmarkedPlaces"))

	items, err := h.service.ListBookmarkedPlaces(ctx)
	if err != nil {
		span.RecordError(err)
		l.ErrorContext(ctx, "Failed to list bookmarked places", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load bookmarks")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, items)
}
