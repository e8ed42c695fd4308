package stats

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
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

// GetSummary godoc
// @Summary      Statistics summary
// @Description  Total attraction count with the top three regions and content types.
// @Tags         Stats
// @Produce      json
// @Success      200 {object} types.StatsSummary
// @Failure      502 {object} types.Response "Tourism API unavailable"
// @Router       /stats/summary [get]
func (h *HandlerImpl) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("StatsHandler").Start(r.Context(), "GetSummary", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/stats/summary"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetSummary"))

	summary, err := h.service.GetStatsSummary(ctx)
	if err != nil {
		span.RecordError(err)
		h.writeError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, summary)
}

// GetRegions godoc
// @Summary      Attractions per region
// @Tags         Stats
// @Produce      json
// @Success      200 {array} types.RegionStats
// @Failure      502 {object} types.Response "Tourism API unavailable"
// @Router       /stats/regions [get]
func (h *HandlerImpl) GetRegions(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("StatsHandler").Start(r.Context(), "GetRegions", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/stats/regions"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetRegions"))

	regions, err := h.service.GetRegionStats(ctx)
	if err != nil {
		span.RecordError(err)
		h.writeError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, regions)
}

// GetTypes godoc
// @Summary      Attractions per content type
// @Tags         Stats
// @Produce      json
// @Success      200 {array} types.TypeStats
// @Failure      502 {object} types.Response "Tourism API unavailable"
// @Router       /stats/types [get]
func (h *HandlerImpl) GetTypes(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("StatsHandler").Start(r.Context(), "GetTypes", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/stats/types"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetTypes"))

	typeStats, err := h.service.GetTypeStats(ctx)
	if err != nil {
		span.RecordError(err)
		h.writeError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, typeStats)
}

// Refresh godoc
// @Summary      Recompute statistics
// @Description  Drops cached aggregates and recomputes them immediately.
// @Tags         Stats
// @Produce      json
// @Success      200 {object} types.StatsSummary
// @Failure      401 {object} types.Response "Unauthorized"
// @Security     BearerAuth
// @Router       /stats/refresh [post]
func (h *HandlerImpl) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("StatsHandler").Start(r.Context(), "Refresh", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/stats/refresh"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "Refresh"))
	l.InfoContext(ctx, "Stats refresh requested")

	summary, err := h.service.Refresh(ctx)
	if err != nil {
		span.RecordError(err)
		h.writeError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, summary)
}

// writeError answers aggregation failures with 502 whatever the upstream kind.
func (h *HandlerImpl) writeError(w http.ResponseWriter, r *http.Request, l *slog.Logger, err error) {
	if errors.Is(err, ErrAggregationFailed) {
		l.ErrorContext(r.Context(), "Stats aggregation failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadGateway, "Statistics are temporarily unavailable")
		return
	}
	api.TourAPIErrorResponse(w, r, l, err)
}
