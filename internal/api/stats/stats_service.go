package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/go-korea-tour-explorer/app/observability/metrics"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api/tourapi"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/types"
)

const (
	keyRegions = "regions"
	keyTypes   = "types"
	keySummary = "summary"

	DefaultCacheTTL       = time.Hour
	DefaultMaxConcurrency = 8
	topN                  = 3
)

var _ Service = (*ServiceImpl)(nil)

// ErrAggregationFailed reports that a statistic could not be computed at all.
// The upstream cause is kept in the message only, so a missing area listing is
// never mistaken for a missing attraction.
var ErrAggregationFailed = errors.New("stats aggregation failed")

// Service aggregates attraction counts per region and per content type.
type Service interface {
	GetRegionStats(ctx context.Context) ([]types.RegionStats, error)
	GetTypeStats(ctx context.Context) ([]types.TypeStats, error)
	GetStatsSummary(ctx context.Context) (*types.StatsSummary, error)
	Invalidate(ctx context.Context) error
	Refresh(ctx context.Context) (*types.StatsSummary, error)
}

type ServiceImpl struct {
	client         tourapi.Client
	cache          Cache
	ttl            time.Duration
	maxConcurrency int
	group          singleflight.Group
	logger         *slog.Logger
	metrics        *metrics.AppMetrics
	now            func() time.Time
}

func NewServiceImpl(client tourapi.Client, cache Cache, ttl time.Duration, maxConcurrency int, logger *slog.Logger) *ServiceImpl {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &ServiceImpl{
		client:         client,
		cache:          cache,
		ttl:            ttl,
		maxConcurrency: maxConcurrency,
		logger:         logger.With(slog.String("component", "StatsService")),
		metrics:        metrics.Get(),
		now:            time.Now,
	}
}

func (s *ServiceImpl) GetRegionStats(ctx context.Context) ([]types.RegionStats, error) {
	var out []types.RegionStats
	err := cached(ctx, s, keyRegions, &out, s.computeRegionStats)
	return out, err
}

func (s *ServiceImpl) GetTypeStats(ctx context.Context) ([]types.TypeStats, error) {
	var out []types.TypeStats
	err := cached(ctx, s, keyTypes, &out, s.computeTypeStats)
	return out, err
}

func (s *ServiceImpl) GetStatsSummary(ctx context.Context) (*types.StatsSummary, error) {
	var out types.StatsSummary
	if err := cached(ctx, s, keySummary, &out, s.computeSummary); err != nil {
		return nil, err
	}
	return &out, nil
}

// Invalidate drops every cached aggregate.
func (s *ServiceImpl) Invalidate(ctx context.Context) error {
	if err := s.cache.Flush(ctx); err != nil {
		return fmt.Errorf("failed to invalidate stats cache: %w", err)
	}
	s.logger.InfoContext(ctx, "Stats cache invalidated")
	return nil
}

// Refresh invalidates and eagerly recomputes the summary (and with it the
// region and type aggregates).
func (s *ServiceImpl) Refresh(ctx context.Context) (*types.StatsSummary, error) {
	if err := s.Invalidate(ctx); err != nil {
		return nil, err
	}
	return s.GetStatsSummary(ctx)
}

// cached returns the value stored under key, computing and storing it on a miss.
// Concurrent misses for the same key share one computation. The computation
// runs detached from the caller's cancellation so a disconnecting client does
// not fail the waiters it is shared with.
func cached[T any](ctx context.Context, s *ServiceImpl, key string, out *T, compute func(context.Context) (T, error)) error {
	if b, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "Stats cache read failed, recomputing", slog.String("key", key), slog.Any("error", err))
	} else if ok {
		if err := json.Unmarshal(b, out); err == nil {
			s.metrics.StatsCacheHitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("key", key)))
			return nil
		}
		s.logger.WarnContext(ctx, "Discarding undecodable stats cache entry", slog.String("key", key))
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "Stats cache delete failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	s.metrics.StatsCacheMissesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("key", key)))

	ch := s.group.DoChan(key, func() (any, error) {
		detached := context.WithoutCancel(ctx)
		v, err := compute(detached)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s stats: %w", key, err)
		}
		if err := s.cache.Set(detached, key, b, s.ttl); err != nil {
			s.logger.WarnContext(ctx, "Stats cache write failed", slog.String("key", key), slog.Any("error", err))
		}
		return b, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.([]byte), out)
	}
}

func (s *ServiceImpl) computeRegionStats(ctx context.Context) ([]types.RegionStats, error) {
	ctx, span := otel.Tracer("StatsService").Start(ctx, "computeRegionStats")
	defer span.End()

	areas, err := s.client.GetAreaCode(ctx, "")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "area code fetch failed")
		return nil, fmt.Errorf("%w: fetching area codes: %v", ErrAggregationFailed, err)
	}

	stats := make([]types.RegionStats, len(areas))
	g := new(errgroup.Group)
	g.SetLimit(s.maxConcurrency)
	for i, area := range areas {
		g.Go(func() error {
			stats[i] = types.RegionStats{
				AreaCode: area.Code,
				AreaName: area.Name,
				Count:    s.countPartition(ctx, tourapi.AreaBasedListOptions{AreaCode: area.Code, NumOfRows: 1, PageNo: 1}, "area", area.Code),
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]types.RegionStats, 0, len(stats))
	for _, st := range stats {
		if st.Count > 0 {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })

	span.SetAttributes(attribute.Int("stats.regions", len(out)))
	span.SetStatus(codes.Ok, "")
	return out, nil
}

func (s *ServiceImpl) computeTypeStats(ctx context.Context) ([]types.TypeStats, error) {
	ctx, span := otel.Tracer("StatsService").Start(ctx, "computeTypeStats")
	defer span.End()

	counts := make([]int, len(types.ContentTypes))
	g := new(errgroup.Group)
	g.SetLimit(s.maxConcurrency)
	for i, typeID := range types.ContentTypes {
		g.Go(func() error {
			counts[i] = s.countPartition(ctx, tourapi.AreaBasedListOptions{ContentTypeID: typeID, NumOfRows: 1, PageNo: 1}, "content_type", typeID)
			return nil
		})
	}
	_ = g.Wait()

	out := BuildTypeStats(types.ContentTypes, counts)
	span.SetAttributes(attribute.Int("stats.types", len(out)))
	span.SetStatus(codes.Ok, "")
	return out, nil
}

// countPartition returns the total count for one partition. Failures count as
// zero so one unreachable partition does not fail the aggregate.
func (s *ServiceImpl) countPartition(ctx context.Context, opts tourapi.AreaBasedListOptions, dim, value string) int {
	res, err := s.client.GetAreaBasedList(ctx, opts)
	if err != nil {
		s.logger.WarnContext(ctx, "Stats partition failed, counting as zero",
			slog.String(dim, value), slog.Any("error", err))
		return 0
	}
	return res.TotalCount
}

// BuildTypeStats drops zero counts, computes one-decimal percentages of the
// remaining total and sorts by count descending. Ties keep input order.
func BuildTypeStats(typeIDs []string, counts []int) []types.TypeStats {
	out := make([]types.TypeStats, 0, len(typeIDs))
	total := 0
	for i, id := range typeIDs {
		if counts[i] <= 0 {
			continue
		}
		total += counts[i]
		out = append(out, types.TypeStats{
			ContentTypeID:   id,
			ContentTypeName: types.ContentTypeName(id),
			Count:           counts[i],
		})
	}
	for i := range out {
		out[i].Percentage = Percentage(out[i].Count, total)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Percentage is count/total as a percentage rounded to one decimal place.
func Percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

func (s *ServiceImpl) computeSummary(ctx context.Context) (types.StatsSummary, error) {
	var (
		regions   []types.RegionStats
		typeStats []types.TypeStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		regions, err = s.GetRegionStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		typeStats, err = s.GetTypeStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return types.StatsSummary{}, fmt.Errorf("failed to build stats summary: %w", err)
	}

	total := 0
	for _, t := range typeStats {
		total += t.Count
	}
	return types.StatsSummary{
		TotalCount:  total,
		TopRegions:  head(regions, topN),
		TopTypes:    head(typeStats, topN),
		LastUpdated: s.now().UTC(),
	}, nil
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		s = s[:n]
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
