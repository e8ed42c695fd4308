package place

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api/tourapi"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/coordinate"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/types"
)

const (
	PageSize        = 20
	SortLatest      = "latest"
	SortName        = "name"
	maxSummaryRunes = 100
	areaCacheKey    = "areas"
	areaCacheTTL    = 24 * time.Hour
	bookmarkFanOut  = 5
)

var ErrInvalidQuery = errors.New("invalid query")

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	ListPlaces(ctx context.Context, q ListQuery) (*PlaceList, error)
	GetPlaceDetail(ctx context.Context, contentID string) (*PlaceDetail, error)
	GetPetInfo(ctx context.Context, contentID string) (*types.PetTourInfo, error)
	ListAreas(ctx context.Context) ([]types.AreaCode, error)
	ListBookmarkedPlaces(ctx context.Context) ([]types.TourItem, error)
}

// BookmarkLister is the part of the bookmark service the place pages need.
type BookmarkLister interface {
	ListBookmarks(ctx context.Context) ([]types.Bookmark, error)
}

// ListQuery is the home page filter set.
type ListQuery struct {
	Keyword       string `json:"keyword" validate:"max=100"`
	AreaCode      string `json:"areaCode" validate:"omitempty,numeric,max=3"`
	ContentTypeID string `json:"contentTypeId" validate:"omitempty,numeric"`
	Sort          string `json:"sort" validate:"oneof=latest name"`
	Page          int    `json:"page" validate:"gte=1"`
}

// PlaceList is one page of attractions with everything the map view needs.
type PlaceList struct {
	Items      []types.TourItem       `json:"items"`
	TotalCount int                    `json:"totalCount"`
	PageNo     int                    `json:"pageNo"`
	NumOfRows  int                    `json:"numOfRows"`
	TotalPages int                    `json:"totalPages"`
	Query      ListQuery              `json:"query"`
	Markers    []coordinate.MapMarker `json:"markers"`
	Center     coordinate.Coordinate  `json:"center"`
	Bounds     coordinate.Bounds      `json:"bounds"`
	Areas      []types.AreaCode       `json:"areas"`
}

// PlaceDetail aggregates the detail sections of one attraction. Optional
// sections are nil when their upstream call failed or returned nothing.
type PlaceDetail struct {
	Detail          *types.TourDetail      `json:"detail"`
	ContentTypeName string                 `json:"contentTypeName"`
	Summary         string                 `json:"summary"`
	Position        *coordinate.Coordinate `json:"position,omitempty"`
	Intro           []types.IntroField     `json:"intro,omitempty"`
	Images          []types.TourImage      `json:"images,omitempty"`
	Pet             *types.PetTourInfo     `json:"pet,omitempty"`
}

type ServiceImpl struct {
	client    tourapi.Client
	bookmarks BookmarkLister
	areas     *cache.Cache
	validate  *validator.Validate
	coords    *coordinate.Converter
	logger    *slog.Logger
}

func NewServiceImpl(client tourapi.Client, bookmarks BookmarkLister, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		client:    client,
		bookmarks: bookmarks,
		areas:     cache.New(areaCacheTTL, time.Hour),
		validate:  validator.New(),
		coords:    coordinate.NewConverter(logger),
		logger:    logger.With(slog.String("component", "PlaceService")),
	}
}

// ListPlaces searches when a keyword is present and lists by area otherwise.
func (s *ServiceImpl) ListPlaces(ctx context.Context, q ListQuery) (*PlaceList, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "ListPlaces")
	defer span.End()

	q = normaliseQuery(q)
	if err := s.validate.Struct(q); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, api.ValidationMessage(err))
	}
	if q.ContentTypeID != "" && !types.IsContentType(q.ContentTypeID) {
		return nil, fmt.Errorf("%w: unknown content type %q", ErrInvalidQuery, q.ContentTypeID)
	}
	span.SetAttributes(
		attribute.String("query.keyword", q.Keyword),
		attribute.String("query.area_code", q.AreaCode),
		attribute.Int("query.page", q.Page),
	)

	var (
		res *tourapi.ListResult
		err error
	)
	if q.Keyword != "" {
		res, err = s.client.SearchKeyword(ctx, tourapi.SearchKeywordOptions{
			Keyword:       q.Keyword,
			AreaCode:      q.AreaCode,
			ContentTypeID: q.ContentTypeID,
			NumOfRows:     PageSize,
			PageNo:        q.Page,
		})
	} else {
		res, err = s.client.GetAreaBasedList(ctx, tourapi.AreaBasedListOptions{
			AreaCode:      q.AreaCode,
			ContentTypeID: q.ContentTypeID,
			NumOfRows:     PageSize,
			PageNo:        q.Page,
		})
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	items := slices.Clone(res.Items)
	SortItems(items, q.Sort)

	markers := s.coords.Markers(items)
	positions := coordinate.Positions(markers)

	return &PlaceList{
		Items:      items,
		TotalCount: res.TotalCount,
		PageNo:     res.PageNo,
		NumOfRows:  PageSize,
		TotalPages: TotalPages(res.TotalCount, PageSize),
		Query:      q,
		Markers:    markers,
		Center:     coordinate.Center(positions),
		Bounds:     coordinate.BoundsOf(positions),
		Areas:      s.areaFilter(ctx),
	}, nil
}

// ListAreas returns the first-level area codes, cached for a day.
func (s *ServiceImpl) ListAreas(ctx context.Context) ([]types.AreaCode, error) {
	if v, ok := s.areas.Get(areaCacheKey); ok {
		return v.([]types.AreaCode), nil
	}
	areas, err := s.client.GetAreaCode(ctx, "")
	if err != nil {
		return nil, err
	}
	s.areas.SetDefault(areaCacheKey, areas)
	return areas, nil
}

// areaFilter never fails; the filter dropdown is optional.
func (s *ServiceImpl) areaFilter(ctx context.Context) []types.AreaCode {
	areas, err := s.ListAreas(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Area codes unavailable, omitting filter", slog.Any("error", err))
		return []types.AreaCode{}
	}
	return areas
}

// GetPlaceDetail loads the common record, then intro, images and pet info in
// parallel. Only a failure of the common record fails the call.
func (s *ServiceImpl) GetPlaceDetail(ctx context.Context, contentID string) (*PlaceDetail, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "GetPlaceDetail", trace.WithAttributes(
		attribute.String("content.id", contentID),
	))
	defer span.End()

	detail, err := s.client.GetDetailCommon(ctx, contentID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := &PlaceDetail{
		Detail:          detail,
		ContentTypeName: types.ContentTypeName(detail.ContentTypeID),
		Summary:         Summarise(detail.Overview),
	}
	if conv := s.coords.Convert(detail.MapX, detail.MapY); conv.Valid() {
		pos := conv.Coordinate
		out.Position = &pos
	}

	var g errgroup.Group
	g.Go(func() error {
		intro, err := s.client.GetDetailIntro(ctx, detail.ContentID, detail.ContentTypeID)
		if err != nil {
			s.logger.WarnContext(ctx, "Intro unavailable", slog.String("content_id", contentID), slog.Any("error", err))
			return nil
		}
		if id := intro.ContentID(); id != "" && id != detail.ContentID {
			s.logger.WarnContext(ctx, "Ignoring intro for a different content id",
				slog.String("content_id", contentID), slog.String("intro_content_id", id))
			return nil
		}
		out.Intro = intro.Fields()
		return nil
	})
	g.Go(func() error {
		images, err := s.client.GetDetailImage(ctx, detail.ContentID)
		if err != nil {
			s.logger.WarnContext(ctx, "Images unavailable", slog.String("content_id", contentID), slog.Any("error", err))
			return nil
		}
		out.Images = images
		return nil
	})
	g.Go(func() error {
		pet, err := s.client.GetDetailPetTour(ctx, detail.ContentID)
		if err != nil {
			s.logger.WarnContext(ctx, "Pet info unavailable", slog.String("content_id", contentID), slog.Any("error", err))
			return nil
		}
		out.Pet = pet
		return nil
	})
	_ = g.Wait()

	return out, nil
}

func (s *ServiceImpl) GetPetInfo(ctx context.Context, contentID string) (*types.PetTourInfo, error) {
	return s.client.GetDetailPetTour(ctx, contentID)
}

// ListBookmarkedPlaces resolves the caller's bookmarks to list items, newest
// bookmark first. Ids whose detail cannot be fetched are dropped.
func (s *ServiceImpl) ListBookmarkedPlaces(ctx context.Context) ([]types.TourItem, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "ListBookmarkedPlaces")
	defer span.End()

	bookmarks, err := s.bookmarks.ListBookmarks(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	found := make([]*types.TourItem, len(bookmarks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bookmarkFanOut)
	for i, b := range bookmarks {
		g.Go(func() error {
			d, err := s.client.GetDetailCommon(gctx, b.ContentID)
			if err != nil {
				s.logger.WarnContext(gctx, "Dropping bookmarked place", slog.String("content_id", b.ContentID), slog.Any("error", err))
				return nil
			}
			item := d.AsTourItem()
			found[i] = &item
			return nil
		})
	}
	_ = g.Wait()

	items := make([]types.TourItem, 0, len(found))
	for _, it := range found {
		if it != nil {
			items = append(items, *it)
		}
	}
	span.SetAttributes(attribute.Int("bookmarks.resolved", len(items)))
	return items, nil
}

func normaliseQuery(q ListQuery) ListQuery {
	q.Keyword = strings.TrimSpace(q.Keyword)
	q.AreaCode = strings.TrimSpace(q.AreaCode)
	q.ContentTypeID = strings.TrimSpace(q.ContentTypeID)
	if q.Sort == "" {
		q.Sort = SortLatest
	}
	if q.Page == 0 {
		q.Page = 1
	}
	return q
}

// SortItems orders items in place: newest modification first for latest,
// Korean dictionary order of the title for name.
func SortItems(items []types.TourItem, sortBy string) {
	switch sortBy {
	case SortName:
		// collate.Collator keeps an internal buffer and is not safe for concurrent use.
		c := collate.New(language.Korean)
		slices.SortStableFunc(items, func(a, b types.TourItem) int {
			return c.CompareString(a.Title, b.Title)
		})
	default:
		slices.SortStableFunc(items, func(a, b types.TourItem) int {
			return cmp.Compare(b.ModifiedTime, a.ModifiedTime)
		})
	}
}

// TotalPages is ceil(total/size), never less than 1.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// Summarise strips markup from an overview and truncates it to at most 100 runes.
func Summarise(overview string) string {
	if strings.TrimSpace(overview) == "" {
		return ""
	}
	text := overview
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(overview)); err == nil {
		doc.Find("br").ReplaceWithHtml(" ")
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= maxSummaryRunes {
		return text
	}
	return string(runes[:maxSummaryRunes-1]) + "…"
}
