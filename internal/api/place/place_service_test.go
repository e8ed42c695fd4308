package place

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api/tourapi"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockTourClient struct {
	mock.Mock
}

func (m *MockTourClient) GetAreaCode(ctx context.Context, parentCode string) ([]types.AreaCode, error) {
	args := m.Called(ctx, parentCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.AreaCode), args.Error(1)
}

func (m *MockTourClient) GetAreaBasedList(ctx context.Context, opts tourapi.AreaBasedListOptions) (*tourapi.ListResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tourapi.ListResult), args.Error(1)
}

func (m *MockTourClient) SearchKeyword(ctx context.Context, opts tourapi.SearchKeywordOptions) (*tourapi.ListResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tourapi.ListResult), args.Error(1)
}

func (m *MockTourClient) GetDetailCommon(ctx context.Context, contentID string) (*types.TourDetail, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TourDetail), args.Error(1)
}

func (m *MockTourClient) GetDetailIntro(ctx context.Context, contentID, contentTypeID string) (types.TourIntro, error) {
	args := m.Called(ctx, contentID, contentTypeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(types.TourIntro), args.Error(1)
}

func (m *MockTourClient) GetDetailImage(ctx context.Context, contentID string) ([]types.TourImage, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.TourImage), args.Error(1)
}

func (m *MockTourClient) GetDetailPetTour(ctx context.Context, contentID string) (*types.PetTourInfo, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PetTourInfo), args.Error(1)
}

type stubBookmarks struct {
	bookmarks []types.Bookmark
	err       error
}

func (s stubBookmarks) ListBookmarks(context.Context) ([]types.Bookmark, error) {
	return s.bookmarks, s.err
}

var seoulAreas = []types.AreaCode{{Code: "1", Name: "서울"}, {Code: "6", Name: "부산"}}

func listResult(items ...types.TourItem) *tourapi.ListResult {
	return &tourapi.ListResult{Items: items, TotalCount: 45, NumOfRows: PageSize, PageNo: 1}
}

func TestListPlaces(t *testing.T) {
	ctx := context.Background()
	items := []types.TourItem{
		{ContentID: "1", Title: "다리", ModifiedTime: "20240101000000", MapX: "126.9780", MapY: "37.5665"},
		{ContentID: "2", Title: "가방", ModifiedTime: "20250101000000", MapX: "1269780000", MapY: "375665000"},
		{ContentID: "3", Title: "나무", ModifiedTime: "20230101000000", MapX: "0", MapY: "0"},
	}

	t.Run("area list sorted latest first with markers", func(t *testing.T) {
		client := new(MockTourClient)
		client.On("GetAreaBasedList", mock.Anything, tourapi.AreaBasedListOptions{AreaCode: "1", NumOfRows: PageSize, PageNo: 1}).
			Return(listResult(items...), nil)
		client.On("GetAreaCode", mock.Anything, "").Return(seoulAreas, nil).Once()
		svc := NewServiceImpl(client, stubBookmarks{}, testLogger)

		list, err := svc.ListPlaces(ctx, ListQuery{AreaCode: "1"})
		require.NoError(t, err)
		require.Len(t, list.Items, 3)
		assert.Equal(t, []string{"2", "1", "3"}, []string{list.Items[0].ContentID, list.Items[1].ContentID, list.Items[2].ContentID})
		assert.Len(t, list.Markers, 2, "the 0,0 item is not plottable")
		assert.InDelta(t, 126.978, list.Center.Lng, 1e-6)
		assert.InDelta(t, 37.5665, list.Center.Lat, 1e-6)
		assert.Equal(t, 3, list.TotalPages)
		assert.Equal(t, SortLatest, list.Query.Sort)
		assert.Equal(t, seoulAreas, list.Areas)

		// Area codes are cached after the first call.
		_, err = svc.ListPlaces(ctx, ListQuery{AreaCode: "1"})
		require.NoError(t, err)
		client.AssertNumberOfCalls(t, "GetAreaCode", 1)
	})

	t.Run("keyword routes to search and sorts by name", func(t *testing.T) {
		client := new(MockTourClient)
		client.On("SearchKeyword", mock.Anything, tourapi.SearchKeywordOptions{Keyword: "궁", NumOfRows: PageSize, PageNo: 2}).
			Return(listResult(items...), nil)
		client.On("GetAreaCode", mock.Anything, "").Return(seoulAreas, nil)
		svc := NewServiceImpl(client, stubBookmarks{}, testLogger)

		list, err := svc.ListPlaces(ctx, ListQuery{Keyword: "  궁 ", Sort: SortName, Page: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"가방", "나무", "다리"}, []string{list.Items[0].Title, list.Items[1].Title, list.Items[2].Title})
		client.AssertNotCalled(t, "GetAreaBasedList", mock.Anything, mock.Anything)
	})

	t.Run("area code failure degrades to empty filter", func(t *testing.T) {
		client := new(MockTourClient)
		client.On("GetAreaBasedList", mock.Anything, mock.Anything).Return(listResult(), nil)
		client.On("GetAreaCode", mock.Anything, "").Return(nil, errors.New("upstream down"))
		svc := NewServiceImpl(client, stubBookmarks{}, testLogger)

		list, err := svc.ListPlaces(ctx, ListQuery{})
		require.NoError(t, err)
		assert.NotNil(t, list.Areas)
		assert.Empty(t, list.Areas)
		assert.Empty(t, list.Markers)
	})

	t.Run("invalid queries are rejected before any call", func(t *testing.T) {
		client := new(MockTourClient)
		svc := NewServiceImpl(client, stubBookmarks{}, testLogger)

		for _, q := range []ListQuery{
			{Sort: "popular"},
			{Page: -1},
			{AreaCode: "seoul"},
			{ContentTypeID: "99"},
		} {
			_, err := svc.ListPlaces(ctx, q)
			assert.ErrorIs(t, err, ErrInvalidQuery, "%+v", q)
		}
		client.AssertExpectations(t)
	})

	t.Run("upstream failure propagates", func(t *testing.T) {
		client := new(MockTourClient)
		upstream := errors.New("boom")
		client.On("GetAreaBasedList", mock.Anything, mock.Anything).Return(nil, upstream)
		svc := NewServiceImpl(client, stubBookmarks{}, testLogger)

		_, err := svc.ListPlaces(ctx, ListQuery{})
		assert.ErrorIs(t, err, upstream)
	})
}

func TestGetPlaceDetail(t *testing.T) {
	ctx := context.Background()
	detail := &types.TourDetail{
		ContentID: "126508", ContentTypeID: "12", Title: "경복궁",
		Overview: "<p>조선 왕조의<br>법궁</p>", MapX: "126.9770", MapY: "37.5796",
	}

	t.Run("optional sections fail independently", func(t *testing.T) {
		client := new(MockTourClient)
		client.On("GetDetailCommon", mock.Anything, "126508").Return(detail, nil)
		client.On("GetDetailIntro", mock.Anything, "126508", "12").
			Return(types.TourIntro{"contentid": "126508", "contenttypeid": "12", "usetime": "09:00~18:00"}, nil)
		client.On("GetDetailImage", mock.Anything, "126508").Return(nil, errors.New("images down"))
		client.On("GetDetailPetTour", mock.Anything, "126508").Return(nil, nil)
		svc := NewServiceImpl(client, stubBookmarks{}, testLogger)

		got, err := svc.GetPlaceDetail(ctx, "126508")
		require.NoError(t, err)
		assert.Equal(t, "관광지", got.ContentTypeName)
		assert.Equal(t, "조선 왕조의 법궁", got.Summary)
		require.NotNil(t, got.Position)
		assert.InDelta(t, 126.977, got.Position.Lng, 1e-6)
		require.Len(t, got.Intro, 1)
		assert.Equal(t, "이용시간", got.Intro[0].Label)
		assert.Nil(t, got.Images)
		assert.Nil(t, got.Pet)
	})

	t.Run("intro for another content id is dropped", func(t *testing.T) {
		client := new(MockTourClient)
		client.On("GetDetailCommon", mock.Anything, "126508").Return(detail, nil)
		client.On("GetDetailIntro", mock.Anything, "126508", "12").
			Return(types.TourIntro{"contentid": "2", "contenttypeid": "12", "usetime": "10:00~17:00"}, nil)
		client.On("GetDetailImage", mock.Anything, "126508").Return([]types.TourImage{}, nil)
		client.On("GetDetailPetTour", mock.Anything, "126508").Return(nil, nil)
		svc := NewServiceImpl(client, stubBookmarks{}, testLogger)

		got, err := svc.GetPlaceDetail(ctx, "126508")
		require.NoError(t, err)
		assert.Empty(t, got.Intro)
	})

	t.Run("not found propagates", func(t *testing.T) {
		client := new(MockTourClient)
		notFound := &tourapi.Error{Kind: tourapi.KindNotFound, Message: "no item"}
		client.On("GetDetailCommon", mock.Anything, "999999").Return(nil, notFound)
		svc := NewServiceImpl(client, stubBookmarks{}, testLogger)

		_, err := svc.GetPlaceDetail(ctx, "999999")
		assert.True(t, tourapi.IsNotFound(err))
		client.AssertNotCalled(t, "GetDetailIntro", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestListBookmarkedPlaces(t *testing.T) {
	client := new(MockTourClient)
	client.On("GetDetailCommon", mock.Anything, "2").Return(&types.TourDetail{ContentID: "2", Title: "B"}, nil)
	client.On("GetDetailCommon", mock.Anything, "1").Return(nil, errors.New("gone"))
	client.On("GetDetailCommon", mock.Anything, "3").Return(&types.TourDetail{ContentID: "3", Title: "C"}, nil)
	bm := stubBookmarks{bookmarks: []types.Bookmark{{ContentID: "3"}, {ContentID: "1"}, {ContentID: "2"}}}
	svc := NewServiceImpl(client, bm, testLogger)

	items, err := svc.ListBookmarkedPlaces(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "3", items[0].ContentID)
	assert.Equal(t, "2", items[1].ContentID)

	failing := NewServiceImpl(client, stubBookmarks{err: errors.New("db down")}, testLogger)
	_, err = failing.ListBookmarkedPlaces(context.Background())
	assert.Error(t, err)
}

func TestSummarise(t *testing.T) {
	assert.Equal(t, "", Summarise("   "))
	assert.Equal(t, "plain text", Summarise("plain   text"))
	assert.Equal(t, "bold and italic", Summarise("<b>bold</b> and <i>italic</i>"))

	long := ""
	for range 150 {
		long += "가"
	}
	got := Summarise(long)
	assert.Equal(t, maxSummaryRunes, utf8.RuneCountInString(got))
	assert.Equal(t, "…", string([]rune(got)[maxSummaryRunes-1:]))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, PageSize))
	assert.Equal(t, 1, TotalPages(20, PageSize))
	assert.Equal(t, 2, TotalPages(21, PageSize))
}

func TestHandlerPetInfo(t *testing.T) {
	client := new(MockTourClient)
	client.On("GetDetailPetTour", mock.Anything, "1").Return(nil, nil)
	client.On("GetDetailPetTour", mock.Anything, "2").Return(&types.PetTourInfo{ContentID: "2", ChkPetSize: "소형견"}, nil)
	h := NewHandlerImpl(NewServiceImpl(client, stubBookmarks{}, testLogger), testLogger)

	r := chi.NewRouter()
	r.Get("/places/{contentID}/pet", h.GetPetInfo)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/places/1/pet", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/places/2/pet", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "소형견")
}

func TestHandlerListPlacesErrors(t *testing.T) {
	client := new(MockTourClient)
	client.On("GetAreaBasedList", mock.Anything, mock.Anything).
		Return(nil, &tourapi.Error{Kind: tourapi.KindRateLimited, StatusCode: http.StatusTooManyRequests})
	h := NewHandlerImpl(NewServiceImpl(client, stubBookmarks{}, testLogger), testLogger)

	rr := httptest.NewRecorder()
	h.ListPlaces(rr, httptest.NewRequest(http.MethodGet, "/places?page=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.ListPlaces(rr, httptest.NewRequest(http.MethodGet, "/places?sort=popular", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.ListPlaces(rr, httptest.NewRequest(http.MethodGet, "/places", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
}
