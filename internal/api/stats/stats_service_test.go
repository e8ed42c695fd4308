package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

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

var _ tourapi.Client = (*MockTourClient)(nil)

func (m *MockTourClient) GetAreaCode(ctx context.Context, parentCode string) ([]types.AreaCode, error) {
	args := m.Called(ctx, parentCode)
	v, _ := args.Get(0).([]types.AreaCode)
	return v, args.Error(1)
}

func (m *MockTourClient) GetAreaBasedList(ctx context.Context, opts tourapi.AreaBasedListOptions) (*tourapi.ListResult, error) {
	args := m.Called(ctx, opts)
	v, _ := args.Get(0).(*tourapi.ListResult)
	return v, args.Error(1)
}

func (m *MockTourClient) SearchKeyword(ctx context.Context, opts tourapi.SearchKeywordOptions) (*tourapi.ListResult, error) {
	args := m.Called(ctx, opts)
	v, _ := args.Get(0).(*tourapi.ListResult)
	return v, args.Error(1)
}

func (m *MockTourClient) GetDetailCommon(ctx context.Context, contentID string) (*types.TourDetail, error) {
	args := m.Called(ctx, contentID)
	v, _ := args.Get(0).(*types.TourDetail)
	return v, args.Error(1)
}

func (m *MockTourClient) GetDetailIntro(ctx context.Context, contentID, contentTypeID string) (types.TourIntro, error) {
	args := m.Called(ctx, contentID, contentTypeID)
	v, _ := args.Get(0).(types.TourIntro)
	return v, args.Error(1)
}

func (m *MockTourClient) GetDetailImage(ctx context.Context, contentID string) ([]types.TourImage, error) {
	args := m.Called(ctx, contentID)
	v, _ := args.Get(0).([]types.TourImage)
	return v, args.Error(1)
}

func (m *MockTourClient) GetDetailPetTour(ctx context.Context, contentID string) (*types.PetTourInfo, error) {
	args := m.Called(ctx, contentID)
	v, _ := args.Get(0).(*types.PetTourInfo)
	return v, args.Error(1)
}

func typeOpts(id string) tourapi.AreaBasedListOptions {
	return tourapi.AreaBasedListOptions{ContentTypeID: id, NumOfRows: 1, PageNo: 1}
}

func areaOpts(code string) tourapi.AreaBasedListOptions {
	return tourapi.AreaBasedListOptions{AreaCode: code, NumOfRows: 1, PageNo: 1}
}

func total(n int) *tourapi.ListResult {
	return &tourapi.ListResult{Items: []types.TourItem{}, TotalCount: n, PageNo: 1}
}

// expectTypeCounts registers one count per content type; missing ids count zero.
func expectTypeCounts(m *MockTourClient, counts map[string]int) {
	for _, id := range types.ContentTypes {
		m.On("GetAreaBasedList", mock.Anything, typeOpts(id)).Return(total(counts[id]), nil)
	}
}

func newTestService(m *MockTourClient) *ServiceImpl {
	svc := NewServiceImpl(m, NewMemoryCache(time.Hour), time.Hour, 4, testLogger)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 50.0, Percentage(50, 100))
	assert.Equal(t, 33.3, Percentage(1, 3))
	assert.Equal(t, 66.7, Percentage(2, 3))
	assert.Zero(t, Percentage(5, 0))
}

func TestBuildTypeStats(t *testing.T) {
	t.Run("percentages for 50/30/20", func(t *testing.T) {
		out := BuildTypeStats([]string{"12", "14", "15"}, []int{50, 30, 20})
		require.Len(t, out, 3)
		assert.Equal(t, []float64{50.0, 30.0, 20.0}, []float64{out[0].Percentage, out[1].Percentage, out[2].Percentage})
		assert.Equal(t, "관광지", out[0].ContentTypeName)
	})

	t.Run("zero counts are excluded and output is sorted", func(t *testing.T) {
		out := BuildTypeStats([]string{"12", "14", "15", "25"}, []int{10, 0, 30, 10})
		require.Len(t, out, 3)
		assert.Equal(t, "15", out[0].ContentTypeID)
		assert.Equal(t, "12", out[1].ContentTypeID, "ties keep enumeration order")
		assert.Equal(t, "25", out[2].ContentTypeID)
		assert.Equal(t, 60.0, out[0].Percentage)
	})

	t.Run("all zero yields empty", func(t *testing.T) {
		assert.Empty(t, BuildTypeStats([]string{"12"}, []int{0}))
	})
}

func TestGetTypeStats(t *testing.T) {
	m := new(MockTourClient)
	expectTypeCounts(m, map[string]int{"12": 50, "39": 30, "32": 20})
	svc := newTestService(m)

	out, err := svc.GetTypeStats(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "12", out[0].ContentTypeID)
	assert.Equal(t, "39", out[1].ContentTypeID)
	assert.Equal(t, "32", out[2].ContentTypeID)
	assert.Equal(t, 50.0, out[0].Percentage)
	assert.Equal(t, 30.0, out[1].Percentage)
	assert.Equal(t, 20.0, out[2].Percentage)
}

func TestGetRegionStats(t *testing.T) {
	t.Run("failed partitions count zero and are dropped", func(t *testing.T) {
		m := new(MockTourClient)
		m.On("GetAreaCode", mock.Anything, "").Return([]types.AreaCode{
			{Code: "1", Name: "서울"}, {Code: "6", Name: "부산"}, {Code: "39", Name: "제주도"}, {Code: "8", Name: "세종"},
		}, nil)
		m.On("GetAreaBasedList", mock.Anything, areaOpts("1")).Return(total(120), nil)
		m.On("GetAreaBasedList", mock.Anything, areaOpts("6")).Return(nil, errors.New("boom"))
		m.On("GetAreaBasedList", mock.Anything, areaOpts("39")).Return(total(300), nil)
		m.On("GetAreaBasedList", mock.Anything, areaOpts("8")).Return(total(0), nil)
		svc := newTestService(m)

		out, err := svc.GetRegionStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []types.RegionStats{
			{AreaCode: "39", AreaName: "제주도", Count: 300},
			{AreaCode: "1", AreaName: "서울", Count: 120},
		}, out)
		m.AssertExpectations(t)
	})

	t.Run("area code failure fails the aggregate", func(t *testing.T) {
		m := new(MockTourClient)
		m.On("GetAreaCode", mock.Anything, "").Return(nil, errors.New("upstream down"))
		svc := newTestService(m)

		_, err := svc.GetRegionStats(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "area codes")
		assert.ErrorIs(t, err, ErrAggregationFailed)
		m.AssertNotCalled(t, "GetAreaBasedList", mock.Anything, mock.Anything)
	})
}

func TestCachingAndInvalidate(t *testing.T) {
	m := new(MockTourClient)
	expectTypeCounts(m, map[string]int{"12": 5})
	svc := newTestService(m)
	ctx := context.Background()

	_, err := svc.GetTypeStats(ctx)
	require.NoError(t, err)
	_, err = svc.GetTypeStats(ctx)
	require.NoError(t, err)
	m.AssertNumberOfCalls(t, "GetAreaBasedList", len(types.ContentTypes))

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.GetTypeStats(ctx)
	require.NoError(t, err)
	m.AssertNumberOfCalls(t, "GetAreaBasedList", 2*len(types.ContentTypes))
}

func TestGetStatsSummary(t *testing.T) {
	m := new(MockTourClient)
	m.On("GetAreaCode", mock.Anything, "").Return([]types.AreaCode{
		{Code: "1", Name: "서울"}, {Code: "2", Name: "인천"}, {Code: "31", Name: "경기도"}, {Code: "32", Name: "강원특별자치도"},
	}, nil)
	m.On("GetAreaBasedList", mock.Anything, areaOpts("1")).Return(total(40), nil)
	m.On("GetAreaBasedList", mock.Anything, areaOpts("2")).Return(total(10), nil)
	m.On("GetAreaBasedList", mock.Anything, areaOpts("31")).Return(total(30), nil)
	m.On("GetAreaBasedList", mock.Anything, areaOpts("32")).Return(total(20), nil)
	expectTypeCounts(m, map[string]int{"12": 50, "14": 25, "39": 15, "32": 10})
	svc := newTestService(m)

	summary, err := svc.GetStatsSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, summary.TotalCount)
	require.Len(t, summary.TopRegions, 3)
	assert.Equal(t, "1", summary.TopRegions[0].AreaCode)
	assert.Equal(t, "31", summary.TopRegions[1].AreaCode)
	require.Len(t, summary.TopTypes, 3)
	assert.Equal(t, "12", summary.TopTypes[0].ContentTypeID)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), summary.LastUpdated)

	// Second call is served from cache.
	calls := len(m.Calls)
	_, err = svc.GetStatsSummary(context.Background())
	require.NoError(t, err)
	assert.Len(t, m.Calls, calls)
}

func TestRefreshRecomputes(t *testing.T) {
	m := new(MockTourClient)
	m.On("GetAreaCode", mock.Anything, "").Return([]types.AreaCode{{Code: "1", Name: "서울"}}, nil)
	m.On("GetAreaBasedList", mock.Anything, areaOpts("1")).Return(total(7), nil)
	expectTypeCounts(m, map[string]int{"12": 7})
	svc := newTestService(m)
	ctx := context.Background()

	_, err := svc.GetStatsSummary(ctx)
	require.NoError(t, err)
	m.AssertNumberOfCalls(t, "GetAreaCode", 1)

	summary, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, summary.TotalCount)
	m.AssertNumberOfCalls(t, "GetAreaCode", 2)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte(`[1]`), time.Minute))
	b, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`[1]`), b)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "a", []byte(`1`), time.Minute))
	require.NoError(t, c.Flush(ctx))
	_, ok, _ = c.Get(ctx, "a")
	assert.False(t, ok)
}

func TestCachedEntriesExpire(t *testing.T) {
	m := new(MockTourClient)
	expectTypeCounts(m, map[string]int{"12": 5})
	ttl := 50 * time.Millisecond
	svc := NewServiceImpl(m, NewMemoryCache(ttl), ttl, 4, testLogger)
	ctx := context.Background()

	_, err := svc.GetTypeStats(ctx)
	require.NoError(t, err)
	_, err = svc.GetTypeStats(ctx)
	require.NoError(t, err)
	m.AssertNumberOfCalls(t, "GetAreaBasedList", len(types.ContentTypes))

	time.Sleep(ttl + 50*time.Millisecond)

	out, err := svc.GetTypeStats(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	m.AssertNumberOfCalls(t, "GetAreaBasedList", 2*len(types.ContentTypes))
}

func TestConcurrentMissesShareOneComputation(t *testing.T) {
	m := new(MockTourClient)
	release := make(chan struct{})
	for _, id := range types.ContentTypes {
		m.On("GetAreaBasedList", mock.Anything, typeOpts(id)).
			Run(func(mock.Arguments) { <-release }).
			Return(total(3), nil)
	}
	svc := newTestService(m)

	const callers = 20
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetTypeStats(context.Background())
			errs <- err
		}()
	}
	// Callers are parked on the shared computation until the upstream answers.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	m.AssertNumberOfCalls(t, "GetAreaBasedList", len(types.ContentTypes))
}

type recordingCache struct {
	*MemoryCache
	mu      sync.Mutex
	deleted []string
}

func (c *recordingCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	c.deleted = append(c.deleted, key)
	c.mu.Unlock()
	return c.MemoryCache.Delete(ctx, key)
}

func TestUndecodableEntryIsDeletedAndRecomputed(t *testing.T) {
	m := new(MockTourClient)
	expectTypeCounts(m, map[string]int{"12": 5})
	cache := &recordingCache{MemoryCache: NewMemoryCache(time.Hour)}
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, keyTypes, []byte("not json"), time.Hour))

	svc := NewServiceImpl(m, cache, time.Hour, 4, testLogger)
	out, err := svc.GetTypeStats(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []string{keyTypes}, cache.deleted)

	b, ok, err := cache.Get(ctx, keyTypes)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(b), `"contentTypeId"`)
}
