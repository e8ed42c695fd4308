package bookmark

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appMiddleware "github.com/FACorreiaa/go-korea-tour-explorer/app/middleware"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/types"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindUserIDByExternalID(ctx context.Context, externalID string) (uuid.UUID, bool, error) {
	args := m.Called(ctx, externalID)
	return args.Get(0).(uuid.UUID), args.Bool(1), args.Error(2)
}

func (m *MockRepository) UpsertUser(ctx context.Context, externalID string, email *string) (*types.User, error) {
	args := m.Called(ctx, externalID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockRepository) Exists(ctx context.Context, externalID string, userID uuid.UUID, contentID string) (bool, error) {
	args := m.Called(ctx, externalID, userID, contentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Insert(ctx context.Context, externalID string, userID uuid.UUID, contentID string) (bool, error) {
	args := m.Called(ctx, externalID, userID, contentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, externalID string, userID uuid.UUID, contentID string) (bool, error) {
	args := m.Called(ctx, externalID, userID, contentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListByUser(ctx context.Context, externalID string, userID uuid.UUID) ([]types.Bookmark, error) {
	args := m.Called(ctx, externalID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Bookmark), args.Error(1)
}

func authed(externalID string) context.Context {
	return appMiddleware.WithIdentity(context.Background(), appMiddleware.Identity{ExternalID: externalID, Email: "user@example.com"})
}

func TestServiceIsBookmarked(t *testing.T) {
	userID := uuid.New()

	t.Run("anonymous is false without touching the store", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewServiceImpl(repo, testLogger)
		ok, err := svc.IsBookmarked(context.Background(), "126508")
		require.NoError(t, err)
		assert.False(t, ok)
		repo.AssertNotCalled(t, "FindUserIDByExternalID", mock.Anything, mock.Anything)
	})

	t.Run("unknown local user is false", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindUserIDByExternalID", mock.Anything, "user_1").Return(uuid.Nil, false, nil)
		svc := NewServiceImpl(repo, testLogger)
		ok, err := svc.IsBookmarked(authed("user_1"), "126508")
		require.NoError(t, err)
		assert.False(t, ok)
		repo.AssertExpectations(t)
	})

	t.Run("known user reads the store", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindUserIDByExternalID", mock.Anything, "user_1").Return(userID, true, nil)
		repo.On("Exists", mock.Anything, "user_1", userID, "126508").Return(true, nil)
		svc := NewServiceImpl(repo, testLogger)
		ok, err := svc.IsBookmarked(authed("user_1"), " 126508 ")
		require.NoError(t, err)
		assert.True(t, ok)
		repo.AssertExpectations(t)
	})

	t.Run("non-numeric content id is rejected", func(t *testing.T) {
		svc := NewServiceImpl(new(MockRepository), testLogger)
		_, err := svc.IsBookmarked(authed("user_1"), "abc")
		assert.ErrorIs(t, err, ErrInvalidContentID)
	})
}

func TestServiceAddBookmark(t *testing.T) {
	userID := uuid.New()

	t.Run("requires identity", func(t *testing.T) {
		svc := NewServiceImpl(new(MockRepository), testLogger)
		assert.ErrorIs(t, svc.AddBookmark(context.Background(), "126508"), ErrAuthRequired)
	})

	t.Run("requires a synced user", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindUserIDByExternalID", mock.Anything, "user_1").Return(uuid.Nil, false, nil)
		svc := NewServiceImpl(repo, testLogger)
		assert.ErrorIs(t, svc.AddBookmark(authed("user_1"), "126508"), ErrUserNotFound)
	})

	t.Run("adding twice succeeds", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindUserIDByExternalID", mock.Anything, "user_1").Return(userID, true, nil)
		repo.On("Insert", mock.Anything, "user_1", userID, "126508").Return(true, nil).Once()
		repo.On("Insert", mock.Anything, "user_1", userID, "126508").Return(false, nil).Once()
		svc := NewServiceImpl(repo, testLogger)

		require.NoError(t, svc.AddBookmark(authed("user_1"), "126508"))
		require.NoError(t, svc.AddBookmark(authed("user_1"), "126508"))
		repo.AssertNumberOfCalls(t, "Insert", 2)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindUserIDByExternalID", mock.Anything, "user_1").Return(userID, true, nil)
		repo.On("Insert", mock.Anything, "user_1", userID, "126508").Return(false, errors.New("db down"))
		svc := NewServiceImpl(repo, testLogger)
		assert.Error(t, svc.AddBookmark(authed("user_1"), "126508"))
	})
}

func TestServiceRemoveBookmark(t *testing.T) {
	userID := uuid.New()
	repo := new(MockRepository)
	repo.On("FindUserIDByExternalID", mock.Anything, "user_1").Return(userID, true, nil)
	repo.On("Delete", mock.Anything, "user_1", userID, "126508").Return(false, nil)
	svc := NewServiceImpl(repo, testLogger)

	require.NoError(t, svc.RemoveBookmark(authed("user_1"), "126508"))
	assert.ErrorIs(t, svc.RemoveBookmark(context.Background(), "126508"), ErrAuthRequired)
	repo.AssertExpectations(t)
}

func TestServiceListBookmarks(t *testing.T) {
	userID := uuid.New()

	t.Run("anonymous gets empty list", func(t *testing.T) {
		svc := NewServiceImpl(new(MockRepository), testLogger)
		got, err := svc.ListBookmarks(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("known user", func(t *testing.T) {
		repo := new(MockRepository)
		want := []types.Bookmark{{ID: uuid.New(), UserID: userID, ContentID: "1"}}
		repo.On("FindUserIDByExternalID", mock.Anything, "user_1").Return(userID, true, nil)
		repo.On("ListByUser", mock.Anything, "user_1", userID).Return(want, nil)
		svc := NewServiceImpl(repo, testLogger)
		got, err := svc.ListBookmarks(authed("user_1"))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("user lookup failure degrades to empty", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindUserIDByExternalID", mock.Anything, "user_1").Return(uuid.Nil, false, errors.New("connection refused"))
		svc := NewServiceImpl(repo, testLogger)
		got, err := svc.ListBookmarks(authed("user_1"))
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		repo.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("listing failure degrades to empty", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindUserIDByExternalID", mock.Anything, "user_1").Return(userID, true, nil)
		repo.On("ListByUser", mock.Anything, "user_1", userID).Return(nil, errors.New("timeout"))
		svc := NewServiceImpl(repo, testLogger)
		got, err := svc.ListBookmarks(authed("user_1"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestServiceEnsureUser(t *testing.T) {
	repo := new(MockRepository)
	u := &types.User{ID: uuid.New(), ExternalID: "user_1"}
	repo.On("UpsertUser", mock.Anything, "user_1", (*string)(nil)).Return(u, nil)
	svc := NewServiceImpl(repo, testLogger)

	got, err := svc.EnsureUser(context.Background(), "user_1", "  ")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = svc.EnsureUser(context.Background(), "", "x@example.com")
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func withRouteParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHandlerBookmarkFlow(t *testing.T) {
	userID := uuid.New()
	repo := new(MockRepository)
	repo.On("FindUserIDByExternalID", mock.Anything, "user_1").Return(userID, true, nil)
	repo.On("FindUserIDByExternalID", mock.Anything, "user_2").Return(uuid.Nil, false, nil)
	repo.On("Insert", mock.Anything, "user_1", userID, "126508").Return(true, nil)
	repo.On("Exists", mock.Anything, "user_1", userID, "126508").Return(false, errors.New("db down"))
	h := NewHandlerImpl(NewServiceImpl(repo, testLogger), testLogger)

	t.Run("add as synced user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/bookmarks/126508", nil).WithContext(authed("user_1"))
		rr := httptest.NewRecorder()
		h.AddBookmark(rr, withRouteParam(req, "contentID", "126508"))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"bookmarked":true`)
	})

	t.Run("add as unsynced user is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/bookmarks/126508", nil).WithContext(authed("user_2"))
		rr := httptest.NewRecorder()
		h.AddBookmark(rr, withRouteParam(req, "contentID", "126508"))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("add anonymously is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/bookmarks/126508", nil)
		rr := httptest.NewRecorder()
		h.AddBookmark(rr, withRouteParam(req, "contentID", "126508"))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("check degrades to false on store failure", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/bookmarks/126508", nil).WithContext(authed("user_1"))
		rr := httptest.NewRecorder()
		h.IsBookmarked(rr, withRouteParam(req, "contentID", "126508"))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"bookmarked":false`)
	})

	t.Run("check with bad id is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/bookmarks/abc", nil)
		rr := httptest.NewRecorder()
		h.IsBookmarked(rr, withRouteParam(req, "contentID", "abc"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandlerSyncUser(t *testing.T) {
	repo := new(MockRepository)
	email := "override@example.com"
	repo.On("UpsertUser", mock.Anything, "user_1", &email).Return(&types.User{ID: uuid.New(), ExternalID: "user_1", Email: &email}, nil)
	h := NewHandlerImpl(NewServiceImpl(repo, testLogger), testLogger)

	t.Run("body email overrides token email", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users/sync", strings.NewReader(`{"email":"override@example.com"}`)).
			WithContext(authed("user_1"))
		rr := httptest.NewRecorder()
		h.SyncUser(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"external_id":"user_1"`)
	})

	t.Run("invalid email is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users/sync", strings.NewReader(`{"email":"nope"}`)).
			WithContext(authed("user_1"))
		rr := httptest.NewRecorder()
		h.SyncUser(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("anonymous is 401", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.SyncUser(rr, httptest.NewRequest(http.MethodPost, "/users/sync", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
