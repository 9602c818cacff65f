package platforms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialsync/internal/types"
)

// mockHandleLookup maps (userID, platform) to a fixed handle.
type mockHandleLookup struct {
	handle string
	err    error
}

func (m *mockHandleLookup) PlatformHandle(ctx context.Context, userID string, platform types.Platform) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.handle, nil
}

func newAdapterTestClient() *BaseClient {
	return NewBaseClient(&http.Client{}, "test", DefaultRetryPolicy(), noSleep())
}

func TestGitHubAdapter_Sync_MapsFollowersAndRepos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat", r.URL.Path)
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"followers": 1234, "public_repos": 56, "login": "octocat"}`))
	}))
	defer srv.Close()

	a := NewGitHubAdapter(newAdapterTestClient(), &mockHandleLookup{handle: "octocat"}, types.SecretString("gh-token"))
	a.baseURL = srv.URL

	outcome, err := a.Sync(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, types.SyncOutcome{Followers: 1234, Activity: 56}, outcome)
}

func TestGitHubAdapter_Sync_NoTokenOmitsAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"followers": 1, "public_repos": 2}`))
	}))
	defer srv.Close()

	a := NewGitHubAdapter(newAdapterTestClient(), &mockHandleLookup{handle: "octocat"}, types.SecretString(""))
	a.baseURL = srv.URL

	_, err := a.Sync(context.Background(), "user-1")
	require.NoError(t, err)
}

func TestGitHubAdapter_Sync_HandleLookupFailurePropagates(t *testing.T) {
	lookupErr := types.NewAppError(types.ErrCodeUpstreamPlatform, "no linked account", nil)
	a := NewGitHubAdapter(newAdapterTestClient(), &mockHandleLookup{err: lookupErr}, types.SecretString(""))

	_, err := a.Sync(context.Background(), "user-1")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamPlatform, appErr.Code)
}

func TestGitHubAdapter_Sync_UnknownUserIs404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewGitHubAdapter(newAdapterTestClient(), &mockHandleLookup{handle: "ghost"}, types.SecretString(""))
	a.baseURL = srv.URL

	_, err := a.Sync(context.Background(), "user-1")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamPlatform, appErr.Code)
}

func TestTwitterAdapter_Sync_MapsPublicMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/users/by/username/jack", r.URL.Path)
		assert.Equal(t, "public_metrics", r.URL.Query().Get("user.fields"))
		assert.Equal(t, "Bearer tw-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data": {"public_metrics": {"followers_count": 900, "tweet_count": 3000}}}`))
	}))
	defer srv.Close()

	a := NewTwitterAdapter(newAdapterTestClient(), &mockHandleLookup{handle: "jack"}, types.SecretString("tw-token"))
	a.baseURL = srv.URL

	outcome, err := a.Sync(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, types.SyncOutcome{Followers: 900, Activity: 3000}, outcome)
}

func TestTwitterAdapter_Sync_MissingTokenFailsFast(t *testing.T) {
	a := NewTwitterAdapter(newAdapterTestClient(), &mockHandleLookup{handle: "jack"}, types.SecretString(""))

	_, err := a.Sync(context.Background(), "user-1")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamPlatform, appErr.Code)
}

func TestInstagramAdapter_Sync_MapsAccountFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/17841400000000000", r.URL.Path)
		assert.Equal(t, "followers_count,media_count", r.URL.Query().Get("fields"))
		assert.Equal(t, "ig-token", r.URL.Query().Get("access_token"))
		w.Write([]byte(`{"followers_count": 512, "media_count": 77}`))
	}))
	defer srv.Close()

	a := NewInstagramAdapter(newAdapterTestClient(), &mockHandleLookup{handle: "17841400000000000"}, types.SecretString("ig-token"))
	a.baseURL = srv.URL

	outcome, err := a.Sync(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, types.SyncOutcome{Followers: 512, Activity: 77}, outcome)
}

func TestYouTubeAdapter_Sync_ParsesStringCounters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels", r.URL.Path)
		assert.Equal(t, "statistics", r.URL.Query().Get("part"))
		assert.Equal(t, "UC12345", r.URL.Query().Get("id"))
		assert.Equal(t, "yt-key", r.URL.Query().Get("key"))
		w.Write([]byte(`{"items": [{"statistics": {"subscriberCount": "42000", "videoCount": "310"}}]}`))
	}))
	defer srv.Close()

	a := NewYouTubeAdapter(newAdapterTestClient(), &mockHandleLookup{handle: "UC12345"}, types.SecretString("yt-key"))
	a.baseURL = srv.URL

	outcome, err := a.Sync(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, types.SyncOutcome{Followers: 42000, Activity: 310}, outcome)
}

func TestYouTubeAdapter_Sync_UnknownChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	a := NewYouTubeAdapter(newAdapterTestClient(), &mockHandleLookup{handle: "UCmissing"}, types.SecretString("yt-key"))
	a.baseURL = srv.URL

	_, err := a.Sync(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestYouTubeAdapter_Sync_MalformedCounter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [{"statistics": {"subscriberCount": "many", "videoCount": "310"}}]}`))
	}))
	defer srv.Close()

	a := NewYouTubeAdapter(newAdapterTestClient(), &mockHandleLookup{handle: "UC12345"}, types.SecretString("yt-key"))
	a.baseURL = srv.URL

	_, err := a.Sync(context.Background(), "user-1")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamPlatform, appErr.Code)
}
