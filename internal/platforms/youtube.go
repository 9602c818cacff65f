package platforms

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"socialsync/internal/types"
)

// youtubeAPIBase is the default YouTube Data API v3 base URL.
const youtubeAPIBase = "https://www.googleapis.com/youtube/v3"

// YouTubeAdapter fetches subscriber and video counts from the YouTube Data
// API. The handle stored for a user is their channel ID.
type YouTubeAdapter struct {
	client  *BaseClient
	handles HandleLookup
	apiKey  types.SecretString
	baseURL string
}

// NewYouTubeAdapter creates a YouTube adapter.
func NewYouTubeAdapter(client *BaseClient, handles HandleLookup, apiKey types.SecretString) *YouTubeAdapter {
	return &YouTubeAdapter{
		client:  client,
		handles: handles,
		apiKey:  apiKey,
		baseURL: youtubeAPIBase,
	}
}

// youtubeChannelList is the subset of the channels.list response we consume.
// The Data API serializes statistics counters as strings.
type youtubeChannelList struct {
	Items []struct {
		Statistics struct {
			SubscriberCount string `json:"subscriberCount"`
			VideoCount      string `json:"videoCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// Sync fetches the user's YouTube statistics. Followers maps to the
// subscriber count; Activity maps to the uploaded video count.
func (a *YouTubeAdapter) Sync(ctx context.Context, userID string) (types.SyncOutcome, error) {
	if a.apiKey.Unmask() == "" {
		return types.SyncOutcome{}, types.NewAppError(
			types.ErrCodeUpstreamPlatform,
			"youtube api key is not configured",
			nil,
		)
	}

	channelID, err := a.handles.PlatformHandle(ctx, userID, types.PlatformYouTube)
	if err != nil {
		return types.SyncOutcome{}, err
	}

	query := url.Values{
		"part": []string{"statistics"},
		"id":   []string{channelID},
		"key":  []string{a.apiKey.Unmask()},
	}

	var list youtubeChannelList
	endpoint := fmt.Sprintf("%s/channels?%s", a.baseURL, query.Encode())
	if err := getJSON(ctx, a.client, endpoint, nil, &list); err != nil {
		return types.SyncOutcome{}, err
	}

	if len(list.Items) == 0 {
		return types.SyncOutcome{}, types.NewAppError(
			types.ErrCodeUpstreamPlatform,
			fmt.Sprintf("youtube channel %s not found", channelID),
			nil,
		)
	}

	stats := list.Items[0].Statistics
	subscribers, err := strconv.Atoi(stats.SubscriberCount)
	if err != nil {
		return types.SyncOutcome{}, types.NewAppError(
			types.ErrCodeUpstreamPlatform,
			"youtube returned a malformed subscriber count",
			err,
		)
	}
	videos, err := strconv.Atoi(stats.VideoCount)
	if err != nil {
		return types.SyncOutcome{}, types.NewAppError(
			types.ErrCodeUpstreamPlatform,
			"youtube returned a malformed video count",
			err,
		)
	}

	return types.SyncOutcome{
		Followers: subscribers,
		Activity:  videos,
	}, nil
}
