package platforms

import (
	"context"
	"fmt"
	"net/http"

	"socialsync/internal/types"
)

// twitterAPIBase is the default Twitter v2 API base URL.
const twitterAPIBase = "https://api.twitter.com"

// TwitterAdapter fetches follower and tweet counts from the Twitter v2 API
// using an app-only bearer token.
type TwitterAdapter struct {
	client  *BaseClient
	handles HandleLookup
	token   types.SecretString
	baseURL string
}

// NewTwitterAdapter creates a Twitter adapter.
func NewTwitterAdapter(client *BaseClient, handles HandleLookup, token types.SecretString) *TwitterAdapter {
	return &TwitterAdapter{
		client:  client,
		handles: handles,
		token:   token,
		baseURL: twitterAPIBase,
	}
}

// twitterUserResponse is the subset of the users/by/username response we
// consume. public_metrics requires the user.fields query parameter.
type twitterUserResponse struct {
	Data struct {
		PublicMetrics struct {
			FollowersCount int `json:"followers_count"`
			TweetCount     int `json:"tweet_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

// Sync fetches the user's Twitter statistics. Followers maps to the
// follower count; Activity maps to the lifetime tweet count.
func (a *TwitterAdapter) Sync(ctx context.Context, userID string) (types.SyncOutcome, error) {
	if a.token.Unmask() == "" {
		return types.SyncOutcome{}, types.NewAppError(
			types.ErrCodeUpstreamPlatform,
			"twitter bearer token is not configured",
			nil,
		)
	}

	username, err := a.handles.PlatformHandle(ctx, userID, types.PlatformTwitter)
	if err != nil {
		return types.SyncOutcome{}, err
	}

	header := http.Header{
		"Authorization": []string{"Bearer " + a.token.Unmask()},
	}

	var resp twitterUserResponse
	url := fmt.Sprintf("%s/2/users/by/username/%s?user.fields=public_metrics", a.baseURL, username)
	if err := getJSON(ctx, a.client, url, header, &resp); err != nil {
		return types.SyncOutcome{}, err
	}

	return types.SyncOutcome{
		Followers: resp.Data.PublicMetrics.FollowersCount,
		Activity:  resp.Data.PublicMetrics.TweetCount,
	}, nil
}
