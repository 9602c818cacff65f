package platforms

import (
	"context"
	"fmt"
	"net/url"

	"socialsync/internal/types"
)

// instagramAPIBase is the default Instagram Graph API base URL.
const instagramAPIBase = "https://graph.instagram.com"

// InstagramAdapter fetches follower and media counts from the Instagram
// Graph API. The handle stored for a user is their Instagram Graph account
// ID, and the configured access token must be authorized for it.
type InstagramAdapter struct {
	client  *BaseClient
	handles HandleLookup
	token   types.SecretString
	baseURL string
}

// NewInstagramAdapter creates an Instagram adapter.
func NewInstagramAdapter(client *BaseClient, handles HandleLookup, token types.SecretString) *InstagramAdapter {
	return &InstagramAdapter{
		client:  client,
		handles: handles,
		token:   token,
		baseURL: instagramAPIBase,
	}
}

// instagramAccount is the subset of the Graph API account response we consume.
type instagramAccount struct {
	FollowersCount int `json:"followers_count"`
	MediaCount     int `json:"media_count"`
}

// Sync fetches the user's Instagram statistics. Followers maps to the
// follower count; Activity maps to the media (post) count.
func (a *InstagramAdapter) Sync(ctx context.Context, userID string) (types.SyncOutcome, error) {
	if a.token.Unmask() == "" {
		return types.SyncOutcome{}, types.NewAppError(
			types.ErrCodeUpstreamPlatform,
			"instagram access token is not configured",
			nil,
		)
	}

	accountID, err := a.handles.PlatformHandle(ctx, userID, types.PlatformInstagram)
	if err != nil {
		return types.SyncOutcome{}, err
	}

	query := url.Values{
		"fields":       []string{"followers_count,media_count"},
		"access_token": []string{a.token.Unmask()},
	}

	var account instagramAccount
	endpoint := fmt.Sprintf("%s/%s?%s", a.baseURL, url.PathEscape(accountID), query.Encode())
	if err := getJSON(ctx, a.client, endpoint, nil, &account); err != nil {
		return types.SyncOutcome{}, err
	}

	return types.SyncOutcome{
		Followers: account.FollowersCount,
		Activity:  account.MediaCount,
	}, nil
}
