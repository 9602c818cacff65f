package platforms

import (
	"context"
	"fmt"
	"net/http"

	"socialsync/internal/types"
)

// githubAPIBase is the default GitHub REST API base URL.
const githubAPIBase = "https://api.github.com"

// GitHubAdapter fetches follower and public repository counts from the
// GitHub REST API. An unauthenticated client works but is limited to 60
// requests per hour; configure a token for real deployments.
type GitHubAdapter struct {
	client  *BaseClient
	handles HandleLookup
	token   types.SecretString
	baseURL string
}

// NewGitHubAdapter creates a GitHub adapter. The token may be empty.
func NewGitHubAdapter(client *BaseClient, handles HandleLookup, token types.SecretString) *GitHubAdapter {
	return &GitHubAdapter{
		client:  client,
		handles: handles,
		token:   token,
		baseURL: githubAPIBase,
	}
}

// githubUser is the subset of the GET /users/{login} response we consume.
type githubUser struct {
	Followers   int `json:"followers"`
	PublicRepos int `json:"public_repos"`
}

// Sync fetches the user's GitHub statistics. Followers maps to the follower
// count; Activity maps to the public repository count.
func (a *GitHubAdapter) Sync(ctx context.Context, userID string) (types.SyncOutcome, error) {
	login, err := a.handles.PlatformHandle(ctx, userID, types.PlatformGitHub)
	if err != nil {
		return types.SyncOutcome{}, err
	}

	header := http.Header{
		"Accept": []string{"application/vnd.github+json"},
	}
	if a.token.Unmask() != "" {
		header.Set("Authorization", "Bearer "+a.token.Unmask())
	}

	var user githubUser
	url := fmt.Sprintf("%s/users/%s", a.baseURL, login)
	if err := getJSON(ctx, a.client, url, header, &user); err != nil {
		return types.SyncOutcome{}, err
	}

	return types.SyncOutcome{
		Followers: user.Followers,
		Activity:  user.PublicRepos,
	}, nil
}
