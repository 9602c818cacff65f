package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"socialsync/internal/types"
)

// HandleLookup resolves a user's account handle on a platform. Implemented
// by db.UserRepository.
type HandleLookup interface {
	PlatformHandle(ctx context.Context, userID string, platform types.Platform) (string, error)
}

// maxResponseSize caps platform API response bodies (1 MB). The statistics
// payloads are tiny; anything larger is malformed or hostile.
const maxResponseSize = 1 << 20

// getJSON issues a GET through the given BaseClient and decodes the JSON
// response body into dst. Non-2xx statuses are mapped to upstream errors.
func getJSON(ctx context.Context, client *BaseClient, url string, header http.Header, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build platform request", err)
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// BaseClient already retried 429/5xx; whatever arrives here is a
		// hard client-side status (bad handle, revoked token).
		return types.NewAppError(
			types.ErrCodeUpstreamPlatform,
			fmt.Sprintf("platform returned status %d", resp.StatusCode),
			nil,
		)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return types.NewAppError(types.ErrCodeUpstreamPlatform, "failed to read platform response", err)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamPlatform, "failed to decode platform response", err)
	}

	return nil
}
