package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"hoopwatch/pkg/platform/sentinel"
)

// Client fetches player data from the upstream provider. Implementations
// return sentinel.ErrNotFound for unknown players and wrap transport failures
// in sentinel.ErrUnavailable; the gateway's policies decide what the caller
// sees.
type Client interface {
	FetchIdentity(ctx context.Context, name string) (*PlayerIdentity, error)
	FetchStats(ctx context.Context, name string) (*PlayerStats, error)
	FetchHistory(ctx context.Context, name string, limit int) ([]GameLogEntry, error)
}

// HTTPClient talks to the player-data fetcher service.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// FetchIdentity resolves a player's identity record. The team affiliation is
// a second, independent upstream call; when it fails the identity is still
// returned with the free-agent placeholder.
func (c *HTTPClient) FetchIdentity(ctx context.Context, name string) (*PlayerIdentity, error) {
	var identity PlayerIdentity
	if err := c.getJSON(ctx, "/player/"+url.PathEscape(name), nil, &identity); err != nil {
		return nil, err
	}

	identity.TeamName = FreeAgentTeam
	var team struct {
		TeamName string `json:"teamName"`
		TeamCity string `json:"teamCity"`
	}
	if err := c.getJSON(ctx, "/player/"+url.PathEscape(name)+"/team", nil, &team); err != nil {
		c.logger.WarnContext(ctx, "team lookup degraded to placeholder", "player", name, "error", err)
	} else if team.TeamName != "" {
		if team.TeamCity != "" {
			identity.TeamName = team.TeamCity + " " + team.TeamName
		} else {
			identity.TeamName = team.TeamName
		}
	}

	return &identity, nil
}

func (c *HTTPClient) FetchStats(ctx context.Context, name string) (*PlayerStats, error) {
	var stats PlayerStats
	if err := c.getJSON(ctx, "/player/"+url.PathEscape(name)+"/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) FetchHistory(ctx context.Context, name string, limit int) ([]GameLogEntry, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	query := url.Values{"limit": []string{fmt.Sprintf("%d", limit)}}

	var games []GameLogEntry
	if err := c.getJSON(ctx, "/player/"+url.PathEscape(name)+"/games", query, &games); err != nil {
		return nil, err
	}
	return games, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build provider request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-apisports-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider call %s: %w: %w", path, sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return sentinel.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("provider returned %d for %s: %w", resp.StatusCode, path, sentinel.ErrUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode provider response for %s: %w", path, err)
	}
	return nil
}
