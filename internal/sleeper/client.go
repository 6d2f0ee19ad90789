// Package sleeper is a thin client for the public Sleeper fantasy API.
package sleeper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultBaseURL = "https://api.sleeper.app/v1"

// PlayerData is the subset of Sleeper's player record the catalog keeps.
type PlayerData struct {
	FirstName        string   `json:"first_name"`
	LastName         string   `json:"last_name"`
	FullName         string   `json:"full_name"`
	Position         string   `json:"position"`
	Team             string   `json:"team"`
	Status           string   `json:"status"`
	FantasyPositions []string `json:"fantasy_positions"`
}

// StatLine is a raw per-player stat map for one week, keyed by Sleeper stat
// names (pts_ppr, rec_yd, ...).
type StatLine map[string]float64

type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AllPlayers fetches the full NFL player catalog keyed by player id.
func (c *Client) AllPlayers(ctx context.Context) (map[string]PlayerData, error) {
	var out map[string]PlayerData
	if err := c.get(ctx, "/players/nfl", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// WeekStats fetches regular-season stats for every player in a week.
func (c *Client) WeekStats(ctx context.Context, season, week int) (map[string]StatLine, error) {
	var out map[string]StatLine
	if err := c.get(ctx, fmt.Sprintf("/stats/nfl/regular/%d/%d", season, week), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// WeekProjections fetches projected stats for a week.
func (c *Client) WeekProjections(ctx context.Context, season, week int) (map[string]StatLine, error) {
	var out map[string]StatLine
	if err := c.get(ctx, fmt.Sprintf("/projections/nfl/regular/%d/%d", season, week), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sleeper returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Points resolves a stat line to fantasy points: PPR when present, then
// half-PPR, then standard, else zero. Zero values fall through, matching how
// the site's own lineup math treats them.
func Points(line StatLine) float64 {
	for _, key := range []string{"pts_ppr", "pts_half_ppr", "pts_std"} {
		if v := line[key]; v != 0 {
			return v
		}
	}
	return 0
}
