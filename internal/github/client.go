package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"DevHabit/internal/logger"
)

// Profile is the subset of the GitHub user resource the API exposes.
type Profile struct {
	Login       string  `json:"login" xml:"login"`
	Name        *string `json:"name" xml:"name"`
	AvatarURL   string  `json:"avatar_url" xml:"avatarUrl"`
	Bio         *string `json:"bio" xml:"bio"`
	PublicRepos int     `json:"public_repos" xml:"publicRepos"`
	Followers   int     `json:"followers" xml:"followers"`
	Following   int     `json:"following" xml:"following"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// GetProfile fetches the profile of the token owner. Any failure is logged and
// reported as a nil profile.
func (c *Client) GetProfile(ctx context.Context, accessToken string) *Profile {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		logger.Warn("github_request_build_failed", map[string]any{"error": err})
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "DevHabit/1.0")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("github_request_failed", map[string]any{"error": err})
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Warn("github_unexpected_status", map[string]any{
			"status": resp.StatusCode,
			"body":   string(body),
		})
		return nil
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		logger.Warn("github_decode_failed", map[string]any{"error": fmt.Errorf("decode profile: %w", err)})
		return nil
	}
	return &p
}
