package social

import (
	"context"
	"fmt"
	"time"

	"MacroPulse/internal/domain/models"
	drepo "MacroPulse/internal/domain/repository"
	xhttp "MacroPulse/pkg/http"
)

// Client implements a SocialSource over a timeline relay service. The relay
// exposes GET /accounts/{handle}/posts returning recent posts as JSON.
type Client struct {
	baseURL string
	http    *xhttp.Client
}

// New creates a relay client.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithUserAgent("macropulse/1.0")),
	}
}

var _ drepo.SocialSource = (*Client)(nil)

type relayPost struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
	LikeCount int       `json:"like_count"`
}

// Fetch returns recent posts for one account handle.
func (c *Client) Fetch(ctx context.Context, account string) ([]*models.SocialPost, error) {
	var raw []relayPost
	url := fmt.Sprintf("%s/accounts/%s/posts", c.baseURL, account)
	if err := c.http.GetJSON(ctx, url, nil, &raw); err != nil {
		return nil, fmt.Errorf("timeline %s: %w", account, err)
	}

	posts := make([]*models.SocialPost, 0, len(raw))
	for _, p := range raw {
		posts = append(posts, &models.SocialPost{
			ID:      p.ID,
			Author:  account,
			Text:    p.Text,
			Summary: p.Summary,
			Posted:  p.CreatedAt.UTC(),
			Likes:   p.LikeCount,
		})
	}

	return posts, nil
}
