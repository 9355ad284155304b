package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/zfogg/sidechain/reels/pkg/errors"
	"github.com/zfogg/sidechain/reels/pkg/logger"
	"github.com/zfogg/sidechain/reels/pkg/reels"
)

// DefaultPageSize is the feed page size when none is configured.
const DefaultPageSize = 10

// Client talks to the reels API. It implements the content source,
// interaction, and comment contracts of the reels core.
type Client struct {
	http     *resty.Client
	pageSize int
}

var (
	_ reels.ContentSource      = (*Client)(nil)
	_ reels.InteractionService = (*Client)(nil)
	_ reels.CommentService     = (*Client)(nil)
)

// New returns a client issuing requests through http.
func New(http *resty.Client, pageSize int) *Client {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Client{http: http, pageSize: pageSize}
}

// FetchPage retrieves one page of the reels feed for key.
func (c *Client) FetchPage(ctx context.Context, key reels.FeedKey, cursor *string) (reels.Page, error) {
	logger.Debug("Fetching reels page", "key", key.String(), "cursor", deref(cursor))

	params := map[string]string{
		"personalized": strconv.FormatBool(key.Personalized),
		"limit":        strconv.Itoa(c.pageSize),
	}
	if cursor != nil {
		params["page"] = *cursor
	}
	if key.Category != "" {
		params["category"] = key.Category
	}

	var response ReelsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&response).
		Get("/api/v1/reels")
	if err := check(resp, err, "fetch reels"); err != nil {
		return reels.Page{}, err
	}

	page := reels.Page{Key: key, NextCursor: nextPageCursor(response, cursor)}
	page.Items = make([]*reels.FeedItem, 0, len(response.Items))
	for _, r := range response.Items {
		page.Items = append(page.Items, r.ToItem())
	}
	return page, nil
}

// ToggleLike flips the current user's like on a reel.
func (c *Client) ToggleLike(ctx context.Context, itemID string) (reels.ToggleResult, error) {
	logger.Debug("Toggling like", "reel_id", itemID)

	var response LikeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&response).
		Post(fmt.Sprintf("/api/v1/reels/%s/like", itemID))
	if err := check(resp, err, "toggle like"); err != nil {
		return reels.ToggleResult{}, err
	}
	return reels.ToggleResult{Active: response.Liked, Count: response.Count}, nil
}

// ToggleSave flips the current user's save on a reel.
func (c *Client) ToggleSave(ctx context.Context, itemID string) (reels.ToggleResult, error) {
	logger.Debug("Toggling save", "reel_id", itemID)

	var response SaveResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&response).
		Post(fmt.Sprintf("/api/v1/reels/%s/save", itemID))
	if err := check(resp, err, "toggle save"); err != nil {
		return reels.ToggleResult{}, err
	}
	return reels.ToggleResult{Active: response.Saved, Count: response.Count}, nil
}

// nextPageCursor prefers an explicit cursor and otherwise advances the
// page number while the server reports more.
func nextPageCursor(r ReelsResponse, cursor *string) *string {
	if r.NextCursor != nil && *r.NextCursor != "" {
		return r.NextCursor
	}
	if !r.HasMore {
		return nil
	}
	page := r.Page
	if page == 0 {
		page = 1
		if cursor != nil {
			if n, err := strconv.Atoi(*cursor); err == nil {
				page = n
			}
		}
	}
	return reels.StringPtr(strconv.Itoa(page + 1))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// check turns a transport error or non-2xx response into a typed error.
func check(resp *resty.Response, err error, action string) error {
	if err != nil {
		cliErr := errors.CategorizeError(err)
		return fmt.Errorf("%s: %w", action, cliErr)
	}
	if !resp.IsSuccess() {
		retryAfter, _ := strconv.Atoi(resp.Header().Get("Retry-After"))
		return fmt.Errorf("%s: %w", action, errors.FromStatus(resp.StatusCode(), resp.String(), retryAfter))
	}
	return nil
}
