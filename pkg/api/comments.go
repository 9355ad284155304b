package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zfogg/sidechain/reels/pkg/logger"
	"github.com/zfogg/sidechain/reels/pkg/reels"
)

// ListComments retrieves one page of top-level comments on a reel. The
// cursor is an opaque server token or, for offset-paged servers, the
// offset of the next comment.
func (c *Client) ListComments(ctx context.Context, itemID string, cursor *string, limit int) (reels.CommentPage, error) {
	logger.Debug("Getting comments", "reel_id", itemID, "cursor", deref(cursor), "limit", limit)

	params := map[string]string{"limit": strconv.Itoa(limit)}
	if cursor != nil {
		params["cursor"] = *cursor
	}

	var response CommentsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&response).
		Get(fmt.Sprintf("/api/v1/reels/%s/comments", itemID))
	if err := check(resp, err, "get comments"); err != nil {
		return reels.CommentPage{}, err
	}

	page := reels.CommentPage{Comments: make([]*reels.Comment, 0, len(response.Comments))}
	for _, cm := range response.Comments {
		page.Comments = append(page.Comments, cm.ToComment())
	}
	switch {
	case response.NextCursor != nil && *response.NextCursor != "":
		page.NextCursor = response.NextCursor
	case response.HasMore:
		offset := 0
		if cursor != nil {
			offset, _ = strconv.Atoi(*cursor)
		}
		page.NextCursor = reels.StringPtr(strconv.Itoa(offset + len(response.Comments)))
	}
	return page, nil
}

// ListReplies retrieves the replies to a comment
func (c *Client) ListReplies(ctx context.Context, commentID string) ([]*reels.Comment, error) {
	logger.Debug("Getting comment replies", "comment_id", commentID)

	var response RepliesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&response).
		Get(fmt.Sprintf("/api/v1/comments/%s/replies", commentID))
	if err := check(resp, err, "get replies"); err != nil {
		return nil, err
	}

	replies := make([]*reels.Comment, 0, len(response.Replies))
	for _, r := range response.Replies {
		replies = append(replies, r.ToComment())
	}
	return replies, nil
}

// CreateComment posts a comment, or a reply when parentID is set
func (c *Client) CreateComment(ctx context.Context, itemID, body string, parentID *string) (*reels.Comment, error) {
	logger.Debug("Creating comment", "reel_id", itemID, "parent_id", deref(parentID))

	var response CreateCommentResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(CreateCommentRequest{Content: body, ParentID: parentID}).
		SetResult(&response).
		Post(fmt.Sprintf("/api/v1/reels/%s/comments", itemID))
	if err := check(resp, err, "create comment"); err != nil {
		return nil, err
	}
	return response.Comment.ToComment(), nil
}

// ToggleCommentLike flips the current user's like on a comment or reply
func (c *Client) ToggleCommentLike(ctx context.Context, commentID string) (reels.ToggleResult, error) {
	logger.Debug("Toggling comment like", "comment_id", commentID)

	var response CommentLikeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&response).
		Post(fmt.Sprintf("/api/v1/comments/%s/like", commentID))
	if err := check(resp, err, "toggle comment like"); err != nil {
		return reels.ToggleResult{}, err
	}
	return reels.ToggleResult{Active: response.Liked, Count: response.LikeCount}, nil
}
