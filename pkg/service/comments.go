package service

import (
	"context"
	"fmt"

	"github.com/zfogg/sidechain/reels/pkg/api"
	"github.com/zfogg/sidechain/reels/pkg/client"
	"github.com/zfogg/sidechain/reels/pkg/config"
	"github.com/zfogg/sidechain/reels/pkg/logger"
	"github.com/zfogg/sidechain/reels/pkg/output"
	"github.com/zfogg/sidechain/reels/pkg/reels"
	"github.com/zfogg/sidechain/reels/pkg/render"
)

var commentColumns = []string{"ID", "AUTHOR", "LIKES", "REPLIES", "COMMENT"}

// CommentService provides comment thread operations
type CommentService struct {
	api *api.Client
}

// NewCommentService creates a comment service from configuration
func NewCommentService() *CommentService {
	return NewCommentServiceWith(api.New(client.GetClient(), config.GetInt("feed.page_size")))
}

// NewCommentServiceWith creates a comment service over an explicit client
func NewCommentServiceWith(c *api.Client) *CommentService {
	return &CommentService{api: c}
}

// List prints one page of top-level comments on a reel
func (cs *CommentService) List(ctx context.Context, itemID, cursor string, limit int) error {
	logger.Debug("Listing comments", "item", itemID, "cursor", cursor)
	if limit <= 0 {
		limit = config.GetInt("comments.page_size")
	}

	var cur *string
	if cursor != "" {
		cur = &cursor
	}
	page, err := cs.api.ListComments(ctx, itemID, cur, limit)
	if err != nil {
		return fmt.Errorf("failed to fetch comments: %w", err)
	}

	if len(page.Comments) == 0 && output.GetOutputFormat() != output.FormatJSON {
		output.PrintInfo("No comments yet.")
		return nil
	}
	if err := output.PrintList("Comments", page.Comments, commentColumns, commentRows(page.Comments)); err != nil {
		return err
	}
	if page.NextCursor != nil && output.GetOutputFormat() != output.FormatJSON {
		output.PrintInfo("More: --cursor %s", *page.NextCursor)
	}
	return nil
}

// Replies prints the replies to a comment
func (cs *CommentService) Replies(ctx context.Context, commentID string) error {
	logger.Debug("Listing replies", "comment", commentID)

	replies, err := cs.api.ListReplies(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to fetch replies: %w", err)
	}
	if len(replies) == 0 && output.GetOutputFormat() != output.FormatJSON {
		output.PrintInfo("No replies.")
		return nil
	}
	return output.PrintList("Replies", replies, commentColumns, commentRows(replies))
}

// Post creates a comment, or a reply when parentID is not empty
func (cs *CommentService) Post(ctx context.Context, itemID, body, parentID string) error {
	var parent *string
	if parentID != "" {
		parent = &parentID
	}
	c, err := cs.api.CreateComment(ctx, itemID, body, parent)
	if err != nil {
		return fmt.Errorf("failed to post comment: %w", err)
	}
	if output.GetOutputFormat() == output.FormatJSON {
		return output.PrintRecord("", c, nil)
	}
	output.PrintSuccess("Posted comment %s", c.ID)
	return nil
}

// ToggleLike flips the like on a comment
func (cs *CommentService) ToggleLike(ctx context.Context, commentID string) error {
	res, err := cs.api.ToggleCommentLike(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to toggle comment like: %w", err)
	}
	return printToggle("Liked", "Unliked", commentID, res)
}

func commentRows(comments []*reels.Comment) [][]string {
	rows := make([][]string, 0, len(comments))
	for _, c := range comments {
		like := render.CompactCount(c.LikeCount)
		if c.Liked {
			like = "♥ " + like
		}
		rows = append(rows, []string{c.ID, c.Author.Handle(), like, fmt.Sprintf("%d", c.ReplyCount), truncate(c.Body, 60)})
	}
	return rows
}
