package api

import (
	"time"

	"github.com/zfogg/sidechain/reels/pkg/reels"
)

// Author is the user summary embedded in reels and comments
type Author struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Reel is a feed item as served by the API
type Reel struct {
	ID           string    `json:"id"`
	MediaURL     string    `json:"media_url"`
	PosterURL    string    `json:"poster_url,omitempty"`
	Caption      string    `json:"caption,omitempty"`
	User         Author    `json:"user"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	SaveCount    int       `json:"save_count"`
	IsLiked      bool      `json:"is_liked"`
	IsSaved      bool      `json:"is_saved"`
	Hashtags     []string  `json:"hashtags,omitempty"`
	Category     string    `json:"category,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReelsResponse is one page of the reels feed. Servers either send an
// explicit nextCursor or rely on page numbers with hasMore.
type ReelsResponse struct {
	Items      []Reel  `json:"items"`
	HasMore    bool    `json:"hasMore"`
	NextCursor *string `json:"nextCursor,omitempty"`
	Page       int     `json:"page,omitempty"`
}

// LikeResponse is returned by the like toggle
type LikeResponse struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// SaveResponse is returned by the save toggle
type SaveResponse struct {
	Saved bool `json:"saved"`
	Count int  `json:"count"`
}

// Comment is a comment or reply as served by the API
type Comment struct {
	ID         string    `json:"id"`
	ReelID     string    `json:"reel_id"`
	ParentID   *string   `json:"parent_id,omitempty"`
	User       Author    `json:"user"`
	Content    string    `json:"content"`
	LikeCount  int       `json:"like_count"`
	IsLiked    bool      `json:"is_liked"`
	ReplyCount int       `json:"reply_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// CommentsResponse is one page of top-level comments
type CommentsResponse struct {
	Comments   []Comment `json:"comments"`
	HasMore    bool      `json:"hasMore"`
	NextCursor *string   `json:"nextCursor,omitempty"`
}

// RepliesResponse lists the replies of a comment
type RepliesResponse struct {
	Replies []Comment `json:"replies"`
}

// CreateCommentRequest is the body of a comment post
type CreateCommentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parentId,omitempty"`
}

// CreateCommentResponse wraps the created comment
type CreateCommentResponse struct {
	Comment Comment `json:"comment"`
}

// CommentLikeResponse is returned by the comment like toggle
type CommentLikeResponse struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

// ToItem converts the wire form into a feed item.
func (r Reel) ToItem() *reels.FeedItem {
	return &reels.FeedItem{
		ID:           r.ID,
		MediaURL:     r.MediaURL,
		PosterURL:    r.PosterURL,
		Caption:      r.Caption,
		Author:       r.User.toCore(),
		LikeCount:    r.LikeCount,
		CommentCount: r.CommentCount,
		SaveCount:    r.SaveCount,
		Liked:        r.IsLiked,
		Saved:        r.IsSaved,
		Hashtags:     r.Hashtags,
		Category:     r.Category,
		CreatedAt:    r.CreatedAt,
	}
}

// ToComment converts the wire form into a thread comment.
func (c Comment) ToComment() *reels.Comment {
	return &reels.Comment{
		ID:         c.ID,
		ItemID:     c.ReelID,
		ParentID:   c.ParentID,
		Author:     c.User.toCore(),
		Body:       c.Content,
		LikeCount:  c.LikeCount,
		Liked:      c.IsLiked,
		ReplyCount: c.ReplyCount,
		CreatedAt:  c.CreatedAt,
	}
}

func (a Author) toCore() reels.Author {
	return reels.Author{
		ID:          a.ID,
		Username:    a.Username,
		DisplayName: a.DisplayName,
		AvatarURL:   a.AvatarURL,
	}
}
