// Package reels is the client core of the reels feed: cursor pagination,
// scroll-driven active item resolution, single-active playback, optimistic
// interactions, and two-level comment threads. Everything runs on one
// bubbletea event loop; I/O is issued as tea.Cmd and comes back as tea.Msg.
package reels

import (
	"fmt"
	"time"
)

// Author is the summary of a feed item's or comment's creator.
type Author struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Handle returns the @-prefixed username.
func (a Author) Handle() string {
	return "@" + a.Username
}

// FeedItem is one reel. The cache owns it; renderers hold the pointer.
// Only the interaction flags and counters change after fetch.
type FeedItem struct {
	ID           string    `json:"id"`
	MediaURL     string    `json:"mediaUrl"`
	PosterURL    string    `json:"posterUrl,omitempty"`
	Caption      string    `json:"caption,omitempty"`
	Author       Author    `json:"author"`
	LikeCount    int       `json:"likeCount"`
	CommentCount int       `json:"commentCount"`
	SaveCount    int       `json:"saveCount"`
	Liked        bool      `json:"liked"`
	Saved        bool      `json:"saved"`
	Hashtags     []string  `json:"hashtags,omitempty"`
	Category     string    `json:"category,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FeedKey identifies one feed sequence. An empty Category means no filter.
type FeedKey struct {
	Personalized bool
	Category     string
}

func (k FeedKey) String() string {
	mode := "latest"
	if k.Personalized {
		mode = "for-you"
	}
	if k.Category == "" {
		return mode
	}
	return fmt.Sprintf("%s/%s", mode, k.Category)
}

// Page is one response from the content source. A nil NextCursor marks
// the end of the stream for Key.
type Page struct {
	Key        FeedKey
	Items      []*FeedItem
	NextCursor *string
}

// Comment is a top-level comment (ParentID nil) or a reply (ParentID set
// to a top-level comment). Replies stays nil until loaded.
type Comment struct {
	ID         string     `json:"id"`
	ItemID     string     `json:"itemId"`
	ParentID   *string    `json:"parentId,omitempty"`
	Author     Author     `json:"author"`
	Body       string     `json:"body"`
	LikeCount  int        `json:"likeCount"`
	Liked      bool       `json:"liked"`
	ReplyCount int        `json:"replyCount"`
	Replies    []*Comment `json:"replies,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// IsReply reports whether c hangs off another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// RepliesLoaded reports whether the reply list has been fetched.
func (c *Comment) RepliesLoaded() bool {
	return c.Replies != nil
}

// CommentPage is one page of top-level comments.
type CommentPage struct {
	Comments   []*Comment
	NextCursor *string
}

// ToggleResult is the server's answer to a toggle mutation.
type ToggleResult struct {
	Active bool
	Count  int
}

// PlaybackHandle is the observable state of one rendered item's media.
type PlaybackHandle struct {
	Ready   bool
	Playing bool
	Muted   bool
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
