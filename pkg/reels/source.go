package reels

import (
	"context"
	"time"
)

// ContentSource serves cursor-paginated feed pages. A nil cursor asks for
// the first page.
type ContentSource interface {
	FetchPage(ctx context.Context, key FeedKey, cursor *string) (Page, error)
}

// InteractionService performs toggle mutations on feed items. Each call
// flips server state; calls are not idempotent.
type InteractionService interface {
	ToggleLike(ctx context.Context, itemID string) (ToggleResult, error)
	ToggleSave(ctx context.Context, itemID string) (ToggleResult, error)
}

// CommentService serves and mutates comment threads.
type CommentService interface {
	ListComments(ctx context.Context, itemID string, cursor *string, limit int) (CommentPage, error)
	ListReplies(ctx context.Context, commentID string) ([]*Comment, error)
	CreateComment(ctx context.Context, itemID, body string, parentID *string) (*Comment, error)
	ToggleCommentLike(ctx context.Context, commentID string) (ToggleResult, error)
}

// PreferenceStore is a durable key-value store for client settings.
type PreferenceStore interface {
	GetBool(key string) (value bool, ok bool)
	SetBool(key string, value bool) error
}

// Player drives the media of one rendered item.
//
// Load runs off the event loop and must not touch player state; its
// payload is handed to Attach on the loop. All other methods are called
// only from the loop.
type Player interface {
	Load(ctx context.Context) (interface{}, error)
	Attach(payload interface{}) error
	Play()
	Pause()
	SetMuted(muted bool)
	// Advance moves playback one step and reports end of media.
	Advance() bool
	// Interval is the step period while playing. Zero means static media
	// that never ends on its own.
	Interval() time.Duration
	Release()
	Handle() PlaybackHandle
}

// PlayerFactory builds the player for an item.
type PlayerFactory func(item *FeedItem) Player
