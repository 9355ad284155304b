package reels

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zfogg/sidechain/reels/pkg/errors"
	"github.com/zfogg/sidechain/reels/pkg/logger"
)

// DefaultCommentPageSize is used when no page size is configured.
const DefaultCommentPageSize = 20

// CommentThread is the comment list of one feed item. Top-level comments
// paginate like the feed; replies are fetched once per comment. New
// comments appear only after the server confirms them.
type CommentThread struct {
	ctx    context.Context
	gen    uint64
	svc    CommentService
	itemID string
	limit  int

	comments []*Comment
	index    map[string]*Comment
	posted   map[string]bool

	started     bool
	cursor      *string
	loading     bool
	endOfStream bool
	err         error
	seq         uint64

	replyLoading map[string]bool
	replyErr     map[string]error

	posting int
	postErr error

	// OnPosted is called with each confirmed top-level comment.
	OnPosted func(c *Comment)
}

// NewCommentThread returns an empty thread for itemID.
func NewCommentThread(ctx context.Context, gen uint64, svc CommentService, itemID string, limit int) *CommentThread {
	if limit <= 0 {
		limit = DefaultCommentPageSize
	}
	return &CommentThread{
		ctx:          ctx,
		gen:          gen,
		svc:          svc,
		itemID:       itemID,
		limit:        limit,
		index:        make(map[string]*Comment),
		posted:       make(map[string]bool),
		replyLoading: make(map[string]bool),
		replyErr:     make(map[string]error),
	}
}

func (t *CommentThread) ItemID() string       { return t.itemID }
func (t *CommentThread) Comments() []*Comment { return t.comments }
func (t *CommentThread) Started() bool        { return t.started }
func (t *CommentThread) Loading() bool        { return t.loading }
func (t *CommentThread) EndOfStream() bool    { return t.endOfStream }
func (t *CommentThread) Err() error           { return t.err }
func (t *CommentThread) Posting() bool        { return t.posting > 0 }
func (t *CommentThread) PostErr() error       { return t.postErr }
func (t *CommentThread) ClearPostErr()        { t.postErr = nil }
func (t *CommentThread) ReplyErr(id string) error {
	return t.replyErr[id]
}

// RepliesLoading reports whether replies for commentID are in flight.
func (t *CommentThread) RepliesLoading(commentID string) bool {
	return t.replyLoading[commentID]
}

// Find returns the comment or reply with id, or nil.
func (t *CommentThread) Find(id string) *Comment {
	return t.index[id]
}

// Open requests the first page if nothing has been requested yet.
func (t *CommentThread) Open() tea.Cmd {
	if t.started || t.loading {
		return nil
	}
	return t.request()
}

// LoadMore requests the next page of top-level comments under the same
// rules as the feed: one request at a time, none past the end, none after
// a failure until Retry.
func (t *CommentThread) LoadMore() tea.Cmd {
	if !t.started || t.loading || t.endOfStream || t.err != nil {
		return nil
	}
	return t.request()
}

// Retry re-issues the failed page request.
func (t *CommentThread) Retry() tea.Cmd {
	if t.loading || t.err == nil {
		return nil
	}
	return t.request()
}

// LoadReplies fetches the replies of a top-level comment once.
func (t *CommentThread) LoadReplies(commentID string) tea.Cmd {
	c := t.index[commentID]
	if c == nil || c.IsReply() || c.RepliesLoaded() || t.replyLoading[commentID] {
		return nil
	}
	t.replyLoading[commentID] = true
	delete(t.replyErr, commentID)

	ctx, gen, svc, itemID := t.ctx, t.gen, t.svc, t.itemID
	logger.Debug("Loading replies", "item", itemID, "comment", commentID)
	return func() tea.Msg {
		replies, err := svc.ListReplies(ctx, commentID)
		if err != nil {
			return RepliesFailedMsg{Gen: gen, ItemID: itemID, CommentID: commentID, Err: errors.FetchError("replies", err)}
		}
		return RepliesLoadedMsg{Gen: gen, ItemID: itemID, CommentID: commentID, Replies: replies}
	}
}

// Post sends a new comment, or a reply when parentID is set. A reply to a
// reply is attached to that reply's top-level comment.
func (t *CommentThread) Post(body string, parentID *string) tea.Cmd {
	body = strings.TrimSpace(body)
	if body == "" {
		t.postErr = errors.ValidationError("comment", "body is empty")
		return nil
	}
	if parentID != nil {
		if p := t.index[*parentID]; p != nil && p.IsReply() {
			parentID = StringPtr(*p.ParentID)
		}
	}
	t.posting++
	t.postErr = nil

	ctx, gen, svc, itemID := t.ctx, t.gen, t.svc, t.itemID
	return func() tea.Msg {
		c, err := svc.CreateComment(ctx, itemID, body, parentID)
		if err != nil {
			return CommentPostFailedMsg{Gen: gen, ItemID: itemID, ParentID: parentID, Err: errors.MutationError("post comment", err)}
		}
		return CommentPostedMsg{Gen: gen, ItemID: itemID, ParentID: parentID, Comment: c}
	}
}

// Update applies thread messages for this item.
func (t *CommentThread) Update(msg tea.Msg) {
	switch msg := msg.(type) {
	case CommentsLoadedMsg:
		if msg.Seq != t.seq {
			return
		}
		t.loading = false
		t.err = nil
		for _, c := range msg.Page.Comments {
			if t.posted[c.ID] {
				continue
			}
			c.ParentID = nil
			t.comments = append(t.comments, c)
			t.indexComment(c)
		}
		t.cursor = msg.Page.NextCursor
		t.endOfStream = msg.Page.NextCursor == nil

	case CommentsFailedMsg:
		if msg.Seq != t.seq {
			return
		}
		t.loading = false
		t.err = msg.Err
		logger.Warn("Comment page failed", "item", t.itemID, "error", msg.Err)

	case RepliesLoadedMsg:
		delete(t.replyLoading, msg.CommentID)
		parent := t.index[msg.CommentID]
		if parent == nil {
			return
		}
		replies := make([]*Comment, 0, len(msg.Replies))
		for _, r := range msg.Replies {
			r.ParentID = StringPtr(parent.ID)
			r.Replies = nil
			replies = append(replies, r)
			t.index[r.ID] = r
		}
		parent.Replies = replies
		if parent.ReplyCount < len(replies) {
			parent.ReplyCount = len(replies)
		}

	case RepliesFailedMsg:
		delete(t.replyLoading, msg.CommentID)
		t.replyErr[msg.CommentID] = msg.Err

	case CommentPostedMsg:
		t.posting--
		t.confirm(msg.ParentID, msg.Comment)

	case CommentPostFailedMsg:
		t.posting--
		t.postErr = msg.Err
		logger.Warn("Comment post failed", "item", t.itemID, "error", msg.Err)
	}
}

// SetLike writes a displayed like state onto a comment or reply.
func (t *CommentThread) SetLike(id string, liked bool, count int) bool {
	c := t.index[id]
	if c == nil {
		return false
	}
	c.Liked = liked
	c.LikeCount = count
	return true
}

func (t *CommentThread) confirm(parentID *string, c *Comment) {
	if c == nil {
		return
	}
	c.ItemID = t.itemID
	if parentID == nil {
		c.ParentID = nil
		t.comments = append(t.comments, c)
		t.indexComment(c)
		t.posted[c.ID] = true
		if t.OnPosted != nil {
			t.OnPosted(c)
		}
		return
	}

	c.ParentID = StringPtr(*parentID)
	c.Replies = nil
	parent := t.index[*parentID]
	if parent == nil {
		return
	}
	parent.ReplyCount++
	// Unloaded replies stay unloaded; the new reply arrives with the fetch.
	if parent.RepliesLoaded() {
		parent.Replies = append(parent.Replies, c)
		t.index[c.ID] = c
	}
}

func (t *CommentThread) indexComment(c *Comment) {
	t.index[c.ID] = c
	for _, r := range c.Replies {
		r.ParentID = StringPtr(c.ID)
		r.Replies = nil
		t.index[r.ID] = r
	}
}

func (t *CommentThread) request() tea.Cmd {
	t.started = true
	t.seq++
	t.loading = true
	t.err = nil

	ctx, gen, svc, itemID, cursor, limit, seq := t.ctx, t.gen, t.svc, t.itemID, t.cursor, t.limit, t.seq
	logger.Debug("Requesting comments", "item", itemID, "cursor", cursorString(cursor), "limit", limit)
	return func() tea.Msg {
		page, err := svc.ListComments(ctx, itemID, cursor, limit)
		if err != nil {
			return CommentsFailedMsg{Gen: gen, ItemID: itemID, Seq: seq, Err: errors.FetchError("comments", err)}
		}
		return CommentsLoadedMsg{Gen: gen, ItemID: itemID, Seq: seq, Page: page}
	}
}
