package reels

// Every message produced by a component carries the mount generation it
// was issued under. The session drops messages from earlier mounts.
type stamped interface {
	generation() uint64
}

// PageLoadedMsg delivers a page requested by the feed cache.
type PageLoadedMsg struct {
	Gen    uint64
	Seq    uint64
	Key    FeedKey
	Cursor *string
	Page   Page
}

// PageFailedMsg reports a failed page request.
type PageFailedMsg struct {
	Gen    uint64
	Seq    uint64
	Key    FeedKey
	Cursor *string
	Err    error
}

// MediaReadyMsg delivers a loaded media payload for an item.
type MediaReadyMsg struct {
	Gen     uint64
	ItemID  string
	Epoch   uint64
	Payload interface{}
}

// MediaFailedMsg reports a media load failure for an item.
type MediaFailedMsg struct {
	Gen    uint64
	ItemID string
	Epoch  uint64
	Err    error
}

// TeardownMsg fires when an inactive item's grace delay expires.
type TeardownMsg struct {
	Gen    uint64
	ItemID string
	Seq    uint64
}

// PlaybackTickMsg advances the playing item by one step.
type PlaybackTickMsg struct {
	Gen    uint64
	ItemID string
	Seq    uint64
}

// ToggleResultMsg reports the outcome of one toggle mutation.
type ToggleResultMsg struct {
	Gen    uint64
	Kind   Kind
	ID     string
	Target bool
	Result ToggleResult
	Err    error
}

// CommentsLoadedMsg delivers a page of top-level comments.
type CommentsLoadedMsg struct {
	Gen    uint64
	ItemID string
	Seq    uint64
	Page   CommentPage
}

// CommentsFailedMsg reports a failed comment page request.
type CommentsFailedMsg struct {
	Gen    uint64
	ItemID string
	Seq    uint64
	Err    error
}

// RepliesLoadedMsg delivers the replies of one comment.
type RepliesLoadedMsg struct {
	Gen       uint64
	ItemID    string
	CommentID string
	Replies   []*Comment
}

// RepliesFailedMsg reports a failed reply request.
type RepliesFailedMsg struct {
	Gen       uint64
	ItemID    string
	CommentID string
	Err       error
}

// CommentPostedMsg delivers a server-confirmed comment or reply.
type CommentPostedMsg struct {
	Gen      uint64
	ItemID   string
	ParentID *string
	Comment  *Comment
}

// CommentPostFailedMsg reports a rejected comment post. The draft is dropped.
type CommentPostFailedMsg struct {
	Gen      uint64
	ItemID   string
	ParentID *string
	Err      error
}

// LiveCountMsg carries a pushed counter value for an item or comment.
// It is not stamped; counters are absolute and safe to apply at any time.
type LiveCountMsg struct {
	Kind  Kind
	ID    string
	Count int
}

func (m PageLoadedMsg) generation() uint64        { return m.Gen }
func (m PageFailedMsg) generation() uint64        { return m.Gen }
func (m MediaReadyMsg) generation() uint64        { return m.Gen }
func (m MediaFailedMsg) generation() uint64       { return m.Gen }
func (m TeardownMsg) generation() uint64          { return m.Gen }
func (m PlaybackTickMsg) generation() uint64      { return m.Gen }
func (m ToggleResultMsg) generation() uint64      { return m.Gen }
func (m CommentsLoadedMsg) generation() uint64    { return m.Gen }
func (m CommentsFailedMsg) generation() uint64    { return m.Gen }
func (m RepliesLoadedMsg) generation() uint64     { return m.Gen }
func (m RepliesFailedMsg) generation() uint64     { return m.Gen }
func (m CommentPostedMsg) generation() uint64     { return m.Gen }
func (m CommentPostFailedMsg) generation() uint64 { return m.Gen }
