package reels

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zfogg/sidechain/reels/pkg/logger"
)

// PersonalizedPref is the preference key of the personalization toggle.
const PersonalizedPref = "reels.personalized"

// Deps are the collaborators a session talks to.
type Deps struct {
	Source       ContentSource
	Interactions InteractionService
	Comments     CommentService
	Prefs        PreferenceStore
	NewPlayer    PlayerFactory
}

// Options tune a session.
type Options struct {
	Grace            time.Duration
	Preload          int
	PrefetchDistance int
	CommentPageSize  int
	Muted            bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Grace:           1500 * time.Millisecond,
		Preload:         1,
		CommentPageSize: DefaultCommentPageSize,
	}
}

// MountOptions is what the hosting page passes in.
type MountOptions struct {
	// Category filters the feed. Empty means all categories.
	Category string
	// InitialPage is a first page fetched ahead of mount. It is used only
	// when its key matches the key the session resolves.
	InitialPage *Page
	// OnNext and OnPrevious fire after explicit navigation moves.
	OnNext     func(index int)
	OnPrevious func(index int)
}

// Session is the context object tying the feed components together for
// one mount. All methods must be called from the event loop.
type Session struct {
	deps Deps
	opts Options

	ctx     context.Context
	cancel  context.CancelFunc
	gen     uint64
	mounted bool
	mount   MountOptions

	personalized bool
	category     string

	feed     *FeedCache
	resolver *Resolver
	playback *Coordinator
	interact *Reconciler
	threads  map[string]*CommentThread

	advancePending bool
	notice         error
}

// NewSession returns an unmounted session.
func NewSession(deps Deps, opts Options) *Session {
	if opts.CommentPageSize <= 0 {
		opts.CommentPageSize = DefaultCommentPageSize
	}
	return &Session{deps: deps, opts: opts, resolver: NewResolver(opts.PrefetchDistance)}
}

// Mount starts a session: reads the personalization preference, seeds or
// requests the first page, and activates the first item once it exists.
func (s *Session) Mount(parent context.Context, m MountOptions) tea.Cmd {
	if s.mounted {
		s.Unmount()
	}
	s.gen++
	s.ctx, s.cancel = context.WithCancel(parent)
	s.mounted = true
	s.mount = m
	s.category = m.Category
	s.personalized = true
	if s.deps.Prefs != nil {
		if v, ok := s.deps.Prefs.GetBool(PersonalizedPref); ok {
			s.personalized = v
		}
	}

	s.feed = NewFeedCache(s.ctx, s.gen, s.deps.Source)
	s.resolver = NewResolver(s.opts.PrefetchDistance)
	s.playback = NewCoordinator(s.ctx, s.gen, s.deps.NewPlayer, s.opts.Grace, s.opts.Preload)
	s.playback.SetMuted(s.opts.Muted)
	s.playback.OnEnded = s.GoToNext
	s.interact = NewReconciler(s.ctx, s.gen, s.sendToggle, s.applyToggle)
	s.threads = make(map[string]*CommentThread)
	s.advancePending = false
	s.notice = nil

	key := s.Key()
	logger.Info("Mounting reels", "key", key.String())
	if m.InitialPage != nil && m.InitialPage.Key == key {
		s.feed.Seed(*m.InitialPage)
		return s.measure()
	}
	return s.feed.SetKey(key)
}

// Unmount releases all media and discards every pending callback.
func (s *Session) Unmount() {
	if !s.mounted {
		return
	}
	s.cancel()
	s.playback.Reset()
	s.mounted = false
	s.gen++
	s.threads = nil
	logger.Info("Unmounted reels")
}

func (s *Session) Mounted() bool             { return s.mounted }
func (s *Session) Feed() *FeedCache          { return s.feed }
func (s *Session) Playback() *Coordinator    { return s.playback }
func (s *Session) Interactions() *Reconciler { return s.interact }
func (s *Session) Personalized() bool        { return s.personalized }
func (s *Session) Category() string          { return s.category }

// Key is the feed key the session shows.
func (s *Session) Key() FeedKey {
	return FeedKey{Personalized: s.personalized, Category: s.category}
}

// Items returns the current item sequence.
func (s *Session) Items() []*FeedItem {
	if s.feed == nil {
		return nil
	}
	return s.feed.Items()
}

// Active returns the active index, or Unset.
func (s *Session) Active() int {
	return s.resolver.Active()
}

// ActiveItem returns the active item, or nil.
func (s *Session) ActiveItem() *FeedItem {
	if s.feed == nil {
		return nil
	}
	return s.feed.Item(s.resolver.Active())
}

// ScrollOffset returns the offset the container should be at.
func (s *Session) ScrollOffset() float64 {
	return s.resolver.Offset()
}

// Notice returns the latest transient error, such as a reverted toggle.
func (s *Session) Notice() error { return s.notice }

// ClearNotice drops the transient error.
func (s *Session) ClearNotice() { s.notice = nil }

// Scroll feeds one scroll sample. Playback and pagination react only when
// the resolved index changes.
func (s *Session) Scroll(offset, height float64) tea.Cmd {
	if !s.mounted {
		return nil
	}
	_, changed := s.resolver.Measure(offset, height, s.feed.Len())
	if !changed {
		return nil
	}
	return s.activate()
}

// GoToNext moves to the next playable item. At the end of the loaded items
// it requests more and moves once they arrive.
func (s *Session) GoToNext() tea.Cmd {
	if !s.mounted {
		return nil
	}
	idx, ok := s.resolver.Step(1, s.feed.Len(), s.skip)
	if !ok {
		if s.feed.EndOfStream() {
			return nil
		}
		s.advancePending = true
		return s.feed.LoadMore()
	}
	s.advancePending = false
	cmd := s.activate()
	if s.mount.OnNext != nil {
		s.mount.OnNext(idx)
	}
	return cmd
}

// GoToPrevious moves to the previous playable item.
func (s *Session) GoToPrevious() tea.Cmd {
	if !s.mounted {
		return nil
	}
	idx, ok := s.resolver.Step(-1, s.feed.Len(), s.skip)
	if !ok {
		return nil
	}
	s.advancePending = false
	cmd := s.activate()
	if s.mount.OnPrevious != nil {
		s.mount.OnPrevious(idx)
	}
	return cmd
}

// SetCategory re-keys the feed to category.
func (s *Session) SetCategory(category string) tea.Cmd {
	if !s.mounted || category == s.category {
		return nil
	}
	s.category = category
	return s.rekey()
}

// TogglePersonalized flips personalization, persists it, and re-keys.
func (s *Session) TogglePersonalized() tea.Cmd {
	if !s.mounted {
		return nil
	}
	s.personalized = !s.personalized
	if s.deps.Prefs != nil {
		if err := s.deps.Prefs.SetBool(PersonalizedPref, s.personalized); err != nil {
			logger.Warn("Could not persist personalization", "error", err)
			s.notice = err
		}
	}
	return s.rekey()
}

// Retry re-issues a failed page request.
func (s *Session) Retry() tea.Cmd {
	if !s.mounted {
		return nil
	}
	return s.feed.Retry()
}

// ToggleLike flips the like on an item.
func (s *Session) ToggleLike(itemID string) tea.Cmd {
	it := s.findItem(itemID)
	if it == nil {
		return nil
	}
	return s.interact.Toggle(KindLike, itemID, it.Liked, it.LikeCount)
}

// ToggleSave flips the save on an item.
func (s *Session) ToggleSave(itemID string) tea.Cmd {
	it := s.findItem(itemID)
	if it == nil {
		return nil
	}
	return s.interact.Toggle(KindSave, itemID, it.Saved, it.SaveCount)
}

// ToggleCommentLike flips the like on a comment or reply of itemID.
func (s *Session) ToggleCommentLike(itemID, commentID string) tea.Cmd {
	if !s.mounted {
		return nil
	}
	t := s.threads[itemID]
	if t == nil {
		return nil
	}
	c := t.Find(commentID)
	if c == nil {
		return nil
	}
	return s.interact.Toggle(KindCommentLike, commentID, c.Liked, c.LikeCount)
}

// TogglePause pauses or resumes the active item.
func (s *Session) TogglePause() tea.Cmd {
	if !s.mounted {
		return nil
	}
	return s.playback.TogglePause()
}

// SetMuted sets the mute flag.
func (s *Session) SetMuted(muted bool) {
	s.opts.Muted = muted
	if s.mounted {
		s.playback.SetMuted(muted)
	}
}

// Thread returns the comment thread of itemID, creating it on first use.
func (s *Session) Thread(itemID string) *CommentThread {
	if !s.mounted || s.findItem(itemID) == nil {
		return nil
	}
	if t, ok := s.threads[itemID]; ok {
		return t
	}
	t := NewCommentThread(s.ctx, s.gen, s.deps.Comments, itemID, s.opts.CommentPageSize)
	t.OnPosted = func(*Comment) {
		if it := s.findItem(itemID); it != nil {
			it.CommentCount++
		}
	}
	s.threads[itemID] = t
	return t
}

// Update routes a message to the component that issued it.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	if !s.mounted {
		return nil
	}
	if st, ok := msg.(stamped); ok && st.generation() != s.gen {
		return nil
	}

	switch msg := msg.(type) {
	case PageLoadedMsg:
		if !s.feed.Update(msg) {
			return nil
		}
		s.interact.Reapply()
		if s.advancePending {
			return s.GoToNext()
		}
		if s.resolver.Active() == Unset {
			return s.measure()
		}
		// New neighbours may have entered the preload window.
		return s.playback.Activate(s.feed.Items(), s.resolver.Active())

	case PageFailedMsg:
		s.feed.Update(msg)
		s.advancePending = false
		return nil

	case MediaReadyMsg, MediaFailedMsg, TeardownMsg, PlaybackTickMsg:
		return s.playback.Update(msg)

	case ToggleResultMsg:
		cmd, err := s.interact.Update(msg)
		if err != nil {
			s.notice = err
		}
		return cmd

	case CommentsLoadedMsg:
		s.routeThread(msg.ItemID, msg)
	case CommentsFailedMsg:
		s.routeThread(msg.ItemID, msg)
	case RepliesLoadedMsg:
		s.routeThread(msg.ItemID, msg)
	case RepliesFailedMsg:
		s.routeThread(msg.ItemID, msg)
	case CommentPostedMsg:
		s.routeThread(msg.ItemID, msg)
	case CommentPostFailedMsg:
		s.routeThread(msg.ItemID, msg)
		s.notice = msg.Err

	case LiveCountMsg:
		s.applyLiveCount(msg)
	}
	return nil
}

func (s *Session) routeThread(itemID string, msg tea.Msg) {
	if t, ok := s.threads[itemID]; ok {
		t.Update(msg)
	}
}

// rekey starts over on the current key. Reconciler lanes are kept: a toggle
// in flight still resolves, and the same item under the new key shows it.
func (s *Session) rekey() tea.Cmd {
	key := s.Key()
	logger.Info("Re-keying feed", "key", key.String())
	s.playback.Reset()
	s.resolver.Reset()
	s.threads = make(map[string]*CommentThread)
	s.advancePending = false
	return s.feed.SetKey(key)
}

func (s *Session) measure() tea.Cmd {
	if _, changed := s.resolver.Remeasure(s.feed.Len()); !changed {
		return nil
	}
	return s.activate()
}

func (s *Session) activate() tea.Cmd {
	idx := s.resolver.Active()
	items := s.feed.Items()
	if idx == Unset {
		return nil
	}
	cmds := []tea.Cmd{s.playback.Activate(items, idx)}
	if s.resolver.AtTrailingEdge(len(items)) {
		cmds = append(cmds, s.feed.LoadMore())
	}
	return tea.Batch(cmds...)
}

func (s *Session) skip(i int) bool {
	it := s.feed.Item(i)
	return it == nil || s.playback.Failed(it.ID)
}

func (s *Session) findItem(id string) *FeedItem {
	if !s.mounted {
		return nil
	}
	return s.feed.Find(id)
}

func (s *Session) findComment(id string) *Comment {
	for _, t := range s.threads {
		if c := t.Find(id); c != nil {
			return c
		}
	}
	return nil
}

func (s *Session) sendToggle(ctx context.Context, kind Kind, id string) (ToggleResult, error) {
	switch kind {
	case KindLike:
		return s.deps.Interactions.ToggleLike(ctx, id)
	case KindSave:
		return s.deps.Interactions.ToggleSave(ctx, id)
	default:
		return s.deps.Comments.ToggleCommentLike(ctx, id)
	}
}

func (s *Session) applyToggle(kind Kind, id string, active bool, count int) {
	switch kind {
	case KindLike:
		if it := s.findItem(id); it != nil {
			it.Liked, it.LikeCount = active, count
		}
	case KindSave:
		if it := s.findItem(id); it != nil {
			it.Saved, it.SaveCount = active, count
		}
	case KindCommentLike:
		if c := s.findComment(id); c != nil {
			c.Liked, c.LikeCount = active, count
		}
	}
}

func (s *Session) applyLiveCount(msg LiveCountMsg) {
	if s.interact.Pending(msg.Kind, msg.ID) || msg.Count < 0 {
		return
	}
	switch msg.Kind {
	case KindLike:
		if it := s.findItem(msg.ID); it != nil {
			it.LikeCount = msg.Count
		}
	case KindSave:
		if it := s.findItem(msg.ID); it != nil {
			it.SaveCount = msg.Count
		}
	case KindComments:
		if it := s.findItem(msg.ID); it != nil {
			it.CommentCount = msg.Count
		}
	case KindCommentLike:
		if c := s.findComment(msg.ID); c != nil {
			c.LikeCount = msg.Count
		}
	}
}
