package reels

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

var errBoom = errors.New("boom")

func item(id string) *FeedItem {
	return &FeedItem{ID: id, MediaURL: "https://cdn.test/" + id + ".mp4"}
}

func items(ids ...string) []*FeedItem {
	out := make([]*FeedItem, len(ids))
	for i, id := range ids {
		out[i] = item(id)
	}
	return out
}

// stubSource answers page requests from a script keyed by (key, cursor).
type stubSource struct {
	mu    sync.Mutex
	pages map[string]Page
	fail  map[string]error
	calls []string
}

func newStubSource() *stubSource {
	return &stubSource{pages: make(map[string]Page), fail: make(map[string]error)}
}

func pageKey(key FeedKey, cursor *string) string {
	return key.String() + "|" + cursorString(cursor)
}

func (s *stubSource) add(key FeedKey, cursor *string, next *string, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[pageKey(key, cursor)] = Page{Key: key, Items: items(ids...), NextCursor: next}
}

func (s *stubSource) failOnce(key FeedKey, cursor *string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[pageKey(key, cursor)] = err
}

func (s *stubSource) FetchPage(_ context.Context, key FeedKey, cursor *string) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pageKey(key, cursor)
	s.calls = append(s.calls, k)
	if err, ok := s.fail[k]; ok {
		delete(s.fail, k)
		return Page{}, err
	}
	p, ok := s.pages[k]
	if !ok {
		return Page{}, fmt.Errorf("no page for %s", k)
	}
	// Fresh item pointers per response, as a real decoder would produce.
	out := Page{Key: p.Key, NextCursor: p.NextCursor}
	for _, it := range p.Items {
		cp := *it
		out.Items = append(out.Items, &cp)
	}
	return out, nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// stubInteractions returns scripted errors in call order and toggles a
// server-side flag otherwise.
type stubInteractions struct {
	mu     sync.Mutex
	errs   []error
	calls  int
	server map[string]bool
}

func newStubInteractions(errs ...error) *stubInteractions {
	return &stubInteractions{errs: errs, server: make(map[string]bool)}
}

func (s *stubInteractions) toggle(key string) (ToggleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.calls
	s.calls++
	if n < len(s.errs) && s.errs[n] != nil {
		return ToggleResult{}, s.errs[n]
	}
	s.server[key] = !s.server[key]
	return ToggleResult{Active: s.server[key]}, nil
}

func (s *stubInteractions) ToggleLike(_ context.Context, id string) (ToggleResult, error) {
	return s.toggle("like:" + id)
}

func (s *stubInteractions) ToggleSave(_ context.Context, id string) (ToggleResult, error) {
	return s.toggle("save:" + id)
}

func (s *stubInteractions) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubComments serves a fixed comment list in pages of the requested size.
type stubComments struct {
	mu        sync.Mutex
	comments  []*Comment
	replies   map[string][]*Comment
	listErr   error
	replyErr  error
	createErr error
	likeErr   error
	listCalls int
	replyHits map[string]int
	nextID    int
}

func newStubComments(n int) *stubComments {
	s := &stubComments{replies: make(map[string][]*Comment), replyHits: make(map[string]int)}
	for i := 0; i < n; i++ {
		s.comments = append(s.comments, &Comment{ID: fmt.Sprintf("c%d", i), Body: fmt.Sprintf("comment %d", i), ReplyCount: 1})
	}
	return s
}

func (s *stubComments) ListComments(_ context.Context, itemID string, cursor *string, limit int) (CommentPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return CommentPage{}, s.listErr
	}
	start := 0
	if cursor != nil {
		fmt.Sscanf(*cursor, "%d", &start)
	}
	end := start + limit
	if end > len(s.comments) {
		end = len(s.comments)
	}
	page := CommentPage{}
	for _, c := range s.comments[start:end] {
		cp := *c
		cp.ItemID = itemID
		page.Comments = append(page.Comments, &cp)
	}
	if end < len(s.comments) {
		page.NextCursor = StringPtr(fmt.Sprintf("%d", end))
	}
	return page, nil
}

func (s *stubComments) ListReplies(_ context.Context, commentID string) ([]*Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replyHits[commentID]++
	if s.replyErr != nil {
		return nil, s.replyErr
	}
	if r, ok := s.replies[commentID]; ok {
		return r, nil
	}
	return []*Comment{{ID: commentID + "-r0", Body: "reply"}}, nil
}

func (s *stubComments) CreateComment(_ context.Context, itemID, body string, parentID *string) (*Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.nextID++
	return &Comment{ID: fmt.Sprintf("new%d", s.nextID), ItemID: itemID, Body: body, ParentID: parentID}, nil
}

func (s *stubComments) ToggleCommentLike(_ context.Context, commentID string) (ToggleResult, error) {
	if s.likeErr != nil {
		return ToggleResult{}, s.likeErr
	}
	return ToggleResult{Active: true}, nil
}

// memPrefs is an in-memory preference store.
type memPrefs struct {
	values map[string]bool
	err    error
}

func (p *memPrefs) GetBool(key string) (bool, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p *memPrefs) SetBool(key string, value bool) error {
	if p.err != nil {
		return p.err
	}
	if p.values == nil {
		p.values = make(map[string]bool)
	}
	p.values[key] = value
	return nil
}

// fakePlayer records calls and reports state through its handle.
type fakePlayer struct {
	id       string
	loadErr  error
	frames   int
	interval time.Duration

	ready    bool
	playing  bool
	muted    bool
	pos      int
	released int
	log      *[]string
}

func (p *fakePlayer) record(ev string) {
	if p.log != nil {
		*p.log = append(*p.log, p.id+":"+ev)
	}
}

func (p *fakePlayer) Load(context.Context) (interface{}, error) {
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	return p.frames, nil
}

func (p *fakePlayer) Attach(payload interface{}) error {
	p.ready = true
	p.pos = 0
	return nil
}

func (p *fakePlayer) Play() {
	p.playing = true
	p.record("play")
}

func (p *fakePlayer) Pause() {
	if p.playing {
		p.record("pause")
	}
	p.playing = false
}

func (p *fakePlayer) SetMuted(m bool) { p.muted = m }

func (p *fakePlayer) Advance() bool {
	p.pos++
	return p.frames > 0 && p.pos >= p.frames
}

func (p *fakePlayer) Interval() time.Duration { return p.interval }

func (p *fakePlayer) Release() {
	p.ready = false
	p.playing = false
	p.released++
}

func (p *fakePlayer) Handle() PlaybackHandle {
	return PlaybackHandle{Ready: p.ready, Playing: p.playing, Muted: p.muted}
}

// playerPool hands out fake players and remembers them by item id.
type playerPool struct {
	players map[string]*fakePlayer
	fail    map[string]error
	log     []string
}

func newPlayerPool() *playerPool {
	return &playerPool{players: make(map[string]*fakePlayer), fail: make(map[string]error)}
}

func (pp *playerPool) factory(it *FeedItem) Player {
	p := &fakePlayer{id: it.ID, loadErr: pp.fail[it.ID], log: &pp.log}
	pp.players[it.ID] = p
	return p
}

// run executes cmd and returns every message it produces, flattening
// batches. tea.Tick commands sleep for their duration.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// pump feeds msgs back into update until nothing more is produced,
// skipping message types in skip.
func pump(t *testing.T, update func(tea.Msg) tea.Cmd, cmd tea.Cmd, skip ...func(tea.Msg) bool) []tea.Msg {
	t.Helper()
	var held []tea.Msg
	queue := run(cmd)
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 1000 {
			t.Fatalf("pump did not settle")
		}
		msg := queue[0]
		queue = queue[1:]
		skipped := false
		for _, s := range skip {
			if s(msg) {
				skipped = true
				break
			}
		}
		if skipped {
			held = append(held, msg)
			continue
		}
		queue = append(queue, run(update(msg))...)
	}
	return held
}

func isTeardown(m tea.Msg) bool {
	_, ok := m.(TeardownMsg)
	return ok
}
