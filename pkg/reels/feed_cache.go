package reels

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zfogg/sidechain/reels/pkg/errors"
	"github.com/zfogg/sidechain/reels/pkg/logger"
)

// FeedCache holds the flattened item sequence for the current key. Items
// are append-only per key; a key change starts a fresh sequence. At most
// one page request is outstanding, and a response whose (key, seq) stamp
// is no longer current is discarded on arrival.
type FeedCache struct {
	ctx    context.Context
	gen    uint64
	source ContentSource

	key    FeedKey
	hasKey bool
	items  []*FeedItem
	pages  int

	cursor      *string
	loading     bool
	endOfStream bool
	err         error
	seq         uint64
}

// NewFeedCache returns an empty cache. Nothing is fetched until SetKey or Seed.
func NewFeedCache(ctx context.Context, gen uint64, source ContentSource) *FeedCache {
	return &FeedCache{ctx: ctx, gen: gen, source: source}
}

func (c *FeedCache) Key() FeedKey        { return c.key }
func (c *FeedCache) Items() []*FeedItem  { return c.items }
func (c *FeedCache) Len() int            { return len(c.items) }
func (c *FeedCache) Pages() int          { return c.pages }
func (c *FeedCache) Loading() bool       { return c.loading }
func (c *FeedCache) EndOfStream() bool   { return c.endOfStream }
func (c *FeedCache) Err() error          { return c.err }
func (c *FeedCache) NextCursor() *string { return c.cursor }

// Item returns the item at i, or nil when out of range.
func (c *FeedCache) Item(i int) *FeedItem {
	if i < 0 || i >= len(c.items) {
		return nil
	}
	return c.items[i]
}

// Find returns the item with id, or nil.
func (c *FeedCache) Find(id string) *FeedItem {
	for _, it := range c.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// SetKey discards the current sequence and requests the first page of key.
func (c *FeedCache) SetKey(key FeedKey) tea.Cmd {
	c.reset(key)
	logger.Debug("Feed key changed", "key", key.String(), "seq", c.seq)
	return c.request(nil)
}

// Seed installs an already-fetched first page so the first paint is not
// empty. Any in-flight request is invalidated.
func (c *FeedCache) Seed(page Page) {
	c.reset(page.Key)
	c.append(page)
	logger.Debug("Feed seeded", "key", page.Key.String(), "items", len(page.Items))
}

// LoadMore requests the next page when one exists, nothing is in flight,
// and the last request did not fail. Failures are resumed with Retry.
func (c *FeedCache) LoadMore() tea.Cmd {
	if !c.hasKey || c.loading || c.endOfStream || c.err != nil {
		return nil
	}
	if c.pages == 0 {
		return nil
	}
	return c.request(c.cursor)
}

// Retry re-issues the request that last failed.
func (c *FeedCache) Retry() tea.Cmd {
	if !c.hasKey || c.loading || c.err == nil {
		return nil
	}
	return c.request(c.cursor)
}

// Update applies page results. It reports whether the sequence changed.
func (c *FeedCache) Update(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case PageLoadedMsg:
		if !c.current(msg.Seq, msg.Key) {
			logger.Debug("Discarding stale page", "key", msg.Key.String(), "seq", msg.Seq, "current", c.seq)
			return false
		}
		c.loading = false
		c.err = nil
		c.append(msg.Page)
		return true
	case PageFailedMsg:
		if !c.current(msg.Seq, msg.Key) {
			return false
		}
		c.loading = false
		c.err = msg.Err
		logger.Warn("Page request failed", "key", msg.Key.String(), "error", msg.Err)
		return false
	}
	return false
}

func (c *FeedCache) reset(key FeedKey) {
	c.key = key
	c.hasKey = true
	c.items = nil
	c.pages = 0
	c.cursor = nil
	c.loading = false
	c.endOfStream = false
	c.err = nil
	c.seq++
}

func (c *FeedCache) append(page Page) {
	c.items = append(c.items, page.Items...)
	c.pages++
	c.cursor = page.NextCursor
	c.endOfStream = page.NextCursor == nil
}

func (c *FeedCache) current(seq uint64, key FeedKey) bool {
	return c.hasKey && seq == c.seq && key == c.key
}

func (c *FeedCache) request(cursor *string) tea.Cmd {
	c.seq++
	c.loading = true
	c.err = nil

	ctx, gen, seq, key, source := c.ctx, c.gen, c.seq, c.key, c.source
	logger.Debug("Requesting page", "key", key.String(), "cursor", cursorString(cursor), "seq", seq)
	return func() tea.Msg {
		page, err := source.FetchPage(ctx, key, cursor)
		if err != nil {
			return PageFailedMsg{Gen: gen, Seq: seq, Key: key, Cursor: cursor, Err: errors.FetchError("reels", err)}
		}
		page.Key = key
		return PageLoadedMsg{Gen: gen, Seq: seq, Key: key, Cursor: cursor, Page: page}
	}
}

func cursorString(c *string) string {
	if c == nil {
		return "<first>"
	}
	return *c
}
