package reels

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zfogg/sidechain/reels/pkg/errors"
	"github.com/zfogg/sidechain/reels/pkg/logger"
)

// PlaybackState is the lifecycle state of one item's media.
type PlaybackState int

const (
	Dormant PlaybackState = iota
	Priming
	Playing
	Paused
	// Failed is terminal. The item is skipped by navigation.
	Failed
)

func (s PlaybackState) String() string {
	switch s {
	case Dormant:
		return "dormant"
	case Priming:
		return "priming"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Transition records one state change, in issue order.
type Transition struct {
	ItemID string
	From   PlaybackState
	To     PlaybackState
}

type playbackEntry struct {
	item   *FeedItem
	player Player
	state  PlaybackState
	err    error

	loadEpoch    uint64
	teardownSeq  uint64
	teardownWait bool
	tickSeq      uint64
}

// Coordinator owns the media lifecycle of every rendered item and keeps at
// most one of them playing. Items within Preload of the active index are
// primed but never played; items leaving that window are paused at once
// and released after Grace unless they come back first.
type Coordinator struct {
	ctx       context.Context
	gen       uint64
	newPlayer PlayerFactory

	entries map[string]*playbackEntry
	active  string
	window  map[string]bool
	muted   bool
	epoch   uint64
	seq     uint64

	Grace   time.Duration
	Preload int

	// OnEnded is called when the active item reaches end of media.
	OnEnded func() tea.Cmd
	// Observe, when set, sees every transition as it is issued.
	Observe func(Transition)
}

// NewCoordinator returns a coordinator with no active item.
func NewCoordinator(ctx context.Context, gen uint64, newPlayer PlayerFactory, grace time.Duration, preload int) *Coordinator {
	if preload < 0 {
		preload = 0
	}
	return &Coordinator{
		ctx:       ctx,
		gen:       gen,
		newPlayer: newPlayer,
		entries:   make(map[string]*playbackEntry),
		window:    make(map[string]bool),
		Grace:     grace,
		Preload:   preload,
	}
}

// ActiveID returns the id of the active item, or "".
func (c *Coordinator) ActiveID() string { return c.active }

// Muted reports the mute flag.
func (c *Coordinator) Muted() bool { return c.muted }

// State returns the playback state of id. Unknown items are Dormant.
func (c *Coordinator) State(id string) PlaybackState {
	if e, ok := c.entries[id]; ok {
		return e.state
	}
	return Dormant
}

// Err returns the media error recorded for id.
func (c *Coordinator) Err(id string) error {
	if e, ok := c.entries[id]; ok {
		return e.err
	}
	return nil
}

// Failed reports whether id's media is permanently unavailable.
func (c *Coordinator) Failed(id string) bool {
	return c.State(id) == Failed
}

// Handle returns the playback handle of id.
func (c *Coordinator) Handle(id string) PlaybackHandle {
	if e, ok := c.entries[id]; ok && e.player != nil {
		return e.player.Handle()
	}
	return PlaybackHandle{Muted: c.muted}
}

// Player returns the player bound to id, if any.
func (c *Coordinator) Player(id string) Player {
	if e, ok := c.entries[id]; ok {
		return e.player
	}
	return nil
}

// PlayingCount returns how many handles currently report playing.
func (c *Coordinator) PlayingCount() int {
	n := 0
	for _, e := range c.entries {
		if e.player != nil && e.player.Handle().Playing {
			n++
		}
	}
	return n
}

// Activate makes items[index] the active item. The outgoing item is paused
// before anything is asked of the incoming one. Calling it again with the
// same item only refreshes the preload window: a paused active item stays
// paused until TogglePause.
func (c *Coordinator) Activate(items []*FeedItem, index int) tea.Cmd {
	if index < 0 || index >= len(items) {
		return nil
	}
	incoming := items[index]
	changed := c.active != incoming.ID
	var cmds []tea.Cmd

	if changed {
		if out, ok := c.entries[c.active]; ok {
			c.pause(out)
		}
		c.active = incoming.ID
	}

	// Recompute the window before touching the incoming item so a pending
	// teardown on it is cancelled.
	c.window = make(map[string]bool)
	for i := index - c.Preload; i <= index+c.Preload; i++ {
		if i >= 0 && i < len(items) {
			c.window[items[i].ID] = true
		}
	}
	for id, e := range c.entries {
		if c.window[id] {
			c.cancelTeardown(e)
			continue
		}
		if cmd := c.scheduleTeardown(id, e); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	e := c.entry(incoming)
	switch {
	case e.state == Failed:
	case e.state == Playing:
	case e.state == Paused && !changed:
	case e.player.Handle().Ready:
		cmds = append(cmds, c.play(e))
	case e.state == Dormant:
		cmds = append(cmds, c.load(e))
	}

	for i := index - c.Preload; i <= index+c.Preload; i++ {
		if i == index || i < 0 || i >= len(items) {
			continue
		}
		n := c.entry(items[i])
		if n.state == Dormant {
			cmds = append(cmds, c.load(n))
		}
	}

	return tea.Batch(cmds...)
}

// TogglePause flips the active item between Playing and Paused.
func (c *Coordinator) TogglePause() tea.Cmd {
	e, ok := c.entries[c.active]
	if !ok {
		return nil
	}
	switch e.state {
	case Playing:
		c.pause(e)
	case Paused:
		if e.player.Handle().Ready {
			return c.play(e)
		}
	}
	return nil
}

// SetMuted sets the mute flag and applies it to the playing item.
func (c *Coordinator) SetMuted(muted bool) {
	c.muted = muted
	if e, ok := c.entries[c.active]; ok && e.state == Playing {
		e.player.SetMuted(muted)
	}
}

// Reset releases every player and forgets all entries.
func (c *Coordinator) Reset() {
	for id, e := range c.entries {
		if e.player != nil {
			e.player.Pause()
			e.player.Release()
		}
		delete(c.entries, id)
	}
	c.active = ""
	c.window = make(map[string]bool)
}

// Update handles media, teardown, and tick messages.
func (c *Coordinator) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case MediaReadyMsg:
		e, ok := c.entries[msg.ItemID]
		if !ok || e.loadEpoch == 0 || e.loadEpoch != msg.Epoch {
			return nil
		}
		e.loadEpoch = 0
		if err := e.player.Attach(msg.Payload); err != nil {
			c.fail(e, err)
			return nil
		}
		if msg.ItemID == c.active {
			return c.play(e)
		}
		c.transition(e, Paused)
		return nil

	case MediaFailedMsg:
		e, ok := c.entries[msg.ItemID]
		if !ok || e.loadEpoch == 0 || e.loadEpoch != msg.Epoch {
			return nil
		}
		e.loadEpoch = 0
		c.fail(e, msg.Err)
		return nil

	case TeardownMsg:
		e, ok := c.entries[msg.ItemID]
		if !ok || !e.teardownWait || e.teardownSeq != msg.Seq {
			return nil
		}
		e.teardownWait = false
		e.loadEpoch = 0
		e.player.Release()
		if e.state != Failed {
			c.transition(e, Dormant)
		}
		return nil

	case PlaybackTickMsg:
		e, ok := c.entries[msg.ItemID]
		if !ok || e.state != Playing || e.tickSeq != msg.Seq {
			return nil
		}
		if e.player.Advance() {
			logger.Debug("Media ended", "item", msg.ItemID)
			c.pause(e)
			if msg.ItemID == c.active && c.OnEnded != nil {
				return c.OnEnded()
			}
			return nil
		}
		return c.tick(e)
	}
	return nil
}

func (c *Coordinator) entry(item *FeedItem) *playbackEntry {
	if e, ok := c.entries[item.ID]; ok {
		return e
	}
	e := &playbackEntry{item: item, player: c.newPlayer(item), state: Dormant}
	c.entries[item.ID] = e
	return e
}

func (c *Coordinator) load(e *playbackEntry) tea.Cmd {
	c.epoch++
	e.loadEpoch = c.epoch
	c.transition(e, Priming)

	ctx, gen, id, epoch, player := c.ctx, c.gen, e.item.ID, c.epoch, e.player
	return func() tea.Msg {
		payload, err := player.Load(ctx)
		if err != nil {
			return MediaFailedMsg{Gen: gen, ItemID: id, Epoch: epoch, Err: errors.MediaError(id, err)}
		}
		return MediaReadyMsg{Gen: gen, ItemID: id, Epoch: epoch, Payload: payload}
	}
}

func (c *Coordinator) play(e *playbackEntry) tea.Cmd {
	for _, other := range c.entries {
		if other != e && other.state == Playing {
			c.pause(other)
		}
	}
	c.cancelTeardown(e)
	e.player.SetMuted(c.muted)
	e.player.Play()
	c.transition(e, Playing)
	return c.tick(e)
}

func (c *Coordinator) pause(e *playbackEntry) {
	if e.state != Playing {
		return
	}
	e.player.Pause()
	e.tickSeq = c.nextSeq()
	c.transition(e, Paused)
}

func (c *Coordinator) tick(e *playbackEntry) tea.Cmd {
	e.tickSeq = c.nextSeq()
	interval := e.player.Interval()
	if interval <= 0 {
		return nil
	}
	gen, id, seq := c.gen, e.item.ID, e.tickSeq
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return PlaybackTickMsg{Gen: gen, ItemID: id, Seq: seq}
	})
}

func (c *Coordinator) fail(e *playbackEntry, err error) {
	logger.Warn("Media failed", "item", e.item.ID, "error", err)
	e.err = err
	e.player.Pause()
	e.player.Release()
	e.tickSeq = c.nextSeq()
	c.transition(e, Failed)
}

func (c *Coordinator) scheduleTeardown(id string, e *playbackEntry) tea.Cmd {
	if e.teardownWait || e.state == Dormant || e.state == Failed {
		return nil
	}
	c.pause(e)
	e.teardownSeq = c.nextSeq()
	e.teardownWait = true
	gen, seq := c.gen, e.teardownSeq
	return tea.Tick(c.Grace, func(time.Time) tea.Msg {
		return TeardownMsg{Gen: gen, ItemID: id, Seq: seq}
	})
}

func (c *Coordinator) cancelTeardown(e *playbackEntry) {
	if e.teardownWait {
		e.teardownSeq = c.nextSeq()
		e.teardownWait = false
	}
}

// nextSeq numbers teardown and tick timers. It is shared by every entry and
// survives Reset, so a timer armed before a rekey never matches an entry
// recreated for the same id.
func (c *Coordinator) nextSeq() uint64 {
	c.seq++
	return c.seq
}

func (c *Coordinator) transition(e *playbackEntry, to PlaybackState) {
	if e.state == to {
		return
	}
	t := Transition{ItemID: e.item.ID, From: e.state, To: to}
	e.state = to
	logger.Debug("Playback transition", "item", t.ItemID, "from", t.From.String(), "to", t.To.String())
	if c.Observe != nil {
		c.Observe(t)
	}
}
