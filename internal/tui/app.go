// Package tui is the terminal host of the reels feed. It mounts one
// reels.Session, maps keys and scroll events onto it, and draws the
// active item with its comment panel.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zfogg/sidechain/reels/pkg/errors"
	"github.com/zfogg/sidechain/reels/pkg/logger"
	"github.com/zfogg/sidechain/reels/pkg/reels"
	"github.com/zfogg/sidechain/reels/pkg/render"
	"github.com/zfogg/sidechain/reels/pkg/websocket"
)

// wheelStep is how many rows one mouse wheel notch scrolls.
const wheelStep = 3

// chromeRows is the header and footer height around the card.
const chromeRows = 4

// Deps holds everything the TUI needs. Plain struct, not a DI container.
type Deps struct {
	Session *reels.Session
	// Live is optional. When set, counters are kept fresh over it.
	Live       *websocket.Client
	Categories []string
	Category   string
	Page       *reels.Page
}

type liveConnectedMsg struct{ err error }

// App is the root Bubble Tea model.
type App struct {
	ctx     context.Context
	deps    Deps
	session *reels.Session

	keys       KeyMap
	threadKeys ThreadKeyMap
	help       help.Model
	spinner    spinner.Model

	panel     *commentPanel
	width     int
	height    int
	offset    float64
	liveState string
	status    string // transient status message
}

// NewApp creates the root model. ctx bounds the mount and the live stream.
func NewApp(ctx context.Context, deps Deps) App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = mutedStyle

	return App{
		ctx:        ctx,
		deps:       deps,
		session:    deps.Session,
		keys:       DefaultKeyMap(),
		threadKeys: DefaultThreadKeyMap(),
		help:       help.New(),
		spinner:    s,
	}
}

// Init mounts the session and connects the live counter stream.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.session.Mount(a.ctx, reels.MountOptions{
			Category:    a.deps.Category,
			InitialPage: a.deps.Page,
			OnNext: func(i int) {
				logger.Debug("Advanced", "index", i)
			},
			OnPrevious: func(i int) {
				logger.Debug("Went back", "index", i)
			},
		}),
		a.spinner.Tick,
	}
	if a.deps.Live != nil {
		cmds = append(cmds, a.connectLive())
	}
	return tea.Batch(cmds...)
}

func (a App) connectLive() tea.Cmd {
	live, ctx := a.deps.Live, a.ctx
	return func() tea.Msg {
		return liveConnectedMsg{err: live.Connect(ctx)}
	}
}

// Update handles messages and routes them to the session.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.help.Width = msg.Width
		return a, a.remeasure()

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.MouseMsg:
		if a.panel != nil || !tea.MouseEvent(msg).IsWheel() || msg.Action != tea.MouseActionPress {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelDown:
			return a, a.scrollBy(wheelStep)
		case tea.MouseButtonWheelUp:
			return a, a.scrollBy(-wheelStep)
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case liveConnectedMsg:
		if msg.err != nil {
			logger.Warn("Live counters unavailable", "error", msg.err)
			a.liveState = "offline"
			return a, nil
		}
		a.liveState = "live"
		return a, a.deps.Live.Listen()

	case reels.LiveCountMsg:
		a.session.Update(msg)
		if a.deps.Live == nil {
			return a, nil
		}
		return a, a.deps.Live.Listen()

	case websocket.ClosedMsg:
		a.liveState = "offline"
		if msg.Err != nil {
			logger.Warn("Live counters stopped", "error", msg.Err)
		}
		return a, nil
	}

	cmd := a.session.Update(msg)
	a.syncOffset()
	return a, cmd
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.status = ""
	a.session.ClearNotice()

	if a.panel != nil {
		panel, cmd, open := a.panel.update(msg, a.session)
		if !open {
			a.panel = nil
			return a, cmd
		}
		a.panel = &panel
		return a, cmd
	}

	var cmd tea.Cmd
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.session.Unmount()
		if a.deps.Live != nil {
			a.deps.Live.Disconnect()
		}
		return a, tea.Quit

	case key.Matches(msg, a.keys.Next):
		cmd = a.session.GoToNext()

	case key.Matches(msg, a.keys.Prev):
		cmd = a.session.GoToPrevious()

	case key.Matches(msg, a.keys.Top):
		cmd = a.session.Scroll(0, a.cardHeight())

	case key.Matches(msg, a.keys.Like):
		if it := a.session.ActiveItem(); it != nil {
			cmd = a.session.ToggleLike(it.ID)
		}

	case key.Matches(msg, a.keys.Save):
		if it := a.session.ActiveItem(); it != nil {
			cmd = a.session.ToggleSave(it.ID)
		}

	case key.Matches(msg, a.keys.Pause):
		cmd = a.session.TogglePause()

	case key.Matches(msg, a.keys.Mute):
		if !a.session.Mounted() {
			break
		}
		muted := !a.session.Playback().Muted()
		a.session.SetMuted(muted)
		if muted {
			a.status = "muted"
		} else {
			a.status = "sound on"
		}

	case key.Matches(msg, a.keys.Personalize):
		cmd = a.session.TogglePersonalized()

	case key.Matches(msg, a.keys.Category):
		cmd = a.session.SetCategory(a.nextCategory())

	case key.Matches(msg, a.keys.Comments):
		if it := a.session.ActiveItem(); it != nil {
			if t := a.session.Thread(it.ID); t != nil {
				panel := newCommentPanel(t, a.threadKeys)
				a.panel = &panel
				cmd = t.Open()
			}
		}

	case key.Matches(msg, a.keys.Retry):
		cmd = a.session.Retry()

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	}
	a.syncOffset()
	return a, cmd
}

// cardHeight is the number of rows one item occupies.
func (a App) cardHeight() float64 {
	h := a.height - chromeRows
	if h < 1 {
		h = 1
	}
	return float64(h)
}

func (a *App) remeasure() tea.Cmd {
	h := a.cardHeight()
	active := a.session.Active()
	if active == reels.Unset {
		active = 0
	}
	a.offset = float64(active) * h
	return a.session.Scroll(a.offset, h)
}

func (a *App) scrollBy(rows float64) tea.Cmd {
	h := a.cardHeight()
	maxOffset := float64(len(a.session.Items())-1) * h
	a.offset += rows
	if a.offset > maxOffset {
		a.offset = maxOffset
	}
	if a.offset < 0 {
		a.offset = 0
	}
	return a.session.Scroll(a.offset, h)
}

// syncOffset follows the session after it snapped the offset itself.
func (a *App) syncOffset() {
	if a.session.Mounted() {
		a.offset = a.session.ScrollOffset()
	}
}

func (a App) nextCategory() string {
	options := append([]string{""}, a.deps.Categories...)
	current := a.session.Category()
	for i, c := range options {
		if c == current {
			return options[(i+1)%len(options)]
		}
	}
	return ""
}

// View renders the header, the active card or comment panel, and the
// status bar.
func (a App) View() string {
	var b strings.Builder
	b.WriteString(a.header())
	b.WriteString("\n")

	width := a.width
	if width <= 0 {
		width = 60
	}

	switch {
	case a.panel != nil:
		b.WriteString(a.panel.view(width, a.height-chromeRows))
	default:
		b.WriteString(a.body(width))
	}
	b.WriteString("\n")
	b.WriteString(a.statusBar())
	b.WriteString("\n")
	if a.panel != nil {
		b.WriteString(a.help.View(a.threadKeys))
	} else {
		b.WriteString(a.help.View(a.keys))
	}
	return b.String()
}

func (a App) header() string {
	mode := "Latest"
	if a.session.Personalized() {
		mode = "For You"
	}
	tabs := []string{titleStyle.Render(mode)}
	for _, c := range append([]string{""}, a.deps.Categories...) {
		label := c
		if label == "" {
			label = "all"
		}
		if c == a.session.Category() {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a App) body(width int) string {
	feed := a.session.Feed()
	item := a.session.ActiveItem()
	if item == nil {
		switch {
		case feed == nil:
			return ""
		case feed.Err() != nil:
			return noticeStyle.Render("couldn't load the feed. press r to retry")
		case feed.Loading():
			return a.spinner.View() + " loading reels..."
		default:
			return mutedStyle.Render("nothing here yet")
		}
	}

	pb := a.session.Playback()
	card := render.Card{
		Item:   item,
		State:  pb.State(item.ID),
		Handle: pb.Handle(item.ID),
		Active: true,
		Width:  width,
	}
	if p, ok := pb.Player(item.ID).(*render.FramePlayer); ok {
		card.Frame = p.Frame()
		card.Sound = p.Sound()
	}
	return card.View()
}

func (a App) statusBar() string {
	feed := a.session.Feed()
	var parts []string
	if feed != nil {
		pos := fmt.Sprintf("%d/%d", a.session.Active()+1, feed.Len())
		if !feed.EndOfStream() {
			pos += "+"
		}
		parts = append(parts, pos)
		if feed.Loading() && feed.Len() > 0 {
			parts = append(parts, a.spinner.View())
		}
	}
	if a.liveState != "" {
		parts = append(parts, a.liveState)
	}
	if a.status != "" {
		parts = append(parts, a.status)
	}
	line := statusBarStyle.Render(strings.Join(parts, " · "))

	if err := a.session.Notice(); err != nil {
		line += "  " + noticeStyle.Render(errors.CategorizeError(err).Error())
	} else if feed != nil && feed.Err() != nil && feed.Len() > 0 {
		line += "  " + noticeStyle.Render("couldn't load more (r to retry)")
	}
	return line
}
