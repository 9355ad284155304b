package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/zfogg/sidechain/reels/pkg/reels"
	"github.com/zfogg/sidechain/reels/pkg/render"
)

// commentPanel is the comment thread overlay of one feed item.
type commentPanel struct {
	thread  *reels.CommentThread
	keys    ThreadKeyMap
	cursor  int
	input   textinput.Model
	writing bool
	replyTo *reels.Comment
}

func newCommentPanel(thread *reels.CommentThread, keys ThreadKeyMap) commentPanel {
	ti := textinput.New()
	ti.Placeholder = "add a comment..."
	ti.CharLimit = 500
	ti.Width = 40
	// The panel does not route blink messages.
	ti.Cursor.SetMode(cursor.CursorStatic)
	return commentPanel{thread: thread, keys: keys, input: ti}
}

// rows flattens the thread: each top-level comment followed by its loaded
// replies.
func (p commentPanel) rows() []*reels.Comment {
	var out []*reels.Comment
	for _, c := range p.thread.Comments() {
		out = append(out, c)
		out = append(out, c.Replies...)
	}
	return out
}

func (p commentPanel) selected() *reels.Comment {
	rows := p.rows()
	if p.cursor < 0 || p.cursor >= len(rows) {
		return nil
	}
	return rows[p.cursor]
}

// update handles a key while the panel is open. It reports false when the
// panel should close.
func (p commentPanel) update(msg tea.KeyMsg, s *reels.Session) (commentPanel, tea.Cmd, bool) {
	if p.writing {
		return p.updateInput(msg)
	}

	switch {
	case key.Matches(msg, p.keys.Close):
		return p, nil, false

	case key.Matches(msg, p.keys.Down):
		rows := p.rows()
		if p.cursor < len(rows)-1 {
			p.cursor++
		}
		if p.cursor >= len(rows)-1 {
			return p, p.thread.LoadMore(), true
		}

	case key.Matches(msg, p.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}

	case key.Matches(msg, p.keys.Replies):
		if c := p.selected(); c != nil {
			return p, p.thread.LoadReplies(c.ID), true
		}

	case key.Matches(msg, p.keys.Like):
		if c := p.selected(); c != nil {
			return p, s.ToggleCommentLike(p.thread.ItemID(), c.ID), true
		}

	case key.Matches(msg, p.keys.Write):
		p.replyTo = nil
		return p.startWriting("add a comment...")

	case key.Matches(msg, p.keys.Reply):
		if c := p.selected(); c != nil {
			p.replyTo = c
			return p.startWriting("reply to " + c.Author.Handle() + "...")
		}

	case key.Matches(msg, p.keys.Retry):
		return p, p.thread.Retry(), true
	}
	return p, nil, true
}

func (p commentPanel) startWriting(placeholder string) (commentPanel, tea.Cmd, bool) {
	p.writing = true
	p.thread.ClearPostErr()
	p.input.Placeholder = placeholder
	p.input.Reset()
	return p, p.input.Focus(), true
}

func (p commentPanel) updateInput(msg tea.KeyMsg) (commentPanel, tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyEsc:
		p.writing = false
		p.replyTo = nil
		p.input.Blur()
		return p, nil, true

	case tea.KeyEnter:
		body := strings.TrimSpace(p.input.Value())
		if body == "" {
			return p, nil, true
		}
		var parentID *string
		if p.replyTo != nil {
			parentID = reels.StringPtr(p.replyTo.ID)
		}
		p.writing = false
		p.replyTo = nil
		p.input.Blur()
		p.input.Reset()
		return p, p.thread.Post(body, parentID), true
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd, true
}

func (p commentPanel) view(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Comments"))
	b.WriteString("\n\n")

	rows := p.rows()
	switch {
	case len(rows) == 0 && p.thread.Loading():
		b.WriteString(mutedStyle.Render("loading comments..."))
		b.WriteString("\n")
	case len(rows) == 0 && p.thread.EndOfStream():
		b.WriteString(mutedStyle.Render("no comments yet"))
		b.WriteString("\n")
	}

	visible := height - 6
	if visible < 3 {
		visible = 3
	}
	start := 0
	if p.cursor >= visible {
		start = p.cursor - visible + 1
	}
	for i := start; i < len(rows) && i < start+visible; i++ {
		b.WriteString(p.commentLine(rows[i], i == p.cursor, width-4))
		b.WriteString("\n")
	}

	switch {
	case p.thread.Err() != nil:
		b.WriteString(noticeStyle.Render("couldn't load comments (r to retry)"))
		b.WriteString("\n")
	case len(rows) > 0 && p.thread.Loading():
		b.WriteString(mutedStyle.Render("loading more..."))
		b.WriteString("\n")
	}

	if p.thread.Posting() {
		b.WriteString(mutedStyle.Render("posting..."))
		b.WriteString("\n")
	}
	if err := p.thread.PostErr(); err != nil {
		b.WriteString(noticeStyle.Render("couldn't post: " + err.Error()))
		b.WriteString("\n")
	}
	if p.writing {
		b.WriteString("\n")
		b.WriteString(p.input.View())
	}
	return panelStyle.Width(width - 2).Render(b.String())
}

func (p commentPanel) commentLine(c *reels.Comment, selected bool, width int) string {
	indent := ""
	if c.IsReply() {
		indent = "  ↳ "
	}
	marker := "  "
	if selected {
		marker = selectedCommentStyle.Render("› ")
	}

	like := mutedStyle.Render("♡ " + render.CompactCount(c.LikeCount))
	if c.Liked {
		like = likedStyle.Render("♥ " + render.CompactCount(c.LikeCount))
	}

	var extra string
	switch {
	case p.thread.RepliesLoading(c.ID):
		extra = mutedStyle.Render(" loading replies...")
	case p.thread.ReplyErr(c.ID) != nil:
		extra = noticeStyle.Render(" replies unavailable")
	case !c.IsReply() && !c.RepliesLoaded() && c.ReplyCount > 0:
		extra = mutedStyle.Render(fmt.Sprintf(" %d replies", c.ReplyCount))
	}

	body := commentBodyStyle.Render(truncate(c.Body, width-len(indent)-len(c.Author.Username)-12))
	return marker + indent + commentAuthorStyle.Render(c.Author.Handle()) + " " + body + "  " + like + extra
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
