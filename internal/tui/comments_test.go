package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentPanel_OpenLoadsThread(t *testing.T) {
	h := newHarness(t, 4)

	h.press("c")
	require.NotNil(t, h.app.panel)
	rows := h.app.panel.rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "c1", rows[0].ID)

	view := h.app.View()
	assert.Contains(t, view, "Comments")
	assert.Contains(t, view, "@ann")
	assert.Contains(t, view, "1 replies")

	h.press("esc")
	assert.Nil(t, h.app.panel)
	assert.Contains(t, h.app.View(), "@user0")
}

func TestCommentPanel_EmptyThread(t *testing.T) {
	h := newHarness(t, 4)
	h.press("j", "c")

	require.NotNil(t, h.app.panel)
	assert.Contains(t, h.app.View(), "no comments yet")
}

func TestCommentPanel_LoadRepliesAndNavigate(t *testing.T) {
	h := newHarness(t, 4)
	h.press("c", "enter")

	rows := h.app.panel.rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "r1", rows[1].ID)
	assert.True(t, rows[1].IsReply())

	h.press("j")
	assert.Equal(t, "r1", h.app.panel.selected().ID)
	h.press("j", "j")
	assert.Equal(t, "c2", h.app.panel.selected().ID)
	h.press("k", "k", "k")
	assert.Equal(t, "c1", h.app.panel.selected().ID)
}

func TestCommentPanel_LikeComment(t *testing.T) {
	h := newHarness(t, 4)
	h.press("c", "l")

	c := h.app.panel.selected()
	assert.True(t, c.Liked)
	assert.Equal(t, 11, c.LikeCount)
	assert.Contains(t, h.app.View(), "♥ 11")
}

func TestCommentPanel_PostComment(t *testing.T) {
	h := newHarness(t, 4)
	before := h.session().ActiveItem().CommentCount

	h.press("c", "i")
	require.True(t, h.app.panel.writing)
	// Keys go to the composer while writing.
	typeText(h, "love it")
	assert.NotNil(t, h.app.panel)
	h.press("enter")

	assert.False(t, h.app.panel.writing)
	rows := h.app.panel.rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "love it", rows[2].Body)
	assert.Nil(t, h.backend.posted[0])
	assert.Equal(t, before+1, h.session().ActiveItem().CommentCount)
}

func TestCommentPanel_ReplyToReplyAttachesToTopLevel(t *testing.T) {
	h := newHarness(t, 4)
	h.press("c", "enter", "j")
	require.Equal(t, "r1", h.app.panel.selected().ID)

	h.press("R")
	assert.Contains(t, h.app.panel.input.Placeholder, "@cy")
	typeText(h, "same")
	h.press("enter")

	require.Len(t, h.backend.posted, 1)
	require.NotNil(t, h.backend.posted[0])
	assert.Equal(t, "c1", *h.backend.posted[0])

	c1 := h.app.panel.thread.Find("c1")
	assert.Len(t, c1.Replies, 2)
	assert.Equal(t, 2, c1.ReplyCount)
}

func TestCommentPanel_EscCancelsComposer(t *testing.T) {
	h := newHarness(t, 4)
	h.press("c", "i")
	typeText(h, "never mind")

	h.press("esc")
	require.NotNil(t, h.app.panel)
	assert.False(t, h.app.panel.writing)
	assert.Empty(t, h.backend.posted)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a long…", truncate("a long sentence", 7))
}
