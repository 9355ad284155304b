package devserver

import (
	"bytes"
	"image/gif"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reelIDs(t *testing.T, s *Store, personalized bool, category string, page, limit int) []string {
	t.Helper()
	items, _ := s.Page(personalized, category, page, limit)
	ids := make([]string, len(items))
	for i, r := range items {
		ids[i] = r.ID
	}
	return ids
}

func TestStoreIsDeterministic(t *testing.T) {
	a := NewStore(20, 7)
	b := NewStore(20, 7)
	assert.Equal(t, reelIDs(t, a, true, "", 1, 20), reelIDs(t, b, true, "", 1, 20))
	assert.NotEqual(t, reelIDs(t, a, true, "", 1, 20), reelIDs(t, NewStore(20, 8), true, "", 1, 20))
}

func TestStorePaging(t *testing.T) {
	s := NewStore(25, 1)

	first, more := s.Page(false, "", 1, 10)
	assert.Len(t, first, 10)
	assert.True(t, more)
	for i := 1; i < len(first); i++ {
		assert.False(t, first[i].CreatedAt.After(first[i-1].CreatedAt), "latest feed is newest first")
	}

	last, more := s.Page(false, "", 3, 10)
	assert.Len(t, last, 5)
	assert.False(t, more)

	beyond, more := s.Page(false, "", 4, 10)
	assert.Empty(t, beyond)
	assert.False(t, more)

	assert.ElementsMatch(t, reelIDs(t, s, false, "", 1, 25), reelIDs(t, s, true, "", 1, 25),
		"both feeds hold the same reels")
}

func TestStoreCategoryFilter(t *testing.T) {
	s := NewStore(25, 1)
	items, more := s.Page(true, "music", 1, 50)
	assert.False(t, more)
	assert.Len(t, items, 5)
	for _, r := range items {
		assert.Equal(t, "music", r.Category)
	}
}

func TestStoreToggles(t *testing.T) {
	s := NewStore(3, 1)
	items, _ := s.Page(false, "", 1, 1)
	r := items[0]

	liked, count, err := s.ToggleLike(r.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, r.LikeCount+1, count)

	liked, count, err = s.ToggleLike(r.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, r.LikeCount, count)

	saved, _, err := s.ToggleSave(r.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	_, _, err = s.ToggleLike("missing")
	assert.ErrorIs(t, err, errNotFound)
}

func TestStoreCommentsAndReplies(t *testing.T) {
	s := NewStore(1, 3)
	items, _ := s.Page(false, "", 1, 1)
	reel := items[0]

	top, _, err := s.AddComment(reel.ID, "  first!  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "first!", top.Content)
	assert.Nil(t, top.ParentID)
	assert.Equal(t, Viewer.Username, top.User.Username)

	reply, _, err := s.AddComment(reel.ID, "reply", &top.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)

	nested, count, err := s.AddComment(reel.ID, "reply to reply", &reply.ID)
	require.NoError(t, err)
	assert.Equal(t, top.ID, *nested.ParentID, "depth is capped at one")
	assert.Equal(t, reel.CommentCount+3, count)

	replies, err := s.Replies(top.ID)
	require.NoError(t, err)
	assert.Len(t, replies, 2)

	_, _, err = s.AddComment(reel.ID, "   ", nil)
	assert.ErrorIs(t, err, errInvalid)
	_, _, err = s.AddComment(reel.ID, "x", &[]string{"nope"}[0])
	assert.ErrorIs(t, err, errNotFound)
}

func TestStoreCommentPaging(t *testing.T) {
	s := NewStore(1, 3)
	items, _ := s.Page(false, "", 1, 1)
	id := items[0].ID
	for i := 0; i < 25; i++ {
		_, _, err := s.AddComment(id, "c", nil)
		require.NoError(t, err)
	}

	var seen int
	offset := 0
	for {
		page, more, err := s.Comments(id, offset, 10)
		require.NoError(t, err)
		seen += len(page)
		offset += len(page)
		if !more {
			break
		}
	}
	all, _, _ := s.Comments(id, 0, 1000)
	assert.Equal(t, len(all), seen)
	assert.GreaterOrEqual(t, seen, 25)
}

func TestStoreMedia(t *testing.T) {
	s := NewStore(1, 3)
	items, _ := s.Page(false, "", 1, 1)

	data, contentType, err := s.Media(items[0].ID + ".gif")
	require.NoError(t, err)
	assert.Equal(t, "image/gif", contentType)
	g, err := gif.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, g.Image, mediaFrames)

	_, contentType, err = s.Media(items[0].ID + ".png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)

	_, _, err = s.Media(items[0].ID + ".mp4")
	assert.ErrorIs(t, err, errNotFound)
}
