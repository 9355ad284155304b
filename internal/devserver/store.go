package devserver

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/zfogg/sidechain/reels/pkg/api"
)

// Categories served by the fixture feed.
var Categories = []string{"dance", "comedy", "music", "food", "travel"}

var (
	errNotFound = errors.New("not found")
	errInvalid  = errors.New("invalid request")
)

// Viewer is the account every request acts as.
var Viewer = api.Author{ID: "viewer", Username: "you", DisplayName: "You"}

const (
	mediaWidth  = 18
	mediaHeight = 32
	mediaFrames = 8
)

// Store holds the generated fixtures and every mutation made against them.
type Store struct {
	mu          sync.Mutex
	latest      []*api.Reel
	forYou      []*api.Reel
	reels       map[string]*api.Reel
	comments    map[string][]*api.Comment
	replies     map[string][]*api.Comment
	commentByID map[string]*api.Comment
	colors      map[string][2]color.RGBA
	media       map[string][]byte
}

// NewStore generates items reels from seed. The same seed always yields
// the same feed.
func NewStore(items int, seed uint64) *Store {
	f := gofakeit.New(seed)
	s := &Store{
		reels:       make(map[string]*api.Reel, items),
		comments:    make(map[string][]*api.Comment, items),
		replies:     make(map[string][]*api.Comment),
		commentByID: make(map[string]*api.Comment),
		colors:      make(map[string][2]color.RGBA, items),
		media:       make(map[string][]byte),
	}

	authors := make([]api.Author, 12)
	for i := range authors {
		authors[i] = api.Author{ID: f.UUID(), Username: f.Username(), DisplayName: f.Name()}
	}
	pick := func() api.Author { return authors[f.Number(0, len(authors)-1)] }

	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < items; i++ {
		id := f.UUID()
		r := &api.Reel{
			ID:        id,
			MediaURL:  "/media/" + id + ".gif",
			PosterURL: "/media/" + id + ".png",
			Caption:   f.HipsterSentence(),
			User:      pick(),
			LikeCount: f.Number(0, 5000),
			SaveCount: f.Number(0, 800),
			Hashtags:  []string{strings.ToLower(f.Word()), strings.ToLower(f.Word())},
			Category:  Categories[i%len(Categories)],
			CreatedAt: f.DateRange(epoch.AddDate(0, 0, -30), epoch),
		}
		s.reels[id] = r
		s.latest = append(s.latest, r)
		s.colors[id] = [2]color.RGBA{randomColor(f), randomColor(f)}

		for j := f.Number(0, 30); j > 0; j-- {
			c := &api.Comment{
				ID:        f.UUID(),
				ReelID:    id,
				User:      pick(),
				Content:   f.HipsterSentence(),
				LikeCount: f.Number(0, 200),
				CreatedAt: f.DateRange(r.CreatedAt, epoch),
			}
			s.addComment(r, c)
			for k := f.Number(0, 3); k > 0; k-- {
				parent := c.ID
				s.addComment(r, &api.Comment{
					ID:        f.UUID(),
					ReelID:    id,
					ParentID:  &parent,
					User:      pick(),
					Content:   f.HipsterSentence(),
					LikeCount: f.Number(0, 20),
					CreatedAt: f.DateRange(c.CreatedAt, epoch),
				})
			}
		}
	}

	sort.SliceStable(s.latest, func(i, j int) bool {
		return s.latest[i].CreatedAt.After(s.latest[j].CreatedAt)
	})
	s.forYou = append([]*api.Reel(nil), s.latest...)
	for i := len(s.forYou) - 1; i > 0; i-- {
		j := f.Number(0, i)
		s.forYou[i], s.forYou[j] = s.forYou[j], s.forYou[i]
	}
	return s
}

func randomColor(f *gofakeit.Faker) color.RGBA {
	return color.RGBA{R: uint8(f.Number(0, 255)), G: uint8(f.Number(0, 255)), B: uint8(f.Number(0, 255)), A: 255}
}

// addComment links c under its reel or parent. Callers hold mu or own s.
func (s *Store) addComment(r *api.Reel, c *api.Comment) {
	s.commentByID[c.ID] = c
	r.CommentCount++
	if c.ParentID == nil {
		s.comments[r.ID] = append(s.comments[r.ID], c)
		return
	}
	s.replies[*c.ParentID] = append(s.replies[*c.ParentID], c)
	s.commentByID[*c.ParentID].ReplyCount++
}

// Len reports the number of reels.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.latest)
}

// Page returns the 1-based page of the feed selected by personalized and
// category, and whether more pages follow.
func (s *Store) Page(personalized bool, category string, page, limit int) ([]api.Reel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := s.latest
	if personalized {
		source = s.forYou
	}
	var filtered []*api.Reel
	for _, r := range source {
		if category == "" || r.Category == category {
			filtered = append(filtered, r)
		}
	}

	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(filtered) {
		return []api.Reel{}, false
	}
	end := min(start+limit, len(filtered))
	out := make([]api.Reel, 0, end-start)
	for _, r := range filtered[start:end] {
		out = append(out, *r)
	}
	return out, end < len(filtered)
}

// ToggleLike flips the viewer's like and returns the new state.
func (s *Store) ToggleLike(id string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reels[id]
	if !ok {
		return false, 0, errNotFound
	}
	r.IsLiked = !r.IsLiked
	r.LikeCount += delta(r.IsLiked)
	return r.IsLiked, r.LikeCount, nil
}

// ToggleSave flips the viewer's save and returns the new state.
func (s *Store) ToggleSave(id string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reels[id]
	if !ok {
		return false, 0, errNotFound
	}
	r.IsSaved = !r.IsSaved
	r.SaveCount += delta(r.IsSaved)
	return r.IsSaved, r.SaveCount, nil
}

// Comments returns top-level comments from offset, oldest first.
func (s *Store) Comments(reelID string, offset, limit int) ([]api.Comment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reels[reelID]; !ok {
		return nil, false, errNotFound
	}
	all := s.comments[reelID]
	if offset >= len(all) {
		return []api.Comment{}, false, nil
	}
	end := min(offset+limit, len(all))
	out := make([]api.Comment, 0, end-offset)
	for _, c := range all[offset:end] {
		out = append(out, *c)
	}
	return out, end < len(all), nil
}

// Replies returns every reply to a top-level comment.
func (s *Store) Replies(commentID string) ([]api.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.commentByID[commentID]; !ok {
		return nil, errNotFound
	}
	out := make([]api.Comment, 0, len(s.replies[commentID]))
	for _, c := range s.replies[commentID] {
		out = append(out, *c)
	}
	return out, nil
}

// AddComment posts as the viewer. A reply to a reply is attached to the
// top-level comment. It returns the comment and the reel's new count.
func (s *Store) AddComment(reelID, content string, parentID *string) (api.Comment, int, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return api.Comment{}, 0, errInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reels[reelID]
	if !ok {
		return api.Comment{}, 0, errNotFound
	}
	var parent *string
	if parentID != nil {
		p, ok := s.commentByID[*parentID]
		if !ok || p.ReelID != reelID {
			return api.Comment{}, 0, errNotFound
		}
		if p.ParentID != nil {
			p = s.commentByID[*p.ParentID]
		}
		id := p.ID
		parent = &id
	}

	c := &api.Comment{
		ID:        uuid.NewString(),
		ReelID:    reelID,
		ParentID:  parent,
		User:      Viewer,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.addComment(r, c)
	return *c, r.CommentCount, nil
}

// ToggleCommentLike flips the viewer's like on a comment or reply.
func (s *Store) ToggleCommentLike(id string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.commentByID[id]
	if !ok {
		return false, 0, errNotFound
	}
	c.IsLiked = !c.IsLiked
	c.LikeCount += delta(c.IsLiked)
	return c.IsLiked, c.LikeCount, nil
}

// Media returns the generated clip (".gif") or poster (".png") of a reel.
func (s *Store) Media(name string) ([]byte, string, error) {
	id, ext, _ := strings.Cut(name, ".")

	s.mu.Lock()
	defer s.mu.Unlock()
	colors, ok := s.colors[id]
	if !ok || (ext != "gif" && ext != "png") {
		return nil, "", errNotFound
	}
	if data, ok := s.media[name]; ok {
		return data, "image/" + ext, nil
	}

	frames := clipFrames(colors[0], colors[1])
	var buf bytes.Buffer
	var err error
	if ext == "gif" {
		g := &gif.GIF{Image: frames, Delay: make([]int, len(frames))}
		for i := range g.Delay {
			g.Delay[i] = 12
		}
		err = gif.EncodeAll(&buf, g)
	} else {
		err = png.Encode(&buf, frames[0])
	}
	if err != nil {
		return nil, "", err
	}
	s.media[name] = buf.Bytes()
	return s.media[name], "image/" + ext, nil
}

// clipFrames draws a vertical gradient with a bright band sweeping down.
func clipFrames(top, bottom color.RGBA) []*image.Paletted {
	palette := make(color.Palette, 0, 17)
	for i := 0; i < 16; i++ {
		palette = append(palette, lerp(top, bottom, float64(i)/15))
	}
	palette = append(palette, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	band := uint8(len(palette) - 1)

	frames := make([]*image.Paletted, mediaFrames)
	for n := range frames {
		img := image.NewPaletted(image.Rect(0, 0, mediaWidth, mediaHeight), palette)
		bandY := n * mediaHeight / mediaFrames
		for y := 0; y < mediaHeight; y++ {
			idx := uint8(y * 15 / (mediaHeight - 1))
			if y >= bandY && y < bandY+2 {
				idx = band
			}
			for x := 0; x < mediaWidth; x++ {
				img.SetColorIndex(x, y, idx)
			}
		}
		frames[n] = img
	}
	return frames
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

func delta(on bool) int {
	if on {
		return 1
	}
	return -1
}
