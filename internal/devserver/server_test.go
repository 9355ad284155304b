package devserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/sidechain/reels/pkg/api"
	"github.com/zfogg/sidechain/reels/pkg/client"
	"github.com/zfogg/sidechain/reels/pkg/errors"
	"github.com/zfogg/sidechain/reels/pkg/prefs"
	"github.com/zfogg/sidechain/reels/pkg/reels"
	"github.com/zfogg/sidechain/reels/pkg/websocket"
)

type fixture struct {
	srv    *Server
	http   *httptest.Server
	client *api.Client
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	srv := New(opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return &fixture{
		srv:    srv,
		http:   ts,
		client: api.New(client.New(ts.URL, 5*time.Second), 10),
	}
}

func TestFeedPagesToEndOfStream(t *testing.T) {
	f := newFixture(t, Options{Items: 25, Seed: 1})
	ctx := context.Background()
	key := reels.FeedKey{Personalized: true}

	var ids []string
	var cursor *string
	for pages := 0; ; pages++ {
		require.Less(t, pages, 5)
		page, err := f.client.FetchPage(ctx, key, cursor)
		require.NoError(t, err)
		for _, it := range page.Items {
			ids = append(ids, it.ID)
		}
		if page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}
	assert.Len(t, ids, 25)
	assert.Equal(t, reelIDs(t, f.srv.Store(), true, "", 1, 25), ids)
}

func TestMutationsRoundTrip(t *testing.T) {
	f := newFixture(t, Options{Items: 5, Seed: 1})
	ctx := context.Background()
	page, err := f.client.FetchPage(ctx, reels.FeedKey{}, nil)
	require.NoError(t, err)
	item := page.Items[0]

	res, err := f.client.ToggleLike(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, reels.ToggleResult{Active: true, Count: item.LikeCount + 1}, res)

	res, err = f.client.ToggleSave(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, res.Active)

	top, err := f.client.CreateComment(ctx, item.ID, "hello", nil)
	require.NoError(t, err)
	reply, err := f.client.CreateComment(ctx, item.ID, "hi back", &top.ID)
	require.NoError(t, err)
	assert.Equal(t, top.ID, *reply.ParentID)

	replies, err := f.client.ListReplies(ctx, top.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "hi back", replies[0].Body)

	res, err = f.client.ToggleCommentLike(ctx, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, reels.ToggleResult{Active: true, Count: 1}, res)

	_, err = f.client.ToggleLike(ctx, "missing")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestCommentsPageByOffset(t *testing.T) {
	f := newFixture(t, Options{Items: 1, Seed: 1})
	ctx := context.Background()
	page, err := f.client.FetchPage(ctx, reels.FeedKey{}, nil)
	require.NoError(t, err)
	id := page.Items[0].ID
	for i := 0; i < 12; i++ {
		_, err := f.client.CreateComment(ctx, id, "c", nil)
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	var cursor *string
	for {
		cp, err := f.client.ListComments(ctx, id, cursor, 5)
		require.NoError(t, err)
		for _, c := range cp.Comments {
			assert.False(t, seen[c.ID], "no comment is served twice")
			seen[c.ID] = true
		}
		if cp.NextCursor == nil {
			break
		}
		cursor = cp.NextCursor
	}
	all, _, err := f.srv.Store().Comments(id, 0, 1000)
	require.NoError(t, err)
	assert.Len(t, seen, len(all))
}

func TestInjectedFailures(t *testing.T) {
	f := newFixture(t, Options{Items: 2, Seed: 1, FailRate: 1})
	ctx := context.Background()
	page, err := f.client.FetchPage(ctx, reels.FeedKey{}, nil)
	require.NoError(t, err, "reads are never injected")

	_, err = f.client.ToggleLike(ctx, page.Items[0].ID)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeServer))

	liked, _, _ := f.srv.Store().ToggleLike(page.Items[0].ID)
	assert.True(t, liked, "the rejected toggle never reached the store")
}

func TestMediaAndMetricsEndpoints(t *testing.T) {
	f := newFixture(t, Options{Items: 2, Seed: 1})
	ctx := context.Background()
	page, err := f.client.FetchPage(ctx, reels.FeedKey{}, nil)
	require.NoError(t, err)
	_, err = f.client.ToggleLike(ctx, page.Items[0].ID)
	require.NoError(t, err)

	resp, err := http.Get(f.http.URL + page.Items[0].MediaURL)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), "GIF89a"))

	resp, err = http.Get(f.http.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `reels_toggles_total{kind="like",state="on"} 1`)
	assert.Contains(t, string(body), `reels_http_requests_total{method="GET",path="/api/v1/reels",status="200"} 1`)
}

func TestLiveCountersArePushed(t *testing.T) {
	f := newFixture(t, Options{Items: 2, Seed: 1})
	ctx := context.Background()
	page, err := f.client.FetchPage(ctx, reels.FeedKey{}, nil)
	require.NoError(t, err)
	item := page.Items[0]

	cfg := websocket.DefaultConfig("ws" + strings.TrimPrefix(f.http.URL, "http") + "/api/v1/ws")
	cfg.HeartbeatInterval = 0
	live := websocket.NewClient(cfg)
	require.NoError(t, live.Connect(ctx))
	defer live.Disconnect()

	// the hub registers the socket asynchronously
	require.Eventually(t, func() bool {
		return testutilGauge(f.srv) == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err = f.client.ToggleLike(ctx, item.ID)
	require.NoError(t, err)

	select {
	case msg := <-live.Events():
		assert.Equal(t, reels.LiveCountMsg{Kind: reels.KindLike, ID: item.ID, Count: item.LikeCount + 1}, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("no live counter pushed")
	}
}

func testutilGauge(s *Server) int {
	mfs, err := s.metrics.Registry.Gather()
	if err != nil {
		return -1
	}
	for _, mf := range mfs {
		if mf.GetName() == "reels_live_clients" {
			return int(mf.GetMetric()[0].GetGauge().GetValue())
		}
	}
	return -1
}

// stillPlayer is static media that is ready as soon as it loads.
type stillPlayer struct{ ready, playing, muted bool }

func (p *stillPlayer) Attach(interface{}) error {
	p.ready = true
	return nil
}

func (p *stillPlayer) Release() {
	p.ready = false
	p.playing = false
}

func (p *stillPlayer) Load(context.Context) (interface{}, error) { return nil, nil }
func (p *stillPlayer) Play()                                     { p.playing = true }
func (p *stillPlayer) Pause()                                    { p.playing = false }
func (p *stillPlayer) SetMuted(m bool)                           { p.muted = m }
func (p *stillPlayer) Advance() bool                             { return false }
func (p *stillPlayer) Interval() time.Duration                   { return 0 }

func (p *stillPlayer) Handle() reels.PlaybackHandle {
	return reels.PlaybackHandle{Ready: p.ready, Playing: p.playing, Muted: p.muted}
}

// drive runs cmd and feeds every resulting message back into the session.
func drive(t *testing.T, s *reels.Session, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 1000, "session did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			queue = append(queue, s.Update(msg))
		}
	}
}

func TestSessionAgainstDevServer(t *testing.T) {
	f := newFixture(t, Options{Items: 25, Seed: 1})
	opts := reels.DefaultOptions()
	opts.Grace = time.Millisecond
	s := reels.NewSession(reels.Deps{
		Source:       f.client,
		Interactions: f.client,
		Comments:     f.client,
		Prefs:        prefs.NewMemory(),
		NewPlayer:    func(*reels.FeedItem) reels.Player { return &stillPlayer{} },
	}, opts)

	drive(t, s, s.Mount(context.Background(), reels.MountOptions{}))
	require.Len(t, s.Items(), 10)
	assert.Equal(t, 0, s.Active())
	assert.Equal(t, reels.Playing, s.Playback().State(s.Items()[0].ID))

	first := s.ActiveItem()
	drive(t, s, s.ToggleLike(first.ID))
	assert.True(t, first.Liked)
	stored, _ := f.srv.Store().Page(true, "", 1, 1)
	assert.True(t, stored[0].IsLiked)

	for i := 0; i < 9; i++ {
		drive(t, s, s.GoToNext())
	}
	assert.Equal(t, 9, s.Active())
	assert.Len(t, s.Items(), 20, "reaching the trailing edge loads the next page")
	assert.Equal(t, 1, s.Playback().PlayingCount())

	thread := s.Thread(first.ID)
	drive(t, s, thread.Open())
	drive(t, s, thread.Post("from the session", nil))
	assert.Nil(t, thread.PostErr())
	assert.Equal(t, stored[0].CommentCount+1, first.CommentCount)

	s.Unmount()
	assert.False(t, s.Mounted())
}
