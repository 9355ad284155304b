package reels

import (
	"context"
	"math/rand"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/sidechain/reels/pkg/errors"
)

func newTestCoordinator(pool *playerPool, preload int) (*Coordinator, *[]Transition) {
	var seen []Transition
	c := NewCoordinator(context.Background(), 1, pool.factory, time.Millisecond, preload)
	c.Observe = func(t Transition) { seen = append(seen, t) }
	return c, &seen
}

func indexOf(ts []Transition, want Transition) int {
	for i, t := range ts {
		if t == want {
			return i
		}
	}
	return -1
}

func TestCoordinatorPausesOutgoingBeforeIncomingPlays(t *testing.T) {
	pool := newPlayerPool()
	c, seen := newTestCoordinator(pool, 0)
	feed := items("A", "B", "C")

	pump(t, c.Update, c.Activate(feed, 1), isTeardown)
	require.Equal(t, Playing, c.State("B"))

	pump(t, c.Update, c.Activate(feed, 2), isTeardown)
	require.Equal(t, Playing, c.State("C"))
	assert.Equal(t, Paused, c.State("B"))

	bPaused := indexOf(*seen, Transition{"B", Playing, Paused})
	cPriming := indexOf(*seen, Transition{"C", Dormant, Priming})
	cPlaying := indexOf(*seen, Transition{"C", Priming, Playing})
	require.NotEqual(t, -1, bPaused)
	require.NotEqual(t, -1, cPlaying)
	assert.Less(t, bPaused, cPriming)
	assert.Less(t, cPriming, cPlaying)

	assert.Equal(t, []string{"B:play", "B:pause", "C:play"}, pool.log)
}

func TestCoordinatorAtMostOnePlayingUnderRapidScroll(t *testing.T) {
	pool := newPlayerPool()
	c, _ := newTestCoordinator(pool, 1)
	feed := items("A", "B", "C", "D", "E", "F", "G", "H")
	rng := rand.New(rand.NewSource(7))

	var backlog []tea.Msg
	for step := 0; step < 200; step++ {
		switch rng.Intn(3) {
		case 0, 1:
			backlog = append(backlog, run(c.Activate(feed, rng.Intn(len(feed))))...)
		default:
			if len(backlog) == 0 {
				continue
			}
			// Deliver a random pending message out of order.
			i := rng.Intn(len(backlog))
			msg := backlog[i]
			backlog = append(backlog[:i], backlog[i+1:]...)
			backlog = append(backlog, run(c.Update(msg))...)
		}
		require.LessOrEqual(t, c.PlayingCount(), 1, "step %d", step)
	}
}

func TestCoordinatorTearsDownAfterGrace(t *testing.T) {
	pool := newPlayerPool()
	c, seen := newTestCoordinator(pool, 0)
	feed := items("A", "B")

	pump(t, c.Update, c.Activate(feed, 0))
	held := pump(t, c.Update, c.Activate(feed, 1), isTeardown)
	require.Len(t, held, 1)
	assert.Equal(t, Paused, c.State("A"))
	assert.Zero(t, pool.players["A"].released)

	pump(t, c.Update, c.Update(held[0]))
	assert.Equal(t, Dormant, c.State("A"))
	assert.Equal(t, 1, pool.players["A"].released)
	assert.False(t, c.Handle("A").Ready)
	assert.NotEqual(t, -1, indexOf(*seen, Transition{"A", Paused, Dormant}))
}

func TestCoordinatorReturningCancelsTeardown(t *testing.T) {
	pool := newPlayerPool()
	c, _ := newTestCoordinator(pool, 0)
	feed := items("A", "B")

	pump(t, c.Update, c.Activate(feed, 0))
	held := pump(t, c.Update, c.Activate(feed, 1), isTeardown)
	require.Len(t, held, 1)

	pump(t, c.Update, c.Activate(feed, 0), isTeardown)
	assert.Equal(t, Playing, c.State("A"), "ready media resumes without reloading")

	c.Update(held[0])
	assert.Equal(t, Playing, c.State("A"))
	assert.Zero(t, pool.players["A"].released)
	assert.Equal(t, 1, c.PlayingCount())
}

func TestCoordinatorPreloadsNeighboursWithoutPlaying(t *testing.T) {
	pool := newPlayerPool()
	c, _ := newTestCoordinator(pool, 1)
	feed := items("A", "B", "C", "D")

	pump(t, c.Update, c.Activate(feed, 1), isTeardown)
	assert.Equal(t, Playing, c.State("B"))
	assert.Equal(t, Paused, c.State("A"))
	assert.Equal(t, Paused, c.State("C"))
	assert.True(t, c.Handle("C").Ready)
	assert.Equal(t, Dormant, c.State("D"))
	assert.Equal(t, 1, c.PlayingCount())
}

func TestCoordinatorLateReadyAfterTeardownIsIgnored(t *testing.T) {
	pool := newPlayerPool()
	c, _ := newTestCoordinator(pool, 0)
	feed := items("A", "B")

	loadA := run(c.Activate(feed, 0))
	require.Len(t, loadA, 1)
	held := pump(t, c.Update, c.Activate(feed, 1), isTeardown)
	require.Len(t, held, 1)
	c.Update(held[0])
	require.Equal(t, Dormant, c.State("A"))

	c.Update(loadA[0])
	assert.Equal(t, Dormant, c.State("A"))
	assert.False(t, c.Handle("A").Ready)
	assert.Equal(t, 1, c.PlayingCount())
}

func TestCoordinatorMediaFailureIsIsolated(t *testing.T) {
	pool := newPlayerPool()
	pool.fail["B"] = errBoom
	c, _ := newTestCoordinator(pool, 1)
	feed := items("A", "B", "C")

	pump(t, c.Update, c.Activate(feed, 1), isTeardown)
	assert.Equal(t, Failed, c.State("B"))
	assert.True(t, c.Failed("B"))
	assert.True(t, errors.IsType(c.Err("B"), errors.ErrorTypeMedia))
	assert.Zero(t, c.PlayingCount())
	assert.Equal(t, Paused, c.State("C"), "siblings still prime")

	pump(t, c.Update, c.Activate(feed, 2), isTeardown)
	assert.Equal(t, Playing, c.State("C"))
	pump(t, c.Update, c.Activate(feed, 1), isTeardown)
	assert.Equal(t, Failed, c.State("B"), "failure is permanent")
}

func TestCoordinatorEndOfMediaAdvances(t *testing.T) {
	pool := newPlayerPool()
	c, _ := newTestCoordinator(pool, 0)
	feed := items("A", "B")
	ended := 0
	c.OnEnded = func() tea.Cmd {
		ended++
		return nil
	}

	p := c.entry(feed[0]).player.(*fakePlayer)
	p.frames, p.interval = 3, time.Millisecond

	pump(t, c.Update, c.Activate(feed, 0))
	assert.Equal(t, 1, ended)
	assert.Equal(t, Paused, c.State("A"), "finished media is not looped")
	assert.Equal(t, 3, p.pos)
}

func TestCoordinatorTogglePauseAndMute(t *testing.T) {
	pool := newPlayerPool()
	c, _ := newTestCoordinator(pool, 0)
	feed := items("A", "B")

	c.SetMuted(true)
	pump(t, c.Update, c.Activate(feed, 0))
	assert.True(t, c.Handle("A").Muted, "mute applies on play")

	c.TogglePause()
	assert.Equal(t, Paused, c.State("A"))
	assert.Equal(t, "A", c.ActiveID())
	c.TogglePause()
	assert.Equal(t, Playing, c.State("A"))

	c.SetMuted(false)
	assert.False(t, c.Handle("A").Muted)
	assert.Equal(t, Playing, c.State("A"), "mute does not change state")
}

func TestCoordinatorReactivatingPausedItemKeepsItPaused(t *testing.T) {
	pool := newPlayerPool()
	c, _ := newTestCoordinator(pool, 1)
	feed := items("A", "B")

	pump(t, c.Update, c.Activate(feed, 1), isTeardown)
	c.TogglePause()
	require.Equal(t, Paused, c.State("B"))

	feed = append(feed, item("C"))
	pump(t, c.Update, c.Activate(feed, 1), isTeardown)
	assert.Equal(t, Paused, c.State("B"), "only the viewer resumes")
	assert.Equal(t, Paused, c.State("C"), "new neighbour is primed")
	assert.True(t, c.Handle("C").Ready)
	assert.Zero(t, c.PlayingCount())
}

func TestCoordinatorTimerFromBeforeResetIsIgnored(t *testing.T) {
	pool := newPlayerPool()
	c, _ := newTestCoordinator(pool, 0)
	feed := items("A", "B")

	pump(t, c.Update, c.Activate(feed, 0))
	stale := pump(t, c.Update, c.Activate(feed, 1), isTeardown)
	require.Len(t, stale, 1)

	c.Reset()
	pump(t, c.Update, c.Activate(feed, 0))
	fresh := pump(t, c.Update, c.Activate(feed, 1), isTeardown)
	require.Len(t, fresh, 1)

	c.Update(stale[0])
	assert.Equal(t, Paused, c.State("A"), "released before its grace delay")
	assert.Zero(t, pool.players["A"].released)

	c.Update(fresh[0])
	assert.Equal(t, Dormant, c.State("A"))
}

func TestCoordinatorResetReleasesEverything(t *testing.T) {
	pool := newPlayerPool()
	c, _ := newTestCoordinator(pool, 1)
	feed := items("A", "B")

	pump(t, c.Update, c.Activate(feed, 0), isTeardown)
	c.Reset()
	assert.Zero(t, c.PlayingCount())
	assert.Equal(t, "", c.ActiveID())
	assert.Equal(t, 1, pool.players["A"].released)
	assert.Equal(t, 1, pool.players["B"].released)
	assert.Equal(t, Dormant, c.State("A"))
}
