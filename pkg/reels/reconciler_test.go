package reels

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/sidechain/reels/pkg/errors"
)

type shown struct {
	active bool
	count  int
}

func newTestReconciler(svc *stubInteractions) (*Reconciler, map[string]shown) {
	view := make(map[string]shown)
	send := func(ctx context.Context, kind Kind, id string) (ToggleResult, error) {
		if kind == KindSave {
			return svc.ToggleSave(ctx, id)
		}
		return svc.ToggleLike(ctx, id)
	}
	apply := func(kind Kind, id string, active bool, count int) {
		view[kind.String()+":"+id] = shown{active, count}
	}
	return NewReconciler(context.Background(), 1, send, apply), view
}

// settle resolves queued toggles one request at a time.
func settle(t *testing.T, r *Reconciler, first ...tea.Msg) []error {
	t.Helper()
	var errs []error
	queue := first
	for len(queue) > 0 {
		msg, ok := queue[0].(ToggleResultMsg)
		require.True(t, ok, "unexpected %T", queue[0])
		queue = queue[1:]
		cmd, err := r.Update(msg)
		if err != nil {
			errs = append(errs, err)
		}
		queue = append(queue, run(cmd)...)
	}
	return errs
}

func TestReconcilerOptimisticFlipAndConfirm(t *testing.T) {
	svc := newStubInteractions()
	r, view := newTestReconciler(svc)

	cmd := r.Toggle(KindLike, "A", false, 10)
	assert.Equal(t, shown{true, 11}, view["like:A"], "flip is applied before the request resolves")
	assert.True(t, r.Pending(KindLike, "A"))

	errs := settle(t, r, run(cmd)...)
	assert.Empty(t, errs)
	assert.Equal(t, shown{true, 11}, view["like:A"])
	assert.False(t, r.Pending(KindLike, "A"))
}

func TestReconcilerFailureReverts(t *testing.T) {
	svc := newStubInteractions(errBoom)
	r, view := newTestReconciler(svc)

	cmd := r.Toggle(KindSave, "A", true, 4)
	assert.Equal(t, shown{false, 3}, view["save:A"])

	errs := settle(t, r, run(cmd)...)
	require.Len(t, errs, 1)
	assert.True(t, errors.IsType(errs[0], errors.ErrorTypeMutation))
	assert.Equal(t, shown{true, 4}, view["save:A"])
}

func TestReconcilerDoubleToggleIsIdentity(t *testing.T) {
	svc := newStubInteractions()
	r, view := newTestReconciler(svc)

	first := r.Toggle(KindLike, "A", false, 5)
	second := r.Toggle(KindLike, "A", true, 6)
	assert.Nil(t, second, "second toggle queues behind the first")
	assert.Equal(t, shown{false, 5}, view["like:A"])

	errs := settle(t, r, run(first)...)
	assert.Empty(t, errs)
	assert.Equal(t, shown{false, 5}, view["like:A"])
	assert.Equal(t, 2, svc.callCount(), "server state is toggled back")
	assert.False(t, svc.server["like:A"])
}

func TestReconcilerFirstFailsSecondWins(t *testing.T) {
	svc := newStubInteractions(errBoom)
	r, view := newTestReconciler(svc)

	first := r.Toggle(KindLike, "A", false, 5)
	r.Toggle(KindLike, "A", true, 6)

	errs := settle(t, r, run(first)...)
	require.Len(t, errs, 1)
	// The second toggle targeted "not liked", which is where the revert
	// already left it.
	assert.Equal(t, shown{false, 5}, view["like:A"])
	assert.Equal(t, 1, svc.callCount())
}

func TestReconcilerTripleToggleEndsFlipped(t *testing.T) {
	svc := newStubInteractions()
	r, view := newTestReconciler(svc)

	first := r.Toggle(KindLike, "A", false, 0)
	r.Toggle(KindLike, "A", true, 1)
	r.Toggle(KindLike, "A", false, 0)
	assert.Equal(t, shown{true, 1}, view["like:A"])

	settle(t, r, run(first)...)
	assert.Equal(t, shown{true, 1}, view["like:A"])
	assert.Equal(t, 1, svc.callCount(), "flip then unflip while queued cancels out")
}

func TestReconcilerQueuedToggleAfterFailureIsSent(t *testing.T) {
	svc := newStubInteractions(errBoom)
	r, view := newTestReconciler(svc)

	first := r.Toggle(KindLike, "A", true, 3)
	assert.Equal(t, shown{false, 2}, view["like:A"])

	// Queue a like, cancel it, queue it again.
	r.Toggle(KindLike, "A", false, 2)
	r.Toggle(KindLike, "A", true, 3)
	r.Toggle(KindLike, "A", false, 2)
	assert.Equal(t, shown{true, 3}, view["like:A"])

	errs := settle(t, r, run(first)...)
	require.Len(t, errs, 1)
	assert.Equal(t, shown{true, 3}, view["like:A"])
	assert.Equal(t, 1, svc.callCount())
}

func TestReconcilerLanesAreIndependent(t *testing.T) {
	svc := newStubInteractions()
	r, view := newTestReconciler(svc)

	like := r.Toggle(KindLike, "A", false, 0)
	save := r.Toggle(KindSave, "A", false, 0)
	other := r.Toggle(KindLike, "B", false, 0)
	assert.NotNil(t, like)
	assert.NotNil(t, save)
	assert.NotNil(t, other)

	settle(t, r, append(append(run(like), run(save)...), run(other)...)...)
	assert.Equal(t, shown{true, 1}, view["like:A"])
	assert.Equal(t, shown{true, 1}, view["save:A"])
	assert.Equal(t, shown{true, 1}, view["like:B"])
}

func TestReconcilerIgnoresUnknownResults(t *testing.T) {
	r, _ := newTestReconciler(newStubInteractions())
	cmd, err := r.Update(ToggleResultMsg{Kind: KindLike, ID: "ghost", Target: true})
	assert.Nil(t, cmd)
	assert.NoError(t, err)
}

func TestReconcilerCountNeverNegative(t *testing.T) {
	r, view := newTestReconciler(newStubInteractions())
	r.Toggle(KindLike, "A", true, 0)
	assert.Equal(t, shown{false, 0}, view["like:A"])
}
