package reels

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zfogg/sidechain/reels/pkg/errors"
	"github.com/zfogg/sidechain/reels/pkg/logger"
)

// Kind names a toggle or counter.
type Kind int

const (
	KindLike Kind = iota
	KindSave
	KindCommentLike
	// KindComments is the comment counter of an item. It has no toggle.
	KindComments
)

func (k Kind) String() string {
	switch k {
	case KindLike:
		return "like"
	case KindSave:
		return "save"
	case KindCommentLike:
		return "comment_like"
	case KindComments:
		return "comments"
	}
	return "unknown"
}

// Sender performs one toggle mutation.
type Sender func(ctx context.Context, kind Kind, id string) (ToggleResult, error)

// Applier writes a displayed flag and counter onto the owning entity.
type Applier func(kind Kind, id string, active bool, count int)

type laneKey struct {
	kind Kind
	id   string
}

// lane serializes toggles for one (kind, id). base is the last state the
// server accepted; flight is the target of the request on the wire; pending
// is at most one queued target.
type lane struct {
	baseActive bool
	baseCount  int

	inFlight bool
	flight   bool
	pending  *bool
}

func (l *lane) display() bool {
	switch {
	case l.pending != nil:
		return *l.pending
	case l.inFlight:
		return l.flight
	}
	return l.baseActive
}

func (l *lane) countFor(active bool) int {
	if active == l.baseActive {
		return l.baseCount
	}
	if active {
		return l.baseCount + 1
	}
	if l.baseCount > 0 {
		return l.baseCount - 1
	}
	return 0
}

// Reconciler applies like and save toggles optimistically and reverts the
// ones the server rejects. Requests for the same (kind, id) never overlap:
// a toggle issued while one is in flight is queued, and toggling again
// cancels the queued one. A queued target that already matches the
// server's state is dropped without a request, since toggles are not
// idempotent.
type Reconciler struct {
	ctx   context.Context
	gen   uint64
	send  Sender
	apply Applier
	lanes map[laneKey]*lane
}

// NewReconciler returns a reconciler with no pending toggles.
func NewReconciler(ctx context.Context, gen uint64, send Sender, apply Applier) *Reconciler {
	return &Reconciler{
		ctx:   ctx,
		gen:   gen,
		send:  send,
		apply: apply,
		lanes: make(map[laneKey]*lane),
	}
}

// Pending reports whether a toggle for (kind, id) is unresolved.
func (r *Reconciler) Pending(kind Kind, id string) bool {
	_, ok := r.lanes[laneKey{kind, id}]
	return ok
}

// Reapply shows every unresolved toggle again. Entities replaced by a
// fresh page pick up the state the viewer last asked for.
func (r *Reconciler) Reapply() {
	for k, l := range r.lanes {
		r.show(k, l)
	}
}

// Toggle flips the displayed state of (kind, id). active and count are
// what the entity shows now.
func (r *Reconciler) Toggle(kind Kind, id string, active bool, count int) tea.Cmd {
	k := laneKey{kind, id}
	l, ok := r.lanes[k]
	if !ok {
		l = &lane{baseActive: active, baseCount: count}
		r.lanes[k] = l
		cmd := r.dispatch(k, l, !active)
		r.show(k, l)
		return cmd
	}

	if l.pending != nil {
		l.pending = nil
	} else {
		target := !l.display()
		l.pending = &target
	}
	logger.Debug("Toggle queued", "kind", kind.String(), "id", id, "display", l.display())
	r.show(k, l)
	return nil
}

// Update resolves a toggle result. A non-nil error means the toggle was
// reverted and should be surfaced briefly.
func (r *Reconciler) Update(msg ToggleResultMsg) (tea.Cmd, error) {
	k := laneKey{msg.Kind, msg.ID}
	l, ok := r.lanes[k]
	if !ok || !l.inFlight || l.flight != msg.Target {
		return nil, nil
	}
	l.inFlight = false

	var failure error
	if msg.Err != nil {
		failure = errors.MutationError(msg.Kind.String(), msg.Err)
		logger.Warn("Toggle rejected, reverting", "kind", msg.Kind.String(), "id", msg.ID, "error", msg.Err)
	} else {
		if msg.Result.Active != msg.Target {
			logger.Debug("Toggle result disagrees with target", "kind", msg.Kind.String(), "id", msg.ID, "server", msg.Result.Active)
		}
		l.baseCount = l.countFor(msg.Target)
		l.baseActive = msg.Target
	}

	var cmd tea.Cmd
	if l.pending != nil {
		target := *l.pending
		l.pending = nil
		if target != l.baseActive {
			cmd = r.dispatch(k, l, target)
		}
	}

	r.show(k, l)
	if !l.inFlight {
		delete(r.lanes, k)
	}
	return cmd, failure
}

func (r *Reconciler) dispatch(k laneKey, l *lane, target bool) tea.Cmd {
	l.inFlight = true
	l.flight = target

	ctx, gen, send := r.ctx, r.gen, r.send
	logger.Debug("Sending toggle", "kind", k.kind.String(), "id", k.id, "target", target)
	return func() tea.Msg {
		res, err := send(ctx, k.kind, k.id)
		return ToggleResultMsg{Gen: gen, Kind: k.kind, ID: k.id, Target: target, Result: res, Err: err}
	}
}

func (r *Reconciler) show(k laneKey, l *lane) {
	active := l.display()
	r.apply(k.kind, k.id, active, l.countFor(active))
}
