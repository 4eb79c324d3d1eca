package game

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// unitGroup tracks the goroutines of one run. Cancelling it stops every
// unit at the top of its next cycle.
type unitGroup struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

func newUnitGroup(parent context.Context) *unitGroup {
	ctx, cancel := context.WithCancel(parent)
	group, ctx := errgroup.WithContext(ctx)
	return &unitGroup{ctx: ctx, cancel: cancel, group: group}
}

// start runs fn in a new goroutine with the group's context.
func (u *unitGroup) start(fn func(ctx context.Context)) {
	u.group.Go(func() error {
		fn(u.ctx)
		return nil
	})
}

// stop cancels every unit and waits for all of them to exit.
func (u *unitGroup) stop() {
	u.cancel()
	_ = u.group.Wait()
}
