package imap

import "context"

// cancelHandle lets a Command be cancelled from another goroutine while it
// is queued or active — used by IDLE (component K) to turn "stop idling"
// into the same cancellation path the context passed to step already drives.
type cancelHandle struct {
	cancel context.CancelFunc
}

// Cancel requests that cmd's command stop waiting for further response
// data. The engine observes ctx.Err() on its next loop iteration and
// completes the command with a cancellation error.
func (c *Command) Cancel() {
	if c.cancel != nil {
		c.cancel.cancel()
	}
}

func newCancellableContext(parent context.Context) (context.Context, *cancelHandle) {
	ctx, cancel := context.WithCancel(parent)
	return ctx, &cancelHandle{cancel: cancel}
}
