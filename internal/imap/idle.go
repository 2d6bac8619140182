package imap

import "context"

// IdleSession represents one in-flight IDLE command (component K): the
// command is sent and run in the background, and its tagged completion only
// arrives once the caller calls Stop (which sends the "DONE" line RFC 2177
// requires).
type IdleSession struct {
	eng    *Engine
	cmd    *Command
	result chan error
}

// Idle issues IDLE and starts the engine's run loop for it in the
// background: untagged EXISTS/EXPUNGE/FETCH notices the server pushes
// while idling flow through Engine.Subscribe like any other event.
func (eng *Engine) Idle(ctx context.Context) (*IdleSession, error) {
	if !eng.HasCapability("IDLE") {
		return nil, notSupportedErr("IDLE")
	}
	if state := eng.State(); state != ConnSelected {
		return nil, invalidStateErr("idle", state)
	}
	cmd, err := eng.NewCommand("IDLE", "IDLE")
	if err != nil {
		return nil, err
	}
	idleCtx, cancel := newCancellableContext(ctx)
	cmd.cancel = cancel
	eng.Enqueue(cmd)

	result := make(chan error, 1)
	go func() { result <- eng.step(idleCtx) }()

	return &IdleSession{eng: eng, cmd: cmd, result: result}, nil
}

// Stop sends "DONE" to end the IDLE command and waits for its tagged
// completion.
func (s *IdleSession) Stop() error {
	if _, err := s.eng.stream.Write([]byte("DONE\r\n")); err != nil {
		return ioErr("idle done", err)
	}
	if err := s.eng.stream.Flush(); err != nil {
		return ioErr("idle done", err)
	}
	return <-s.result
}

// Cancel aborts the IDLE command without sending DONE, e.g. because the
// connection is being torn down anyway.
func (s *IdleSession) Cancel() {
	s.cmd.Cancel()
}
