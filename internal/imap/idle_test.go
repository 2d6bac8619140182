package imap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIdleRequiresCapability(t *testing.T) {
	client, _ := pipePair()
	defer client.Close()

	eng := NewEngine(client, NoopProtocolLogger{})
	_, err := eng.Idle(context.Background())
	if err == nil {
		t.Fatal("expected an error when the server has not advertised IDLE")
	}
	var imapErr *Error
	if !errors.As(err, &imapErr) || imapErr.Kind != KindNotSupported {
		t.Fatalf("error = %v, want KindNotSupported", err)
	}
}

func TestIdleLifecycleWithUnsolicitedEventAndDone(t *testing.T) {
	client, server := pipePair()
	defer client.Close()
	defer server.Close()

	eng := NewEngine(client, NoopProtocolLogger{})
	eng.mergeCapabilities([]string{"IDLE"})
	eng.mu.Lock()
	eng.state = ConnSelected
	eng.mu.Unlock()

	go func() {
		r := bufio.NewReader(server)
		if _, err := r.ReadString('\n'); err != nil { // "A0001 IDLE\r\n"
			return
		}
		fmt.Fprint(server, "+ idling\r\n")
		fmt.Fprint(server, "* 3 EXISTS\r\n")

		if _, err := r.ReadString('\n'); err != nil { // "DONE\r\n"
			return
		}
		fmt.Fprint(server, "A0001 OK IDLE terminated\r\n")
	}()

	eventSeen := make(chan struct{}, 1)
	eng.Subscribe(func(ev Event) {
		if ev.Kind == EventExists {
			select {
			case eventSeen <- struct{}{}:
			default:
			}
		}
	})

	session, err := eng.Idle(context.Background())
	if err != nil {
		t.Fatalf("Idle: %v", err)
	}

	select {
	case <-eventSeen:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the unsolicited EXISTS event")
	}

	if err := session.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestIdleCancelAbortsWithoutDone(t *testing.T) {
	client, server := pipePair()
	defer client.Close()
	defer server.Close()

	eng := NewEngine(client, NoopProtocolLogger{})
	eng.mergeCapabilities([]string{"IDLE"})
	eng.mu.Lock()
	eng.state = ConnSelected
	eng.mu.Unlock()

	go func() {
		r := bufio.NewReader(server)
		if _, err := r.ReadString('\n'); err != nil {
			return
		}
		fmt.Fprint(server, "+ idling\r\n")
		// No further response: Cancel must abort the command without a DONE
		// round trip or a tagged completion from the server.
	}()

	session, err := eng.Idle(context.Background())
	if err != nil {
		t.Fatalf("Idle: %v", err)
	}

	session.Cancel()

	select {
	case err := <-session.result:
		if err == nil {
			t.Fatal("expected a cancellation error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the cancelled IDLE to complete")
	}
}
