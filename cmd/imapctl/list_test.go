package main

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"imap-engine/internal/imap"
)

func TestListMailboxes(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	eng := imap.NewEngine(client, imap.NoopProtocolLogger{})

	go func() {
		r := bufio.NewReader(server)
		if _, err := r.ReadString('\n'); err != nil {
			return
		}
		server.Write([]byte(
			"* LIST (\\HasNoChildren) \"/\" \"INBOX\"\r\n" +
				"* LIST (\\HasChildren) \"/\" \"Archive\"\r\n" +
				"A0001 OK LIST completed\r\n"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	entries, err := listMailboxes(ctx, eng)
	if err != nil {
		t.Fatalf("listMailboxes: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name != "INBOX" || entries[1].Name != "Archive" {
		t.Errorf("entries = %+v", entries)
	}
}
