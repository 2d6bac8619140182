package imap

import "testing"

func TestParseFetchBasic(t *testing.T) {
	wire := "(FLAGS (\\Seen \\Answered) UID 55 RFC822.SIZE 1024)\r\n"
	tz := newTestTokenizer(wire)
	fr, err := parseFetch(tz, 7)
	if err != nil {
		t.Fatalf("parseFetch: %v", err)
	}
	if fr.SeqNum != 7 || fr.UID != 55 || fr.Size != 1024 {
		t.Fatalf("got %+v", fr)
	}
	if len(fr.Flags) != 2 || fr.Flags[0] != "\\Seen" {
		t.Fatalf("flags = %v", fr.Flags)
	}
}

func TestParseFetchBodySection(t *testing.T) {
	wire := "(UID 9 BODY[HEADER.FIELDS (SUBJECT)] {10}\r\nSubject: x)\r\n"
	tz := newTestTokenizer(wire)
	fr, err := parseFetch(tz, 3)
	if err != nil {
		t.Fatalf("parseFetch: %v", err)
	}
	want := "Subject: x"
	if got := string(fr.BodySections["HEADER.FIELDS (SUBJECT)"]); got != want {
		t.Fatalf("body section = %q, want %q", got, want)
	}
}

func TestParseFetchUnknownItemSkipped(t *testing.T) {
	wire := "(UID 1 X-GM-MSGID 12345 FLAGS (\\Seen))\r\n"
	tz := newTestTokenizer(wire)
	fr, err := parseFetch(tz, 1)
	if err != nil {
		t.Fatalf("parseFetch: %v", err)
	}
	if fr.UID != 1 || len(fr.Flags) != 1 {
		t.Fatalf("got %+v", fr)
	}
}

func TestParseFetchGmailLabels(t *testing.T) {
	wire := "(UID 1 X-GM-LABELS (\\Important \"Label\") FLAGS (\\Seen))\r\n"
	tz := newTestTokenizer(wire)
	fr, err := parseFetch(tz, 1)
	if err != nil {
		t.Fatalf("parseFetch: %v", err)
	}
	if len(fr.GmailLabels) != 2 || fr.GmailLabels[0] != "\\Important" || fr.GmailLabels[1] != "Label" {
		t.Fatalf("gmail labels = %v", fr.GmailLabels)
	}
}

func TestParseFetchGmailLabelsNil(t *testing.T) {
	wire := "(UID 2 X-GM-LABELS NIL)\r\n"
	tz := newTestTokenizer(wire)
	fr, err := parseFetch(tz, 1)
	if err != nil {
		t.Fatalf("parseFetch: %v", err)
	}
	if fr.GmailLabels != nil {
		t.Fatalf("gmail labels = %v, want nil", fr.GmailLabels)
	}
}

func TestParseFetchModSeq(t *testing.T) {
	wire := "(UID 2 MODSEQ (12345))\r\n"
	tz := newTestTokenizer(wire)
	fr, err := parseFetch(tz, 1)
	if err != nil {
		t.Fatalf("parseFetch: %v", err)
	}
	if fr.ModSeq != 12345 {
		t.Fatalf("modseq = %d", fr.ModSeq)
	}
}
