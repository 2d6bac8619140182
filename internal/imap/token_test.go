package imap

import "testing"

func TestTokenizerReadsAtomsAndSpecials(t *testing.T) {
	tz := newTestTokenizer("* 12 FETCH (FLAGS (\\Seen \\*) UID 99)\r\n")

	want := []struct {
		kind TokenKind
		text string
	}{
		{TokAsterisk, ""},
		{TokAtom, "12"},
		{TokAtom, "FETCH"},
		{TokOpenParen, ""},
		{TokAtom, "FLAGS"},
		{TokOpenParen, ""},
		{TokFlag, "\\Seen"},
		{TokFlag, "\\*"},
		{TokCloseParen, ""},
		{TokAtom, "UID"},
		{TokAtom, "99"},
		{TokCloseParen, ""},
		{TokEoln, ""},
	}
	for i, w := range want {
		tok, err := tz.ReadToken(SpecialsDefault)
		if err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
		if tok.Kind != w.kind {
			t.Fatalf("token %d: kind = %v, want %v", i, tok.Kind, w.kind)
		}
		if w.text != "" && tok.Text != w.text {
			t.Fatalf("token %d: text = %q, want %q", i, tok.Text, w.text)
		}
	}
}

func TestTokenizerQuotedStringEscapes(t *testing.T) {
	tz := newTestTokenizer("\"say \\\"hi\\\" \\\\ ok\"\r\n")
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	if tok.Kind != TokQString {
		t.Fatalf("kind = %v, want qstring", tok.Kind)
	}
	want := `say "hi" \ ok`
	if tok.Text != want {
		t.Errorf("got %q, want %q", tok.Text, want)
	}
}

func TestTokenizerQuotedStringRejectsEmbeddedCRLF(t *testing.T) {
	tz := newTestTokenizer("\"broken\r\nstring\"\r\n")
	if _, err := tz.ReadToken(SpecialsDefault); err == nil {
		t.Fatal("expected an error for CRLF inside a quoted string")
	}
}

func TestTokenizerLiteralHeader(t *testing.T) {
	tz := newTestTokenizer("{5}\r\nhello\r\n")
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	if tok.Kind != TokLiteral || tok.Len != 5 || tok.NonSync {
		t.Fatalf("got %+v", tok)
	}
	body, err := tz.ReadLiteralBody(tok)
	if err != nil {
		t.Fatalf("ReadLiteralBody: %v", err)
	}
	if string(body) != "hello" {
		t.Errorf("body = %q, want %q", body, "hello")
	}
	// The trailing CRLF after the literal body is ordinary line content.
	tail, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		t.Fatalf("ReadToken (tail): %v", err)
	}
	if tail.Kind != TokEoln {
		t.Fatalf("tail kind = %v, want EOLN", tail.Kind)
	}
}

func TestTokenizerNonSyncLiteral(t *testing.T) {
	tz := newTestTokenizer("{3+}\r\nabc\r\n")
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	if !tok.NonSync || tok.Len != 3 {
		t.Fatalf("got %+v, want NonSync literal of length 3", tok)
	}
}

func TestTokenizerNilAtom(t *testing.T) {
	for _, text := range []string{"NIL", "nil", "Nil"} {
		tz := newTestTokenizer(text + "\r\n")
		tok, err := tz.ReadToken(SpecialsDefault)
		if err != nil {
			t.Fatalf("ReadToken(%q): %v", text, err)
		}
		if tok.Kind != TokNil {
			t.Errorf("ReadToken(%q) kind = %v, want NIL", text, tok.Kind)
		}
	}
}

func TestTokenizerUngetTokenReplaysOnce(t *testing.T) {
	tz := newTestTokenizer("FOO BAR\r\n")
	first, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	tz.UngetToken(first)
	replayed, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		t.Fatalf("ReadToken (replay): %v", err)
	}
	if replayed.Text != first.Text {
		t.Fatalf("replayed = %q, want %q", replayed.Text, first.Text)
	}
	second, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	if second.Text != "BAR" {
		t.Fatalf("second = %q, want BAR", second.Text)
	}
}

func TestTokenizerUngetTwiceInARowPanics(t *testing.T) {
	tz := newTestTokenizer("FOO\r\n")
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	tz.UngetToken(tok)

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic from a second Unget before a Read")
		}
	}()
	tz.UngetToken(tok)
}

func TestTokenizerPeekTokenDoesNotConsume(t *testing.T) {
	tz := newTestTokenizer("A B\r\n")
	peeked, err := tz.PeekToken(SpecialsDefault)
	if err != nil {
		t.Fatalf("PeekToken: %v", err)
	}
	if peeked.Text != "A" {
		t.Fatalf("peeked = %q, want A", peeked.Text)
	}
	read, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	if read.Text != "A" {
		t.Fatalf("read = %q, want A (peek must not consume)", read.Text)
	}
}

func TestIsAtomTerminatorBracketModeDifference(t *testing.T) {
	if !isAtomTerminator(']', SpecialsDefault) {
		t.Error("']' should terminate an atom under SpecialsDefault")
	}
	if isAtomTerminator(']', SpecialsAtom) {
		t.Error("']' should NOT terminate an atom under SpecialsAtom (mailbox/sequence-set reads)")
	}
	if !isAtomTerminator('(', SpecialsAtom) {
		t.Error("'(' should still terminate an atom under SpecialsAtom")
	}
}

func TestTokenizerAtomTerminatesOnBracketUnderDefaultSpecials(t *testing.T) {
	tz := newTestTokenizer("UID]\r\n")
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	if tok.Kind != TokAtom || tok.Text != "UID" {
		t.Fatalf("got %+v, want atom UID", tok)
	}
	closeTok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	if closeTok.Kind != TokCloseBracket {
		t.Fatalf("got %v, want ]", closeTok.Kind)
	}
}

func TestTokenizerAtomAcceptsBracketUnderAtomSpecials(t *testing.T) {
	tz := newTestTokenizer("INBOX]Drafts \r\n")
	tok, err := tz.ReadToken(SpecialsAtom)
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	if tok.Kind != TokAtom || tok.Text != "INBOX]Drafts" {
		t.Fatalf("got %+v, want atom INBOX]Drafts", tok)
	}
}
