package imap

import "testing"

func TestParseBodyStructureLeaf(t *testing.T) {
	wire := `("TEXT" "PLAIN" ("CHARSET" "US-ASCII") NIL NIL "7BIT" 1152 23)`
	tz := newTestTokenizer(wire)
	bs, err := parseBodyStructure(tz)
	if err != nil {
		t.Fatalf("parseBodyStructure: %v", err)
	}
	if bs.MediaType != "text" || bs.MediaSubtype != "plain" {
		t.Errorf("type = %s/%s", bs.MediaType, bs.MediaSubtype)
	}
	if bs.Params["charset"] != "US-ASCII" {
		t.Errorf("params = %v", bs.Params)
	}
	if bs.Size != 1152 || bs.Lines != 23 {
		t.Errorf("size=%d lines=%d", bs.Size, bs.Lines)
	}
}

func TestParseBodyStructureMultipart(t *testing.T) {
	wire := `(("TEXT" "PLAIN" ("CHARSET" "US-ASCII") NIL NIL "7BIT" 1152 23)` +
		`("TEXT" "HTML" ("CHARSET" "US-ASCII") NIL NIL "7BIT" 2000 40)` +
		` "ALTERNATIVE")`
	tz := newTestTokenizer(wire)
	bs, err := parseBodyStructure(tz)
	if err != nil {
		t.Fatalf("parseBodyStructure: %v", err)
	}
	if bs.MediaType != "multipart" || bs.MediaSubtype != "alternative" {
		t.Errorf("type = %s/%s", bs.MediaType, bs.MediaSubtype)
	}
	if len(bs.Parts) != 2 {
		t.Fatalf("parts = %d, want 2", len(bs.Parts))
	}
	if bs.Parts[0].MediaSubtype != "plain" || bs.Parts[1].MediaSubtype != "html" {
		t.Errorf("parts = %+v", bs.Parts)
	}
}

func TestParseBodyStructureMessageRFC822(t *testing.T) {
	wire := `("MESSAGE" "RFC822" NIL NIL NIL "7BIT" 400 ` +
		`("date" "subj" NIL NIL NIL NIL NIL NIL NIL NIL) ` +
		`("TEXT" "PLAIN" NIL NIL NIL "7BIT" 100 5) 10)`
	tz := newTestTokenizer(wire)
	bs, err := parseBodyStructure(tz)
	if err != nil {
		t.Fatalf("parseBodyStructure: %v", err)
	}
	if bs.MediaType != "message" || bs.MediaSubtype != "rfc822" {
		t.Errorf("type = %s/%s", bs.MediaType, bs.MediaSubtype)
	}
	if bs.Envelope == nil || bs.Envelope.Subject != "subj" {
		t.Errorf("envelope = %+v", bs.Envelope)
	}
	if bs.Body == nil || bs.Body.MediaSubtype != "plain" {
		t.Errorf("body = %+v", bs.Body)
	}
	if bs.Lines != 10 {
		t.Errorf("lines = %d", bs.Lines)
	}
}

func TestParseBodyStructureWithDisposition(t *testing.T) {
	wire := `("APPLICATION" "PDF" ("NAME" "report.pdf") NIL NIL "BASE64" 5000 ` +
		`NIL ("ATTACHMENT" ("FILENAME" "report.pdf")) NIL NIL)`
	tz := newTestTokenizer(wire)
	bs, err := parseBodyStructure(tz)
	if err != nil {
		t.Fatalf("parseBodyStructure: %v", err)
	}
	if bs.Disposition != "ATTACHMENT" {
		t.Errorf("disposition = %q", bs.Disposition)
	}
	if bs.DispositionParams["filename"] != "report.pdf" {
		t.Errorf("disposition params = %v", bs.DispositionParams)
	}
}
