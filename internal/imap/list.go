package imap

import "strings"

// ListEntry is one parsed LIST/LSUB response line (component F).
type ListEntry struct {
	Attributes []string
	Delimiter  byte // 0 if the server reported NIL (flat namespace)
	Name       string
	Subscribed bool // set by the engine's LSUB handling; parseList leaves it false

	// OldName is set when the line carried an OLDNAME extended-data item
	// (RFC 5465 rename notification): the mailbox's name immediately before
	// this RENAME, so the caller can re-key its own cache.
	OldName string
}

// ParseListForCaller exposes parseList to callers outside this package that
// register their own UntaggedHandler for "LIST"/"LSUB" (the engine's
// default handler uses parseList directly).
func ParseListForCaller(tz *Tokenizer) (ListEntry, error) {
	return parseList(tz)
}

// parseList parses the remainder of a "* LIST (...) delim name" line,
// starting right after the "LIST"/"LSUB" atom has been consumed.
func parseList(tz *Tokenizer) (ListEntry, error) {
	attrs, err := parseFlagList(tz)
	if err != nil {
		return ListEntry{}, err
	}

	delimTok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return ListEntry{}, err
	}
	var delim byte
	switch delimTok.Kind {
	case TokNil:
		delim = 0
	case TokQString, TokAtom:
		if len(delimTok.Text) > 0 {
			delim = delimTok.Text[0]
		}
	default:
		return ListEntry{}, protocolErr("parse list", delimTok.String(), nil)
	}

	nameTok, err := tz.ReadToken(SpecialsAtom)
	if err != nil {
		return ListEntry{}, err
	}
	name, err := decodeMailboxToken(nameTok, tz)
	if err != nil {
		return ListEntry{}, err
	}

	oldName, err := parseListExtensions(tz)
	if err != nil {
		return ListEntry{}, err
	}

	return ListEntry{Attributes: attrs, Delimiter: delim, Name: name, OldName: oldName}, nil
}

// parseListExtensions parses the optional extended-data tail of a LIST/LSUB
// line: one parenthesised list of label/value pairs, e.g. ("OLDNAME"
// ("Old Name")) or ("CHILDINFO" ("SUBSCRIBED")). Only OLDNAME's value is
// surfaced to the caller; any other tagged extension is recognised and
// discarded, matching the "open to interpretation" treatment extension data
// this parser doesn't specifically model gets elsewhere in this package.
func parseListExtensions(tz *Tokenizer) (string, error) {
	peek, err := tz.PeekToken(SpecialsDefault)
	if err != nil {
		return "", err
	}
	if peek.Kind != TokOpenParen {
		return "", discardRestOfLine(tz)
	}
	_, _ = tz.ReadToken(SpecialsDefault)

	var oldName string
	for {
		peek, err := tz.PeekToken(SpecialsDefault)
		if err != nil {
			return "", err
		}
		if peek.Kind == TokCloseParen {
			_, _ = tz.ReadToken(SpecialsDefault)
			break
		}
		labelTok, err := tz.ReadToken(SpecialsDefault)
		if err != nil {
			return "", err
		}
		if strings.EqualFold(labelTok.Text, "OLDNAME") {
			if _, err := expectToken(tz, TokOpenParen); err != nil {
				return "", err
			}
			valTok, err := tz.ReadToken(SpecialsAtom)
			if err != nil {
				return "", err
			}
			oldName, err = decodeMailboxToken(valTok, tz)
			if err != nil {
				return "", err
			}
			if _, err := expectToken(tz, TokCloseParen); err != nil {
				return "", err
			}
			continue
		}
		if err := skipFetchValue(tz); err != nil {
			return "", err
		}
	}
	return oldName, discardRestOfLine(tz)
}

// decodeMailboxToken reads a literal body if needed and decodes a mailbox
// name from modified UTF-7 (the wire default) — the caller is responsible
// for knowing whether UTF8=ACCEPT was negotiated, in which case the server
// already sends raw UTF-8 and decoding is a no-op pass-through.
func decodeMailboxToken(tok Token, tz *Tokenizer) (string, error) {
	var raw string
	switch tok.Kind {
	case TokLiteral:
		body, err := tz.ReadLiteralBody(tok)
		if err != nil {
			return "", err
		}
		raw = string(body)
	default:
		raw = tok.String()
	}
	if validateUTF8([]byte(raw)) {
		// Already valid UTF-8: either UTF8=ACCEPT is active, or the name
		// happens to contain only ASCII, which is valid modified UTF-7 too.
		decoded, err := decodeModifiedUTF7(raw)
		if err == nil {
			return decoded, nil
		}
		return raw, nil
	}
	return decodeModifiedUTF7(raw)
}

func discardRestOfLine(tz *Tokenizer) error {
	for {
		tok, err := tz.ReadToken(SpecialsDefault)
		if err != nil {
			return err
		}
		if tok.Kind == TokEoln {
			return nil
		}
		if tok.Kind == TokLiteral {
			if _, err := tz.ReadLiteralBody(tok); err != nil {
				return err
			}
		}
	}
}
