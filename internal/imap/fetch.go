package imap

import "strings"

// FetchResult is one parsed "* n FETCH (...)" untagged response (component
// F). BodySections is keyed by the literal section-spec text inside the
// brackets ("", "HEADER", "1.2.TEXT", ...), including any "<partial>" suffix.
type FetchResult struct {
	SeqNum        uint32
	UID           uint32
	Flags         []string
	InternalDate  string
	Size          uint32
	Envelope      *Envelope
	BodyStructure *BodyStructure
	BodySections  map[string][]byte
	ModSeq        uint64

	// GmailLabels holds X-GM-LABELS values (Gmail's IMAP extension), e.g.
	// "\Inbox", "\Important", or a user-defined label name.
	GmailLabels []string
}

// CollectFetchResults returns a NumberedHandler that appends every parsed
// FETCH response to results.
func CollectFetchResults(results *[]*FetchResult) NumberedHandler {
	return func(eng *Engine, cmd *Command, n uint32, tz *Tokenizer) error {
		fr, err := parseFetch(tz, n)
		if err != nil {
			return err
		}
		*results = append(*results, fr)
		return nil
	}
}

// parseFetch parses the data-item list of a FETCH response for message
// sequence number seqNum, already positioned right after the "FETCH" atom.
func parseFetch(tz *Tokenizer, seqNum uint32) (*FetchResult, error) {
	if _, err := expectToken(tz, TokOpenParen); err != nil {
		return nil, err
	}

	fr := &FetchResult{SeqNum: seqNum}
	for {
		peek, err := tz.PeekToken(SpecialsDefault)
		if err != nil {
			return nil, err
		}
		if peek.Kind == TokCloseParen {
			_, _ = tz.ReadToken(SpecialsDefault)
			break
		}
		if err := parseFetchItem(tz, fr); err != nil {
			return nil, err
		}
	}
	if err := discardRestOfLine(tz); err != nil {
		return nil, err
	}
	return fr, nil
}

func parseFetchItem(tz *Tokenizer, fr *FetchResult) error {
	nameTok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return err
	}
	name := strings.ToUpper(nameTok.Text)

	switch {
	case name == "FLAGS":
		flags, err := parseFlagList(tz)
		if err != nil {
			return err
		}
		fr.Flags = flags
	case name == "UID":
		n, err := readUint32(tz)
		if err != nil {
			return err
		}
		fr.UID = n
	case name == "RFC822.SIZE":
		n, err := readUint32(tz)
		if err != nil {
			return err
		}
		fr.Size = n
	case name == "INTERNALDATE":
		s, err := readNString(tz)
		if err != nil {
			return err
		}
		fr.InternalDate = s
	case name == "ENVELOPE":
		env, err := parseEnvelope(tz)
		if err != nil {
			return err
		}
		fr.Envelope = env
	case name == "BODYSTRUCTURE" || (name == "BODY" && !peekIsBracketOrNothing(tz)):
		bs, err := parseBodyStructure(tz)
		if err != nil {
			return err
		}
		fr.BodyStructure = bs
	case name == "BODY":
		section, err := parseSectionSpec(tz)
		if err != nil {
			return err
		}
		data, err := readNString(tz)
		if err != nil {
			return err
		}
		if fr.BodySections == nil {
			fr.BodySections = make(map[string][]byte)
		}
		fr.BodySections[section] = []byte(data)
	case name == "MODSEQ":
		if _, err := expectToken(tz, TokOpenParen); err != nil {
			return err
		}
		n, err := readUint64(tz)
		if err != nil {
			return err
		}
		if _, err := expectToken(tz, TokCloseParen); err != nil {
			return err
		}
		fr.ModSeq = n
	case name == "X-GM-LABELS":
		labels, err := parseGmailLabels(tz)
		if err != nil {
			return err
		}
		fr.GmailLabels = labels
	default:
		// Unrecognized item (vendor extension, X-GM-MSGID, ...): skip its
		// single value without interpreting it.
		if err := skipFetchValue(tz); err != nil {
			return err
		}
	}
	return nil
}

// parseGmailLabels parses an X-GM-LABELS value: NIL, or a parenthesised list
// whose entries are either \-prefixed system labels (tokenized as flags) or
// quoted/atom user label names.
func parseGmailLabels(tz *Tokenizer) ([]string, error) {
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return nil, err
	}
	if tok.Kind == TokNil {
		return nil, nil
	}
	if tok.Kind != TokOpenParen {
		return nil, protocolErr("parse X-GM-LABELS", tok.String(), nil)
	}
	labels := []string{}
	for {
		peek, err := tz.PeekToken(SpecialsDefault)
		if err != nil {
			return nil, err
		}
		if peek.Kind == TokCloseParen {
			_, _ = tz.ReadToken(SpecialsDefault)
			return labels, nil
		}
		item, err := tz.ReadToken(SpecialsDefault)
		if err != nil {
			return nil, err
		}
		labels = append(labels, item.String())
	}
}

// peekIsBracketOrNothing reports whether the next token is "[" (a BODY
// section request) as opposed to "(" (a full BODYSTRUCTURE-shaped BODY
// with no section, sent when the client asked for BODY instead of
// BODYSTRUCTURE).
func peekIsBracketOrNothing(tz *Tokenizer) bool {
	tok, err := tz.PeekToken(SpecialsDefault)
	if err != nil {
		return false
	}
	return tok.Kind == TokOpenBracket
}

// parseSectionSpec reads "[section]<partial>" and returns it as one string
// key, e.g. "HEADER.FIELDS (TO FROM)" or "1.2.TEXT" or "" for BODY[].
func parseSectionSpec(tz *Tokenizer) (string, error) {
	if _, err := expectToken(tz, TokOpenBracket); err != nil {
		return "", err
	}
	var words []string
	for {
		tok, err := tz.ReadToken(SpecialsAtom)
		if err != nil {
			return "", err
		}
		if tok.Kind == TokCloseBracket {
			break
		}
		if tok.Kind == TokOpenParen {
			inner, err := readParenAtomsAsString(tz)
			if err != nil {
				return "", err
			}
			words = append(words, "("+inner+")")
			continue
		}
		words = append(words, tok.String())
	}
	section := strings.Join(words, " ")

	peek, err := tz.PeekToken(SpecialsDefault)
	if err != nil {
		return "", err
	}
	if peek.Kind == TokAtom && strings.HasPrefix(peek.Text, "<") {
		tok, _ := tz.ReadToken(SpecialsDefault)
		section += tok.Text
	}
	return section, nil
}

func readParenAtomsAsString(tz *Tokenizer) (string, error) {
	var words []string
	for {
		tok, err := tz.ReadToken(SpecialsDefault)
		if err != nil {
			return "", err
		}
		if tok.Kind == TokCloseParen {
			return strings.Join(words, " "), nil
		}
		words = append(words, tok.String())
	}
}

// skipFetchValue consumes one unrecognized data item's value: an atom,
// NIL, a quoted string or literal, or a parenthesised list (recursively).
func skipFetchValue(tz *Tokenizer) error {
	tok, err := tz.ReadToken(SpecialsAtom)
	if err != nil {
		return err
	}
	switch tok.Kind {
	case TokLiteral:
		_, err := tz.ReadLiteralBody(tok)
		return err
	case TokOpenParen:
		for {
			peek, err := tz.PeekToken(SpecialsAtom)
			if err != nil {
				return err
			}
			if peek.Kind == TokCloseParen {
				_, _ = tz.ReadToken(SpecialsAtom)
				return nil
			}
			if err := skipFetchValue(tz); err != nil {
				return err
			}
		}
	default:
		return nil
	}
}
