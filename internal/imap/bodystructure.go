package imap

import "strings"

// BodyStructure is one parsed BODYSTRUCTURE/BODY fetch data item (component
// F). A multipart node has Parts set and MediaType=="multipart"; a leaf node
// has MediaType/MediaSubtype set to the actual content type.
type BodyStructure struct {
	MediaType    string
	MediaSubtype string

	Params      map[string]string
	ID          string
	Description string
	Encoding    string
	Size        uint32

	// Parts holds child body structures for multipart/*; empty for leaves.
	Parts []*BodyStructure

	// Leaf-only fields (absent/zero on multipart nodes).
	Lines    uint32 // text/* line count
	Envelope *Envelope
	Body     *BodyStructure // message/rfc822 nested body
	MD5      string

	Disposition       string
	DispositionParams map[string]string
	Language          []string
	Location          string

	// Extension data the server sent but this parser didn't specifically
	// model is intentionally dropped, matching the "open to interpretation"
	// Non-goal around body extension data.
}

// parseBodyStructure parses one BODY/BODYSTRUCTURE value, which is already
// positioned at the opening "(".
func parseBodyStructure(tz *Tokenizer) (*BodyStructure, error) {
	if _, err := expectToken(tz, TokOpenParen); err != nil {
		return nil, err
	}

	peek, err := tz.PeekToken(SpecialsDefault)
	if err != nil {
		return nil, err
	}
	if peek.Kind == TokOpenParen {
		return parseMultipartBody(tz)
	}
	return parseLeafBody(tz)
}

func parseMultipartBody(tz *Tokenizer) (*BodyStructure, error) {
	bs := &BodyStructure{MediaType: "multipart"}
	for {
		peek, err := tz.PeekToken(SpecialsDefault)
		if err != nil {
			return nil, err
		}
		if peek.Kind != TokOpenParen {
			break
		}
		child, err := parseBodyStructure(tz)
		if err != nil {
			return nil, err
		}
		bs.Parts = append(bs.Parts, child)
	}

	subtype, err := readNString(tz)
	if err != nil {
		return nil, err
	}
	bs.MediaSubtype = strings.ToLower(subtype)

	// Extension data: parameters, disposition, language, location - all
	// optional tails; only the first field differs from the leaf shape.
	if err := parseBodyExtension(tz, bs, true); err != nil {
		return nil, err
	}
	if _, err := expectToken(tz, TokCloseParen); err != nil {
		return nil, err
	}
	return bs, nil
}

func parseLeafBody(tz *Tokenizer) (*BodyStructure, error) {
	bs := &BodyStructure{}
	var err error
	if bs.MediaType, err = readNString(tz); err != nil {
		return nil, err
	}
	bs.MediaType = strings.ToLower(bs.MediaType)
	if bs.MediaSubtype, err = readNString(tz); err != nil {
		return nil, err
	}
	bs.MediaSubtype = strings.ToLower(bs.MediaSubtype)
	if bs.Params, err = parseParamList(tz); err != nil {
		return nil, err
	}
	if bs.ID, err = readNString(tz); err != nil {
		return nil, err
	}
	if bs.Description, err = readNString(tz); err != nil {
		return nil, err
	}
	if bs.Encoding, err = readNString(tz); err != nil {
		return nil, err
	}
	sizeTok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return nil, err
	}
	n, ok := parseUintDigits([]byte(sizeTok.Text))
	if !ok {
		return nil, protocolErr("parse body structure", sizeTok.Text, nil)
	}
	bs.Size = uint32(n)

	if bs.MediaType == "message" && bs.MediaSubtype == "rfc822" {
		env, err := parseEnvelope(tz)
		if err != nil {
			return nil, err
		}
		bs.Envelope = env
		body, err := parseBodyStructure(tz)
		if err != nil {
			return nil, err
		}
		bs.Body = body
		linesTok, err := tz.ReadToken(SpecialsDefault)
		if err != nil {
			return nil, err
		}
		lines, _ := parseUintDigits([]byte(linesTok.Text))
		bs.Lines = uint32(lines)
	} else if bs.MediaType == "text" {
		linesTok, err := tz.ReadToken(SpecialsDefault)
		if err != nil {
			return nil, err
		}
		lines, _ := parseUintDigits([]byte(linesTok.Text))
		bs.Lines = uint32(lines)
	}

	if err := parseBodyExtension(tz, bs, false); err != nil {
		return nil, err
	}
	if _, err := expectToken(tz, TokCloseParen); err != nil {
		return nil, err
	}
	return bs, nil
}

// parseBodyExtension parses the optional tail shared by leaf and multipart
// bodies: MD5 (leaf) or body parameters (multipart), then disposition,
// language, location. Every field is optional — the server may stop sending
// them at any point, so each step peeks for a closing paren before
// consuming a value.
func parseBodyExtension(tz *Tokenizer, bs *BodyStructure, multipart bool) error {
	if atClose(tz) {
		return nil
	}
	if multipart {
		params, err := parseParamList(tz)
		if err != nil {
			return err
		}
		bs.Params = params
	} else {
		md5, err := readNString(tz)
		if err != nil {
			return err
		}
		bs.MD5 = md5
	}

	if atClose(tz) {
		return nil
	}
	disp, params, err := parseDisposition(tz)
	if err != nil {
		return err
	}
	bs.Disposition = disp
	bs.DispositionParams = params

	if atClose(tz) {
		return nil
	}
	langs, err := parseLanguage(tz)
	if err != nil {
		return err
	}
	bs.Language = langs

	if atClose(tz) {
		return nil
	}
	loc, err := readNString(tz)
	if err != nil {
		return err
	}
	bs.Location = loc
	return nil
}

func atClose(tz *Tokenizer) bool {
	tok, err := tz.PeekToken(SpecialsDefault)
	if err != nil {
		return true
	}
	return tok.Kind == TokCloseParen
}

func parseParamList(tz *Tokenizer) (map[string]string, error) {
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return nil, err
	}
	if tok.Kind == TokNil {
		return nil, nil
	}
	if tok.Kind != TokOpenParen {
		return nil, protocolErr("parse param list", tok.String(), nil)
	}
	params := make(map[string]string)
	for {
		peek, err := tz.PeekToken(SpecialsDefault)
		if err != nil {
			return nil, err
		}
		if peek.Kind == TokCloseParen {
			_, _ = tz.ReadToken(SpecialsDefault)
			return params, nil
		}
		key, err := readNString(tz)
		if err != nil {
			return nil, err
		}
		val, err := readNString(tz)
		if err != nil {
			return nil, err
		}
		params[strings.ToLower(key)] = val
	}
}

func parseDisposition(tz *Tokenizer) (string, map[string]string, error) {
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return "", nil, err
	}
	if tok.Kind == TokNil {
		return "", nil, nil
	}
	if tok.Kind != TokOpenParen {
		return "", nil, protocolErr("parse disposition", tok.String(), nil)
	}
	typ, err := readNString(tz)
	if err != nil {
		return "", nil, err
	}
	params, err := parseParamList(tz)
	if err != nil {
		return "", nil, err
	}
	if _, err := expectToken(tz, TokCloseParen); err != nil {
		return "", nil, err
	}
	return typ, params, nil
}

func parseLanguage(tz *Tokenizer) ([]string, error) {
	tok, err := tz.PeekToken(SpecialsDefault)
	if err != nil {
		return nil, err
	}
	if tok.Kind == TokNil {
		_, _ = tz.ReadToken(SpecialsDefault)
		return nil, nil
	}
	if tok.Kind != TokOpenParen {
		s, err := readNString(tz)
		if err != nil {
			return nil, err
		}
		if s == "" {
			return nil, nil
		}
		return []string{s}, nil
	}
	_, _ = tz.ReadToken(SpecialsDefault)
	var langs []string
	for {
		peek, err := tz.PeekToken(SpecialsDefault)
		if err != nil {
			return nil, err
		}
		if peek.Kind == TokCloseParen {
			_, _ = tz.ReadToken(SpecialsDefault)
			return langs, nil
		}
		s, err := readNString(tz)
		if err != nil {
			return nil, err
		}
		langs = append(langs, s)
	}
}
