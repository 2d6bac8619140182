package imap

// Address is one RFC 3501 ENVELOPE address-struct: ("name" "adl" "mailbox" "host").
// A group start (non-NIL mailbox holding the group name, NIL host) has
// IsGroupMarker true; a group end (all fields NIL) has empty fields and
// IsGroupMarker false.
type Address struct {
	Name          string
	SourceRoute   string
	Mailbox       string
	Host          string
	IsGroupMarker bool
}

// Envelope is the parsed ENVELOPE fetch data item (component F).
type Envelope struct {
	Date      string
	Subject   string
	From      []Address
	Sender    []Address
	ReplyTo   []Address
	To        []Address
	Cc        []Address
	Bcc       []Address
	InReplyTo string
	MessageID string
}

// parseEnvelope parses one ENVELOPE structure: a parenthesised 10-tuple.
func parseEnvelope(tz *Tokenizer) (*Envelope, error) {
	if done, err := consumeNilOrOpenParen(tz); err != nil {
		return nil, err
	} else if done {
		return nil, nil
	}

	env := &Envelope{}
	var err error
	if env.Date, err = readNString(tz); err != nil {
		return nil, err
	}
	if env.Subject, err = readNString(tz); err != nil {
		return nil, err
	}
	if env.From, err = parseAddressList(tz); err != nil {
		return nil, err
	}
	if env.Sender, err = parseAddressList(tz); err != nil {
		return nil, err
	}
	if env.ReplyTo, err = parseAddressList(tz); err != nil {
		return nil, err
	}
	if env.To, err = parseAddressList(tz); err != nil {
		return nil, err
	}
	if env.Cc, err = parseAddressList(tz); err != nil {
		return nil, err
	}
	if env.Bcc, err = parseAddressList(tz); err != nil {
		return nil, err
	}
	if env.InReplyTo, err = readNString(tz); err != nil {
		return nil, err
	}
	if env.MessageID, err = readNString(tz); err != nil {
		return nil, err
	}
	if _, err := expectToken(tz, TokCloseParen); err != nil {
		return nil, err
	}
	return env, nil
}

// parseAddressList parses NIL or a parenthesised list of address-structs.
func parseAddressList(tz *Tokenizer) ([]Address, error) {
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return nil, err
	}
	if tok.Kind == TokNil {
		return nil, nil
	}
	if tok.Kind != TokOpenParen {
		return nil, protocolErr("parse address list", tok.String(), nil)
	}
	var addrs []Address
	for {
		peek, err := tz.PeekToken(SpecialsDefault)
		if err != nil {
			return nil, err
		}
		if peek.Kind == TokCloseParen {
			_, _ = tz.ReadToken(SpecialsDefault)
			return addrs, nil
		}
		if peek.Kind == TokNil {
			// Out-of-spec NIL in place of an address-struct (SmarterMail): skip it.
			_, _ = tz.ReadToken(SpecialsDefault)
			continue
		}
		addr, err := parseAddress(tz)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
}

func parseAddress(tz *Tokenizer) (Address, error) {
	if _, err := expectToken(tz, TokOpenParen); err != nil {
		return Address{}, err
	}
	var addr Address
	var err error
	if addr.Name, err = readNString(tz); err != nil {
		return Address{}, err
	}
	if addr.SourceRoute, err = readNString(tz); err != nil {
		return Address{}, err
	}
	if addr.Mailbox, err = readNString(tz); err != nil {
		return Address{}, err
	}
	if addr.Host, err = readNString(tz); err != nil {
		return Address{}, err
	}
	if _, err := expectToken(tz, TokCloseParen); err != nil {
		return Address{}, err
	}
	addr.IsGroupMarker = addr.Mailbox != "" && isGroupStart(addr)
	return addr, nil
}

// isGroupStart reports RFC 3501's group-marker convention: a group start
// has a NIL host and a non-NIL mailbox (the group name); a group end has
// NIL mailbox and NIL host.
func isGroupStart(a Address) bool {
	return a.Host == ""
}

// readNString reads an nstring token (quoted string, literal, or NIL) and
// returns "" for NIL.
func readNString(tz *Tokenizer) (string, error) {
	tok, err := tz.ReadToken(SpecialsAtom)
	if err != nil {
		return "", err
	}
	if tok.Kind == TokNil {
		return "", nil
	}
	if tok.Kind == TokLiteral {
		body, err := tz.ReadLiteralBody(tok)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}
	return tok.Text, nil
}

// consumeNilOrOpenParen reads the next token; if it is NIL, reports done=true
// (the caller's struct stays nil). If it is "(" the caller should continue
// parsing fields. Any other token is an error.
func consumeNilOrOpenParen(tz *Tokenizer) (done bool, err error) {
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return false, err
	}
	if tok.Kind == TokNil {
		return true, nil
	}
	if tok.Kind != TokOpenParen {
		return false, protocolErr("parse envelope", tok.String(), nil)
	}
	return false, nil
}
