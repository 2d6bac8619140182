package imap

// parseFlagList parses a parenthesised flag list: "(\Seen \Answered custom)".
// Used by PERMANENTFLAGS response codes and by FETCH FLAGS data items.
func parseFlagList(tz *Tokenizer) ([]string, error) {
	if _, err := expectToken(tz, TokOpenParen); err != nil {
		return nil, err
	}
	var flags []string
	for {
		tok, err := tz.ReadToken(SpecialsDefault)
		if err != nil {
			return nil, err
		}
		if tok.Kind == TokCloseParen {
			return flags, nil
		}
		switch tok.Kind {
		case TokFlag, TokAtom:
			flags = append(flags, tok.Text)
		default:
			return nil, protocolErr("parse flag list", tok.String(), nil)
		}
	}
}
