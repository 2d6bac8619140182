package imap

// NamespaceDescriptor is one entry of a NAMESPACE response triple
// (personal / other users' / shared namespaces).
type NamespaceDescriptor struct {
	Prefix    string
	Delimiter byte
}

// Namespaces is the parsed NAMESPACE response body: three optional groups.
type Namespaces struct {
	Personal   []NamespaceDescriptor
	OtherUsers []NamespaceDescriptor
	Shared     []NamespaceDescriptor
}

// NamespaceHandler is an UntaggedHandler for "* NAMESPACE ...".
func NamespaceHandler(eng *Engine, cmd *Command, tz *Tokenizer) error {
	ns := &Namespaces{}
	var err error
	if ns.Personal, err = parseNamespaceGroup(tz); err != nil {
		return err
	}
	if ns.OtherUsers, err = parseNamespaceGroup(tz); err != nil {
		return err
	}
	if ns.Shared, err = parseNamespaceGroup(tz); err != nil {
		return err
	}
	if err := discardRestOfLine(tz); err != nil {
		return err
	}
	canonicalizeNamespaceGroup(ns.Personal)
	canonicalizeNamespaceGroup(ns.OtherUsers)
	canonicalizeNamespaceGroup(ns.Shared)
	eng.registerNamespaceFolders(ns)
	cmd.UserData = ns
	return nil
}

// canonicalizeNamespaceGroup trims each descriptor's trailing hierarchy
// delimiter from its prefix in place, e.g. "INBOX." with delimiter '.'
// becomes "INBOX" so it matches the folder cache's own naming.
func canonicalizeNamespaceGroup(group []NamespaceDescriptor) {
	for i := range group {
		p := group[i].Prefix
		if group[i].Delimiter != 0 && len(p) > 0 && p[len(p)-1] == group[i].Delimiter {
			group[i].Prefix = p[:len(p)-1]
		}
	}
}

// registerNamespaceFolders ensures every namespace prefix has a cache entry,
// so a caller can enumerate known roots before ever issuing LIST.
func (eng *Engine) registerNamespaceFolders(ns *Namespaces) {
	for _, group := range [][]NamespaceDescriptor{ns.Personal, ns.OtherUsers, ns.Shared} {
		for _, desc := range group {
			if desc.Prefix == "" {
				continue
			}
			f := eng.folders.get(desc.Prefix)
			f.Delimiter = desc.Delimiter
		}
	}
}

func parseNamespaceGroup(tz *Tokenizer) ([]NamespaceDescriptor, error) {
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return nil, err
	}
	if tok.Kind == TokNil {
		return nil, nil
	}
	if tok.Kind != TokOpenParen {
		return nil, protocolErr("parse namespace", tok.String(), nil)
	}
	var out []NamespaceDescriptor
	for {
		peek, err := tz.PeekToken(SpecialsDefault)
		if err != nil {
			return nil, err
		}
		if peek.Kind == TokCloseParen {
			_, _ = tz.ReadToken(SpecialsDefault)
			return out, nil
		}
		desc, err := parseNamespaceDescriptor(tz)
		if err != nil {
			return nil, err
		}
		out = append(out, desc)
	}
}

func parseNamespaceDescriptor(tz *Tokenizer) (NamespaceDescriptor, error) {
	if _, err := expectToken(tz, TokOpenParen); err != nil {
		return NamespaceDescriptor{}, err
	}
	prefix, err := readNString(tz)
	if err != nil {
		return NamespaceDescriptor{}, err
	}
	delimTok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return NamespaceDescriptor{}, err
	}
	var delim byte
	if delimTok.Kind != TokNil && len(delimTok.Text) > 0 {
		delim = delimTok.Text[0]
	}
	// Namespace response extensions (vendor-specific parameters) may
	// follow; skip anything up to the closing paren.
	for {
		peek, err := tz.PeekToken(SpecialsDefault)
		if err != nil {
			return NamespaceDescriptor{}, err
		}
		if peek.Kind == TokCloseParen {
			_, _ = tz.ReadToken(SpecialsDefault)
			break
		}
		if err := skipFetchValue(tz); err != nil {
			return NamespaceDescriptor{}, err
		}
	}
	return NamespaceDescriptor{Prefix: prefix, Delimiter: delim}, nil
}
