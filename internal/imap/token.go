package imap

import "strings"

// TokenKind is the closed set of token tags the tokenizer can produce.
// Tokens carry no source location; atoms/flags/qstrings are interned via
// the token cache (tokencache.go).
type TokenKind int

const (
	TokAtom TokenKind = iota
	TokFlag
	TokQString
	TokLiteral
	TokOpenParen
	TokCloseParen
	TokOpenBracket
	TokCloseBracket
	TokAsterisk
	TokPlus
	TokNil
	TokEoln
)

func (k TokenKind) String() string {
	switch k {
	case TokAtom:
		return "atom"
	case TokFlag:
		return "flag"
	case TokQString:
		return "qstring"
	case TokLiteral:
		return "literal"
	case TokOpenParen:
		return "("
	case TokCloseParen:
		return ")"
	case TokOpenBracket:
		return "["
	case TokCloseBracket:
		return "]"
	case TokAsterisk:
		return "*"
	case TokPlus:
		return "+"
	case TokNil:
		return "NIL"
	case TokEoln:
		return "EOLN"
	default:
		return "unknown"
	}
}

// Token is the tagged variant produced by the tokenizer. Atom, Flag and
// QString carry Text (interned); Literal carries Len and NonSync.
type Token struct {
	Kind    TokenKind
	Text    string
	Len     int64
	NonSync bool
}

func (t Token) String() string {
	switch t.Kind {
	case TokAtom, TokFlag, TokQString:
		return t.Text
	case TokLiteral:
		return "{literal}"
	default:
		return t.Kind.String()
	}
}

// Specials selects which characters terminate a bare atom. The default
// preset terminates on ']' (so response-code brackets close atoms inside
// "[...]"); SpecialsAtom is used for mailbox-name and sequence-set reads,
// which must accept ']' as ordinary atom content.
type Specials int

const (
	SpecialsDefault Specials = iota
	SpecialsAtom
)

func isAtomTerminator(b byte, mode Specials) bool {
	switch b {
	case '(', ')', '{', ' ', '\t', '\r', '\n', '%', '"', '\\':
		return true
	case ']', '*':
		return mode == SpecialsDefault
	}
	return b < 0x20 || b == 0x7f
}

// Tokenizer converts bytes read from a byteStream into a lazy sequence of
// tokens, with an unget buffer of exactly one token (component B).
type Tokenizer struct {
	s      *byteStream
	cache  *tokenCache
	unget  *Token
	hasUng bool
}

func newTokenizer(s *byteStream, cache *tokenCache) *Tokenizer {
	return &Tokenizer{s: s, cache: cache}
}

// UngetToken pushes tok back; the next ReadToken/PeekToken call returns it
// again instead of reading from the stream. The buffer holds at most one
// token — a second Unget before a Read is a programmer error and panics,
// matching the "exactly one" depth invariant in spec §4.B.
func (tz *Tokenizer) UngetToken(tok Token) {
	if tz.hasUng {
		panic("imap: tokenizer unget buffer already full")
	}
	tz.unget = &tok
	tz.hasUng = true
}

// PeekToken reads the next token without consuming it permanently: the
// token is read, then placed back into the unget buffer.
func (tz *Tokenizer) PeekToken(specials Specials) (Token, error) {
	tok, err := tz.ReadToken(specials)
	if err != nil {
		return Token{}, err
	}
	tz.UngetToken(tok)
	return tok, nil
}

// ReadToken returns the next token, consuming it from the unget buffer if
// present, otherwise reading and parsing bytes from the stream.
func (tz *Tokenizer) ReadToken(specials Specials) (Token, error) {
	if tz.hasUng {
		tok := *tz.unget
		tz.unget = nil
		tz.hasUng = false
		return tok, nil
	}
	return tz.readFromStream(specials)
}

// ReadLiteralBody drains the body of a just-returned Literal token. The
// tokenizer never calls this on its own: the caller decides when, since the
// caller may need to announce a continuation first (§4.E step 2).
func (tz *Tokenizer) ReadLiteralBody(tok Token) ([]byte, error) {
	if tok.Kind != TokLiteral {
		return nil, protocolErr("read literal", tok.String(), nil)
	}
	return tz.s.ReadLiteral(tok.Len)
}

func (tz *Tokenizer) readFromStream(specials Specials) (Token, error) {
	if err := tz.skipSpaces(); err != nil {
		return Token{}, err
	}

	b, err := tz.s.ReadByte()
	if err != nil {
		return Token{}, err
	}

	switch b {
	case '\r':
		nb, err := tz.s.ReadByte()
		if err != nil {
			return Token{}, err
		}
		if nb != '\n' {
			return Token{}, protocolErr("tokenize", string(nb), nil)
		}
		return Token{Kind: TokEoln}, nil
	case '\n':
		return Token{Kind: TokEoln}, nil
	case '(':
		return Token{Kind: TokOpenParen}, nil
	case ')':
		return Token{Kind: TokCloseParen}, nil
	case '[':
		return Token{Kind: TokOpenBracket}, nil
	case ']':
		return Token{Kind: TokCloseBracket}, nil
	case '*':
		return Token{Kind: TokAsterisk}, nil
	case '+':
		return Token{Kind: TokPlus}, nil
	case '"':
		return tz.readQuoted()
	case '{':
		return tz.readLiteralHeader()
	case '\\':
		return tz.readFlag(specials)
	default:
		if err := tz.s.UnreadByte(); err != nil {
			return Token{}, ioErr("tokenize", err)
		}
		return tz.readAtom(specials)
	}
}

func (tz *Tokenizer) skipSpaces() error {
	for {
		b, err := tz.s.ReadByte()
		if err != nil {
			return err
		}
		if b != ' ' && b != '\t' {
			return tz.s.UnreadByte()
		}
	}
}

func (tz *Tokenizer) readQuoted() (Token, error) {
	var raw []byte
	for {
		b, err := tz.s.ReadByte()
		if err != nil {
			return Token{}, err
		}
		if b == '"' {
			break
		}
		if b == '\\' {
			nb, err := tz.s.ReadByte()
			if err != nil {
				return Token{}, err
			}
			raw = append(raw, nb)
			continue
		}
		if b == '\r' || b == '\n' {
			return Token{}, protocolErr("tokenize quoted string", string(raw), nil)
		}
		raw = append(raw, b)
	}
	return Token{Kind: TokQString, Text: tz.cache.intern(TokQString, raw)}, nil
}

func (tz *Tokenizer) readLiteralHeader() (Token, error) {
	var digits []byte
	nonSync := false
	for {
		b, err := tz.s.ReadByte()
		if err != nil {
			return Token{}, err
		}
		if b == '}' {
			break
		}
		if b == '+' {
			nonSync = true
			continue
		}
		if b < '0' || b > '9' {
			return Token{}, protocolErr("tokenize literal header", string(b), nil)
		}
		digits = append(digits, b)
	}
	// Literal header must be followed by CRLF before the body begins.
	cr, err := tz.s.ReadByte()
	if err != nil {
		return Token{}, err
	}
	if cr == '\r' {
		lf, err := tz.s.ReadByte()
		if err != nil {
			return Token{}, err
		}
		if lf != '\n' {
			return Token{}, protocolErr("tokenize literal header", string(lf), nil)
		}
	} else if cr != '\n' {
		return Token{}, protocolErr("tokenize literal header", string(cr), nil)
	}

	n, ok := parseUintDigits(digits)
	if !ok {
		return Token{}, protocolErr("tokenize literal header", string(digits), nil)
	}
	return Token{Kind: TokLiteral, Len: n, NonSync: nonSync}, nil
}

func (tz *Tokenizer) readFlag(specials Specials) (Token, error) {
	// A bare leading backslash ("\*" inside PERMANENTFLAGS) is itself a flag atom.
	b, err := tz.s.ReadByte()
	if err != nil {
		return Token{}, err
	}
	if b == '*' {
		return Token{Kind: TokFlag, Text: "\\*"}, nil
	}
	if err := tz.s.UnreadByte(); err != nil {
		return Token{}, ioErr("tokenize", err)
	}
	atomTok, err := tz.readAtom(specials)
	if err != nil {
		return Token{}, err
	}
	return Token{Kind: TokFlag, Text: "\\" + atomTok.Text}, nil
}

func (tz *Tokenizer) readAtom(specials Specials) (Token, error) {
	var raw []byte
	for {
		b, err := tz.s.ReadByte()
		if err != nil {
			if len(raw) > 0 {
				// EOF right after atom content is tolerated by callers that
				// read the final atom of a truncated stream; surface what we have.
				break
			}
			return Token{}, err
		}
		if isAtomTerminator(b, specials) {
			if err := tz.s.UnreadByte(); err != nil {
				return Token{}, ioErr("tokenize", err)
			}
			break
		}
		raw = append(raw, b)
	}
	if len(raw) == 0 {
		return Token{}, protocolErr("tokenize atom", "", nil)
	}
	if strings.EqualFold(string(raw), "NIL") {
		return Token{Kind: TokNil, Text: "NIL"}, nil
	}
	return Token{Kind: TokAtom, Text: tz.cache.intern(TokAtom, raw)}, nil
}

func parseUintDigits(digits []byte) (int64, bool) {
	if len(digits) == 0 {
		return 0, false
	}
	var n int64
	for _, d := range digits {
		n = n*10 + int64(d-'0')
	}
	return n, true
}
