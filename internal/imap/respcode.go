package imap

import "strings"

// RespCodeKind is the closed taxonomy of bracketed response codes (spec §3).
type RespCodeKind int

const (
	RCAlert RespCodeKind = iota
	RCBadCharset
	RCCapability
	RCPermanentFlags
	RCUidNext
	RCUidValidity
	RCUnseen
	RCAppendUid
	RCCopyUid
	RCBadUrl
	RCHighestModSeq
	RCModified
	RCNoUpdate
	RCMetadata
	RCAnnotate
	RCAnnotations
	RCUndefinedFilter
	RCMailboxId
	RCNotificationOverflow
	RCClosed
	RCReadOnly
	RCReadWrite
	RCTryCreate
	RCNoModSeq
	RCReferral
	RCUnknown
)

// RespCode is one parsed "[...]" response code plus its type-specific
// arguments.
type RespCode struct {
	Kind RespCodeKind

	BadCharset     []string
	Capabilities   []string
	PermanentFlags []string

	UidNext     uint32
	UidValidity uint32
	Unseen      uint32

	AppendUidValidity uint32
	AppendUidSet      UIDSet
	CopyUidValidity   uint32
	CopySrc           UIDSet
	CopyDst           UIDSet

	BadUrl        string
	HighestModSeq uint64
	Modified      UIDSet
	NoUpdateTag   string

	MetadataSubtype string
	AnnotateSubtype string
	AnnotateAccess  string
	AnnotateMaxSize uint32
	AnnotateScopes  []string

	UndefinedFilter string
	MailboxId       string
	Referral        string

	Unknown string // raw atom, only set when Kind == RCUnknown
}

// parseRespCode parses the contents of one "[...]" block. The caller has
// already consumed the OpenBracket token; parseRespCode consumes up to and
// including the matching CloseBracket.
func parseRespCode(tz *Tokenizer) (RespCode, error) {
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return RespCode{}, err
	}
	if tok.Kind != TokAtom {
		return RespCode{}, protocolErr("parse response code", tok.String(), nil)
	}
	atom := strings.ToUpper(tok.Text)

	var rc RespCode
	switch atom {
	case "ALERT":
		rc.Kind = RCAlert
	case "BADCHARSET":
		rc.Kind = RCBadCharset
		rc.BadCharset, err = parseOptionalParenAtomList(tz)
	case "CAPABILITY":
		rc.Kind = RCCapability
		rc.Capabilities, err = readAtomsUntilBracket(tz)
	case "PERMANENTFLAGS":
		rc.Kind = RCPermanentFlags
		rc.PermanentFlags, err = parseFlagList(tz)
	case "UIDNEXT":
		rc.Kind = RCUidNext
		rc.UidNext, err = readUint32(tz)
	case "UIDVALIDITY":
		rc.Kind = RCUidValidity
		rc.UidValidity, err = readUint32(tz)
	case "UNSEEN":
		rc.Kind = RCUnseen
		rc.Unseen, err = readUint32(tz)
	case "APPENDUID":
		rc.Kind = RCAppendUid
		rc.AppendUidValidity, rc.AppendUidSet, err = parseUidValidityAndSet(tz)
	case "COPYUID":
		rc.Kind = RCCopyUid
		rc.CopyUidValidity, rc.CopySrc, rc.CopyDst, err = parseCopyUid(tz)
	case "BADURL":
		rc.Kind = RCBadUrl
		rc.BadUrl, err = readTextToken(tz)
	case "HIGHESTMODSEQ":
		rc.Kind = RCHighestModSeq
		rc.HighestModSeq, err = readUint64(tz)
	case "MODIFIED":
		rc.Kind = RCModified
		rc.Modified, err = readUidSetToken(tz)
	case "NOUPDATE":
		rc.Kind = RCNoUpdate
		rc.NoUpdateTag, err = readTextToken(tz)
	case "METADATA":
		rc.Kind = RCMetadata
		rc.MetadataSubtype, err = readTextToken(tz)
	case "ANNOTATE":
		rc.Kind = RCAnnotate
		rc.AnnotateSubtype, err = readTextToken(tz)
	case "ANNOTATIONS":
		rc.Kind = RCAnnotations
		rc.AnnotateAccess, rc.AnnotateMaxSize, rc.AnnotateScopes, err = parseAnnotations(tz)
	case "UNDEFINED-FILTER":
		rc.Kind = RCUndefinedFilter
		rc.UndefinedFilter, err = readTextToken(tz)
	case "MAILBOXID":
		rc.Kind = RCMailboxId
		rc.MailboxId, err = parseParenAtom(tz)
	case "NOTIFICATIONOVERFLOW":
		rc.Kind = RCNotificationOverflow
	case "CLOSED":
		rc.Kind = RCClosed
	case "READ-ONLY":
		rc.Kind = RCReadOnly
	case "READ-WRITE":
		rc.Kind = RCReadWrite
	case "TRYCREATE":
		rc.Kind = RCTryCreate
	case "NOMODSEQ":
		rc.Kind = RCNoModSeq
	case "REFERRAL":
		rc.Kind = RCReferral
		rc.Referral, err = readTextToken(tz)
	default:
		rc.Kind = RCUnknown
		rc.Unknown = atom
		_, err = readAtomsUntilBracket(tz)
	}
	if err != nil {
		return RespCode{}, err
	}

	closeTok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return RespCode{}, err
	}
	if closeTok.Kind != TokCloseBracket {
		return RespCode{}, protocolErr("parse response code", closeTok.String(), nil)
	}
	return rc, nil
}

func readAtomsUntilBracket(tz *Tokenizer) ([]string, error) {
	var atoms []string
	for {
		tok, err := tz.PeekToken(SpecialsDefault)
		if err != nil {
			return nil, err
		}
		if tok.Kind == TokCloseBracket {
			return atoms, nil
		}
		tok, err = tz.ReadToken(SpecialsDefault)
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, tok.Text)
	}
}

func parseOptionalParenAtomList(tz *Tokenizer) ([]string, error) {
	tok, err := tz.PeekToken(SpecialsDefault)
	if err != nil {
		return nil, err
	}
	if tok.Kind != TokOpenParen {
		return nil, nil
	}
	_, _ = tz.ReadToken(SpecialsDefault)
	var out []string
	for {
		tok, err := tz.ReadToken(SpecialsDefault)
		if err != nil {
			return nil, err
		}
		if tok.Kind == TokCloseParen {
			return out, nil
		}
		out = append(out, tok.Text)
	}
}

func parseParenAtom(tz *Tokenizer) (string, error) {
	if _, err := expectToken(tz, TokOpenParen); err != nil {
		return "", err
	}
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return "", err
	}
	if _, err := expectToken(tz, TokCloseParen); err != nil {
		return "", err
	}
	return tok.Text, nil
}

func expectToken(tz *Tokenizer, kind TokenKind) (Token, error) {
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return Token{}, err
	}
	if tok.Kind != kind {
		return Token{}, protocolErr("expect token", tok.String(), nil)
	}
	return tok, nil
}

func readUint32(tz *Tokenizer) (uint32, error) {
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return 0, err
	}
	n, ok := parseUintDigits([]byte(tok.Text))
	if !ok {
		return 0, protocolErr("parse number", tok.Text, nil)
	}
	return uint32(n), nil
}

func readUint64(tz *Tokenizer) (uint64, error) {
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return 0, err
	}
	n, ok := parseUintDigits([]byte(tok.Text))
	if !ok {
		return 0, protocolErr("parse number", tok.Text, nil)
	}
	return uint64(n), nil
}

func readTextToken(tz *Tokenizer) (string, error) {
	tok, err := tz.ReadToken(SpecialsAtom)
	if err != nil {
		return "", err
	}
	return tok.String(), nil
}

func readUidSetToken(tz *Tokenizer) (UIDSet, error) {
	tok, err := tz.ReadToken(SpecialsAtom)
	if err != nil {
		return UIDSet{}, err
	}
	return ParseUIDSet(tok.String())
}

func parseUidValidityAndSet(tz *Tokenizer) (uint32, UIDSet, error) {
	validity, err := readUint32(tz)
	if err != nil {
		return 0, UIDSet{}, err
	}
	set, err := readUidSetToken(tz)
	if err != nil {
		return 0, UIDSet{}, err
	}
	return validity, set, nil
}

func parseCopyUid(tz *Tokenizer) (uint32, UIDSet, UIDSet, error) {
	validity, err := readUint32(tz)
	if err != nil {
		return 0, UIDSet{}, UIDSet{}, err
	}
	src, err := readUidSetToken(tz)
	if err != nil {
		return 0, UIDSet{}, UIDSet{}, err
	}
	dst, err := readUidSetToken(tz)
	if err != nil {
		return 0, UIDSet{}, UIDSet{}, err
	}
	return validity, src, dst, nil
}

func parseAnnotations(tz *Tokenizer) (access string, maxSize uint32, scopes []string, err error) {
	access, err = readTextToken(tz)
	if err != nil {
		return "", 0, nil, err
	}
	tok, err := tz.PeekToken(SpecialsDefault)
	if err != nil {
		return "", 0, nil, err
	}
	if tok.Kind == TokAtom {
		maxSize, err = readUint32(tz)
		if err != nil {
			return "", 0, nil, err
		}
	}
	scopes, err = parseOptionalParenAtomList(tz)
	return access, maxSize, scopes, err
}
