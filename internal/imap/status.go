package imap

import "strings"

// StatusData is the parsed STATUS response body: a subset of per-folder
// counters requested by name (MESSAGES, RECENT, UIDNEXT, UIDVALIDITY,
// UNSEEN, HIGHESTMODSEQ).
type StatusData struct {
	Folder        string
	Messages      uint32
	Recent        uint32
	UIDNext       uint32
	UIDValidity   uint32
	Unseen        uint32
	HighestModSeq uint64
}

// StatusHandler is an UntaggedHandler for "* STATUS mailbox (...)". It also
// updates the folder cache entry for the named mailbox, so a STATUS call
// refreshes the same Folder a later SELECT would return.
func StatusHandler(eng *Engine, cmd *Command, tz *Tokenizer) error {
	nameTok, err := tz.ReadToken(SpecialsAtom)
	if err != nil {
		return err
	}
	name, err := decodeMailboxToken(nameTok, tz)
	if err != nil {
		return err
	}

	if _, err := expectToken(tz, TokOpenParen); err != nil {
		return err
	}
	sd := &StatusData{Folder: name}
	for {
		peek, err := tz.PeekToken(SpecialsDefault)
		if err != nil {
			return err
		}
		if peek.Kind == TokCloseParen {
			_, _ = tz.ReadToken(SpecialsDefault)
			break
		}
		itemTok, err := tz.ReadToken(SpecialsDefault)
		if err != nil {
			return err
		}
		n, err := readUint32(tz)
		if err != nil {
			return err
		}
		switch strings.ToUpper(itemTok.Text) {
		case "MESSAGES":
			sd.Messages = n
		case "RECENT":
			sd.Recent = n
		case "UIDNEXT":
			sd.UIDNext = n
		case "UIDVALIDITY":
			sd.UIDValidity = n
		case "UNSEEN":
			sd.Unseen = n
		case "HIGHESTMODSEQ":
			sd.HighestModSeq = uint64(n)
		}
	}
	if err := discardRestOfLine(tz); err != nil {
		return err
	}

	f := eng.folders.get(name)
	eng.mu.Lock()
	f.Exists = sd.Messages
	f.Recent = sd.Recent
	f.UIDNext = sd.UIDNext
	f.UIDValidity = sd.UIDValidity
	f.Unseen = sd.Unseen
	f.HighestModSeq = sd.HighestModSeq
	eng.mu.Unlock()

	cmd.UserData = sd
	return nil
}
