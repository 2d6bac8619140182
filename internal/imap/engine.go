package imap

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

// ConnState is the connection-level state machine (component E), mirroring
// the teacher's proxy.SessionState but driven entirely from the client side:
// there is no pre-auth "Greeting" state to relay, since the engine itself
// consumes the greeting during Connect.
type ConnState int

const (
	ConnNotAuthenticated ConnState = iota
	ConnAuthenticated
	ConnSelected
	ConnLogout
)

func (s ConnState) String() string {
	switch s {
	case ConnNotAuthenticated:
		return "not authenticated"
	case ConnAuthenticated:
		return "authenticated"
	case ConnSelected:
		return "selected"
	case ConnLogout:
		return "logout"
	default:
		return "unknown"
	}
}

// defaultLiteralMinusLimit is RFC 7888's 4096-byte ceiling for a LITERAL-
// non-synchronizing literal when the server only advertises LITERAL- (not
// the unbounded LITERAL+).
const defaultLiteralMinusLimit = 4096

// Engine owns one IMAP connection: the command queue, the response run
// loop, and all connection-scoped state a response parser needs to update
// (capabilities, the current folder, quirks). Grounded on the teacher's
// proxy.Session, generalized from "relay two peers" to "drive one command
// queue against one upstream".
type Engine struct {
	conn   net.Conn
	stream *byteStream
	tz     *Tokenizer
	cache  *tokenCache

	logger ProtocolLogger

	mu                  sync.Mutex
	state               ConnState
	capabilities        map[string]bool
	capabilitiesVersion uint64
	quirks              QuirksMode
	utf8Enabled  bool
	folders      *folderCache
	current      *Folder // SELECTed/EXAMINEd mailbox, nil outside ConnSelected
	tagCounter   uint64
	queue        []*Command
	active       *Command
	closed       bool

	// events holds the callbacks registered via Subscribe; they receive the
	// connection-scoped notices (such as FolderCreated from an unsolicited
	// LIST) raised while untagged lines are handled.
	events []func(Event)
}

// Event is a connection-scoped notification the caller can subscribe to via
// Engine.Subscribe — server-initiated changes not tied to any one Command's
// result (spec §4.K "observer events").
type Event struct {
	Kind   EventKind
	Folder string
	Text   string
}

type EventKind int

const (
	EventExists EventKind = iota
	EventExpunge
	EventFolderCreated
	EventAlert
	EventBye
)

// NewEngine wraps an already-connected net.Conn (TLS or plain) as an IMAP
// engine, ready to read the server greeting.
func NewEngine(conn net.Conn, logger ProtocolLogger) *Engine {
	if logger == nil {
		logger = NewSlogProtocolLogger(slog.Default())
	}
	cache := newTokenCache(tokenCacheCapacity)
	stream := newByteStream(conn)
	eng := &Engine{
		conn:         conn,
		stream:       stream,
		cache:        cache,
		tz:           newTokenizer(stream, cache),
		logger:       logger,
		state:        ConnNotAuthenticated,
		capabilities: make(map[string]bool),
		folders:      newFolderCache(),
	}
	return eng
}

// Subscribe registers fn to receive connection-scoped events.
func (eng *Engine) Subscribe(fn func(Event)) {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	eng.events = append(eng.events, fn)
}

func (eng *Engine) emit(ev Event) {
	eng.mu.Lock()
	subs := append([]func(Event){}, eng.events...)
	eng.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// State returns the engine's current connection state.
func (eng *Engine) State() ConnState {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.state
}

// CurrentFolder returns the SELECTed/EXAMINEd mailbox, or nil.
func (eng *Engine) CurrentFolder() *Folder {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.current
}

// QuirksMode returns the server behaviour switches detected from the
// greeting (spec §4.I).
func (eng *Engine) QuirksMode() QuirksMode {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.quirks
}

// HasCapability reports whether the server has advertised cap (case-folded).
func (eng *Engine) HasCapability(cap string) bool {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.capabilities[strings.ToUpper(cap)]
}

// CapabilitiesVersion returns a counter bumped once per CAPABILITY response
// processed (explicit or inline in a response code), so a caller can tell
// whether its cached view of HasCapability/HasAuthMechanism is stale.
func (eng *Engine) CapabilitiesVersion() uint64 {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.capabilitiesVersion
}

// mergeCapabilities replaces the engine's capability set from one complete
// CAPABILITY response — explicit ("* CAPABILITY ..."), inline in a tagged or
// untagged response code, or the post-STARTTLS re-query. A CAPABILITY
// response is always the server's full, authoritative set, not an
// incremental add, so the old set is cleared first; STARTTLS survives the
// clear since a STARTTLS-induced re-query may not repeat it.
func (eng *Engine) mergeCapabilities(atoms []string) {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	hadStartTLS := eng.capabilities["STARTTLS"]
	eng.capabilities = make(map[string]bool, len(atoms)+1)
	if hadStartTLS {
		eng.capabilities["STARTTLS"] = true
	}
	for _, a := range atoms {
		up := strings.ToUpper(a)
		eng.capabilities[up] = true
		switch up {
		case "QRESYNC":
			eng.capabilities["CONDSTORE"] = true
		case "UTF8=ONLY":
			eng.capabilities["UTF8=ACCEPT"] = true
		}
	}
	eng.capabilitiesVersion++
}

// literalPlusOK decides whether a literal of the given length can be sent
// as a non-synchronizing "{n+}" literal (spec §4.D): true under LITERAL+
// unconditionally, or under LITERAL- when length is within the RFC 7888
// ceiling.
func (eng *Engine) literalPlusOK(length int64) bool {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	if eng.capabilities["LITERAL+"] {
		return true
	}
	if eng.capabilities["LITERAL-"] && length <= defaultLiteralMinusLimit {
		return true
	}
	return false
}

func (eng *Engine) nextTag() string {
	eng.mu.Lock()
	eng.tagCounter++
	n := eng.tagCounter
	eng.mu.Unlock()
	return fmt.Sprintf("A%04d", n)
}

// NewCommand builds a Command from a printf-like format string (spec §4.D).
// format is just the command's own text ("LOGIN %s %s", "CAPABILITY", ...):
// NewCommand prepends "tag " and appends the trailing CRLF, so every Command
// ends with a text part carrying "\r\n" as the tokenizer's Eoln expects.
func (eng *Engine) NewCommand(name, format string, args ...any) (*Command, error) {
	cmd := newCommand(eng.nextTag(), name)
	b := newBuilder(eng)
	b.writeString(cmd.Tag + " ")
	parts, err := b.Format(format+"\r\n", args...)
	if err != nil {
		return nil, err
	}
	cmd.parts = parts
	return cmd, nil
}

// Enqueue appends cmd to the pending queue. The caller drives progress by
// calling Do; Enqueue itself never blocks or writes to the wire.
func (eng *Engine) Enqueue(cmd *Command) {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	eng.queue = append(eng.queue, cmd)
}

// Do enqueues cmd and runs the engine until it completes (the common case:
// one command in flight at a time, synchronous call/response use).
func (eng *Engine) Do(ctx context.Context, cmd *Command) error {
	eng.Enqueue(cmd)
	for !cmd.Done() {
		if err := eng.step(ctx); err != nil {
			return err
		}
	}
	return cmd.Err()
}

// step drains one command from the queue (sending it and reading responses
// until its tagged completion), or returns ErrBusyState if a command is
// already active on another goroutine.
func (eng *Engine) step(ctx context.Context) error {
	eng.mu.Lock()
	if eng.active != nil {
		eng.mu.Unlock()
		return ErrBusyState
	}
	if len(eng.queue) == 0 {
		eng.mu.Unlock()
		return nil
	}
	cmd := eng.queue[0]
	eng.queue = eng.queue[1:]
	eng.active = cmd
	eng.mu.Unlock()

	defer func() {
		eng.mu.Lock()
		eng.active = nil
		eng.mu.Unlock()
	}()

	// The tokenizer's reads block on the underlying conn with no awareness
	// of ctx; force them to unblock on cancellation by yanking the read
	// deadline forward, the same trick net/http's request context uses.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			eng.conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	if err := eng.sendCommand(ctx, cmd); err != nil {
		cmd.err = err
		cmd.state = cmdComplete
		close(cmd.completed)
		return err
	}
	return eng.readUntilTagged(ctx, cmd)
}

func (eng *Engine) sendCommand(ctx context.Context, cmd *Command) error {
	eng.logger.LogCommand(cmd.Tag, cmd.Name)
	for i, p := range cmd.parts {
		switch p.kind {
		case partText:
			if _, err := eng.stream.Write(p.text); err != nil {
				return ioErr("send command", err)
			}
		case partLiteral:
			if err := eng.stream.Flush(); err != nil {
				return ioErr("send command", err)
			}
			if !p.nonSync {
				if err := eng.awaitContinuation(ctx, cmd); err != nil {
					return err
				}
			}
			if err := eng.writeLiteralBody(p); err != nil {
				return err
			}
		}
		if i == len(cmd.parts)-1 {
			if err := eng.stream.Flush(); err != nil {
				return ioErr("send command", err)
			}
		}
	}
	return nil
}

func (eng *Engine) writeLiteralBody(p part) error {
	if p.literal != nil {
		_, err := eng.stream.Write(p.literal)
		if err != nil {
			return ioErr("send literal", err)
		}
		return nil
	}
	if p.literalReader != nil {
		buf := make([]byte, 32*1024)
		var total int64
		for total < p.literalLen {
			n, err := p.literalReader.Read(buf)
			if n > 0 {
				if _, werr := eng.stream.Write(buf[:n]); werr != nil {
					return ioErr("send literal", werr)
				}
				total += int64(n)
			}
			if err != nil {
				return ioErr("send literal", err)
			}
		}
	}
	return nil
}

func (eng *Engine) awaitContinuation(ctx context.Context, cmd *Command) error {
	lineBytes, err := eng.stream.ReadLine()
	if err != nil {
		return ioErr("await continuation", err)
	}
	line := string(lineBytes)
	text := strings.TrimPrefix(line, "+ ")
	text = strings.TrimPrefix(text, "+")
	if cmd.ContinuationHandler != nil {
		return cmd.ContinuationHandler(eng, text)
	}
	return nil
}

// readUntilTagged drives the response loop until cmd's own tag is seen
// (or the connection reports BYE), dispatching every untagged line along
// the way (spec §4.E: "the engine is the only thing that ever calls
// Tokenizer.ReadToken directly").
func (eng *Engine) readUntilTagged(ctx context.Context, cmd *Command) error {
	for {
		if err := ctx.Err(); err != nil {
			cmd.err = cancelledErr("read response")
			cmd.state = cmdComplete
			close(cmd.completed)
			return cmd.err
		}

		tok, err := eng.tz.ReadToken(SpecialsDefault)
		if err != nil {
			if ctx.Err() != nil {
				cmd.err = cancelledErr("read response")
			} else {
				cmd.err = ioErr("read response", err)
			}
			cmd.state = cmdComplete
			close(cmd.completed)
			return cmd.err
		}

		switch tok.Kind {
		case TokAsterisk:
			if err := eng.handleUntagged(cmd); err != nil {
				return err
			}
		case TokPlus:
			if err := eng.handleContinuation(ctx, cmd); err != nil {
				return err
			}
		case TokAtom:
			if tok.Text == cmd.Tag {
				return eng.handleTagged(cmd)
			}
			// A tag for a different in-flight command should not occur
			// under the single-command-at-a-time contract Do() enforces;
			// treat it as an untagged-shaped stray line and drain it.
			if err := eng.consumeRestOfLine(); err != nil {
				return err
			}
		default:
			if err := eng.consumeRestOfLine(); err != nil {
				return err
			}
		}
	}
}

// handleContinuation reads a "+" continuation line arriving mid-exchange
// (e.g. each round of a multi-step SASL AUTHENTICATE) and hands its text to
// cmd.ContinuationHandler, which is responsible for writing the response
// line back onto the wire. A command with no ContinuationHandler just drains
// the line, matching the teacher's "only meaningful exchanges get repied to"
// framing of the fire-and-discard untagged path.
func (eng *Engine) handleContinuation(ctx context.Context, cmd *Command) error {
	text, err := readRestOfLineText(eng.tz)
	if err != nil {
		return ioErr("read continuation", err)
	}
	if cmd.ContinuationHandler == nil {
		return nil
	}
	return cmd.ContinuationHandler(eng, text)
}

func (eng *Engine) consumeRestOfLine() error {
	for {
		tok, err := eng.tz.ReadToken(SpecialsDefault)
		if err != nil {
			return ioErr("drain line", err)
		}
		if tok.Kind == TokEoln {
			return nil
		}
		if tok.Kind == TokLiteral {
			if _, err := eng.tz.ReadLiteralBody(tok); err != nil {
				return ioErr("drain line", err)
			}
		}
	}
}

func (eng *Engine) handleTagged(cmd *Command) error {
	statusTok, err := eng.tz.ReadToken(SpecialsDefault)
	if err != nil {
		return ioErr("read tagged response", err)
	}
	status, ok := parseStatusAtom(statusTok.Text)
	if !ok {
		return protocolErr("read tagged response", statusTok.Text, nil)
	}
	codes, text, err := eng.readRespText()
	if err != nil {
		return err
	}
	cmd.Response = status
	cmd.ResponseText = text
	cmd.RespCodes = codes
	for _, rc := range codes {
		if rc.Kind == RCCapability {
			eng.mergeCapabilities(rc.Capabilities)
		}
	}
	if status != StatusOK {
		cmd.err = commandErr(cmd.Name, status, codes, text)
	}
	cmd.state = cmdComplete
	close(cmd.completed)
	return nil
}

func (eng *Engine) handleUntagged(cmd *Command) error {
	tok, err := eng.tz.ReadToken(SpecialsDefault)
	if err != nil {
		return ioErr("read untagged response", err)
	}

	switch tok.Kind {
	case TokAtom:
		upper := strings.ToUpper(tok.Text)
		if handler, ok := cmd.UntaggedHandlers[upper]; ok {
			return handler(eng, cmd, eng.tz)
		}
		return eng.handleDefaultUntagged(cmd, upper)
	default:
		return eng.consumeRestOfLine()
	}
}

// handleDefaultUntagged applies connection-scoped untagged data a command
// didn't claim: mailbox counters against the current folder, CAPABILITY/BYE,
// and unsolicited LIST notices.
func (eng *Engine) handleDefaultUntagged(cmd *Command, verbOrNumber string) error {
	if n, ok := parseUintDigits([]byte(verbOrNumber)); ok {
		return eng.handleNumberedUntagged(cmd, uint32(n))
	}

	switch verbOrNumber {
	case "OK", "NO", "BAD":
		status, _ := parseStatusAtom(verbOrNumber)
		codes, _, err := eng.readRespText()
		if err != nil {
			return err
		}
		for _, rc := range codes {
			if rc.Kind == RCCapability {
				eng.mergeCapabilities(rc.Capabilities)
			}
			if rc.Kind == RCAlert {
				eng.emit(Event{Kind: EventAlert})
			}
		}
		_ = status
		return nil
	case "BYE":
		eng.mu.Lock()
		eng.state = ConnLogout
		eng.mu.Unlock()
		_, text, err := eng.readRespText()
		if err != nil {
			return err
		}
		eng.emit(Event{Kind: EventBye, Text: text})
		return nil
	case "CAPABILITY":
		atoms, err := readAtomsUntilEoln(eng.tz)
		if err != nil {
			return err
		}
		eng.mergeCapabilities(atoms)
		return nil
	case "LIST":
		fl, err := parseList(eng.tz)
		if err != nil {
			return err
		}
		eng.applyListEntry(fl, false)
		return nil
	case "LSUB":
		fl, err := parseList(eng.tz)
		if err != nil {
			return err
		}
		fl.Subscribed = true
		eng.applyListEntry(fl, true)
		return nil
	default:
		return eng.consumeRestOfLine()
	}
}

// applyListEntry updates the folder cache from one parsed LIST/LSUB entry.
// LIST merges SPECIAL-USE attributes and \Subscribed (only if the server
// returned subscription info) into the cached folder; LSUB additionally
// asserts \Subscribed itself, since that is the entire point of asking for
// subscribed mailboxes. An OLDNAME extension re-keys the cache entry rather
// than leaving a stale one behind. \NonExistent clears counts that can no
// longer be trusted.
func (eng *Engine) applyListEntry(fl ListEntry, fromLSUB bool) {
	eng.folders.setDelimiter(fl.Delimiter)

	if fl.OldName != "" && fl.OldName != fl.Name {
		eng.folders.rename(fl.OldName, fl.Name)
	}

	f := eng.folders.get(fl.Name)
	f.Delimiter = fl.Delimiter
	f.Attributes = mergeAttributes(f.Attributes, fl.Attributes)
	if fromLSUB || hasAttribute(fl.Attributes, `\Subscribed`) {
		f.Subscribed = true
	}
	if hasAttribute(fl.Attributes, `\NonExistent`) {
		eng.mu.Lock()
		f.Exists = 0
		f.Recent = 0
		f.Unseen = 0
		eng.mu.Unlock()
	}
	eng.emit(Event{Kind: EventFolderCreated, Folder: fl.Name})
}

func mergeAttributes(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	out := append([]string{}, existing...)
	for _, a := range existing {
		seen[strings.ToUpper(a)] = true
	}
	for _, a := range incoming {
		up := strings.ToUpper(a)
		if !seen[up] {
			seen[up] = true
			out = append(out, a)
		}
	}
	return out
}

func hasAttribute(attrs []string, want string) bool {
	for _, a := range attrs {
		if strings.EqualFold(a, want) {
			return true
		}
	}
	return false
}

func (eng *Engine) handleNumberedUntagged(cmd *Command, n uint32) error {
	tok, err := eng.tz.ReadToken(SpecialsDefault)
	if err != nil {
		return ioErr("read untagged response", err)
	}
	if tok.Kind != TokAtom {
		return protocolErr("read untagged response", tok.String(), nil)
	}
	verb := strings.ToUpper(tok.Text)
	if handler, ok := cmd.NumberedHandlers[verb]; ok {
		return handler(eng, cmd, n, eng.tz)
	}

	folder := eng.CurrentFolder()
	switch verb {
	case "EXISTS":
		if folder != nil {
			eng.mu.Lock()
			folder.Exists = n
			eng.mu.Unlock()
		}
		eng.emit(Event{Kind: EventExists})
		return eng.consumeRestOfLine()
	case "RECENT":
		if folder != nil {
			eng.mu.Lock()
			folder.Recent = n
			eng.mu.Unlock()
		}
		return eng.consumeRestOfLine()
	case "EXPUNGE":
		if folder != nil {
			eng.mu.Lock()
			if folder.Exists > 0 {
				folder.Exists--
			}
			eng.mu.Unlock()
		}
		eng.emit(Event{Kind: EventExpunge})
		return eng.consumeRestOfLine()
	case "FETCH":
		_, err := parseFetch(eng.tz, n)
		return err
	default:
		return eng.consumeRestOfLine()
	}
}

// readRespText parses the optional "[code] text" tail of a status response
// line, ending at Eoln.
func (eng *Engine) readRespText() ([]RespCode, string, error) {
	var codes []RespCode
	tok, err := eng.tz.PeekToken(SpecialsDefault)
	if err != nil {
		return nil, "", err
	}
	if tok.Kind == TokOpenBracket {
		_, _ = eng.tz.ReadToken(SpecialsDefault)
		rc, err := parseRespCode(eng.tz)
		if err != nil {
			return nil, "", err
		}
		codes = append(codes, rc)
	}
	text, err := readRestOfLineText(eng.tz)
	if err != nil {
		return nil, "", err
	}
	return codes, text, nil
}

func parseStatusAtom(s string) (Status, bool) {
	switch strings.ToUpper(s) {
	case "OK":
		return StatusOK, true
	case "NO":
		return StatusNO, true
	case "BAD":
		return StatusBAD, true
	case "BYE":
		return StatusBYE, true
	default:
		return 0, false
	}
}

func readAtomsUntilEoln(tz *Tokenizer) ([]string, error) {
	var atoms []string
	for {
		tok, err := tz.ReadToken(SpecialsDefault)
		if err != nil {
			return nil, err
		}
		if tok.Kind == TokEoln {
			return atoms, nil
		}
		atoms = append(atoms, tok.Text)
	}
}

// readRestOfLineText collects whatever remains of a response line as a
// single space-joined string, for the free-text tail of resp-text.
func readRestOfLineText(tz *Tokenizer) (string, error) {
	var words []string
	for {
		tok, err := tz.ReadToken(SpecialsAtom)
		if err != nil {
			return "", err
		}
		if tok.Kind == TokEoln {
			return strings.Join(words, " "), nil
		}
		words = append(words, tok.String())
	}
}
