package imap

import (
	"bufio"
	"io"
	"net"
	"time"
)

// byteStream is component A: framed I/O over a byte-oriented transport.
// Line reads and literal reads of exactly n octets never mix mid-call; the
// caller (the Tokenizer) decides which mode to use based on the token it
// just read. Grounded on the teacher's bufio.Reader usage in
// internal/proxy/upstream.go (ReadString) and internal/proxy/session.go
// (io.CopyN for literal bodies).
type byteStream struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer

	readTimeout  time.Duration
	writeTimeout time.Duration
}

func newByteStream(conn net.Conn) *byteStream {
	return &byteStream{
		conn: conn,
		r:    bufio.NewReaderSize(conn, 4096),
		w:    bufio.NewWriterSize(conn, 4096),
	}
}

func (s *byteStream) SetReadTimeout(d time.Duration)  { s.readTimeout = d }
func (s *byteStream) SetWriteTimeout(d time.Duration) { s.writeTimeout = d }

func (s *byteStream) applyReadDeadline() error {
	if s.readTimeout <= 0 {
		return nil
	}
	return s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
}

func (s *byteStream) applyWriteDeadline() error {
	if s.writeTimeout <= 0 {
		return nil
	}
	return s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
}

// ReadByte reads a single byte, applying the read timeout.
func (s *byteStream) ReadByte() (byte, error) {
	if err := s.applyReadDeadline(); err != nil {
		return 0, ioErr("read", err)
	}
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, ioErr("read", err)
	}
	return b, nil
}

// UnreadByte pushes the last read byte back onto the stream. Only one byte
// of pushback is guaranteed by bufio.Reader; the tokenizer never needs more.
func (s *byteStream) UnreadByte() error {
	return s.r.UnreadByte()
}

// ReadLine reads up to and including the next CRLF, returning the line with
// the CRLF (or bare LF) stripped. Used for the fast path of reading an
// entire response line, e.g. the portion after a literal body has been
// drained.
func (s *byteStream) ReadLine() ([]byte, error) {
	if err := s.applyReadDeadline(); err != nil {
		return nil, ioErr("read", err)
	}
	line, err := s.r.ReadBytes('\n')
	if err != nil {
		return nil, ioErr("read", err)
	}
	line = trimCRLF(line)
	return line, nil
}

// ReadLiteral reads exactly n bytes: the body of a {n} or {n+} literal.
// Invariant #6: exactly n bytes are consumed before the next token read
// resumes.
func (s *byteStream) ReadLiteral(n int64) ([]byte, error) {
	if n < 0 {
		n = 0
	}
	if err := s.applyReadDeadline(); err != nil {
		return nil, ioErr("read", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		return nil, ioErr("read literal", err)
	}
	return buf, nil
}

// Write writes bytes to the outbound buffer without flushing.
func (s *byteStream) Write(p []byte) (int, error) {
	if err := s.applyWriteDeadline(); err != nil {
		return 0, ioErr("write", err)
	}
	n, err := s.w.Write(p)
	if err != nil {
		return n, ioErr("write", err)
	}
	return n, nil
}

// Flush pushes any buffered outbound bytes to the transport.
func (s *byteStream) Flush() error {
	if err := s.applyWriteDeadline(); err != nil {
		return ioErr("write", err)
	}
	if err := s.w.Flush(); err != nil {
		return ioErr("write", err)
	}
	return nil
}

func (s *byteStream) Close() error {
	return s.conn.Close()
}

func trimCRLF(b []byte) []byte {
	n := len(b)
	if n > 0 && b[n-1] == '\n' {
		n--
	}
	if n > 0 && b[n-1] == '\r' {
		n--
	}
	return b[:n]
}
