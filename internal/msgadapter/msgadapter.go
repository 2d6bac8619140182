// Package msgadapter parses FETCH BODY[] section bytes into structured
// MIME entities using github.com/emersion/go-message, so a caller of the
// imap package never has to hand-parse RFC 5322 headers or MIME bodies.
package msgadapter

import (
	"fmt"
	"io"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset" // registers non-UTF-8 charset decoders
)

// ParseEntity parses a full message (BODY[] or RFC822) into a MIME entity
// tree.
func ParseEntity(r io.Reader) (*message.Entity, error) {
	entity, err := message.Read(r)
	if err != nil {
		return nil, fmt.Errorf("msgadapter: parse entity: %w", err)
	}
	return entity, nil
}

// ParseHeader parses a bare header block (BODY[HEADER] or
// BODY[HEADER.FIELDS (...)] ) without requiring a body to follow.
func ParseHeader(r io.Reader) (message.Header, error) {
	entity, err := message.Read(r)
	if err != nil && entity == nil {
		return message.Header{}, fmt.Errorf("msgadapter: parse header: %w", err)
	}
	return entity.Header, nil
}

// PlainTextPart walks a multipart entity depth-first and returns the bytes
// of the first text/plain part found, for the common "just show me the
// body" case.
func PlainTextPart(entity *message.Entity) ([]byte, bool, error) {
	if mr := entity.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, false, fmt.Errorf("msgadapter: walk multipart: %w", err)
			}
			if body, ok, err := PlainTextPart(part); ok || err != nil {
				return body, ok, err
			}
		}
		return nil, false, nil
	}

	contentType, _, err := entity.Header.ContentType()
	if err != nil {
		contentType = "text/plain"
	}
	if contentType != "text/plain" {
		return nil, false, nil
	}
	body, err := io.ReadAll(entity.Body)
	if err != nil {
		return nil, false, fmt.Errorf("msgadapter: read body: %w", err)
	}
	return body, true, nil
}
