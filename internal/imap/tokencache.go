package imap

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// tokenCacheCapacity bounds the interning LRU (component C). IMAP servers
// repeat the same atoms (FETCH, EXISTS, flag names) thousands of times per
// session; interning avoids a per-token allocation for each repeat.
const tokenCacheCapacity = 128

type cacheKey struct {
	kind TokenKind
	raw  string
}

type lruNode struct {
	key        cacheKey
	value      string
	prev, next *lruNode
}

// tokenCache is a fixed-capacity, size-bounded LRU keyed by (token kind,
// raw bytes). On a miss past capacity the tail node is recycled in place
// (its key/value re-initialised) instead of allocating a new node, per the
// eviction contract in spec §9.
type tokenCache struct {
	capacity int
	nodes    map[cacheKey]*lruNode
	head     *lruNode // sentinel; head.next is the most-recently-used node
	tail     *lruNode // sentinel; tail.prev is the least-recently-used node
	size     int
}

func newTokenCache(capacity int) *tokenCache {
	c := &tokenCache{
		capacity: capacity,
		nodes:    make(map[cacheKey]*lruNode, capacity),
	}
	c.head = &lruNode{}
	c.tail = &lruNode{}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

func (c *tokenCache) unlink(n *lruNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (c *tokenCache) pushFront(n *lruNode) {
	n.next = c.head.next
	n.prev = c.head
	c.head.next.prev = n
	c.head.next = n
}

// intern decodes raw into a string and returns a cached copy, moving it to
// the front (head) on hit. Decoding first attempts UTF-8; on failure it
// falls back to ISO-8859-1 (Latin-1), which never fails since every byte
// value maps to a code point.
func (c *tokenCache) intern(kind TokenKind, raw []byte) string {
	key := cacheKey{kind: kind, raw: string(raw)}

	if n, ok := c.nodes[key]; ok {
		c.unlink(n)
		c.pushFront(n)
		return n.value
	}

	value := decodeTokenBytes(raw)

	var n *lruNode
	if c.size >= c.capacity {
		n = c.tail.prev
		c.unlink(n)
		delete(c.nodes, n.key)
		n.key = key
		n.value = value
	} else {
		n = &lruNode{key: key, value: value}
		c.size++
	}

	c.nodes[key] = n
	c.pushFront(n)
	return value
}

// decodeTokenBytes decodes raw as UTF-8; on invalid UTF-8 it falls back to
// an 8-bit single-byte (ISO-8859-1) decode so that no legal byte sequence
// ever fails to produce a string.
func decodeTokenBytes(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		// charmap.ISO8859_1 never actually errors (every byte is a valid
		// code point in Latin-1), but keep a safe fallback regardless.
		return string(raw)
	}
	return string(out)
}
