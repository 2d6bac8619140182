package imap

import "net"

// newTestTokenizer builds a Tokenizer that reads from a byteStream fed by
// the fixed string wire, via an in-memory net.Pipe. The writer goroutine
// exits once wire has been delivered; nothing reads the engine's writes.
func newTestTokenizer(wire string) *Tokenizer {
	server, client := net.Pipe()
	go func() {
		client.Write([]byte(wire))
		client.Close()
	}()
	s := newByteStream(server)
	return newTokenizer(s, newTokenCache(tokenCacheCapacity))
}

// pipePair returns two connected net.Conn: one for the Engine under test,
// one for a goroutine that scripts fake server behaviour.
func pipePair() (engineSide net.Conn, serverSide net.Conn) {
	return net.Pipe()
}

// newTestEngine builds an Engine over one side of an in-memory pipe, for
// handler unit tests that need eng.folders/eng.mu but drive a Tokenizer
// built separately from a fixture string rather than the engine's own.
func newTestEngine() *Engine {
	client, _ := net.Pipe()
	return NewEngine(client, NoopProtocolLogger{})
}
