package wire

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
)

// Conn wraps a net.Conn with a line-buffered reader and a writer guarded
// by a mutex, so concurrent writers (the session's own request handling
// and an async push triggered from a peer's sync record) never interleave
// partial JSON lines on the wire.
type Conn struct {
	raw net.Conn
	r   *bufio.Reader
	mu  sync.Mutex
}

// NewConn wraps an already-established connection.
func NewConn(c net.Conn) *Conn {
	return &Conn{raw: c, r: bufio.NewReader(c)}
}

// Raw returns the underlying net.Conn, mainly so callers can read
// RemoteAddr() or Close() it.
func (c *Conn) Raw() net.Conn { return c.raw }

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.raw.Close() }

// ReadFrame reads the next newline-delimited JSON object and decodes it
// into v. It returns the underlying io error (including io.EOF) unchanged
// so callers can distinguish clean disconnects from malformed frames.
func (c *Conn) ReadFrame(v interface{}) error {
	line, err := c.r.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return err
	}
	if jsonErr := json.Unmarshal(line, v); jsonErr != nil {
		return fmt.Errorf("malformed frame: %w", jsonErr)
	}
	return nil
}

// ReadRaw reads the next line and returns the raw bytes (without decoding),
// for callers that need to peek at a frame's shape before picking a
// concrete struct to unmarshal into (see the subscriber receiver's demux).
func (c *Conn) ReadRaw() ([]byte, error) {
	line, err := c.r.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil, err
	}
	return line, nil
}

// WriteFrame marshals v to JSON and writes it as one line, under the
// connection's write lock.
func (c *Conn) WriteFrame(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.raw.Write(b)
	return err
}
