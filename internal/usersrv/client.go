// internal/usersrv/client.go
package usersrv

import (
	"bufio"
	"net"
	"sync"
)

// Client is a synchronous connection to the coordinator. Calls are one
// request, one reply; the mutex keeps concurrent callers from interleaving
// frames on the stream.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	r      *bufio.Reader
	sealer *Sealer
}

// Dial connects to the coordinator. A nil sealer means a plaintext transport,
// which is only appropriate for sockets with filesystem permissions.
func Dial(network, addr string, sealer *Sealer) (*Client, error) {
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, r: bufio.NewReader(conn), sealer: sealer}, nil
}

// NewClient wraps an existing connection, mainly for tests over net.Pipe.
func NewClient(conn net.Conn, sealer *Sealer) *Client {
	return &Client{conn: conn, r: bufio.NewReader(conn), sealer: sealer}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Call performs one round trip. The returned status is the coordinator's
// error code (0 on success); err reports transport failures only.
func (c *Client) Call(op Op, req, reply any) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := writeFrame(c.conn, op, req, c.sealer); err != nil {
		return 0, err
	}
	return readReply(c.r, reply, c.sealer)
}
