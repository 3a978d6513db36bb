// Package libresplit sends timer control commands to a LibreSplit instance
// listening on a local Unix domain socket.
package libresplit

import (
	"encoding/binary"
	"fmt"
	"net"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// SocketName is the well-known socket file name inside the runtime dir.
const SocketName = "libresplit.sock"

// Command is a timer control code as LibreSplit defines it.
type Command uint32

const (
	CmdStartSplit Command = 0
	CmdStopReset  Command = 1
)

func (c Command) String() string {
	switch c {
	case CmdStartSplit:
		return "start-split"
	case CmdStopReset:
		return "stop-reset"
	default:
		return fmt.Sprintf("command(%d)", uint32(c))
	}
}

// SocketPath resolves the socket location: $XDG_RUNTIME_DIR/libresplit.sock,
// falling back to /run/user/<uid> when the variable is unset. Resolve once
// at startup and hand the result to NewClient; never per send.
func SocketPath() string {
	return filepath.Join(xdg.RuntimeDir, SocketName)
}

const dialTimeout = 2 * time.Second

// Client dispatches commands over a fresh connection per call. LibreSplit
// never answers, so a send is fire-and-forget: write, close, done.
type Client struct {
	path    string
	timeout time.Duration
}

func NewClient(path string) *Client {
	return &Client{path: path, timeout: dialTimeout}
}

// Send writes one 8-byte command frame: a big-endian length field (always 4)
// followed by the little-endian command code. Errors carry the target path
// so the caller can log them; they must not stall the detection loop.
func (c *Client) Send(cmd Command) error {
	conn, err := net.DialTimeout("unix", c.path, c.timeout)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.path, err)
	}
	defer conn.Close()

	var msg [8]byte
	binary.BigEndian.PutUint32(msg[0:4], 4)
	binary.LittleEndian.PutUint32(msg[4:8], uint32(cmd))

	if err := conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("deadline %s: %w", c.path, err)
	}
	if _, err := conn.Write(msg[:]); err != nil {
		return fmt.Errorf("send %v to %s: %w", cmd, c.path, err)
	}
	return nil
}
