// Package transport hides whether a peer reaches the server over raw TCP or
// over a WebSocket. Both are exposed as byte streams carrying frames.
package transport

import (
	"context"
	"io"
	"net"
	"strings"
	"time"
)

// Conn is a bidirectional byte stream to one peer.
// A Write blocked past the write deadline fails with os.ErrDeadlineExceeded.
type Conn interface {
	io.ReadWriteCloser
	RemoteAddr() net.Addr
	SetWriteDeadline(t time.Time) error
}

// Listener yields accepted connections until it is closed.
type Listener interface {
	Accept() (Conn, error)
	Close() error
	Addr() net.Addr
}

func IsWebSocketURL(address string) bool {
	return strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://")
}

// Dial connects to a TCP host:port or to a ws:// or wss:// URL.
func Dial(ctx context.Context, address string) (Conn, error) {
	if IsWebSocketURL(address) {
		return DialWebSocket(ctx, address)
	}
	return DialTCP(ctx, address)
}
