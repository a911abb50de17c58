package client

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"ics-chat/codec"
	"ics-chat/protocol"
	"ics-chat/transport"
)

const DefaultQueueSize = 128

// Session owns the connection to the server. A background goroutine reads
// frames and queues decoded events; the presentation loop calls Drain to hand
// them to the Machine. Writes may come from any goroutine.
type Session struct {
	log    *slog.Logger
	conn   transport.Conn
	events chan protocol.Event
	closed chan struct{}
	done   chan struct{}
	// lost is written by the reader before it closes events.
	lost ConnectionLost

	writeMu   sync.Mutex
	closeOnce sync.Once
	doneOnce  sync.Once
}

// Dial connects to a TCP host:port or a ws:// URL and starts reading.
func Dial(ctx context.Context, log *slog.Logger, address string, maxFrameSize, queueSize int) (*Session, error) {
	conn, err := transport.Dial(ctx, address)
	if err != nil {
		return nil, err
	}
	return NewSession(log, conn, maxFrameSize, queueSize), nil
}

func NewSession(log *slog.Logger, conn transport.Conn, maxFrameSize, queueSize int) *Session {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	s := &Session{
		log:    log,
		conn:   conn,
		events: make(chan protocol.Event, queueSize),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.read(codec.NewReader(conn, maxFrameSize))
	return s
}

func (s *Session) Send(env protocol.Envelope) error {
	payload, err := protocol.Marshal(env)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return codec.WriteFrame(s.conn, payload)
}

// Drain feeds every queued event to m without blocking and returns how many
// were processed. Once the end of the stream is reached, m gets exactly one
// ConnectionLost and Done is closed.
func (s *Session) Drain(m *Machine) int {
	n := 0
	for {
		select {
		case evt, ok := <-s.events:
			if !ok {
				s.doneOnce.Do(func() {
					m.Process(s.lost)
					n++
					close(s.done)
				})
				return n
			}
			m.Process(evt)
			n++
		default:
			return n
		}
	}
}

// Done is closed after the connection ended and its last event was drained.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close shuts the connection, which unblocks the reader.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.conn.Close()
	})
	return err
}

func (s *Session) read(reader *codec.Reader) {
	defer close(s.events)
	for {
		payload, err := reader.ReadFrame()
		if err != nil {
			s.lost = ConnectionLost{Err: s.lostReason(err)}
			return
		}
		evt, err := protocol.ParseEvent(payload)
		if err != nil {
			s.log.Warn("Skipping server frame", "error", err)
			continue
		}
		if !s.push(evt) {
			return
		}
	}
}

func (s *Session) push(evt protocol.Event) bool {
	select {
	case s.events <- evt:
		return true
	case <-s.closed:
		return false
	}
}

// lostReason is nil for an orderly end of stream or a local Close.
func (s *Session) lostReason(err error) error {
	select {
	case <-s.closed:
		return nil
	default:
	}
	if stderrors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
