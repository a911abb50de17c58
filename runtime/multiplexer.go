package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"ics-chat/codec"
	"ics-chat/errors"
	"ics-chat/transport"

	"github.com/google/uuid"
)

const (
	DefaultSendTimeout  = 2 * time.Second
	DefaultWriteTimeout = 10 * time.Second

	shutdownGrace = time.Second
)

// Handler turns inbound payloads and disconnects into outbound effects.
// It is only ever called from the multiplexer loop.
type Handler interface {
	Handle(conn ConnID, payload []byte) []Outbound
	Disconnect(conn ConnID, farewell bool) []Outbound
	Load() (sessions, groups int)
}

// Config bounds the per connection queues.
// A full send queue makes the loop wait up to SendTimeout for the writer, and a
// single write stalling past WriteTimeout drops the peer.
type Config struct {
	SendBufferSize  int
	EventBufferSize int
	MaxFrameSize    int
	SendTimeout     time.Duration
	WriteTimeout    time.Duration
}

// Stats is a point in time view of the multiplexer counters.
type Stats struct {
	Accepted      int64
	Active        int64
	FramesIn      int64
	FramesOut     int64
	SlowConsumers int64
	Panics        int64
	Sessions      int64
	Groups        int64
}

type counters struct {
	accepted, active, framesIn, framesOut atomic.Int64
	slow, panics, sessions, groups        atomic.Int64
}

// Multiplexer serves every listener from one event loop.
// Readers and writers run per connection, but the handler and the state it
// owns are only touched by the loop goroutine.
type Multiplexer struct {
	log       *slog.Logger
	cfg       Config
	handler   Handler
	listeners []transport.Listener

	events  chan loopEvent
	stopped chan struct{}
	conns   map[ConnID]*connection
	wg      sync.WaitGroup
	stats   counters
}

type connection struct {
	id   ConnID
	conn transport.Conn
	send chan []byte
}

type loopEvent struct {
	kind    eventKind
	conn    *connection
	id      ConnID
	payload []byte
	err     error
}

type eventKind int

const (
	evAccepted eventKind = iota
	evFrame
	evDropped
	evListenerFailed
)

func NewMultiplexer(log *slog.Logger, cfg Config, handler Handler, listeners ...transport.Listener) *Multiplexer {
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = 64
	}
	if cfg.EventBufferSize <= 0 {
		cfg.EventBufferSize = 256
	}
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = codec.DefaultMaxFrameSize
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	return &Multiplexer{
		log:       log,
		cfg:       cfg,
		handler:   handler,
		listeners: listeners,
		events:    make(chan loopEvent, cfg.EventBufferSize),
		stopped:   make(chan struct{}),
		conns:     make(map[ConnID]*connection),
	}
}

// Run accepts and serves connections until ctx is canceled or a listener fails.
// Listeners are closed when Run returns, so Run must only be called once.
func (m *Multiplexer) Run(ctx context.Context) error {
	for _, ln := range m.listeners {
		m.log.Info("Listening", "addr", ln.Addr().String())
		go m.accept(ln)
	}
	defer m.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt := <-m.events:
			if err := m.handle(evt); err != nil {
				return err
			}
		}
	}
}

func (m *Multiplexer) Stats() Stats {
	return Stats{
		Accepted:      m.stats.accepted.Load(),
		Active:        m.stats.active.Load(),
		FramesIn:      m.stats.framesIn.Load(),
		FramesOut:     m.stats.framesOut.Load(),
		SlowConsumers: m.stats.slow.Load(),
		Panics:        m.stats.panics.Load(),
		Sessions:      m.stats.sessions.Load(),
		Groups:        m.stats.groups.Load(),
	}
}

func (m *Multiplexer) handle(evt loopEvent) error {
	switch evt.kind {
	case evAccepted:
		m.open(evt.conn)
	case evFrame:
		if _, ok := m.conns[evt.id]; !ok {
			return nil
		}
		m.stats.framesIn.Add(1)
		m.apply(m.dispatch(evt.id, func() []Outbound { return m.handler.Handle(evt.id, evt.payload) }))
	case evDropped:
		if _, ok := m.conns[evt.id]; !ok {
			return nil
		}
		if stderrors.Is(evt.err, os.ErrDeadlineExceeded) {
			m.stats.slow.Add(1)
		}
		m.logDrop(evt.id, evt.err)
		m.apply(m.dispatch(evt.id, func() []Outbound { return m.handler.Disconnect(evt.id, false) }))
	case evListenerFailed:
		return fmt.Errorf("accept failed: %w", evt.err)
	}
	sessions, groups := m.handler.Load()
	m.stats.sessions.Store(int64(sessions))
	m.stats.groups.Store(int64(groups))
	return nil
}

// dispatch runs fn and treats a panic as the disconnect of that connection.
func (m *Multiplexer) dispatch(id ConnID, fn func() []Outbound) (out []Outbound) {
	defer func() {
		if r := recover(); r != nil {
			m.stats.panics.Add(1)
			m.log.Error("Recovered from dispatch panic", "conn", id, "panic", r)
			out = m.cleanup(id)
		}
	}()
	return fn()
}

// cleanup disconnects id after a panic. If the handler panics again the
// connection is still closed so the loop keeps serving everyone else.
func (m *Multiplexer) cleanup(id ConnID) (out []Outbound) {
	defer func() {
		if r := recover(); r != nil {
			m.stats.panics.Add(1)
			m.log.Error("Recovered from cleanup panic", "conn", id, "panic", r)
			out = []Outbound{{To: id, Close: true}}
		}
	}()
	return m.handler.Disconnect(id, false)
}

func (m *Multiplexer) apply(out []Outbound) {
	var slow []*connection
	for _, o := range out {
		c, ok := m.conns[o.To]
		if !ok {
			continue
		}
		if o.Payload != nil && !slices.Contains(slow, c) && !m.enqueue(c, o.Payload) {
			slow = append(slow, c)
		}
		if o.Close {
			m.release(c)
		}
	}
	for _, c := range slow {
		if _, ok := m.conns[c.id]; !ok {
			continue
		}
		m.stats.slow.Add(1)
		m.log.Warn("Disconnecting slow consumer", "conn", c.id, "error", errors.ErrSlowConsumer)
		m.apply(m.dispatch(c.id, func() []Outbound { return m.handler.Disconnect(c.id, false) }))
	}
}

// enqueue waits up to SendTimeout for room in the send queue. The writer keeps
// draining it, so only a peer whose writes are stalled runs the clock out.
func (m *Multiplexer) enqueue(c *connection, payload []byte) bool {
	frame, err := codec.Encode(payload)
	if err != nil {
		m.log.Error("Dropping outbound frame", "conn", c.id, "error", err)
		return true
	}
	select {
	case c.send <- frame:
		return true
	default:
	}
	timer := time.NewTimer(m.cfg.SendTimeout)
	defer timer.Stop()
	select {
	case c.send <- frame:
		return true
	case <-timer.C:
		return false
	}
}

func (m *Multiplexer) open(c *connection) {
	m.conns[c.id] = c
	m.stats.accepted.Add(1)
	m.stats.active.Add(1)
	m.log.Debug("Connection accepted", "conn", c.id, "remote", c.conn.RemoteAddr().String())
	m.wg.Add(2)
	go m.read(c)
	go m.write(c)
}

// release forgets c and lets its writer flush what is queued before closing.
func (m *Multiplexer) release(c *connection) {
	delete(m.conns, c.id)
	close(c.send)
	m.stats.active.Add(-1)
}

func (m *Multiplexer) accept(ln transport.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !stderrors.Is(err, net.ErrClosed) {
				m.post(loopEvent{kind: evListenerFailed, err: err})
			}
			return
		}
		c := &connection{
			id:   ConnID(uuid.NewString()),
			conn: conn,
			send: make(chan []byte, m.cfg.SendBufferSize),
		}
		if !m.post(loopEvent{kind: evAccepted, conn: c}) {
			_ = conn.Close()
			return
		}
	}
}

func (m *Multiplexer) read(c *connection) {
	defer m.wg.Done()
	reader := codec.NewReader(c.conn, m.cfg.MaxFrameSize)
	for {
		payload, err := reader.ReadFrame()
		if err != nil {
			m.post(loopEvent{kind: evDropped, id: c.id, err: err})
			return
		}
		if !m.post(loopEvent{kind: evFrame, id: c.id, payload: payload}) {
			return
		}
	}
}

func (m *Multiplexer) write(c *connection) {
	defer m.wg.Done()
	defer c.conn.Close()
	failed := false
	for frame := range c.send {
		if failed {
			continue
		}
		if err := c.conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout)); err != nil {
			m.log.Debug("Cannot set write deadline", "conn", c.id, "error", err)
		}
		if _, err := c.conn.Write(frame); err != nil {
			failed = true
			// Posted before Close so the loop sees the write error, not the reader's.
			m.post(loopEvent{kind: evDropped, id: c.id, err: err})
			_ = c.conn.Close()
			continue
		}
		m.stats.framesOut.Add(1)
	}
}

// post hands evt to the loop, giving up once the loop has stopped.
func (m *Multiplexer) post(evt loopEvent) bool {
	select {
	case <-m.stopped:
		return false
	default:
	}
	select {
	case m.events <- evt:
		return true
	case <-m.stopped:
		return false
	}
}

func (m *Multiplexer) logDrop(id ConnID, err error) {
	switch {
	case stderrors.Is(err, io.EOF), stderrors.Is(err, net.ErrClosed):
		m.log.Debug("Peer closed connection", "conn", id)
	case stderrors.Is(err, os.ErrDeadlineExceeded):
		m.log.Warn("Disconnecting stalled peer", "conn", id, "error", errors.ErrSlowConsumer)
	case stderrors.Is(err, errors.ErrFrameTooLarge), stderrors.Is(err, errors.ErrIncompleteFrame):
		m.log.Warn("Framing error", "conn", id, "error", err)
	default:
		m.log.Warn("Connection failed", "conn", id, "error", err)
	}
}

func (m *Multiplexer) shutdown() {
	close(m.stopped)
	for _, ln := range m.listeners {
		_ = ln.Close()
	}
	for drained := false; !drained; {
		select {
		case evt := <-m.events:
			if evt.kind == evAccepted {
				_ = evt.conn.conn.Close()
			}
		default:
			drained = true
		}
	}
	open := make([]*connection, 0, len(m.conns))
	for _, c := range m.conns {
		open = append(open, c)
		m.release(c)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		m.log.Warn("Forcing connections closed", "count", len(open))
		for _, c := range open {
			_ = c.conn.Close()
		}
	}
	m.log.Info("Multiplexer stopped")
}
