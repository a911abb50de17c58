package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"ics-chat/codec"
	"ics-chat/domain/chat"
	"ics-chat/protocol"
	"ics-chat/transport"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type testPeer struct {
	req    *require.Assertions
	conn   transport.Conn
	events chan protocol.Event
}

func dialPeer(t *testing.T, address string) *testPeer {
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	conn, err := transport.Dial(ctx, address)
	req.NoError(err)
	t.Cleanup(func() { _ = conn.Close() })

	p := &testPeer{req: req, conn: conn, events: make(chan protocol.Event, 32)}
	go func() {
		defer close(p.events)
		reader := codec.NewReader(conn, codec.DefaultMaxFrameSize)
		for {
			payload, err := reader.ReadFrame()
			if err != nil {
				return
			}
			evt, err := protocol.ParseEvent(payload)
			if err != nil {
				return
			}
			p.events <- evt
		}
	}()
	return p
}

func (p *testPeer) send(env protocol.Envelope) {
	payload, err := protocol.Marshal(env)
	p.req.NoError(err)
	p.req.NoError(codec.WriteFrame(p.conn, payload))
}

func (p *testPeer) next() protocol.Event {
	select {
	case evt, ok := <-p.events:
		p.req.True(ok, "connection closed while waiting for an event")
		return evt
	case <-time.After(waitFor):
		p.req.Fail("timed out waiting for an event")
		return nil
	}
}

func (p *testPeer) silent() {
	select {
	case evt, ok := <-p.events:
		if ok {
			p.req.Failf("unexpected event", "%#v", evt)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func (p *testPeer) closed() {
	for {
		select {
		case _, ok := <-p.events:
			if !ok {
				return
			}
		case <-time.After(waitFor):
			p.req.Fail("connection was not closed")
			return
		}
	}
}

func (p *testPeer) login(name string) {
	p.send(protocol.Login{Name: name}.Envelope())
	p.req.Equal(protocol.LoginResult{Status: protocol.StatusOK, Message: fmt.Sprintf("Welcome %s!", name)}, p.next())
}

type server struct {
	mux     *Multiplexer
	tcpAddr string
	wsURL   string
}

func startServer(t *testing.T, wrap func(*Router) Handler) *server {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	tcp, err := transport.ListenTCP("127.0.0.1:0")
	req.NoError(err)
	ws, err := transport.ListenWebSocket("127.0.0.1:0", transport.DefaultWebSocketPath)
	req.NoError(err)

	router := NewRouter(log, NewSessionRegistry(), chat.NewDirectory())
	var handler Handler = router
	if wrap != nil {
		handler = wrap(router)
	}
	mux := NewMultiplexer(log, Config{MaxFrameSize: 1024}, handler, tcp, ws)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mux.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		req.NoError(<-done)
	})
	return &server{
		mux:     mux,
		tcpAddr: tcp.Addr().String(),
		wsURL:   fmt.Sprintf("ws://%s%s", ws.Addr(), transport.DefaultWebSocketPath),
	}
}

// Scenario: a private exchange reaches the peer and nobody else.
func TestMultiplexer_PrivateExchange(t *testing.T) {
	req := require.New(t)
	srv := startServer(t, nil)
	alice, bob, carol := dialPeer(t, srv.tcpAddr), dialPeer(t, srv.tcpAddr), dialPeer(t, srv.tcpAddr)
	alice.login("alice")
	bob.login("bob")
	carol.login("carol")

	// When alice opens a chat with bob and says hello
	alice.send(protocol.Connect{To: "bob"}.Envelope())
	req.True(alice.next().(protocol.ConnectResult).OK())
	req.Equal(protocol.PeerConnected{From: "alice", Message: "Connected to alice"}, bob.next())
	alice.send(protocol.Exchange{Message: "hello", Timestamp: "12:00"}.Envelope())

	// Then bob gets it and carol hears nothing
	req.Equal(protocol.Incoming{From: "alice", Message: "hello", Timestamp: "12:00"}, bob.next())
	carol.silent()
	alice.silent()
}

// Scenario: a member of a group drops without saying goodbye.
func TestMultiplexer_AbruptDisconnect(t *testing.T) {
	req := require.New(t)
	srv := startServer(t, nil)
	a, b, c := dialPeer(t, srv.tcpAddr), dialPeer(t, srv.tcpAddr), dialPeer(t, srv.tcpAddr)
	a.login("a")
	b.login("b")
	c.login("c")
	a.send(protocol.CreateGroup{Members: []string{"b", "c"}}.Envelope())
	for _, p := range []*testPeer{a, b, c} {
		req.IsType(protocol.GroupCreated{}, p.next())
	}

	// When a's socket closes
	req.NoError(a.conn.Close())

	// Then b and c are told and keep chatting
	req.Equal(protocol.Disconnected{Message: "a left"}, b.next())
	req.Equal(protocol.Disconnected{Message: "a left"}, c.next())
	b.send(protocol.Exchange{Message: "still here"}.Envelope())
	req.Equal(protocol.Incoming{From: "b", Message: "still here"}, c.next())

	// And the name is free again
	again := dialPeer(t, srv.tcpAddr)
	again.login("a")
}

func TestMultiplexer_Quit(t *testing.T) {
	req := require.New(t)
	srv := startServer(t, nil)
	alice := dialPeer(t, srv.tcpAddr)
	alice.login("alice")

	alice.send(protocol.Quit{}.Envelope())

	req.Equal(protocol.Disconnected{Message: "Goodbye alice"}, alice.next())
	alice.closed()
}

// Scenario: an oversized frame costs only the offending connection.
func TestMultiplexer_OversizedFrame(t *testing.T) {
	req := require.New(t)
	srv := startServer(t, nil)
	alice, bob := dialPeer(t, srv.tcpAddr), dialPeer(t, srv.tcpAddr)
	alice.login("alice")
	bob.login("bob")
	alice.send(protocol.Connect{To: "bob"}.Envelope())
	req.True(alice.next().(protocol.ConnectResult).OK())
	bob.next()

	// When alice declares a frame above the limit
	_, err := alice.conn.Write([]byte{0x00, 0x10, 0x00, 0x00})
	req.NoError(err)

	// Then alice is dropped and bob is freed
	alice.closed()
	req.Equal(protocol.Disconnected{Message: "alice left"}, bob.next())
	bob.send(protocol.Who{}.Envelope())
	req.Equal(protocol.UserList{Users: []string{}}, bob.next())
}

func TestMultiplexer_WebSocketAndTCPPeers(t *testing.T) {
	req := require.New(t)
	srv := startServer(t, nil)
	alice, bob := dialPeer(t, srv.wsURL), dialPeer(t, srv.tcpAddr)
	alice.login("alice")
	bob.login("bob")

	bob.send(protocol.Connect{To: "alice"}.Envelope())
	req.True(bob.next().(protocol.ConnectResult).OK())
	req.IsType(protocol.PeerConnected{}, alice.next())
	alice.send(protocol.Exchange{Message: "over websocket"}.Envelope())

	req.Equal(protocol.Incoming{From: "alice", Message: "over websocket"}, bob.next())
}

type panicOnBoom struct {
	*Router
}

func (h panicOnBoom) Handle(conn ConnID, payload []byte) []Outbound {
	if string(payload) == "boom" {
		panic("boom")
	}
	return h.Router.Handle(conn, payload)
}

func TestMultiplexer_RecoversFromPanic(t *testing.T) {
	req := require.New(t)
	srv := startServer(t, func(r *Router) Handler { return panicOnBoom{Router: r} })
	alice, bob := dialPeer(t, srv.tcpAddr), dialPeer(t, srv.tcpAddr)
	alice.login("alice")
	bob.login("bob")

	// When handling alice's frame panics
	req.NoError(codec.WriteFrame(alice.conn, []byte("boom")))

	// Then only alice is dropped
	alice.closed()
	bob.send(protocol.Who{}.Envelope())
	req.Equal(protocol.UserList{Users: []string{}}, bob.next())
	req.Equal(int64(1), srv.mux.Stats().Panics)
}

// doublePanic also panics while cleaning up a connection that already panicked.
type doublePanic struct {
	*Router
	poisoned map[ConnID]bool
}

func (h doublePanic) Handle(conn ConnID, payload []byte) []Outbound {
	if string(payload) == "boom" {
		h.poisoned[conn] = true
		panic("boom")
	}
	return h.Router.Handle(conn, payload)
}

func (h doublePanic) Disconnect(conn ConnID, farewell bool) []Outbound {
	if h.poisoned[conn] {
		panic("cleanup boom")
	}
	return h.Router.Disconnect(conn, farewell)
}

func TestMultiplexer_RecoversFromPanicDuringCleanup(t *testing.T) {
	req := require.New(t)
	srv := startServer(t, func(r *Router) Handler {
		return doublePanic{Router: r, poisoned: make(map[ConnID]bool)}
	})
	alice, bob := dialPeer(t, srv.tcpAddr), dialPeer(t, srv.tcpAddr)
	bob.login("bob")

	// When both the handler and the cleanup of alice's connection panic
	req.NoError(codec.WriteFrame(alice.conn, []byte("boom")))

	// Then alice is still closed and the loop keeps serving bob
	alice.closed()
	req.Equal(int64(2), srv.mux.Stats().Panics)
	bob.send(protocol.Who{}.Envelope())
	req.Equal(protocol.UserList{Users: []string{}}, bob.next())
	req.Eventually(func() bool { return srv.mux.Stats().Active == 1 }, waitFor, 10*time.Millisecond)
}

type pipeListener struct {
	conns chan transport.Conn
	done  chan struct{}
	once  sync.Once
}

func newPipeListener() *pipeListener {
	return &pipeListener{conns: make(chan transport.Conn), done: make(chan struct{})}
}

func (l *pipeListener) Accept() (transport.Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.done:
		return nil, net.ErrClosed
	}
}

func (l *pipeListener) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}

func (l *pipeListener) Addr() net.Addr { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)} }

// flood sends a burst of payloads to the connection of every incoming frame.
type flood struct {
	*Router
	mu      sync.Mutex
	dropped []ConnID
}

func (h *flood) Handle(conn ConnID, _ []byte) []Outbound {
	out := make([]Outbound, 0, 8)
	for i := 0; i < 8; i++ {
		out = append(out, Outbound{To: conn, Payload: []byte(fmt.Sprintf("%d", i))})
	}
	return out
}

func (h *flood) Disconnect(conn ConnID, farewell bool) []Outbound {
	h.mu.Lock()
	h.dropped = append(h.dropped, conn)
	h.mu.Unlock()
	return h.Router.Disconnect(conn, farewell)
}

func TestMultiplexer_SlowConsumer(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	handler := &flood{Router: NewRouter(log, NewSessionRegistry(), chat.NewDirectory())}
	ln := newPipeListener()
	mux := NewMultiplexer(log, Config{
		SendBufferSize: 1,
		SendTimeout:    50 * time.Millisecond,
		WriteTimeout:   time.Second,
	}, handler, ln)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mux.Run(ctx) }()
	defer func() {
		cancel()
		req.NoError(<-done)
	}()

	// Given a peer that writes one frame and never reads
	server, client := net.Pipe()
	defer client.Close()
	ln.conns <- server
	go func() { _ = codec.WriteFrame(client, []byte(`{"action":"who"}`)) }()

	// Then its queue stays full past the send timeout and it is disconnected once
	req.Eventually(func() bool { return mux.Stats().SlowConsumers == 1 }, waitFor, 10*time.Millisecond)
	req.Eventually(func() bool { return mux.Stats().Active == 0 }, waitFor, 10*time.Millisecond)
	handler.mu.Lock()
	defer handler.mu.Unlock()
	req.Len(handler.dropped, 1)
}

func TestMultiplexer_StalledWrite(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	handler := &flood{Router: NewRouter(log, NewSessionRegistry(), chat.NewDirectory())}
	ln := newPipeListener()
	mux := NewMultiplexer(log, Config{WriteTimeout: 50 * time.Millisecond}, handler, ln)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mux.Run(ctx) }()
	defer func() {
		cancel()
		req.NoError(<-done)
	}()

	// Given a peer with room in its queue that never reads
	server, client := net.Pipe()
	defer client.Close()
	ln.conns <- server
	go func() { _ = codec.WriteFrame(client, []byte(`{"action":"who"}`)) }()

	// Then the blocked write hits its deadline and the peer is dropped
	req.Eventually(func() bool { return mux.Stats().SlowConsumers == 1 }, waitFor, 10*time.Millisecond)
	req.Eventually(func() bool { return mux.Stats().Active == 0 }, waitFor, 10*time.Millisecond)
	req.Zero(mux.Stats().FramesOut)
	handler.mu.Lock()
	defer handler.mu.Unlock()
	req.Len(handler.dropped, 1)
}

// Scenario: one sender bursts far past the send queue size to a peer that keeps reading.
func TestMultiplexer_BurstReachesReadingPeer(t *testing.T) {
	req := require.New(t)
	srv := startServer(t, nil)
	alice, bob := dialPeer(t, srv.tcpAddr), dialPeer(t, srv.tcpAddr)
	alice.login("alice")
	bob.login("bob")
	alice.send(protocol.Connect{To: "bob"}.Envelope())
	req.True(alice.next().(protocol.ConnectResult).OK())
	bob.next()

	// When alice sends 500 messages without waiting
	const burst = 500
	sent := make(chan error, 1)
	go func() {
		for i := 0; i < burst; i++ {
			payload, err := protocol.Marshal(protocol.Exchange{Message: fmt.Sprintf("burst %d", i)}.Envelope())
			if err == nil {
				err = codec.WriteFrame(alice.conn, payload)
			}
			if err != nil {
				sent <- err
				return
			}
		}
		sent <- nil
	}()

	// Then bob receives every one of them in order and nobody is dropped
	for i := 0; i < burst; i++ {
		req.Equal(protocol.Incoming{From: "alice", Message: fmt.Sprintf("burst %d", i)}, bob.next())
	}
	req.NoError(<-sent)
	req.Zero(srv.mux.Stats().SlowConsumers)
	alice.send(protocol.Who{}.Envelope())
	req.Equal(protocol.UserList{Users: []string{"bob"}}, alice.next())
}
