package e2e

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"ics-chat/client"
	"ics-chat/codec"
	"ics-chat/domain/chat"
	"ics-chat/protocol"
	"ics-chat/runtime"
	"ics-chat/transport"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type BaseChatSuite struct {
	suite.Suite
	Config  Config
	timeout time.Duration
	addr    string
	cancel  context.CancelFunc
	stopped chan error
}

// SetupSuite loads the configuration and starts a server unless one is given.
func (s *BaseChatSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.timeout, err = time.ParseDuration(s.Config.Timeout)
	s.Require().NoError(err)

	if s.Config.ServerAddr != "" {
		s.addr = s.Config.ServerAddr
		return
	}
	log := logs.GetLoggerFromLevel(slog.LevelWarn)
	ln, err := transport.ListenTCP("127.0.0.1:0")
	s.Require().NoError(err)
	router := runtime.NewRouter(log, runtime.NewSessionRegistry(), chat.NewDirectory())
	mux := runtime.NewMultiplexer(log, runtime.Config{}, router, ln)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.stopped = make(chan error, 1)
	s.addr = ln.Addr().String()
	go func() { s.stopped <- mux.Run(ctx) }()
}

func (s *BaseChatSuite) TearDownSuite() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.Require().NoError(<-s.stopped)
}

// Step prints a colorized header for a scenario step.
func (s *BaseChatSuite) Step(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// User is a client session with its machine, observed through a recording presenter.
type User struct {
	suite   *BaseChatSuite
	name    string
	session *client.Session
	machine *client.Machine
	seen    *recorder
}

// Login connects a new user and waits for the welcome.
func (s *BaseChatSuite) Login(name string) *User {
	u := s.Connect(name)
	env, err := u.machine.Login(name)
	s.Require().NoError(err)
	u.Send(env)
	s.Require().Equal(protocol.LoginResult{Status: protocol.StatusOK, Message: fmt.Sprintf("Welcome %s!", name)}, u.Next())
	return u
}

// Connect opens a connection without logging in.
func (s *BaseChatSuite) Connect(label string) *User {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	log := logs.GetLoggerFromLevel(slog.LevelWarn)
	session, err := client.Dial(ctx, log, s.addr, codec.DefaultMaxFrameSize, client.DefaultQueueSize)
	s.Require().NoError(err, "Failed to connect to chat server at "+s.addr)
	seen := &recorder{}
	u := &User{suite: s, name: label, session: session, machine: client.NewMachine(log, seen), seen: seen}
	s.T().Cleanup(func() { _ = session.Close() })
	return u
}

func (u *User) Send(env protocol.Envelope) {
	u.suite.T().Logf("%s -> %s", u.name, env.Action)
	u.suite.Require().NoError(u.session.Send(env))
}

// Next drains the session until the presenter saw one more event.
func (u *User) Next() protocol.Event {
	deadline := time.Now().Add(u.suite.timeout)
	for time.Now().Before(deadline) {
		u.session.Drain(u.machine)
		if evt, ok := u.seen.pop(); ok {
			return evt
		}
		time.Sleep(5 * time.Millisecond)
	}
	u.suite.Require().Failf("timeout", "%s received nothing", u.name)
	return nil
}

// Quiet asserts nothing arrives for a short while.
func (u *User) Quiet() {
	time.Sleep(100 * time.Millisecond)
	u.session.Drain(u.machine)
	evt, ok := u.seen.pop()
	u.suite.Require().False(ok, "%s unexpectedly received %#v", u.name, evt)
}
