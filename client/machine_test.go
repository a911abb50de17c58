package client

import (
	"log/slog"
	"testing"
	"time"

	"ics-chat/errors"
	"ics-chat/mocks"
	"ics-chat/protocol"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newMachine(t *testing.T) (*Machine, *mocks.MockPresenter) {
	ctrl := gomock.NewController(t)
	presenter := mocks.NewMockPresenter(ctrl)
	m := NewMachine(logs.GetLoggerFromLevel(slog.LevelDebug), presenter)
	m.now = func() time.Time { return time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC) }
	return m, presenter
}

func loggedIn(t *testing.T, m *Machine, presenter *mocks.MockPresenter, name string) {
	req := require.New(t)
	_, err := m.Login(name)
	req.NoError(err)
	ok := protocol.LoginResult{Status: protocol.StatusOK, Message: "Welcome " + name + "!"}
	presenter.EXPECT().OnLoginResult(ok)
	m.Process(ok)
	req.Equal(LoggedIn, m.State())
}

func TestMachine_Login(t *testing.T) {
	req := require.New(t)
	m, presenter := newMachine(t)

	env, err := m.Login(" alice ")
	req.NoError(err)
	req.Equal(protocol.Envelope{Action: protocol.ActionLogin, Name: "alice"}, env)

	// When the server accepts
	ok := protocol.LoginResult{Status: protocol.StatusOK, Message: "Welcome alice!"}
	presenter.EXPECT().OnLoginResult(ok)
	m.Process(ok)

	// Then the machine is logged in as alice
	req.Equal(LoggedIn, m.State())
	req.Equal("alice", m.Identity())
	_, err = m.Login("alice")
	req.ErrorIs(err, errors.ErrAlreadyLoggedIn)
}

func TestMachine_LoginRejected(t *testing.T) {
	req := require.New(t)
	m, presenter := newMachine(t)
	_, err := m.Login("alice")
	req.NoError(err)

	dup := protocol.LoginResult{Status: protocol.StatusDuplicate, Message: "Name already taken"}
	presenter.EXPECT().OnLoginResult(dup)
	m.Process(dup)

	req.Equal(Offline, m.State())
	req.Empty(m.Identity())
	_, err = m.Login("   ")
	req.ErrorIs(err, errors.ErrEmptyName)
}

func TestMachine_IntentsRequireLogin(t *testing.T) {
	req := require.New(t)
	m, _ := newMachine(t)

	_, err := m.Connect("bob")
	req.ErrorIs(err, errors.ErrNotLoggedIn)
	_, err = m.Say("hi")
	req.ErrorIs(err, errors.ErrNotLoggedIn)
	_, err = m.Who()
	req.ErrorIs(err, errors.ErrNotLoggedIn)
	_, err = m.CreateGroup([]string{"a", "b"})
	req.ErrorIs(err, errors.ErrNotLoggedIn)
	req.Equal(protocol.Envelope{Action: protocol.ActionQuit}, m.Quit())
}

func TestMachine_Intents(t *testing.T) {
	req := require.New(t)
	m, presenter := newMachine(t)
	loggedIn(t, m, presenter, "alice")

	env, err := m.Say("hello")
	req.NoError(err)
	req.Equal(protocol.Envelope{Action: protocol.ActionExchange, Message: "hello", Timestamp: "09:30"}, env)

	env, err = m.CreateGroup([]string{"bob", " carol ", "bob", ""})
	req.NoError(err)
	req.Equal([]string{"bob", "carol"}, env.Members)

	_, err = m.CreateGroup([]string{"alice", "bob"})
	req.ErrorIs(err, errors.ErrGroupTooSmall)
	_, err = m.Connect("alice")
	req.ErrorIs(err, errors.ErrSelfConnect)
}

func TestMachine_PrivateChatLifecycle(t *testing.T) {
	req := require.New(t)
	m, presenter := newMachine(t)
	loggedIn(t, m, presenter, "alice")

	// When alice connects to bob
	_, err := m.Connect("bob")
	req.NoError(err)
	success := protocol.ConnectResult{Status: protocol.StatusSuccess, Message: "Connected to bob"}
	presenter.EXPECT().OnConnectResult(success).Times(2)
	m.Process(success)

	// Then she is chatting with bob, and a repeated success changes nothing
	req.Equal(Chatting, m.State())
	req.Equal("bob", m.Peer())
	m.Process(success)
	req.Equal(Chatting, m.State())
	req.Equal([]string{"alice", "bob"}, m.Members())

	// When bob leaves
	left := protocol.Disconnected{Message: "bob left"}
	presenter.EXPECT().OnDisconnected(left)
	m.Process(left)

	// Then alice is back to logged in
	req.Equal(LoggedIn, m.State())
	req.Empty(m.Peer())
}

func TestMachine_ConnectFailureKeepsState(t *testing.T) {
	req := require.New(t)
	m, presenter := newMachine(t)
	loggedIn(t, m, presenter, "alice")
	_, err := m.Connect("zed")
	req.NoError(err)

	notFound := protocol.ConnectResult{Status: protocol.StatusNoUser, Message: "zed not found"}
	presenter.EXPECT().OnConnectResult(notFound)
	m.Process(notFound)

	req.Equal(LoggedIn, m.State())
}

func TestMachine_PeerConnected(t *testing.T) {
	req := require.New(t)
	m, presenter := newMachine(t)
	loggedIn(t, m, presenter, "bob")

	evt := protocol.PeerConnected{From: "alice", Message: "Connected to alice"}
	presenter.EXPECT().OnPeerConnected(evt)
	m.Process(evt)

	req.Equal(Chatting, m.State())
	req.Equal("alice", m.Peer())
}

func TestMachine_GroupLifecycle(t *testing.T) {
	req := require.New(t)
	m, presenter := newMachine(t)
	loggedIn(t, m, presenter, "c")

	created := protocol.GroupCreated{GroupID: "group_1", Members: []string{"a", "b", "c"}}
	presenter.EXPECT().OnGroupCreated(created)
	m.Process(created)
	req.Equal(Chatting, m.State())
	req.Equal("group_1", m.GroupID())

	// When a leaves the group still has b and c
	presenter.EXPECT().OnDisconnected(gomock.Any()).Times(2)
	m.Process(protocol.Disconnected{Message: "a left"})
	req.Equal(Chatting, m.State())
	req.Equal([]string{"b", "c"}, m.Members())

	// When b leaves too c is freed
	m.Process(protocol.Disconnected{Message: "b left"})
	req.Equal(LoggedIn, m.State())
	req.Empty(m.GroupID())
}

func TestMachine_Tolerance(t *testing.T) {
	req := require.New(t)
	m, presenter := newMachine(t)

	// Given an offline machine receiving a message
	incoming := protocol.Incoming{From: "bob", Message: "late"}
	presenter.EXPECT().OnIncoming(incoming)
	m.Process(incoming)

	// Then it is shown and nothing else changes
	req.Equal(Offline, m.State())

	failure := protocol.Failure{Message: "login first"}
	presenter.EXPECT().OnError("login first")
	m.Process(failure)
	users := protocol.UserList{Users: []string{"bob"}}
	presenter.EXPECT().OnUserList(users)
	m.Process(users)
}

func TestMachine_GoodbyeAndConnectionLost(t *testing.T) {
	req := require.New(t)
	m, presenter := newMachine(t)
	loggedIn(t, m, presenter, "alice")

	goodbye := protocol.Disconnected{Message: "Goodbye alice"}
	presenter.EXPECT().OnDisconnected(goodbye)
	m.Process(goodbye)
	req.Equal(Offline, m.State())
	req.Empty(m.Identity())

	loggedIn(t, m, presenter, "alice")
	presenter.EXPECT().OnDisconnected(protocol.Disconnected{Message: "Connection closed"})
	m.Process(ConnectionLost{})
	req.Equal(Offline, m.State())
}
