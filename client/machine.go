// Package client mirrors the server protocol on the client side: intents
// become envelopes, inbound events drive a small state machine and are
// handed to a Presenter.
package client

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"ics-chat/contract"
	"ics-chat/errors"
	"ics-chat/protocol"

	"github.com/samber/lo"
)

type State int

const (
	Offline State = iota
	LoggedIn
	Chatting
)

func (s State) String() string {
	switch s {
	case Offline:
		return "offline"
	case LoggedIn:
		return "logged-in"
	case Chatting:
		return "chatting"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// TimestampLayout formats the local time attached to outgoing messages.
const TimestampLayout = "15:04"

// ConnectionLost is queued once the connection to the server ends.
type ConnectionLost struct {
	Err error
}

func (ConnectionLost) Action() protocol.Action { return protocol.ActionDisconnect }

// Machine tracks the local view of the session. It is advisory only: the
// server decides who is grouped with whom. Not safe for concurrent use.
type Machine struct {
	log       *slog.Logger
	presenter contract.Presenter
	now       func() time.Time

	state    State
	identity string
	pending  string
	target   string
	peer     string
	groupID  string
	members  []string
}

func NewMachine(log *slog.Logger, presenter contract.Presenter) *Machine {
	return &Machine{log: log, presenter: presenter, now: time.Now}
}

func (m *Machine) State() State      { return m.state }
func (m *Machine) Identity() string  { return m.identity }
func (m *Machine) Peer() string      { return m.peer }
func (m *Machine) GroupID() string   { return m.groupID }
func (m *Machine) Members() []string { return slices.Clone(m.members) }

func (m *Machine) Login(name string) (protocol.Envelope, error) {
	name = strings.TrimSpace(name)
	if m.state != Offline {
		return protocol.Envelope{}, fmt.Errorf("%w as %s", errors.ErrAlreadyLoggedIn, m.identity)
	}
	if name == "" {
		return protocol.Envelope{}, errors.ErrEmptyName
	}
	m.pending = name
	return protocol.Login{Name: name}.Envelope(), nil
}

func (m *Machine) Connect(to string) (protocol.Envelope, error) {
	to = strings.TrimSpace(to)
	if err := m.requireLogin(); err != nil {
		return protocol.Envelope{}, err
	}
	if to == m.identity {
		return protocol.Envelope{}, errors.ErrSelfConnect
	}
	m.target = to
	return protocol.Connect{To: to}.Envelope(), nil
}

func (m *Machine) CreateGroup(members []string) (protocol.Envelope, error) {
	if err := m.requireLogin(); err != nil {
		return protocol.Envelope{}, err
	}
	members = lo.Uniq(lo.Compact(lo.Map(members, func(s string, _ int) string { return strings.TrimSpace(s) })))
	if len(lo.Without(members, m.identity)) < 2 {
		return protocol.Envelope{}, errors.ErrGroupTooSmall
	}
	return protocol.CreateGroup{Members: members}.Envelope(), nil
}

// Say turns free text into an exchange stamped with the local time.
func (m *Machine) Say(text string) (protocol.Envelope, error) {
	if err := m.requireLogin(); err != nil {
		return protocol.Envelope{}, err
	}
	return protocol.Exchange{Message: text, Timestamp: m.now().Format(TimestampLayout)}.Envelope(), nil
}

func (m *Machine) Who() (protocol.Envelope, error) {
	if err := m.requireLogin(); err != nil {
		return protocol.Envelope{}, err
	}
	return protocol.Who{}.Envelope(), nil
}

func (m *Machine) Quit() protocol.Envelope {
	return protocol.Quit{}.Envelope()
}

func (m *Machine) requireLogin() error {
	if m.state == Offline {
		return errors.ErrNotLoggedIn
	}
	return nil
}

// Process applies one server event and notifies the presenter.
func (m *Machine) Process(evt protocol.Event) {
	before := m.state
	switch e := evt.(type) {
	case protocol.LoginResult:
		if e.OK() && m.state == Offline {
			m.state, m.identity = LoggedIn, m.pending
		}
		m.pending = ""
		m.presenter.OnLoginResult(e)
	case protocol.ConnectResult:
		if e.OK() {
			// A repeated success while already chatting with the same peer is harmless.
			m.chatWith(m.target)
		}
		m.target = ""
		m.presenter.OnConnectResult(e)
	case protocol.PeerConnected:
		m.chatWith(e.From)
		m.presenter.OnPeerConnected(e)
	case protocol.GroupCreated:
		m.state, m.peer, m.groupID = Chatting, "", e.GroupID
		m.members = slices.Clone(e.Members)
		m.presenter.OnGroupCreated(e)
	case protocol.Incoming:
		if m.state == Offline {
			m.log.Debug("Incoming message while offline", "from", e.From)
		}
		m.presenter.OnIncoming(e)
	case protocol.Disconnected:
		m.disconnected(e.Message)
		m.presenter.OnDisconnected(e)
	case ConnectionLost:
		m.reset()
		message := "Connection closed"
		if e.Err != nil {
			message = fmt.Sprintf("Connection lost: %v", e.Err)
		}
		m.presenter.OnDisconnected(protocol.Disconnected{Message: message})
	case protocol.UserList:
		m.presenter.OnUserList(e)
	case protocol.Failure:
		m.presenter.OnError(e.Message)
	default:
		m.log.Warn("Ignoring unexpected event", "action", evt.Action())
	}
	if m.state != before {
		m.log.Debug("Client state changed", "from", before, "to", m.state)
	}
}

func (m *Machine) chatWith(peer string) {
	if peer == "" {
		return
	}
	m.state, m.peer, m.groupID = Chatting, peer, ""
	m.members = []string{m.identity, peer}
	slices.Sort(m.members)
}

// disconnected reads the server notice: "Goodbye <me>" ends the session,
// "<name> left" shrinks the local member list.
func (m *Machine) disconnected(message string) {
	if m.identity != "" && message == fmt.Sprintf("Goodbye %s", m.identity) {
		m.reset()
		return
	}
	name, ok := strings.CutSuffix(message, " left")
	if !ok || m.state != Chatting {
		return
	}
	m.members = lo.Without(m.members, name)
	if m.peer == name || len(m.members) < 2 {
		m.state, m.peer, m.groupID, m.members = LoggedIn, "", "", nil
	}
}

func (m *Machine) reset() {
	m.state = Offline
	m.identity, m.pending, m.target, m.peer, m.groupID = "", "", "", "", ""
	m.members = nil
}
