package runtime

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"ics-chat/domain/chat"
	"ics-chat/errors"
	"ics-chat/protocol"

	"github.com/samber/lo"
)

// Outbound is one effect produced by the router: a payload to frame and
// deliver to a connection, a close of that connection, or both.
// Payloads are shared between recipients and must not be modified.
type Outbound struct {
	To      ConnID
	Payload []byte
	Close   bool
}

// Router validates decoded requests against the registry and the directory
// and turns them into outbound effects. It performs no I/O and must only be
// called from the multiplexer loop.
type Router struct {
	log      *slog.Logger
	sessions *SessionRegistry
	groups   *chat.Directory
}

func NewRouter(log *slog.Logger, sessions *SessionRegistry, groups *chat.Directory) *Router {
	return &Router{log: log, sessions: sessions, groups: groups}
}

// Handle processes one inbound frame payload of conn.
func (r *Router) Handle(conn ConnID, payload []byte) []Outbound {
	request, err := protocol.Parse(payload)
	if err != nil {
		r.log.Debug("Rejected frame", "conn", conn, "error", err)
		return r.newEffects().send(conn, protocol.ErrorReply(err.Error())).list()
	}
	return r.Dispatch(conn, request)
}

// Dispatch applies a decoded request.
func (r *Router) Dispatch(conn ConnID, request protocol.Request) []Outbound {
	identity, authenticated := r.sessions.LookupByConnection(conn)
	switch req := request.(type) {
	case protocol.Login:
		return r.login(conn, req)
	case protocol.Quit, protocol.Disconnect:
		return r.Disconnect(conn, true)
	}
	if !authenticated {
		return r.newEffects().send(conn, protocol.ErrorReply(errors.ErrNotLoggedIn.Error())).list()
	}

	switch req := request.(type) {
	case protocol.Connect:
		return r.connect(conn, identity, req)
	case protocol.CreateGroup:
		return r.createGroup(conn, identity, req)
	case protocol.Exchange:
		return r.exchange(conn, identity, req)
	case protocol.Who:
		return r.who(conn, identity)
	}
	err := fmt.Errorf("%w %q", errors.ErrUnknownAction, request.Action())
	return r.newEffects().send(conn, protocol.ErrorReply(err.Error())).list()
}

// Disconnect is the single cleanup path for quit, disconnect, framing and I/O
// failures: the identity leaves its group, survivors are told, the session is
// dropped and the connection closed. Calling it twice is harmless.
func (r *Router) Disconnect(conn ConnID, farewell bool) []Outbound {
	out := r.newEffects()
	if identity, ok := r.sessions.LookupByConnection(conn); ok {
		info, grouped := r.groups.Info(identity)
		result := r.groups.Leave(identity)
		notified := append(append([]string(nil), result.Remaining...), result.Freed...)
		out.sendAll(notified, protocol.DisconnectNotice(fmt.Sprintf("%s left", identity)))
		r.sessions.Unregister(identity)
		if farewell {
			out.send(conn, protocol.DisconnectNotice(fmt.Sprintf("Goodbye %s", identity)))
		}
		if grouped {
			r.log.Info("Session closed", "conn", conn, "identity", identity,
				"group", info.ID, "kind", info.Kind.String(), "size", info.Count(), "notified", len(notified))
		} else {
			r.log.Info("Session closed", "conn", conn, "identity", identity)
		}
	}
	return out.close(conn).list()
}

func (r *Router) login(conn ConnID, req protocol.Login) []Outbound {
	out := r.newEffects()
	if current, ok := r.sessions.LookupByConnection(conn); ok {
		return out.send(conn, protocol.LoginReply(protocol.StatusError,
			fmt.Sprintf("Already logged in as %s", current))).list()
	}
	if req.Name == "" {
		return out.send(conn, protocol.LoginReply(protocol.StatusError, "Name cannot be empty")).list()
	}

	err := r.sessions.Register(req.Name, conn)
	switch {
	case stderrors.Is(err, errors.ErrDuplicateIdentity):
		return out.send(conn, protocol.LoginReply(protocol.StatusDuplicate, "Name already taken")).list()
	case err != nil:
		return out.send(conn, protocol.LoginReply(protocol.StatusError, err.Error())).list()
	}
	r.log.Info("Logged in", "conn", conn, "identity", req.Name)
	return out.send(conn, protocol.LoginReply(protocol.StatusOK, fmt.Sprintf("Welcome %s!", req.Name))).list()
}

func (r *Router) connect(conn ConnID, caller string, req protocol.Connect) []Outbound {
	out := r.newEffects()
	peer, ok := r.sessions.LookupByIdentity(req.To)
	if !ok {
		return out.send(conn, protocol.ConnectReply(protocol.StatusNoUser,
			fmt.Sprintf("%s not found", req.To))).list()
	}
	id, err := r.groups.ConnectPrivate(caller, req.To)
	if err != nil {
		return out.send(conn, protocol.ConnectReply(protocol.StatusError,
			fmt.Sprintf("Connection failed: %v", err))).list()
	}
	r.log.Info("Private chat opened", "group", id, "from", caller, "to", req.To)
	return out.
		send(conn, protocol.ConnectReply(protocol.StatusSuccess, fmt.Sprintf("Connected to %s", req.To))).
		send(peer, protocol.ConnectRequested(caller)).
		list()
}

func (r *Router) createGroup(conn ConnID, caller string, req protocol.CreateGroup) []Outbound {
	out := r.newEffects()
	members := lo.Uniq(req.Members)
	if !lo.Contains(members, caller) {
		members = append([]string{caller}, members...)
	}
	unknown := lo.Filter(members, func(m string, _ int) bool {
		_, ok := r.sessions.LookupByIdentity(m)
		return !ok
	})
	if len(unknown) > 0 {
		err := fmt.Errorf("%w: %s", errors.ErrUnknownPeer, strings.Join(unknown, ", "))
		return out.send(conn, protocol.ErrorReply(err.Error())).list()
	}

	id, err := r.groups.CreateGroup(members)
	if err != nil {
		return out.send(conn, protocol.ErrorReply(err.Error())).list()
	}
	r.log.Info("Group created", "group", id, "members", members)
	return out.sendAll(members, protocol.GroupCreatedNotice(string(id), members)).list()
}

func (r *Router) exchange(conn ConnID, caller string, req protocol.Exchange) []Outbound {
	out := r.newEffects()
	info, grouped := r.groups.Info(caller)
	if !grouped {
		return out.send(conn, protocol.ErrorReply(errors.ErrNotInChat.Error())).list()
	}
	recipients := lo.Without(info.Members, caller)
	r.log.Debug("Fan-out", "from", caller, "group", info.ID, "private", info.IsPrivate(), "recipients", len(recipients))
	return out.sendAll(recipients, protocol.IncomingMessage(caller, req.Message, req.Timestamp)).list()
}

func (r *Router) who(conn ConnID, caller string) []Outbound {
	users := lo.Without(r.sessions.Identities(), caller)
	return r.newEffects().send(conn, protocol.UserListReply(users)).list()
}

type effects struct {
	router *Router
	out    []Outbound
}

func (r *Router) newEffects() *effects { return &effects{router: r} }

func (e *effects) send(to ConnID, env protocol.Envelope) *effects {
	payload, err := protocol.Marshal(env)
	if err != nil {
		e.router.log.Error("Failed to encode envelope", "action", env.Action, "error", err)
		return e
	}
	e.out = append(e.out, Outbound{To: to, Payload: payload})
	return e
}

// sendAll delivers one shared payload to every registered identity in names.
func (e *effects) sendAll(names []string, env protocol.Envelope) *effects {
	payload, err := protocol.Marshal(env)
	if err != nil {
		e.router.log.Error("Failed to encode envelope", "action", env.Action, "error", err)
		return e
	}
	for _, name := range names {
		if conn, ok := e.router.sessions.LookupByIdentity(name); ok {
			e.out = append(e.out, Outbound{To: conn, Payload: payload})
		}
	}
	return e
}

func (e *effects) close(conn ConnID) *effects {
	e.out = append(e.out, Outbound{To: conn, Close: true})
	return e
}

func (e *effects) list() []Outbound { return e.out }

// Load reports the number of live sessions and groups.
func (r *Router) Load() (sessions, groups int) {
	return r.sessions.Len(), r.groups.Len()
}
