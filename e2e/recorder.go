package e2e

import (
	"ics-chat/protocol"
)

// recorder is a presenter keeping every event it is shown.
// It is only used from the goroutine draining the session.
type recorder struct {
	events []protocol.Event
}

func (r *recorder) OnLoginResult(e protocol.LoginResult)     { r.add(e) }
func (r *recorder) OnConnectResult(e protocol.ConnectResult) { r.add(e) }
func (r *recorder) OnPeerConnected(e protocol.PeerConnected) { r.add(e) }
func (r *recorder) OnGroupCreated(e protocol.GroupCreated)   { r.add(e) }
func (r *recorder) OnIncoming(e protocol.Incoming)           { r.add(e) }
func (r *recorder) OnDisconnected(e protocol.Disconnected)   { r.add(e) }
func (r *recorder) OnUserList(e protocol.UserList)           { r.add(e) }
func (r *recorder) OnError(message string)                   { r.add(protocol.Failure{Message: message}) }

func (r *recorder) add(e protocol.Event) { r.events = append(r.events, e) }

func (r *recorder) pop() (protocol.Event, bool) {
	if len(r.events) == 0 {
		return nil, false
	}
	e := r.events[0]
	r.events = r.events[1:]
	return e, true
}
