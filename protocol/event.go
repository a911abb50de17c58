package protocol

import (
	"encoding/json"
	"fmt"

	"ics-chat/errors"
)

// Event is a server action as seen by a client.
type Event interface {
	Action() Action
}

type LoginResult struct {
	Status  Status
	Message string
}

func (r LoginResult) OK() bool { return r.Status == StatusOK }

type ConnectResult struct {
	Status  Status
	Message string
}

func (r ConnectResult) OK() bool { return r.Status == StatusSuccess }

// PeerConnected is pushed to the target of a successful connect.
type PeerConnected struct {
	From    string
	Message string
}

type GroupCreated struct {
	GroupID string
	Members []string
	Message string
}

type Incoming struct {
	From      string
	Message   string
	Timestamp string
}

type Disconnected struct {
	Message string
}

type UserList struct {
	Users []string
}

type Failure struct {
	Message string
}

func (LoginResult) Action() Action   { return ActionLogin }
func (ConnectResult) Action() Action { return ActionConnect }
func (PeerConnected) Action() Action { return ActionConnect }
func (GroupCreated) Action() Action  { return ActionGroupCreated }
func (Incoming) Action() Action      { return ActionIncoming }
func (Disconnected) Action() Action  { return ActionDisconnect }
func (UserList) Action() Action      { return ActionWho }
func (Failure) Action() Action       { return ActionError }

// ParseEvent decodes a server frame payload.
func ParseEvent(payload []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope: %v", errors.ErrProtocol, err)
	}
	return EventFromEnvelope(env)
}

func EventFromEnvelope(env Envelope) (Event, error) {
	switch env.Action {
	case ActionLogin:
		return LoginResult{Status: env.Status, Message: env.Message}, nil
	case ActionConnect:
		if env.Status == StatusRequest {
			return PeerConnected{From: env.From, Message: env.Message}, nil
		}
		return ConnectResult{Status: env.Status, Message: env.Message}, nil
	case ActionGroupCreated:
		return GroupCreated{GroupID: env.GroupID, Members: env.Members, Message: env.Message}, nil
	case ActionIncoming:
		return Incoming{From: env.From, Message: env.Message, Timestamp: env.Timestamp}, nil
	case ActionDisconnect:
		return Disconnected{Message: env.Message}, nil
	case ActionWho:
		return UserList{Users: env.Users}, nil
	case ActionError:
		return Failure{Message: env.Message}, nil
	}
	return nil, fmt.Errorf("%w %q", errors.ErrUnknownAction, env.Action)
}
