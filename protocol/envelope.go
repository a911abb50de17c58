// Package protocol defines the action envelopes exchanged inside frames.
// Payloads are decoded once at the edge into the Request (server side) or
// Event (client side) tagged unions, so nothing downstream re-inspects the
// raw discriminant.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Action string

const (
	ActionLogin        Action = "login"
	ActionConnect      Action = "connect"
	ActionCreateGroup  Action = "create_group"
	ActionExchange     Action = "exchange"
	ActionDisconnect   Action = "disconnect"
	ActionWho          Action = "who"
	ActionQuit         Action = "quit"
	ActionGroupCreated Action = "group_created"
	ActionIncoming     Action = "incoming"
	ActionError        Action = "error"
)

type Status string

const (
	StatusOK        Status = "ok"
	StatusDuplicate Status = "duplicate"
	StatusError     Status = "error"
	StatusSuccess   Status = "success"
	StatusNoUser    Status = "no-user"
	StatusRequest   Status = "request"
)

// Envelope is the flat key/value wire form of every action.
type Envelope struct {
	Action    Action   `json:"action"`
	Name      string   `json:"name,omitempty"`
	To        string   `json:"to,omitempty"`
	From      string   `json:"from,omitempty"`
	Members   []string `json:"members,omitempty"`
	GroupID   string   `json:"group_id,omitempty"`
	Message   string   `json:"message,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Status    Status   `json:"status,omitempty"`
	Users     []string `json:"users,omitempty"`
}

// wireEnvelope keeps an empty but non-nil user list on the wire as "users":[].
type wireEnvelope struct {
	Envelope
	Users *[]string `json:"users,omitempty"`
}

func Marshal(env Envelope) ([]byte, error) {
	wire := wireEnvelope{Envelope: env}
	if env.Users != nil {
		wire.Users = &env.Users
	}
	return json.Marshal(wire)
}

func LoginReply(status Status, message string) Envelope {
	return Envelope{Action: ActionLogin, Status: status, Message: message}
}

func ConnectReply(status Status, message string) Envelope {
	return Envelope{Action: ActionConnect, Status: status, Message: message}
}

// ConnectRequested tells the target of a connect that from opened a chat with it.
func ConnectRequested(from string) Envelope {
	return Envelope{
		Action:  ActionConnect,
		Status:  StatusRequest,
		From:    from,
		Message: fmt.Sprintf("Connected to %s", from),
	}
}

func GroupCreatedNotice(groupID string, members []string) Envelope {
	return Envelope{
		Action:  ActionGroupCreated,
		GroupID: groupID,
		Members: members,
		Message: fmt.Sprintf("Group chat created: %s", strings.Join(members, ", ")),
	}
}

func IncomingMessage(from, message, timestamp string) Envelope {
	return Envelope{Action: ActionIncoming, From: from, Message: message, Timestamp: timestamp}
}

func DisconnectNotice(message string) Envelope {
	return Envelope{Action: ActionDisconnect, Message: message}
}

// UserListReply always carries a users list, empty when nobody else is online.
func UserListReply(users []string) Envelope {
	if users == nil {
		users = []string{}
	}
	return Envelope{Action: ActionWho, Users: users}
}

func ErrorReply(message string) Envelope {
	return Envelope{Action: ActionError, Message: message}
}
