//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"ics-chat/protocol"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker for logging.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Presenter renders what the client state machine decided to show.
type Presenter interface {
	OnLoginResult(result protocol.LoginResult)
	OnConnectResult(result protocol.ConnectResult)
	OnPeerConnected(evt protocol.PeerConnected)
	OnGroupCreated(evt protocol.GroupCreated)
	OnIncoming(evt protocol.Incoming)
	OnDisconnected(evt protocol.Disconnected)
	OnUserList(evt protocol.UserList)
	OnError(message string)
}
