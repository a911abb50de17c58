package runtime

import (
	"fmt"
	"slices"

	"ics-chat/errors"

	"github.com/samber/lo"
)

// ConnID is the opaque handle of a transport connection.
type ConnID string

// SessionRegistry binds identities to their live connection in both directions.
//
// It holds no lock: every call must come from the multiplexer goroutine,
// which is the only writer. The duplicate check and the insertion happen in
// the same call, so two logins for one identity can never both succeed.
type SessionRegistry struct {
	byIdentity   map[string]ConnID
	byConnection map[ConnID]string
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byIdentity:   make(map[string]ConnID),
		byConnection: make(map[ConnID]string),
	}
}

// Register creates the session of identity on conn.
func (r *SessionRegistry) Register(identity string, conn ConnID) error {
	if identity == "" {
		return errors.ErrEmptyName
	}
	if _, taken := r.byIdentity[identity]; taken {
		return fmt.Errorf("%w: %s", errors.ErrDuplicateIdentity, identity)
	}
	if current, ok := r.byConnection[conn]; ok {
		return fmt.Errorf("%w as %s", errors.ErrAlreadyLoggedIn, current)
	}
	r.byIdentity[identity] = conn
	r.byConnection[conn] = identity
	return nil
}

// Unregister removes the session of identity. Unknown identities are ignored.
func (r *SessionRegistry) Unregister(identity string) {
	conn, ok := r.byIdentity[identity]
	if !ok {
		return
	}
	delete(r.byIdentity, identity)
	delete(r.byConnection, conn)
}

func (r *SessionRegistry) LookupByIdentity(identity string) (ConnID, bool) {
	conn, ok := r.byIdentity[identity]
	return conn, ok
}

func (r *SessionRegistry) LookupByConnection(conn ConnID) (string, bool) {
	identity, ok := r.byConnection[conn]
	return identity, ok
}

// Identities lists every registered identity in sorted order.
func (r *SessionRegistry) Identities() []string {
	identities := lo.Keys(r.byIdentity)
	slices.Sort(identities)
	return identities
}

func (r *SessionRegistry) Len() int { return len(r.byIdentity) }
