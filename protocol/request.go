package protocol

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"ics-chat/errors"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

// Request is an inbound client action. The concrete type is the discriminant.
type Request interface {
	Action() Action
	Envelope() Envelope
}

type Login struct {
	Name string
}

type Connect struct {
	To string `validate:"required"`
}

type CreateGroup struct {
	Members []string `validate:"required,min=1,dive,required"`
}

// Exchange carries an application payload that is fanned out verbatim.
type Exchange struct {
	Message   string
	Timestamp string
}

// Disconnect leaves the current chat and ends the session, like Quit.
type Disconnect struct{}

type Who struct{}

// Quit ends the session.
type Quit struct{}

func (Login) Action() Action       { return ActionLogin }
func (Connect) Action() Action     { return ActionConnect }
func (CreateGroup) Action() Action { return ActionCreateGroup }
func (Exchange) Action() Action    { return ActionExchange }
func (Disconnect) Action() Action  { return ActionDisconnect }
func (Who) Action() Action         { return ActionWho }
func (Quit) Action() Action        { return ActionQuit }

func (r Login) Envelope() Envelope { return Envelope{Action: ActionLogin, Name: r.Name} }
func (r Connect) Envelope() Envelope {
	return Envelope{Action: ActionConnect, To: r.To}
}
func (r CreateGroup) Envelope() Envelope {
	return Envelope{Action: ActionCreateGroup, Members: r.Members}
}
func (r Exchange) Envelope() Envelope {
	return Envelope{Action: ActionExchange, Message: r.Message, Timestamp: r.Timestamp}
}
func (Disconnect) Envelope() Envelope { return Envelope{Action: ActionDisconnect} }
func (Who) Envelope() Envelope        { return Envelope{Action: ActionWho} }
func (Quit) Envelope() Envelope       { return Envelope{Action: ActionQuit} }

// Parse decodes a frame payload into a Request.
// Payloads that are not a JSON object are read as legacy text commands.
func Parse(payload []byte) (Request, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return parseLegacy(string(payload)), nil
	}
	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope: %v", errors.ErrProtocol, err)
	}
	return FromEnvelope(env)
}

// FromEnvelope maps an envelope onto its Request and checks required fields.
// Identities are opaque and case sensitive, so names are kept byte for byte.
func FromEnvelope(env Envelope) (Request, error) {
	var req Request
	switch env.Action {
	case ActionLogin:
		req = Login{Name: env.Name}
	case ActionConnect:
		req = Connect{To: env.To}
	case ActionCreateGroup:
		req = CreateGroup{Members: env.Members}
	case ActionExchange:
		req = Exchange{Message: env.Message, Timestamp: env.Timestamp}
	case ActionDisconnect:
		req = Disconnect{}
	case ActionWho:
		req = Who{}
	case ActionQuit:
		req = Quit{}
	case "":
		return nil, fmt.Errorf("%w: missing action", errors.ErrProtocol)
	default:
		return nil, fmt.Errorf("%w %q", errors.ErrUnknownAction, env.Action)
	}
	if err := validate.Struct(req); err != nil {
		return nil, fieldError(env.Action, err)
	}
	return req, nil
}

// parseLegacy understands the plain text commands of older clients:
// "connect <name>", "who", "q"; anything else is chat text.
func parseLegacy(text string) Request {
	parts := strings.Fields(text)
	switch {
	case len(parts) >= 2 && parts[0] == "connect":
		return Connect{To: parts[1]}
	case len(parts) == 1 && parts[0] == "who":
		return Who{}
	case len(parts) == 1 && parts[0] == "q":
		return Quit{}
	}
	return Exchange{Message: text}
}

func fieldError(action Action, err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", errors.ErrProtocol, err)
	}
	fields := lo.Map([]validator.FieldError(verrs), func(fe validator.FieldError, _ int) string {
		return strings.ToLower(fe.Field())
	})
	return fmt.Errorf("%w: %s: missing required field %s", errors.ErrProtocol, action, strings.Join(fields, ", "))
}
