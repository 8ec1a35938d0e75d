package protocol

import "fmt"

// JSON format for every frame:
//
//	{"title": "EVENT", "value": "a", "action": "PRESSED", "status": 0}

// Title routes a message: EVENT carries a key action, CONTROL a lifecycle command.
type Title string

const (
	TitleEvent   Title = "EVENT"
	TitleControl Title = "CONTROL"
)

// Action is what the sender wants done with the message.
type Action string

const (
	ActionPressed        Action = "PRESSED"
	ActionReleased       Action = "RELEASED"
	ActionReloadDevice   Action = "RELOAD_DEVICE"
	ActionStopServer     Action = "STOP_SERVER"
	ActionStopController Action = "STOP_CONTROLLER"
)

// Status is sent as an integer on the wire.
type Status int

const (
	StatusError Status = -1
	StatusOK    Status = 0
	StatusStop  Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusError:
		return "ERROR"
	case StatusOK:
		return "OK"
	case StatusStop:
		return "STOP"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ControlValue is the placeholder value carried by CONTROL messages.
const ControlValue = "-"

// field is a presence bit for one of the four message fields.
type field uint8

const (
	fieldTitle field = 1 << iota
	fieldValue
	fieldAction
	fieldStatus

	allFields = fieldTitle | fieldValue | fieldAction | fieldStatus
)

var fieldNames = []struct {
	bit  field
	name string
}{
	{fieldTitle, "title"},
	{fieldValue, "value"},
	{fieldAction, "action"},
	{fieldStatus, "status"},
}

// Message is one protocol frame. It is a value: build it with NewMessage,
// NewEvent, NewControl or Decode. A zero Message carries no fields and is
// not valid.
type Message struct {
	Title  Title
	Value  string
	Action Action
	Status Status

	present field
}

// NewMessage returns a message with all four fields set.
func NewMessage(title Title, value string, action Action, status Status) Message {
	return Message{
		Title:   title,
		Value:   value,
		Action:  action,
		Status:  status,
		present: allFields,
	}
}

// NewEvent builds an OK EVENT message for a key edge.
func NewEvent(key string, action Action) Message {
	return NewMessage(TitleEvent, key, action, StatusOK)
}

// NewControl builds an OK CONTROL message.
func NewControl(action Action) Message {
	return NewMessage(TitleControl, ControlValue, action, StatusOK)
}

// IsValid reports whether all four fields are present.
func (m Message) IsValid() bool {
	return m.present == allFields
}

func (m Message) IsOK() bool    { return m.present&fieldStatus != 0 && m.Status == StatusOK }
func (m Message) IsError() bool { return m.present&fieldStatus != 0 && m.Status == StatusError }
func (m Message) IsStop() bool  { return m.present&fieldStatus != 0 && m.Status == StatusStop }

// IsActionable reports whether the message may cause a side effect.
func (m Message) IsActionable() bool {
	return m.IsValid() && m.Status == StatusOK
}

// IsStopController reports whether the message asks the server to drop the
// sender's connection.
func (m Message) IsStopController() bool {
	return m.IsValid() && m.Title == TitleControl && m.Action == ActionStopController
}

// missing lists the wire names of absent fields.
func (m Message) missing() []string {
	var out []string
	for _, f := range fieldNames {
		if m.present&f.bit == 0 {
			out = append(out, f.name)
		}
	}
	return out
}

func (m Message) String() string {
	return fmt.Sprintf("title=%s value=%q action=%s status=%s", m.Title, m.Value, m.Action, m.Status)
}
