package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxFrameSize is the largest chunk read from a client in one receive call.
// Anything beyond it in the same read is truncated by the transport.
const MaxFrameSize = 255

// ErrMissingField is wrapped by DecodeError when a key is absent or null.
var ErrMissingField = errors.New("missing field")

// EncodingError is returned by Encode for messages that are not valid.
type EncodingError struct {
	Missing []string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot encode message: missing %s", strings.Join(e.Missing, ", "))
}

// DecodeError is returned by Decode for malformed or incomplete payloads.
type DecodeError struct {
	Payload []byte
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode message %q: %v", e.Payload, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// wireMessage keeps pointers so absent and null keys can be told apart from
// zero values.
type wireMessage struct {
	Title  *string `json:"title"`
	Value  *string `json:"value"`
	Action *string `json:"action"`
	Status *int    `json:"status"`
}

// Encode serializes a valid message as a flat JSON object.
func Encode(m Message) ([]byte, error) {
	if !m.IsValid() {
		return nil, &EncodingError{Missing: m.missing()}
	}
	title, action, status := string(m.Title), string(m.Action), int(m.Status)
	return json.Marshal(wireMessage{
		Title:  &title,
		Value:  &m.Value,
		Action: &action,
		Status: &status,
	})
}

// Decode parses exactly one JSON payload. When a key is missing the returned
// message carries the fields that were present and is not valid. Decode does
// not look at the status.
func Decode(data []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return Message{}, &DecodeError{Payload: data, Err: err}
	}

	var m Message
	if w.Title != nil {
		m.Title = Title(*w.Title)
		m.present |= fieldTitle
	}
	if w.Value != nil {
		m.Value = *w.Value
		m.present |= fieldValue
	}
	if w.Action != nil {
		m.Action = Action(*w.Action)
		m.present |= fieldAction
	}
	if w.Status != nil {
		m.Status = Status(*w.Status)
		m.present |= fieldStatus
	}

	if !m.IsValid() {
		return m, &DecodeError{
			Payload: data,
			Err:     fmt.Errorf("%w: %s", ErrMissingField, strings.Join(m.missing(), ", ")),
		}
	}
	return m, nil
}

// SplitFrames cuts one read chunk into successive JSON values. Frames are not
// delimited on the wire, so two small writes can arrive in the same read. An
// undecodable tail is returned as the last frame so the caller can report it.
func SplitFrames(chunk []byte) [][]byte {
	var frames [][]byte
	dec := json.NewDecoder(bytes.NewReader(chunk))
	for {
		start := dec.InputOffset()
		var raw json.RawMessage
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return frames
		}
		if err != nil {
			if tail := bytes.TrimSpace(chunk[start:]); len(tail) > 0 {
				frames = append(frames, tail)
			}
			return frames
		}
		frames = append(frames, []byte(raw))
	}
}
