// Package protocol defines the frames exchanged between the showcase client
// and the lobby server. Frames travel as binary websocket messages holding a
// protobuf Struct.
package protocol

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Frame types.
const (
	TypeAuth   = "auth"
	TypeAuthOK = "authOk"
	TypeError  = "error"
)

var ErrMissingType = errors.New("frame has no type")

// Frame is one protocol message. Empty fields are left off the wire.
type Frame struct {
	Type      string
	UserID    string
	SessionID string
	Message   string
}

// Marshal encodes f.
func Marshal(f Frame) ([]byte, error) {
	if f.Type == "" {
		return nil, ErrMissingType
	}
	fields := map[string]any{"type": f.Type}
	if f.UserID != "" {
		fields["userId"] = f.UserID
	}
	if f.SessionID != "" {
		fields["sessionId"] = f.SessionID
	}
	if f.Message != "" {
		fields["message"] = f.Message
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build frame: %w", err)
	}
	data, err := proto.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frame: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a frame. Unknown fields are ignored.
func Unmarshal(data []byte) (Frame, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return Frame{}, fmt.Errorf("failed to unmarshal frame: %w", err)
	}
	fields := s.GetFields()
	f := Frame{
		Type:      fields["type"].GetStringValue(),
		UserID:    fields["userId"].GetStringValue(),
		SessionID: fields["sessionId"].GetStringValue(),
		Message:   fields["message"].GetStringValue(),
	}
	if f.Type == "" {
		return Frame{}, ErrMissingType
	}
	return f, nil
}
