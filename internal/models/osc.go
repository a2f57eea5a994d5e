package models

import (
	"fmt"

	"github.com/hypebeast/go-osc/osc"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OscArgType discriminates the reduced OSC argument union
type OscArgType string

const (
	OscArgFloat  OscArgType = "Float"
	OscArgString OscArgType = "String"
)

// OscArg is a single OSC argument, either a float or a string
type OscArg struct {
	Type  OscArgType
	Float float32
	Str   string
}

// FloatArg returns a float OSC argument
func FloatArg(v float32) OscArg {
	return OscArg{Type: OscArgFloat, Float: v}
}

// StringArg returns a string OSC argument
func StringArg(v string) OscArg {
	return OscArg{Type: OscArgString, Str: v}
}

// DefaultArg returns the default OSC argument
func DefaultArg() OscArg {
	return StringArg("/")
}

type oscArgPayload struct {
	Type  OscArgType  `json:"type"`
	Value interface{} `json:"value"`
}

// MarshalJSON encodes the argument in its tagged wire form,
// e.g. {"type":"Float","value":60.0}
func (a OscArg) MarshalJSON() ([]byte, error) {
	switch a.Type {
	case OscArgFloat:
		return json.Marshal(oscArgPayload{Type: OscArgFloat, Value: a.Float})
	case OscArgString:
		return json.Marshal(oscArgPayload{Type: OscArgString, Value: a.Str})
	default:
		// the zero value serialises as the default argument
		return DefaultArg().MarshalJSON()
	}
}

// UnmarshalJSON decodes the tagged wire form
func (a *OscArg) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  OscArgType          `json:"type"`
		Value jsoniter.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal osc arg: %w", err)
	}
	switch raw.Type {
	case OscArgFloat:
		var v float32
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return fmt.Errorf("failed to unmarshal float osc arg: %w", err)
		}
		*a = FloatArg(v)
	case OscArgString:
		var v string
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return fmt.Errorf("failed to unmarshal string osc arg: %w", err)
		}
		*a = StringArg(v)
	default:
		return fmt.Errorf("unknown osc arg type %q", raw.Type)
	}
	return nil
}

// OscMessage is a single-argument OSC message
type OscMessage struct {
	Path string `json:"path"`
	Arg  OscArg `json:"arg"`
}

// Packet encodes the message as standard OSC packet bytes
func (m OscMessage) Packet() ([]byte, error) {
	msg := osc.NewMessage(m.Path)
	switch m.Arg.Type {
	case OscArgFloat:
		msg.Append(m.Arg.Float)
	case OscArgString:
		msg.Append(m.Arg.Str)
	default:
		msg.Append(DefaultArg().Str)
	}
	data, err := msg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode osc message: %w", err)
	}
	return data, nil
}
