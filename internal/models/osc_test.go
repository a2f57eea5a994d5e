package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOscArgMarshal(t *testing.T) {
	data, err := json.Marshal(FloatArg(60))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Float","value":60}`, string(data))

	data, err = json.Marshal(StringArg("hello"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"String","value":"hello"}`, string(data))
}

func TestOscArgMarshalZeroValue(t *testing.T) {
	data, err := json.Marshal(OscArg{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"String","value":"/"}`, string(data))
}

func TestOscArgUnmarshal(t *testing.T) {
	var arg OscArg
	require.NoError(t, json.Unmarshal([]byte(`{"type":"Float","value":0.5}`), &arg))
	assert.Equal(t, FloatArg(0.5), arg)

	require.NoError(t, json.Unmarshal([]byte(`{"type":"String","value":"/x"}`), &arg))
	assert.Equal(t, StringArg("/x"), arg)

	assert.Error(t, json.Unmarshal([]byte(`{"type":"Blob","value":1}`), &arg))
	assert.Error(t, json.Unmarshal([]byte(`{"type":"Float","value":"oops"}`), &arg))
}

func TestOscMessageJSON(t *testing.T) {
	msg := OscMessage{Path: "/n", Arg: FloatArg(60)}
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"/n","arg":{"type":"Float","value":60}}`, string(data))

	var back OscMessage
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, msg, back)
}

func TestOscMessagePacket(t *testing.T) {
	pkt, err := OscMessage{Path: "/n", Arg: FloatArg(60)}.Packet()
	require.NoError(t, err)

	// padded address, padded ",f" typetag, big-endian float 60.0
	want := []byte{
		'/', 'n', 0, 0,
		',', 'f', 0, 0,
		0x42, 0x70, 0x00, 0x00,
	}
	assert.Equal(t, want, pkt)
}

func TestOscMessagePacketString(t *testing.T) {
	pkt, err := OscMessage{Path: "/s", Arg: StringArg("hi")}.Packet()
	require.NoError(t, err)

	want := []byte{
		'/', 's', 0, 0,
		',', 's', 0, 0,
		'h', 'i', 0, 0,
	}
	assert.Equal(t, want, pkt)
}
