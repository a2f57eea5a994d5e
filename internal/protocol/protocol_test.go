package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saplyn/vibe/internal/models"
)

func TestParseServerFrame(t *testing.T) {
	frame, err := ParseServerFrame([]byte(`{"action":"PatternAdd","payload":{"name":"p"}}`))
	require.NoError(t, err)
	assert.Equal(t, ActionPatternAdd, frame.Action)

	var payload NamePayload
	require.NoError(t, frame.Decode(&payload))
	assert.Equal(t, "p", payload.Name)
}

func TestParseServerFrameNoPayload(t *testing.T) {
	frame, err := ParseServerFrame([]byte(`{"action":"TickerPlay"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionTickerPlay, frame.Action)

	frame, err = ParseServerFrame([]byte(`{"action":"TickerPlay","payload":null}`))
	require.NoError(t, err)
	assert.Equal(t, ActionTickerPlay, frame.Action)
}

func TestParseServerFrameErrors(t *testing.T) {
	_, err := ParseServerFrame([]byte(`{not json`))
	assert.Error(t, err)

	_, err = ParseServerFrame([]byte(`{"payload":{}}`))
	assert.Error(t, err)
}

func TestDecodeContextPayload(t *testing.T) {
	frame, err := ParseServerFrame([]byte(`{"action":"CtrlChangeContext","payload":{"context":"p"}}`))
	require.NoError(t, err)
	var payload ContextPayload
	require.NoError(t, frame.Decode(&payload))
	require.NotNil(t, payload.Context)
	assert.Equal(t, "p", *payload.Context)

	frame, err = ParseServerFrame([]byte(`{"action":"CtrlChangeContext","payload":{"context":null}}`))
	require.NoError(t, err)
	payload = ContextPayload{}
	require.NoError(t, frame.Decode(&payload))
	assert.Nil(t, payload.Context)
}

func TestEncodeNoPayloadOmitsField(t *testing.T) {
	data, err := TickerPlaying().Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"TickerPlaying"}`, string(data))
}

func TestEncodeTickerTick(t *testing.T) {
	data, err := TickerTick(3, 15).Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"TickerTick","payload":{"tick":3,"max":15}}`, string(data))
}

func TestEncodeResponseTickerTickStopped(t *testing.T) {
	data, err := ResponseTickerTick(-1, 0).Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"ResponseTickerTick","payload":{"tick":-1,"max":0}}`, string(data))
}

func TestEncodeNotifySeverityLowercase(t *testing.T) {
	data, err := Notify(SeverityError, "Failed", "detail").Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"Notify","payload":{"severity":"error","summary":"Failed","detail":"detail"}}`, string(data))
}

func TestEncodeTrackProgressUpdate(t *testing.T) {
	progress := 7
	data, err := TrackProgressUpdate("t", &progress).Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"TrackProgressUpdate","payload":{"name":"t","progress":7}}`, string(data))

	data, err = TrackProgressUpdate("t", nil).Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"TrackProgressUpdate","payload":{"name":"t","progress":null}}`, string(data))
}

func TestEncodePatternAdded(t *testing.T) {
	pattern := models.NewPattern("p")
	data, err := PatternAdded("p", pattern).Encode()
	require.NoError(t, err)
	assert.JSONEq(
		t,
		`{"action":"PatternAdded","payload":{"name":"p","pattern":{"name":"p","page_count":0,"midi_path":"/","midi_codes":[],"messages":[]}}}`,
		string(data),
	)
}
