package wire_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cordbroker/cord-broker/internal/wire"
)

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte(`{"v":1,"client_id":"123"}`)
	encoded := wire.EncodeFrame(wire.OpHandshake, payload)

	op, body, err := wire.DecodeFrame(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Equal(t, wire.OpHandshake, op)
	require.Equal(t, payload, body)
	require.Len(t, body, len(payload))
}

func TestFrameRoundTripEmptyBody(t *testing.T) {
	encoded := wire.EncodeFrame(wire.OpPing, nil)
	op, body, err := wire.DecodeFrame(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Equal(t, wire.OpPing, op)
	require.Empty(t, body)
}

func TestDecodeFrameRejectsOversizedLength(t *testing.T) {
	header := wire.EncodeFrame(wire.OpFrame, nil)
	// Forge a header claiming a huge body with no data behind it.
	header[4] = 0xff
	header[5] = 0xff
	header[6] = 0xff
	header[7] = 0x7f
	_, _, err := wire.DecodeFrame(bytes.NewReader(header[:8]))
	require.Error(t, err)
}
