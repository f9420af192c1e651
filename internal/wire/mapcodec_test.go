package wire_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cordbroker/cord-broker/internal/wire"
)

func TestMessageRoundTripScalarData(t *testing.T) {
	cases := []struct {
		name string
		typ  string
		data interface{}
	}{
		{"no data", "ready", nil},
		{"string data", "initialize", "4242"},
		{"uint8 data", "log", map[string]interface{}{"message": "hi", "level": uint64(2)}},
		{"bool", "flag", true},
		{"negative int", "delta", int64(-17)},
		{"float", "ratio", float64(0.5)},
		{"array", "batch", []interface{}{"a", "b", int64(3)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := wire.EncodeMessage(tc.typ, tc.data)
			require.NoError(t, err)

			gotType, gotData, err := wire.DecodeMessage(bufio.NewReader(bytes.NewReader(encoded)))
			require.NoError(t, err)
			require.Equal(t, tc.typ, gotType)
			require.Equal(t, tc.data, gotData)
		})
	}
}

func TestEncodeValueLargeString(t *testing.T) {
	s := make([]byte, 1000)
	for i := range s {
		s[i] = 'x'
	}
	encoded, err := wire.EncodeValue(string(s))
	require.NoError(t, err)

	decoded, err := wire.DecodeValue(bufio.NewReader(bytes.NewReader(encoded)))
	require.NoError(t, err)
	require.Equal(t, string(s), decoded)
}

func TestEncodeValueRejectsUnsupportedType(t *testing.T) {
	_, err := wire.EncodeValue(struct{ X int }{X: 1})
	require.Error(t, err)
}

func TestDecodeMessageRejectsMissingType(t *testing.T) {
	encoded, err := wire.EncodeValue(map[string]interface{}{"data": "x"})
	require.NoError(t, err)
	_, _, err = wire.DecodeMessage(bufio.NewReader(bytes.NewReader(encoded)))
	require.Error(t, err)
}
