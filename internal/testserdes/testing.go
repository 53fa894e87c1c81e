package testserdes

import (
	"encoding/json"
	"testing"

	"github.com/casperlabs/casper-go/pkg/io"
	"github.com/stretchr/testify/require"
)

// MarshalUnmarshalJSON checks if expected stays the same after
// marshal/unmarshal via JSON.
func MarshalUnmarshalJSON(t *testing.T, expected, actual any) {
	data, err := json.Marshal(expected)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, actual))
	require.Equal(t, expected, actual)
}

// EncodeDecodeBinary checks if expected stays the same after
// serializing/deserializing via io.Serializable methods. The whole
// encoding must be consumed by the decoder.
func EncodeDecodeBinary(t *testing.T, expected, actual io.Serializable) {
	data, err := io.GetBytes(expected)
	require.NoError(t, err)
	require.NoError(t, io.FromBytes(data, actual))
	require.Equal(t, expected, actual)
}
