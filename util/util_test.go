package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHexToBytes(t *testing.T) {
	b, err := HexToBytes("0x0a0b")
	require.NoError(t, err)
	require.Equal(t, []byte{0x0a, 0x0b}, b)

	// odd-length input gets a leading zero
	b, err = HexToBytes("0xabc")
	require.NoError(t, err)
	require.Equal(t, []byte{0x0a, 0xbc}, b)

	b, err = HexToBytes("0x")
	require.NoError(t, err)
	require.Empty(t, b)

	_, err = HexToBytes("0xzz")
	require.Error(t, err)
}

func TestBytesToHexRoundTrip(t *testing.T) {
	require.Equal(t, "0a0b", BytesToHex([]byte{0x0a, 0x0b}))
	require.Equal(t, "0x0a0b", BytesToHexWithPrefix([]byte{0x0a, 0x0b}))
}
