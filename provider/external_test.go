package provider

import (
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseBigInt(t *testing.T) {
	v, err := parseBigInt("123456789012345678901234567890")
	require.NoError(t, err)
	require.Equal(t, "123456789012345678901234567890", v.String())

	_, err = parseBigInt("")
	require.Error(t, err)
	_, err = parseBigInt("0x10")
	require.Error(t, err)
}

func TestParseRat(t *testing.T) {
	require.Nil(t, parseRat(""))
	require.Nil(t, parseRat("not-a-number"))

	v := parseRat("3012.55")
	require.NotNil(t, v)
	require.Equal(t, 0, v.Cmp(big.NewRat(301255, 100)))
}

func TestFormatSlippage(t *testing.T) {
	require.Equal(t, "0.50", formatSlippage(50))
	require.Equal(t, "1.00", formatSlippage(100))
	require.Equal(t, "0.00", formatSlippage(0))
}
