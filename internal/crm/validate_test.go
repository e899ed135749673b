package crm

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestValidEmail(t *testing.T) {
	valid := []string{
		"alice@example.com",
		"bob.smith+tag@mail.example.co",
		"x_y%z@sub.domain.io",
	}
	for _, e := range valid {
		require.True(t, ValidEmail(e), e)
	}

	invalid := []string{
		"",
		"plainaddress",
		"@example.com",
		"alice@",
		"alice@example",
		"alice example@example.com",
	}
	for _, e := range invalid {
		require.False(t, ValidEmail(e), e)
	}
}

func TestValidPhone(t *testing.T) {
	valid := []string{
		"",           // optional
		"+999999999", // international, 9 digits
		"+123456789012345",
		"555-123-4567",
		"555 123 4567", // spaces stripped before matching
	}
	for _, p := range valid {
		require.True(t, ValidPhone(p), p)
	}

	invalid := []string{
		"12345",
		"+12",
		"555-1234",
		"abc-def-ghij",
		"5551234567890123456", // too long
	}
	for _, p := range invalid {
		require.False(t, ValidPhone(p), p)
	}
}

func TestValidPriceAndStock(t *testing.T) {
	require.True(t, ValidPrice(decimal.RequireFromString("0.01")))
	require.True(t, ValidPrice(decimal.RequireFromString("999.99")))
	require.False(t, ValidPrice(decimal.Zero))
	require.False(t, ValidPrice(decimal.RequireFromString("-1")))

	require.True(t, ValidStock(0))
	require.True(t, ValidStock(5))
	require.False(t, ValidStock(-1))
}
