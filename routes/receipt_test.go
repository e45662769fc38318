package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReceipt(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		receipt, err := GenerateReceipt()
		require.NoError(t, err)
		require.Len(t, receipt, receiptDigits)
		for _, c := range receipt {
			assert.True(t, c >= '0' && c <= '9', "non-digit %q in receipt", c)
		}
		seen[receipt] = true
	}
	assert.Greater(t, len(seen), 1, "receipts are not random")
}

func TestHashReceipt(t *testing.T) {
	h := HashReceipt("1234567890123456", "salt")
	assert.Equal(t, h, HashReceipt("1234567890123456", "salt"))
	assert.NotEqual(t, h, HashReceipt("1234567890123456", "other"))
	assert.NotEqual(t, h, HashReceipt("6543210987654321", "salt"))
	assert.Len(t, h, 64)
}
