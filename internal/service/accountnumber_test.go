package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccountNumber(t *testing.T) {
	seen := make(map[string]bool)

	for range 100 {
		n, err := generateAccountNumber()
		require.NoError(t, err)

		assert.Len(t, n, 10)
		assert.Equal(t, accountNumberPrefix, n[:3])
		for _, c := range n {
			assert.True(t, c >= '0' && c <= '9', "non-digit in account number %q", n)
		}
		seen[n] = true
	}

	// Not a uniqueness guarantee, but heavy collisions across 100 draws
	// from 10^7 would point at a broken generator.
	assert.GreaterOrEqual(t, len(seen), 99)
}
