package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	accountNumberPrefix = "100"
	accountNumberDigits = 7

	// Attempts before giving up when the generated number collides with an
	// existing row. At 10^7 candidates a second collision in a row is
	// effectively a broken RNG.
	accountNumberAttempts = 3
)

// generateAccountNumber returns a 10-character account number: a fixed
// 3-digit bank prefix followed by 7 random digits. Uniqueness is enforced by
// the database constraint; callers retry on collision.
func generateAccountNumber() (string, error) {
	digits := make([]byte, accountNumberDigits)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generateAccountNumber: %w", err)
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return accountNumberPrefix + string(digits), nil
}
