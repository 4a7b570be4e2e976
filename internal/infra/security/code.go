package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateVerificationCode produces a uniformly random six digit numeric
// code in [100000, 999999]. The first digit is never zero so the code
// survives naive integer round-trips.
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
