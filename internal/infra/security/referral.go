package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const referralAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateReferralCode derives a shareable referral code from a username:
// the first three characters upper-cased, the literal "CS" marker, and six
// random characters from an uppercase alphanumeric alphabet.
func GenerateReferralCode(username string) (string, error) {
	prefix := strings.ToUpper(username)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}

	suffix := make([]byte, 6)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralAlphabet))))
		if err != nil {
			return "", fmt.Errorf("generate referral code: %w", err)
		}
		suffix[i] = referralAlphabet[n.Int64()]
	}

	return prefix + "CS" + string(suffix), nil
}
