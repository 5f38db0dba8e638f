package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	otpMin   = 100000
	otpRange = 900000
	// OTPLength is the number of digits in every issued code.
	OTPLength = 6
)

// GenerateOTP returns a code drawn uniformly from [100000, 999999].
// A nil reader falls back to crypto/rand.
func GenerateOTP(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	n, err := rand.Int(r, big.NewInt(otpRange))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}

// HashOTP derives the stored form of a code. The email is bound into the hash so a
// leaked row cannot be replayed against another address.
func HashOTP(pepper, email, code string) (string, error) {
	key := []byte(pepper)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		return "", fmt.Errorf("init otp hash: %w", err)
	}
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(email))))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strings.TrimSpace(code)))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// EqualHashes compares two encoded hashes in constant time.
func EqualHashes(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
