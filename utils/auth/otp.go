package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// OTPValidity is how long a password reset code stays usable.
const OTPValidity = 10 * time.Minute

// GenerateOTP returns a 6-digit numeric one-time code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// HashOTP returns the sha256 hex digest of an OTP. Only the digest is stored.
func HashOTP(otp string) string {
	sum := sha256.Sum256([]byte(otp))
	return hex.EncodeToString(sum[:])
}

// VerifyOTP compares a submitted code against the stored digest in constant
// time.
func VerifyOTP(storedDigest, otp string) bool {
	if storedDigest == "" {
		return false
	}
	digest := HashOTP(otp)
	return subtle.ConstantTimeCompare([]byte(storedDigest), []byte(digest)) == 1
}
