package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	OTPTTL = 5 * time.Minute

	otpMin = 100000
	otpMax = 999999
)

// GenerateOTP draws a 6-digit code uniformly from [100000, 999999] and
// stamps it with an expiry OTPTTL after now.
func GenerateOTP(now time.Time) (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64()+otpMin)
	return code, now.Add(OTPTTL), nil
}
