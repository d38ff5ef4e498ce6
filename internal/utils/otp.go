package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

// otpSpan covers [100000, 999999]: always six digits, no leading zeros.
const otpSpan = 900000

// GenerateOTP draws a uniformly random six-digit one-time code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
