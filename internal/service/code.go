package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeAlphabet omits characters that are easy to confuse in print,
// such as 0/O, 1/l/I, 2/Z and 5/S.
const codeAlphabet = "346789ABCDEFGHJKLMNPQRTUVWXYabcdefghijkmnpqrtwxyz"

// CodeLength is the number of characters in a verification code.
const CodeLength = 6

var alphabetSize = big.NewInt(int64(len(codeAlphabet)))

// generateCode returns a uniformly random code over codeAlphabet.
func generateCode() (string, error) {
	b := make([]byte, CodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("generate verification code: %w", err)
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}
