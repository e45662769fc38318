package routes

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"

	"golang.org/x/crypto/argon2"
)

// receiptDigits is the length of the numeric receipt handed to the
// whistleblower; it is the only credential to the filed report.
const receiptDigits = 16

// GenerateReceipt returns a random numeric receipt of receiptDigits
// digits.
func GenerateReceipt() (string, error) {
	digits := make([]byte, receiptDigits)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0') + byte(n.Int64())
	}
	return string(digits), nil
}

// HashReceipt derives the stored lookup hash from a receipt. Only the
// hash is persisted; the receipt itself is never stored.
func HashReceipt(receipt, salt string) string {
	sum := argon2.IDKey([]byte(receipt), []byte(salt), 1, 64*1024, 4, 32)
	return hex.EncodeToString(sum)
}
