package evm

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

func randomNumber() (string, error) {
	min := big.NewInt(100000000000000000)
	max := big.NewInt(999999999999999999)
	n, err := rand.Int(rand.Reader, new(big.Int).Sub(max, min))
	if err != nil {
		return "", err
	}

	n.Add(n, min)
	return n.String(), nil
}

// Hmac256 is a function to generate HMAC256 hash.
func Hmac256(body, key []byte) string {
	hash := hmac.New(sha256.New, key)
	hash.Write(body)
	return hex.EncodeToString(hash.Sum(nil))
}

// HashCallbackSecret hashes the gateway callback secret for storage.
func HashCallbackSecret(secret []byte) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(secret, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CompareCallbackSecret compares a stored hash against a presented secret.
func CompareCallbackSecret(hash, secret []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, secret) == nil
}

// VerifyHMACAndRetrieveReference verifies HMAC and retrieves the reference if valid.
func VerifyHMACAndRetrieveReference(key, reference, receivedHMAC string) (string, bool) {
	expectedHMAC := Hmac256([]byte(reference), []byte(key))
	if hmac.Equal([]byte(receivedHMAC), []byte(expectedHMAC)) {
		return reference, true
	}

	return "", false
}
