package util

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var bcryptCost = 12

// SetBcryptCost overrides the hashing cost; tests lower it to keep runs fast
func SetBcryptCost(cost int) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	bcryptCost = cost
}

// HashPassword hashes a plain text password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword checks if a plain text password matches a hashed password
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

var (
	dummyMu   sync.Mutex
	dummyHash []byte
)

// currentDummyHash returns a hash at the configured cost, rebuilt when the cost changes
func currentDummyHash() []byte {
	dummyMu.Lock()
	defer dummyMu.Unlock()

	if cost, err := bcrypt.Cost(dummyHash); err == nil && cost == bcryptCost {
		return dummyHash
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("savanna-table-dummy"), bcryptCost)
	if err != nil {
		return nil
	}
	dummyHash = hash
	return dummyHash
}

// CompareDummyPassword spends the same bcrypt work as VerifyPassword for an unknown account
func CompareDummyPassword(password string) {
	_ = bcrypt.CompareHashAndPassword(currentDummyHash(), []byte(password))
}
