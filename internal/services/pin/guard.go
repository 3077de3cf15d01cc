// Package pin implements transfer PIN hashing and verification.
//
// PINs are short secrets, so the hash must be memory-hard: Argon2id with a
// random per-account salt. Verification is constant-time and fails closed on
// any decode or parameter error.
package pin

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"fundlink/internal/models"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 2
	saltLen      = 16
	keyLen       = 32
)

var ErrHashFailed = errors.New("pin hashing failed")

// Guard hashes and verifies transfer PINs.
type Guard struct{}

func NewGuard() *Guard { return &Guard{} }

// dummyHash is compared against when no account or stored hash exists, so a
// lookup miss costs the same as a wrong PIN.
var dummyHash = mustHash("000000")

func mustHash(pin string) string {
	g := Guard{}
	h, err := g.Hash(pin)
	if err != nil {
		panic(err)
	}
	return h
}

// Hash derives an Argon2id hash of the PIN with a fresh random salt and
// returns it in the standard encoded form.
func (g *Guard) Hash(pin string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashFailed, err)
	}

	key := argon2.IDKey([]byte(pin), salt, argonTime, argonMemory, argonThreads, keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify reports whether pin matches the encoded hash. Any malformed hash or
// decode failure verifies false.
func (g *Guard) Verify(encoded, pin string) bool {
	salt, key, memory, iterations, threads, ok := decode(encoded)
	if !ok {
		return false
	}

	derived := argon2.IDKey([]byte(pin), salt, iterations, memory, threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(derived, key) == 1
}

// VerifyAccount verifies a PIN against an account's stored hash. When the
// account is missing or has no hash, the PIN is checked against a fixed dummy
// hash so the caller's timing does not reveal whether the account exists.
func (g *Guard) VerifyAccount(account *models.BankAccount, pin string) bool {
	if account == nil || account.PINHash == "" {
		g.Verify(dummyHash, pin)
		return false
	}
	return g.Verify(account.PINHash, pin)
}

func decode(encoded string) (salt, key []byte, memory uint32, iterations uint32, threads uint8, ok bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, 0, 0, 0, false
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return nil, nil, 0, 0, 0, false
	}

	var err error
	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, nil, 0, 0, 0, false
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, nil, 0, 0, 0, false
	}
	if len(salt) == 0 || len(key) == 0 {
		return nil, nil, 0, 0, 0, false
	}
	return salt, key, memory, iterations, threads, true
}
