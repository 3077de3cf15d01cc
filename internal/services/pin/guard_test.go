package pin

import (
	"strings"
	"testing"

	"fundlink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	g := NewGuard()

	hash, err := g.Hash("4921")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	assert.True(t, g.Verify(hash, "4921"))
	assert.False(t, g.Verify(hash, "4922"))
	assert.False(t, g.Verify(hash, ""))
}

func TestHashIsSalted(t *testing.T) {
	g := NewGuard()

	h1, err := g.Hash("4921")
	require.NoError(t, err)
	h2, err := g.Hash("4921")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "two hashes of the same PIN must use different salts")
	assert.True(t, g.Verify(h1, "4921"))
	assert.True(t, g.Verify(h2, "4921"))
}

func TestVerifyFailsClosed(t *testing.T) {
	g := NewGuard()

	tests := []struct {
		name    string
		encoded string
	}{
		{name: "empty", encoded: ""},
		{name: "not argon2id", encoded: "$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$a2V5"},
		{name: "wrong part count", encoded: "$argon2id$v=19$m=65536,t=3,p=2"},
		{name: "bad params", encoded: "$argon2id$v=19$nonsense$c2FsdA$a2V5"},
		{name: "bad salt b64", encoded: "$argon2id$v=19$m=65536,t=3,p=2$!!$a2V5"},
		{name: "bad key b64", encoded: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$!!"},
		{name: "wrong version", encoded: "$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$a2V5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, g.Verify(tt.encoded, "4921"))
		})
	}
}

func TestVerifyAccount(t *testing.T) {
	g := NewGuard()

	hash, err := g.Hash("1111")
	require.NoError(t, err)

	account := &models.BankAccount{PINHash: hash}
	assert.True(t, g.VerifyAccount(account, "1111"))
	assert.False(t, g.VerifyAccount(account, "2222"))

	// Missing account or hash must verify false, never panic.
	assert.False(t, g.VerifyAccount(nil, "1111"))
	assert.False(t, g.VerifyAccount(&models.BankAccount{}, "1111"))
}
