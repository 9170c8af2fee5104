package security_test

import (
	"testing"

	"github.com/angelmondragon/foodorder-backend/pkg/config"
	"github.com/angelmondragon/foodorder-backend/pkg/security"
)

var fastParams = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	hasher := security.NewHasher(fastParams)

	hash, err := hasher.Hash("very-secure-password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	ok, err := hasher.Verify("very-secure-password", hash)
	if err != nil || !ok {
		t.Fatalf("Verify failed for the correct password: ok=%v err=%v", ok, err)
	}
	ok, err = hasher.Verify("bogus-password", hash)
	if err != nil || ok {
		t.Fatalf("Verify accepted a wrong password: ok=%v err=%v", ok, err)
	}
	if hasher.NeedsRehash(hash) {
		t.Fatal("fresh hash must not need a rehash")
	}
}

func TestVerifyUsesEmbeddedParameters(t *testing.T) {
	old := security.NewHasher(fastParams)
	hash, err := old.Hash("very-secure-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	stronger := fastParams
	stronger.ArgonTime = 2
	current := security.NewHasher(stronger)
	ok, err := current.Verify("very-secure-password", hash)
	if err != nil || !ok {
		t.Fatalf("old hash should verify, ok=%v err=%v", ok, err)
	}
	if !current.NeedsRehash(hash) {
		t.Fatal("expected rehash under new parameters")
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	if _, err := security.NewHasher(fastParams).Hash("short"); err == nil {
		t.Fatal("expected short password error")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	hasher := security.NewHasher(fastParams)
	for _, encoded := range []string{"not-a-hash", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5"} {
		if _, err := hasher.Verify("irrelevant", encoded); err == nil {
			t.Fatalf("expected error for %q", encoded)
		}
	}
}
