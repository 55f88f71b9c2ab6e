package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestMulti(t *testing.T, preferred Scheme) *Multi {
	t.Helper()
	a, err := NewArgon2(Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	b, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	return &Multi{Argon2: a, Bcrypt: b, Preferred: preferred}
}

func TestBcryptHashAndVerify(t *testing.T) {
	b, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	hash, err := b.Hash("password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Fatalf("unexpected bcrypt prefix: %s", hash)
	}

	ok, err := b.Verify("password", hash)
	if err != nil || !ok {
		t.Fatalf("expected match: ok=%v err=%v", ok, err)
	}
	ok, err = b.Verify("passw0rd", hash)
	if err != nil || ok {
		t.Fatalf("expected clean mismatch: ok=%v err=%v", ok, err)
	}
}

func TestBcryptRejectsInvalidCostAndLongInput(t *testing.T) {
	if _, err := NewBcrypt(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("expected cost above max to fail")
	}

	b, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	if _, err := b.Hash(strings.Repeat("x", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := b.Verify("password", "$2a$garbage"); err == nil {
		t.Fatal("expected malformed bcrypt hash to fail")
	}
}

func TestBcryptNeedsUpgrade(t *testing.T) {
	weak, _ := NewBcrypt(bcrypt.MinCost)
	strong, _ := NewBcrypt(bcrypt.MinCost + 1)

	hash, err := weak.Hash("password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if up, err := strong.NeedsUpgrade(hash); err != nil || !up {
		t.Fatalf("expected upgrade: up=%v err=%v", up, err)
	}
	if up, err := weak.NeedsUpgrade(hash); err != nil || up {
		t.Fatalf("expected no upgrade: up=%v err=%v", up, err)
	}
}

func TestSchemeOf(t *testing.T) {
	tests := []struct {
		hash   string
		scheme Scheme
		ok     bool
	}{
		{hash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA", scheme: SchemeArgon2id, ok: true},
		{hash: "$2a$10$abc", scheme: SchemeBcrypt, ok: true},
		{hash: "$2b$10$abc", scheme: SchemeBcrypt, ok: true},
		{hash: "$2y$10$abc", scheme: SchemeBcrypt, ok: true},
		{hash: "{noop}password", ok: false},
		{hash: "", ok: false},
	}
	for _, tt := range tests {
		scheme, ok := SchemeOf(tt.hash)
		if scheme != tt.scheme || ok != tt.ok {
			t.Fatalf("%q: got (%q, %v), want (%q, %v)", tt.hash, scheme, ok, tt.scheme, tt.ok)
		}
	}
}

func TestMultiVerifiesBothSchemes(t *testing.T) {
	m := newTestMulti(t, SchemeArgon2id)

	argonHash, err := m.Argon2.Hash("password")
	if err != nil {
		t.Fatalf("argon2 hash: %v", err)
	}
	bcryptHash, err := m.Bcrypt.Hash("password")
	if err != nil {
		t.Fatalf("bcrypt hash: %v", err)
	}

	for _, hash := range []string{argonHash, bcryptHash} {
		ok, err := m.Verify("password", hash)
		if err != nil || !ok {
			t.Fatalf("expected match for %q: ok=%v err=%v", hash[:4], ok, err)
		}
		ok, err = m.Verify("wrong", hash)
		if err != nil || ok {
			t.Fatalf("expected mismatch for %q: ok=%v err=%v", hash[:4], ok, err)
		}
	}

	if _, err := m.Verify("password", "plaintext"); !errors.Is(err, ErrUnsupportedHash) {
		t.Fatalf("expected ErrUnsupportedHash, got %v", err)
	}
}

func TestMultiHashUsesPreferredScheme(t *testing.T) {
	hash, err := newTestMulti(t, SchemeBcrypt).Hash("password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if scheme, _ := SchemeOf(hash); scheme != SchemeBcrypt {
		t.Fatalf("expected bcrypt, got %q", scheme)
	}

	hash, err = newTestMulti(t, "").Hash("password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if scheme, _ := SchemeOf(hash); scheme != SchemeArgon2id {
		t.Fatalf("expected argon2id default, got %q", scheme)
	}
}

func TestMultiNeedsUpgradeAcrossSchemes(t *testing.T) {
	m := newTestMulti(t, SchemeArgon2id)
	bcryptHash, err := m.Bcrypt.Hash("password")
	if err != nil {
		t.Fatalf("bcrypt hash: %v", err)
	}
	if up, err := m.NeedsUpgrade(bcryptHash); err != nil || !up {
		t.Fatalf("expected non-preferred scheme to need upgrade: up=%v err=%v", up, err)
	}

	argonHash, err := m.Hash("password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if up, err := m.NeedsUpgrade(argonHash); err != nil || up {
		t.Fatalf("expected preferred hash to be current: up=%v err=%v", up, err)
	}
}

func TestMultiWithoutBackendReportsUnsupported(t *testing.T) {
	b, _ := NewBcrypt(bcrypt.MinCost)
	hash, err := b.Hash("password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	m := &Multi{Preferred: SchemeArgon2id}
	if _, err := m.Verify("password", hash); !errors.Is(err, ErrUnsupportedHash) {
		t.Fatalf("expected ErrUnsupportedHash, got %v", err)
	}
	if _, err := m.Hash("password"); !errors.Is(err, ErrUnsupportedHash) {
		t.Fatalf("expected ErrUnsupportedHash, got %v", err)
	}
}
