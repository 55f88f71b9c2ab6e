package password

import (
	"errors"
	"strings"
	"testing"
)

func cheapArgon2(t *testing.T, maxBytes int) *Argon2 {
	t.Helper()
	a, err := NewArgon2(Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32, MaxPasswordBytes: maxBytes})
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	return a
}

func TestArgon2RoundTripThroughMulti(t *testing.T) {
	m := newTestMulti(t, SchemeArgon2id)

	hash, err := m.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") || strings.Contains(hash, "=$") {
		t.Fatalf("unexpected encoding: %s", hash)
	}

	ok, err := m.Verify("correct horse", hash)
	if err != nil || !ok {
		t.Fatalf("expected match: ok=%v err=%v", ok, err)
	}
	ok, err = m.Verify("correct horsE", hash)
	if err != nil || ok {
		t.Fatalf("expected clean mismatch: ok=%v err=%v", ok, err)
	}
}

func TestArgon2VerifiesPaddedEncoding(t *testing.T) {
	a := cheapArgon2(t, 0)
	hash, err := a.Hash("password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	// 16 salt bytes and 32 key bytes both pad to a multiple of four with "=".
	i := strings.LastIndex(hash, "$")
	padded := hash[:i] + "==" + hash[i:] + "="
	if ok, err := a.Verify("password", padded); err != nil || !ok {
		t.Fatalf("expected padded hash to verify: ok=%v err=%v", ok, err)
	}
}

func TestArgon2MaxPasswordBytes(t *testing.T) {
	a := cheapArgon2(t, 8)

	if _, err := a.Hash("12345678"); err != nil {
		t.Fatalf("password at the limit rejected: %v", err)
	}
	if _, err := a.Hash("123456789"); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := a.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}

	hash, _ := a.Hash("short")
	if _, err := a.Verify("123456789", hash); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected Verify to refuse oversized input, got %v", err)
	}

	if cheapArgon2(t, 0).maxBytes != DefaultMaxPasswordBytes {
		t.Fatal("zero MaxPasswordBytes should select the default")
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	base := Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16}
	tests := map[string]func(*Config){
		"memory":    func(c *Config) { c.Memory = 1024 },
		"time":      func(c *Config) { c.Time = 0 },
		"threads":   func(c *Config) { c.Parallelism = 0 },
		"key":       func(c *Config) { c.KeyLength = 8 },
		"salt":      func(c *Config) { c.SaltLength = 8 },
		"max bytes": func(c *Config) { c.MaxPasswordBytes = -1 },
	}
	for name, mutate := range tests {
		cfg := base
		mutate(&cfg)
		if _, err := NewArgon2(cfg); err == nil {
			t.Fatalf("%s: expected config error", name)
		}
	}
	if _, err := NewArgon2(base); err != nil {
		t.Fatalf("minimum config rejected: %v", err)
	}
}

func TestArgon2MalformedHashes(t *testing.T) {
	a := cheapArgon2(t, 0)
	good, err := a.Hash("password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	fields := strings.Split(good, "$")
	salt, key := fields[4], fields[5]

	tests := map[string]string{
		"field count":   "$argon2id$v=19$m=8192,t=1,p=1$" + salt,
		"version":       "$argon2id$v=16$m=8192,t=1,p=1$" + salt + "$" + key,
		"reordered":     "$argon2id$v=19$t=1,m=8192,p=1$" + salt + "$" + key,
		"leading zero":  "$argon2id$v=19$m=08192,t=1,p=1$" + salt + "$" + key,
		"trailing junk": "$argon2id$v=19$m=8192,t=1,p=1,x=2$" + salt + "$" + key,
		"weak memory":   "$argon2id$v=19$m=1024,t=1,p=1$" + salt + "$" + key,
		"short salt":    "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$" + key,
		"short key":     "$argon2id$v=19$m=8192,t=1,p=1$" + salt + "$aGFzaA",
		"bad base64":    "$argon2id$v=19$m=8192,t=1,p=1$" + salt + "$!!!!",
	}
	for name, hash := range tests {
		if _, err := a.Verify("password", hash); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("%s: expected ErrMalformedHash, got %v", name, err)
		}
	}

	if _, err := a.Verify("password", "$argon2i$v=19$m=8192,t=1,p=1$"+salt+"$"+key); !errors.Is(err, ErrUnsupportedHash) {
		t.Fatalf("expected ErrUnsupportedHash for argon2i, got %v", err)
	}
}

func TestArgon2NeedsUpgrade(t *testing.T) {
	weak := cheapArgon2(t, 0)
	hash, err := weak.Hash("password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if up, err := weak.NeedsUpgrade(hash); err != nil || up {
		t.Fatalf("same cost should be current: up=%v err=%v", up, err)
	}

	for name, cfg := range map[string]Config{
		"memory":     {Memory: 16 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		"time":       {Memory: 8 * 1024, Time: 2, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		"key length": {Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16},
	} {
		strong, err := NewArgon2(cfg)
		if err != nil {
			t.Fatalf("%s: NewArgon2 error: %v", name, err)
		}
		if up, err := strong.NeedsUpgrade(hash); err != nil || !up {
			t.Fatalf("%s: expected upgrade: up=%v err=%v", name, up, err)
		}
	}
}

// The login flow verifies unknown users against a hash minted once at
// startup. That hash must verify cleanly (no error) and never match.
func TestDummyHashNeverMatchesButVerifiesCleanly(t *testing.T) {
	for _, scheme := range []Scheme{SchemeArgon2id, SchemeBcrypt} {
		m := newTestMulti(t, scheme)
		dummy, err := m.Hash("timing-equalization")
		if err != nil {
			t.Fatalf("%s: Hash error: %v", scheme, err)
		}
		if got, _ := SchemeOf(dummy); got != scheme {
			t.Fatalf("dummy hash scheme = %q, want %q", got, scheme)
		}
		for _, attempt := range []string{"password", "", "timing-equalizatio"} {
			ok, err := m.Verify(attempt, dummy)
			if err != nil || ok {
				t.Fatalf("%s: attempt %q: ok=%v err=%v", scheme, attempt, ok, err)
			}
		}
	}
}
