package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2Prefix = "$argon2id$"

// DefaultMaxPasswordBytes caps the plaintext length accepted by [Argon2] when
// Config.MaxPasswordBytes is zero.
const DefaultMaxPasswordBytes = 1024

// Config holds Argon2id cost parameters. Memory is in KiB.
type Config struct {
	Memory           uint32
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
}

// Lower bounds for both configuration and stored hashes. A stored hash
// below them is rejected rather than verified.
var floor = argon2Cost{memory: 8 * 1024, time: 1, threads: 1, keyLen: 16}

const minSaltBytes = 16

// argon2Cost is the tunable part of an Argon2id derivation.
type argon2Cost struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

func (c argon2Cost) String() string {
	return fmt.Sprintf("m=%d,t=%d,p=%d", c.memory, c.time, c.threads)
}

func (c argon2Cost) weakerThan(o argon2Cost) bool {
	return c.memory < o.memory || c.time < o.time || c.threads < o.threads || c.keyLen != o.keyLen
}

func (c argon2Cost) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, c.time, c.memory, c.threads, c.keyLen)
}

// argon2Hash is a decoded PHC string.
type argon2Hash struct {
	cost argon2Cost
	salt []byte
	key  []byte
}

// String encodes h as $argon2id$v=19$m=..,t=..,p=..$salt$key with unpadded
// standard base64.
func (h argon2Hash) String() string {
	return fmt.Sprintf("%sv=%d$%s$%s$%s",
		argon2Prefix,
		argon2.Version,
		h.cost,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key),
	)
}

func malformed(reason string) error {
	return fmt.Errorf("%w: argon2id %s", ErrMalformedHash, reason)
}

// decodeArgon2 parses encoded. Hashes of another scheme return
// ErrUnsupportedHash; anything else that fails returns ErrMalformedHash.
func decodeArgon2(encoded string) (argon2Hash, error) {
	rest, ok := strings.CutPrefix(encoded, argon2Prefix)
	if !ok {
		return argon2Hash{}, ErrUnsupportedHash
	}
	fields := strings.Split(rest, "$")
	if len(fields) != 4 {
		return argon2Hash{}, malformed("field count")
	}

	var version int
	if _, err := fmt.Sscanf(fields[0], "v=%d", &version); err != nil {
		return argon2Hash{}, malformed("version")
	}
	if version != argon2.Version {
		return argon2Hash{}, malformed(fmt.Sprintf("version %d", version))
	}

	var h argon2Hash
	if _, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &h.cost.memory, &h.cost.time, &h.cost.threads); err != nil {
		return argon2Hash{}, malformed("parameters")
	}
	// Only the canonical spelling is accepted: no reordering, padding zeros
	// or trailing junk.
	if h.cost.String() != fields[1] {
		return argon2Hash{}, malformed("parameters")
	}

	var err error
	if h.salt, err = decodeB64(fields[2]); err != nil || len(h.salt) < minSaltBytes {
		return argon2Hash{}, malformed("salt")
	}
	if h.key, err = decodeB64(fields[3]); err != nil {
		return argon2Hash{}, malformed("key")
	}
	h.cost.keyLen = uint32(len(h.key))

	if h.cost.memory < floor.memory || h.cost.time < floor.time ||
		h.cost.threads < floor.threads || h.cost.keyLen < floor.keyLen {
		return argon2Hash{}, malformed("cost below minimum")
	}
	return h, nil
}

// decodeB64 accepts both padded and unpadded standard base64.
func decodeB64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// Argon2 hashes and verifies passwords with Argon2id in PHC string format.
type Argon2 struct {
	cost     argon2Cost
	saltLen  uint32
	maxBytes int
}

// NewArgon2 validates cfg and returns a hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	cost := argon2Cost{memory: cfg.Memory, time: cfg.Time, threads: cfg.Parallelism, keyLen: cfg.KeyLength}
	switch {
	case cost.memory < floor.memory:
		return nil, fmt.Errorf("argon2 memory must be >= %d KiB", floor.memory)
	case cost.time < floor.time:
		return nil, errors.New("argon2 time must be >= 1")
	case cost.threads < floor.threads:
		return nil, errors.New("argon2 parallelism must be >= 1")
	case cost.keyLen < floor.keyLen:
		return nil, fmt.Errorf("argon2 key length must be >= %d", floor.keyLen)
	case cfg.SaltLength < minSaltBytes:
		return nil, fmt.Errorf("argon2 salt length must be >= %d", minSaltBytes)
	case cfg.MaxPasswordBytes < 0:
		return nil, errors.New("argon2 max password bytes must be >= 0")
	}

	maxBytes := cfg.MaxPasswordBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxPasswordBytes
	}
	return &Argon2{cost: cost, saltLen: cfg.SaltLength, maxBytes: maxBytes}, nil
}

// Hash derives a new salted hash for password. Passwords are used as raw
// bytes with no Unicode normalization.
func (a *Argon2) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > a.maxBytes {
		return "", ErrPasswordTooLong
	}

	salt := make([]byte, a.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return argon2Hash{cost: a.cost, salt: salt, key: a.cost.derive(password, salt)}.String(), nil
}

// Verify reports whether password matches encodedHash using the cost stored
// in the hash. A malformed hash is an error; a mismatch is not.
func (a *Argon2) Verify(password string, encodedHash string) (bool, error) {
	if len(password) > a.maxBytes {
		return false, ErrPasswordTooLong
	}
	h, err := decodeArgon2(encodedHash)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(h.cost.derive(password, h.salt), h.key) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was produced with weaker
// parameters than the current configuration, or a different key length.
func (a *Argon2) NeedsUpgrade(encodedHash string) (bool, error) {
	h, err := decodeArgon2(encodedHash)
	if err != nil {
		return false, err
	}
	return h.cost.weakerThan(a.cost), nil
}
