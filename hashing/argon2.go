package hashing

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argonAlgorithmID = "argon2id"

// Argon2Config carries the argon2id cost parameters. Memory is in KiB.
type Argon2Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Config returns the parameters used when none are supplied.
func DefaultArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2 hashes credentials with argon2id, encoding digests in PHC format.
type Argon2 struct {
	config Argon2Config
}

// NewArgon2 validates cfg and returns an Argon2 hasher.
func NewArgon2(cfg Argon2Config) (*Argon2, error) {
	if cfg.Memory < 8*1024 {
		return nil, errors.New("hashing: argon2 memory must be >= 8192 KiB")
	}
	if cfg.Time < 1 {
		return nil, errors.New("hashing: argon2 time must be >= 1")
	}
	if cfg.Parallelism < 1 {
		return nil, errors.New("hashing: argon2 parallelism must be >= 1")
	}
	if cfg.SaltLength < 16 || cfg.KeyLength < 16 {
		return nil, errors.New("hashing: argon2 salt and key length must be >= 16")
	}
	return &Argon2{config: cfg}, nil
}

// Hash generates a salted argon2id digest of plaintext.
func (a *Argon2) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errors.New("hashing: empty plaintext")
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(plaintext),
		salt,
		a.config.Time,
		a.config.Memory,
		a.config.Parallelism,
		a.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argonAlgorithmID,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Compare reports whether plaintext matches the PHC-encoded digest. The
// comparison of the derived keys is constant time.
func (a *Argon2) Compare(plaintext, digest string) (bool, error) {
	memory, timeCost, parallelism, salt, key, err := parsePHC(digest)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(plaintext),
		salt,
		timeCost,
		memory,
		parallelism,
		uint32(len(key)),
	)

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

func parsePHC(digest string) (memory, timeCost uint32, parallelism uint8, salt, key []byte, err error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != argonAlgorithmID {
		err = errors.New("hashing: invalid PHC digest")
		return
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		err = errors.New("hashing: unsupported argon2 version")
		return
	}

	var p uint
	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &p); err != nil {
		err = errors.New("hashing: invalid argon2 parameters")
		return
	}
	parallelism = uint8(p)

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		err = errors.New("hashing: invalid salt encoding")
		return
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(key) == 0 {
		err = errors.New("hashing: invalid key encoding")
		return
	}
	return
}
