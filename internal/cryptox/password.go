package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params are the argon2id cost parameters. Memory is in KiB.
type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultHashParams is the policy for new password hashes
// (256 MiB, 6 passes, 2 lanes, 64-byte digest).
var DefaultHashParams = Argon2Params{
	Time:    6,
	Memory:  256 * 1024,
	Threads: 2,
	KeyLen:  64,
	SaltLen: 16,
}

// DefaultKDFParams is the policy for password-derived wrapping keys. KeyLen is
// always forced to KeySize.
var DefaultKDFParams = Argon2Params{
	Time:    6,
	Memory:  256 * 1024,
	Threads: 2,
	KeyLen:  KeySize,
	SaltLen: 16,
}

var ErrInvalidHash = errors.New("invalid argon2id hash encoding")

// HashPassword hashes password with argon2id under a fresh random salt and
// returns the PHC string form:
//
//	$argon2id$v=19$m=262144,t=6,p=2$<salt>$<hash>
func HashPassword(password []byte, p Argon2Params) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		b64.EncodeToString(salt), b64.EncodeToString(hash)), nil
}

// VerifyPassword recomputes the hash of password with the parameters and salt
// stored in encoded and compares in constant time. A malformed encoding is
// reported as an error, never as a match.
func VerifyPassword(encoded string, password []byte) (bool, error) {
	p, salt, hash, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	calculated := argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return subtle.ConstantTimeCompare(calculated, hash) == 1, nil
}

func decodeHash(encoded string) (p Argon2Params, salt, hash []byte, err error) {
	parts := strings.Split(encoded, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidHash, version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	if salt, err = b64.DecodeString(parts[4]); err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	if hash, err = b64.DecodeString(parts[5]); err != nil || len(hash) == 0 {
		return p, nil, nil, ErrInvalidHash
	}
	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(hash))

	return p, salt, hash, nil
}

// DeriveKeyFromPassword derives a 32-byte key from password with argon2id.
// When salt is empty a new random salt of p.SaltLen bytes is generated; the
// returned salt must be persisted for later derivations.
func DeriveKeyFromPassword(password, salt []byte, p Argon2Params) (key, usedSalt []byte, err error) {
	if len(salt) == 0 {
		n := p.SaltLen
		if n == 0 {
			n = 16
		}
		salt = make([]byte, n)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, err
		}
	}

	key = argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, KeySize)
	return key, salt, nil
}
