package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// TokenSeparator joins the hex salt and hex hash into one token string.
	TokenSeparator = ":"

	saltSize   = 16
	keySize    = sha256.Size
	iterations = 10000
	rsaKeyBits = 2048
)

// Deriver owns the entropy source for all identity operations.
type Deriver struct {
	rng io.Reader
}

func NewDeriver(rng io.Reader) *Deriver {
	if rng == nil {
		rng = rand.Reader
	}
	return &Deriver{rng: rng}
}

// DeriveToken derives a pseudo-anonymous token from seed. The salt is
// freshly randomized on each call, so two tokens from the same seed differ.
func (d *Deriver) DeriveToken(seed string) (string, error) {
	const op = "identity.DeriveToken"

	salt, hash, err := d.hash(seed)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return salt + TokenSeparator + hash, nil
}

// HashCredential salts and hashes a secret for storage.
func (d *Deriver) HashCredential(secret string) (salt string, hash string, err error) {
	const op = "identity.HashCredential"

	salt, hash, err = d.hash(secret)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return salt, hash, nil
}

// VerifyCredential re-derives secret with the stored salt and compares in
// constant time.
func (d *Deriver) VerifyCredential(secret, salt, hash string) bool {
	key := pbkdf2.Key([]byte(secret), []byte(salt), iterations, keySize, sha256.New)
	derived := hex.EncodeToString(key)

	return subtle.ConstantTimeCompare([]byte(derived), []byte(hash)) == 1
}

// GenerateKeyPair generates an RSA-2048 key pair as base64-encoded DER
// strings. Not consumed by the discovery protocol; reserved for session
// establishment.
func (d *Deriver) GenerateKeyPair() (privateKey string, publicKey string, err error) {
	const op = "identity.GenerateKeyPair"

	key, err := rsa.GenerateKey(d.rng, rsaKeyBits)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w: %w", op, ErrCrypto, err)
	}

	privDER := x509.MarshalPKCS1PrivateKey(key)

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w: %w", op, ErrCrypto, err)
	}

	privateKey = base64.StdEncoding.EncodeToString(privDER)
	publicKey = base64.StdEncoding.EncodeToString(pubDER)
	return privateKey, publicKey, nil
}

// hash runs the full derivation regardless of input length. The salt
// component is the hex encoding of saltSize random bytes, and the derivation
// consumes the hex form, matching what VerifyCredential re-derives with.
func (d *Deriver) hash(data string) (salt string, hash string, err error) {
	raw := make([]byte, saltSize)
	if _, err := io.ReadFull(d.rng, raw); err != nil {
		return "", "", fmt.Errorf("%w: read salt: %w", ErrCrypto, err)
	}
	salt = hex.EncodeToString(raw)

	key := pbkdf2.Key([]byte(data), []byte(salt), iterations, keySize, sha256.New)
	hash = hex.EncodeToString(key)

	return salt, hash, nil
}
