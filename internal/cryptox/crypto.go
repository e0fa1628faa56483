// Package cryptox contains the cryptographic primitives behind the store
// container: Argon2id key derivation from the master secret, a key
// verifier, and AES-256-GCM sealing of arbitrary payloads.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"

	"github.com/dmitrijs2005/keeperbot/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	// KeySize is the derived key length (AES-256).
	KeySize = 32
	// SaltSize is the Argon2id salt length stored in the container header.
	SaltSize = 16
	// NonceSize is the AES-GCM nonce length.
	NonceSize = 12
)

// ErrInvalidKey is returned when a key of the wrong length is supplied.
var ErrInvalidKey = errors.New("invalid key length")

// MakeVerifier returns a SHA-256 digest of the derived key. It is stored
// next to the ciphertext so a wrong master secret can be told apart from
// a damaged container.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// DeriveMasterKey derives a KeySize key from password and salt with Argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}

// NewSalt returns a fresh random salt for DeriveMasterKey.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// Seal encrypts plaintext with AES-GCM under key using a fresh random nonce.
// The nonce must be stored alongside the ciphertext; it is not secret.
func Seal(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(NonceSize)
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// Open reverses Seal. Any tampering with ciphertext or nonce, or a wrong
// key, makes it fail authentication.
func Open(ciphertext, nonce, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesgcm.NonceSize() {
		return nil, errors.New("invalid nonce length")
	}

	return aesgcm.Open(nil, nonce, ciphertext, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}
