// Package cryptoutil implements at-rest encryption for the config store.
package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Encryptor defines an interface for encrypting/decrypting config values.
type Encryptor interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(ciphertext string) ([]byte, error)
}

const (
	// kdfSalt is the fixed application salt for key derivation. Rotating the
	// passphrase invalidates every previously encrypted value; the passphrase
	// is fixed for the process lifetime.
	kdfSalt = "deskmetrics.config.v1"

	// kdfIterations is the PBKDF2 iteration count. Deliberately slow; the key
	// is derived once at startup.
	kdfIterations = 210_000

	keyLen = 32 // AES-256

	noopPrefix = "noop:"
)

// DeriveKey derives a 32-byte AES key from a passphrase using PBKDF2-SHA256
// with the fixed application salt.
func DeriveKey(passphrase string) ([]byte, error) {
	if strings.TrimSpace(passphrase) == "" {
		return nil, errors.New("passphrase is required")
	}
	return pbkdf2.Key([]byte(passphrase), []byte(kdfSalt), kdfIterations, keyLen, sha256.New), nil
}

// AESGCMEncryptor implements Encryptor using AES-256-GCM. Ciphertext is stored
// as "iv:ciphertext" with a fresh random IV per write, so identical plaintexts
// never produce identical ciphertext.
type AESGCMEncryptor struct {
	key []byte // 32 bytes
}

// NewAESGCMEncryptor constructs an AESGCMEncryptor. Key must be 32 bytes.
func NewAESGCMEncryptor(key []byte) (*AESGCMEncryptor, error) {
	if len(key) != keyLen {
		return nil, fmt.Errorf("aes-gcm key must be %d bytes, got %d", keyLen, len(key))
	}
	return &AESGCMEncryptor{key: append([]byte(nil), key...)}, nil
}

func (e *AESGCMEncryptor) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt encrypts plaintext with a random IV and returns "hex(iv):base64(ct)".
func (e *AESGCMEncryptor) Encrypt(plaintext []byte) (string, error) {
	gcm, err := e.gcm()
	if err != nil {
		return "", err
	}
	iv := make([]byte, gcm.NonceSize())
	if _, readErr := io.ReadFull(rand.Reader, iv); readErr != nil {
		return "", readErr
	}
	ct := gcm.Seal(nil, iv, plaintext, nil)
	return hex.EncodeToString(iv) + ":" + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt decrypts a string created by Encrypt. It also accepts
// noop-prefixed values written before an encryption key was configured.
func (e *AESGCMEncryptor) Decrypt(ciphertext string) ([]byte, error) {
	if strings.HasPrefix(ciphertext, noopPrefix) {
		decoded, err := base64.StdEncoding.DecodeString(ciphertext[len(noopPrefix):])
		if err != nil {
			return nil, fmt.Errorf("decode noop ciphertext: %w", err)
		}
		return decoded, nil
	}

	ivPart, ctPart, ok := strings.Cut(ciphertext, ":")
	if !ok {
		return nil, errors.New("malformed ciphertext: missing iv separator")
	}
	iv, err := hex.DecodeString(ivPart)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(ctPart)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}

	gcm, err := e.gcm()
	if err != nil {
		return nil, err
	}
	if len(iv) != gcm.NonceSize() {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", gcm.NonceSize(), len(iv))
	}
	pt, err := gcm.Open(nil, iv, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("open ciphertext: %w", err)
	}
	return pt, nil
}

// NoopEncryptor is useful for tests; it stores plaintext with a prefix marker.
type NoopEncryptor struct{}

func (NoopEncryptor) Encrypt(plaintext []byte) (string, error) {
	return noopPrefix + base64.StdEncoding.EncodeToString(plaintext), nil
}

func (NoopEncryptor) Decrypt(ciphertext string) ([]byte, error) {
	if !strings.HasPrefix(ciphertext, noopPrefix) {
		return nil, errors.New("invalid noop ciphertext")
	}
	return base64.StdEncoding.DecodeString(ciphertext[len(noopPrefix):])
}
