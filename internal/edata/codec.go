// Package edata implements the encrypted payload envelope consumed by the
// external verification service. The scheme is fixed by that service's
// decryption contract: AES-256-CBC under a SHA-256 digest of the shared
// secret, with the 16 byte IV travelling in the clear as a prefix of the
// base64 envelope. No authentication tag is appended; the protocol has no
// integrity check and compatibility requires leaving it that way.
package edata

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrEmptySecret indicates the shared secret was missing. Encrypting
	// under an empty secret would silently produce a well-known key.
	ErrEmptySecret = errors.New("shared secret is empty")
	// ErrMalformedEnvelope indicates the envelope is too short or not valid
	// base64.
	ErrMalformedEnvelope = errors.New("malformed encrypted envelope")
)

// Encrypt encrypts plaintext for the external service and returns the
// base64-encoded IV||ciphertext envelope. A fresh random IV is drawn from
// crypto/rand on every call; an IV is never reused.
func Encrypt(plaintext, sharedSecret []byte) (string, error) {
	block, err := newCipher(sharedSecret)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("could not generate IV: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, aes.BlockSize+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. The external service does the real decryption;
// this end is used by tests and operational tooling.
func Decrypt(envelope string, sharedSecret []byte) ([]byte, error) {
	block, err := newCipher(sharedSecret)
	if err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}
	if len(raw) < 2*aes.BlockSize || len(raw)%aes.BlockSize != 0 {
		return nil, ErrMalformedEnvelope
	}

	iv, ciphertext := raw[:aes.BlockSize], raw[aes.BlockSize:]
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return pkcs7Unpad(plaintext, aes.BlockSize)
}

// newCipher derives the 256 bit key as the SHA-256 digest of the shared
// secret. This is length normalization of a high-entropy secret, not
// password hashing, so there is no salt or iteration count.
func newCipher(sharedSecret []byte) (cipher.Block, error) {
	if len(sharedSecret) == 0 {
		return nil, ErrEmptySecret
	}
	key := sha256.Sum256(sharedSecret)
	return aes.NewCipher(key[:])
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrMalformedEnvelope
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, ErrMalformedEnvelope
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrMalformedEnvelope
		}
	}
	return data[:len(data)-n], nil
}
