package edata

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	secret := []byte("council-shared-secret")

	cases := [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte("reference=abc123&customerNumber=10001234567"),
		[]byte(strings.Repeat("x", 16)),  // exactly one block
		[]byte(strings.Repeat("y", 255)), // spans many blocks
		{0x00, 0xff, 0x10, 0x80},         // binary safe
	}

	for _, plaintext := range cases {
		envelope, err := Encrypt(plaintext, secret)
		require.NoError(t, err)

		decrypted, err := Decrypt(envelope, secret)
		require.NoError(t, err)
		require.Equal(t, plaintext, decrypted)
	}
}

func TestEncryptFreshIVPerCall(t *testing.T) {
	secret := []byte("council-shared-secret")
	plaintext := []byte("reference=abc123")

	first, err := Encrypt(plaintext, secret)
	require.NoError(t, err)
	second, err := Encrypt(plaintext, secret)
	require.NoError(t, err)

	require.NotEqual(t, first, second, "same plaintext must never produce the same envelope")
}

func TestEncryptEnvelopeShape(t *testing.T) {
	envelope, err := Encrypt([]byte("hello"), []byte("secret"))
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(envelope)
	require.NoError(t, err)

	// 16 byte IV plus at least one cipher block.
	require.GreaterOrEqual(t, len(raw), 32)
	require.Zero(t, len(raw)%16)
}

func TestEncryptEmptySecret(t *testing.T) {
	_, err := Encrypt([]byte("hello"), nil)
	require.ErrorIs(t, err, ErrEmptySecret)

	_, err = Decrypt("aGVsbG8=", []byte{})
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestDecryptWrongSecret(t *testing.T) {
	envelope, err := Encrypt([]byte("hello world"), []byte("right"))
	require.NoError(t, err)

	// CBC has no integrity check, so a wrong key either fails padding
	// validation or yields garbage; it must never yield the plaintext.
	decrypted, err := Decrypt(envelope, []byte("wrong"))
	if err == nil {
		require.NotEqual(t, []byte("hello world"), decrypted)
	}
}

func TestDecryptMalformedEnvelope(t *testing.T) {
	for _, envelope := range []string{"", "not-base64!!", "aGVsbG8=", base64.StdEncoding.EncodeToString(make([]byte, 17))} {
		_, err := Decrypt(envelope, []byte("secret"))
		require.Error(t, err)
	}
}
