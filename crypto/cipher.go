package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/YasiruR/walletkit/domain"
	"github.com/pkg/errors"
)

// SecureRandom draws size bytes from the system CSPRNG
func SecureRandom(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, errors.Wrapf(domain.ErrCryptoTransform, `reading %d random bytes failed - %v`, size, err)
	}
	return b, nil
}

// SecureRandomHex returns size random bytes as a lowercase hex string
func SecureRandomHex(size int) (string, error) {
	b, err := SecureRandom(size)
	if err != nil {
		return ``, err
	}
	return hex.EncodeToString(b), nil
}

// EncryptGCM seals plaintext with AES-GCM (no additional data, 128-bit tag) and
// returns cipher text followed by the tag as lowercase hex. The AES key is the
// UTF-8 bytes of hexKey, so a 32 character session key selects AES-256.
func EncryptGCM(plaintext, hexKey string, iv []byte) (string, error) {
	aead, err := newGCM(hexKey, iv)
	if err != nil {
		return ``, err
	}

	return hex.EncodeToString(aead.Seal(nil, iv, []byte(plaintext), nil)), nil
}

// DecryptGCM reverses EncryptGCM
func DecryptGCM(cipherHex, hexKey string, iv []byte) (string, error) {
	aead, err := newGCM(hexKey, iv)
	if err != nil {
		return ``, err
	}

	sealed, err := hex.DecodeString(cipherHex)
	if err != nil {
		return ``, errors.Wrapf(domain.ErrEncoding, `hex decoding cipher text failed - %v`, err)
	}

	plaintext, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return ``, errors.Wrapf(domain.ErrInvalidEnvelope, `aes-gcm authentication failed - %v`, err)
	}

	return string(plaintext), nil
}

func newGCM(hexKey string, iv []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher([]byte(hexKey))
	if err != nil {
		return nil, errors.Wrapf(domain.ErrCryptoTransform, `creating aes cipher failed - %v`, err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return nil, errors.Wrapf(domain.ErrCryptoTransform, `creating gcm mode failed - %v`, err)
	}

	return aead, nil
}
