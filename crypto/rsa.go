package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"hash"

	"github.com/YasiruR/walletkit/domain"
	"github.com/pkg/errors"
)

// Transform names an RSA encryption scheme using the JCA transformation strings
// understood by the wallet gateway.
type Transform string

const (
	OAEPWithSHA256 Transform = `RSA/NONE/OAEPwithSHA-256andMGF1Padding`
	OAEPWithSHA1   Transform = `RSA/ECB/OAEPWithSHA-1AndMGF1Padding`
	PKCS1Padding   Transform = `RSA/ECB/PKCS1Padding`
)

func (t Transform) oaepHash() (hash.Hash, bool) {
	switch t {
	case OAEPWithSHA256:
		return sha256.New(), true
	case OAEPWithSHA1:
		return sha1.New(), true
	default:
		return nil, false
	}
}

// Encrypt encrypts content under the given public key (PEM or base64 SPKI) and
// returns the standard base64 encoding of the cipher bytes.
func Encrypt(content []byte, publicKey string, transform Transform) (string, error) {
	pubKey, err := ParsePublicKey(publicKey)
	if err != nil {
		return ``, err
	}

	return encrypt(content, pubKey, transform)
}

func encrypt(content []byte, pubKey *rsa.PublicKey, transform Transform) (string, error) {
	var cipher []byte
	var err error
	if h, ok := transform.oaepHash(); ok {
		cipher, err = rsa.EncryptOAEP(h, rand.Reader, pubKey, content, nil)
	} else if transform == PKCS1Padding {
		cipher, err = rsa.EncryptPKCS1v15(rand.Reader, pubKey, content)
	} else {
		return ``, errors.Wrapf(domain.ErrCryptoTransform, `unsupported transform %s`, transform)
	}

	if err != nil {
		return ``, errors.Wrapf(domain.ErrCryptoTransform, `rsa encryption with %s failed - %v`, transform, err)
	}

	return base64.StdEncoding.EncodeToString(cipher), nil
}

// Decrypt reverses Encrypt for the holder of the private key
func Decrypt(cipherB64 string, privateKey string, transform Transform) ([]byte, error) {
	prvKey, err := ParsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	cipher, err := base64.StdEncoding.DecodeString(cipherB64)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrEncoding, `base64 decoding cipher failed - %v`, err)
	}

	var content []byte
	if h, ok := transform.oaepHash(); ok {
		content, err = rsa.DecryptOAEP(h, rand.Reader, prvKey, cipher, nil)
	} else if transform == PKCS1Padding {
		content, err = rsa.DecryptPKCS1v15(rand.Reader, prvKey, cipher)
	} else {
		return nil, errors.Wrapf(domain.ErrCryptoTransform, `unsupported transform %s`, transform)
	}

	if err != nil {
		return nil, errors.Wrapf(domain.ErrCryptoTransform, `rsa decryption with %s failed - %v`, transform, err)
	}

	return content, nil
}

// Sign signs the UTF-8 bytes of content with SHA256withRSA (PKCS#1 v1.5) using a
// PKCS#8 private key and returns the standard base64 signature.
func Sign(content, privateKey string) (string, error) {
	prvKey, err := ParsePrivateKey(privateKey)
	if err != nil {
		return ``, err
	}

	return sign(content, prvKey)
}

func sign(content string, prvKey *rsa.PrivateKey) (string, error) {
	digest := sha256.Sum256([]byte(content))
	sig, err := rsa.SignPKCS1v15(rand.Reader, prvKey, crypto.SHA256, digest[:])
	if err != nil {
		return ``, errors.Wrapf(domain.ErrCryptoTransform, `SHA256withRSA signing failed - %v`, err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks a SHA256withRSA (PKCS#1 v1.5) signature produced by Sign. A
// signature that does not match, or is not valid base64, yields false.
func Verify(content, publicKey, signature string) (bool, error) {
	pubKey, err := ParsePublicKey(publicKey)
	if err != nil {
		return false, err
	}

	return verify(content, pubKey, signature), nil
}

func verify(content string, pubKey *rsa.PublicKey, signature string) bool {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	digest := sha256.Sum256([]byte(content))
	return rsa.VerifyPKCS1v15(pubKey, crypto.SHA256, digest[:], sig) == nil
}

// SignPSS signs content with SHA-256 and RSA-PSS (salt length equal to the hash),
// as the wallet gateway does for callback notifications.
func SignPSS(content, privateKey string) (string, error) {
	prvKey, err := ParsePrivateKey(privateKey)
	if err != nil {
		return ``, err
	}

	digest := sha256.Sum256([]byte(content))
	sig, err := rsa.SignPSS(rand.Reader, prvKey, crypto.SHA256, digest[:], &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
	if err != nil {
		return ``, errors.Wrapf(domain.ErrCryptoTransform, `SHA256withRSA/PSS signing failed - %v`, err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// VerifyPSS checks a SHA-256 RSA-PSS signature of any salt length. It never
// fails for a wrong or undecodable signature, only for an unusable key.
func VerifyPSS(content, publicKey, signature string) (bool, error) {
	pubKey, err := ParsePublicKey(publicKey)
	if err != nil {
		return false, err
	}

	return verifyPSS(content, pubKey, signature), nil
}

func verifyPSS(content string, pubKey *rsa.PublicKey, signature string) bool {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	digest := sha256.Sum256([]byte(content))
	return rsa.VerifyPSS(pubKey, crypto.SHA256, digest[:], sig, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto}) == nil
}
