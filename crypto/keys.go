package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strings"

	"github.com/YasiruR/walletkit/domain"
	"github.com/pkg/errors"
)

const (
	pemPrefix     = `-----BEGIN`
	pemPublicKey  = `PUBLIC KEY`
	pemPrivateKey = `PRIVATE KEY`
)

// ParsePublicKey accepts either a PEM block or the bare base64 encoding of an
// X.509 SubjectPublicKeyInfo holding an RSA key.
func ParsePublicKey(key string) (*rsa.PublicKey, error) {
	der, err := keyBytes(key)
	if err != nil {
		return nil, err
	}

	ifc, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrKeyDecoding, `parsing public key failed - %v`, err)
	}

	pubKey, ok := ifc.(*rsa.PublicKey)
	if !ok {
		return nil, errors.Wrapf(domain.ErrKeyDecoding, `public key is not an RSA key (%T)`, ifc)
	}

	return pubKey, nil
}

// ParsePrivateKey accepts a PKCS#8 key (PEM or bare base64). PKCS#1 keys are
// also accepted since issuers often keep them in `RSA PRIVATE KEY` blocks.
func ParsePrivateKey(key string) (*rsa.PrivateKey, error) {
	der, err := keyBytes(key)
	if err != nil {
		return nil, err
	}

	ifc, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		prvKey, pkcs1Err := x509.ParsePKCS1PrivateKey(der)
		if pkcs1Err != nil {
			return nil, errors.Wrapf(domain.ErrKeyDecoding, `parsing private key failed - %v`, err)
		}
		return prvKey, nil
	}

	prvKey, ok := ifc.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.Wrapf(domain.ErrKeyDecoding, `private key is not an RSA key (%T)`, ifc)
	}

	return prvKey, nil
}

func keyBytes(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if key == `` {
		return nil, errors.Wrap(domain.ErrKeyDecoding, `empty key`)
	}

	if strings.HasPrefix(key, pemPrefix) {
		block, _ := pem.Decode([]byte(key))
		if block == nil {
			return nil, errors.Wrap(domain.ErrKeyDecoding, `invalid PEM block`)
		}
		return block.Bytes, nil
	}

	der, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(key), ``))
	if err != nil {
		return nil, errors.Wrapf(domain.ErrKeyDecoding, `base64 decoding key failed - %v`, err)
	}

	return der, nil
}

// EncodePublicKey returns the PEM encoded SubjectPublicKeyInfo of the key
func EncodePublicKey(pubKey *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pubKey)
	if err != nil {
		return ``, errors.Wrapf(domain.ErrEncoding, `marshalling public key failed - %v`, err)
	}

	return string(pem.EncodeToMemory(&pem.Block{Type: pemPublicKey, Bytes: der})), nil
}

// EncodePrivateKey returns the PEM encoded PKCS#8 form of the key
func EncodePrivateKey(prvKey *rsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(prvKey)
	if err != nil {
		return ``, errors.Wrapf(domain.ErrEncoding, `marshalling private key failed - %v`, err)
	}

	return string(pem.EncodeToMemory(&pem.Block{Type: pemPrivateKey, Bytes: der})), nil
}
