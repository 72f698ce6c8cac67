package callback

import (
	"fmt"

	"github.com/YasiruR/walletkit/crypto"
	"github.com/YasiruR/walletkit/domain"
	"github.com/YasiruR/walletkit/domain/models"
	"github.com/YasiruR/walletkit/metrics"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/tryfix/log"
)

// Verifier checks the RSA-PSS/SHA-256 signature of callback notifications against
// the fixed public key published by the wallet gateway.
type Verifier struct {
	publicKey string
	log       log.Logger
}

func NewVerifier(publicKey string, logger log.Logger) (*Verifier, error) {
	if _, err := crypto.ParsePublicKey(publicKey); err != nil {
		return nil, fmt.Errorf(`loading callback public key failed - %w`, err)
	}

	return &Verifier{publicKey: publicKey, log: logger}, nil
}

// Verify returns false for a signature that does not match the canonical form of
// body. Errors are returned only for an undecodable body or key.
func (v *Verifier) Verify(body []byte, signature string) (bool, error) {
	ok, err := VerifyCallback(body, v.publicKey, signature)
	if err != nil {
		return false, err
	}

	metrics.CallbackVerification(ok)
	if !ok {
		v.log.Warn(`callback`, `signature verification failed`)
	}
	return ok, nil
}

// Decode maps a callback body onto the typed notification. Values not known to
// the struct are kept in Extra.
func (v *Verifier) Decode(body []byte) (models.CallbackNotification, error) {
	fields, err := decodeBody(body)
	if err != nil {
		return models.CallbackNotification{}, err
	}

	var n models.CallbackNotification
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &n,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return models.CallbackNotification{}, errors.Wrapf(domain.ErrEncoding, `creating notification decoder failed - %v`, err)
	}

	if err = dec.Decode(fields); err != nil {
		return models.CallbackNotification{}, errors.Wrapf(domain.ErrEncoding, `decoding notification failed - %v`, err)
	}

	return n, nil
}

// VerifyCallback canonicalizes body and verifies signature (standard base64) with
// RSA-PSS/SHA-256 under publicKey.
func VerifyCallback(body []byte, publicKey, signature string) (bool, error) {
	content, err := Canonicalize(body)
	if err != nil {
		return false, err
	}

	return crypto.VerifyPSS(content, publicKey, signature)
}
