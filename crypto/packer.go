package crypto

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/YasiruR/walletkit/domain"
	"github.com/YasiruR/walletkit/domain/messages"
	"github.com/YasiruR/walletkit/domain/services"
	"github.com/YasiruR/walletkit/metrics"
	"github.com/pkg/errors"
	"github.com/tryfix/log"
)

// Packer constructs the envelope used to transmit pass data to the wallet gateway:
// header.encryptedKey.iv.cipherText.signature
type Packer struct {
	sessionKeyPubKey *rsa.PublicKey
	compactor        services.Compactor
	random           func(size int) ([]byte, error)
	seal             func(plaintext, hexKey string, iv []byte) (string, error)
	log              log.Logger
}

// NewPacker parses the session-key public key up front so that a misconfigured
// key fails at startup rather than on the first envelope.
func NewPacker(sessionKeyPubKey string, c services.Compactor, logger log.Logger) (*Packer, error) {
	pubKey, err := ParsePublicKey(sessionKeyPubKey)
	if err != nil {
		return nil, fmt.Errorf(`loading session key public key failed - %w`, err)
	}

	return &Packer{
		sessionKeyPubKey: pubKey,
		compactor:        c,
		random:           SecureRandom,
		seal:             EncryptGCM,
		log:              logger,
	}, nil
}

// Pack encrypts and signs payload. The signature covers the encoded header, the
// plaintext session key, the encoded iv and the plaintext payload.
func (p *Packer) Pack(signPrvKey, payload string) (string, error) {
	prvKey, err := ParsePrivateKey(signPrvKey)
	if err != nil {
		metrics.Envelope(false)
		return ``, fmt.Errorf(`loading signing key failed - %w`, err)
	}

	env, err := p.pack(prvKey, payload)
	if err != nil {
		metrics.Envelope(false)
		return ``, err
	}

	metrics.Envelope(true)
	return env.String(), nil
}

func (p *Packer) pack(prvKey *rsa.PrivateKey, payload string) (messages.Envelope, error) {
	headerEncoded := encodeHeader(messages.DefaultHeader())
	p.log.Trace(`packer`, `encoded header`, headerEncoded)

	sessionKeyBytes, err := p.random(domain.SessionKeySize)
	if err != nil {
		return messages.Envelope{}, fmt.Errorf(`generating session key failed - %w`, err)
	}
	sessionKey := hex.EncodeToString(sessionKeyBytes)

	encryptedKey, err := encrypt([]byte(sessionKey), p.sessionKeyPubKey, OAEPWithSHA256)
	if err != nil {
		return messages.Envelope{}, fmt.Errorf(`encrypting session key failed - %w`, err)
	}

	iv, err := p.random(domain.IVSize)
	if err != nil {
		return messages.Envelope{}, fmt.Errorf(`generating iv failed - %w`, err)
	}
	ivEncoded := base64.RawURLEncoding.EncodeToString([]byte(hex.EncodeToString(iv)))
	p.log.Trace(`packer`, `encoded iv`, ivEncoded)

	cipherText, err := p.cipherText(payload, sessionKey, iv)
	if err != nil {
		return messages.Envelope{}, err
	}

	signature, err := sign(signingInput(headerEncoded, sessionKey, ivEncoded, payload), prvKey)
	if err != nil {
		return messages.Envelope{}, fmt.Errorf(`signing envelope failed - %w`, err)
	}

	env := messages.Envelope{
		Header:       headerEncoded,
		EncryptedKey: base64.RawURLEncoding.EncodeToString([]byte(encryptedKey)),
		IV:           ivEncoded,
		CipherText:   cipherText,
		Signature:    signature,
	}
	p.log.Debug(`packer`, fmt.Sprintf(`envelope constructed (payload: %d bytes, envelope: %d bytes)`, len(payload), len(env.String())))

	return env, nil
}

// cipherText seals the payload, hex encodes it, then compresses and encodes the hex string
func (p *Packer) cipherText(payload, sessionKey string, iv []byte) (string, error) {
	sealed, err := p.seal(payload, sessionKey, iv)
	if err != nil {
		return ``, fmt.Errorf(`encrypting payload failed - %w`, err)
	}

	compressed, err := p.compactor.Compress([]byte(sealed))
	if err != nil {
		return ``, fmt.Errorf(`compressing cipher text failed - %w`, err)
	}

	return base64.RawURLEncoding.EncodeToString(compressed), nil
}

// Open decrypts an envelope with the session-key private key and verifies its
// signature against the issuer's public key. It is the gateway side of Pack.
func (p *Packer) Open(envelope, gatewayPrvKey, signerPubKey string) (string, error) {
	env, err := messages.ParseEnvelope(envelope)
	if err != nil {
		return ``, err
	}

	header, err := decodeSegment(env.Header)
	if err != nil {
		return ``, err
	}
	if header != messages.DefaultHeader().String() {
		return ``, errors.Wrapf(domain.ErrInvalidEnvelope, `unexpected header (%s)`, header)
	}

	encryptedKey, err := decodeSegment(env.EncryptedKey)
	if err != nil {
		return ``, err
	}

	sessionKey, err := Decrypt(encryptedKey, gatewayPrvKey, OAEPWithSHA256)
	if err != nil {
		return ``, fmt.Errorf(`decrypting session key failed - %w`, err)
	}

	ivHex, err := decodeSegment(env.IV)
	if err != nil {
		return ``, err
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return ``, errors.Wrapf(domain.ErrInvalidEnvelope, `iv is not hex encoded - %v`, err)
	}

	compressed, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(env.CipherText, `=`))
	if err != nil {
		return ``, errors.Wrapf(domain.ErrInvalidEnvelope, `decoding cipher text failed - %v`, err)
	}

	sealed, err := p.compactor.Decompress(compressed)
	if err != nil {
		return ``, fmt.Errorf(`decompressing cipher text failed - %w`, err)
	}

	payload, err := DecryptGCM(string(sealed), string(sessionKey), iv)
	if err != nil {
		return ``, err
	}

	ok, err := Verify(signingInput(env.Header, string(sessionKey), env.IV, payload), signerPubKey, env.Signature)
	if err != nil {
		return ``, fmt.Errorf(`loading signer public key failed - %w`, err)
	}
	if !ok {
		return ``, errors.Wrap(domain.ErrInvalidEnvelope, `signature mismatch`)
	}

	return payload, nil
}

func encodeHeader(h messages.Header) string {
	return base64.RawURLEncoding.EncodeToString([]byte(h.String()))
}

func signingInput(headerEncoded, sessionKey, ivEncoded, payload string) string {
	return strings.Join([]string{headerEncoded, sessionKey, ivEncoded, payload}, `.`)
}

// decodeSegment accepts both padded and unpadded base64url segments
func decodeSegment(seg string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(seg, `=`))
	if err != nil {
		return ``, errors.Wrapf(domain.ErrInvalidEnvelope, `base64url decoding segment failed - %v`, err)
	}
	return string(b), nil
}
