package messages

import (
	"strings"

	"github.com/YasiruR/walletkit/domain"
	"github.com/pkg/errors"
)

// Header is the constant header of every envelope. It is serialized as
// `alg=.., enc=.., kid=.., zip=..` rather than JSON.
type Header struct {
	Alg string
	Enc string
	Kid string
	Zip string
}

func DefaultHeader() Header {
	return Header{Alg: HeaderAlg, Enc: HeaderEnc, Kid: HeaderKid, Zip: HeaderZip}
}

func (h Header) String() string {
	return `alg=` + h.Alg + `, enc=` + h.Enc + `, kid=` + h.Kid + `, zip=` + h.Zip
}

// Envelope holds the five encoded segments in wire order
type Envelope struct {
	Header       string
	EncryptedKey string
	IV           string
	CipherText   string
	Signature    string
}

func (e Envelope) String() string {
	return strings.Join([]string{e.Header, e.EncryptedKey, e.IV, e.CipherText, e.Signature}, segmentSeparator)
}

// ParseEnvelope splits a serialized envelope into exactly five non-empty segments.
func ParseEnvelope(s string) (Envelope, error) {
	parts := strings.Split(strings.TrimSpace(s), segmentSeparator)
	if len(parts) != segmentCount {
		return Envelope{}, errors.Wrapf(domain.ErrInvalidEnvelope, `expected %d segments but found %d`, segmentCount, len(parts))
	}

	for i, p := range parts {
		if p == `` {
			return Envelope{}, errors.Wrapf(domain.ErrInvalidEnvelope, `segment %d is empty`, i+1)
		}
	}

	return Envelope{
		Header:       parts[0],
		EncryptedKey: parts[1],
		IV:           parts[2],
		CipherText:   parts[3],
		Signature:    parts[4],
	}, nil
}
