package domain

import "github.com/pkg/errors"

// error kinds returned by the components, wrapped with the cause of each failure
var (
	// ErrKeyDecoding indicates malformed PEM/base64 key material
	ErrKeyDecoding = errors.New(`key decoding failed`)
	// ErrCryptoTransform indicates an unsupported or misconfigured cipher or signature transform
	ErrCryptoTransform = errors.New(`crypto transform failed`)
	// ErrNullResponse indicates that an expected value (eg: access token) was absent
	ErrNullResponse = errors.New(`expected value is missing`)
	ErrCompression  = errors.New(`compression failed`)
	ErrEncoding     = errors.New(`encoding failed`)
	// ErrInvalidEnvelope is returned when an envelope cannot be split, decoded or authenticated
	ErrInvalidEnvelope = errors.New(`invalid envelope`)
	ErrValidation      = errors.New(`validation failed`)
	ErrGateway         = errors.New(`wallet gateway request failed`)
)
