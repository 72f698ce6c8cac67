package mock

import "github.com/YasiruR/walletkit/domain/models"

const (
	TokenEndpoint = `/oauth2/v3/token`
	BasePath      = `/hmspass/v1`
	maxMessages   = 10
	tokenTTL      = 3600
)

// Params configures the mock gateway. GatewayPrivateKey is the counterpart of the
// session-key public key used by the packer and SignerPublicKey verifies the
// envelopes submitted by the issuer. CallbackPrivateKey signs notifications.
type Params struct {
	AppID              string
	AppSecret          string
	GatewayPrivateKey  string
	SignerPublicKey    string
	CallbackPrivateKey string
	SignatureHeader    string
}

type resError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// resBind is returned for a thin envelope binding existing instances to a user
type resBind struct {
	Iss         string   `json:"iss"`
	InstanceIDs []string `json:"instanceIds"`
}

type jwePayload struct {
	models.HwWalletObject
	models.ThinPayload
}
