package services

import (
	"context"

	"github.com/YasiruR/walletkit/domain/models"
)

/* core services */

// Packer builds the five-segment wallet envelope. Open is the inverse performed
// by the holder of the session-key private key (ie. the wallet gateway).
type Packer interface {
	Pack(signPrvKey, payload string) (envelope string, err error)
	Open(envelope, gatewayPrvKey, signerPubKey string) (payload string, err error)
}

// CallbackVerifier authenticates callback notifications sent by the wallet gateway
type CallbackVerifier interface {
	// Verify returns false without an error when the signature does not match
	Verify(body []byte, signature string) (ok bool, err error)
	Decode(body []byte) (models.CallbackNotification, error)
}

// Linker builds the payloads and the browser link used to save passes
type Linker interface {
	ThinPayload(instanceIDs []string) (string, error)
	InstancePayload(instance []byte) (string, error)
	ContentLink(envelope string) string
}

// Validator checks pass objects before they are sent to the gateway
type Validator interface {
	ValidateModel(obj models.HwWalletObject) error
	ValidateInstance(obj models.HwWalletObject) error
}

/* gateway services */

type WalletClient interface {
	Post(ctx context.Context, segment string, body []byte) (string, error)
	Get(ctx context.Context, segment, id string) (models.HwWalletObject, error)
	ListModels(ctx context.Context, segment string, pageSize int) ([]models.HwWalletObject, error)
	ListInstances(ctx context.Context, segment, modelID string, pageSize int) ([]models.HwWalletObject, error)
	FullUpdate(ctx context.Context, segment, id string, body []byte) (string, error)
	PartialUpdate(ctx context.Context, segment, id string, body []byte) (string, error)
	AddMessage(ctx context.Context, segment, id string, body []byte) (string, error)
	UpdateLinkedOffers(ctx context.Context, segment, id string, body []byte) (string, error)
	SubmitJwe(ctx context.Context, segment, envelope string) (string, error)
}
