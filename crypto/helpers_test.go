package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"

	wklog "github.com/YasiruR/walletkit/log"
	"github.com/stretchr/testify/require"
)

type keyPair struct {
	prv    *rsa.PrivateKey
	prvPEM string
	pubPEM string
}

var (
	keysOnce sync.Once
	signer   keyPair // issuer signing keys
	gateway  keyPair // stands in for the wallet gateway session-key pair
	keysErr  error
)

func testKeys(t *testing.T) (keyPair, keyPair) {
	t.Helper()
	keysOnce.Do(func() {
		if signer, keysErr = newKeyPair(); keysErr != nil {
			return
		}
		gateway, keysErr = newKeyPair()
	})
	require.NoError(t, keysErr)
	return signer, gateway
}

func newKeyPair() (keyPair, error) {
	prv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return keyPair{}, err
	}

	prvPEM, err := EncodePrivateKey(prv)
	if err != nil {
		return keyPair{}, err
	}

	pubPEM, err := EncodePublicKey(&prv.PublicKey)
	if err != nil {
		return keyPair{}, err
	}

	return keyPair{prv: prv, prvPEM: prvPEM, pubPEM: pubPEM}, nil
}

func testLogger() *wklog.Logger {
	return wklog.NewLogger(false, `ERROR`)
}
