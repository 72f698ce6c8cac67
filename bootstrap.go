package main

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"strconv"

	"github.com/YasiruR/walletkit/callback"
	"github.com/YasiruR/walletkit/compactor"
	"github.com/YasiruR/walletkit/config"
	"github.com/YasiruR/walletkit/crypto"
	"github.com/YasiruR/walletkit/domain/container"
	"github.com/YasiruR/walletkit/domain/models"
	"github.com/YasiruR/walletkit/link"
	"github.com/YasiruR/walletkit/log"
	"github.com/YasiruR/walletkit/reqrep"
	"github.com/YasiruR/walletkit/reqrep/mock"
	"github.com/YasiruR/walletkit/token"
	"github.com/YasiruR/walletkit/transport"
	"github.com/YasiruR/walletkit/validator"
)

const notifBufSize = 64

func initContainer(args *container.Args, required []string) (*container.Container, error) {
	cfg, err := config.Load(args.ConfigFile)
	if err != nil {
		return nil, err
	}

	logger := log.NewLogger(args.Verbose, cfg.LogLevel)
	if args.Mocker {
		if err = startMocker(args.MockPort, cfg, logger); err != nil {
			return nil, fmt.Errorf(`starting mock gateway failed - %v`, err)
		}
	}

	if err = cfg.Require(required...); err != nil {
		return nil, err
	}

	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}

	gzip := compactor.NewGzip()
	packer, err := crypto.NewPacker(cfg.JWE.SessionKeyPublicKey, gzip, logger)
	if err != nil {
		return nil, err
	}

	tokens := token.NewService(cfg.Gateway.TokenURL, timeout, cfg.HTTP.Retries, logger)
	c := &container.Container{
		Args:      args,
		Cfg:       cfg,
		Packer:    packer,
		Compactor: gzip,
		Validator: validator.NewPass(),
		Tokens:    tokens,
		Client: reqrep.NewHTTP(cfg.WalletServerBaseURL, reqrep.Credentials{AppID: cfg.Gateway.AppID, Secret: cfg.Gateway.AppSecret},
			tokens, timeout, cfg.HTTP.Retries, logger),
		Linker:    link.NewBuilder(cfg.WalletWebsiteBaseURL, cfg.Gateway.AppID),
		NotifChan: make(chan models.CallbackNotification, notifBufSize),
		Log:       logger,
	}

	// the verifier and the callback server are only available with a callback key
	if cfg.Callback.PublicKey != `` {
		if c.Verifier, err = callback.NewVerifier(cfg.Callback.PublicKey, logger); err != nil {
			return nil, err
		}
		c.Server = transport.NewHTTP(c)
	}

	return c, nil
}

// startMocker serves a mock gateway and points the config at it. The mock owns a
// fresh session-key pair and trusts the configured signing key.
func startMocker(port int, cfg *config.Config, logger *log.Logger) error {
	gwKey, err := rsa.GenerateKey(rand.Reader, 3072)
	if err != nil {
		return fmt.Errorf(`generating gateway key failed - %v`, err)
	}

	gwPrv, err := crypto.EncodePrivateKey(gwKey)
	if err != nil {
		return err
	}

	gwPub, err := crypto.EncodePublicKey(&gwKey.PublicKey)
	if err != nil {
		return err
	}

	params := mock.Params{
		AppID:             cfg.Gateway.AppID,
		AppSecret:         cfg.Gateway.AppSecret,
		GatewayPrivateKey: gwPrv,
		SignatureHeader:   cfg.Callback.SignatureHeader,
	}

	if cfg.JWE.SignPrivateKey != `` {
		signKey, err := crypto.ParsePrivateKey(cfg.JWE.SignPrivateKey)
		if err != nil {
			return fmt.Errorf(`loading signing key failed - %w`, err)
		}
		if params.SignerPublicKey, err = crypto.EncodePublicKey(&signKey.PublicKey); err != nil {
			return err
		}
	}

	gw, err := mock.New(params, logger)
	if err != nil {
		return err
	}
	mock.Start(gw, port)

	host := `http://localhost:` + strconv.Itoa(port)
	cfg.WalletServerBaseURL = host + mock.BasePath
	cfg.Gateway.TokenURL = host + mock.TokenEndpoint
	cfg.JWE.SessionKeyPublicKey = gwPub
	return nil
}
