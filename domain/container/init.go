package container

import (
	"fmt"

	"github.com/YasiruR/walletkit/config"
	"github.com/YasiruR/walletkit/domain/models"
	"github.com/YasiruR/walletkit/domain/services"
	"github.com/tryfix/log"
)

type Args struct {
	ConfigFile string
	Verbose    bool
	Mocker     bool
	MockPort   int
}

type Container struct {
	Args      *Args
	Cfg       *config.Config
	Packer    services.Packer
	Compactor services.Compactor
	Verifier  services.CallbackVerifier
	Validator services.Validator
	Tokens    services.TokenProvider
	Client    services.WalletClient
	Linker    services.Linker
	Server    services.Server
	NotifChan chan models.CallbackNotification
	Log       log.Logger
}

func (c *Container) Stop() error {
	if c.Server != nil {
		if err := c.Server.Stop(); err != nil {
			return fmt.Errorf(`server shutdown failed - %v`, err)
		}
	}

	c.Log.Info(`graceful shutdown of wallet kit completed successfully`)
	return nil
}
