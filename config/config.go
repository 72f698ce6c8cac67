// Package config loads the wallet kit settings from a YAML file and lets the
// environment (optionally populated from .env files) override them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/YasiruR/walletkit/domain"
	"github.com/YasiruR/walletkit/domain/services"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config captures every setting used to reach the wallet gateway and to build
// and verify its payloads.
type Config struct {
	WalletServerBaseURL  string   `yaml:"walletServerBaseUrl"`
	WalletWebsiteBaseURL string   `yaml:"walletWebsiteBaseUrl"`
	Gateway              Gateway  `yaml:"gw"`
	JWE                  JWE      `yaml:"jwe"`
	Callback             Callback `yaml:"callback"`
	HTTP                 HTTP     `yaml:"http"`
	LogLevel             string   `yaml:"logLevel"`
}

type Gateway struct {
	TokenURL  string `yaml:"tokenUrl"`
	AppID     string `yaml:"appid"`
	AppSecret string `yaml:"secret"`
}

type JWE struct {
	// SessionKeyPublicKey defaults to domain.SessionKeyPublicKey
	SessionKeyPublicKey string `yaml:"sessionKeyPublicKey"`
	SignPrivateKey      string `yaml:"signPrivateKey"`
}

type Callback struct {
	PublicKey       string `yaml:"publicKey"`
	SignatureHeader string `yaml:"signatureHeader"`
	Port            int    `yaml:"port"`
}

type HTTP struct {
	Timeout string `yaml:"timeout"`
	// Retries defaults to domain.DefaultRetries, an explicit 0 disables retrying
	Retries int `yaml:"retries"`
}

// keys understood by Value and their environment overrides
const (
	KeyWalletServerBaseURL  = `walletServerBaseUrl`
	KeyWalletWebsiteBaseURL = `walletWebsiteBaseUrl`
	KeyTokenURL             = `gw.tokenUrl`
	KeyAppID                = `gw.appid`
	KeyAppSecret            = `gw.appid.secret`
	KeySessionKeyPublicKey  = `jwe.sessionKeyPublicKey`
	KeySignPrivateKey       = `jwe.signPrivateKey`
	KeyCallbackPublicKey    = `callback.publicKey`
	KeySignatureHeader      = `callback.signatureHeader`
	KeyCallbackPort         = `callback.port`
	KeyHTTPTimeout          = `http.timeout`
	KeyHTTPRetries          = `http.retries`
	KeyLogLevel             = `logLevel`
)

var _ services.ConfigProvider = (*Config)(nil)

type entry struct {
	key string
	env string
	str *string
	num *int
}

func (c *Config) entries() []entry {
	return []entry{
		{key: KeyWalletServerBaseURL, env: `WALLET_SERVER_BASE_URL`, str: &c.WalletServerBaseURL},
		{key: KeyWalletWebsiteBaseURL, env: `WALLET_WEBSITE_BASE_URL`, str: &c.WalletWebsiteBaseURL},
		{key: KeyTokenURL, env: `WALLET_GW_TOKEN_URL`, str: &c.Gateway.TokenURL},
		{key: KeyAppID, env: `WALLET_GW_APPID`, str: &c.Gateway.AppID},
		{key: KeyAppSecret, env: `WALLET_GW_APPID_SECRET`, str: &c.Gateway.AppSecret},
		{key: KeySessionKeyPublicKey, env: `WALLET_JWE_SESSION_KEY_PUBLIC_KEY`, str: &c.JWE.SessionKeyPublicKey},
		{key: KeySignPrivateKey, env: `WALLET_JWE_SIGN_PRIVATE_KEY`, str: &c.JWE.SignPrivateKey},
		{key: KeyCallbackPublicKey, env: `WALLET_CALLBACK_PUBLIC_KEY`, str: &c.Callback.PublicKey},
		{key: KeySignatureHeader, env: `WALLET_CALLBACK_SIGNATURE_HEADER`, str: &c.Callback.SignatureHeader},
		{key: KeyCallbackPort, env: `WALLET_CALLBACK_PORT`, num: &c.Callback.Port},
		{key: KeyHTTPTimeout, env: `WALLET_HTTP_TIMEOUT`, str: &c.HTTP.Timeout},
		{key: KeyHTTPRetries, env: `WALLET_HTTP_RETRIES`, num: &c.HTTP.Retries},
		{key: KeyLogLevel, env: `WALLET_LOG_LEVEL`, str: &c.LogLevel},
	}
}

// Load reads the YAML file at path (skipped when path is empty), loads .env and
// .env.local if present, then applies WALLET_* environment overrides. Already
// set environment variables take precedence over .env files.
func Load(path string) (*Config, error) {
	// defaults which an explicit zero value must be able to override
	cfg := &Config{HTTP: HTTP{Retries: domain.DefaultRetries}}
	if path != `` {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf(`reading config file %s failed - %w`, path, err)
		}

		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf(`parsing config file %s failed - %w`, path, err)
		}
	}

	for _, f := range []string{`.env`, `.env.local`} {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf(`loading %s failed - %w`, f, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.setDefaults()
	if cfg.HTTP.Retries < 0 {
		return nil, fmt.Errorf(`http retries must not be negative (%d)`, cfg.HTTP.Retries)
	}

	if _, err := cfg.Timeout(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	for _, e := range c.entries() {
		val, ok := os.LookupEnv(e.env)
		if !ok {
			continue
		}

		if e.str != nil {
			*e.str = val
			continue
		}

		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf(`invalid value for %s (%s) - %w`, e.env, val, err)
		}
		*e.num = n
	}

	return nil
}

func (c *Config) setDefaults() {
	if c.JWE.SessionKeyPublicKey == `` {
		c.JWE.SessionKeyPublicKey = domain.SessionKeyPublicKey
	}
	if c.Callback.SignatureHeader == `` {
		c.Callback.SignatureHeader = domain.DefaultSignatureHeader
	}
	if c.Callback.Port == 0 {
		c.Callback.Port = domain.DefaultCallbackPort
	}
	if c.HTTP.Timeout == `` {
		c.HTTP.Timeout = domain.DefaultHTTPTimeout
	}
	if c.LogLevel == `` {
		c.LogLevel = domain.DefaultLogLevel
	}
}

// Value implements services.ConfigProvider
func (c *Config) Value(key string) (string, bool) {
	for _, e := range c.entries() {
		if e.key != key {
			continue
		}

		if e.str != nil {
			return *e.str, *e.str != ``
		}
		return strconv.Itoa(*e.num), true
	}

	return ``, false
}

// Require fails with domain.ErrNullResponse naming the first key without a value
func (c *Config) Require(keys ...string) error {
	for _, k := range keys {
		if _, ok := c.Value(k); !ok {
			return errors.Wrapf(domain.ErrNullResponse, `config value %s is not set`, k)
		}
	}
	return nil
}

func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil {
		return 0, fmt.Errorf(`invalid http timeout (%s) - %w`, c.HTTP.Timeout, err)
	}
	return d, nil
}
