// Package token fetches OAuth2 client-credentials access tokens for the wallet
// gateway and caches them until shortly before they expire.
package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/YasiruR/walletkit/domain"
	"github.com/YasiruR/walletkit/domain/models"
	"github.com/bluele/gcache"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/tryfix/log"
)

const (
	expiryMargin = 60 * time.Second
	cacheSize    = 16
)

type Service struct {
	tokenURL   string
	retries    int
	client     *http.Client
	cache      gcache.Cache
	newBackOff func() backoff.BackOff
	log        log.Logger
}

// NewService treats a negative retry count as zero, ie: a single attempt
func NewService(tokenURL string, timeout time.Duration, retries int, logger log.Logger) *Service {
	if retries < 0 {
		retries = 0
	}

	return &Service{
		tokenURL:   tokenURL,
		retries:    retries,
		client:     &http.Client{Timeout: timeout},
		cache:      gcache.New(cacheSize).LRU().Build(),
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		log:        logger,
	}
}

// AccessToken returns a cached token of the client if it has not expired, and
// requests a new one otherwise.
func (s *Service) AccessToken(ctx context.Context, clientID, clientSecret string) (string, error) {
	key := cacheKey(clientID, clientSecret)
	if val, err := s.cache.Get(key); err == nil {
		return val.(string), nil
	}

	var res models.AccessTokenResp
	op := func() error {
		var err error
		res, err = s.request(ctx, clientID, clientSecret)
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), uint64(s.retries)), ctx)
	notify := func(err error, d time.Duration) {
		s.log.Warn(`token`, fmt.Sprintf(`requesting access token failed, retrying in %s`, d), err)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return ``, err
	}

	if res.AccessToken == `` {
		return ``, errors.Wrap(domain.ErrNullResponse, `gateway returned an empty access token`)
	}

	if ttl := time.Duration(res.ExpiresIn)*time.Second - expiryMargin; ttl > 0 {
		if err := s.cache.SetWithExpire(key, res.AccessToken, ttl); err != nil {
			s.log.Warn(`token`, `caching access token failed`, err)
		}
	}

	s.log.Debug(`token`, fmt.Sprintf(`access token obtained (expires in %ds)`, res.ExpiresIn))
	return res.AccessToken, nil
}

// cacheKey binds a cached token to the secret it was issued for so that a
// rotated secret never reuses the previous token
func cacheKey(clientID, clientSecret string) string {
	sum := sha256.Sum256([]byte(clientSecret))
	return clientID + `:` + hex.EncodeToString(sum[:])
}

func (s *Service) request(ctx context.Context, clientID, clientSecret string) (models.AccessTokenResp, error) {
	form := url.Values{}
	form.Set(`grant_type`, `client_credentials`)
	form.Set(`client_id`, clientID)
	form.Set(`client_secret`, clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return models.AccessTokenResp{}, backoff.Permanent(errors.Wrapf(domain.ErrGateway, `creating token request failed - %v`, err))
	}
	req.Header.Set(`Content-Type`, `application/x-www-form-urlencoded; charset=UTF-8`)

	res, err := s.client.Do(req)
	if err != nil {
		return models.AccessTokenResp{}, errors.Wrapf(domain.ErrGateway, `token request failed - %v`, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return models.AccessTokenResp{}, errors.Wrapf(domain.ErrGateway, `reading token response failed - %v`, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		err = errors.Wrapf(domain.ErrGateway, `token request returned status %d - %s`, res.StatusCode, string(data))
		if res.StatusCode < http.StatusInternalServerError {
			return models.AccessTokenResp{}, backoff.Permanent(err)
		}
		return models.AccessTokenResp{}, err
	}

	var tr models.AccessTokenResp
	if err = json.Unmarshal(data, &tr); err != nil {
		return models.AccessTokenResp{}, backoff.Permanent(errors.Wrapf(domain.ErrEncoding, `unmarshalling token response failed - %v`, err))
	}

	return tr, nil
}
