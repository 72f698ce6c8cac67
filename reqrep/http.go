package reqrep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/YasiruR/walletkit/domain"
	"github.com/YasiruR/walletkit/domain/models"
	"github.com/YasiruR/walletkit/domain/services"
	"github.com/YasiruR/walletkit/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tryfix/log"
)

const (
	headerRequestID  = `X-Request-Id`
	contentTypeJSON  = `application/json; charset=UTF-8`
	contentTypeText  = `text/plain; charset=UTF-8`
	authorizationPfx = `Bearer `
)

type Credentials struct {
	AppID  string
	Secret string
}

// HTTP is the REST client of the wallet gateway. Every request is authorized
// with an access token obtained from the token provider.
type HTTP struct {
	baseURL    string
	creds      Credentials
	tokens     services.TokenProvider
	client     *http.Client
	retries    int
	newBackOff func() backoff.BackOff
	log        log.Logger
}

// NewHTTP treats a negative retry count as zero so reads are attempted once
func NewHTTP(baseURL string, creds Credentials, tokens services.TokenProvider, timeout time.Duration, retries int, logger log.Logger) *HTTP {
	if retries < 0 {
		retries = 0
	}

	return &HTTP{
		baseURL:    strings.TrimRight(baseURL, `/`),
		creds:      creds,
		tokens:     tokens,
		client:     &http.Client{Timeout: timeout},
		retries:    retries,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		log:        logger,
	}
}

// Post creates a model or an instance
func (h *HTTP) Post(ctx context.Context, segment string, body []byte) (string, error) {
	return h.send(ctx, http.MethodPost, h.url(segment), contentTypeJSON, body)
}

func (h *HTTP) Get(ctx context.Context, segment, id string) (models.HwWalletObject, error) {
	data, err := h.get(ctx, h.url(segment, id))
	if err != nil {
		return models.HwWalletObject{}, err
	}

	var obj models.HwWalletObject
	if err = json.Unmarshal([]byte(data), &obj); err != nil {
		return models.HwWalletObject{}, errors.Wrapf(domain.ErrEncoding, `unmarshalling wallet object failed - %v`, err)
	}
	return obj, nil
}

// ListModels returns all models under segment. A positive pageSize queries the
// gateway page by page and concatenates the results.
func (h *HTTP) ListModels(ctx context.Context, segment string, pageSize int) ([]models.HwWalletObject, error) {
	return h.list(ctx, segment, url.Values{}, pageSize)
}

func (h *HTTP) ListInstances(ctx context.Context, segment, modelID string, pageSize int) ([]models.HwWalletObject, error) {
	q := url.Values{}
	q.Set(`modelId`, modelID)
	return h.list(ctx, segment, q, pageSize)
}

func (h *HTTP) FullUpdate(ctx context.Context, segment, id string, body []byte) (string, error) {
	return h.send(ctx, http.MethodPut, h.url(segment, id), contentTypeJSON, body)
}

func (h *HTTP) PartialUpdate(ctx context.Context, segment, id string, body []byte) (string, error) {
	return h.send(ctx, http.MethodPatch, h.url(segment, id), contentTypeJSON, body)
}

func (h *HTTP) AddMessage(ctx context.Context, segment, id string, body []byte) (string, error) {
	return h.send(ctx, http.MethodPost, h.url(segment, id, domain.AddMessagePath), contentTypeJSON, body)
}

func (h *HTTP) UpdateLinkedOffers(ctx context.Context, segment, id string, body []byte) (string, error) {
	return h.send(ctx, http.MethodPost, h.url(segment, id, domain.LinkedOffersPath), contentTypeJSON, body)
}

// SubmitJwe posts an envelope as the request body
func (h *HTTP) SubmitJwe(ctx context.Context, segment, envelope string) (string, error) {
	return h.send(ctx, http.MethodPost, h.url(segment), contentTypeText, []byte(envelope))
}

func (h *HTTP) list(ctx context.Context, segment string, query url.Values, pageSize int) ([]models.HwWalletObject, error) {
	if pageSize <= 0 {
		page, err := h.page(ctx, h.url(segment)+encodeQuery(query))
		if err != nil {
			return nil, err
		}
		return page.Data, nil
	}

	query.Set(`pageSize`, strconv.Itoa(pageSize))
	var objs []models.HwWalletObject
	for {
		page, err := h.page(ctx, h.url(segment)+encodeQuery(query))
		if err != nil {
			return nil, err
		}

		if len(page.Data) == 0 {
			break
		}
		objs = append(objs, page.Data...)

		if page.PageInfo.NextSession == `` {
			break
		}
		query.Set(`session`, page.PageInfo.NextSession)
	}

	h.log.Debug(`gateway`, fmt.Sprintf(`%d objects listed under %s`, len(objs), segment))
	return objs, nil
}

func (h *HTTP) page(ctx context.Context, u string) (models.BatchQueryResp, error) {
	data, err := h.get(ctx, u)
	if err != nil {
		return models.BatchQueryResp{}, err
	}

	var page models.BatchQueryResp
	if err = json.Unmarshal([]byte(data), &page); err != nil {
		return models.BatchQueryResp{}, errors.Wrapf(domain.ErrEncoding, `unmarshalling batch query response failed - %v`, err)
	}
	return page, nil
}

// get retries transport failures and 5xx responses since reads are idempotent
func (h *HTTP) get(ctx context.Context, u string) (string, error) {
	var data string
	op := func() error {
		var retryable bool
		var err error
		data, retryable, err = h.do(ctx, http.MethodGet, u, contentTypeJSON, nil)
		if err != nil && !retryable {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(h.newBackOff(), uint64(h.retries)), ctx)
	notify := func(err error, d time.Duration) {
		h.log.Warn(`gateway`, fmt.Sprintf(`GET %s failed, retrying in %s`, u, d), err)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return ``, err
	}
	return data, nil
}

func (h *HTTP) send(ctx context.Context, method, u, contentType string, body []byte) (string, error) {
	data, _, err := h.do(ctx, method, u, contentType, body)
	return data, err
}

// do performs a single request and reports whether a failure may be retried
func (h *HTTP) do(ctx context.Context, method, u, contentType string, body []byte) (data string, retryable bool, err error) {
	token, err := h.tokens.AccessToken(ctx, h.creds.AppID, h.creds.Secret)
	if err != nil {
		return ``, false, fmt.Errorf(`obtaining access token failed - %w`, err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return ``, false, errors.Wrapf(domain.ErrGateway, `creating request failed - %v`, err)
	}

	reqID := uuid.New().String()
	req.Header.Set(`Content-Type`, contentType)
	req.Header.Set(`Accept`, contentTypeJSON)
	req.Header.Set(`Authorization`, authorizationPfx+token)
	req.Header.Set(headerRequestID, reqID)

	h.log.Trace(`gateway`, fmt.Sprintf(`%s %s (request id: %s)`, method, u, reqID))
	res, err := h.client.Do(req)
	if err != nil {
		metrics.GatewayRequest(method, 0)
		return ``, true, errors.Wrapf(domain.ErrGateway, `%s %s failed - %v`, method, u, err)
	}
	defer res.Body.Close()
	metrics.GatewayRequest(method, res.StatusCode)

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return ``, true, errors.Wrapf(domain.ErrGateway, `reading response of %s %s failed - %v`, method, u, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return string(raw), res.StatusCode >= http.StatusInternalServerError,
			&StatusError{Method: method, URL: u, Status: res.StatusCode, Body: string(raw)}
	}

	return string(raw), false, nil
}

func (h *HTTP) url(parts ...string) string {
	u := h.baseURL
	for _, p := range parts {
		u += `/` + strings.Trim(p, `/`)
	}
	return u
}

func encodeQuery(q url.Values) string {
	if len(q) == 0 {
		return ``
	}
	return `?` + q.Encode()
}

// StatusError carries a non-2xx response of the gateway and matches domain.ErrGateway
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf(`%s %s returned status %d - %s`, e.Method, e.URL, e.Status, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == domain.ErrGateway
}
