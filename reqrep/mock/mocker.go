// Package mock serves an in-memory wallet gateway: token issuance, pass model and
// instance management and envelope intake. It is used by tests and by the
// --mock flag of the command line tool.
package mock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/YasiruR/walletkit/callback"
	"github.com/YasiruR/walletkit/compactor"
	"github.com/YasiruR/walletkit/crypto"
	"github.com/YasiruR/walletkit/domain"
	"github.com/YasiruR/walletkit/domain/models"
	"github.com/YasiruR/walletkit/domain/services"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/tryfix/log"
)

type failure struct {
	remaining int
	status    int
}

type mocker struct {
	params  Params
	packer  services.Packer
	router  *mux.Router
	client  *http.Client
	log     log.Logger
	lock    sync.Mutex
	tokens  map[string]bool
	objects map[string]map[string]models.HwWalletObject // segment -> id -> object
	fail    failure
}

// Gateway is the handle of a running mock
type Gateway struct {
	*mocker
}

func New(p Params, logger log.Logger) (*Gateway, error) {
	m := &mocker{
		params:  p,
		router:  mux.NewRouter(),
		client:  &http.Client{},
		log:     logger,
		tokens:  map[string]bool{},
		objects: map[string]map[string]models.HwWalletObject{},
	}

	if m.params.SignatureHeader == `` {
		m.params.SignatureHeader = domain.DefaultSignatureHeader
	}

	if p.GatewayPrivateKey != `` {
		gwPubKey, err := publicKeyOf(p.GatewayPrivateKey)
		if err != nil {
			return nil, err
		}

		m.packer, err = crypto.NewPacker(gwPubKey, compactor.NewGzip(), logger)
		if err != nil {
			return nil, err
		}
	}

	m.router.Use(m.injectFailures)
	m.router.HandleFunc(TokenEndpoint, m.handleToken).Methods(http.MethodPost)

	api := m.router.PathPrefix(BasePath).Subrouter()
	api.Use(m.authorize)
	api.HandleFunc(`/{type}/{kind}`, m.handleCreate).Methods(http.MethodPost)
	api.HandleFunc(`/{type}/{kind}`, m.handleList).Methods(http.MethodGet)
	api.HandleFunc(`/{type}/{kind}/{id}`, m.handleGet).Methods(http.MethodGet)
	api.HandleFunc(`/{type}/{kind}/{id}`, m.handleUpdate).Methods(http.MethodPut)
	api.HandleFunc(`/{type}/{kind}/{id}`, m.handlePatch).Methods(http.MethodPatch)
	api.HandleFunc(`/{type}/{kind}/{id}/`+domain.AddMessagePath, m.handleAddMessage).Methods(http.MethodPost)
	api.HandleFunc(`/{type}/{kind}/{id}/`+domain.LinkedOffersPath, m.handleLinkedOffers).Methods(http.MethodPost)

	return &Gateway{m}, nil
}

// Start serves the mock on port in a separate goroutine like the other servers
func Start(g *Gateway, port int) {
	go func(port int, r *mux.Router) {
		if err := http.ListenAndServe(":"+strconv.Itoa(port), r); err != nil {
			g.log.Fatal(`mocker`, fmt.Sprintf(`http server initialization failed - %v`, err))
		}
	}(port, g.router)

	g.log.Info(fmt.Sprintf(`mock gateway initialized and started listening on %d`, port))
}

func (g *Gateway) Router() http.Handler {
	return g.router
}

// FailNext makes the next n requests fail with status
func (g *Gateway) FailNext(n, status int) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.fail = failure{remaining: n, status: status}
}

// Object returns a stored model or instance, eg: Object(`eventticket/instance`, `serial-1`)
func (g *Gateway) Object(segment, id string) (models.HwWalletObject, bool) {
	g.lock.Lock()
	defer g.lock.Unlock()
	obj, ok := g.objects[segment][id]
	return obj, ok
}

// Notify signs body the way the wallet gateway does and posts it to endpoint
func (g *Gateway) Notify(ctx context.Context, endpoint string, body []byte) (int, error) {
	content, err := callback.Canonicalize(body)
	if err != nil {
		return 0, err
	}

	sig, err := crypto.SignPSS(content, g.params.CallbackPrivateKey)
	if err != nil {
		return 0, fmt.Errorf(`signing notification failed - %w`, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf(`creating notification request failed - %w`, err)
	}
	req.Header.Set(`Content-Type`, `application/json; charset=UTF-8`)
	req.Header.Set(g.params.SignatureHeader, sig)

	res, err := g.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf(`posting notification failed - %w`, err)
	}
	defer res.Body.Close()
	return res.StatusCode, nil
}

func (m *mocker) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.lock.Lock()
		if m.fail.remaining > 0 {
			m.fail.remaining--
			status := m.fail.status
			m.lock.Unlock()
			m.writeError(w, status, `injected failure`)
			return
		}
		m.lock.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (m *mocker) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get(`Authorization`), `Bearer `)
		m.lock.Lock()
		ok := m.tokens[token]
		m.lock.Unlock()

		if !ok {
			m.writeError(w, http.StatusUnauthorized, `invalid access token`)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *mocker) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		m.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.PostForm.Get(`grant_type`) != `client_credentials` ||
		r.PostForm.Get(`client_id`) != m.params.AppID ||
		r.PostForm.Get(`client_secret`) != m.params.AppSecret {
		m.writeError(w, http.StatusUnauthorized, `invalid client`)
		return
	}

	token := uuid.New().String()
	m.lock.Lock()
	m.tokens[token] = true
	m.lock.Unlock()

	m.writeJSON(w, http.StatusOK, models.AccessTokenResp{AccessToken: token, ExpiresIn: tokenTTL, TokenType: `Bearer`})
}

func (m *mocker) handleCreate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		m.log.Error(`mocker`, err)
		m.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if strings.HasPrefix(r.Header.Get(`Content-Type`), `text/plain`) {
		m.handleEnvelope(w, r, string(data))
		return
	}

	var obj models.HwWalletObject
	if err = json.Unmarshal(data, &obj); err != nil {
		m.writeError(w, http.StatusBadRequest, `invalid wallet object`)
		return
	}

	m.create(w, segment(r), obj)
}

func (m *mocker) create(w http.ResponseWriter, seg string, obj models.HwWalletObject) {
	id := objectID(seg, obj)
	if id == `` {
		m.writeError(w, http.StatusBadRequest, `missing identifier`)
		return
	}

	m.lock.Lock()
	if _, ok := m.objects[seg][id]; ok {
		m.lock.Unlock()
		m.writeError(w, http.StatusConflict, fmt.Sprintf(`%s already exists`, id))
		return
	}
	if m.objects[seg] == nil {
		m.objects[seg] = map[string]models.HwWalletObject{}
	}
	m.objects[seg][id] = obj
	m.lock.Unlock()

	m.log.Trace(`mocker`, fmt.Sprintf(`%s created under %s`, id, seg))
	m.writeJSON(w, http.StatusCreated, obj)
}

// handleEnvelope accepts a packed instance or a thin payload binding instances
func (m *mocker) handleEnvelope(w http.ResponseWriter, r *http.Request, envelope string) {
	if m.packer == nil {
		m.writeError(w, http.StatusNotImplemented, `envelope intake is not configured`)
		return
	}

	payload, err := m.packer.Open(envelope, m.params.GatewayPrivateKey, m.params.SignerPublicKey)
	if err != nil {
		m.log.Error(`mocker`, `opening envelope failed`, err)
		m.writeError(w, http.StatusBadRequest, `invalid envelope`)
		return
	}

	var p jwePayload
	if err = json.Unmarshal([]byte(payload), &p); err != nil {
		m.writeError(w, http.StatusBadRequest, `invalid envelope payload`)
		return
	}

	if p.Iss != m.params.AppID {
		m.writeError(w, http.StatusForbidden, `issuer does not match the app id`)
		return
	}

	seg := segment(r)
	if len(p.InstanceIDs) == 0 {
		m.create(w, seg, p.HwWalletObject)
		return
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	for _, id := range p.InstanceIDs {
		if _, ok := m.objects[seg][id]; !ok {
			m.writeError(w, http.StatusNotFound, fmt.Sprintf(`instance %s not found`, id))
			return
		}
	}

	m.writeJSON(w, http.StatusOK, resBind{Iss: p.Iss, InstanceIDs: p.InstanceIDs})
}

func (m *mocker) handleGet(w http.ResponseWriter, r *http.Request) {
	obj, ok := m.lookup(r)
	if !ok {
		m.writeError(w, http.StatusNotFound, `object not found`)
		return
	}
	m.writeJSON(w, http.StatusOK, obj)
}

// handleList pages through the objects ordered by id. The session is the id of the
// next object to return.
func (m *mocker) handleList(w http.ResponseWriter, r *http.Request) {
	seg := segment(r)
	q := r.URL.Query()
	modelID := q.Get(`modelId`)

	m.lock.Lock()
	var ids []string
	for id, obj := range m.objects[seg] {
		if modelID != `` && obj.PassStyleIdentifier != modelID {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if session := q.Get(`session`); session != `` {
		start = sort.SearchStrings(ids, session)
	}

	end := len(ids)
	pageSize, _ := strconv.Atoi(q.Get(`pageSize`))
	if pageSize > 0 && start+pageSize < end {
		end = start + pageSize
	}

	res := models.BatchQueryResp{Data: []models.HwWalletObject{}}
	for _, id := range ids[start:end] {
		res.Data = append(res.Data, m.objects[seg][id])
	}
	if end < len(ids) {
		res.PageInfo.NextSession = ids[end]
	}
	m.lock.Unlock()

	res.PageInfo.PageSize = int64(len(res.Data))
	m.writeJSON(w, http.StatusOK, res)
}

func (m *mocker) handleUpdate(w http.ResponseWriter, r *http.Request) {
	m.modify(w, r, func(_ *models.HwWalletObject, data []byte) (models.HwWalletObject, error) {
		var obj models.HwWalletObject
		return obj, json.Unmarshal(data, &obj)
	})
}

// handlePatch merges the body onto the stored object
func (m *mocker) handlePatch(w http.ResponseWriter, r *http.Request) {
	m.modify(w, r, func(cur *models.HwWalletObject, data []byte) (models.HwWalletObject, error) {
		merged := *cur
		if cur.Fields != nil {
			fields := *cur.Fields
			merged.Fields = &fields
		}
		return merged, json.Unmarshal(data, &merged)
	})
}

func (m *mocker) handleAddMessage(w http.ResponseWriter, r *http.Request) {
	m.modify(w, r, func(cur *models.HwWalletObject, data []byte) (models.HwWalletObject, error) {
		var req models.MessageList
		if err := json.Unmarshal(data, &req); err != nil {
			return models.HwWalletObject{}, err
		}

		obj := withFields(cur)
		msgs := append(append([]models.Field{}, obj.Fields.MessageList...), req.MessageList...)
		if len(msgs) > maxMessages {
			msgs = msgs[len(msgs)-maxMessages:]
		}
		obj.Fields.MessageList = msgs
		return obj, nil
	})
}

func (m *mocker) handleLinkedOffers(w http.ResponseWriter, r *http.Request) {
	m.modify(w, r, func(cur *models.HwWalletObject, data []byte) (models.HwWalletObject, error) {
		var req models.LinkedOffers
		if err := json.Unmarshal(data, &req); err != nil {
			return models.HwWalletObject{}, err
		}

		removed := map[string]bool{}
		for _, id := range req.Remove {
			removed[id] = true
		}
		updated := map[string]models.RelatedPass{}
		for _, rp := range req.Update {
			updated[rp.ID] = rp
		}

		obj := withFields(cur)
		var related []models.RelatedPass
		for _, rp := range obj.Fields.RelatedPassIDs {
			if removed[rp.ID] {
				continue
			}
			if u, ok := updated[rp.ID]; ok {
				rp = u
			}
			related = append(related, rp)
		}
		obj.Fields.RelatedPassIDs = append(related, req.Add...)
		return obj, nil
	})
}

func (m *mocker) modify(w http.ResponseWriter, r *http.Request, apply func(cur *models.HwWalletObject, body []byte) (models.HwWalletObject, error)) {
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		m.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	seg, id := segment(r), mux.Vars(r)[`id`]
	m.lock.Lock()
	defer m.lock.Unlock()

	cur, ok := m.objects[seg][id]
	if !ok {
		m.writeError(w, http.StatusNotFound, `object not found`)
		return
	}

	obj, err := apply(&cur, data)
	if err != nil {
		m.writeError(w, http.StatusBadRequest, fmt.Sprintf(`invalid request body - %v`, err))
		return
	}

	m.objects[seg][id] = obj
	m.writeJSON(w, http.StatusOK, obj)
}

func (m *mocker) lookup(r *http.Request) (models.HwWalletObject, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	obj, ok := m.objects[segment(r)][mux.Vars(r)[`id`]]
	return obj, ok
}

func (m *mocker) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		m.log.Error(`mocker`, `marshalling response failed`, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set(`Content-Type`, `application/json; charset=UTF-8`)
	w.WriteHeader(status)
	if _, err = w.Write(data); err != nil {
		m.log.Error(`mocker`, `writing response failed`, err)
	}
}

func (m *mocker) writeError(w http.ResponseWriter, status int, msg string) {
	m.writeJSON(w, status, resError{Code: status, Message: msg})
}

func segment(r *http.Request) string {
	vars := mux.Vars(r)
	return vars[`type`] + `/` + vars[`kind`]
}

// objectID returns passStyleIdentifier for models and serialNumber for instances
func objectID(seg string, obj models.HwWalletObject) string {
	if strings.HasSuffix(seg, `/`+domain.KindModel) {
		return obj.PassStyleIdentifier
	}
	return obj.SerialNumber
}

func withFields(cur *models.HwWalletObject) models.HwWalletObject {
	obj := *cur
	if cur.Fields == nil {
		obj.Fields = &models.Fields{}
		return obj
	}
	fields := *cur.Fields
	obj.Fields = &fields
	return obj
}

func publicKeyOf(privateKey string) (string, error) {
	prvKey, err := crypto.ParsePrivateKey(privateKey)
	if err != nil {
		return ``, fmt.Errorf(`loading gateway private key failed - %w`, err)
	}
	return crypto.EncodePublicKey(&prvKey.PublicKey)
}
