package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/YasiruR/walletkit/domain"
	"github.com/YasiruR/walletkit/domain/container"
	"github.com/YasiruR/walletkit/domain/models"
	"github.com/YasiruR/walletkit/domain/services"
	"github.com/YasiruR/walletkit/metrics"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/tryfix/log"
)

const maxCallbackBody = 1 << 20

// HTTP receives callback notifications of the wallet gateway, verifies their
// signature and forwards the decoded notifications to the container channel.
// Prometheus metrics are served on the same port.
type HTTP struct {
	port      int
	sigHeader string
	verifier  services.CallbackVerifier
	router    *mux.Router
	server    *http.Server
	outChan   chan models.CallbackNotification
	log       log.Logger
}

func NewHTTP(c *container.Container) *HTTP {
	h := &HTTP{
		port:      c.Cfg.Callback.Port,
		sigHeader: c.Cfg.Callback.SignatureHeader,
		verifier:  c.Verifier,
		router:    mux.NewRouter(),
		outChan:   c.NotifChan,
		log:       c.Log,
	}

	h.router.HandleFunc(domain.CallbackEndpoint, h.handleCallback).Methods(http.MethodPost)
	h.router.Handle(domain.MetricsEndpoint, metrics.Handler()).Methods(http.MethodGet)
	h.server = &http.Server{
		Addr:              `:` + strconv.Itoa(h.port),
		Handler:           h.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return h
}

// Router exposes the routes without binding a port
func (h *HTTP) Router() http.Handler {
	return h.router
}

func (h *HTTP) Start() error {
	h.log.Info(fmt.Sprintf(`callback server started listening on %d`, h.port))
	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf(`http server initialization failed - %v`, err)
	}
	return nil
}

func (h *HTTP) handleCallback(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		h.log.Error(`transport`, `reading callback body failed`, err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sig := r.Header.Get(h.sigHeader)
	if sig == `` {
		h.log.Warn(`transport`, fmt.Sprintf(`callback without %s header`, h.sigHeader))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	ok, err := h.verifier.Verify(data, sig)
	if err != nil {
		h.log.Error(`transport`, `malformed callback body`, err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	notif, err := h.verifier.Decode(data)
	if err != nil {
		h.log.Error(`transport`, `decoding callback failed`, err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.log.Debug(`transport`, fmt.Sprintf(`callback %s received for pass %s`, notif.EventType, notif.PassNumber))
	select {
	case h.outChan <- notif:
	default:
		h.log.Warn(`transport`, `notification channel is full, dropping callback`, notif.EventID)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *HTTP) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.server.Shutdown(ctx)
}
