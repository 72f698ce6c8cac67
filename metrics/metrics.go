// Package metrics holds the prometheus counters of the wallet kit. They are
// served by the callback server under /metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	resultSuccess = `success`
	resultFailure = `failure`
)

var (
	envelopeCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletkit_envelopes_total",
			Help: "Total number of wallet envelopes constructed, by result.",
		},
		[]string{"result"},
	)

	callbackVerificationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletkit_callback_verifications_total",
			Help: "Total number of callback signature verifications, by result.",
		},
		[]string{"result"}, // success, failure
	)

	gatewayRequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletkit_gateway_requests_total",
			Help: "Total number of requests sent to the wallet gateway, by method and status code.",
		},
		[]string{"method", "status"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

func Envelope(ok bool) {
	envelopeCount.WithLabelValues(result(ok)).Inc()
}

func CallbackVerification(ok bool) {
	callbackVerificationCount.WithLabelValues(result(ok)).Inc()
}

// GatewayRequest records a gateway call, status 0 meaning a transport failure
func GatewayRequest(method string, status int) {
	gatewayRequestCount.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func result(ok bool) string {
	if ok {
		return resultSuccess
	}
	return resultFailure
}
