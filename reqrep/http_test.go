package reqrep

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/YasiruR/walletkit/compactor"
	"github.com/YasiruR/walletkit/crypto"
	"github.com/YasiruR/walletkit/domain"
	"github.com/YasiruR/walletkit/domain/models"
	"github.com/YasiruR/walletkit/link"
	wklog "github.com/YasiruR/walletkit/log"
	"github.com/YasiruR/walletkit/reqrep/mock"
	"github.com/YasiruR/walletkit/token"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const (
	testAppID  = `10086`
	testSecret = `s3cret`
)

type env struct {
	client    *HTTP
	gateway   *mock.Gateway
	signerPrv string
	gwPub     string
}

func pemPair(t *testing.T) (string, string) {
	t.Helper()
	prv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	prvPEM, err := crypto.EncodePrivateKey(prv)
	require.NoError(t, err)
	pubPEM, err := crypto.EncodePublicKey(&prv.PublicKey)
	require.NoError(t, err)
	return prvPEM, pubPEM
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := wklog.NewLogger(false, `ERROR`)
	signerPrv, signerPub := pemPair(t)
	gwPrv, gwPub := pemPair(t)

	gw, err := mock.New(mock.Params{
		AppID:             testAppID,
		AppSecret:         testSecret,
		GatewayPrivateKey: gwPrv,
		SignerPublicKey:   signerPub,
	}, logger)
	require.NoError(t, err)

	srv := httptest.NewServer(gw.Router())
	t.Cleanup(srv.Close)

	tokens := token.NewService(srv.URL+mock.TokenEndpoint, 5*time.Second, 1, logger)
	c := NewHTTP(srv.URL+mock.BasePath+`/`, Credentials{AppID: testAppID, Secret: testSecret}, tokens, 5*time.Second, 2, logger)
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }

	return &env{client: c, gateway: gw, signerPrv: signerPrv, gwPub: gwPub}
}

func instance(serial, model string) models.HwWalletObject {
	return models.HwWalletObject{
		PassTypeIdentifier:  `hwpass.com.example.eventticket`,
		PassStyleIdentifier: model,
		OrganizationPassID:  `org-1`,
		SerialNumber:        serial,
		Fields: &models.Fields{
			Status: &models.Status{State: `active`},
		},
	}
}

func marshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestHTTP_PostGet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seg := domain.InstanceSegment(domain.PassEventTicket)

	_, err := e.client.Post(ctx, seg, marshal(t, instance(`serial-1`, `model-1`)))
	require.NoError(t, err)

	obj, err := e.client.Get(ctx, seg, `serial-1`)
	require.NoError(t, err)
	require.Equal(t, `model-1`, obj.PassStyleIdentifier)
	require.Equal(t, `active`, obj.Fields.Status.State)
}

func TestHTTP_Get_NotFound(t *testing.T) {
	e := newEnv(t)
	_, err := e.client.Get(context.Background(), domain.InstanceSegment(domain.PassFlight), `absent`)
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrGateway))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusNotFound, se.Status)
}

func TestHTTP_Post_Conflict(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seg := domain.ModelSegment(domain.PassLoyalty)
	model := marshal(t, models.HwWalletObject{PassStyleIdentifier: `model-1`})

	_, err := e.client.Post(ctx, seg, model)
	require.NoError(t, err)
	_, err = e.client.Post(ctx, seg, model)
	require.True(t, errors.Is(err, domain.ErrGateway))
}

func TestHTTP_ListModels_Paged(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seg := domain.ModelSegment(domain.PassOffer)

	for i := 0; i < 5; i++ {
		_, err := e.client.Post(ctx, seg, marshal(t, models.HwWalletObject{PassStyleIdentifier: fmt.Sprintf(`model-%d`, i)}))
		require.NoError(t, err)
	}

	for _, size := range []int{0, 1, 2, 5, 10} {
		objs, err := e.client.ListModels(ctx, seg, size)
		require.NoError(t, err)
		require.Len(t, objs, 5, size)
		require.Equal(t, `model-0`, objs[0].PassStyleIdentifier)
		require.Equal(t, `model-4`, objs[4].PassStyleIdentifier)
	}
}

func TestHTTP_ListInstances_FilterByModel(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seg := domain.InstanceSegment(domain.PassTransit)

	for i, model := range []string{`a`, `b`, `a`, `a`} {
		_, err := e.client.Post(ctx, seg, marshal(t, instance(fmt.Sprintf(`serial-%d`, i), model)))
		require.NoError(t, err)
	}

	objs, err := e.client.ListInstances(ctx, seg, `a`, 2)
	require.NoError(t, err)
	require.Len(t, objs, 3)

	objs, err = e.client.ListInstances(ctx, seg, `b`, 0)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	require.Equal(t, `serial-1`, objs[0].SerialNumber)
}

func TestHTTP_ListModels_Empty(t *testing.T) {
	e := newEnv(t)
	objs, err := e.client.ListModels(context.Background(), domain.ModelSegment(domain.PassGiftCard), 3)
	require.NoError(t, err)
	require.Empty(t, objs)
}

func TestHTTP_Updates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seg := domain.InstanceSegment(domain.PassLoyalty)

	_, err := e.client.Post(ctx, seg, marshal(t, instance(`serial-1`, `model-1`)))
	require.NoError(t, err)

	_, err = e.client.PartialUpdate(ctx, seg, `serial-1`, []byte(`{"organizationName":"Example Org"}`))
	require.NoError(t, err)
	obj, ok := e.gateway.Object(seg, `serial-1`)
	require.True(t, ok)
	require.Equal(t, `Example Org`, obj.OrganizationName)
	require.Equal(t, `model-1`, obj.PassStyleIdentifier)

	full := instance(`serial-1`, `model-2`)
	_, err = e.client.FullUpdate(ctx, seg, `serial-1`, marshal(t, full))
	require.NoError(t, err)
	obj, _ = e.gateway.Object(seg, `serial-1`)
	require.Equal(t, ``, obj.OrganizationName)
	require.Equal(t, `model-2`, obj.PassStyleIdentifier)
}

func TestHTTP_AddMessage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seg := domain.InstanceSegment(domain.PassEventTicket)

	_, err := e.client.Post(ctx, seg, marshal(t, instance(`serial-1`, `model-1`)))
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		body := marshal(t, models.MessageList{MessageList: []models.Field{{Key: fmt.Sprintf(`m%d`, i), Value: `hello`}}})
		_, err = e.client.AddMessage(ctx, seg, `serial-1`, body)
		require.NoError(t, err)
	}

	obj, _ := e.gateway.Object(seg, `serial-1`)
	require.Len(t, obj.Fields.MessageList, 10)
	require.Equal(t, `m2`, obj.Fields.MessageList[0].Key)
	require.Equal(t, `m11`, obj.Fields.MessageList[9].Key)
}

func TestHTTP_UpdateLinkedOffers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seg := domain.InstanceSegment(domain.PassLoyalty)

	_, err := e.client.Post(ctx, seg, marshal(t, instance(`serial-1`, `model-1`)))
	require.NoError(t, err)

	add := models.LinkedOffers{Add: []models.RelatedPass{{TypeID: domain.PassOffer, ID: `offer-1`}, {TypeID: domain.PassOffer, ID: `offer-2`}}}
	_, err = e.client.UpdateLinkedOffers(ctx, seg, `serial-1`, marshal(t, add))
	require.NoError(t, err)

	_, err = e.client.UpdateLinkedOffers(ctx, seg, `serial-1`, marshal(t, models.LinkedOffers{Remove: []string{`offer-1`}}))
	require.NoError(t, err)

	obj, _ := e.gateway.Object(seg, `serial-1`)
	require.Equal(t, []models.RelatedPass{{TypeID: domain.PassOffer, ID: `offer-2`}}, obj.Fields.RelatedPassIDs)
}

func TestHTTP_Get_RetriesServerErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seg := domain.InstanceSegment(domain.PassFlight)

	_, err := e.client.Post(ctx, seg, marshal(t, instance(`serial-1`, `model-1`)))
	require.NoError(t, err)

	e.gateway.FailNext(2, http.StatusServiceUnavailable)
	obj, err := e.client.Get(ctx, seg, `serial-1`)
	require.NoError(t, err)
	require.Equal(t, `serial-1`, obj.SerialNumber)

	e.gateway.FailNext(3, http.StatusServiceUnavailable)
	_, err = e.client.Get(ctx, seg, `serial-1`)
	require.True(t, errors.Is(err, domain.ErrGateway))
}

func TestHTTP_Get_NegativeRetriesAttemptOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seg := domain.InstanceSegment(domain.PassFlight)

	_, err := e.client.Post(ctx, seg, marshal(t, instance(`serial-1`, `model-1`)))
	require.NoError(t, err)

	c := NewHTTP(e.client.baseURL, e.client.creds, e.client.tokens, 5*time.Second, -1, e.client.log)
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	require.Equal(t, 0, c.retries)

	e.gateway.FailNext(1, http.StatusServiceUnavailable)
	_, err = c.Get(ctx, seg, `serial-1`)
	require.True(t, errors.Is(err, domain.ErrGateway))

	// the single injected failure was consumed by the only attempt
	obj, err := c.Get(ctx, seg, `serial-1`)
	require.NoError(t, err)
	require.Equal(t, `serial-1`, obj.SerialNumber)
}

func TestHTTP_Post_NotRetried(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seg := domain.InstanceSegment(domain.PassFlight)

	// obtain the token first so that the injected failure hits the post
	_, err := e.client.ListInstances(ctx, seg, `m`, 0)
	require.NoError(t, err)

	e.gateway.FailNext(1, http.StatusServiceUnavailable)
	_, err = e.client.Post(ctx, seg, marshal(t, instance(`serial-1`, `model-1`)))
	require.True(t, errors.Is(err, domain.ErrGateway))

	_, ok := e.gateway.Object(seg, `serial-1`)
	require.False(t, ok)
}

func TestHTTP_InvalidCredentials(t *testing.T) {
	e := newEnv(t)
	e.client.creds.Secret = `wrong`

	_, err := e.client.Get(context.Background(), domain.InstanceSegment(domain.PassFlight), `serial-1`)
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrGateway))
}

func TestHTTP_SubmitJwe(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seg := domain.InstanceSegment(domain.PassEventTicket)
	logger := wklog.NewLogger(false, `ERROR`)

	packer, err := crypto.NewPacker(e.gwPub, compactor.NewGzip(), logger)
	require.NoError(t, err)
	lb := link.NewBuilder(`https://wallet.example.com/walletkit/consumer/pass/save`, testAppID)

	payload, err := lb.InstancePayload(marshal(t, instance(`serial-7`, `model-1`)))
	require.NoError(t, err)
	envelope, err := packer.Pack(e.signerPrv, payload)
	require.NoError(t, err)

	_, err = e.client.SubmitJwe(ctx, seg, envelope)
	require.NoError(t, err)
	obj, ok := e.gateway.Object(seg, `serial-7`)
	require.True(t, ok)
	require.Equal(t, `model-1`, obj.PassStyleIdentifier)

	thin, err := lb.ThinPayload([]string{`serial-7`})
	require.NoError(t, err)
	envelope, err = packer.Pack(e.signerPrv, thin)
	require.NoError(t, err)

	res, err := e.client.SubmitJwe(ctx, seg, envelope)
	require.NoError(t, err)
	require.Contains(t, res, `serial-7`)

	// signed by a key the gateway does not know
	otherPrv, _ := pemPair(t)
	envelope, err = packer.Pack(otherPrv, thin)
	require.NoError(t, err)
	_, err = e.client.SubmitJwe(ctx, seg, envelope)
	require.True(t, errors.Is(err, domain.ErrGateway))
}
