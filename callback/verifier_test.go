package callback

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"strings"
	"sync"
	"testing"

	"github.com/YasiruR/walletkit/crypto"
	"github.com/YasiruR/walletkit/domain"
	wklog "github.com/YasiruR/walletkit/log"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var (
	keyOnce sync.Once
	prvPEM  string
	pubPEM  string
	keyErr  error
)

func testKey(t *testing.T) (string, string) {
	t.Helper()
	keyOnce.Do(func() {
		var prv *rsa.PrivateKey
		if prv, keyErr = rsa.GenerateKey(rand.Reader, 2048); keyErr != nil {
			return
		}
		if prvPEM, keyErr = crypto.EncodePrivateKey(prv); keyErr != nil {
			return
		}
		pubPEM, keyErr = crypto.EncodePublicKey(&prv.PublicKey)
	})
	require.NoError(t, keyErr)
	return prvPEM, pubPEM
}

func sign(t *testing.T, prv string, body []byte) string {
	t.Helper()
	content, err := Canonicalize(body)
	require.NoError(t, err)
	sig, err := crypto.SignPSS(content, prv)
	require.NoError(t, err)
	return sig
}

func TestCanonicalize_KeyOrder(t *testing.T) {
	a, err := Canonicalize([]byte(`{"b":"2","a":"1"}`))
	require.NoError(t, err)
	require.Equal(t, `a=1&b=2`, a)

	b, err := Canonicalize([]byte(`{"a":"1","b":"2"}`))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestCanonicalize_SkipsNull(t *testing.T) {
	s, err := Canonicalize([]byte(`{"a":"1","b":null,"c":""}`))
	require.NoError(t, err)
	require.Equal(t, `a=1&c=`, s)
}

func TestCanonicalize_Scalars(t *testing.T) {
	s, err := Canonicalize([]byte(`{"n":10,"f":1.50,"t":true,"z":false}`))
	require.NoError(t, err)
	require.Equal(t, `f=1.50&n=10&t=true&z=false`, s)
}

func TestCanonicalize_ByteOrder(t *testing.T) {
	s, err := Canonicalize([]byte(`{"b":"x","B":"y","_":"z"}`))
	require.NoError(t, err)
	require.Equal(t, `B=y&_=z&b=x`, s)
}

func TestCanonicalize_Nested(t *testing.T) {
	s, err := Canonicalize([]byte(`{"obj":{"y":1, "x":[2,"a"]},"k":"v"}`))
	require.NoError(t, err)
	require.Equal(t, `k=v&obj={"x":[2,"a"],"y":1}`, s)
}

func TestCanonicalize_NestedNumbers(t *testing.T) {
	s, err := Canonicalize([]byte(`{"b":1.50,"a":[1.50,{"y":2.0}]}`))
	require.NoError(t, err)
	require.Equal(t, `a=[1.5,{"y":2}]&b=1.50`, s)
}

func TestCanonicalize_Invalid(t *testing.T) {
	for _, body := range []string{``, `null`, `[1,2]`, `"text"`, `{"a":`} {
		_, err := Canonicalize([]byte(body))
		require.Error(t, err, body)
		require.True(t, errors.Is(err, domain.ErrEncoding), body)
	}
}

func TestVerifyCallback(t *testing.T) {
	prv, pub := testKey(t)
	body := []byte(`{"eventType":"PASS_ADDED","passNumber":"123","eventTime":1690000000}`)
	sig := sign(t, prv, body)

	ok, err := VerifyCallback(body, pub, sig)
	require.NoError(t, err)
	require.True(t, ok)

	// reordered keys and whitespace keep the canonical form
	ok, err = VerifyCallback([]byte(`{ "passNumber":"123", "eventTime":1690000000, "eventType":"PASS_ADDED" }`), pub, sig)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyCallback([]byte(`{"eventType":"PASS_REMOVED","passNumber":"123","eventTime":1690000000}`), pub, sig)
	require.NoError(t, err)
	require.False(t, ok)
}

// values published by the wallet gateway for a DELETE_CARD notification
const (
	gatewayPublicKey = `MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEA1+b2/q6KEJfvI65xJLXhPMT8YRUO618zsgaW4pNGZ+r/mwfFC1EOZbcBp7sV0IaxSWeMy0WNyJPSh/JltuiC1R93hfA0Kh3DlaRWaDgJz9VC1b+aPjUOx+uqndOEFiZcKGGnM60YPXfyo7xCDH76/WsWR0G4Ov6MoYQ76RAUT0t+G0oumYGgdLYwx5hJ1ywDKPXszj7A/mKHtWJKiylPIhUK2mLwKR8Y/+3dLNuNomvb7miVgeBFiriwGS1FolQMu433zEugAqRgsiasZAKfVK1BChPmiC812IMS1UPhz1wwpXzzkjQ1YQUGjnbHpooKobeCyctKKgF27F84egpzsQIDAQAB`
	gatewaySignature = `g6Ylid2v13ibrGCDITYkms7rOxM9Qmpn2nTQy+MDneCvs8n2AznhdH1BOdZxAFEeNvIqaBejupJJNnHweDixxwQub34pt7Kv0wuW3LI0gtut5jsjEJuF9kfPj/f6W6ZfUgZB8R9j6jGMzqWoa7IRkXpIxpdJgral8aE+QwMG51hrzH8j/7EbPxpQgFyxuxiZimaeKDbgJ2yWIDtnaEVs+6NxLMhz+Vgo0vxEiyo+TEdcpkl0ahMA8XCXGs6lqlbl+G8imlU4+pMvM+IL9ygCbDWgwj6pmfrkDnD/tYVqElE9SIZ79+ShWLNwUgtWFfzo1ckMRWGSdMfwVd+f6boVIQ==`
	gatewayBody      = `{
		"eventId": "469283774166292993",
		"eventTime": "2020-10-09T03:41:55.694Z",
		"passNumber": "passNumber1234",
		"passTypeIdentifier": "hwpass.com.xxx",
		"eventType": "DELETE_CARD",
		"sceneType": "THIRD_PARTY_DELETE_CARD",
		"noticeToken": "1e4dda10e4590dcd66d1c14bfe1505424091f693996d2db885e54ad040723d7c",
		"pushToken": "asdfghjkl"
	}`
)

func TestVerifyCallback_GatewayVector(t *testing.T) {
	ok, err := VerifyCallback([]byte(gatewayBody), gatewayPublicKey, gatewaySignature)
	require.NoError(t, err)
	require.True(t, ok)

	v, err := NewVerifier(gatewayPublicKey, wklog.NewLogger(false, `ERROR`))
	require.NoError(t, err)
	ok, err = v.Verify([]byte(gatewayBody), gatewaySignature)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyCallback_GatewayVectorModified(t *testing.T) {
	body := strings.Replace(gatewayBody, `passNumber1234`, `passNumber1235`, 1)
	require.NotEqual(t, gatewayBody, body)

	ok, err := VerifyCallback([]byte(body), gatewayPublicKey, gatewaySignature)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyCallback_BitFlip(t *testing.T) {
	prv, pub := testKey(t)
	body := []byte(`{"a":"1","b":"2"}`)
	raw, err := base64.StdEncoding.DecodeString(sign(t, prv, body))
	require.NoError(t, err)

	for _, i := range []int{0, len(raw) / 2, len(raw) - 1} {
		flipped := make([]byte, len(raw))
		copy(flipped, raw)
		flipped[i] ^= 0x01

		ok, err := VerifyCallback(body, pub, base64.StdEncoding.EncodeToString(flipped))
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestVerifyCallback_GarbageSignature(t *testing.T) {
	_, pub := testKey(t)
	ok, err := VerifyCallback([]byte(`{"a":"1"}`), pub, `not base64!`)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyCallback_InvalidKey(t *testing.T) {
	_, err := VerifyCallback([]byte(`{"a":"1"}`), `invalid`, `c2ln`)
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrKeyDecoding))
}

func TestNewVerifier_InvalidKey(t *testing.T) {
	_, err := NewVerifier(`invalid`, wklog.NewLogger(false, `ERROR`))
	require.Error(t, err)
}

func TestVerifier_Decode(t *testing.T) {
	_, pub := testKey(t)
	v, err := NewVerifier(pub, wklog.NewLogger(false, `ERROR`))
	require.NoError(t, err)

	n, err := v.Decode([]byte(`{"eventId":"e-1","eventType":"PASS_ADDED","passNumber":"p-9","eventTime":1690000000,"extraField":"x"}`))
	require.NoError(t, err)
	require.Equal(t, `e-1`, n.EventID)
	require.Equal(t, `PASS_ADDED`, n.EventType)
	require.Equal(t, `p-9`, n.PassNumber)
	require.Equal(t, `1690000000`, n.EventTime)
	require.Equal(t, `x`, n.Extra[`extraField`])
}

func TestVerifier_Verify(t *testing.T) {
	prv, pub := testKey(t)
	v, err := NewVerifier(pub, wklog.NewLogger(false, `ERROR`))
	require.NoError(t, err)

	body := []byte(`{"eventId":"e-1"}`)
	ok, err := v.Verify(body, sign(t, prv, body))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = v.Verify([]byte(`{"eventId":"e-2"}`), sign(t, prv, body))
	require.NoError(t, err)
	require.False(t, ok)
}
