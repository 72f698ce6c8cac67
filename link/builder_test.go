package link

import (
	"encoding/json"
	"testing"

	"github.com/YasiruR/walletkit/domain"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const website = `https://wallet.example.com/walletkit/consumer/pass/save`

func TestBuilder_ThinPayload(t *testing.T) {
	b := NewBuilder(website, `10086`)
	p, err := b.ThinPayload([]string{`serial-1`, `serial-2`})
	require.NoError(t, err)
	require.JSONEq(t, `{"instanceIds":["serial-1","serial-2"],"iss":"10086"}`, p)

	_, err = b.ThinPayload(nil)
	require.True(t, errors.Is(err, domain.ErrValidation))
}

func TestBuilder_InstancePayload(t *testing.T) {
	b := NewBuilder(website, `10086`)
	p, err := b.InstancePayload([]byte(`{"serialNumber":"serial-1","fields":{"countryCode":"LK"},"amount":12345678901234567890}`))
	require.NoError(t, err)

	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(p), &obj))
	require.Equal(t, `"10086"`, string(obj[`iss`]))
	require.Equal(t, `"serial-1"`, string(obj[`serialNumber`]))
	require.Equal(t, `12345678901234567890`, string(obj[`amount`]))

	for _, in := range []string{``, `null`, `[1]`} {
		_, err = b.InstancePayload([]byte(in))
		require.True(t, errors.Is(err, domain.ErrEncoding), in)
	}
}

func TestBuilder_ContentLink(t *testing.T) {
	b := NewBuilder(website, `10086`)
	env := `aGVhZGVy.a2V5.aXY.Y2lwaGVy.c2ln+/=`

	l := b.ContentLink(env)
	require.Equal(t, website+`?content=aGVhZGVy.a2V5.aXY.Y2lwaGVy.c2ln%2B%2F%3D`, l)

	parsed, err := ParseContentLink(l)
	require.NoError(t, err)
	require.Equal(t, env, parsed)
}

func TestParseContentLink_Missing(t *testing.T) {
	_, err := ParseContentLink(website + `?jwt=abc`)
	require.True(t, errors.Is(err, domain.ErrInvalidEnvelope))
}
