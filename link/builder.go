package link

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/YasiruR/walletkit/domain"
	"github.com/YasiruR/walletkit/domain/models"
	"github.com/pkg/errors"
)

const contentParam = `content`

// Builder creates the payloads carried by envelopes and the browser link through
// which a user saves a pass
type Builder struct {
	websiteURL string
	appID      string
}

func NewBuilder(websiteURL, appID string) *Builder {
	return &Builder{websiteURL: websiteURL, appID: appID}
}

// ThinPayload binds instances already created on the gateway to the user
func (b *Builder) ThinPayload(instanceIDs []string) (string, error) {
	if len(instanceIDs) == 0 {
		return ``, errors.Wrap(domain.ErrValidation, `at least one instance id is required`)
	}

	byts, err := json.Marshal(models.ThinPayload{InstanceIDs: instanceIDs, Iss: b.appID})
	if err != nil {
		return ``, errors.Wrapf(domain.ErrEncoding, `marshalling thin payload failed - %v`, err)
	}

	return string(byts), nil
}

// InstancePayload adds the issuer to a complete instance object
func (b *Builder) InstancePayload(instance []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(instance))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return ``, errors.Wrapf(domain.ErrEncoding, `instance is not a json object - %v`, err)
	}
	obj[`iss`] = b.appID

	byts, err := json.Marshal(obj)
	if err != nil {
		return ``, errors.Wrapf(domain.ErrEncoding, `marshalling instance payload failed - %v`, err)
	}

	return string(byts), nil
}

func (b *Builder) ContentLink(envelope string) string {
	return b.websiteURL + `?` + contentParam + `=` + url.QueryEscape(envelope)
}

// ParseContentLink extracts the envelope of a link created by ContentLink
func ParseContentLink(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return ``, fmt.Errorf(`invalid url format - %v`, err)
	}

	env, ok := u.Query()[contentParam]
	if !ok || len(env) == 0 {
		return ``, errors.Wrapf(domain.ErrInvalidEnvelope, `link must contain '%s' parameter`, contentParam)
	}

	return env[0], nil
}
