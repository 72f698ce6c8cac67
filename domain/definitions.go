package domain

// SessionKeyPublicKey is the wallet gateway's fixed RSA key (X.509 SubjectPublicKeyInfo,
// base64) used to wrap the session key of every envelope.
const SessionKeyPublicKey = `MIIBojANBgkqhkiG9w0BAQEFAAOCAY8AMIIBigKCAYEAgBJB4usbO33Xg5vhJqfHJsMZj44f7rxpjRuPhGy37bUBjSLXN+dS6HpxnZwSVJCtmiydjl3Inq3Mzu4SCGxfb9RIjqRRfHA7ab5p3JnJVQfTEHMHy8XcABl6EPYIJMh26kztPOKU2Mkn6yhRaCurhVUD3n9bD8omiNrR4rg442AJlNamA7vgKs65AoqBuU4NBkGHg0VWWpEHCUx/xyX6hIwqc1aD7P2f62ZHsKpNZBOek/riWhaVx3dTAa9ZS+Av3IGLOZiplhYIow9f8dlWyqs8nff9FZoJO03QhXLvOORT+lPAkW6gFzaoeMaGb40HakkZn3uvlAEKrKrtR0rZEok+N1hnboaAu8oaKK0rF1W6iNrXcFrO0rcrCsFTVF8qCa/1dFmIXwUd2M6cUzT9W0YkNyb6ZBbwEhjwBL4DNW4JfeF2Dzj0eZYlSuYV7e7e1e+XEO8lwPLAiy4bEFAWCaeuDVIhbIoBaU6xHNVQoyzct98gaOYxE4mVDqAUVmhfAgMBAAE=`

const (
	SessionKeySize = 16
	IVSize         = 12
)

// pass type url segments of the wallet gateway
const (
	PassEventTicket = `eventticket`
	PassFlight      = `flight`
	PassLoyalty     = `loyalty`
	PassOffer       = `offer`
	PassTransit     = `transit`
	PassGiftCard    = `giftcard`
	PassStdCarKey   = `key_stdcar`
)

const (
	KindModel    = `model`
	KindInstance = `instance`
)

const (
	AddMessagePath   = `addMessage`
	LinkedOffersPath = `linkedoffers`
	CallbackEndpoint = `/callback`
	MetricsEndpoint  = `/metrics`
)

// ModelSegment returns the url segment of models of the given pass type, eg: eventticket/model
func ModelSegment(passType string) string {
	return passType + `/` + KindModel
}

// InstanceSegment returns the url segment of instances of the given pass type, eg: flight/instance
func InstanceSegment(passType string) string {
	return passType + `/` + KindInstance
}

const (
	DefaultSignatureHeader = `HMSSign`
	DefaultCallbackPort    = 8080
	DefaultRetries         = 3
	DefaultHTTPTimeout     = `10s`
	DefaultLogLevel        = `INFO`
)
