package messages

// fixed header values of the wallet envelope
const (
	HeaderAlg = `RSA-OAEP`
	HeaderEnc = `A128GCM`
	HeaderKid = `1`
	HeaderZip = `gzip`
)

const (
	segmentSeparator = `.`
	segmentCount     = 5
)
