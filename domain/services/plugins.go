package services

import "context"

/* dependencies */

type Compactor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

type TokenProvider interface {
	// AccessToken fails with domain.ErrNullResponse if the gateway returns an empty token
	AccessToken(ctx context.Context, clientID, clientSecret string) (string, error)
}

type ConfigProvider interface {
	Value(key string) (string, bool)
}
