package compactor

import (
	"bytes"
	"io"

	"github.com/YasiruR/walletkit/domain"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Gzip compresses the hex cipher text of an envelope as a single-member gzip stream
type Gzip struct {
	level int
}

func NewGzip() *Gzip {
	return &Gzip{level: gzip.DefaultCompression}
}

// Compress returns an empty slice for empty input.
func (g *Gzip) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, g.level)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrCompression, `creating gzip writer failed - %v`, err)
	}

	if _, err = w.Write(data); err != nil {
		return nil, errors.Wrapf(domain.ErrCompression, `writing gzip stream failed - %v`, err)
	}

	if err = w.Close(); err != nil {
		return nil, errors.Wrapf(domain.ErrCompression, `closing gzip stream failed - %v`, err)
	}

	return buf.Bytes(), nil
}

func (g *Gzip) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}

	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(domain.ErrCompression, `reading gzip header failed - %v`, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrCompression, `reading gzip stream failed - %v`, err)
	}

	return out, nil
}
