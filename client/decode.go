package client

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// decodeSet selects which Content-Encodings are decoded transparently.
// gzip covers gzip and deflate; brotli covers br and zstd, which the same
// browser builds started advertising together.
type decodeSet struct {
	gzip   bool
	brotli bool
}

func (d decodeSet) accepts(encoding string) bool {
	switch encoding {
	case "gzip", "deflate":
		return d.gzip
	case "br", "zstd":
		return d.brotli
	}
	return false
}

// apply replaces resp.Body with a decoding reader when the response carries
// an encoding d accepts. Unknown encodings pass through untouched.
func (d decodeSet) apply(resp *http.Response) (*http.Response, error) {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	if encoding == "" || encoding == "identity" || !d.accepts(encoding) {
		return resp, nil
	}
	body, err := newDecoder(encoding, resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("client: decode %s body: %w", encoding, err)
	}
	resp.Body = body
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

// decodedBody closes both the decoder and the underlying body.
type decodedBody struct {
	io.Reader
	closeDecoder func()
	body         io.Closer
}

func (b *decodedBody) Close() error {
	if b.closeDecoder != nil {
		b.closeDecoder()
	}
	return b.body.Close()
}

func newDecoder(encoding string, body io.ReadCloser) (io.ReadCloser, error) {
	switch encoding {
	case "gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, err
		}
		return &decodedBody{Reader: zr, closeDecoder: func() { _ = zr.Close() }, body: body}, nil
	case "deflate":
		fr := flate.NewReader(body)
		return &decodedBody{Reader: fr, closeDecoder: func() { _ = fr.Close() }, body: body}, nil
	case "br":
		return &decodedBody{Reader: brotli.NewReader(body), body: body}, nil
	case "zstd":
		zr, err := zstd.NewReader(body)
		if err != nil {
			return nil, err
		}
		return &decodedBody{Reader: zr, closeDecoder: zr.Close, body: body}, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", encoding)
}
