package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
)

// decompressTransport advertises brotli alongside gzip and deflate and
// transparently decodes whichever encoding the provider picks. The
// stdlib transport negotiates gzip only, and the bulk export endpoint
// compresses roughly 10:1 under br.
type decompressTransport struct {
	base http.RoundTripper
}

func newDecompressTransport() *decompressTransport {
	base := http.DefaultTransport.(*http.Transport).Clone()
	// We negotiate and decode ourselves, including brotli.
	base.DisableCompression = true
	return &decompressTransport{base: base}
}

func (t *decompressTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	reader, err := decodeBody(resp)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	if reader != nil {
		resp.Body = &decodedBody{reader: reader, underlying: resp.Body}
		resp.Header.Del("Content-Encoding")
		resp.Header.Del("Content-Length")
		resp.ContentLength = -1
		resp.Uncompressed = true
	}
	return resp, nil
}

// decodeBody returns a decoding reader for the response's content
// encoding, or nil when the body is already plain.
func decodeBody(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "deflate":
		return flate.NewReader(resp.Body), nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return nil, nil
	}
}

// decodedBody closes the decoder and the underlying network body
// together. The brotli reader is not a closer, so the decoder close is
// best-effort.
type decodedBody struct {
	reader     io.Reader
	underlying io.ReadCloser
}

func (b *decodedBody) Read(p []byte) (int, error) { return b.reader.Read(p) }

func (b *decodedBody) Close() error {
	if c, ok := b.reader.(io.Closer); ok {
		c.Close()
	}
	return b.underlying.Close()
}
