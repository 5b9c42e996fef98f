package client

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// acceptEncoding lists the codings decodingTransport can undo.
const acceptEncoding = "gzip, br, zstd"

type decoderFunc func(body io.Reader) (io.ReadCloser, error)

var decoders = map[string]decoderFunc{
	"gzip": func(body io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(body)
	},
	"br": func(body io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(brotli.NewReader(body)), nil
	},
	"zstd": func(body io.Reader) (io.ReadCloser, error) {
		zr, err := zstd.NewReader(body)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	},
}

// decodingTransport advertises gzip, brotli and zstd for page requests and decodes the
// response body transparently. A request that already carries Accept-Encoding, such as
// a media download asking for identity, is passed through untouched.
type decodingTransport struct {
	next http.RoundTripper
}

func newCompressionTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &decodingTransport{next: next}
}

func (t *decodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") != "" {
		return t.next.RoundTrip(req)
	}

	req = req.Clone(req.Context())
	req.Header.Set("Accept-Encoding", acceptEncoding)

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return resp, nil
	}

	codings := encodingList(resp.Header.Get("Content-Encoding"))
	body := resp.Body
	undone := 0
	for len(codings) > 0 {
		decode, ok := decoders[codings[len(codings)-1]]
		if !ok {
			break
		}
		decoded, err := decode(body)
		if err != nil {
			body.Close()
			return nil, err
		}
		body = &decodedBody{ReadCloser: decoded, raw: body}
		codings = codings[:len(codings)-1]
		undone++
	}
	if undone == 0 {
		return resp, nil
	}

	// Codings that could not be undone stay declared on the response.
	resp.Body = body
	if len(codings) > 0 {
		resp.Header.Set("Content-Encoding", strings.Join(codings, ", "))
	} else {
		resp.Header.Del("Content-Encoding")
		resp.Uncompressed = true
	}
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	return resp, nil
}

// decodedBody closes the decoder and then the raw body.
type decodedBody struct {
	io.ReadCloser
	raw io.ReadCloser
}

func (d *decodedBody) Close() error {
	decErr := d.ReadCloser.Close()
	rawErr := d.raw.Close()
	if decErr != nil {
		return decErr
	}
	return rawErr
}

// encodingList splits a Content-Encoding header into lowercased codings in the order
// they were applied, so the last one is undone first. identity entries are dropped.
func encodingList(header string) []string {
	var codings []string
	for part := range strings.SplitSeq(header, ",") {
		c := strings.ToLower(strings.TrimSpace(part))
		if c == "" || c == "identity" {
			continue
		}
		codings = append(codings, c)
	}
	return codings
}
