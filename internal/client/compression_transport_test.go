package client

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

func encodeGzip(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}

func encodeBrotli(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}

func encodeZstd(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}

func TestCompressionTransport_Decodes(t *testing.T) {
	page := []byte(`<html><body><div class="myui-vodlist__box">最新日漫</div></body></html>`)

	tests := []struct {
		name     string
		encoding string
		payload  []byte
	}{
		{"gzip", "gzip", encodeGzip(t, page)},
		{"brotli", "br", encodeBrotli(t, page)},
		{"zstd", "zstd", encodeZstd(t, page)},
		{"upper case with spaces", " GZIP ", encodeGzip(t, page)},
		{"identity", "", page},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Accept-Encoding"); got != acceptEncoding {
					t.Errorf("Accept-Encoding = %q, want %q", got, acceptEncoding)
				}
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				_, _ = w.Write(tt.payload)
			}))
			defer server.Close()

			client := &http.Client{Transport: newCompressionTransport(nil)}
			resp, err := client.Get(server.URL)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("read body: %v", err)
			}
			if !bytes.Equal(body, page) {
				t.Errorf("body = %q, want %q", body, page)
			}
			if resp.Header.Get("Content-Encoding") != "" {
				t.Errorf("Content-Encoding should be removed, got %q", resp.Header.Get("Content-Encoding"))
			}
		})
	}
}

func TestCompressionTransport_CallerEncodingPassesThrough(t *testing.T) {
	payload := bytes.Repeat([]byte{0x00, 0x01}, 1024)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept-Encoding"); got != "identity" {
			t.Errorf("Accept-Encoding = %q, want identity", got)
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	req.Header.Set("Accept-Encoding", "identity")

	client := &http.Client{Transport: newCompressionTransport(nil)}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.ContentLength != int64(len(payload)) {
		t.Errorf("ContentLength = %d, want %d", resp.ContentLength, len(payload))
	}
}

func TestCompressionTransport_CorruptGzip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write([]byte("not gzip"))
	}))
	defer server.Close()

	client := &http.Client{Transport: newCompressionTransport(nil)}
	if _, err := client.Get(server.URL); err == nil {
		t.Fatal("Expected error for corrupt gzip body")
	}
}

func TestCompressionTransport_StackedEncodings(t *testing.T) {
	page := []byte(`<html><body>更新至12集</body></html>`)

	tests := []struct {
		name       string
		encoding   string
		payload    []byte
		want       []byte
		wantHeader string
	}{
		{
			name:     "gzip then brotli",
			encoding: "gzip, br",
			payload:  encodeBrotli(t, encodeGzip(t, page)),
			want:     page,
		},
		{
			name:       "unknown inner coding stays declared",
			encoding:   "deflate, zstd",
			payload:    encodeZstd(t, []byte("deflated bytes")),
			want:       []byte("deflated bytes"),
			wantHeader: "deflate",
		},
		{
			name:       "unknown outer coding passes through",
			encoding:   "gzip, compress",
			payload:    []byte("opaque"),
			want:       []byte("opaque"),
			wantHeader: "gzip, compress",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", tt.encoding)
				_, _ = w.Write(tt.payload)
			}))
			defer server.Close()

			client := &http.Client{Transport: newCompressionTransport(nil)}
			resp, err := client.Get(server.URL)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("read body: %v", err)
			}
			if !bytes.Equal(body, tt.want) {
				t.Errorf("body = %q, want %q", body, tt.want)
			}
			if got := resp.Header.Get("Content-Encoding"); got != tt.wantHeader {
				t.Errorf("Content-Encoding = %q, want %q", got, tt.wantHeader)
			}
		})
	}
}

func TestEncodingList(t *testing.T) {
	tests := []struct {
		header string
		want   []string
	}{
		{"", nil},
		{"   ", nil},
		{"gzip", []string{"gzip"}},
		{"BR", []string{"br"}},
		{"gzip, zstd", []string{"gzip", "zstd"}},
		{"deflate , identity, gzip ", []string{"deflate", "gzip"}},
	}
	for _, tt := range tests {
		if got := encodingList(tt.header); !slices.Equal(got, tt.want) {
			t.Errorf("encodingList(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
