package parser

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func encodeGBK(t *testing.T, s string) []byte {
	t.Helper()
	out, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encode GBK: %v", err)
	}
	return out
}

func TestNewUTF8Reader_AlreadyUTF8(t *testing.T) {
	t.Parallel()
	input := []byte("<html><body>最新日漫 ☺</body></html>")
	reader, err := NewUTF8Reader(bytes.NewReader(input), "text/html; charset=utf-8")
	if err != nil {
		t.Fatalf("NewUTF8Reader failed: %v", err)
	}

	output, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("Failed to read from UTF-8 reader: %v", err)
	}
	if !bytes.Equal(output, input) {
		t.Errorf("Expected UTF-8 content to pass through unchanged, got %q", output)
	}
}

func TestNewUTF8Reader_GBKFromMetaTag(t *testing.T) {
	t.Parallel()
	input := append([]byte(`<html><head><meta charset="gbk"></head><body>`), encodeGBK(t, "更新至第12集")...)
	input = append(input, []byte(`</body></html>`)...)

	reader, err := NewUTF8Reader(bytes.NewReader(input), "")
	if err != nil {
		t.Fatalf("NewUTF8Reader failed: %v", err)
	}
	output, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if !strings.Contains(string(output), "更新至第12集") {
		t.Errorf("Expected decoded GBK text, got %q", output)
	}
}

func TestNewUTF8Reader_GBKFromContentType(t *testing.T) {
	t.Parallel()
	input := append([]byte(`<html><body>`), encodeGBK(t, "日本动漫")...)

	reader, err := NewUTF8Reader(bytes.NewReader(input), "text/html; charset=GB2312")
	if err != nil {
		t.Fatalf("NewUTF8Reader failed: %v", err)
	}
	output, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if !strings.Contains(string(output), "日本动漫") {
		t.Errorf("Expected decoded text, got %q", output)
	}
}

func TestNewDocument_GBKPageIsQueryable(t *testing.T) {
	t.Parallel()
	page := append([]byte(`<html><head><meta http-equiv="Content-Type" content="text/html; charset=gbk"></head><body><h4><a title="`), encodeGBK(t, "葬送的芙莉莲")...)
	page = append(page, []byte(`" href="/v/1.html">x</a></h4></body></html>`)...)

	doc, err := NewDocument(bytes.NewReader(page), "https://www.example.com/type/list.html", "")
	if err != nil {
		t.Fatalf("NewDocument failed: %v", err)
	}
	links := doc.Find("h4 a")
	if len(links) != 1 {
		t.Fatalf("Expected 1 link, got %d", len(links))
	}
	if title, _ := links[0].Attr("title"); title != "葬送的芙莉莲" {
		t.Errorf("title = %q, want 葬送的芙莉莲", title)
	}
}

func TestNewDocument_InvalidLocation(t *testing.T) {
	t.Parallel()
	if _, err := NewDocument(strings.NewReader("<html></html>"), "http://[::1", ""); err == nil {
		t.Fatal("Expected error for invalid location")
	}
}
