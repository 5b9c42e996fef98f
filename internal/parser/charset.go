package parser

import (
	"io"

	"golang.org/x/net/html/charset"
)

// NewUTF8Reader converts body to UTF-8. The charset is taken from contentType when it
// names one, then from <meta> tags or a byte order mark, and finally guessed.
// Catalog sites frequently serve GBK/GB18030 pages, which goquery cannot read directly.
func NewUTF8Reader(body io.Reader, contentType string) (io.Reader, error) {
	return charset.NewReader(body, contentType)
}
