package parser

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type htmlDocument struct {
	location *url.URL
	doc      *goquery.Document
}

type htmlElement struct {
	sel *goquery.Selection
}

// NewDocument parses an HTML body loaded from location. contentType is the response
// Content-Type header, if any, and is used to pick the source charset.
func NewDocument(body io.Reader, location, contentType string) (Document, error) {
	loc, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid document location %q: %w", location, err)
	}

	utf8Body, err := NewUTF8Reader(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to detect charset: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return &htmlDocument{location: loc, doc: doc}, nil
}

// NewDocumentFromString parses an in-memory UTF-8 page.
func NewDocumentFromString(html, location string) (Document, error) {
	return NewDocument(strings.NewReader(html), location, "text/html; charset=utf-8")
}

func (d *htmlDocument) Location() *url.URL {
	return d.location
}

func (d *htmlDocument) Find(selector string) []Element {
	return wrap(d.doc.Find(selector))
}

func (e *htmlElement) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *htmlElement) Text() string {
	return e.sel.Text()
}

func (e *htmlElement) Find(selector string) []Element {
	return wrap(e.sel.Find(selector))
}

func wrap(sel *goquery.Selection) []Element {
	elements := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &htmlElement{sel: s})
	})
	return elements
}

// resolveURL makes ref absolute against the document location. Empty references stay empty.
func resolveURL(doc Document, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	base := doc.Location()
	if base == nil {
		return parsed.String()
	}
	return base.ResolveReference(parsed).String()
}
