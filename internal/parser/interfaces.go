package parser

import "net/url"

// Document is a rendered page that can be queried with CSS selectors
type Document interface {
	// Location is the URL the document was loaded from, used to resolve relative links.
	Location() *url.URL
	// Find returns every element matching selector in document order.
	Find(selector string) []Element
}

// Element is a single node of a Document
type Element interface {
	Attr(name string) (string, bool)
	Text() string
	Find(selector string) []Element
}
