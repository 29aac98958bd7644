package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// ErrNoDocument is returned for missing or empty page content.
var ErrNoDocument = errors.New("no document")

// Parse converts cached HTML into a queryable document.
func Parse(content []byte) (*goquery.Document, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, ErrNoDocument
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDocument, err)
	}
	return doc, nil
}

func cleanText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// singleString returns the text of n when it has exactly one child that is either
// a text node or, recursively, an element with a single string.
func singleString(n *html.Node) string {
	child := n.FirstChild
	if child == nil || child.NextSibling != nil {
		return ""
	}
	switch child.Type {
	case html.TextNode:
		return cleanText(child.Data)
	case html.ElementNode:
		return singleString(child)
	default:
		return ""
	}
}
