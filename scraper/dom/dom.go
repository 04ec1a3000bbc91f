// Package dom is the narrow HTML query capability the extractors depend on.
// Extraction code only sees Node, so it can run against synthetic documents.
package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Node is one element (or document) that can be queried with CSS selectors.
type Node interface {
	// Find returns the first descendant matching selector.
	Find(selector string) (Node, bool)
	// FindAll returns every descendant matching selector in document order.
	FindAll(selector string) []Node
	// Text returns the combined text of the node and its descendants, trimmed.
	Text() string
	// Attr returns the value of the named attribute.
	Attr(name string) (string, bool)
}

// Parse builds a goquery-backed Node for an HTML document.
func Parse(html string) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return selection{doc.Selection}, nil
}

type selection struct {
	s *goquery.Selection
}

func (n selection) Find(selector string) (Node, bool) {
	found := n.s.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return selection{found}, true
}

func (n selection) FindAll(selector string) []Node {
	found := n.s.Find(selector)
	nodes := make([]Node, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, selection{s})
	})
	return nodes
}

func (n selection) Text() string {
	return strings.TrimSpace(n.s.Text())
}

func (n selection) Attr(name string) (string, bool) {
	return n.s.Attr(name)
}

// FindText returns the trimmed text of the first match, or fallback when
// nothing matches or the match is empty.
func FindText(n Node, selector, fallback string) string {
	found, ok := n.Find(selector)
	if !ok {
		return fallback
	}
	if t := found.Text(); t != "" {
		return t
	}
	return fallback
}
