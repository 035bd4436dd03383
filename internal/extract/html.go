package extract

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// extractHTML collects body text with newlines at block boundaries.
func extractHTML(data []byte) Result {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return Result{Warnings: []string{fmt.Sprintf("html extraction failed: %v", err)}}
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "br":
				buf.WriteString("\n")
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTag(n.Data) {
			buf.WriteString("\n")
		}
	}

	body := findBody(doc)
	if body == nil {
		body = doc
	}
	walk(body)

	return Result{Text: buf.String()}
}

func blockTag(tag string) bool {
	switch tag {
	case "p", "div", "li", "tr", "blockquote", "pre", "section", "article",
		"h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
