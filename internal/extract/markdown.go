package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractMarkdown flattens a markdown document to plain lines. Source
// line breaks inside paragraphs survive, so screenplay drafts written
// in markdown keep their cue/dialogue structure.
func extractMarkdown(data []byte) Result {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(data))

	var lines []string
	var collect func(n ast.Node)
	collect = func(n ast.Node) {
		if h, ok := n.(*ast.Heading); ok {
			lines = append(lines, string(h.Text(data)), "")
			return
		}
		if n.Type() == ast.TypeBlock {
			if segs := n.Lines(); segs != nil && segs.Len() > 0 {
				for i := 0; i < segs.Len(); i++ {
					seg := segs.At(i)
					lines = append(lines, strings.TrimRight(string(seg.Value(data)), "\n"))
				}
				lines = append(lines, "")
				return
			}
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			collect(c)
		}
	}
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		collect(c)
	}

	return Result{Text: strings.Join(lines, "\n")}
}
