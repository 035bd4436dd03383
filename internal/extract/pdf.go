package extract

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// extractPDF pulls page text in order. The pdf library panics on some
// malformed files, so the whole read is fenced and degrades to a
// warning like any other extraction failure.
func extractPDF(data []byte) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Warnings: []string{fmt.Sprintf("pdf extraction failed: %v", r)}}
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{Warnings: []string{fmt.Sprintf("pdf extraction failed: %v", err)}}
	}

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(text)
	}
	return Result{Text: buf.String(), PageCount: numPages}
}
