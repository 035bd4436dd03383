package extract

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// lowTextThreshold is the extracted-text length (in runes) below which
// a PDF is considered low-confidence and OCR is consulted.
const lowTextThreshold = 50

// Result is the outcome of text extraction. Extraction never fails
// outright: adapter errors degrade to empty text plus a warning.
type Result struct {
	Text      string   `json:"text"`
	PageCount int      `json:"page_count,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// TextRecognizer is an injected OCR capability. Implementations take
// raw document bytes and return recognized text.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, data []byte) (string, error)
}

// Options controls optional extraction behavior.
type Options struct {
	// OCREnabled turns on the OCR fallback for low-confidence PDFs.
	OCREnabled bool
	// OCR performs the recognition. Ignored unless OCREnabled.
	OCR TextRecognizer
}

// SupportedExtensions lists the extensions with a dedicated adapter.
// Anything else falls back to plain-text decoding.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Extract pulls raw text out of an uploaded document. Dispatch is by
// filename extension first; the mime type is only a fallback for files
// with no usable extension.
func Extract(ctx context.Context, filename string, data []byte, mimeType string, opts Options) Result {
	switch adapterFor(filename, mimeType) {
	case kindPDF:
		res := extractPDF(data)
		if opts.OCREnabled && utf8.RuneCountInString(strings.TrimSpace(res.Text)) < lowTextThreshold {
			res = recognize(ctx, data, res, opts.OCR)
		}
		return res
	case kindDOCX:
		return extractDOCX(data)
	case kindMarkdown:
		return extractMarkdown(data)
	case kindHTML:
		return extractHTML(data)
	default:
		return extractText(data)
	}
}

type adapterKind int

const (
	kindText adapterKind = iota
	kindPDF
	kindDOCX
	kindMarkdown
	kindHTML
)

func adapterFor(filename, mimeType string) adapterKind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return kindPDF
	case ".docx":
		return kindDOCX
	case ".md", ".markdown":
		return kindMarkdown
	case ".html", ".htm":
		return kindHTML
	case "":
		switch strings.ToLower(strings.TrimSpace(mimeType)) {
		case "application/pdf":
			return kindPDF
		case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
			return kindDOCX
		case "text/html":
			return kindHTML
		case "text/markdown":
			return kindMarkdown
		}
	}
	return kindText
}

// recognize runs the OCR fallback. Failures never propagate: the
// original result is kept and a warning recorded.
func recognize(ctx context.Context, data []byte, res Result, ocr TextRecognizer) Result {
	if ocr == nil {
		res.Warnings = append(res.Warnings, "ocr enabled but no recognizer configured")
		return res
	}
	text, err := ocr.RecognizeText(ctx, data)
	if err != nil {
		res.Warnings = append(res.Warnings, "ocr failed: "+err.Error())
		return res
	}
	if strings.TrimSpace(text) == "" {
		res.Warnings = append(res.Warnings, "ocr produced no text")
		return res
	}
	res.Text = text
	res.Warnings = append(res.Warnings, "text recovered via ocr")
	return res
}
