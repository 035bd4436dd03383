package extract

import "strings"

// extractText decodes the buffer as UTF-8, dropping invalid byte
// sequences.
func extractText(data []byte) Result {
	return Result{Text: strings.ToValidUTF8(string(data), "")}
}
