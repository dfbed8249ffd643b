package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// extractPlain returns content as string, validating it is valid UTF-8.
// Invalid UTF-8 sequences are replaced with the replacement character.
func extractPlain(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�"), nil
	}
	return string(content), nil
}

// looksBinary reports whether the first 512 bytes contain a NUL byte.
func looksBinary(content []byte) bool {
	if len(content) > 512 {
		content = content[:512]
	}
	return bytes.IndexByte(content, 0) >= 0
}
