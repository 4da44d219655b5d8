package extract

import (
	"fmt"
	"unicode/utf8"
)

// extractPlain returns content as a string. Input that is not valid UTF-8 is
// rejected rather than repaired.
func extractPlain(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("text file is not valid UTF-8")
	}
	return string(content), nil
}
