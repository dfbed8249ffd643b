package extract

import (
	"fmt"

	"github.com/lu4p/cat"
)

// extractOffice reads RTF and ODT documents; cat sniffs the format from the bytes.
func extractOffice(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("read office document: %w", err)
	}
	return text, nil
}
