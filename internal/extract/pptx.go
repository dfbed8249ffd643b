package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const pptxSlidePathPrefix = "ppt/slides/slide"

var (
	aParagraph = regexp.MustCompile(`(?s)<a:p[ >].*?</a:p>`)
	aText      = regexp.MustCompile(`<a:t(?:\s[^>]*)?>([^<]*)</a:t>`)
)

// extractPPTX returns slide text in slide order, one line per paragraph.
func extractPPTX(content []byte) (string, error) {
	zr, err := openZip(content, "PPTX")
	if err != nil {
		return "", err
	}
	var slides []*zip.File
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, pptxSlidePathPrefix) && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f)
		}
	}
	sortSlides(slides)

	var parts []string
	for _, f := range slides {
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("PPTX: open %s: %w", f.Name, err)
		}
		xml, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("PPTX: read %s: %w", f.Name, err)
		}
		if text := paragraphText(string(xml), aParagraph, aText); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
