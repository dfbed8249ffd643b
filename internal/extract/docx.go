package extract

import (
	"archive/zip"
	"fmt"
	"regexp"
	"strings"
)

const (
	docxDocumentXMLPath = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	// wParagraph matches a whole <w:p ...>...</w:p> paragraph, attributes included.
	wParagraph = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	// wText matches <w:t>text</w:t> with any attributes.
	wText = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)

	// mainPartRe finds the main document part in [Content_Types].xml; attributes may come in either order.
	mainPartRe = []*regexp.Regexp{
		regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`),
		regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`),
	}
)

// docxMainPart returns the main document path without leading slash, defaulting to word/document.xml.
func docxMainPart(zr *zip.Reader) string {
	ct, err := readZipEntry(zr, contentTypesPath)
	if err != nil || ct == nil {
		return docxDocumentXMLPath
	}
	for _, re := range mainPartRe {
		if m := re.FindSubmatch(ct); m != nil {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return docxDocumentXMLPath
}

// extractDOCX returns one line per non-empty paragraph of the main document part.
func extractDOCX(content []byte) (string, error) {
	zr, err := openZip(content, "DOCX")
	if err != nil {
		return "", err
	}
	part := docxMainPart(zr)
	xml, err := readZipEntry(zr, part)
	if err != nil {
		return "", fmt.Errorf("DOCX: %w", err)
	}
	if xml == nil {
		return "", fmt.Errorf("DOCX: %s not found", part)
	}
	return paragraphText(string(xml), wParagraph, wText), nil
}
