package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// openZip opens an OOXML package held in memory.
func openZip(content []byte, format string) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%s: not a zip: %w", format, err)
	}
	return zr, nil
}

// readZipEntry returns the bytes of the named entry, or nil if it does not exist.
func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, nil
}

// xmlEntities decodes the handful of entities that appear inside OOXML text runs.
var xmlEntities = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")

// paragraphText joins the text runs matched by runRe inside each paragraph matched by paraRe,
// one paragraph per line.
func paragraphText(xml string, paraRe, runRe *regexp.Regexp) string {
	var b strings.Builder
	for _, para := range paraRe.FindAllString(xml, -1) {
		var line strings.Builder
		for _, run := range runRe.FindAllStringSubmatch(para, -1) {
			line.WriteString(run[1])
		}
		text := strings.TrimSpace(xmlEntities.Replace(line.String()))
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(text)
	}
	return b.String()
}

var slideNumRe = regexp.MustCompile(`(\d+)\.xml$`)

// sortSlides orders slide entries by their numeric suffix so slide10 follows slide9.
func sortSlides(files []*zip.File) {
	num := func(name string) int {
		m := slideNumRe.FindStringSubmatch(name)
		if m == nil {
			return 0
		}
		n, _ := strconv.Atoi(m[1])
		return n
	}
	sort.SliceStable(files, func(i, j int) bool {
		return num(files[i].Name) < num(files[j].Name)
	})
}
