package dita

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/prescod/the-xml-document-stack/internal/tagcount"
)

const imageXPath = "//*[local-name()='image'][@href]"

// Prepare copies file into dir with every image href reduced to its base
// name, and creates an empty placeholder for each referenced image so the
// converter does not fail on missing resources. The XML declaration and
// doctype are kept. It returns the path of the copy.
func Prepare(file, dir string) (string, error) {
	doc, err := tagcount.Parse(file)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", file, err)
	}

	for _, img := range xmlquery.Find(doc, imageXPath) {
		base := placeholderName(img.SelectAttr("href"))
		if base == "" {
			continue
		}
		img.SetAttr("href", base)
		f, err := os.OpenFile(filepath.Join(dir, base), os.O_CREATE|os.O_WRONLY, 0o644) //#nosec G304
		if err != nil {
			return "", fmt.Errorf("create placeholder %s: %w", base, err)
		}
		_ = f.Close()
	}

	out := filepath.Join(dir, filepath.Base(file))
	data := doc.OutputXMLWithOptions(xmlquery.WithPreserveSpace(), xmlquery.WithEmptyTagSupport())
	if err := os.WriteFile(out, []byte(data), 0o644); err != nil { //#nosec G306
		return "", err
	}
	return out, nil
}

// placeholderName returns the last path segment of href, or "" when there
// is none.
func placeholderName(href string) string {
	href = strings.TrimSpace(href)
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	href = strings.TrimRight(strings.ReplaceAll(href, `\`, "/"), "/")
	base := href[strings.LastIndex(href, "/")+1:]
	if base == "" || base == "." || base == ".." {
		return ""
	}
	return base
}
