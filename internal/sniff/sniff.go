// Package sniff classifies markup documents into document families by
// inspecting their declared document type.
package sniff

import (
	"encoding/xml"
	"strings"

	"golang.org/x/net/html"
)

// Family is a document family bucket.
type Family string

const (
	FamilyNone    Family = ""
	FamilyDITA    Family = "dita"
	FamilyDocBook Family = "docbook"
	FamilyJATS    Family = "jats"
	FamilyTEI     Family = "tei"
	FamilyHTML    Family = "html"
)

// Families lists every classifiable family in precedence order.
var Families = []Family{FamilyDITA, FamilyDocBook, FamilyJATS, FamilyTEI, FamilyHTML}

// doctypeMarkers is checked in order against the lower-cased doctype; the
// first substring hit wins.
var doctypeMarkers = []struct {
	marker string
	family Family
}{
	{"dita", FamilyDITA},
	{"docbook", FamilyDocBook},
	{"jats", FamilyJATS},
	{"www.tei-c.org", FamilyTEI},
	{"html", FamilyHTML},
}

// namespaceFamilies classifies documents without a doctype by the namespace
// of their root element.
var namespaceFamilies = map[string]Family{
	"http://www.tei-c.org/ns/1.0":   FamilyTEI,
	"http://docbook.org/ns/docbook": FamilyDocBook,
	"http://www.w3.org/1999/xhtml":  FamilyHTML,
}

// Method records which signal produced a classification.
type Method string

const (
	MethodDoctype   Method = "doctype"
	MethodNamespace Method = "namespace"
)

// Classification is the result of sniffing one document.
type Classification struct {
	Family  Family `json:"family"`
	Root    string `json:"root"`
	Doctype string `json:"doctype,omitempty"`
	Method  Method `json:"method,omitempty"`
}

// OK reports whether the document was assigned a family.
func (c Classification) OK() bool {
	return c.Family != FamilyNone && c.Root != ""
}

// Classify sniffs content. Identical content always yields an identical
// classification.
func Classify(content string) Classification {
	if doctype, ok := Doctype(content); ok {
		return ClassifyDoctype(doctype)
	}
	return classifyNamespace(content)
}

// ClassifyDoctype maps a raw doctype declaration body (the text after
// "<!DOCTYPE") to a family. The root is the first whitespace-separated token.
func ClassifyDoctype(doctype string) Classification {
	lower := strings.ToLower(doctype)
	fields := strings.Fields(lower)
	if len(fields) == 0 {
		return Classification{Doctype: doctype}
	}

	c := Classification{Root: fields[0], Doctype: doctype, Method: MethodDoctype}
	for _, m := range doctypeMarkers {
		if strings.Contains(lower, m.marker) {
			c.Family = m.family
			return c
		}
	}
	return Classification{Doctype: doctype}
}

// Doctype returns the body of the first doctype declaration that precedes
// the first element, e.g. `topic PUBLIC "-//OASIS//DTD DITA Topic//EN" "topic.dtd"`.
func Doctype(content string) (string, bool) {
	z := html.NewTokenizer(strings.NewReader(content))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.DoctypeToken:
			doctype := strings.TrimSpace(string(z.Text()))
			return doctype, doctype != ""
		case html.StartTagToken, html.SelfClosingTagToken:
			return "", false
		}
	}
}

func classifyNamespace(content string) Classification {
	d := xml.NewDecoder(strings.NewReader(content))
	d.Strict = false
	d.AutoClose = xml.HTMLAutoClose
	d.Entity = xml.HTMLEntity

	for {
		tok, err := d.RawToken()
		if err != nil {
			return Classification{}
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		ns := rootNamespace(start)
		family, known := namespaceFamilies[ns]
		if !known {
			return Classification{}
		}
		return Classification{
			Family: family,
			Root:   strings.ToLower(start.Name.Local),
			Method: MethodNamespace,
		}
	}
}

// rootNamespace returns the default namespace declared on the root element.
// RawToken does not resolve prefixes, so the xmlns attribute is read directly.
func rootNamespace(start xml.StartElement) string {
	prefix := start.Name.Space
	for _, attr := range start.Attr {
		switch {
		case prefix == "" && attr.Name.Space == "" && attr.Name.Local == "xmlns":
			return attr.Value
		case prefix != "" && attr.Name.Space == "xmlns" && attr.Name.Local == prefix:
			return attr.Value
		}
	}
	return ""
}
