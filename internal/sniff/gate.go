package sniff

import (
	"strings"
	"unicode/utf8"
)

// DefaultWindow is how many leading characters of a document the gate inspects.
const DefaultWindow = 500

// Gate is a cheap prefilter run before any parsing. A document passes when
// every marker of at least one rule occurs within the first Window characters.
type Gate struct {
	Window int        `mapstructure:"window" validate:"gt=0"`
	Rules  [][]string `mapstructure:"rules" validate:"min=1,dive,min=1"`
}

// DefaultGate matches OASIS doctypes (DITA, DocBook), TEI roots and NLM/JATS
// public identifiers.
func DefaultGate() Gate {
	return Gate{
		Window: DefaultWindow,
		Rules: [][]string{
			{"<!DOCTYPE", "OASIS"},
			{"<TEI"},
			{"//NLM//DTD"},
		},
	}
}

// Match reports whether content passes the gate.
func (g Gate) Match(content string) bool {
	head := prefix(content, g.Window)

	for _, rule := range g.Rules {
		if len(rule) > 0 && containsAll(head, rule) {
			return true
		}
	}
	return false
}

// prefix returns the first n characters of s. n below 1 means all of s.
func prefix(s string, n int) string {
	if n < 1 || utf8.RuneCountInString(s) <= n {
		return s
	}
	for off := range s {
		if n == 0 {
			return s[:off]
		}
		n--
	}
	return s
}

func containsAll(s string, markers []string) bool {
	for _, m := range markers {
		if !strings.Contains(s, m) {
			return false
		}
	}
	return true
}
