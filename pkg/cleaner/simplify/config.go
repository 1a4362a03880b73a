// Package simplify strips HTML down to the minimum that still renders to the
// same Markdown. It removes presentational wrappers and attributes, records
// what it could not classify, and verifies the result against a reference
// Markdown rendering.
package simplify

// Config lists the element and attribute names each phase acts on.
// Names are lower-case HTML names.
type Config struct {
	// === Phase 1: applied before the reference Markdown is rendered ===

	// DeleteElements are removed together with their content.
	DeleteElements []string `json:"delete_elements" mapstructure:"delete_elements"`

	// DeleteAttributes are removed from every element.
	DeleteAttributes []string `json:"delete_attributes" mapstructure:"delete_attributes"`

	// === Phase 2: must not change the Markdown rendering ===

	// RemoveElements are dropped outright. They carry no renderable text.
	RemoveElements []string `json:"remove_elements" mapstructure:"remove_elements"`

	// UnwrapElements are replaced by their children.
	UnwrapElements []string `json:"unwrap_elements" mapstructure:"unwrap_elements"`

	// IgnoreAttributes are dropped from surviving elements.
	IgnoreAttributes []string `json:"ignore_attributes" mapstructure:"ignore_attributes"`

	// KeepAttributes survive untouched. Anything not listed here or in
	// IgnoreAttributes is kept but reported as unknown.
	KeepAttributes []string `json:"keep_attributes" mapstructure:"keep_attributes"`

	// Verify renders the simplified document and compares it with the
	// reference rendering.
	Verify bool `json:"verify" mapstructure:"verify"`
}

// DefaultConfig returns the lists used by the simplify command.
func DefaultConfig() *Config {
	return &Config{
		DeleteElements:   []string{"object", "samp", "nav", "meta", "figure"},
		DeleteAttributes: []string{"title", "alt", "nav"},
		RemoveElements:   []string{"area", "link", "br", "map"},
		UnwrapElements: []string{
			"div", "section", "span", "main", "article", "nav",
			"sup", "sub", "u", "map", "object",
		},
		IgnoreAttributes: []string{
			"class", "id", "lang", "style", "dir", "border", "compact",
			"shape", "name", "usemap", "target", "data", "rel", "role",
			"headers", "height", "width",
		},
		KeepAttributes: []string{"charset", "href", "src", "type"},
		Verify:         true,
	}
}

type nameSet map[string]struct{}

func newNameSet(names []string) nameSet {
	s := make(nameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s nameSet) has(name string) bool {
	_, ok := s[name]
	return ok
}
