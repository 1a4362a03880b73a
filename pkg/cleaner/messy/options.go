// Package messy renders HTML as deliberately inconsistent Markdown. Each
// document gets a randomly drawn set of rendering choices so that a corpus
// of outputs covers the many ways people actually write Markdown.
package messy

import (
	"fmt"
	"math/rand"
	"sync/atomic"
)

// HeadingStyle selects how headings are written.
type HeadingStyle string

const (
	HeadingATX       HeadingStyle = "atx"        // # Title
	HeadingATXClosed HeadingStyle = "atx_closed" // # Title #
	HeadingSetext    HeadingStyle = "setext"     // Title\n=====
)

// StandardBlockquote marks plain "> " blockquotes.
const StandardBlockquote = ""

var (
	bulletChoices     = []string{"*", "+", "-", "--", "**", "++", "-*", "+*", "*-", "**-", "++-"}
	headingChoices    = []HeadingStyle{HeadingATX, HeadingATXClosed, HeadingSetext, HeadingSetext}
	emphasisChoices   = []string{"*", "_", "~"}
	subChoices        = []string{"~", "_"}
	blockquoteChoices = []string{
		">", ">>", "    ", "  ",
		StandardBlockquote, StandardBlockquote, StandardBlockquote, StandardBlockquote, StandardBlockquote,
	}
	fenceChoices = []string{"```", "~~~"}
	ruleChoices  = []string{"***", "---", "___"}
)

// Options are the rendering choices for one document.
type Options struct {
	Seed int64 `json:"seed"`

	Autolinks         bool         `json:"autolinks"`
	Bullets           string       `json:"bullets"`
	DefaultTitle      bool         `json:"default_title"`
	EscapeAsterisks   bool         `json:"escape_asterisks"`
	EscapeUnderscores bool         `json:"escape_underscores"`
	HeadingStyle      HeadingStyle `json:"heading_style"`
	StrongEmSymbol    string       `json:"strong_em_symbol"`
	Wrap              bool         `json:"wrap"`
	WrapWidth         int          `json:"wrap_width"`
	SubSymbol         string       `json:"sub_symbol"`
	SupSymbol         string       `json:"sup_symbol"`
	CapitalizeBold    bool         `json:"capitalize_bold"`
	BlockquoteStyle   string       `json:"blockquote_style"`
	CodeFence         string       `json:"code_fence"`
	HorizontalRule    string       `json:"horizontal_rule"`
}

// Draw returns the options produced by seed. The same seed always yields
// the same options.
func Draw(seed int64) Options {
	r := rand.New(rand.NewSource(seed)) //#nosec G404

	return Options{
		Seed:              seed,
		Autolinks:         r.Intn(2) == 0,
		Bullets:           pick(r, bulletChoices),
		DefaultTitle:      r.Intn(2) == 0,
		EscapeAsterisks:   r.Intn(2) == 0,
		EscapeUnderscores: r.Intn(2) == 0,
		HeadingStyle:      pick(r, headingChoices),
		StrongEmSymbol:    pick(r, emphasisChoices),
		WrapWidth:         40 + r.Intn(81),
		Wrap:              r.Intn(2) == 0,
		SubSymbol:         pick(r, subChoices),
		SupSymbol:         "^",
		CapitalizeBold:    r.Intn(2) == 0,
		BlockquoteStyle:   pick(r, blockquoteChoices),
		CodeFence:         pick(r, fenceChoices),
		HorizontalRule:    pick(r, ruleChoices),
	}
}

func pick[T any](r *rand.Rand, choices []T) T {
	return choices[r.Intn(len(choices))]
}

// BulletMarker is the list marker used for top-level items. Multi-character
// bullet strings contribute their first character.
func (o Options) BulletMarker() string {
	if o.Bullets == "" {
		return "-"
	}
	return o.Bullets[:1]
}

// Escaping reports whether Markdown-significant characters are escaped.
func (o Options) Escaping() bool {
	return o.EscapeAsterisks || o.EscapeUnderscores
}

// String summarizes the options for logging.
func (o Options) String() string {
	bq := o.BlockquoteStyle
	if bq == StandardBlockquote {
		bq = "standard"
	}
	return fmt.Sprintf("seed=%d heading=%s emphasis=%q bullets=%q blockquote=%q wrap=%v/%d",
		o.Seed, o.HeadingStyle, o.StrongEmSymbol, o.BulletMarker(), bq, o.Wrap, o.WrapWidth)
}

var counter atomic.Int64

// NextSeed returns the next per-process seed: 1, 2, 3, ...
func NextSeed() int64 {
	return counter.Add(1)
}
