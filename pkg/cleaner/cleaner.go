// Package cleaner provides interfaces and implementations for transforming
// HTML documents mined from the corpus. Cleaners compose: a simplifier can
// feed a Markdown converter, and either can be swapped for a passthrough.
package cleaner

// Cleaner transforms HTML content into another representation.
// The output format depends on the implementation (simplified HTML, Markdown).
type Cleaner interface {
	// Clean transforms the input HTML.
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging.
	Name() string
}
