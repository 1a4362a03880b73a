package simplify

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrChanged is returned when simplification altered the Markdown rendering.
var ErrChanged = errors.New("simplified markdown differs from reference")

// Stats captures what the simplifier did to one or more documents.
type Stats struct {
	InputBytes  int `json:"input_bytes"`
	OutputBytes int `json:"output_bytes"`

	ElementsRemoved   map[string]int `json:"elements_removed"`   // tag -> count
	ElementsUnwrapped map[string]int `json:"elements_unwrapped"` // tag -> count
	Elements          map[string]int `json:"elements"`           // surviving tags
	UnknownAttributes map[string]int `json:"unknown_attributes"` // "tag.attr" -> count

	AttributesRemoved int `json:"attributes_removed"`

	ParseDuration     time.Duration `json:"parse_duration_ms"`
	TransformDuration time.Duration `json:"transform_duration_ms"`
	VerifyDuration    time.Duration `json:"verify_duration_ms"`
	TotalDuration     time.Duration `json:"total_duration_ms"`
}

// NewStats creates a new Stats instance with initialized maps.
func NewStats() *Stats {
	return &Stats{
		ElementsRemoved:   make(map[string]int),
		ElementsUnwrapped: make(map[string]int),
		Elements:          make(map[string]int),
		UnknownAttributes: make(map[string]int),
	}
}

// ReductionPercent returns the percentage reduction in size.
func (s *Stats) ReductionPercent() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return float64(s.InputBytes-s.OutputBytes) / float64(s.InputBytes) * 100
}

// TotalElementsRemoved returns the sum of all removed elements.
func (s *Stats) TotalElementsRemoved() int {
	total := 0
	for _, count := range s.ElementsRemoved {
		total += count
	}
	return total
}

// RecordRemoval records that an element was removed.
func (s *Stats) RecordRemoval(tag string) {
	s.ElementsRemoved[strings.ToLower(tag)]++
}

// RecordUnwrap records that an element was replaced by its children.
func (s *Stats) RecordUnwrap(tag string) {
	s.ElementsUnwrapped[strings.ToLower(tag)]++
}

// RecordElement records a surviving element.
func (s *Stats) RecordElement(tag string) {
	s.Elements[strings.ToLower(tag)]++
}

// RecordUnknown records an attribute that is neither kept nor ignored.
func (s *Stats) RecordUnknown(tag, attr string) {
	s.UnknownAttributes[strings.ToLower(tag)+"."+strings.ToLower(attr)]++
}

// Merge adds other's counters into s. Used to aggregate a directory run.
func (s *Stats) Merge(other *Stats) {
	if other == nil {
		return
	}
	s.InputBytes += other.InputBytes
	s.OutputBytes += other.OutputBytes
	s.AttributesRemoved += other.AttributesRemoved
	mergeCounts(s.ElementsRemoved, other.ElementsRemoved)
	mergeCounts(s.ElementsUnwrapped, other.ElementsUnwrapped)
	mergeCounts(s.Elements, other.Elements)
	mergeCounts(s.UnknownAttributes, other.UnknownAttributes)
	s.ParseDuration += other.ParseDuration
	s.TransformDuration += other.TransformDuration
	s.VerifyDuration += other.VerifyDuration
	s.TotalDuration += other.TotalDuration
}

func mergeCounts(dst, src map[string]int) {
	for k, v := range src {
		dst[k] += v
	}
}

// SortedKeys returns the keys of a counter map in lexical order.
func SortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Size: %d -> %d bytes (%.1f%% reduction)\n",
		s.InputBytes, s.OutputBytes, s.ReductionPercent())
	fmt.Fprintf(&sb, "Elements: %d removed, %d unwrapped, %d kept\n",
		s.TotalElementsRemoved(), sum(s.ElementsUnwrapped), sum(s.Elements))

	if len(s.Elements) > 0 {
		sb.WriteString("Elements seen: ")
		sb.WriteString(strings.Join(SortedKeys(s.Elements), " "))
		sb.WriteString("\n")
	}
	if len(s.UnknownAttributes) > 0 {
		sb.WriteString("Unknown attributes: ")
		sb.WriteString(strings.Join(SortedKeys(s.UnknownAttributes), " "))
		sb.WriteString("\n")
	}
	if s.AttributesRemoved > 0 {
		fmt.Fprintf(&sb, "Attributes removed: %d\n", s.AttributesRemoved)
	}

	fmt.Fprintf(&sb, "Timing: parse=%v, transform=%v, verify=%v, total=%v\n",
		s.ParseDuration.Round(time.Millisecond),
		s.TransformDuration.Round(time.Millisecond),
		s.VerifyDuration.Round(time.Millisecond),
		s.TotalDuration.Round(time.Millisecond))

	return sb.String()
}

func sum(m map[string]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

// Warning represents a non-fatal issue encountered during simplification.
type Warning struct {
	Phase   string `json:"phase"`   // "parse", "reference", "transform", "verify"
	Message string `json:"message"`
	Context string `json:"context"`
}

// String returns a formatted warning message.
func (w Warning) String() string {
	if w.Context != "" {
		return fmt.Sprintf("[%s] %s (context: %s)", w.Phase, w.Message, w.Context)
	}
	return fmt.Sprintf("[%s] %s", w.Phase, w.Message)
}

// Result contains the output of one simplification.
type Result struct {
	// Content is the simplified HTML. On parse errors it is the original input.
	Content string `json:"content"`

	// Reference is the Markdown rendering after phase 1.
	Reference string `json:"reference,omitempty"`

	// Simplified is the Markdown rendering of Content, set when verifying.
	Simplified string `json:"simplified,omitempty"`

	// Diff is a line diff from Reference to Simplified when they differ.
	Diff string `json:"diff,omitempty"`

	Stats    *Stats    `json:"stats"`
	Warnings []Warning `json:"warnings,omitempty"`

	// Error wraps ErrChanged when verification failed. Content is still set.
	Error error `json:"-"`
}

// AddWarning adds a warning to the result.
func (r *Result) AddWarning(phase, message, context string) {
	r.Warnings = append(r.Warnings, Warning{
		Phase:   phase,
		Message: message,
		Context: context,
	})
}

// HasWarnings returns true if any warnings were recorded.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}
