package shopping

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// UnknownSource is the grouping bucket for ingredients without a
// supplier label.
const UnknownSource = "unknown source"

// Alias folds variant supplier spellings into one canonical grouping key
// and carries the label shown to the user. The display label never
// affects grouping.
type Alias struct {
	Display  string
	Variants []string
}

// DefaultAliases covers the supplier spellings the household actually
// uses. Keys and variants are matched after normalization.
var DefaultAliases = []Alias{
	{Display: "Co.op Mart", Variants: []string{"co.op mart", "co.opmart", "coopmart", "coop mart"}},
	{Display: "Bách Hóa Xanh", Variants: []string{"bach hoa xanh", "bhx"}},
}

// Normalizer canonicalizes free-text supplier labels so that spelling
// variants group together.
type Normalizer struct {
	canonical map[string]string // normalized variant -> canonical key
	display   map[string]string // canonical key -> display label
}

// NewNormalizer builds a Normalizer with the given alias table; pass nil
// to use DefaultAliases.
func NewNormalizer(aliases []Alias) *Normalizer {
	if aliases == nil {
		aliases = DefaultAliases
	}
	n := &Normalizer{
		canonical: make(map[string]string),
		display:   make(map[string]string),
	}
	for _, alias := range aliases {
		key := normalizeLabel(alias.Display)
		n.display[key] = alias.Display
		n.canonical[key] = key
		for _, v := range alias.Variants {
			n.canonical[normalizeLabel(v)] = key
		}
	}
	return n
}

// Key returns the grouping key for a supplier label: the normalized form,
// folded through the alias table. Empty labels map to UnknownSource.
// Key is idempotent: Key(Key(x)) == Key(x).
func (n *Normalizer) Key(label string) string {
	base := normalizeLabel(label)
	if base == "" {
		return UnknownSource
	}
	if canon, ok := n.canonical[base]; ok {
		return canon
	}
	return base
}

// Display returns the preferred display label for a grouping key, or the
// key itself when no alias defines one.
func (n *Normalizer) Display(key string) string {
	if d, ok := n.display[key]; ok {
		return d
	}
	return key
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeLabel applies, in order: canonical composition, lowercasing,
// whitespace-run collapsing with trim, and diacritic stripping.
func normalizeLabel(label string) string {
	s := norm.NFC.String(label)
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	if stripped, _, err := transform.String(stripMarks, s); err == nil {
		s = stripped
	}
	return s
}
