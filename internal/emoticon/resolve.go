package emoticon

import (
	"strings"

	"github.com/rs/zerolog"
)

// MarkerMatch is a marker whose name was found in the catalog.
type MarkerMatch struct {
	Name string
	File string
	Path string
	URL  string // empty unless a URL prefix is configured
}

// Resolution is the outcome of one substitution pass.
type Resolution struct {
	Text       string        // input with resolved markers removed, trimmed
	Matches    []MarkerMatch // resolved markers in left-to-right order
	Unresolved []string      // names of markers left in Text
}

// Resolved reports whether at least one marker was recognized.
func (r Resolution) Resolved() bool {
	return len(r.Matches) > 0
}

// Resolve removes every marker naming a catalog entry from text and records it as a
// match. Markers with unknown names are logged and left in place.
func Resolve(text string, catalog *Catalog, settings Settings, syntax Syntax, logger zerolog.Logger) Resolution {
	var (
		res  Resolution
		out  strings.Builder
		last int
	)
	for m := range syntax.Scan(text) {
		entry, ok := catalog.Lookup(m.Name)
		if !ok {
			logger.Warn().Str("emoticon", m.Name).Msg("Emoticon not found")
			res.Unresolved = append(res.Unresolved, m.Name)
			continue
		}
		match := MarkerMatch{Name: entry.Name, File: entry.File, Path: entry.Path}
		if settings.URLPrefix != "" {
			match.URL = settings.URLPrefix + "/" + entry.File
		}
		res.Matches = append(res.Matches, match)

		out.WriteString(text[last:m.Start])
		last = m.End
		// "a %x% b" becomes "a b", not "a  b".
		if s := out.String(); len(s) > 0 && isBlank(s[len(s)-1]) && last < len(text) && isBlank(text[last]) {
			last++
		}
	}
	out.WriteString(text[last:])
	res.Text = strings.TrimSpace(out.String())
	return res
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t'
}
