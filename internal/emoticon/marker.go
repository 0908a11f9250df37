package emoticon

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrUnknownSyntax is returned by ParseSyntax for unrecognized marker styles.
var ErrUnknownSyntax = errors.New("unknown marker syntax")

// Syntax is a marker delimiter style.
type Syntax int

const (
	SyntaxPercent Syntax = iota // %name%
	SyntaxBracket               // [:name]
)

// ParseSyntax maps "percent" and "bracket" to a Syntax.
func ParseSyntax(s string) (Syntax, error) {
	switch strings.ToLower(s) {
	case "", "percent":
		return SyntaxPercent, nil
	case "bracket":
		return SyntaxBracket, nil
	default:
		return SyntaxPercent, fmt.Errorf("%w: %q (want percent or bracket)", ErrUnknownSyntax, s)
	}
}

func (s Syntax) String() string {
	if s == SyntaxBracket {
		return "bracket"
	}
	return "percent"
}

func (s Syntax) delimiters() (open, close string) {
	if s == SyntaxBracket {
		return "[:", "]"
	}
	return "%", "%"
}

// Format renders name as a marker, e.g. Format("smile") == "%smile%".
func (s Syntax) Format(name string) string {
	open, close := s.delimiters()
	return open + name + close
}

// Match is one marker occurrence; text[Start:End] is the whole marker.
type Match struct {
	Start int
	End   int
	Name  string
}

// isNameRune reports whether r may appear in a marker name: letters, digits,
// underscore, and CJK unified ideographs.
func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || (r >= 0x4E00 && r <= 0x9FFF)
}

// Scan yields the non-overlapping markers in text from left to right. After a match,
// scanning resumes at its end; after a failed candidate, at the next character.
func (s Syntax) Scan(text string) iter.Seq[Match] {
	open, close := s.delimiters()
	return func(yield func(Match) bool) {
		i := 0
		for i < len(text) {
			k := strings.Index(text[i:], open)
			if k < 0 {
				return
			}
			start := i + k
			nameStart := start + len(open)
			j := nameStart
			for j < len(text) {
				r, size := utf8.DecodeRuneInString(text[j:])
				if !isNameRune(r) {
					break
				}
				j += size
			}
			if j > nameStart && strings.HasPrefix(text[j:], close) {
				end := j + len(close)
				if !yield(Match{Start: start, End: end, Name: text[nameStart:j]}) {
					return
				}
				i = end
				continue
			}
			_, size := utf8.DecodeRuneInString(text[start:])
			i = start + size
		}
	}
}
