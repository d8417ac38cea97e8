// Package phrase compiles spoken command phrases into anchored, case-insensitive matchers.
//
// A phrase supports three kinds of placeholders:
//
//	:name    captures exactly one whitespace-delimited word
//	*rest    captures any text, intended for the end of the phrase
//	(words)  marks words that may or may not be said
//
// For example "say hello (to my little) friend" matches both "say hello friend"
// and "say hello to my little friend". Only one splat per phrase, and no splat
// inside an optional segment, is supported.
package phrase

import (
	"fmt"
	"regexp"
)

var (
	escapeRegexp   = regexp.MustCompile(`[-{}\[\]+?.,\\^$|#]`)
	optionalParam  = regexp.MustCompile(`\s*\((.*?)\)\s*`)
	optionalRegexp = regexp.MustCompile(`(\(\?:[^)]+\))\?`)
	namedParam     = regexp.MustCompile(`(\(\?)?:\w+`)
	splatParam     = regexp.MustCompile(`\*\w+`)
)

// Pattern is a compiled phrase.
type Pattern struct {
	phrase string
	re     *regexp.Regexp
}

// Compile converts a phrase into a Pattern.
// An error is returned only when the rewritten expression is rejected by the
// regexp engine, for example on unbalanced parentheses.
func Compile(phrase string) (*Pattern, error) {
	re, err := regexp.Compile(ToRegexp(phrase))
	if err != nil {
		return nil, fmt.Errorf("failed to compile phrase %q: %w", phrase, err)
	}
	return &Pattern{phrase: phrase, re: re}, nil
}

// MustCompile is like Compile but panics if the phrase cannot be compiled.
func MustCompile(phrase string) *Pattern {
	p, err := Compile(phrase)
	if err != nil {
		panic(err)
	}
	return p
}

// FromRegexp wraps a custom expression under the given phrase text.
// The expression is recompiled case-insensitively; anchoring is left to the caller.
func FromRegexp(phrase string, re *regexp.Regexp) (*Pattern, error) {
	if re == nil {
		return nil, fmt.Errorf("no expression supplied for phrase %q", phrase)
	}
	compiled, err := regexp.Compile("(?i)" + re.String())
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression for phrase %q: %w", phrase, err)
	}
	return &Pattern{phrase: phrase, re: compiled}, nil
}

// ToRegexp returns the expression source Compile would use for phrase.
func ToRegexp(phrase string) string {
	expr := escapeRegexp.ReplaceAllString(phrase, `\$0`)
	expr = optionalParam.ReplaceAllString(expr, `(?:${1})?`)
	expr = namedParam.ReplaceAllStringFunc(expr, func(match string) string {
		// ":" directly after "(?" belongs to a non-capturing group from the optional pass
		if len(match) >= 2 && match[:2] == "(?" {
			return match
		}
		return `([^\s]+)`
	})
	expr = splatParam.ReplaceAllString(expr, `(.*?)`)
	expr = optionalRegexp.ReplaceAllString(expr, `\s*${1}?\s*`)
	return "(?i)^" + expr + "$"
}

// Match tests text against the pattern and returns the captured values in order.
// Optional captures that did not participate are returned as empty strings.
func (p *Pattern) Match(text string) ([]string, bool) {
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return m[1:], true
}

// Phrase returns the original phrase text, which is also the pattern's identity.
func (p *Pattern) Phrase() string {
	return p.phrase
}

// Regexp returns the compiled expression.
func (p *Pattern) Regexp() *regexp.Regexp {
	return p.re
}

func (p *Pattern) String() string {
	return p.phrase
}
