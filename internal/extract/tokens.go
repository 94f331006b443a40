package extract

import (
	"unicode"
	"unicode/utf8"
)

// token is one word of lower-cased text with its byte span.
type token struct {
	text       string
	start, end int
}

// tokenize splits s into runs of letters and digits. An apostrophe between
// letters stays inside the word, so "acme's" and "isn't" are single tokens.
func tokenize(s string) []token {
	var out []token
	start := -1
	for i, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if start < 0 {
				start = i
			}
		case start >= 0 && isApostrophe(r) && letterAt(s, i+utf8.RuneLen(r)):
			// keep going
		default:
			if start >= 0 {
				out = append(out, token{text: s[start:i], start: start, end: i})
				start = -1
			}
		}
	}
	if start >= 0 {
		out = append(out, token{text: s[start:], start: start, end: len(s)})
	}
	return out
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’'
}

func letterAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r)
}

func words(s string) []string {
	toks := tokenize(s)
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.text
	}
	return out
}
