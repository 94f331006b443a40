package brand

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/net/publicsuffix"
)

// legalSuffixes are dropped when comparing company names.
var legalSuffixes = map[string]bool{
	"inc": true, "incorporated": true, "llc": true, "ltd": true, "limited": true,
	"corp": true, "corporation": true, "co": true, "company": true, "gmbh": true,
	"plc": true, "sa": true, "ag": true, "bv": true,
}

// NormalizeName folds a company name into a comparison key:
// lower case, punctuation collapsed to spaces, legal suffixes removed.
func NormalizeName(name string) string {
	words := NameWords(name)
	for len(words) > 1 && legalSuffixes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// NameWords splits a name into lower-cased alphanumeric words.
func NameWords(name string) []string {
	return strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// IsLegalSuffix reports whether w is a corporate suffix like "inc".
func IsLegalSuffix(w string) bool {
	return legalSuffixes[strings.ToLower(w)]
}

// NormalizeURL adds an https scheme when missing and checks the result.
func NormalizeURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", fmt.Errorf("empty url")
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return "", err
	}
	if parsed.Hostname() == "" || !strings.Contains(parsed.Hostname(), ".") {
		return "", fmt.Errorf("invalid host in %q", raw)
	}
	return u, nil
}

// RegistrableDomain returns the eTLD+1 of a URL ("www.acme.co.uk" → "acme.co.uk").
func RegistrableDomain(rawURL string) string {
	u, err := NormalizeURL(rawURL)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(rawURL))
	}
	parsed, _ := url.Parse(u)
	host := strings.ToLower(parsed.Hostname())
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return strings.TrimPrefix(host, "www.")
	}
	return registrable
}

// DomainRoot returns the label left of the public suffix ("acme.co.uk" → "acme").
func DomainRoot(domain string) string {
	suffix, _ := publicsuffix.PublicSuffix(domain)
	root := strings.TrimSuffix(domain, "."+suffix)
	if i := strings.LastIndex(root, "."); i >= 0 {
		root = root[i+1:]
	}
	return root
}
