package profdir

import (
	"regexp"
	"strings"
	"unicode"
)

// emailPattern is a conservative address check: local part, @, domain
// labels, and an alphabetic TLD of at least two letters. It is meant to
// reject extraction garbage, not to implement RFC 5322.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// placeholderDomains are domains that only ever appear in synthetic
// addresses invented by the extraction model.
var placeholderDomains = map[string]struct{}{
	"example.com":     {},
	"test.com":        {},
	"fake.com":        {},
	"dummy.com":       {},
	"placeholder.com": {},
	"sample.com":      {},
	"lorem.ipsum":     {},
}

// genericNames are lower-cased name strings that are role labels or
// sentinel values rather than people. Directory pages frequently carry
// section headers that the extraction model mistakes for names.
var genericNames = map[string]struct{}{
	"test":            {},
	"example":         {},
	"sample":          {},
	"dummy":           {},
	"fake":            {},
	"john doe":        {},
	"unknown":         {},
	"n/a":             {},
	"anonymous":       {},
	"staff":           {},
	"faculty":         {},
	"professor":       {},
	"lecturer":        {},
	"researcher":      {},
	"sc phd students": {},
	"se phd students": {},
}

// IsPlausibleEmail reports whether s looks like a real person's email
// address. It rejects placeholder domains, short or purely numeric local
// parts, and anything failing a conservative syntax check.
func IsPlausibleEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || !emailPattern.MatchString(s) {
		return false
	}

	local, domain, _ := strings.Cut(s, "@")
	if len(local) < 2 || isNumeric(local) {
		return false
	}
	if _, ok := placeholderDomains[strings.ToLower(domain)]; ok {
		return false
	}
	return true
}

// IsPlausibleName reports whether s looks like a real person's full name.
// Single-token entries are rejected: directories frequently mis-extract
// role labels ("Faculty", "Staff") as names.
func IsPlausibleName(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 || !containsLetter(s) {
		return false
	}
	if _, ok := genericNames[strings.ToLower(s)]; ok {
		return false
	}

	tokens := strings.Fields(s)
	if len(tokens) < 2 {
		return false
	}
	for _, tok := range tokens {
		if !containsLetter(tok) || isNumeric(tok) {
			return false
		}
	}
	return true
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
