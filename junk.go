package profdir

import "strings"

// placeholderNames are sentinel name values emitted when a directory entry
// is a section header rather than a person. Recovered from observed
// extraction output.
var placeholderNames = map[string]struct{}{
	"N/A":             {},
	"Not Found":       {},
	"Faculty":         {},
	"Staff":           {},
	"Visitors":        {},
	"SC PhD Students": {},
	"SE PhD Students": {},
}

// placeholderEmails are synthetic "not found" addresses the extraction
// model invents when a page has no contact information.
var placeholderEmails = map[string]struct{}{
	"N/A":                         {},
	"unknown":                     {},
	"unknown@example.com":         {},
	"notfound@example.com":        {},
	"not_found@example.com":       {},
	"null@example.com":            {},
	"faculty@example.com":         {},
	"staff@example.com":           {},
	"visitors@example.com":        {},
	"sc_phd_students@example.com": {},
	"se_phd_students@example.com": {},
}

// errorPageMarkers are summary fragments indicating the crawler retrieved
// an error page body instead of a profile.
var errorPageMarkers = []string{"not found", "page not found", "content not found"}

// IsJunk reports whether a record is a syntactically valid but semantically
// meaningless extraction result: a placeholder name or email, an unusable
// email, or a summary describing an error page. Junk is filtered before
// deduplication so identity keys are only computed for candidates worth
// keeping.
func IsJunk(r *ProfessorRecord) bool {
	name := strings.TrimSpace(r.Name)
	email := strings.TrimSpace(r.Email)

	if _, ok := placeholderNames[name]; ok {
		return true
	}
	if _, ok := placeholderEmails[email]; ok {
		return true
	}
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "N/A") {
		return true
	}

	summary := strings.ToLower(r.Summary)
	for _, marker := range errorPageMarkers {
		if strings.Contains(summary, marker) {
			return true
		}
	}
	return false
}
