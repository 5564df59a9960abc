package profdir

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
)

// CandidateLink is a professor profile link discovered on a directory page.
// Links are ephemeral: they exist only to drive the detail-extraction stage.
type CandidateLink struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
}

// Validate returns an error if the link cannot be used for crawling.
// ProfileURL must be a well-formed absolute http(s) URL.
func (l *CandidateLink) Validate() error {
	if l.ProfileURL == "" {
		return Errorf(EINVALID, "profile URL required")
	}
	u, err := url.Parse(l.ProfileURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Errorf(EINVALID, "profile URL %q is not absolute", l.ProfileURL)
	}
	return nil
}

// ProfessorRecord is an extracted professor entry. Records are mutated only
// during parsing and normalization; once they enter the persistence stage
// they are immutable. The identity key for dedup and storage conflict
// resolution is the normalized email.
type ProfessorRecord struct {
	Name           string     `json:"name"`
	Email          string     `json:"email,omitempty"`
	University     string     `json:"university,omitempty"`
	Department     string     `json:"department,omitempty"`
	ResearchTopics TopicsList `json:"research_topics,omitempty"`
	Summary        string     `json:"summary,omitempty"`
}

// Validate returns an error if the record is structurally unusable.
// Plausibility and junk checks happen later in the pipeline; here an empty
// email is allowed because records without one are excluded from
// persistence downstream.
func (r *ProfessorRecord) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return Errorf(EINVALID, "professor name required")
	}
	return nil
}

// Plausible reports whether the record passes the name and email
// plausibility predicates. Records reaching this check always carry an
// email.
func (r *ProfessorRecord) Plausible() bool {
	return IsPlausibleName(r.Name) && IsPlausibleEmail(r.Email)
}

// IdentityKey returns the normalized email used for deduplication and
// storage conflict resolution, or the empty string if the record has none.
func (r *ProfessorRecord) IdentityKey() string {
	return NormalizeEmail(r.Email)
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TopicsList is an ordered list of research topics. Extraction output is
// inconsistent about the field's shape, so it unmarshals from either a JSON
// array of strings or a single comma-joined string.
type TopicsList []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *TopicsList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return Errorf(EINVALID, "research topics must be a list or a string")
	}
	*t = nil
	for _, topic := range strings.Split(joined, ",") {
		if topic = strings.TrimSpace(topic); topic != "" {
			*t = append(*t, topic)
		}
	}
	return nil
}

// ProfessorService is the persistence adapter consumed by the pipeline.
// Implementations must make UpsertProfessors idempotent: re-running the
// pipeline on an unchanged source creates no duplicate rows.
type ProfessorService interface {
	// LookupExistingEmails returns the subset of the given normalized
	// emails already present in the store. Implementations must answer
	// with a single bulk query.
	LookupExistingEmails(ctx context.Context, emails []string) (map[string]struct{}, error)

	// UpsertProfessors inserts or updates records keyed by normalized
	// email and returns the count of rows actually newly created.
	// Per-record failures are skipped, not fatal.
	UpsertProfessors(ctx context.Context, records []*ProfessorRecord) (int, error)
}

// AuditWriter persists the full validated record batch as a local audit
// trail, independent of store success or failure.
type AuditWriter interface {
	WriteBatch(ctx context.Context, records []*ProfessorRecord) error
}
