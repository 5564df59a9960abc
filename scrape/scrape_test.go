package scrape_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/profdir"
	"github.com/fwojciec/profdir/mock"
	"github.com/fwojciec/profdir/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// directoryJSON builds a link-discovery response for n profiles on host.
func directoryJSON(host string, n int) string {
	var sb strings.Builder
	sb.WriteString(`{"professors":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"name":"Prof %c X","profile_url":"https://%s/people/%d"}`, 'A'+i, host, i)
	}
	sb.WriteString(`]}`)
	return sb.String()
}

// profileJSON builds a detail-extraction response.
func profileJSON(name, email string) string {
	return fmt.Sprintf(`{"name":%q,"email":%q,"summary":"Research summary."}`, name, email)
}

func TestPipeline_Run(t *testing.T) {
	t.Parallel()

	t.Run("scrapes one source end to end", func(t *testing.T) {
		t.Parallel()

		var upserted []*profdir.ProfessorRecord
		var audited []*profdir.ProfessorRecord

		p := &scrape.Pipeline{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					return "<html>" + url + "</html>", nil
				},
			},
			Extractor: &mock.Extractor{
				DiscoverLinksFn: func(_ context.Context, _ string) (string, error) {
					return directoryJSON("u.edu", 2), nil
				},
				ExtractProfileFn: func(_ context.Context, html string) (string, error) {
					if strings.Contains(html, "/people/0") {
						return profileJSON("Alice Smith", "alice@u.edu"), nil
					}
					return profileJSON("Bob Jones", "bob@u.edu"), nil
				},
			},
			Professors: &mock.ProfessorService{
				LookupExistingEmailsFn: func(_ context.Context, emails []string) (map[string]struct{}, error) {
					assert.ElementsMatch(t, []string{"alice@u.edu", "bob@u.edu"}, emails)
					return map[string]struct{}{}, nil
				},
				UpsertProfessorsFn: func(_ context.Context, records []*profdir.ProfessorRecord) (int, error) {
					upserted = records
					return len(records), nil
				},
			},
			Audit: &mock.AuditWriter{
				WriteBatchFn: func(_ context.Context, records []*profdir.ProfessorRecord) error {
					audited = records
					return nil
				},
			},
			RetryDelays: []time.Duration{0},
		}

		summary, err := p.Run(context.Background(), []scrape.Source{{URL: "https://u.edu/faculty"}})

		require.NoError(t, err)
		require.Len(t, summary.Sources, 1)
		assert.Equal(t, scrape.StateDone, summary.Sources[0].State)
		assert.Equal(t, 2, summary.Sources[0].LinksFound)
		assert.Equal(t, 2, summary.Sources[0].Profiles)
		assert.Equal(t, 2, summary.Found)
		assert.Equal(t, 2, summary.Inserted)
		assert.NotEmpty(t, summary.RunID)
		require.Len(t, upserted, 2)
		assert.Equal(t, "alice@u.edu", upserted[0].Email)
		assert.Equal(t, "bob@u.edu", upserted[1].Email)
		assert.Len(t, audited, 2)
	})

	t.Run("failing source is aborted without stopping others", func(t *testing.T) {
		t.Parallel()

		p := &scrape.Pipeline{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					if strings.Contains(url, "down.edu") {
						return "", fmt.Errorf("connection refused")
					}
					return "<html>" + url + "</html>", nil
				},
			},
			Extractor: &mock.Extractor{
				DiscoverLinksFn: func(_ context.Context, _ string) (string, error) {
					return directoryJSON("up.edu", 1), nil
				},
				ExtractProfileFn: func(_ context.Context, _ string) (string, error) {
					return profileJSON("Alice Smith", "alice@up.edu"), nil
				},
			},
			Professors: &mock.ProfessorService{
				LookupExistingEmailsFn: func(_ context.Context, _ []string) (map[string]struct{}, error) {
					return map[string]struct{}{}, nil
				},
				UpsertProfessorsFn: func(_ context.Context, records []*profdir.ProfessorRecord) (int, error) {
					return len(records), nil
				},
			},
			RetryDelays: []time.Duration{0},
		}

		summary, err := p.Run(context.Background(), []scrape.Source{
			{URL: "https://down.edu/faculty"},
			{URL: "https://up.edu/faculty"},
		})

		require.NoError(t, err)
		require.Len(t, summary.Sources, 2)
		assert.Equal(t, scrape.StateAborted, summary.Sources[0].State)
		assert.Contains(t, summary.Sources[0].AbortReason, "directory fetch failed")
		assert.Equal(t, scrape.StateDone, summary.Sources[1].State)
		assert.Equal(t, 1, summary.Sources[1].Profiles)
		assert.Equal(t, 1, summary.Inserted)
	})

	t.Run("unparseable link output aborts the source", func(t *testing.T) {
		t.Parallel()

		p := &scrape.Pipeline{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					return "<html></html>", nil
				},
			},
			Extractor: &mock.Extractor{
				DiscoverLinksFn: func(_ context.Context, _ string) (string, error) {
					return "I could not find any professors, sorry!", nil
				},
			},
			Professors:  &mock.ProfessorService{},
			RetryDelays: []time.Duration{0},
		}

		summary, err := p.Run(context.Background(), []scrape.Source{{URL: "https://u.edu/faculty"}})

		require.NoError(t, err)
		assert.Equal(t, scrape.StateAborted, summary.Sources[0].State)
		assert.Contains(t, summary.Sources[0].AbortReason, "link parsing failed")
	})

	t.Run("profile cap truncates before fan-out", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		fetched := map[string]int{}

		p := &scrape.Pipeline{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					mu.Lock()
					fetched[url]++
					mu.Unlock()
					return "<html>" + url + "</html>", nil
				},
			},
			Extractor: &mock.Extractor{
				DiscoverLinksFn: func(_ context.Context, _ string) (string, error) {
					return directoryJSON("u.edu", 5), nil
				},
				ExtractProfileFn: func(_ context.Context, html string) (string, error) {
					for i := 0; i < 5; i++ {
						if strings.Contains(html, fmt.Sprintf("/people/%d", i)) {
							return profileJSON(fmt.Sprintf("Prof %c X", 'A'+i), fmt.Sprintf("p%d@u.edu", i)), nil
						}
					}
					return "", fmt.Errorf("unknown page")
				},
			},
			Professors: &mock.ProfessorService{
				LookupExistingEmailsFn: func(_ context.Context, _ []string) (map[string]struct{}, error) {
					return map[string]struct{}{}, nil
				},
				UpsertProfessorsFn: func(_ context.Context, records []*profdir.ProfessorRecord) (int, error) {
					return len(records), nil
				},
			},
			MaxProfiles: 2,
			RetryDelays: []time.Duration{0},
		}

		summary, err := p.Run(context.Background(), []scrape.Source{{URL: "https://u.edu/faculty"}})

		require.NoError(t, err)
		assert.True(t, summary.Sources[0].Truncated)
		assert.Equal(t, 5, summary.Sources[0].LinksFound)
		assert.Equal(t, 2, summary.Sources[0].Profiles)

		// Capped profile URLs are never started.
		assert.Zero(t, fetched["https://u.edu/people/2"])
		assert.Zero(t, fetched["https://u.edu/people/3"])
		assert.Zero(t, fetched["https://u.edu/people/4"])
	})

	t.Run("preserves discovery order under out-of-order completion", func(t *testing.T) {
		t.Parallel()

		var upserted []*profdir.ProfessorRecord

		p := &scrape.Pipeline{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					// Earlier URLs finish later.
					if strings.HasSuffix(url, "/0") {
						time.Sleep(30 * time.Millisecond)
					} else if strings.HasSuffix(url, "/1") {
						time.Sleep(15 * time.Millisecond)
					}
					return "<html>" + url + "</html>", nil
				},
			},
			Extractor: &mock.Extractor{
				DiscoverLinksFn: func(_ context.Context, _ string) (string, error) {
					return directoryJSON("u.edu", 3), nil
				},
				ExtractProfileFn: func(_ context.Context, html string) (string, error) {
					for i := 0; i < 3; i++ {
						if strings.Contains(html, fmt.Sprintf("/people/%d", i)) {
							return profileJSON(fmt.Sprintf("Prof %c X", 'A'+i), fmt.Sprintf("p%d@u.edu", i)), nil
						}
					}
					return "", fmt.Errorf("unknown page")
				},
			},
			Professors: &mock.ProfessorService{
				LookupExistingEmailsFn: func(_ context.Context, _ []string) (map[string]struct{}, error) {
					return map[string]struct{}{}, nil
				},
				UpsertProfessorsFn: func(_ context.Context, records []*profdir.ProfessorRecord) (int, error) {
					upserted = records
					return len(records), nil
				},
			},
			Concurrency: 3,
			RetryDelays: []time.Duration{0},
		}

		_, err := p.Run(context.Background(), []scrape.Source{{URL: "https://u.edu/faculty"}})

		require.NoError(t, err)
		require.Len(t, upserted, 3)
		assert.Equal(t, "p0@u.edu", upserted[0].Email)
		assert.Equal(t, "p1@u.edu", upserted[1].Email)
		assert.Equal(t, "p2@u.edu", upserted[2].Email)
	})

	t.Run("records without email never reach the store", func(t *testing.T) {
		t.Parallel()

		var upserted []*profdir.ProfessorRecord

		p := &scrape.Pipeline{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					return "<html>" + url + "</html>", nil
				},
			},
			Extractor: &mock.Extractor{
				DiscoverLinksFn: func(_ context.Context, _ string) (string, error) {
					return directoryJSON("u.edu", 2), nil
				},
				ExtractProfileFn: func(_ context.Context, html string) (string, error) {
					if strings.Contains(html, "/people/0") {
						return `{"name":"No Email Person"}`, nil
					}
					return profileJSON("Bob Jones", "bob@u.edu"), nil
				},
			},
			Professors: &mock.ProfessorService{
				LookupExistingEmailsFn: func(_ context.Context, _ []string) (map[string]struct{}, error) {
					return map[string]struct{}{}, nil
				},
				UpsertProfessorsFn: func(_ context.Context, records []*profdir.ProfessorRecord) (int, error) {
					upserted = records
					return len(records), nil
				},
			},
			RetryDelays: []time.Duration{0},
		}

		summary, err := p.Run(context.Background(), []scrape.Source{{URL: "https://u.edu/faculty"}})

		require.NoError(t, err)
		require.Len(t, upserted, 1)
		assert.Equal(t, "bob@u.edu", upserted[0].Email)
		assert.Equal(t, 1, summary.Inserted)

		// The email-less candidate still counts toward the totals even
		// though it never reaches the store.
		assert.Equal(t, 2, summary.Found)
		assert.Equal(t, 1, summary.Junk)
		assert.Equal(t, 2, summary.Sources[0].Profiles)
	})

	t.Run("filters junk and collapses duplicates before persistence", func(t *testing.T) {
		t.Parallel()

		var lookups int
		var upserted []*profdir.ProfessorRecord

		p := &scrape.Pipeline{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					return "<html>" + url + "</html>", nil
				},
			},
			Extractor: &mock.Extractor{
				DiscoverLinksFn: func(_ context.Context, _ string) (string, error) {
					return directoryJSON("u.edu", 4), nil
				},
				ExtractProfileFn: func(_ context.Context, html string) (string, error) {
					switch {
					case strings.Contains(html, "/people/0"):
						return profileJSON("Alice Smith", "alice@u.edu"), nil
					case strings.Contains(html, "/people/1"):
						// Placeholder email counted as junk.
						return profileJSON("Ghost Entry", "notfound@example.com"), nil
					case strings.Contains(html, "/people/2"):
						// Duplicate of Alice under different case.
						return profileJSON("Alice Smith", "Alice@U.EDU"), nil
					default:
						return profileJSON("Bob Jones", "bob@u.edu"), nil
					}
				},
			},
			Professors: &mock.ProfessorService{
				LookupExistingEmailsFn: func(_ context.Context, emails []string) (map[string]struct{}, error) {
					lookups++
					return map[string]struct{}{"bob@u.edu": {}}, nil
				},
				UpsertProfessorsFn: func(_ context.Context, records []*profdir.ProfessorRecord) (int, error) {
					upserted = records
					return len(records), nil
				},
			},
			RetryDelays: []time.Duration{0},
		}

		summary, err := p.Run(context.Background(), []scrape.Source{{URL: "https://u.edu/faculty"}})

		require.NoError(t, err)
		assert.Equal(t, 4, summary.Found)
		assert.Equal(t, 1, summary.Junk)
		assert.Equal(t, 1, summary.Deduplicated)
		assert.Equal(t, 1, summary.Existing)
		assert.Equal(t, 1, summary.Inserted)
		assert.Equal(t, 1, lookups, "existing emails must be looked up in one bulk query")
		require.Len(t, upserted, 1)
		assert.Equal(t, "alice@u.edu", upserted[0].Email)
	})

	t.Run("second run on unchanged source inserts nothing", func(t *testing.T) {
		t.Parallel()

		store := map[string]struct{}{}
		var auditWrites int

		p := &scrape.Pipeline{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					return "<html>" + url + "</html>", nil
				},
			},
			Extractor: &mock.Extractor{
				DiscoverLinksFn: func(_ context.Context, _ string) (string, error) {
					return directoryJSON("u.edu", 1), nil
				},
				ExtractProfileFn: func(_ context.Context, _ string) (string, error) {
					return profileJSON("Alice Smith", "alice@u.edu"), nil
				},
			},
			Professors: &mock.ProfessorService{
				LookupExistingEmailsFn: func(_ context.Context, emails []string) (map[string]struct{}, error) {
					out := map[string]struct{}{}
					for _, e := range emails {
						if _, ok := store[e]; ok {
							out[e] = struct{}{}
						}
					}
					return out, nil
				},
				UpsertProfessorsFn: func(_ context.Context, records []*profdir.ProfessorRecord) (int, error) {
					n := 0
					for _, r := range records {
						if _, ok := store[r.IdentityKey()]; !ok {
							store[r.IdentityKey()] = struct{}{}
							n++
						}
					}
					return n, nil
				},
			},
			Audit: &mock.AuditWriter{
				WriteBatchFn: func(_ context.Context, _ []*profdir.ProfessorRecord) error {
					auditWrites++
					return nil
				},
			},
			RetryDelays: []time.Duration{0},
		}

		sources := []scrape.Source{{URL: "https://u.edu/faculty"}}

		first, err := p.Run(context.Background(), sources)
		require.NoError(t, err)
		assert.Equal(t, 1, first.Inserted)

		second, err := p.Run(context.Background(), sources)
		require.NoError(t, err)
		assert.Equal(t, 0, second.Inserted)
		assert.Equal(t, 1, second.Existing)

		// The audit file is regenerated on both runs.
		assert.Equal(t, 2, auditWrites)
	})

	t.Run("source defaults fill missing university and department", func(t *testing.T) {
		t.Parallel()

		var upserted []*profdir.ProfessorRecord

		p := &scrape.Pipeline{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					return "<html>" + url + "</html>", nil
				},
			},
			Extractor: &mock.Extractor{
				DiscoverLinksFn: func(_ context.Context, _ string) (string, error) {
					return directoryJSON("u.edu", 1), nil
				},
				ExtractProfileFn: func(_ context.Context, _ string) (string, error) {
					return profileJSON("Alice Smith", "alice@u.edu"), nil
				},
			},
			Professors: &mock.ProfessorService{
				LookupExistingEmailsFn: func(_ context.Context, _ []string) (map[string]struct{}, error) {
					return map[string]struct{}{}, nil
				},
				UpsertProfessorsFn: func(_ context.Context, records []*profdir.ProfessorRecord) (int, error) {
					upserted = records
					return len(records), nil
				},
			},
			RetryDelays: []time.Duration{0},
		}

		_, err := p.Run(context.Background(), []scrape.Source{{
			URL:        "https://u.edu/faculty",
			University: "Carnegie Mellon University",
			Department: "Software and Societal Systems",
		}})

		require.NoError(t, err)
		require.Len(t, upserted, 1)
		assert.Equal(t, "Carnegie Mellon University", upserted[0].University)
		assert.Equal(t, "Software and Societal Systems", upserted[0].Department)
	})

	t.Run("lookup failure does not block the idempotent upsert", func(t *testing.T) {
		t.Parallel()

		var upserted []*profdir.ProfessorRecord

		p := &scrape.Pipeline{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					return "<html>" + url + "</html>", nil
				},
			},
			Extractor: &mock.Extractor{
				DiscoverLinksFn: func(_ context.Context, _ string) (string, error) {
					return directoryJSON("u.edu", 1), nil
				},
				ExtractProfileFn: func(_ context.Context, _ string) (string, error) {
					return profileJSON("Alice Smith", "alice@u.edu"), nil
				},
			},
			Professors: &mock.ProfessorService{
				LookupExistingEmailsFn: func(_ context.Context, _ []string) (map[string]struct{}, error) {
					return nil, fmt.Errorf("store unavailable")
				},
				UpsertProfessorsFn: func(_ context.Context, records []*profdir.ProfessorRecord) (int, error) {
					upserted = records
					return len(records), nil
				},
			},
			RetryDelays: []time.Duration{0},
		}

		summary, err := p.Run(context.Background(), []scrape.Source{{URL: "https://u.edu/faculty"}})

		require.NoError(t, err)
		assert.Len(t, upserted, 1)
		assert.Equal(t, 1, summary.Inserted)
	})
}
