// Package scrape provides the faculty-directory scraping pipeline.
// It drives the two-stage crawl-extract flow across directory sources,
// filters and deduplicates the extracted records, and persists them.
package scrape

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/fwojciec/profdir"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// State is the processing state of a single directory source.
type State string

// Source states. ABORTED is terminal and reachable from any state; an
// aborted source never prevents subsequent sources from starting.
const (
	StatePending        State = "PENDING"
	StateLinksFetched   State = "LINKS_FETCHED"
	StateDetailsFetched State = "DETAILS_FETCHED"
	StateDone           State = "DONE"
	StateAborted        State = "ABORTED"
)

// Source is one faculty-listing page to be crawled for profile links.
// University and Department, when set, fill those fields on extracted
// records that lack them.
type Source struct {
	URL        string
	University string
	Department string
}

// SourceOutcome reports what happened to a single source.
type SourceOutcome struct {
	Source      Source
	State       State
	AbortReason string
	LinksFound  int
	Truncated   bool
	Profiles    int
}

// Summary is the caller-visible result of a pipeline run: counts per
// failure category rather than raw errors.
type Summary struct {
	RunID        string
	Sources      []SourceOutcome
	Found        int
	Junk         int
	Rejected     int
	Deduplicated int
	Existing     int
	Inserted     int
}

// Pipeline orchestrates the two-stage scrape across directory sources.
// Sources are processed sequentially; profile pages within a source are
// fetched concurrently with a bounded in-flight count.
type Pipeline struct {
	Fetcher    profdir.Fetcher
	Extractor  profdir.Extractor
	Professors profdir.ProfessorService
	Audit      profdir.AuditWriter
	Limiter    *DomainLimiter
	Logger     *slog.Logger

	// Concurrency bounds in-flight profile extractions per source.
	Concurrency int

	// MaxProfiles caps profile URLs processed per source. When discovery
	// exceeds the cap, the first MaxProfiles links in discovery order are
	// kept and the truncation is logged.
	MaxProfiles int

	RetryDelays []time.Duration
}

// detailResult is the outcome of processing a single profile URL.
// Results are reassembled by position so the final record list preserves
// stage-1 discovery order even though fetches complete out of order.
type detailResult struct {
	position int
	url      string
	record   *profdir.ProfessorRecord
	err      error
}

// Run executes the pipeline over the given sources and returns the run
// summary. Failures below the configuration level are local: they abort a
// single source or skip a single record, never the run.
func (p *Pipeline) Run(ctx context.Context, sources []Source) (*Summary, error) {
	summary := &Summary{RunID: uuid.New().String()}
	logger := p.logger().With("run_id", summary.RunID)

	var all []*profdir.ProfessorRecord
	for _, src := range sources {
		outcome, records := p.runSource(ctx, src, logger)
		summary.Sources = append(summary.Sources, outcome)
		all = append(all, records...)
	}
	summary.Found = len(all)

	// Junk and plausibility filtering happen before deduplication so
	// identity keys are computed only on candidates worth keeping.
	kept := make([]*profdir.ProfessorRecord, 0, len(all))
	for _, rec := range all {
		if profdir.IsJunk(rec) {
			summary.Junk++
			continue
		}
		if !rec.Plausible() {
			summary.Rejected++
			continue
		}
		kept = append(kept, rec)
	}

	deduped := profdir.DedupeBatch(kept)
	summary.Deduplicated = len(kept) - len(deduped)

	// The audit file is regenerated every run, independent of store
	// success or failure.
	if p.Audit != nil {
		if err := p.Audit.WriteBatch(ctx, deduped); err != nil {
			logger.Error("audit write failed", "error", err)
		}
	}

	if len(deduped) == 0 {
		return summary, nil
	}

	emails := make([]string, 0, len(deduped))
	for _, rec := range deduped {
		emails = append(emails, rec.IdentityKey())
	}

	// One bulk lookup per run. If it fails the upsert still proceeds:
	// conflict handling makes it safe, only the existing count is lost.
	existing, err := p.Professors.LookupExistingEmails(ctx, emails)
	if err != nil {
		logger.Error("existing email lookup failed", "error", err)
		existing = map[string]struct{}{}
	}

	fresh := profdir.DedupeAgainstStore(deduped, existing)
	summary.Existing = len(deduped) - len(fresh)

	inserted, err := p.Professors.UpsertProfessors(ctx, fresh)
	if err != nil {
		logger.Error("upsert failed", "error", err, "inserted", inserted)
	}
	summary.Inserted = inserted

	logger.Info("run complete",
		"found", summary.Found,
		"junk", summary.Junk,
		"rejected", summary.Rejected,
		"deduplicated", summary.Deduplicated,
		"existing", summary.Existing,
		"inserted", summary.Inserted,
	)
	return summary, nil
}

// RunWithCap runs the pipeline with a per-run override of the profile cap.
// A maxProfiles of zero keeps the configured cap.
func (p *Pipeline) RunWithCap(ctx context.Context, sources []Source, maxProfiles int) (*Summary, error) {
	if maxProfiles <= 0 {
		return p.Run(ctx, sources)
	}
	capped := *p
	capped.MaxProfiles = maxProfiles
	return capped.Run(ctx, sources)
}

// runSource walks a single source through its state machine and returns
// its outcome together with the detail records it produced.
func (p *Pipeline) runSource(ctx context.Context, src Source, logger *slog.Logger) (SourceOutcome, []*profdir.ProfessorRecord) {
	outcome := SourceOutcome{Source: src, State: StatePending}
	logger = logger.With("source", src.URL)

	html, err := p.fetch(ctx, src.URL)
	if err != nil {
		return p.abort(outcome, logger, "directory fetch failed: "+err.Error())
	}

	raw, err := p.Extractor.DiscoverLinks(ctx, html)
	if err != nil {
		return p.abort(outcome, logger, "link extraction failed: "+err.Error())
	}

	links, skipped, err := profdir.ParseLinks(raw)
	if err != nil {
		return p.abort(outcome, logger, "link parsing failed: "+profdir.ErrorMessage(err))
	}
	if skipped > 0 {
		logger.Warn("skipped invalid profile links", "skipped", skipped)
	}
	if len(links) == 0 {
		return p.abort(outcome, logger, "no profile links discovered")
	}

	outcome.State = StateLinksFetched
	outcome.LinksFound = len(links)
	logger.Info("discovered profile links", "count", len(links))

	// Truncate before fan-out so capped links are never started.
	if max := p.maxProfiles(); len(links) > max {
		logger.Warn("truncating profile links", "found", len(links), "cap", max)
		links = links[:max]
		outcome.Truncated = true
	}

	results := p.fanOut(ctx, src, links)

	// Records without an email are kept here so the run summary counts
	// every extracted candidate; the junk filter removes them before
	// anything reaches persistence.
	var records []*profdir.ProfessorRecord
	for _, res := range results {
		if res.err != nil {
			logger.Warn("skipping profile", "url", res.url, "error", res.err)
			continue
		}
		if res.record.Email == "" {
			logger.Warn("profile without email", "url", res.url, "name", res.record.Name)
		}
		records = append(records, res.record)
	}
	if len(records) == 0 {
		return p.abort(outcome, logger, "no profile details extracted")
	}

	outcome.State = StateDetailsFetched
	outcome.Profiles = len(records)
	outcome.State = StateDone
	return outcome, records
}

// fanOut fetches and extracts profile pages concurrently, returning results
// ordered by discovery position.
func (p *Pipeline) fanOut(ctx context.Context, src Source, links []profdir.CandidateLink) []detailResult {
	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	resultCh := make(chan detailResult, len(links))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for i, link := range links {
			g.Go(func() error {
				resultCh <- p.processProfile(gctx, src, i, link)
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	results := make([]detailResult, len(links))
	for res := range resultCh {
		results[res.position] = res
	}
	return results
}

// processProfile fetches a single profile page and extracts its details.
func (p *Pipeline) processProfile(ctx context.Context, src Source, position int, link profdir.CandidateLink) detailResult {
	result := detailResult{position: position, url: link.ProfileURL}

	html, err := p.fetch(ctx, link.ProfileURL)
	if err != nil {
		result.err = err
		return result
	}

	raw, err := p.Extractor.ExtractProfile(ctx, html)
	if err != nil {
		result.err = err
		return result
	}

	record, err := profdir.ParseDetails(raw)
	if err != nil {
		result.err = err
		return result
	}
	record.Email = profdir.NormalizeEmail(record.Email)

	// Records inherit the source's university and department when the
	// profile page did not state them.
	if record.University == "" {
		record.University = src.University
	}
	if record.Department == "" {
		record.Department = src.Department
	}

	result.record = record
	return result
}

// fetch retrieves a URL with per-domain rate limiting and retry.
func (p *Pipeline) fetch(ctx context.Context, rawURL string) (string, error) {
	if p.Limiter != nil {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", err
		}
		if err := p.Limiter.Wait(ctx, u.Host); err != nil {
			return "", err
		}
	}

	delays := p.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	return FetchWithRetryDelays(ctx, rawURL, p.Fetcher.Fetch, nil, delays)
}

func (p *Pipeline) abort(outcome SourceOutcome, logger *slog.Logger, reason string) (SourceOutcome, []*profdir.ProfessorRecord) {
	outcome.State = StateAborted
	outcome.AbortReason = reason
	logger.Error("source aborted", "reason", reason)
	return outcome, nil
}

func (p *Pipeline) maxProfiles() int {
	if p.MaxProfiles > 0 {
		return p.MaxProfiles
	}
	return 50
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.New(slog.DiscardHandler)
}
