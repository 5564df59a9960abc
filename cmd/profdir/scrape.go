package main

import (
	"fmt"

	"github.com/fwojciec/profdir/scrape"
)

// Run executes the scrape command.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	sources := make([]scrape.Source, 0, len(c.URL))
	for _, u := range c.URL {
		sources = append(sources, scrape.Source{
			URL:        u,
			University: c.University,
			Department: c.Department,
		})
	}

	summary, err := deps.Pipeline.Run(deps.Ctx, sources)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	for _, src := range summary.Sources {
		if src.State == scrape.StateAborted {
			fmt.Fprintf(deps.Stderr, "  %s: aborted (%s)\n", src.Source.URL, src.AbortReason)
			continue
		}
		note := ""
		if src.Truncated {
			note = " (truncated)"
		}
		fmt.Fprintf(deps.Stdout, "  %s: %d links, %d profiles%s\n",
			src.Source.URL, src.LinksFound, src.Profiles, note)
	}

	fmt.Fprintf(deps.Stdout, "Found %d, junk %d, rejected %d, duplicates %d, existing %d\n",
		summary.Found, summary.Junk, summary.Rejected, summary.Deduplicated, summary.Existing)
	fmt.Fprintf(deps.Stdout, "Inserted %d new professors\n", summary.Inserted)

	return nil
}
