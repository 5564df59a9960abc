package profdir

import "context"

// Extractor turns page HTML into semi-structured extraction output.
// Link discovery and detail extraction are distinguishable operations with
// independent success and failure; both return the backend's raw textual
// output, which is not guaranteed to be well-formed. Parsing and validation
// happen downstream in ParseLinks and ParseDetails.
type Extractor interface {
	// DiscoverLinks extracts professor names and absolute profile URLs
	// from a faculty directory page.
	DiscoverLinks(ctx context.Context, html string) (string, error)

	// ExtractProfile extracts a professor's details from a profile page.
	ExtractProfile(ctx context.Context, html string) (string, error)
}
