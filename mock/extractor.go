package mock

import (
	"context"

	"github.com/fwojciec/profdir"
)

var _ profdir.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of profdir.Extractor.
type Extractor struct {
	DiscoverLinksFn  func(ctx context.Context, html string) (string, error)
	ExtractProfileFn func(ctx context.Context, html string) (string, error)
}

func (e *Extractor) DiscoverLinks(ctx context.Context, html string) (string, error) {
	return e.DiscoverLinksFn(ctx, html)
}

func (e *Extractor) ExtractProfile(ctx context.Context, html string) (string, error) {
	return e.ExtractProfileFn(ctx, html)
}
