package main

import (
	"github.com/fwojciec/profdir"
	profhttp "github.com/fwojciec/profdir/http"
	"github.com/fwojciec/profdir/rod"
)

// NewPageFetcher selects the page fetcher implementation: a headless
// browser by default, plain HTTP when noBrowser is set. The HTTP fetcher
// suits static directories that need no JavaScript rendering and requires
// no Chrome install.
func NewPageFetcher(noBrowser bool) (profdir.Fetcher, error) {
	if noBrowser {
		return profhttp.NewFetcher(), nil
	}
	return rod.NewFetcher()
}
