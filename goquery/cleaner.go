// Package goquery provides HTML cleaning for extraction prompts.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/profdir"
)

// Ensure Cleaner implements profdir.Cleaner at compile time.
var _ profdir.Cleaner = (*Cleaner)(nil)

// Cleaner strips markup that inflates extraction token counts without
// carrying information: scripts, styles, embedded media, and the head
// section. Anchors and visible text are preserved; link discovery depends
// on href attributes and contact details often live in sidebars, so no
// main-content heuristics are applied.
type Cleaner struct{}

// NewCleaner creates a new Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// removeSelectors are element types that never contribute to extraction.
var removeSelectors = []string{
	"script", "style", "noscript", "iframe", "svg", "canvas", "video", "audio", "link", "meta",
}

// Clean returns the HTML with non-content markup removed. On parse failure
// the original HTML is returned unchanged with an error, so callers can
// fall back to the raw page.
func (c *Cleaner) Clean(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html, err
	}

	for _, sel := range removeSelectors {
		doc.Find(sel).Remove()
	}

	cleaned, err := doc.Html()
	if err != nil {
		return html, err
	}
	return cleaned, nil
}
