package mock

import "github.com/fwojciec/profdir"

var _ profdir.Cleaner = (*Cleaner)(nil)

// Cleaner is a mock implementation of profdir.Cleaner.
type Cleaner struct {
	CleanFn func(html string) (string, error)
}

func (c *Cleaner) Clean(html string) (string, error) {
	return c.CleanFn(html)
}
