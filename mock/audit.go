package mock

import (
	"context"

	"github.com/fwojciec/profdir"
)

var _ profdir.AuditWriter = (*AuditWriter)(nil)

// AuditWriter is a mock implementation of profdir.AuditWriter.
type AuditWriter struct {
	WriteBatchFn func(ctx context.Context, records []*profdir.ProfessorRecord) error
}

func (w *AuditWriter) WriteBatch(ctx context.Context, records []*profdir.ProfessorRecord) error {
	return w.WriteBatchFn(ctx, records)
}
