package mock

import (
	"context"

	"github.com/fwojciec/profdir"
)

var _ profdir.ProfessorService = (*ProfessorService)(nil)

// ProfessorService is a mock implementation of profdir.ProfessorService.
type ProfessorService struct {
	LookupExistingEmailsFn func(ctx context.Context, emails []string) (map[string]struct{}, error)
	UpsertProfessorsFn     func(ctx context.Context, records []*profdir.ProfessorRecord) (int, error)
}

func (s *ProfessorService) LookupExistingEmails(ctx context.Context, emails []string) (map[string]struct{}, error) {
	return s.LookupExistingEmailsFn(ctx, emails)
}

func (s *ProfessorService) UpsertProfessors(ctx context.Context, records []*profdir.ProfessorRecord) (int, error) {
	return s.UpsertProfessorsFn(ctx, records)
}
