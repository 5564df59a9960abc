package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/profdir"
)

// Compile-time interface verification.
var _ profdir.ProfessorService = (*ProfessorService)(nil)

// ProfessorService implements profdir.ProfessorService using SQLite.
type ProfessorService struct {
	db     *DB
	logger *slog.Logger
}

// NewProfessorService creates a new ProfessorService. A nil logger
// disables logging.
func NewProfessorService(db *DB, logger *slog.Logger) *ProfessorService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ProfessorService{db: db, logger: logger}
}

// hashRecord computes an xxHash fingerprint of a record's content fields.
// The hash is stored alongside the row; a re-scrape whose hash matches the
// stored one leaves the row (and its updated_at) untouched.
func hashRecord(rec *profdir.ProfessorRecord) string {
	h := xxhash.New()
	for _, field := range []string{rec.Name, rec.University, rec.Department, strings.Join(rec.ResearchTopics, ","), rec.Summary} {
		_, _ = h.WriteString(field)
		_, _ = h.WriteString("\x00")
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// LookupExistingEmails returns the subset of the given emails already in
// the store, answered with a single bulk query.
func (s *ProfessorService) LookupExistingEmails(ctx context.Context, emails []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(emails) == 0 {
		return existing, nil
	}

	placeholders := strings.Repeat("?,", len(emails))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(emails))
	for i, email := range emails {
		args[i] = profdir.NormalizeEmail(email)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT email FROM professors WHERE email IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		existing[email] = struct{}{}
	}
	return existing, rows.Err()
}

// UpsertProfessors inserts or updates records keyed by normalized email and
// returns the count of rows actually newly created. A failure on one record
// is logged and skipped; it does not abort the remaining upserts.
func (s *ProfessorService) UpsertProfessors(ctx context.Context, records []*profdir.ProfessorRecord) (int, error) {
	inserted := 0
	var lastErr error

	for _, rec := range records {
		email := rec.IdentityKey()
		if email == "" {
			continue
		}

		topics, err := json.Marshal([]string(rec.ResearchTopics))
		if err != nil {
			s.logger.Error("marshaling research topics", "email", email, "error", err)
			lastErr = err
			continue
		}

		hash := hashRecord(rec)

		exists := true
		var storedHash string
		err = s.db.QueryRowContext(ctx,
			"SELECT content_hash FROM professors WHERE email = ?", email,
		).Scan(&storedHash)
		if err == sql.ErrNoRows {
			exists = false
		} else if err != nil {
			s.logger.Error("checking existing row", "email", email, "error", err)
			lastErr = err
			continue
		}

		// Unchanged content on a re-scrape leaves the row untouched.
		if exists && storedHash == hash {
			continue
		}

		now := time.Now().UTC().Format(time.RFC3339)
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO professors (email, name, university, department, research_topics, summary, content_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(email) DO UPDATE SET
				name = excluded.name,
				university = excluded.university,
				department = excluded.department,
				research_topics = excluded.research_topics,
				summary = excluded.summary,
				content_hash = excluded.content_hash,
				updated_at = excluded.updated_at
		`, email, rec.Name, rec.University, rec.Department, string(topics), rec.Summary,
			hash, now, now)
		if err != nil {
			s.logger.Error("upserting professor", "email", email, "error", err)
			lastErr = err
			continue
		}

		if !exists {
			inserted++
		}
	}

	return inserted, lastErr
}
