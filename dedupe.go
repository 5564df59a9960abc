package profdir

// DedupeBatch collapses records sharing a normalized email, keeping the
// first occurrence and preserving input order. The operation is idempotent.
func DedupeBatch(records []*ProfessorRecord) []*ProfessorRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]*ProfessorRecord, 0, len(records))
	for _, r := range records {
		key := r.IdentityKey()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// DedupeAgainstStore drops records whose normalized email is already in
// the store. Callers must populate existing with a single bulk lookup over
// the full candidate email set, not one query per record.
func DedupeAgainstStore(records []*ProfessorRecord, existing map[string]struct{}) []*ProfessorRecord {
	out := make([]*ProfessorRecord, 0, len(records))
	for _, r := range records {
		if _, ok := existing[r.IdentityKey()]; ok {
			continue
		}
		out = append(out, r)
	}
	return out
}
