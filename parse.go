package profdir

import (
	"bytes"
	"encoding/json"
)

// facultyPage is the nominal shape of a link-discovery response.
type facultyPage struct {
	Error      bool              `json:"error"`
	Professors []json.RawMessage `json:"professors"`
}

// ParseLinks turns the raw output of a link-discovery extraction call into
// candidate links. The output is not guaranteed to match the nominal
// schema: it may be a JSON array of heterogeneous objects (entries carrying
// an error marker are skipped), a single object, or garbage.
//
// Individual links that fail validation are skipped, not fatal; the skipped
// count is returned so callers can log it. A blob that cannot be decoded at
// all returns an EINVALID error, which aborts the directory source.
func ParseLinks(raw string) (links []CandidateLink, skipped int, err error) {
	data := []byte(raw)
	switch firstToken(data) {
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, 0, Errorf(EINVALID, "link extraction output is not valid JSON")
		}
		for _, rawEntry := range raws {
			// Entries are heterogeneous: skip anything that is not a
			// professors container, or that carries an error marker.
			var entry facultyPage
			if err := json.Unmarshal(rawEntry, &entry); err != nil {
				continue
			}
			if entry.Error || entry.Professors == nil {
				continue
			}
			for _, item := range entry.Professors {
				link, ok := decodeLink(item)
				if !ok {
					skipped++
					continue
				}
				links = append(links, link)
			}
		}
		return links, skipped, nil

	case '{':
		var page facultyPage
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, 0, Errorf(EINVALID, "link extraction output is not valid JSON")
		}
		for _, item := range page.Professors {
			link, ok := decodeLink(item)
			if !ok {
				skipped++
				continue
			}
			links = append(links, link)
		}
		return links, skipped, nil

	default:
		return nil, 0, Errorf(EINVALID, "unexpected link extraction output shape")
	}
}

// ParseDetails turns the raw output of a detail extraction call into a
// professor record. The model may return a single object or a list with one
// element. A blob that yields no valid record returns an error; a single
// malformed profile must never abort the batch, so callers treat the error
// as a per-profile skip.
func ParseDetails(raw string) (*ProfessorRecord, error) {
	data := []byte(raw)
	var element json.RawMessage

	switch firstToken(data) {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil || len(list) == 0 {
			return nil, Errorf(EINVALID, "detail extraction output is not a usable JSON list")
		}
		element = list[0]
	case '{':
		element = data
	default:
		return nil, Errorf(EINVALID, "unexpected detail extraction output shape")
	}

	var record ProfessorRecord
	if err := json.Unmarshal(element, &record); err != nil {
		return nil, Errorf(EINVALID, "detail extraction output does not match the record schema")
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return &record, nil
}

// decodeLink unmarshals and validates a single candidate link.
func decodeLink(item json.RawMessage) (CandidateLink, bool) {
	var link CandidateLink
	if err := json.Unmarshal(item, &link); err != nil {
		return CandidateLink{}, false
	}
	if err := link.Validate(); err != nil {
		return CandidateLink{}, false
	}
	return link, true
}

// firstToken returns the first non-whitespace byte of data, or 0 if empty.
func firstToken(data []byte) byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
