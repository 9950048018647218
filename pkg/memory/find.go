package memory

import (
	"context"
	"fmt"
	"strings"
)

// LatestRef names the most recently appended record in lookups.
const LatestRef = "latest"

// FindRecord resolves ref against recs: LatestRef, a full id, or an id
// prefix that matches exactly one record.
func FindRecord(recs []Record, ref string) (Record, error) {
	if len(recs) == 0 {
		return Record{}, ErrEmptyLog
	}
	if ref == LatestRef {
		return recs[len(recs)-1], nil
	}

	var matches []Record
	for _, r := range recs {
		if r.ID == ref {
			return r, nil
		}
		if ref != "" && strings.HasPrefix(r.ID, ref) {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 0:
		return Record{}, fmt.Errorf("%w %q", ErrRecordNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return Record{}, fmt.Errorf("%w: %q matches %d memories; use a longer prefix", ErrAmbiguousRef, ref, len(matches))
	}
}

// Find loads the log and resolves ref with FindRecord.
func (s *Store) Find(ctx context.Context, ref string) (Record, error) {
	recs, err := s.LoadAll(ctx)
	if err != nil {
		return Record{}, err
	}
	return FindRecord(recs, ref)
}
