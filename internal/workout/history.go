package workout

import (
	"cmp"
	"log/slog"
	"slices"
	"time"

	"github.com/myrjola/lifelog/internal/errors"
)

// History is a date-ordered log of session records. Build it with NewHistory.
type History struct {
	records []SessionRecord
}

// ParseSessionDate accepts either an ISO date or an RFC 3339 timestamp.
func ParseSessionDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Wrap(ErrInvalidRecord, "unparseable date", slog.String("date", s))
	}
	return t, nil
}

// NewHistory orders records by date. Records sharing a date keep their relative order. Records with an
// unparseable date are dropped and reported.
func NewHistory(records []SessionRecord) (History, []error) {
	type dated struct {
		at     time.Time
		record SessionRecord
	}
	var (
		errs  []error
		valid = make([]dated, 0, len(records))
	)
	for _, rec := range records {
		at, err := ParseSessionDate(rec.Date)
		if err != nil {
			errs = append(errs, errors.Wrap(err, "skip session record", slog.String("session_id", rec.ID)))
			continue
		}
		valid = append(valid, dated{at: at, record: rec})
	}
	slices.SortStableFunc(valid, func(a, b dated) int {
		return a.at.Compare(b.at)
	})

	h := History{records: make([]SessionRecord, 0, len(valid))}
	for _, d := range valid {
		h.records = append(h.records, d.record)
	}
	return h, errs
}

// Records returns the ordered records, oldest first.
func (h History) Records() []SessionRecord {
	return slices.Clone(h.records)
}

// Len returns the number of records.
func (h History) Len() int {
	return len(h.records)
}

// lastSession returns the most recent record that is not a rest day.
func (h History) lastSession() (SessionRecord, bool) {
	for i := len(h.records) - 1; i >= 0; i-- {
		if !h.records[i].RestDay {
			return h.records[i], true
		}
	}
	return SessionRecord{}, false //nolint:exhaustruct // zero value.
}

// performances returns the performed entries of an exercise, most recent first. Skipped entries and entries
// without sets are left out.
func (h History) performances(id ExerciseID) []ExercisePerformance {
	var perfs []ExercisePerformance
	for i := len(h.records) - 1; i >= 0; i-- {
		rec := h.records[i]
		if rec.RestDay {
			continue
		}
		for _, perf := range rec.Exercises {
			if perf.ExerciseID == id && !perf.Skipped && len(perf.SetsPerformed) > 0 {
				perfs = append(perfs, perf)
			}
		}
	}
	return perfs
}

// heaviestWeight returns the working weight of a performance.
func heaviestWeight(sets []PerformedSet) float64 {
	return slices.MaxFunc(sets, func(a, b PerformedSet) int {
		return cmp.Compare(a.Weight, b.Weight)
	}).Weight
}

// workingSets returns the sets performed at the heaviest weight.
func workingSets(sets []PerformedSet) []PerformedSet {
	weight := heaviestWeight(sets)
	var working []PerformedSet
	for _, s := range sets {
		if s.Weight == weight {
			working = append(working, s)
		}
	}
	return working
}
