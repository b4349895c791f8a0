package scheduling

import (
	"sort"

	"github.com/noah-isme/practical-scheduler/internal/models"
)

// Interval is a half-open [Start, End) span in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// NewInterval parses two HH:MM strings into an Interval.
func NewInterval(start, end string) (Interval, error) {
	s, err := ParseHHMM(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseHHMM(end)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: s, End: e}, nil
}

// Overlaps reports strict overlap: touching intervals do not overlap.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// Gap returns the minutes between the earlier end and the later start.
// The value is negative when the intervals overlap.
func (a Interval) Gap(b Interval) int {
	if a.Start <= b.Start {
		return b.Start - a.End
	}
	return a.Start - b.End
}

// Conflicts reports whether a and b overlap or sit closer than minGap minutes.
// A gap of exactly minGap is legal.
func Conflicts(a, b Interval, minGap int) bool {
	if a.Overlaps(b) {
		return true
	}
	gap := a.Gap(b)
	return gap >= 0 && gap < minGap
}

// Detector finds per-student conflicts among committed index entries.
type Detector struct {
	MinGapMinutes int
}

// Detect checks candidate against existing entries of the same date. Entries
// whose source batch equals excludeBatchID are skipped when it is non-zero.
// Entries with unparseable times are treated as non-conflicting.
func (d Detector) Detect(candidate Interval, date string, entries []models.AssignmentIndexEntry, excludeBatchID int64) models.ConflictReport {
	report := models.ConflictReport{}
	for _, entry := range entries {
		if entry.Date != date {
			continue
		}
		if excludeBatchID != 0 && entry.SourceBatchID == excludeBatchID {
			continue
		}
		existing, err := NewInterval(entry.StartTime, entry.EndTime)
		if err != nil {
			continue
		}
		if !Conflicts(candidate, existing, d.MinGapMinutes) {
			continue
		}
		report[entry.RegNo] = append(report[entry.RegNo], models.ConflictHit{
			PracticalCode: entry.PracticalCode,
			Date:          entry.Date,
			StartTime:     FormatHHMM(existing.Start),
			EndTime:       FormatHHMM(existing.End),
			SourceBatchID: entry.SourceBatchID,
		})
	}
	for reg := range report {
		hits := report[reg]
		sort.SliceStable(hits, func(i, j int) bool {
			if hits[i].StartTime != hits[j].StartTime {
				return hits[i].StartTime < hits[j].StartTime
			}
			return hits[i].SourceBatchID < hits[j].SourceBatchID
		})
	}
	return report
}
