package scheduling

import (
	"sort"
	"time"

	"github.com/noah-isme/practical-scheduler/internal/models"
)

// Numbering is the target batch_no and day_index of one batch.
type Numbering struct {
	BatchID  int64
	BatchNo  int
	DayIndex int
}

// Renumber computes dense numbering for the batches of one practical.
// Dates sort chronologically, then batches by start time and id; batch_no runs
// 1..N across all dates and day_index is the 1-based ordinal of the date.
// Unparseable dates sort after valid ones, by their raw text.
func Renumber(batches []models.Batch) []Numbering {
	type keyed struct {
		batch models.Batch
		date  time.Time
		valid bool
		start int
	}
	items := make([]keyed, 0, len(batches))
	for _, b := range batches {
		k := keyed{batch: b}
		if t, err := ParseDate(b.Date); err == nil {
			k.date, k.valid = t, true
		}
		if m, err := ParseHHMM(b.StartTime); err == nil {
			k.start = m
		}
		items = append(items, k)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.valid != b.valid {
			return a.valid
		}
		if a.valid && !a.date.Equal(b.date) {
			return a.date.Before(b.date)
		}
		if !a.valid && a.batch.Date != b.batch.Date {
			return a.batch.Date < b.batch.Date
		}
		if a.start != b.start {
			return a.start < b.start
		}
		return a.batch.ID < b.batch.ID
	})

	out := make([]Numbering, 0, len(items))
	day := 0
	prevDate := ""
	for i, item := range items {
		if i == 0 || item.batch.Date != prevDate {
			day++
			prevDate = item.batch.Date
		}
		out = append(out, Numbering{BatchID: item.batch.ID, BatchNo: i + 1, DayIndex: day})
	}
	return out
}

// Changed filters plan down to entries that differ from the current rows.
func Changed(batches []models.Batch, plan []Numbering) []Numbering {
	current := make(map[int64]models.Batch, len(batches))
	for _, b := range batches {
		current[b.ID] = b
	}
	out := make([]Numbering, 0, len(plan))
	for _, n := range plan {
		b, ok := current[n.BatchID]
		if !ok || b.BatchNo != n.BatchNo || b.DayIndex != n.DayIndex {
			out = append(out, n)
		}
	}
	return out
}
