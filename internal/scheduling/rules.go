package scheduling

import "fmt"

// Rules carries the configurable scheduling limits.
type Rules struct {
	BatchSizeMax         int
	BatchDurationMinutes int
	MaxBatchesPerDay     int
	MinGapMinutes        int
	SmallCohortThreshold int
	DefaultStartTime     string
}

// DefaultRules returns the stock limits.
func DefaultRules() Rules {
	return Rules{
		BatchSizeMax:         30,
		BatchDurationMinutes: 180,
		MaxBatchesPerDay:     3,
		MinGapMinutes:        60,
		SmallCohortThreshold: 90,
		DefaultStartTime:     "09:00",
	}
}

// WithDefaults fills zero-valued fields from DefaultRules.
func (r Rules) WithDefaults() Rules {
	def := DefaultRules()
	if r.BatchSizeMax <= 0 {
		r.BatchSizeMax = def.BatchSizeMax
	}
	if r.BatchDurationMinutes <= 0 {
		r.BatchDurationMinutes = def.BatchDurationMinutes
	}
	if r.MaxBatchesPerDay <= 0 {
		r.MaxBatchesPerDay = def.MaxBatchesPerDay
	}
	if r.MinGapMinutes < 0 {
		r.MinGapMinutes = def.MinGapMinutes
	}
	if r.SmallCohortThreshold <= 0 {
		r.SmallCohortThreshold = def.SmallCohortThreshold
	}
	if _, err := ParseHHMM(r.DefaultStartTime); err != nil {
		r.DefaultStartTime = def.DefaultStartTime
	}
	return r
}

// Decision is the outcome of a rule check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(format string, args ...interface{}) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// CanCreateBatch decides whether another batch may be added to a day.
// total is the practical's candidate count, onDay the batches already on
// that date and intendedNo the number the new batch would take on that day.
// The small-cohort and global caps are both evaluated in order.
func (r Rules) CanCreateBatch(total, onDay, intendedNo int) Decision {
	if total <= r.SmallCohortThreshold {
		if intendedNo > r.MaxBatchesPerDay {
			return deny("For ≤%d candidates, maximum %d batches allowed on a single day.", r.SmallCohortThreshold, r.MaxBatchesPerDay)
		}
		if onDay >= r.MaxBatchesPerDay {
			return deny("Already %d batches on this day.", r.MaxBatchesPerDay)
		}
	}
	if onDay >= r.MaxBatchesPerDay {
		return deny("Max %d batches per day for a practical.", r.MaxBatchesPerDay)
	}
	return allow()
}

// CanAdmit checks seat capacity for adding incoming students to a batch holding current.
func (r Rules) CanAdmit(current, incoming int) Decision {
	if current+incoming > r.BatchSizeMax {
		return deny("Cannot exceed %d students per batch.", r.BatchSizeMax)
	}
	return allow()
}

// SlotEnd returns the end time of a batch starting at start.
// overflow is true when the batch would run past midnight.
func (r Rules) SlotEnd(start string) (string, bool, error) {
	return AddMinutes(start, r.BatchDurationMinutes)
}
