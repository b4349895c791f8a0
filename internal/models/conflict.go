package models

import (
	"fmt"
	"sort"
	"strings"
)

// ConflictHit is one existing commitment that collides with a candidate slot.
type ConflictHit struct {
	PracticalCode string `json:"practical_code"`
	SubjectName   string `json:"subject_name,omitempty"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	SourceBatchID int64  `json:"source_batch_id"`
}

// ConflictReport maps a registration number to its colliding commitments.
type ConflictReport map[string][]ConflictHit

// RegNos returns the conflicting students in ascending order.
func (r ConflictReport) RegNos() []string {
	out := make([]string, 0, len(r))
	for reg := range r {
		out = append(out, reg)
	}
	sort.Strings(out)
	return out
}

// String renders one line per hit, e.g. "S1 - P1 (09:00-12:00)".
func (r ConflictReport) String() string {
	lines := make([]string, 0, len(r))
	for _, reg := range r.RegNos() {
		for _, hit := range r[reg] {
			lines = append(lines, fmt.Sprintf("%s - %s (%s-%s)", reg, hit.PracticalCode, hit.StartTime, hit.EndTime))
		}
	}
	return strings.Join(lines, "\n")
}
