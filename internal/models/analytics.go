package models

import "time"

// PracticalOverview reports scheduling progress for one practical.
type PracticalOverview struct {
	PracticalCode string         `json:"practical_code"`
	SubjectName   string         `json:"subject_name"`
	DeptName      string         `json:"dept_name"`
	Total         int            `json:"total"`
	Assigned      int            `json:"assigned"`
	Remaining     int            `json:"remaining"`
	AssignedPct   int            `json:"assigned_pct"`
	Batches       []BatchSummary `json:"batches"`
	GeneratedAt   time.Time      `json:"generated_at"`
}

// IndexDiscrepancy is one AssignmentsIndex row that disagrees with membership.
type IndexDiscrepancy struct {
	Kind          string `json:"kind"`
	RegNo         string `json:"reg_no"`
	SourceBatchID int64  `json:"source_batch_id"`
	Expected      string `json:"expected,omitempty"`
	Actual        string `json:"actual,omitempty"`
}

// Index discrepancy kinds.
const (
	DiscrepancyMissing  = "missing"
	DiscrepancyStale    = "stale"
	DiscrepancyMismatch = "mismatch"
)

// IndexVerification summarises a full AssignmentsIndex consistency check.
type IndexVerification struct {
	Consistent    bool               `json:"consistent"`
	Checked       int                `json:"checked"`
	Discrepancies []IndexDiscrepancy `json:"discrepancies,omitempty"`
}

// SystemMetrics is a JSON snapshot of process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	MutationsTotal           uint64    `json:"mutations_total"`
	MutationFailures         uint64    `json:"mutation_failures"`
	ConflictsDetected        uint64    `json:"conflicts_detected"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// PracticalProgress is one row of the finalised / pending summary.
type PracticalProgress struct {
	PracticalCode   string `json:"practical_code"`
	SubjectCode     string `json:"sub_code"`
	SubjectName     string `json:"subject_name"`
	DeptName        string `json:"dept_name"`
	TotalCandidates int    `json:"total"`
	Assigned        int    `json:"assigned"`
	Batches         int    `json:"batches"`
	Finalised       bool   `json:"finalised"`
}
