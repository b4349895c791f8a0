package models

import "time"

// BatchStatusDraft is the status assigned to newly created batches.
const BatchStatusDraft = "draft"

// Batch is one scheduled sitting of a practical.
type Batch struct {
	ID            int64     `db:"batch_id" json:"batch_id"`
	PracticalCode string    `db:"practical_code" json:"practical_code"`
	BatchNo       int       `db:"batch_no" json:"batch_no"`
	DayIndex      int       `db:"day_index" json:"day_index"`
	Date          string    `db:"date" json:"date"`
	StartTime     string    `db:"start_time" json:"start_time"`
	EndTime       string    `db:"end_time" json:"end_time"`
	RoomLab       *string   `db:"room_lab" json:"room_lab,omitempty"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// BatchMember places one student inside a batch.
type BatchMember struct {
	ID            int64     `db:"batch_member_id" json:"batch_member_id"`
	BatchID       int64     `db:"batch_id" json:"batch_id"`
	RegNo         string    `db:"reg_no" json:"reg_no"`
	PracticalCode string    `db:"practical_code" json:"practical_code"`
	AddedAt       time.Time `db:"added_at" json:"added_at"`
}

// AssignmentIndexEntry is a flattened committed slot of one student.
// The AssignmentsIndex table is derived from Batches joined with BatchMembers.
type AssignmentIndexEntry struct {
	ID            int64     `db:"idx_id" json:"idx_id"`
	RegNo         string    `db:"reg_no" json:"reg_no"`
	Date          string    `db:"date" json:"date"`
	StartTime     string    `db:"start_time" json:"start_time"`
	EndTime       string    `db:"end_time" json:"end_time"`
	PracticalCode string    `db:"practical_code" json:"practical_code"`
	SourceBatchID int64     `db:"source_batch_id" json:"source_batch_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// BatchSummary is a batch row enriched with its member count.
type BatchSummary struct {
	Batch
	MemberCount int `db:"member_count" json:"member_count"`
}

// RosterEntry is a batch member joined with catalog details.
type RosterEntry struct {
	SerialNo       int    `json:"serial_no"`
	RegNo          string `json:"reg_no"`
	StudentName    string `json:"student_name"`
	DepartmentName string `json:"department_name"`
}

// BackupRow is one member line of a full schedule backup; batches without
// members produce a single row with an empty RegNo.
type BackupRow struct {
	BatchID       int64   `db:"batch_id" json:"batch_id"`
	PracticalCode string  `db:"practical_code" json:"practical_code"`
	BatchNo       int     `db:"batch_no" json:"batch_no"`
	DayIndex      int     `db:"day_index" json:"day_index"`
	Date          string  `db:"date" json:"date"`
	StartTime     string  `db:"start_time" json:"start_time"`
	EndTime       string  `db:"end_time" json:"end_time"`
	RoomLab       *string `db:"room_lab" json:"room_lab,omitempty"`
	Status        string  `db:"status" json:"status"`
	RegNo         *string `db:"reg_no" json:"reg_no,omitempty"`
}
