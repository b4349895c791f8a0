package dto

import "github.com/noah-isme/practical-scheduler/internal/models"

// CreateBatchRequest captures POST /practicals/:code/batches. An empty start time
// lets the scheduler append the batch after the day's latest one.
type CreateBatchRequest struct {
	PracticalCode string  `json:"-" validate:"required"`
	Date          string  `json:"date" validate:"required"`
	StartTime     string  `json:"startTime"`
	RoomLab       *string `json:"roomLab,omitempty"`
	Status        string  `json:"status"`
}

// EditBatchRequest captures PATCH /batches/:id. Nil fields keep their current value.
type EditBatchRequest struct {
	Date      *string `json:"date,omitempty"`
	StartTime *string `json:"startTime,omitempty"`
	RoomLab   *string `json:"roomLab,omitempty"`
}

// AddMembersRequest captures POST /batches/:id/members.
type AddMembersRequest struct {
	PracticalCode string   `json:"practicalCode"`
	RegNos        []string `json:"regNos" validate:"required,min=1,dive,required"`
}

// AddMembersResponse reports which students were admitted.
type AddMembersResponse struct {
	BatchID        int64    `json:"batchId"`
	Added          []string `json:"added"`
	AlreadyMembers []string `json:"alreadyMembers,omitempty"`
	MemberCount    int      `json:"memberCount"`
	Message        string   `json:"message"`
}

// RemoveMemberResponse reports whether a membership existed.
type RemoveMemberResponse struct {
	BatchID int64  `json:"batchId"`
	RegNo   string `json:"regNo"`
	Removed bool   `json:"removed"`
}

// ConflictCheckRequest previews the conflict detector for staged students.
type ConflictCheckRequest struct {
	Date           string   `json:"date" validate:"required"`
	StartTime      string   `json:"startTime" validate:"required"`
	EndTime        string   `json:"endTime"`
	RegNos         []string `json:"regNos" validate:"required,min=1,dive,required"`
	ExcludeBatchID int64    `json:"excludeBatchId"`
}

// ConflictCheckResponse lists every blocking commitment per student.
type ConflictCheckResponse struct {
	Date      string                `json:"date"`
	StartTime string                `json:"startTime"`
	EndTime   string                `json:"endTime"`
	Clean     bool                  `json:"clean"`
	Conflicts models.ConflictReport `json:"conflicts"`
}

// SuggestStartResponse returns the next free start of a practical on a date.
type SuggestStartResponse struct {
	PracticalCode string `json:"practicalCode"`
	Date          string `json:"date"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
}

// RebuildIndexResponse reports how many index rows were rederived.
type RebuildIndexResponse struct {
	BatchID int64 `json:"batchId"`
	Entries int64 `json:"entries"`
}

// BulkAssignmentsRequest asks for several students' timetables.
type BulkAssignmentsRequest struct {
	RegNos []string `json:"regNos" validate:"required,min=1,dive,required"`
}

// TimetableSlot is one committed sitting of a student.
type TimetableSlot struct {
	PracticalCode string `json:"practicalCode"`
	SubjectName   string `json:"subjectName,omitempty"`
	Date          string `json:"date"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	BatchID       int64  `json:"batchId"`
}

// StudentTimetable lists a student's committed slots chronologically.
type StudentTimetable struct {
	RegNo       string          `json:"regNo"`
	StudentName string          `json:"studentName,omitempty"`
	Slots       []TimetableSlot `json:"slots"`
}

// RosterResponse lists a batch's members with catalog details.
type RosterResponse struct {
	Batch   models.Batch         `json:"batch"`
	Members []models.RosterEntry `json:"members"`
}
