package models

// Practical is one examinable subject from the ETL practical table.
type Practical struct {
	InstitutionCode string `json:"ins_code"`
	DeptCode        string `json:"ncno"`
	DeptName        string `json:"dept_name"`
	SubjectCode     string `json:"sub_code"`
	SubjectName     string `json:"subject_name"`
	Type            string `json:"type"`
	ColNo           string `json:"col_no"`
	TotalCandidates int    `json:"total_candidates"`
	PracticalCode   string `json:"practical_code"`
	ExamMonthYear   string `json:"exam_month_year"`
}

// Enrollment is one row of the ETL student table: a student sitting a practical.
type Enrollment struct {
	RegNo           string `json:"reg_no"`
	StudentName     string `json:"student_name"`
	DOB             string `json:"dob"`
	Regulation      string `json:"regl"`
	Semester        string `json:"sem"`
	DeptCode        string `json:"ncno"`
	DeptName        string `json:"dept_name"`
	SubjectCode     string `json:"sub_code"`
	SubjectName     string `json:"subject_name"`
	Type            string `json:"type"`
	ColNo           string `json:"col_no"`
	PracticalCode   string `json:"practical_code"`
	InstitutionCode string `json:"ins_code"`
}

// PracticalListing is a catalog practical with the number of parsed students.
type PracticalListing struct {
	Practical
	StudentCount int `json:"student_count"`
}

// PracticalFilter narrows the practical listing.
type PracticalFilter struct {
	DeptCode string
	Semester string
	Text     string
}
