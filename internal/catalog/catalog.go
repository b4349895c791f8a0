package catalog

import (
	"sort"
	"strings"

	"github.com/noah-isme/practical-scheduler/internal/models"
)

// Catalog is an immutable in-memory view over the practical and student tables.
type Catalog struct {
	practicals  []models.Practical
	byCode      map[string]models.Practical
	enrolled    map[string][]models.Enrollment
	byStudent   map[string][]models.Enrollment
	studentName map[string]string
}

// New indexes the given rows. Duplicate (practical, reg_no) rows keep the first occurrence.
func New(practicals []models.Practical, enrollments []models.Enrollment) *Catalog {
	c := &Catalog{
		byCode:      make(map[string]models.Practical, len(practicals)),
		enrolled:    make(map[string][]models.Enrollment),
		byStudent:   make(map[string][]models.Enrollment),
		studentName: make(map[string]string),
	}
	for _, p := range practicals {
		if _, ok := c.byCode[p.PracticalCode]; ok {
			continue
		}
		c.byCode[p.PracticalCode] = p
		c.practicals = append(c.practicals, p)
	}
	sort.SliceStable(c.practicals, func(i, j int) bool {
		if c.practicals[i].DeptCode != c.practicals[j].DeptCode {
			return c.practicals[i].DeptCode < c.practicals[j].DeptCode
		}
		return c.practicals[i].SubjectCode < c.practicals[j].SubjectCode
	})

	seen := make(map[string]struct{}, len(enrollments))
	for _, e := range enrollments {
		key := e.PracticalCode + "|" + e.RegNo
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		c.enrolled[e.PracticalCode] = append(c.enrolled[e.PracticalCode], e)
		c.byStudent[e.RegNo] = append(c.byStudent[e.RegNo], e)
		if _, ok := c.studentName[e.RegNo]; !ok {
			c.studentName[e.RegNo] = e.StudentName
		}
	}
	for code := range c.enrolled {
		rows := c.enrolled[code]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].RegNo < rows[j].RegNo })
	}
	return c
}

// Practical returns the practical with the given code.
func (c *Catalog) Practical(code string) (models.Practical, bool) {
	p, ok := c.byCode[code]
	return p, ok
}

// TotalCandidates returns the declared candidate count, or 0 when unknown.
func (c *Catalog) TotalCandidates(code string) int {
	return c.byCode[code].TotalCandidates
}

// Enrolled lists students sitting the practical, ordered by registration number.
func (c *Catalog) Enrolled(code string) []models.Enrollment {
	rows := c.enrolled[code]
	out := make([]models.Enrollment, len(rows))
	copy(out, rows)
	return out
}

// IsEnrolled reports whether regNo sits the practical.
func (c *Catalog) IsEnrolled(code, regNo string) bool {
	for _, e := range c.enrolled[code] {
		if e.RegNo == regNo {
			return true
		}
	}
	return false
}

// Student returns every enrolment row for regNo.
func (c *Catalog) Student(regNo string) []models.Enrollment {
	return c.byStudent[regNo]
}

// StudentName returns the recorded name for regNo.
func (c *Catalog) StudentName(regNo string) string {
	return c.studentName[regNo]
}

// List returns practicals matching filter with their parsed student counts.
func (c *Catalog) List(filter models.PracticalFilter) []models.PracticalListing {
	text := strings.ToLower(strings.TrimSpace(filter.Text))
	out := make([]models.PracticalListing, 0, len(c.practicals))
	for _, p := range c.practicals {
		if filter.DeptCode != "" && p.DeptCode != filter.DeptCode {
			continue
		}
		if filter.Semester != "" && !c.hasSemester(p.PracticalCode, filter.Semester) {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(p.SubjectName), text) &&
			!strings.Contains(strings.ToLower(p.SubjectCode), text) {
			continue
		}
		out = append(out, models.PracticalListing{Practical: p, StudentCount: len(c.enrolled[p.PracticalCode])})
	}
	return out
}

func (c *Catalog) hasSemester(code, sem string) bool {
	for _, e := range c.enrolled[code] {
		if e.Semester == sem {
			return true
		}
	}
	return false
}
