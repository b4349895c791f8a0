package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/practical-scheduler/internal/models"
)

const practicalCSV = `ins_code,ncno,dept_name,sub_code,subject_name,type,col_no,total_candidates,practical_code,exam_month_year
101,12,Mechanical,4021,Workshop Practice,P,3,45,101-12-4021,MAR 2025
101,07,Civil,3011,Surveying Lab,P,2,120,,MAR 2025
`

const studentCSV = `reg_no,student_name,dob,regl,sem,ncno,dept_name,sub_code,subject_name,type,col_no,practical_code,ins_code
S2,Bala,01.01.2005,N,4,12,Mechanical,4021,Workshop Practice,P,3,101-12-4021,101
S1,Anu,02.02.2005,N,4,12,Mechanical,4021,Workshop Practice,P,3,101-12-4021,101
S1,Anu,02.02.2005,N,4,12,Mechanical,4021,Workshop Practice,P,3,101-12-4021,101
S3,Chitra,03.03.2005,N,6,07,Civil,3011,Surveying Lab,P,2,101-07-3011,101
`

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadPrefersVerifiedTables(t *testing.T) {
	root := t.TempDir()
	extracted := filepath.Join(root, "extracted")
	verified := filepath.Join(root, "verified")
	writeFile(t, extracted, practicalFile, practicalCSV)
	writeFile(t, extracted, studentFile, studentCSV)
	writeFile(t, verified, practicalVerifiedFile, strings.Replace(practicalCSV, "Workshop Practice", "Workshop Practice II", 1))

	c, err := Load(Source{VerifiedDir: verified, ExtractedDir: extracted}, nil)
	require.NoError(t, err)

	p, ok := c.Practical("101-12-4021")
	require.True(t, ok)
	assert.Equal(t, "Workshop Practice II", p.SubjectName)
	assert.Equal(t, 45, p.TotalCandidates)

	_, ok = c.Practical("101-07-3011")
	assert.True(t, ok, "practical code derived from its parts")
	assert.Equal(t, 120, c.TotalCandidates("101-07-3011"))
	assert.Equal(t, 0, c.TotalCandidates("missing"))

	enrolled := c.Enrolled("101-12-4021")
	require.Len(t, enrolled, 2)
	assert.Equal(t, "S1", enrolled[0].RegNo)
	assert.True(t, c.IsEnrolled("101-12-4021", "S2"))
	assert.False(t, c.IsEnrolled("101-12-4021", "S3"))
	assert.Equal(t, "Anu", c.StudentName("S1"))
}

func TestLoadMissingFilesYieldsEmptyCatalog(t *testing.T) {
	c, err := Load(Source{VerifiedDir: t.TempDir(), ExtractedDir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.Empty(t, c.List(models.PracticalFilter{}))
	assert.Empty(t, c.Enrolled("anything"))
}

func TestLoadRejectsBadCandidateCount(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, practicalFile, "ins_code,ncno,sub_code,total_candidates\n1,2,3,many\n")
	_, err := Load(Source{ExtractedDir: dir}, nil)
	assert.ErrorContains(t, err, "line 2")
}

func TestListFilters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, practicalFile, practicalCSV)
	writeFile(t, dir, studentFile, studentCSV)
	c, err := Load(Source{ExtractedDir: dir}, nil)
	require.NoError(t, err)

	all := c.List(models.PracticalFilter{})
	require.Len(t, all, 2)
	assert.Equal(t, "07", all[0].DeptCode)
	assert.Equal(t, 2, all[1].StudentCount)

	assert.Len(t, c.List(models.PracticalFilter{DeptCode: "12"}), 1)
	assert.Len(t, c.List(models.PracticalFilter{Semester: "6"}), 1)
	assert.Len(t, c.List(models.PracticalFilter{Text: "survey"}), 1)
	assert.Len(t, c.List(models.PracticalFilter{Text: "4021"}), 1)
	assert.Empty(t, c.List(models.PracticalFilter{Text: "chemistry"}))
}
