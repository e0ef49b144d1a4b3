package domain

import (
	"strconv"
	"strings"
	"time"
)

// RawJob is one detail page as extracted, before the reconciliation pass
type RawJob struct {
	Title      string      `json:"title"`
	Salary     FlexString  `json:"salary"`
	Location   string      `json:"location"`
	Experience string      `json:"experience"`
	Education  FlexStrings `json:"education"`
	PostedDate string      `json:"posted_date"`
	Skills     FlexStrings `json:"skills"`
	URL        string      `json:"url,omitempty"`
	CrawledAt  time.Time   `json:"crawled_at,omitzero"`
}

// Job is a normalized job posting ready for export
type Job struct {
	Title      string     `json:"title"`
	Salary     *int64     `json:"salary"` // VND, nil when no numeric signal
	Location   string     `json:"location"`
	Experience string     `json:"experience"`
	Education  *Education `json:"education"`
	PostedDate *Date      `json:"posted_date"`
	Skills     []string   `json:"skills"`
	Languages  []string   `json:"languages"`
	URL        string     `json:"url,omitempty"`
}

// Education is the canonical education level
type Education string

const (
	EducationPhD        Education = "PhD"
	EducationMaster     Education = "Master"
	EducationBachelor   Education = "Bachelor"
	EducationCollege    Education = "College"
	EducationHighSchool Education = "HighSchool"
)

// Columns is the fixed column order used by every sink
var Columns = []string{
	"title",
	"salary",
	"location",
	"experience",
	"education",
	"posted_date",
	"skills",
	"languages",
	"url",
}

// SalaryText renders the salary as "<int> VND", empty when unknown
func (j *Job) SalaryText() string {
	if j.Salary == nil {
		return ""
	}
	return strconv.FormatInt(*j.Salary, 10) + " VND"
}

// Row flattens the job into tabular cells following Columns
func (j *Job) Row() []string {
	education := ""
	if j.Education != nil {
		education = string(*j.Education)
	}
	return []string{
		j.Title,
		j.SalaryText(),
		j.Location,
		j.Experience,
		education,
		j.PostedDate.String(),
		strings.Join(j.Skills, ", "),
		strings.Join(j.Languages, ", "),
		j.URL,
	}
}

// Raw converts the job back into a RawJob so it can be reconciled again
func (j *Job) Raw() *RawJob {
	raw := &RawJob{
		Title:      j.Title,
		Salary:     FlexString(j.SalaryText()),
		Location:   j.Location,
		Experience: j.Experience,
		PostedDate: j.PostedDate.String(),
		URL:        j.URL,
	}
	if j.Education != nil {
		raw.Education = FlexStrings{string(*j.Education)}
	}
	raw.Skills = make(FlexStrings, 0, len(j.Skills)+len(j.Languages))
	raw.Skills = append(raw.Skills, j.Skills...)
	raw.Skills = append(raw.Skills, j.Languages...)
	return raw
}

// JobSource represents a job listing source
type JobSource string

const (
	SourceTopCV JobSource = "topcv"
)
