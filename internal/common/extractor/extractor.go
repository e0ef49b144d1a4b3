package extractor

import (
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/project-tktt/itjob-crawler/internal/common/filter"
	"github.com/project-tktt/itjob-crawler/internal/common/normalizer"
	"github.com/project-tktt/itjob-crawler/internal/domain"
)

// Info section labels on the detail page
const (
	labelSalary     = "mức lương"
	labelLocation   = "địa điểm"
	labelExperience = "kinh nghiệm"
)

// Extractor turns a detail page into a RawJob
type Extractor struct {
	selectors Selectors
	norm      *normalizer.Normalizer
}

// NewExtractor creates a new detail page extractor
func NewExtractor(selectors Selectors, norm *normalizer.Normalizer) *Extractor {
	return &Extractor{
		selectors: selectors.WithDefaults(),
		norm:      norm,
	}
}

// Extract reads the detail page fields. Missing fields are left empty.
// It returns nil when the posting date is known and falls outside window;
// a posting without a readable date is kept.
func (e *Extractor) Extract(doc *goquery.Document, pageURL string, window filter.Window) *domain.RawJob {
	job := &domain.RawJob{
		URL:       pageURL,
		CrawledAt: time.Now(),
		Skills:    domain.FlexStrings{},
		Education: domain.FlexStrings{},
	}

	if title, ok := e.text(doc.Selection, e.selectors.Title); ok {
		job.Title = title
	}

	e.readSections(doc, job)

	if posted, ok := e.postedDate(doc); ok {
		if !window.Contains(&posted) {
			return nil
		}
		job.PostedDate = posted.String()
	}

	for _, tag := range e.texts(doc.Selection, e.selectors.Tag) {
		if _, ok := e.norm.Education(tag); ok {
			job.Education = append(job.Education, tag)
		}
	}

	job.Skills = normalizer.Skills(e.texts(doc.Selection, e.selectors.SpecialtyTag))

	return job
}

// readSections routes each labelled info block through its normalizer
func (e *Extractor) readSections(doc *goquery.Document, job *domain.RawJob) {
	doc.Find(e.selectors.Section).Each(func(_ int, s *goquery.Selection) {
		label, ok := e.text(s, e.selectors.SectionTitle)
		if !ok {
			return
		}
		value, ok := e.text(s, e.selectors.SectionValue)
		if !ok {
			return
		}

		label = strings.ToLower(label)
		switch {
		case strings.HasPrefix(label, labelSalary):
			if v, ok := e.norm.Salary(value); ok {
				job.Salary = domain.FlexString(normalizer.FormatSalary(v))
			}
		case strings.HasPrefix(label, labelLocation):
			job.Location = e.norm.Location(value)
		case strings.HasPrefix(label, labelExperience):
			job.Experience = value
		}
	})
}

// postedDate reads the posting date, falling back to the deadline countdown
func (e *Extractor) postedDate(doc *goquery.Document) (domain.Date, bool) {
	if text, ok := e.text(doc.Selection, e.selectors.PostedDate); ok {
		if d, ok := e.norm.Date(text); ok {
			return d, true
		}
	}
	if text, ok := e.text(doc.Selection, e.selectors.DaysLeft); ok {
		if days, err := strconv.Atoi(text); err == nil {
			return e.norm.DaysAgo(days), true
		}
	}
	return domain.Date{}, false
}

// text returns the trimmed text of the first match, false when absent or blank
func (e *Extractor) text(s *goquery.Selection, selector string) (string, bool) {
	if selector == "" {
		return "", false
	}
	found := s.Find(selector)
	if found.Length() == 0 {
		return "", false
	}
	text := strings.TrimSpace(found.First().Text())
	return text, text != ""
}

// texts returns the trimmed, non-empty texts of all matches
func (e *Extractor) texts(s *goquery.Selection, selector string) []string {
	var out []string
	if selector == "" {
		return out
	}
	s.Find(selector).Each(func(_ int, el *goquery.Selection) {
		if text := strings.TrimSpace(el.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}
