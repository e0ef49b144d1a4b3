package normalizer

import (
	"slices"

	"github.com/project-tktt/itjob-crawler/internal/domain"
)

type educationRule struct {
	keywords []string
	level    domain.Education
}

// Ordered from the highest degree; the first matching rule wins.
// Each rule also matches its own label so normalized values round-trip.
var educationRules = []educationRule{
	{keywords: []string{"tiến sĩ", "ph.d", "phd"}, level: domain.EducationPhD},
	{keywords: []string{"thạc sĩ", "master"}, level: domain.EducationMaster},
	{keywords: []string{"đại học", "cử nhân", "bachelor"}, level: domain.EducationBachelor},
	{keywords: []string{"cao đẳng", "college"}, level: domain.EducationCollege},
	{keywords: []string{"trung học", "high school", "highschool"}, level: domain.EducationHighSchool},
}

// Education maps free text to an education level
func (n *Normalizer) Education(raw string) (domain.Education, bool) {
	s := fold(raw)
	if s == "" {
		return "", false
	}
	for _, rule := range educationRules {
		if containsAny(s, rule.keywords) {
			return rule.level, true
		}
	}
	return "", false
}

// EducationWithin is Education restricted to the given levels. Rules for other
// levels are skipped, so "Thạc sĩ hoặc Đại học" maps to Bachelor when Master is excluded.
func (n *Normalizer) EducationWithin(raw string, levels []domain.Education) (domain.Education, bool) {
	s := fold(raw)
	if s == "" {
		return "", false
	}
	for _, rule := range educationRules {
		if !slices.Contains(levels, rule.level) {
			continue
		}
		if containsAny(s, rule.keywords) {
			return rule.level, true
		}
	}
	return "", false
}
