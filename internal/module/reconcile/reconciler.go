package reconcile

import (
	"strings"

	"github.com/project-tktt/itjob-crawler/internal/common/cleaner"
	"github.com/project-tktt/itjob-crawler/internal/common/normalizer"
	"github.com/project-tktt/itjob-crawler/internal/domain"
)

// DefaultEducationLevels are the levels kept by reconciliation; anything else becomes null
var DefaultEducationLevels = []domain.Education{
	domain.EducationBachelor,
	domain.EducationCollege,
}

// Config holds reconciliation settings
type Config struct {
	EducationLevels []domain.Education
}

// Stats counts what happened to a batch
type Stats struct {
	Input             int
	DroppedEmptyTitle int
	DroppedDuplicate  int
	Output            int
}

// Reconciler turns a raw collection into normalized, deduplicated jobs
type Reconciler struct {
	normalizer *normalizer.Normalizer
	cleaner    *cleaner.Cleaner
	levels     []domain.Education
}

// NewReconciler creates a new reconciler
func NewReconciler(norm *normalizer.Normalizer, clean *cleaner.Cleaner, cfg Config) *Reconciler {
	if norm == nil {
		norm = normalizer.NewNormalizer()
	}
	if clean == nil {
		clean = cleaner.NewCleaner()
	}
	if len(cfg.EducationLevels) == 0 {
		cfg.EducationLevels = DefaultEducationLevels
	}
	return &Reconciler{
		normalizer: norm,
		cleaner:    clean,
		levels:     cfg.EducationLevels,
	}
}

// Reconcile runs the cleaning passes in order: drop empty titles, keep the first
// record per title, then normalize salary, date, education and skills.
// The input is not modified.
func (r *Reconciler) Reconcile(raws []*domain.RawJob) ([]*domain.Job, Stats) {
	stats := Stats{Input: len(raws)}
	jobs := make([]*domain.Job, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))

	for _, raw := range raws {
		if raw == nil {
			stats.DroppedEmptyTitle++
			continue
		}
		cleaned := r.cleaner.CleanRaw(raw)

		title := strings.TrimSpace(cleaned.Title)
		if title == "" {
			stats.DroppedEmptyTitle++
			continue
		}
		if _, dup := seen[title]; dup {
			stats.DroppedDuplicate++
			continue
		}
		seen[title] = struct{}{}

		jobs = append(jobs, r.normalize(title, cleaned))
	}

	stats.Output = len(jobs)
	return jobs, stats
}

func (r *Reconciler) normalize(title string, raw *domain.RawJob) *domain.Job {
	job := &domain.Job{
		Title:      title,
		Location:   raw.Location,
		Experience: raw.Experience,
		URL:        raw.URL,
	}

	if v, ok := r.normalizer.Salary(string(raw.Salary)); ok {
		job.Salary = &v
	}

	if d, ok := r.normalizer.DateStrict(raw.PostedDate); ok {
		job.PostedDate = &d
	}

	if level, ok := r.normalizer.EducationWithin(strings.Join(raw.Education, ", "), r.levels); ok {
		job.Education = &level
	}

	job.Skills, job.Languages = normalizer.SplitSkillsAndLanguages(normalizer.Skills(raw.Skills))
	return job
}
