package extractor

// Selectors defines CSS selectors for listing and detail pages
type Selectors struct {
	// List page selectors
	JobLink   string `yaml:"job_link"`
	ListReady string `yaml:"list_ready"`

	// Detail page selectors
	DetailReady  string `yaml:"detail_ready"`
	Title        string `yaml:"title"`
	Section      string `yaml:"section"`
	SectionTitle string `yaml:"section_title"`
	SectionValue string `yaml:"section_value"`
	PostedDate   string `yaml:"posted_date"`
	DaysLeft     string `yaml:"days_left"`
	Tag          string `yaml:"tag"`
	SpecialtyTag string `yaml:"specialty_tag"`
}

// DefaultSelectors returns the TopCV layout
func DefaultSelectors() Selectors {
	return Selectors{
		JobLink: "h3.title a",

		Title:        "h1.job-detail__info--title",
		Section:      "div.job-detail__info--section",
		SectionTitle: "div.job-detail__info--section-content-title",
		SectionValue: "div.job-detail__info--section-content-value",
		PostedDate:   "span.job-posted-date",
		DaysLeft:     "span.deadline strong",
		Tag:          "div.job-tags__group-list-tag-scroll a.item.search-from-tag",
		SpecialtyTag: "div.job-tags__group-list-tag-scroll a.item.search-from-tag.link",
	}
}

// WithDefaults fills empty selectors from DefaultSelectors
func (s Selectors) WithDefaults() Selectors {
	d := DefaultSelectors()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&s.JobLink, d.JobLink)
	fill(&s.Title, d.Title)
	fill(&s.Section, d.Section)
	fill(&s.SectionTitle, d.SectionTitle)
	fill(&s.SectionValue, d.SectionValue)
	fill(&s.PostedDate, d.PostedDate)
	fill(&s.DaysLeft, d.DaysLeft)
	fill(&s.Tag, d.Tag)
	fill(&s.SpecialtyTag, d.SpecialtyTag)
	return s
}
