package cleaner

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html/atom"

	"github.com/project-tktt/itjob-crawler/internal/domain"
)

// Cleaner strips markup from scraped text using Bluemonday
type Cleaner struct {
	policy *bluemonday.Policy
}

// NewCleaner creates a cleaner that strips ALL HTML
func NewCleaner() *Cleaner {
	return &Cleaner{policy: bluemonday.StrictPolicy()}
}

var tagRe = regexp.MustCompile(`^</?([a-zA-Z][a-zA-Z0-9]*)\b[^<>]*>`)

// Text removes HTML tags, decodes entities and collapses whitespace.
// Bracketed text that is not an HTML element, like "<Golang>", is kept as text,
// so cleaning an already clean value returns it unchanged.
func (c *Cleaner) Text(s string) string {
	if s == "" {
		return ""
	}
	// Sanitize re-escapes entities, so unescape after it
	text := html.UnescapeString(c.policy.Sanitize(escapeStray(s)))
	return strings.Join(strings.Fields(text), " ")
}

// escapeStray escapes every '<' that does not open or close a known HTML element
func escapeStray(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		j := strings.IndexByte(s[i:], '<')
		if j < 0 {
			b.WriteString(s[i:])
			break
		}
		b.WriteString(s[i : i+j])
		i += j
		if m := tagRe.FindStringSubmatch(s[i:]); m != nil && atom.Lookup([]byte(strings.ToLower(m[1]))) != 0 {
			b.WriteString(m[0])
			i += len(m[0])
			continue
		}
		b.WriteString("&lt;")
		i++
	}
	return b.String()
}

// List cleans every entry, keeping empty results so callers decide what to drop
func (c *Cleaner) List(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = c.Text(item)
	}
	return out
}

// CleanRaw returns a copy of raw with every text field cleaned
func (c *Cleaner) CleanRaw(raw *domain.RawJob) *domain.RawJob {
	cleaned := *raw
	cleaned.Title = c.Text(raw.Title)
	cleaned.Salary = domain.FlexString(c.Text(string(raw.Salary)))
	cleaned.Location = c.Text(raw.Location)
	cleaned.Experience = c.Text(raw.Experience)
	cleaned.PostedDate = c.Text(raw.PostedDate)
	cleaned.Education = c.List(raw.Education)
	cleaned.Skills = c.List(raw.Skills)
	return &cleaned
}
