package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/project-tktt/itjob-crawler/internal/domain"
)

// Tried in order, first successful parse wins
var dateLayouts = []string{
	"2006-1-2",
	"2/1/2006",
	"2-1-2006",
	"2006/1/2",
}

var daysLeftRe = regexp.MustCompile(`\d+`)

// DateStrict parses text with the fixed layout list only
func (n *Normalizer) DateStrict(raw string) (domain.Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.NewDate(t), true
		}
	}
	return domain.Date{}, false
}

// Date parses a posting date. When no layout matches, a bare integer is read as
// the number of days left before the deadline and today minus that many days is
// returned. That is an approximation of the posting date, not the real one.
func (n *Normalizer) Date(raw string) (domain.Date, bool) {
	if d, ok := n.DateStrict(raw); ok {
		return d, true
	}
	m := daysLeftRe.FindString(raw)
	if m == "" {
		return domain.Date{}, false
	}
	days, err := strconv.Atoi(m)
	if err != nil {
		return domain.Date{}, false
	}
	return n.DaysAgo(days), true
}

// DaysAgo returns today minus n days
func (n *Normalizer) DaysAgo(days int) domain.Date {
	return domain.NewDate(n.now()).AddDays(-days)
}
