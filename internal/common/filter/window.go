package filter

import "github.com/project-tktt/itjob-crawler/internal/domain"

// InRange reports whether start <= d <= end. A nil date is never in range.
func InRange(d *domain.Date, start, end domain.Date) bool {
	if d == nil || d.IsZero() {
		return false
	}
	return !d.Before(start) && !d.After(end)
}

// Window is an inclusive posting date window. A zero bound is open.
type Window struct {
	Start domain.Date
	End   domain.Date
}

// IsOpen reports whether the window has no bounds at all
func (w Window) IsOpen() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Contains reports whether d falls inside the window
func (w Window) Contains(d *domain.Date) bool {
	if d == nil || d.IsZero() {
		return false
	}
	if !w.Start.IsZero() && d.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && d.After(w.End) {
		return false
	}
	return true
}
