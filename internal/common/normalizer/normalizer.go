package normalizer

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultUSDRate converts USD salaries to VND
const DefaultUSDRate = 25_000

// Normalizer converts raw field text into canonical values
type Normalizer struct {
	usdRate float64
	now     func() time.Time
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithUSDRate overrides the VND per USD rate
func WithUSDRate(rate float64) Option {
	return func(n *Normalizer) {
		if rate > 0 {
			n.usdRate = rate
		}
	}
}

// WithClock sets the clock used to resolve "days remaining" dates
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// NewNormalizer creates a new normalizer
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		usdRate: DefaultUSDRate,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Location trims the text and capitalizes the first letter of every word.
// The rest of each word is kept as written.
func (n *Normalizer) Location(raw string) string {
	words := strings.Fields(norm.NFC.String(raw))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// fold returns NFC-normalized lower-case text for keyword matching
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
