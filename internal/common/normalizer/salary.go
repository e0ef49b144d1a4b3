package normalizer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	salaryTokenRe     = regexp.MustCompile(`\d+(?:[.,]\d+)*`)
	canonicalSalaryRe = regexp.MustCompile(`^(\d+)vnd$`)
	thousandsRe       = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+$`)
)

// Whitespace is removed before matching, so markers are stored without spaces.
var (
	negotiableTerms = []string{
		"thỏathuận",
		"thoảthuận",
		"thoathuan",
		"thươnglượng",
		"negotiable",
	}
	usdTerms     = []string{"usd", "$"}
	millionTerms = []string{"triệu", "trieu", "million"}
)

// Salary parses a salary expression into VND.
// It returns false when the text carries no numeric signal.
// A negotiation marker yields 0.
//
//	"10-15"        -> 12500000
//	"800 USD"      -> 800 * USD rate
//	"Thỏa thuận"   -> 0
//	"12500000 VND" -> 12500000
func (n *Normalizer) Salary(raw string) (int64, bool) {
	s := strings.Join(strings.Fields(fold(raw)), "")
	if s == "" {
		return 0, false
	}

	if m := canonicalSalaryRe.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return v, true
		}
	}

	if containsAny(s, negotiableTerms) {
		return 0, true
	}

	usd := containsAny(s, usdTerms)
	million := containsAny(s, millionTerms)

	var sum float64
	var count int
	for _, tok := range salaryTokenRe.FindAllString(s, -1) {
		v, ok := parseAmount(tok)
		if !ok {
			continue
		}
		switch {
		case usd:
			v *= n.usdRate
		case million:
			v *= 1_000_000
		case v >= 1 && v <= 99:
			// "10-15" on listings means 10-15 million
			v *= 1_000_000
		}
		sum += v
		count++
	}

	if count == 0 {
		return 0, false
	}
	mean := sum / float64(count)
	// out of int64 range is treated as noise, not a salary
	if math.IsNaN(mean) || math.IsInf(mean, 0) || mean >= math.MaxInt64 {
		return 0, false
	}
	return int64(mean), true
}

// FormatSalary renders a VND amount in canonical form
func FormatSalary(v int64) string {
	return strconv.FormatInt(v, 10) + " VND"
}

// parseAmount reads "1,500" and "1.000.000" as grouped thousands, "1.5" and "12,5" as decimals
func parseAmount(tok string) (float64, bool) {
	if thousandsRe.MatchString(tok) {
		tok = strings.NewReplacer(",", "", ".", "").Replace(tok)
	} else {
		tok = strings.ReplaceAll(tok, ",", ".")
		if strings.Count(tok, ".") > 1 {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
