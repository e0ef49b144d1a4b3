package normalizer

import "strings"

var foreignLanguages = []string{
	"tiếng anh",
	"tiếng nhật",
	"tiếng hàn",
	"tiếng trung",
}

// Scheduling notes, proficiency claims and certificate levels that are tagged as skills on listings
var skillNoise = []string{
	"có hỗ trợ data",
	"tiếng anh đọc hiểu",
	"tiếng anh giao tiếp",
	"nghỉ thứ 7",
	"trôi chảy",
	"giao tiếp cơ bản",
	"chuẩn",
	"toeic 550",
	"giao tiếp thành thạo",
	"jlpt n1", "jlpt n2", "jlpt n3", "jlpt n4", "jlpt n5",
	"topik",
}

// Skills trims entries and drops empty ones.
// A single entry holding a comma separated list is split first.
func Skills(entries []string) []string {
	if len(entries) == 1 && strings.Contains(entries[0], ",") {
		entries = strings.Split(entries[0], ",")
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if trimmed := strings.TrimSpace(e); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// SplitSkillsAndLanguages moves foreign language requirements out of the skill list
// and drops boilerplate tags. The language check runs before the noise check, so
// "Tiếng Anh giao tiếp" is kept as a language.
func SplitSkillsAndLanguages(entries []string) (skills, languages []string) {
	skills = []string{}
	languages = []string{}
	for _, e := range entries {
		trimmed := strings.TrimSpace(e)
		if trimmed == "" {
			continue
		}
		s := fold(trimmed)
		if containsAny(s, foreignLanguages) {
			languages = append(languages, trimmed)
			continue
		}
		if containsAny(s, skillNoise) {
			continue
		}
		skills = append(skills, trimmed)
	}
	return skills, languages
}
