package constants

import (
	"strings"
)

// DefaultSport is assumed when a schedule line names no sport.
const DefaultSport = "バドミントン"

// Sports is the fixed reference vocabulary stored in the sports table.
var Sports = []string{
	"バドミントン",
	"卓球",
	"バスケットボール",
	"バレーボール",
	"フットサル",
	"テニス",
	"プール",
	"弓道",
	"ゲートボール",
}

// CanonicalSport maps shorthand and variant spellings to the vocabulary name.
// Unknown names are returned trimmed and unchanged with ok=false.
func CanonicalSport(input string) (string, bool) {
	name := strings.TrimSpace(input)
	if name == "" {
		return "", false
	}

	synonyms := map[string]string{
		"バレー":          "バレーボール",
		"ソフトバレー":       "バレーボール",
		"バスケ":          "バスケットボール",
		"バトミントン":       "バドミントン",
		"ピンポン":         "卓球",
		"硬式テニス":        "テニス",
		"ソフトテニス":       "テニス",
		"ミニサッカー":       "フットサル",
		"badminton":    "バドミントン",
		"table tennis": "卓球",
		"basketball":   "バスケットボール",
		"volleyball":   "バレーボール",
		"futsal":       "フットサル",
		"tennis":       "テニス",
	}
	if canon, ok := synonyms[strings.ToLower(name)]; ok {
		return canon, true
	}
	for _, s := range Sports {
		if s == name {
			return s, true
		}
	}
	return name, false
}
