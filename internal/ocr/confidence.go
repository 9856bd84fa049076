package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate   = regexp.MustCompile(`\d{1,2}月\d{1,2}日|\d{4}[-/]\d{1,2}[-/]\d{1,2}`)
	reTime   = regexp.MustCompile(`\d{1,2}[:：]\d{2}`)
	reStatus = regexp.MustCompile(`[○◯〇△▲×✕✖]|空き|満|休`)
)

// heuristicConfidence scores how much the text looks like a slot schedule.
func heuristicConfidence(txt string) float32 {
	if strings.TrimSpace(txt) == "" {
		return 0
	}
	score := float32(0.2) // base
	if reDate.MatchString(txt) {
		score += 0.3
	}
	if reTime.MatchString(txt) {
		score += 0.3
	}
	if reStatus.MatchString(txt) {
		score += 0.1
	}
	if len([]rune(txt)) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
