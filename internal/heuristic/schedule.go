package heuristic

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/gym-slots/constants"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
)

var (
	reGymName    = regexp.MustCompile(`([^\s、。:：（）()「」]+?(?:総合体育館|体育館|スポーツセンター|体育センター|コズミックセンター|アリーナ))`)
	rePrefecture = regexp.MustCompile(`東京都|北海道|大阪府|京都府|\p{Han}{2,3}県`)
	reArea       = regexp.MustCompile(`(\p{Han}{1,4}[市区町村])`)
	reAddress    = regexp.MustCompile(`((?:東京都|北海道|大阪府|京都府|\p{Han}{2,3}県)[^\s]+?[市区町村][^\s]*\d[^\s]*)`)
	reAddrLabel  = regexp.MustCompile(`(?:住所|所在地)\s*[:：]?\s*([^\s]+)`)
	reTel        = regexp.MustCompile(`(0\d{1,4}[-ー－]?\d{1,4}[-ー－]?\d{4})`)
)

// urlHints maps URL fragments of known municipal sites to venue and area.
var urlHints = []struct {
	fragment string
	gym      string
	area     string
}{
	{"kawaguchi", "川口市スポーツセンター", "川口市"},
	{"shibuya", "渋谷区スポーツセンター", "渋谷区"},
	{"shinjuku", "新宿コズミックセンター", "新宿区"},
	{"chuo", "中央区立総合スポーツセンター", "中央区"},
}

// ParseSchedule derives venue details and slots from text. The URL is only
// used as a hint when the text does not name the venue or area.
func (p *Parser) ParseSchedule(text, sourceURL string) entity.Schedule {
	text = halfWidth.Replace(text)
	hintGym, hintArea := urlHint(sourceURL)

	s := entity.Schedule{
		GymName: firstMatch(reGymName, text),
		Address: extractAddress(text),
		Tel:     extractTel(text),
		Slots:   p.ParseSlots(text),
	}
	if s.GymName == "" {
		s.GymName = hintGym
	}
	if s.GymName == "" {
		s.GymName = constants.DefaultGymName
	}

	s.AreaName = areaOf(s.Address)
	if s.AreaName == "" {
		for _, line := range strings.Split(text, "\n") {
			if a := areaOf(line); a != "" {
				s.AreaName = a
				break
			}
		}
	}
	if s.AreaName == "" {
		s.AreaName = hintArea
	}
	return s
}

func urlHint(raw string) (gym, area string) {
	u := strings.ToLower(raw)
	for _, h := range urlHints {
		if strings.Contains(u, h.fragment) {
			return h.gym, h.area
		}
	}
	return "", ""
}

func areaOf(s string) string {
	if s == "" {
		return ""
	}
	return firstMatch(reArea, rePrefecture.ReplaceAllString(s, " "))
}

func extractAddress(text string) string {
	if a := firstMatch(reAddrLabel, text); a != "" {
		return a
	}
	return firstMatch(reAddress, text)
}

func extractTel(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "TEL") || strings.Contains(line, "電話") || strings.Contains(line, "℡") {
			if t := firstMatch(reTel, line); t != "" {
				return t
			}
		}
	}
	return firstMatch(reTel, text)
}

func firstMatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}
