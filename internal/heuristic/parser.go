// Package heuristic derives open-use slots from schedule text with pattern
// rules. It never calls out to the network.
package heuristic

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/gym-slots/constants"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
)

var (
	reKanjiDate = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
	reISODate   = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	reMonthDay  = regexp.MustCompile(`(\d{1,2})月(\d{1,2})日`)
	reTimeRange = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*[-－‐–—~～〜]\s*(\d{1,2}):(\d{2})`)
	// longer names first so バスケットボール wins over バスケ
	reSport = regexp.MustCompile(`バスケットボール|バレーボール|ゲートボール|バドミントン|フットサル|卓球|テニス|バレー|バスケ`)
)

// status rules in priority order
var statusRules = []struct {
	status constants.SlotStatus
	re     *regexp.Regexp
}{
	{constants.SlotAvailable, regexp.MustCompile(`[○◯〇]|空き|(?i:available)`)},
	{constants.SlotFew, regexp.MustCompile(`[△▲]|少|(?i:few)`)},
	{constants.SlotFull, regexp.MustCompile(`[×✕✖]|満|(?i:full)`)},
	{constants.SlotClosed, regexp.MustCompile(`休|閉|(?i:closed)`)},
}

var halfWidth = strings.NewReplacer(
	"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
	"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
	"：", ":", "／", "/",
)

// Parser is the rule-based slot extractor.
type Parser struct {
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Parser)

// WithClock overrides the clock used for year rollover and the synthetic slot.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

func NewParser(logger *slog.Logger, opts ...Option) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Parser{now: time.Now, logger: logger}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Parser) Name() string { return "heuristic" }

// ExtractSlots implements extract.SlotExtractor.
func (p *Parser) ExtractSlots(_ context.Context, text, sourceURL string) (entity.Schedule, error) {
	return p.ParseSchedule(text, sourceURL), nil
}

// ParseSlots scans text line by line. A line with a time range emits one slot
// dated by the most recent date line and labelled with the most recent sport.
// Text without any slot yields a single synthetic slot for today.
func (p *Parser) ParseSlots(text string) []entity.Slot {
	now := p.now()
	var (
		slots        []entity.Slot
		currentDate  string
		currentSport = constants.DefaultSport
	)

	for _, line := range strings.Split(halfWidth.Replace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if d, ok := parseDate(line, now); ok {
			currentDate = d
		}
		if m := reSport.FindString(line); m != "" {
			currentSport, _ = constants.CanonicalSport(m)
		}

		tm := reTimeRange.FindStringSubmatch(line)
		if tm == nil || currentDate == "" {
			continue
		}
		start, ok1 := clock(tm[1], tm[2])
		end, ok2 := clock(tm[3], tm[4])
		if !ok1 || !ok2 {
			continue
		}
		slots = append(slots, entity.Slot{
			Date:          currentDate,
			StartTime:     start,
			EndTime:       end,
			SportName:     currentSport,
			Status:        statusOf(line),
			ReceptionType: constants.ReceptionSameDay,
		})
	}

	if len(slots) == 0 {
		p.logger.Warn("heuristic.synthetic_slot", "date", now.Format(time.DateOnly))
		slots = append(slots, entity.Slot{
			Date:          now.Format(time.DateOnly),
			StartTime:     "09:00",
			EndTime:       "11:00",
			SportName:     constants.DefaultSport,
			Status:        constants.SlotAvailable,
			ReceptionType: constants.ReceptionSameDay,
		})
	}
	return slots
}

// parseDate finds the first date on a line. Month-day dates take the current
// year, or the next one when the month is before the current month.
func parseDate(line string, now time.Time) (string, bool) {
	if m := reKanjiDate.FindStringSubmatch(line); m != nil {
		return ymd(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := reISODate.FindStringSubmatch(line); m != nil {
		return ymd(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := reMonthDay.FindStringSubmatch(line); m != nil {
		month, day := atoi(m[1]), atoi(m[2])
		year := now.Year()
		if month < int(now.Month()) {
			year++
		}
		return ymd(year, month, day)
	}
	return "", false
}

func ymd(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return "", false // e.g. 2月30日
	}
	return t.Format(time.DateOnly), true
}

func clock(h, m string) (string, bool) {
	hour, minute := atoi(h), atoi(m)
	if hour > 23 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

func statusOf(line string) constants.SlotStatus {
	for _, r := range statusRules {
		if r.re.MatchString(line) {
			return r.status
		}
	}
	return constants.SlotAvailable
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
