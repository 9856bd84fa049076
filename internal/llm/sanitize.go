package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/gym-slots/constants"
)

var (
	reLooseDate  = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`)
	reLooseClock = regexp.MustCompile(`^(\d{1,2})[:：](\d{2})$`)
)

var statusSynonyms = map[string]constants.SlotStatus{
	"○": constants.SlotAvailable, "◯": constants.SlotAvailable, "〇": constants.SlotAvailable, "空き": constants.SlotAvailable,
	"△": constants.SlotFew, "▲": constants.SlotFew, "残りわずか": constants.SlotFew, "少": constants.SlotFew,
	"×": constants.SlotFull, "✕": constants.SlotFull, "満": constants.SlotFull, "満員": constants.SlotFull,
	"休": constants.SlotClosed, "休館": constants.SlotClosed, "閉館": constants.SlotClosed,
}

var (
	topStrings  = []string{"gymName", "areaName", "address", "tel"}
	slotStrings = []string{"date", "start_time", "end_time", "sport_name", "status", "reception_type", "target", "notes"}
	slotCounts  = []string{"capacity", "remaining"}
)

// NormalizeScheduleJSON
// - Trims strings and drops blank/null optionals
// - Defaults gymName and reception_type
// - Pads dates and clock times, maps status symbols, canonicalizes sport names
// - Coerces numeric strings for capacity/remaining
// - Removes unknown keys (strict additionalProperties = false friendliness)
// Shape errors (wrong types) are left in place for schema validation to reject.
func NormalizeScheduleJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var changed []string
	for k := range m {
		if !contains(topStrings, k) && k != "slots" {
			delete(m, k)
			changed = append(changed, k+"(unknown)")
		}
	}
	for _, k := range topStrings {
		trimOrDrop(m, k, "", &changed)
	}
	if _, ok := m["gymName"]; !ok {
		m["gymName"] = constants.DefaultGymName
		changed = append(changed, "gymName(default)")
	}

	switch v := m["slots"].(type) {
	case nil:
		m["slots"] = []any{}
	case []any:
		for i, item := range v {
			if s, ok := item.(map[string]any); ok {
				normalizeSlot(s, fmt.Sprintf("slots[%d].", i), &changed)
			}
		}
	}

	if len(changed) > 0 {
		logger.Debug("llm.sanitize.changed", "fields", changed)
	}
	out, err := json.Marshal(m)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, changed, nil
}

func normalizeSlot(s map[string]any, prefix string, changed *[]string) {
	for k := range s {
		if !contains(slotStrings, k) && !contains(slotCounts, k) {
			delete(s, k)
			*changed = append(*changed, prefix+k+"(unknown)")
		}
	}
	for _, k := range slotStrings {
		trimOrDrop(s, k, prefix, changed)
	}

	if v, ok := s["date"].(string); ok {
		if m := reLooseDate.FindStringSubmatch(v); m != nil {
			s["date"] = m[1] + "-" + pad2(m[2]) + "-" + pad2(m[3])
		}
	}
	for _, k := range []string{"start_time", "end_time"} {
		if v, ok := s[k].(string); ok {
			if m := reLooseClock.FindStringSubmatch(v); m != nil {
				s[k] = pad2(m[1]) + ":" + m[2]
			}
		}
	}
	if v, ok := s["status"].(string); ok {
		if st, ok := statusSynonyms[v]; ok {
			s["status"] = string(st)
		} else {
			s["status"] = strings.ToLower(v)
		}
	}
	if v, ok := s["reception_type"].(string); ok {
		s["reception_type"] = strings.ToLower(v)
	} else if _, present := s["reception_type"]; !present {
		s["reception_type"] = string(constants.ReceptionSameDay)
	}
	if v, ok := s["sport_name"].(string); ok {
		if canon, ok := constants.CanonicalSport(v); ok && canon != v {
			s["sport_name"] = canon
			*changed = append(*changed, prefix+"sport_name(canonical)")
		}
	}

	for _, k := range slotCounts {
		switch v := s[k].(type) {
		case nil:
			if _, present := s[k]; present {
				delete(s, k)
				*changed = append(*changed, prefix+k+"(null)")
			}
		case string:
			t := strings.TrimSpace(v)
			if n, err := strconv.Atoi(t); err == nil {
				s[k] = n
			} else if t == "" {
				delete(s, k)
				*changed = append(*changed, prefix+k+"(empty)")
			}
		case float64:
			if v == math.Trunc(v) {
				s[k] = int(v)
			}
		}
	}
}

// trimOrDrop trims string values and removes blank or null ones.
func trimOrDrop(m map[string]any, k, prefix string, changed *[]string) {
	v, present := m[k]
	if !present {
		return
	}
	switch t := v.(type) {
	case nil:
		delete(m, k)
		*changed = append(*changed, prefix+k+"(null)")
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			delete(m, k)
			*changed = append(*changed, prefix+k+"(empty)")
		} else {
			m[k] = s
		}
	}
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
