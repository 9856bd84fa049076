package llm

// BuildScheduleJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It checks shape only. Slot values (dates, clocks, enums, counts, sport names)
// are validated per slot during reconciliation so one bad slot cannot sink
// the rest of the reply.
func BuildScheduleJSONSchema() map[string]any {
	str := map[string]any{"type": "string"}
	count := map[string]any{"type": []string{"integer", "null"}}

	slot := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"date":           str,
			"start_time":     str,
			"end_time":       str,
			"sport_name":     str,
			"status":         str,
			"capacity":       count,
			"remaining":      count,
			"reception_type": str,
			"target":         str,
			"notes":          str,
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"gymName":  str,
			"areaName": str,
			"address":  str,
			"tel":      str,
			"slots":    map[string]any{"type": "array", "items": slot},
		},
		"required": []string{"gymName", "slots"},
	}
}
