package llm

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `  {"a":1} `, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence with prose", in: "結果です\n```\n{\n  \"a\": {\"b\": 2}\n}\n```\n以上", want: "{\n  \"a\": {\"b\": 2}\n}"},
		{name: "fence without object", in: "```\nnone\n```", want: "```\nnone\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.in); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeScheduleJSON(t *testing.T) {
	raw := []byte(`{
		"gymName": "  ",
		"areaName": " 北区 ",
		"extra": 1,
		"slots": [{
			"date": "2026/1/5",
			"start_time": "9：00",
			"end_time": "12:00",
			"sport_name": "バスケ",
			"status": "△",
			"reception_type": "RESERVATION",
			"capacity": 20.0,
			"remaining": "",
			"target": null,
			"court": "A"
		}]
	}`)

	out, changed, err := NormalizeScheduleJSON(raw, nil)
	if err != nil {
		t.Fatalf("NormalizeScheduleJSON: %v", err)
	}
	if len(changed) == 0 {
		t.Fatal("expected changes to be reported")
	}

	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatal(err)
	}
	if m["gymName"] != "体育館" {
		t.Errorf("gymName = %v", m["gymName"])
	}
	if m["areaName"] != "北区" {
		t.Errorf("areaName = %v", m["areaName"])
	}
	if _, ok := m["extra"]; ok {
		t.Error("unknown key kept")
	}
	slot := m["slots"].([]any)[0].(map[string]any)
	want := map[string]any{
		"date":           "2026-01-05",
		"start_time":     "09:00",
		"end_time":       "12:00",
		"sport_name":     "バスケットボール",
		"status":         "few",
		"reception_type": "reservation",
		"capacity":       float64(20),
	}
	for k, v := range want {
		if slot[k] != v {
			t.Errorf("%s = %v, want %v", k, slot[k], v)
		}
	}
	for _, k := range []string{"remaining", "target", "court"} {
		if _, ok := slot[k]; ok {
			t.Errorf("%s should be dropped", k)
		}
	}

	schema, err := CompileSchema(BuildScheduleJSONSchema())
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateJSON(schema, out); err != nil {
		t.Fatalf("normalized output fails schema: %v", err)
	}
}

func TestNormalizeScheduleJSON_NullSlots(t *testing.T) {
	out, _, err := NormalizeScheduleJSON([]byte(`{"gymName":"A","slots":null}`), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"slots":[]`) {
		t.Fatalf("got %s", out)
	}
}

func TestNormalizeScheduleJSON_NotObject(t *testing.T) {
	if _, _, err := NormalizeScheduleJSON([]byte(`[1,2]`), nil); err == nil {
		t.Fatal("expected error for array payload")
	}
}

func TestSchemaRejects(t *testing.T) {
	schema, err := CompileSchema(BuildScheduleJSONSchema())
	if err != nil {
		t.Fatal(err)
	}
	bad := []string{
		`{"slots":[]}`,
		`{"gymName":"A","slots":{}}`,
		`{"gymName":"A","slots":["2026-01-05 09:00"]}`,
		`{"gymName":"A","slots":[{"date":20260105}]}`,
		`{"gymName":"A","slots":[{"date":"2026-01-05","capacity":"many"}]}`,
		`{"gymName":"A","slots":[{"date":"2026-01-05","remaining":2.5}]}`,
	}
	for i, b := range bad {
		if err := ValidateJSON(schema, []byte(b)); err == nil {
			t.Errorf("case %d: expected schema error", i)
		}
	}
}

// Value problems are left to per-slot validation downstream.
func TestSchemaAcceptsBadSlotValues(t *testing.T) {
	schema, err := CompileSchema(BuildScheduleJSONSchema())
	if err != nil {
		t.Fatal(err)
	}
	ok := []string{
		`{"gymName":"A","slots":[{"date":"2026-01-05","start_time":"25:00","end_time":"12:00","sport_name":"x","status":"available","reception_type":"same_day"}]}`,
		`{"gymName":"A","slots":[{"date":"tomorrow","start_time":"09:00","end_time":"12:00","sport_name":"x","status":"open","reception_type":"same_day"}]}`,
		`{"gymName":"A","slots":[{"date":"2026-01-05","status":"full","remaining":-1}]}`,
		`{"gymName":"A","slots":[{"date":"2026-01-05","capacity":null}]}`,
	}
	for i, b := range ok {
		if err := ValidateJSON(schema, []byte(b)); err != nil {
			t.Errorf("case %d: %v", i, err)
		}
	}
}

func TestTruncateText(t *testing.T) {
	if got := TruncateText("短い", 10); got != "短い" {
		t.Fatalf("got %q", got)
	}
	got := TruncateText("あいうえお", 3)
	if got != "あいう"+TruncationMarker {
		t.Fatalf("got %q", got)
	}
}

func TestBuildUserPrompt_YearRollover(t *testing.T) {
	req := ExtractRequest{
		SourceURL: "https://example.com/x.pdf",
		Now:       time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
		Sports:    []string{"バドミントン", "卓球"},
	}
	p := BuildUserPrompt(req, "本文テキスト")
	for _, want := range []string{"2026年", "10月", "2027年", "バドミントン、卓球", "https://example.com/x.pdf", "本文テキスト"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(p, "本文テキスト") {
		t.Error("document text must close the prompt")
	}
}
