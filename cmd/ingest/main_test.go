package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no url", nil, "at least one --url is required"},
		{"bad from", []string{"--url", "https://example.com/a.pdf", "--from", "2026/11/01"}, "invalid --from date format"},
		{"bad to", []string{"--url", "https://example.com/a.pdf", "--to", "tomorrow"}, "invalid --to date format"},
		{"unknown flag", []string{"--verbose"}, "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != 1 {
				t.Fatalf("exit = %d, want 1", code)
			}
			if !strings.Contains(stderr.String(), tt.want) {
				t.Fatalf("stderr = %q", stderr.String())
			}
			if stdout.Len() != 0 {
				t.Fatalf("stdout = %q", stdout.String())
			}
		})
	}
}

func TestRun_AllFailedReturnsTwo(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := run([]string{"--inmem", "--heuristic", "--url", srv.URL + "/gone.pdf"}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("exit = %d, stderr=%s", code, stderr.String())
	}

	var sum summary
	if err := json.Unmarshal(stdout.Bytes(), &sum); err != nil {
		t.Fatalf("summary: %v (%q)", err, stdout.String())
	}
	if sum.Success != 0 || sum.Failed != 1 || len(sum.Errors) != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if strings.Contains(stderr.String(), "failed to close database") {
		t.Fatalf("cleanup failed: %s", stderr.String())
	}
}
